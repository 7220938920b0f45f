// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fireauth is the entry point to the Identity Toolkit Admin SDK. It
// provides the App application handle, a process-wide registry of named App
// instances, and lazily-constructed access to the auth facade.
package fireauth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/idtoolkit/admin-go/auth"
	"github.com/idtoolkit/admin-go/internal"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Version of this SDK, reported to the backend via the X-Client-Version header.
const Version = "1.0.0"

// DefaultAppName is the name assigned to an App created via NewApp.
const DefaultAppName = "[DEFAULT]"

var authScopes = []string{
	"https://www.googleapis.com/auth/firebase",
	"https://www.googleapis.com/auth/userinfo.email",
}

// Config represents the configuration used to initialize an App.
type Config struct {
	// ProjectID is the Google Cloud Project ID. If empty, it is inferred from
	// the resolved credentials.
	ProjectID string

	// ServiceAccountID is the email of the service account used to sign
	// custom tokens via IAM signBlob, when the SDK isn't initialized with a
	// full service account private key.
	ServiceAccountID string

	// EmulatorHost, when non-empty, is the host:port of a running Identity
	// Toolkit emulator. All requests are sent unauthenticated, over HTTP, to
	// this host.
	EmulatorHost string
}

// App holds configuration and state common to the auth facade obtained from
// it. An App is immutable once created. Once Delete has been called, Auth
// fails; Name and ProjectID keep returning their values.
type App struct {
	name             string
	projectID        string
	serviceAccountID string
	emulatorHost     string
	opts             []option.ClientOption
	creds            *google.DefaultCredentials
	version          string

	mu      sync.Mutex
	client  *auth.Client
	deleted bool
}

var (
	appsMu sync.Mutex
	apps   = make(map[string]*App)
)

// NewApp creates a new App and registers it under DefaultAppName.
//
// NewApp fails if an App is already registered under that name; call
// DeleteApp first to replace it. If opts contains no credential option,
// NewApp attempts to authenticate using Google application default
// credentials.
func NewApp(ctx context.Context, config *Config, opts ...option.ClientOption) (*App, error) {
	return NewAppNamed(ctx, DefaultAppName, config, opts...)
}

// NewAppNamed creates a new App and registers it under the given name.
//
// The registry is create-if-absent: NewAppNamed fails if an App is already
// registered under name.
func NewAppNamed(ctx context.Context, name string, config *Config, opts ...option.ClientOption) (*App, error) {
	if name == "" {
		return nil, errors.New("app name must not be empty")
	}

	appsMu.Lock()
	defer appsMu.Unlock()
	if _, exists := apps[name]; exists {
		return nil, fmt.Errorf("app named %q already exists", name)
	}

	app, err := newApp(ctx, name, config, opts...)
	if err != nil {
		return nil, err
	}
	apps[name] = app
	return app, nil
}

func newApp(ctx context.Context, name string, config *Config, opts ...option.ClientOption) (*App, error) {
	if config == nil {
		config = &Config{}
	}

	scopedOpts := append([]option.ClientOption{option.WithScopes(authScopes...)}, opts...)

	var creds *google.DefaultCredentials
	if config.EmulatorHost == "" {
		c, err := google.FindDefaultCredentials(ctx, authScopes...)
		if err == nil {
			creds = c
		}
	}

	projectID := config.ProjectID
	if projectID == "" && creds != nil {
		projectID = creds.ProjectID
	}

	return &App{
		name:             name,
		projectID:        projectID,
		serviceAccountID: config.ServiceAccountID,
		emulatorHost:     config.EmulatorHost,
		opts:             scopedOpts,
		creds:            creds,
		version:          Version,
	}, nil
}

// GetApp returns the App registered under name.
func GetApp(name string) (*App, error) {
	appsMu.Lock()
	defer appsMu.Unlock()
	app, ok := apps[name]
	if !ok {
		return nil, fmt.Errorf("app named %q does not exist", name)
	}
	return app, nil
}

// DeleteApp destroys and unregisters the App registered under name, if any.
// Delete-by-name is a no-op when no App is registered under that name.
func DeleteApp(name string) {
	appsMu.Lock()
	app, ok := apps[name]
	if ok {
		delete(apps, name)
	}
	appsMu.Unlock()

	if ok {
		app.Delete()
	}
}

// Name returns the name this App is registered under.
func (a *App) Name() string {
	return a.name
}

// ProjectID returns the Google Cloud Project ID associated with this App.
func (a *App) ProjectID() string {
	return a.projectID
}

// Auth returns the auth.Client for this App, constructing it on first call
// and memoizing it for the lifetime of the App.
func (a *App) Auth(ctx context.Context) (*auth.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.deleted {
		return nil, errors.New("app has been deleted")
	}
	if a.client != nil {
		return a.client, nil
	}

	conf := &internal.Config{
		Opts:             a.opts,
		Creds:            a.creds,
		ProjectID:        a.projectID,
		Version:          a.version,
		ServiceAccountID: a.serviceAccountID,
		EmulatorHost:     a.emulatorHost,
	}
	client, err := auth.NewClient(ctx, conf)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// Delete marks this App as deleted, so that all subsequent calls to Auth
// fail, and calls Destroy on the auth.Client already constructed, if any
// (see auth.Client.Destroy for which of its methods then fail and which keep
// working). Delete is idempotent; calling it more than once is a no-op. Delete
// does not remove the App from the registry it was created in — callers
// that also want that should use DeleteApp instead.
func (a *App) Delete() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.deleted {
		return
	}
	a.deleted = true
	if a.client != nil {
		a.client.Destroy()
	}
}
