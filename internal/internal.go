// Package internal contains functionality that is shared across the
// public packages of this module, but is not meant to be used directly
// by consumers of the SDK.
package internal

import (
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Config carries the configuration needed to construct the Auth facade
// for a single application handle.
type Config struct {
	Opts      []option.ClientOption
	Creds     *google.DefaultCredentials
	ProjectID string
	Version   string

	// ServiceAccountID, when set, names the service account used for the
	// IAM signBlob signing strategy without requiring a private key.
	ServiceAccountID string

	// EmulatorHost, when non-empty, is the host:port of a running
	// Firebase Auth emulator. All Identity Toolkit requests are sent
	// over HTTP to this host, and ID-token/session-cookie signature
	// verification is skipped.
	EmulatorHost string
}

// HashConfig represents the password hash configuration produced by a
// auth/hash algorithm, ready to be copied onto an account-upload request.
type HashConfig struct {
	HashAlgorithm    string
	SignerKey        string
	SaltSeparator    string
	Rounds           int64
	MemoryCost       int64
	DerivedKeyLength int64
	Parallelization  int64
	BlockSize        int64
	ForceSendFields  []string
}

// Clock is used to query the current time, so that tests can inject a
// fixed value.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// MockTokenSource is an oauth2.TokenSource that always returns the same
// static access token, for use in tests.
type MockTokenSource struct {
	AccessToken string
}

// Token returns the configured static access token.
func (ts *MockTokenSource) Token() (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: ts.AccessToken}, nil
}
