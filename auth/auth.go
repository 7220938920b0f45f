// Copyright 2017 Google Inc. All Rights Reserved.
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

// Package auth contains functions for minting custom authentication tokens, verifying Firebase ID
// tokens and session cookies, and managing users, OIDC/SAML provider configurations and tenants
// in a Firebase project.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/idtoolkit/admin-go/internal"
)

// Client is the interface for the Firebase auth service.
//
// Client facilitates generating custom tokens, verifying Firebase ID tokens and session cookies,
// and managing users, OIDC/SAML provider configurations and tenants in a Firebase project.
//
// SAML and OIDC provider configuration management (SAMLProviderConfig, CreateOIDCProviderConfig,
// and similar) and user management (GetUser, CreateUser, and similar) are implemented as methods
// on the embedded baseClient, and so are reachable directly on Client.
type Client struct {
	*baseClient

	// TenantManager supports managing the tenants of this project, and obtaining TenantClient
	// instances scoped to individual tenants.
	TenantManager *TenantManager

	conf *internal.Config
	mu   sync.Mutex

	idTokenVerifier *tokenVerifier
	cookieVerifier  *tokenVerifier

	destroyed bool
}

// NewClient creates a new instance of the Firebase Auth Client.
//
// This function can only be invoked from within the SDK. Client applications should access the
// the Auth service through a higher level registry, which handles initializing the Client with
// the appropriate configuration.
func NewClient(ctx context.Context, conf *internal.Config) (*Client, error) {
	base, err := newBaseClient(ctx, conf)
	if err != nil {
		return nil, err
	}

	hc, _, err := newAuthHTTPClient(ctx, conf)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseClient:    base,
		TenantManager: newTenantManager(base, conf, hc),
		conf:          conf,
	}, nil
}

// ErrClientDestroyed is returned by Client methods after Destroy has been called.
var ErrClientDestroyed = errors.New("auth client has been destroyed")

// Destroy marks the Client as destroyed. Calling Destroy more than once is a no-op.
//
// After Destroy, CustomToken, CustomTokenWithClaims, VerifyIDToken, VerifySessionCookie (and
// their AndCheckRevoked variants) and SessionCookie return ErrClientDestroyed without making
// any request. The user management, email action link and provider config methods promoted
// from the embedded base client, the TenantManager, and TenantClient instances are not
// affected by Destroy and keep working. Destroy releases no resources of its own.
func (c *Client) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
}

func (c *Client) checkAlive() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrClientDestroyed
	}
	return nil
}

// getIDTokenVerifier lazily builds and memoizes the ID token verifier. The supplier is invoked
// at most once; if it fails, the failure is not cached, so a later call may retry it.
func (c *Client) getIDTokenVerifier(ctx context.Context) (*tokenVerifier, error) {
	if err := c.checkAlive(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idTokenVerifier != nil {
		return c.idTokenVerifier, nil
	}

	verifier, err := newIDTokenVerifier(ctx, c.conf.ProjectID)
	if err != nil {
		return nil, err
	}
	if c.conf.EmulatorHost != "" {
		verifier = verifier.forEmulator()
	}
	c.idTokenVerifier = verifier
	return verifier, nil
}

func (c *Client) getCookieVerifier(ctx context.Context) (*tokenVerifier, error) {
	if err := c.checkAlive(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cookieVerifier != nil {
		return c.cookieVerifier, nil
	}

	verifier, err := newSessionCookieVerifier(ctx, c.conf.ProjectID)
	if err != nil {
		return nil, err
	}
	if c.conf.EmulatorHost != "" {
		verifier = verifier.forEmulator()
	}
	c.cookieVerifier = verifier
	return verifier, nil
}

// CustomToken creates a signed custom authentication token with the specified user ID. The
// resulting JWT can be used in a client SDK to trigger an authentication flow.
//
// This override exists only to apply the liveness check; the minting logic itself lives on
// baseClient and is shared with TenantClient.
func (c *Client) CustomToken(ctx context.Context, uid string) (string, error) {
	if err := c.checkAlive(); err != nil {
		return "", err
	}
	return c.baseClient.CustomToken(ctx, uid)
}

// CustomTokenWithClaims is similar to CustomToken, but in addition to the user ID, it also
// encodes all the key-value pairs in the provided map as claims in the resulting JWT.
func (c *Client) CustomTokenWithClaims(ctx context.Context, uid string, devClaims map[string]interface{}) (string, error) {
	if err := c.checkAlive(); err != nil {
		return "", err
	}
	return c.baseClient.CustomTokenWithClaims(ctx, uid, devClaims)
}

// VerifyIDToken verifies the signature and payload of the provided ID token.
//
// VerifyIDToken accepts a signed JWT token string, and verifies that it is current, issued for
// the configured Firebase project, and signed by the Google Firebase services. It does not
// check whether the token has been revoked. See VerifyIDTokenAndCheckRevoked.
func (c *Client) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	verifier, err := c.getIDTokenVerifier(ctx)
	if err != nil {
		return nil, err
	}
	return verifier.VerifyToken(ctx, idToken)
}

// VerifyIDTokenAndCheckRevoked verifies the signature and payload of the provided ID token, and
// additionally checks that the token has not been revoked. See VerifyIDToken for details on the
// token verification performed.
//
// This function makes an additional call to the Firebase Auth backend to check for revocation,
// and is therefore more expensive than VerifyIDToken.
func (c *Client) VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*Token, error) {
	token, err := c.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	revoked, err := c.checkRevoked(ctx, token)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, internal.Errorf(idTokenRevoked, "ID token has been revoked")
	}
	return token, nil
}

// VerifySessionCookie verifies the signature and payload of the provided session cookie.
func (c *Client) VerifySessionCookie(ctx context.Context, cookie string) (*Token, error) {
	verifier, err := c.getCookieVerifier(ctx)
	if err != nil {
		return nil, err
	}
	return verifier.VerifyToken(ctx, cookie)
}

// VerifySessionCookieAndCheckRevoked verifies the signature and payload of the provided session
// cookie, and additionally checks that the cookie has not been revoked.
func (c *Client) VerifySessionCookieAndCheckRevoked(ctx context.Context, cookie string) (*Token, error) {
	token, err := c.VerifySessionCookie(ctx, cookie)
	if err != nil {
		return nil, err
	}

	revoked, err := c.checkRevoked(ctx, token)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, internal.Errorf(sessionCookieRevoked, "session cookie has been revoked")
	}
	return token, nil
}

// checkRevoked looks up the token's subject and compares the token's issued-at time against the
// user's TokensValidAfterMillis, which RevokeRefreshTokens advances to the current time.
func (c *Client) checkRevoked(ctx context.Context, token *Token) (bool, error) {
	user, err := c.GetUser(ctx, token.UID)
	if err != nil {
		return false, err
	}
	if user.Disabled {
		return false, internal.Errorf(userDisabled, "user %q is disabled", token.UID)
	}
	if user.TokensValidAfterMillis/1000 > token.IssuedAt {
		return true, nil
	}
	return false, nil
}

// SessionCookie creates a new Firebase session cookie from the given ID token and expiry
// duration. The returned JWT can be set as a server-side session cookie with a custom cookie
// policy. Expiry duration must be at least 5 minutes but may not exceed 14 days.
func (c *Client) SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	if err := c.checkAlive(); err != nil {
		return "", err
	}
	return c.createSessionCookie(ctx, idToken, expiresIn)
}
