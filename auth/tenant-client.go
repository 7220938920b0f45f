// Copyright 2019 Google Inc. All Rights Reserved.
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

package auth

import (
	"context"
)

// TenantClient is used for managing users, configuring SAML/OIDC providers, and generating
// custom tokens and email action links for a specific tenant.
//
// Before multi-tenancy can be used in a Google Cloud Identity Platform project, tenants must be
// enabled in that project via the Cloud Console UI.
//
// Each tenant contains its own identity providers, settings and users. TenantClient enables
// managing users and SAML/OIDC configurations of specific tenants. It also supports verifying ID
// tokens and session cookies issued to users who are signed into specific tenants, and minting
// custom tokens scoped to a tenant.
//
// TenantClient instances for a specific tenant ID can be obtained by calling
// TenantManager.AuthForTenant(tenantID).
type TenantClient struct {
	*baseClient
	idTokenVerifier *tokenVerifier
	cookieVerifier  *tokenVerifier
}

// TenantID returns the ID of the tenant to which this TenantClient instance belongs.
func (tc *TenantClient) TenantID() string {
	return tc.tenantID
}

// VerifyIDToken verifies the signature and payload of the provided ID token, additionally
// checking that the token was issued to a user of this tenant.
func (tc *TenantClient) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	return tc.idTokenVerifier.VerifyToken(ctx, idToken)
}

// VerifySessionCookie verifies the signature and payload of the provided session cookie,
// additionally checking that the cookie was issued to a user of this tenant.
func (tc *TenantClient) VerifySessionCookie(ctx context.Context, cookie string) (*Token, error) {
	return tc.cookieVerifier.VerifyToken(ctx, cookie)
}
