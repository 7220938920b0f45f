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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/idtoolkit/admin-go/internal"
	"google.golang.org/api/option"
	"google.golang.org/api/transport"
)

// maxClaimsPayloadSize is the largest a custom claims map is allowed to be
// once JSON-encoded, in bytes.
const maxClaimsPayloadSize = 1000

// newAuthHTTPClient builds the authenticated client used for Identity
// Toolkit REST calls. When conf.EmulatorHost is set, credentials are
// dropped entirely: the emulator accepts unauthenticated requests and runs
// over plain HTTP.
func newAuthHTTPClient(ctx context.Context, conf *internal.Config) (*http.Client, string, error) {
	if conf.EmulatorHost != "" {
		return transport.NewHTTPClient(ctx, option.WithoutAuthentication())
	}
	return transport.NewHTTPClient(ctx, conf.Opts...)
}

// baseClient holds the state shared by the project-wide auth.Client and the
// per-tenant auth.TenantClient: the user-management and provider-config REST
// plumbing (see user_mgt.go and provider_config.go) and the custom-token
// signer.
type baseClient struct {
	projectID              string
	tenantID               string
	userManagementEndpoint string
	providerConfigEndpoint string
	httpClient             *internal.HTTPClient
	signer                 cryptoSigner
	clock                  internal.Clock
}

func newBaseClient(ctx context.Context, conf *internal.Config) (*baseClient, error) {
	hc, _, err := newAuthHTTPClient(ctx, conf)
	if err != nil {
		return nil, err
	}

	signer, err := newCryptoSigner(ctx, conf)
	if err != nil {
		return nil, err
	}

	endpoint := idToolkitV1Endpoint
	pcEndpoint := providerConfigEndpoint
	if conf.EmulatorHost != "" {
		endpoint = fmt.Sprintf("http://%s/identitytoolkit.googleapis.com/v1", conf.EmulatorHost)
		pcEndpoint = fmt.Sprintf("http://%s/identitytoolkit.googleapis.com/v2beta1", conf.EmulatorHost)
	}

	return &baseClient{
		projectID:              conf.ProjectID,
		userManagementEndpoint: endpoint,
		providerConfigEndpoint: pcEndpoint,
		httpClient: &internal.HTTPClient{
			Client:      hc,
			SuccessFn:   internal.HasSuccessStatus,
			CreateErrFn: handleHTTPError,
			Opts: []internal.HTTPOption{
				internal.WithHeader("X-Client-Version", fmt.Sprintf("Go/Admin/%s", conf.Version)),
			},
		},
		signer: signer,
		clock:  internal.SystemClock{},
	}, nil
}

// withTenantID returns a copy of c scoped to the given tenant: user-management
// requests are routed under /tenants/<tenantID>, and minted custom tokens
// carry a tenant_id claim.
func (c *baseClient) withTenantID(tenantID string) *baseClient {
	clone := *c
	clone.tenantID = tenantID
	return &clone
}

// CustomToken creates a signed custom authentication token with the
// specified user ID. The resulting JWT can be used in a Firebase client SDK
// to trigger an authentication flow.
func (c *baseClient) CustomToken(ctx context.Context, uid string) (string, error) {
	return c.CustomTokenWithClaims(ctx, uid, nil)
}

// CustomTokenWithClaims is similar to CustomToken, but in addition to the
// user ID, it also encodes all the key-value pairs in the provided map as
// claims in the resulting JWT.
func (c *baseClient) CustomTokenWithClaims(ctx context.Context, uid string, devClaims map[string]interface{}) (string, error) {
	iss, err := c.signer.Email(ctx)
	if err != nil {
		return "", err
	}

	if len(uid) == 0 || len(uid) > 128 {
		return "", errors.New("uid must be non-empty, and not longer than 128 characters")
	}

	var disallowed []string
	for _, k := range reservedClaims {
		if _, contains := devClaims[k]; contains {
			disallowed = append(disallowed, k)
		}
	}
	if len(disallowed) == 1 {
		return "", internal.Errorf(invalidClaims, "developer claim %q is reserved and cannot be specified", disallowed[0])
	} else if len(disallowed) > 1 {
		return "", internal.Errorf(invalidClaims, "developer claims %q are reserved and cannot be specified", strings.Join(disallowed, ", "))
	}

	if devClaims != nil {
		encoded, err := json.Marshal(devClaims)
		if err != nil {
			return "", internal.Errorf(invalidClaims, "failed to encode developer claims: %v", err)
		}
		if len(encoded) > maxClaimsPayloadSize {
			return "", internal.Errorf(claimsTooLarge, "developer claims payload must not exceed %d bytes when serialized; got %d",
				maxClaimsPayloadSize, len(encoded))
		}
	}

	header := jwtHeader{Algorithm: "RS256", Type: "JWT"}
	if _, ok := c.signer.(emulatorSigner); ok {
		header.Algorithm = "none"
	}

	now := c.clock.Now().Unix()
	payload := &customToken{
		Iss:      iss,
		Sub:      iss,
		Aud:      firebaseAudience,
		UID:      uid,
		Iat:      now,
		Exp:      now + oneHourInSeconds,
		TenantID: c.tenantID,
		Claims:   devClaims,
	}

	info := &jwtInfo{header: header, payload: payload}
	return info.Token(ctx, c.signer)
}
