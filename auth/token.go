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

package auth

// firebaseAudience is the fixed audience claim carried by custom tokens,
// as opposed to the project id carried by ID tokens and session cookies.
const firebaseAudience = "https://identitytoolkit.googleapis.com/google.identity.identitytoolkit.v1.IdentityToolkit"

const oneHourInSeconds = 3600

// reservedClaims are standard JWT and Firebase claim names that developers
// may not set via CustomTokenWithClaims.
var reservedClaims = []string{
	"acr", "amr", "at_hash", "aud", "auth_time", "azp", "cnf", "c_hash",
	"exp", "firebase", "iat", "iss", "jti", "nbf", "nonce", "sub",
}

// Token represents a decoded Firebase ID token or session cookie.
//
// Token provides typed accessors to the common JWT fields such as Audience
// (aud) and Expires (exp). Any additional claims, including the nested
// "firebase" object describing the sign-in provider and tenant, can be
// accessed via Claims and Firebase.
type Token struct {
	Issuer   string                 `json:"iss"`
	Audience string                 `json:"aud"`
	Expires  int64                  `json:"exp"`
	IssuedAt int64                  `json:"iat"`
	Subject  string                 `json:"sub,omitempty"`
	UID      string                 `json:"uid,omitempty"`
	Firebase FirebaseInfo           `json:"firebase,omitempty"`
	Claims   map[string]interface{} `json:"-"`
}

// FirebaseInfo holds additional metadata that Firebase Authentication
// attaches to every ID token and session cookie it issues.
type FirebaseInfo struct {
	SignInProvider string                 `json:"sign_in_provider,omitempty"`
	Tenant         string                 `json:"tenant,omitempty"`
	Identities     map[string]interface{} `json:"identities,omitempty"`
}
