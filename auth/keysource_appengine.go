// +build appengine

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

import (
	"context"
	"net/http"

	"google.golang.org/appengine/v2"
)

// aeKeySource serves public keys from the App Engine app identity service,
// bypassing the HTTP-based key source entirely.
type aeKeySource struct {
	keys []*publicKey
}

func newDefaultKeySource(ctx context.Context, uri string, hc *http.Client) (keySource, error) {
	certs, err := appengine.PublicCertificates(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]*publicKey, len(certs))
	for i, cert := range certs {
		pk, err := parsePublicKey(cert.KeyName, cert.Data)
		if err != nil {
			return nil, err
		}
		keys[i] = pk
	}
	return aeKeySource{keys}, nil
}

// Keys returns the RSA public keys managed by App Engine. The certificates
// are fetched once at construction time; there is no cache to invalidate.
func (k aeKeySource) Keys(context.Context) ([]*publicKey, error) {
	return k.keys, nil
}
