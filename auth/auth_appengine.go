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

	"github.com/idtoolkit/admin-go/internal"
	"google.golang.org/appengine/v2"
)

// aeSigner is a cryptoSigner backed by the App Engine app identity service.
type aeSigner struct{}

func (aeSigner) Sign(ctx context.Context, b []byte) ([]byte, error) {
	_, sig, err := appengine.SignBytes(ctx, b)
	return sig, err
}

func (aeSigner) Email(ctx context.Context) (string, error) {
	return appengine.ServiceAccount(ctx)
}

func newCryptoSigner(ctx context.Context, conf *internal.Config) (cryptoSigner, error) {
	return signerFromConfig(ctx, conf, func(ctx context.Context, conf *internal.Config) (cryptoSigner, error) {
		return aeSigner{}, nil
	})
}
