// +build !appengine

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

package auth // import "github.com/idtoolkit/admin-go/auth"

import (
	"context"

	"github.com/idtoolkit/admin-go/internal"
)

func newCryptoSigner(ctx context.Context, conf *internal.Config) (cryptoSigner, error) {
	return signerFromConfig(ctx, conf, func(ctx context.Context, conf *internal.Config) (cryptoSigner, error) {
		return newIAMSigner(ctx, conf)
	})
}
