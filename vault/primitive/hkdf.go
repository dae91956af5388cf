// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package primitive

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/vaultage/vaultage/vaulterr"
)

// maxHKDFOutput is RFC 5869's 255*HashLen ceiling for a single Expand call.
const maxHKDFOutput = 255 * sha256.Size

// HKDFSHA256 derives outLen bytes from ikm using HKDF-SHA-256 (RFC 5869),
// with the given salt and info. A nil salt is treated as a zero-filled
// salt of the hash's output length, per RFC 5869 §2.2.
func HKDFSHA256(salt, ikm, info []byte, outLen int) ([]byte, error) {
	if outLen < 0 || outLen > maxHKDFOutput {
		return nil, vaulterr.New(vaulterr.InvalidArgument, "primitive.HKDFSHA256")
	}
	r := hkdf.New(sha256.New, ikm, salt, info)
	out := make([]byte, outLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, vaulterr.Wrap(vaulterr.InvalidArgument, "primitive.HKDFSHA256", err)
	}
	return out, nil
}
