// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

// Package primitive implements the software cryptographic primitives the
// vault is built on: SHA-256, HKDF-SHA-256, AES-GCM, X25519 and P-256 ECDH.
// Nothing here holds secret state across calls; the vault owns lifecycle,
// this package only computes.
package primitive

import "crypto/sha256"

// SHA256 returns the SHA-256 digest of data.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}
