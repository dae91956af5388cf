// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package primitive

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"github.com/vaultage/vaultage/vaulterr"
)

// NonceSize is the fixed 12-byte AES-GCM IV size used throughout the vault,
// the handshake and the session. TagSize is the fixed 16-byte GCM tag.
const (
	NonceSize = 12
	TagSize   = 16
)

// newGCM wraps crypto/cipher.NewGCM, which is constant-time and
// hardware-accelerated by the Go runtime on amd64/arm64. See DESIGN.md for
// why this stays on the standard library rather than a third-party AEAD.
func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 16 && len(key) != 32 {
		return nil, vaulterr.New(vaulterr.InvalidArgument, "primitive.newGCM")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.InvalidArgument, "primitive.newGCM", err)
	}
	return cipher.NewGCM(block)
}

// AEADSeal returns ciphertext || tag for plaintext under key, nonce and aad.
func AEADSeal(key, nonce, aad, plaintext []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, vaulterr.New(vaulterr.InvalidArgument, "primitive.AEADSeal")
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

// AEADOpen authenticates and decrypts ciphertextTag (ciphertext || tag)
// under key, nonce and aad, returning AuthFailed on any tag mismatch.
func AEADOpen(key, nonce, aad, ciphertextTag []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, vaulterr.New(vaulterr.InvalidArgument, "primitive.AEADOpen")
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertextTag, aad)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.AuthFailed, "primitive.AEADOpen", err)
	}
	return plaintext, nil
}

// NonceFromCounter encodes the fixed IV layout used everywhere in this
// module: 4 zero bytes followed by the big-endian 8-byte counter.
func NonceFromCounter(counter uint64) [NonceSize]byte {
	var nonce [NonceSize]byte
	binary.BigEndian.PutUint64(nonce[4:], counter)
	return nonce
}
