// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package primitive

import (
	"crypto/ecdh"

	"github.com/vaultage/vaultage/vaulterr"
)

// P256KeySize is the size in bytes of a P-256 private scalar.
const P256KeySize = 32

// P256PublicKeySize is the size in bytes of an uncompressed P-256 public
// point (0x04 || X || Y).
const P256PublicKeySize = 65

// P256GenerateKey returns a fresh P-256 private scalar and its uncompressed
// public point.
func P256GenerateKey(rnd func([]byte) error) (priv, pub []byte, err error) {
	curve := ecdh.P256()
	key, err := curve.GenerateKey(randReader{rnd})
	if err != nil {
		return nil, nil, vaulterr.Wrap(vaulterr.InvalidArgument, "primitive.P256GenerateKey", err)
	}
	return key.Bytes(), key.PublicKey().Bytes(), nil
}

// P256PublicKey derives the uncompressed public point for a P-256 private
// scalar.
func P256PublicKey(sk []byte) ([]byte, error) {
	key, err := ecdh.P256().NewPrivateKey(sk)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.InvalidArgument, "primitive.P256PublicKey", err)
	}
	return key.PublicKey().Bytes(), nil
}

// P256ECDH computes the X coordinate of sk*pub for an uncompressed P-256
// public point, rejecting points not on the curve (WrongCurve) the way
// crypto/ecdh validates every point it parses.
func P256ECDH(sk, peerPubUncompressed []byte) ([]byte, error) {
	if len(peerPubUncompressed) != P256PublicKeySize {
		return nil, vaulterr.New(vaulterr.WrongCurve, "primitive.P256ECDH")
	}
	curve := ecdh.P256()
	priv, err := curve.NewPrivateKey(sk)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.InvalidArgument, "primitive.P256ECDH", err)
	}
	pub, err := curve.NewPublicKey(peerPubUncompressed)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.WrongCurve, "primitive.P256ECDH", err)
	}
	secret, err := priv.ECDH(pub)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.InvalidArgument, "primitive.P256ECDH", err)
	}
	return secret, nil
}

// randReader adapts a Fill-shaped function to io.Reader, so crypto/ecdh's
// key generation can draw from the same entropy source as the rest of the
// vault (vault/random.Fill) instead of calling crypto/rand directly.
type randReader struct {
	fill func([]byte) error
}

func (r randReader) Read(p []byte) (int, error) {
	if err := r.fill(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
