// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package primitive

import (
	"crypto/ed25519"
	"strings"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/curve25519"

	"github.com/vaultage/vaultage/vaulterr"
)

// X25519KeySize is the size in bytes of an X25519 scalar or point.
const X25519KeySize = 32

// X25519Basepoint is the canonical Curve25519 generator.
var X25519Basepoint = curve25519.Basepoint

// X25519ScalarBaseMult computes scalar*Basepoint.
func X25519ScalarBaseMult(scalar []byte) ([]byte, error) {
	if len(scalar) != X25519KeySize {
		return nil, vaulterr.New(vaulterr.InvalidArgument, "primitive.X25519ScalarBaseMult")
	}
	out, err := curve25519.X25519(scalar, curve25519.Basepoint)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.InvalidArgument, "primitive.X25519ScalarBaseMult", err)
	}
	return out, nil
}

// X25519ScalarMult performs scalar*point (RFC 7748 X25519) and rejects an
// all-zero result as a weak (low-order) point, the one output a correctly
// clamped scalar must never legitimately produce. curve25519.X25519 itself
// detects the all-zero output and refuses to return it, so the weak-point
// case surfaces as an error from that call, not as a zero result this
// function would otherwise have to check for.
func X25519ScalarMult(scalar, point []byte) ([]byte, error) {
	if len(scalar) != X25519KeySize || len(point) != X25519KeySize {
		return nil, vaulterr.New(vaulterr.InvalidArgument, "primitive.X25519ScalarMult")
	}
	out, err := curve25519.X25519(scalar, point)
	if err != nil {
		if strings.Contains(err.Error(), "low order point") {
			return nil, vaulterr.Wrap(vaulterr.WeakPoint, "primitive.X25519ScalarMult", err)
		}
		return nil, vaulterr.Wrap(vaulterr.InvalidArgument, "primitive.X25519ScalarMult", err)
	}
	return out, nil
}

// Ed25519PublicKeyToX25519 converts an Ed25519 identity public key to its
// birationally equivalent Curve25519 (Montgomery) public key, letting a
// caller whose long-term identity is an Ed25519 key reuse it as a static
// Noise DH key instead of maintaining two keypairs.
func Ed25519PublicKeyToX25519(pk ed25519.PublicKey) ([]byte, error) {
	p, err := new(edwards25519.Point).SetBytes(pk)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.InvalidArgument, "primitive.Ed25519PublicKeyToX25519", err)
	}
	return p.BytesMontgomery(), nil
}
