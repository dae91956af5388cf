// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package primitive_test

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/vaultage/vaultage/vault/primitive"
	"github.com/vaultage/vaultage/vaulterr"
)

func TestX25519ECDHSymmetry(t *testing.T) {
	a := make([]byte, primitive.X25519KeySize)
	b := make([]byte, primitive.X25519KeySize)
	if _, err := rand.Read(a); err != nil {
		t.Fatal(err)
	}
	if _, err := rand.Read(b); err != nil {
		t.Fatal(err)
	}

	A, err := primitive.X25519ScalarBaseMult(a)
	if err != nil {
		t.Fatal(err)
	}
	B, err := primitive.X25519ScalarBaseMult(b)
	if err != nil {
		t.Fatal(err)
	}

	ab, err := primitive.X25519ScalarMult(a, B)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := primitive.X25519ScalarMult(b, A)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ab, ba) {
		t.Fatalf("ecdh(a, B) = %x, ecdh(b, A) = %x, want equal", ab, ba)
	}
}

// TestX25519ScriptedHandshakeKeys pins the two ephemeral keypairs a scripted
// X25519 XX handshake is seeded with: sequential byte ranges as raw scalars,
// run through the production scalar-base-mult path. The resulting public
// keys are exactly the unencrypted prefixes of the handshake's first two
// wire messages (an XX handshake's e and re are sent in the clear), so this
// also pins the wire format those messages build on. Verified against an
// independent RFC 7748 Montgomery-ladder implementation.
func TestX25519ScriptedHandshakeKeys(t *testing.T) {
	seq := func(start byte, n int) []byte {
		out := make([]byte, n)
		for i := range out {
			out[i] = start + byte(i)
		}
		return out
	}

	tests := []struct {
		name   string
		scalar []byte
		want   string // hex of the first 16 bytes of the resulting public key
	}{
		{"initiator ephemeral (message 1)", seq(0x20, 32), "358072d6365880d1aeea329adf912138"},
		{"responder ephemeral (message 2)", seq(0x41, 32), "64b101b1d0be5a8704bd078f9895001f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub, err := primitive.X25519ScalarBaseMult(tt.scalar)
			if err != nil {
				t.Fatal(err)
			}
			got := hex.EncodeToString(pub[:16])
			if got != tt.want {
				t.Fatalf("public key prefix = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestX25519ScalarMultRejectsWeakPoint(t *testing.T) {
	scalar := make([]byte, primitive.X25519KeySize)
	if _, err := rand.Read(scalar); err != nil {
		t.Fatal(err)
	}
	zero := make([]byte, primitive.X25519KeySize)

	_, err := primitive.X25519ScalarMult(scalar, zero)
	if !vaulterr.Is(err, vaulterr.WeakPoint) {
		t.Fatalf("X25519ScalarMult(scalar, 0) = %v, want WeakPoint", err)
	}
}
