// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package primitive_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/vaultage/vaultage/vault/primitive"
)

func TestHKDFSHA256Vector(t *testing.T) {
	salt, _ := hex.DecodeString("000102030405060708090a0b0c")
	ikm := bytes.Repeat([]byte{0x0b}, 22)
	info, _ := hex.DecodeString("f0f1f2f3f4f5f6f7f8f9")

	out, err := primitive.HKDFSHA256(salt, ikm, info, 42)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := hex.DecodeString("3cb25f25faacd57a")
	if !bytes.Equal(out[:8], want) {
		t.Fatalf("hkdf first 8 bytes = %x, want %x", out[:8], want)
	}
}

func TestHKDFSHA256Deterministic(t *testing.T) {
	salt := []byte("salt")
	ikm := []byte("input key material")
	info := []byte("info")

	a, err := primitive.HKDFSHA256(salt, ikm, info, 64)
	if err != nil {
		t.Fatal(err)
	}
	b, err := primitive.HKDFSHA256(salt, ikm, info, 64)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("HKDFSHA256 is not deterministic for identical inputs")
	}
}

func TestHKDFSHA256RejectsOverlongOutput(t *testing.T) {
	if _, err := primitive.HKDFSHA256(nil, []byte("ikm"), nil, 255*32+1); err == nil {
		t.Fatal("expected an error for an output length beyond 255*HashLen")
	}
}
