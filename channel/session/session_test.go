// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package session_test

import (
	"bytes"
	"testing"

	"github.com/vaultage/vaultage/channel/session"
	"github.com/vaultage/vaultage/vault"
	"github.com/vaultage/vaultage/vaulterr"
)

func openVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.Open(vault.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = v.Deinit() })
	return v
}

// pairedSessions builds two sessions sharing a key pair the way a split
// handshake epilogue would: initiator's encrypt_key equals responder's
// decrypt_key, and vice versa.
func pairedSessions(t *testing.T) (initiator, responder *session.Session) {
	t.Helper()
	v := openVault(t)

	k1, err := v.Generate(vault.Attributes{Type: vault.TypeAESKey128})
	if err != nil {
		t.Fatal(err)
	}
	k2, err := v.Generate(vault.Attributes{Type: vault.TypeAESKey128})
	if err != nil {
		t.Fatal(err)
	}
	var h [32]byte
	return session.New(v, k1, k2, h), session.New(v, k2, k1, h)
}

func TestSessionRoundTrip(t *testing.T) {
	a, b := pairedSessions(t)

	ct, err := a.Encrypt(nil, []byte("submarineyellow"))
	if err != nil {
		t.Fatal(err)
	}
	pt, err := b.Decrypt(nil, ct)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pt, []byte("submarineyellow")) {
		t.Fatalf("decrypted plaintext = %q, want %q", pt, "submarineyellow")
	}

	ct2, err := b.Encrypt(nil, []byte("yellowsubmarine"))
	if err != nil {
		t.Fatal(err)
	}
	pt2, err := a.Decrypt(nil, ct2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pt2, []byte("yellowsubmarine")) {
		t.Fatalf("decrypted plaintext = %q, want %q", pt2, "yellowsubmarine")
	}
}

func TestSessionTamperDoesNotAdvanceCounter(t *testing.T) {
	a, b := pairedSessions(t)

	ct, err := a.Encrypt(nil, []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	tampered := append([]byte{}, ct...)
	tampered[0] ^= 0x01

	if _, err := b.Decrypt(nil, tampered); !vaulterr.Is(err, vaulterr.AuthFailed) {
		t.Fatalf("decrypt of tampered ciphertext = %v, want AuthFailed", err)
	}
	// The untampered frame at the same (unconsumed) counter still decrypts.
	pt, err := b.Decrypt(nil, ct)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pt, []byte("hello")) {
		t.Fatalf("decrypted plaintext = %q, want %q", pt, "hello")
	}
}

func TestSessionNonceMonotonicity(t *testing.T) {
	a, b := pairedSessions(t)

	ct1, err := a.Encrypt(nil, []byte("one"))
	if err != nil {
		t.Fatal(err)
	}
	ct2, err := a.Encrypt(nil, []byte("two"))
	if err != nil {
		t.Fatal(err)
	}
	// Successive frames use different (incrementing) nonces, so ciphertext
	// for identical-length distinct plaintexts never collides, and a
	// ciphertext produced for nonce 0 never authenticates at nonce 1.
	if _, err := b.Decrypt(nil, ct2); err == nil {
		t.Fatal("decrypting the second ciphertext against the first nonce should fail")
	}
	pt1, err := b.Decrypt(nil, ct1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pt1, []byte("one")) {
		t.Fatalf("decrypted plaintext = %q, want %q", pt1, "one")
	}
}

func TestSessionCloseInvalidatesKeys(t *testing.T) {
	a, b := pairedSessions(t)
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Encrypt(nil, []byte("x")); !vaulterr.Is(err, vaulterr.TransportClosed) {
		t.Fatalf("Encrypt after Close = %v, want TransportClosed", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close = %v, want nil", err)
	}
	_ = b
}
