// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package vault_test

import (
	"bytes"
	"testing"

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

func TestGenerateImportExportRoundTrip(t *testing.T) {
	v := openVault(t)

	h, err := v.Generate(vault.Attributes{Type: vault.TypeBuffer, Length: 16})
	if err != nil {
		t.Fatal(err)
	}
	material, err := v.Export(h)
	if err != nil {
		t.Fatal(err)
	}
	if len(material) != 16 {
		t.Fatalf("exported material length = %d, want 16", len(material))
	}

	h2, err := v.Import(vault.Attributes{Type: vault.TypeBuffer, Length: 4}, []byte("abcd"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := v.Export(h2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("abcd")) {
		t.Fatalf("exported material = %q, want %q", got, "abcd")
	}
}

func TestPrivateKeyNotExportable(t *testing.T) {
	v := openVault(t)

	h, err := v.Generate(vault.Attributes{Type: vault.TypeCurve25519Private})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Export(h); !vaulterr.Is(err, vaulterr.NotExportable) {
		t.Fatalf("Export on a private key = %v, want NotExportable", err)
	}

	pub, err := v.PublicKeyGet(h)
	if err != nil {
		t.Fatal(err)
	}
	if len(pub) != 32 {
		t.Fatalf("public key length = %d, want 32", len(pub))
	}

	// Export remains rejected after an unrelated op touched the handle.
	if _, err := v.AttributesGet(h); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Export(h); !vaulterr.Is(err, vaulterr.NotExportable) {
		t.Fatalf("Export after AttributesGet = %v, want NotExportable", err)
	}
}

func TestDestroyInvalidatesHandle(t *testing.T) {
	v := openVault(t)

	h, err := v.Generate(vault.Attributes{Type: vault.TypeBuffer, Length: 8})
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Destroy(h); err != nil {
		t.Fatal(err)
	}

	if _, err := v.Export(h); !vaulterr.Is(err, vaulterr.UnknownHandle) {
		t.Fatalf("Export on a destroyed handle = %v, want UnknownHandle", err)
	}
	if _, err := v.AttributesGet(h); !vaulterr.Is(err, vaulterr.UnknownHandle) {
		t.Fatalf("AttributesGet on a destroyed handle = %v, want UnknownHandle", err)
	}
	if err := v.Destroy(h); !vaulterr.Is(err, vaulterr.UnknownHandle) {
		t.Fatalf("double Destroy = %v, want UnknownHandle", err)
	}
}

func TestECDHSymmetry(t *testing.T) {
	v := openVault(t)

	a, err := v.Generate(vault.Attributes{Type: vault.TypeCurve25519Private})
	if err != nil {
		t.Fatal(err)
	}
	b, err := v.Generate(vault.Attributes{Type: vault.TypeCurve25519Private})
	if err != nil {
		t.Fatal(err)
	}
	A, err := v.PublicKeyGet(a)
	if err != nil {
		t.Fatal(err)
	}
	B, err := v.PublicKeyGet(b)
	if err != nil {
		t.Fatal(err)
	}

	ab, err := v.ECDH(a, B)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := v.ECDH(b, A)
	if err != nil {
		t.Fatal(err)
	}
	abMat, err := v.Export(ab)
	if err != nil {
		t.Fatal(err)
	}
	baMat, err := v.Export(ba)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(abMat, baMat) {
		t.Fatalf("ecdh(a, B) = %x, ecdh(b, A) = %x, want equal", abMat, baMat)
	}
}

func TestAEADRoundTripAndTamper(t *testing.T) {
	v := openVault(t)

	k, err := v.Generate(vault.Attributes{Type: vault.TypeAESKey128})
	if err != nil {
		t.Fatal(err)
	}
	aad := []byte("associated data")
	plaintext := []byte("submarineyellow")

	ct, err := v.AEADEncrypt(k, 0, aad, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	pt, err := v.AEADDecrypt(k, 0, aad, ct)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pt, plaintext) {
		t.Fatalf("round-tripped plaintext = %q, want %q", pt, plaintext)
	}

	tampered := append([]byte{}, ct...)
	tampered[0] ^= 0x01
	if _, err := v.AEADDecrypt(k, 0, aad, tampered); !vaulterr.Is(err, vaulterr.AuthFailed) {
		t.Fatalf("decrypt of tampered ciphertext = %v, want AuthFailed", err)
	}
	if _, err := v.AEADDecrypt(k, 1, aad, ct); !vaulterr.Is(err, vaulterr.AuthFailed) {
		t.Fatalf("decrypt with wrong nonce = %v, want AuthFailed", err)
	}
}
