// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package vault

import (
	"github.com/vaultage/vaultage/vault/primitive"
	"github.com/vaultage/vaultage/vault/random"
)

// Backend is the capability trait the vault depends on for every
// cryptographic operation, in place of a vtable of function pointers: a
// hardware-backed vault (TPM, secure element, out of scope to implement
// here) implements Backend exactly like the software one below, and the
// rest of the vault never changes.
type Backend interface {
	Random(out []byte) error
	SHA256(data []byte) [32]byte
	HKDFSHA256(salt, ikm, info []byte, outLen int) ([]byte, error)
	AEADSeal(key, nonce, aad, plaintext []byte) ([]byte, error)
	AEADOpen(key, nonce, aad, ciphertextTag []byte) ([]byte, error)

	GenerateCurve25519() (priv, pub []byte, err error)
	Curve25519PublicKey(priv []byte) ([]byte, error)
	Curve25519ECDH(priv, peerPub []byte) ([]byte, error)

	GenerateP256() (priv, pub []byte, err error)
	P256PublicKey(priv []byte) ([]byte, error)
	P256ECDH(priv, peerPub []byte) ([]byte, error)
}

// SoftwareBackend is the default Backend, implemented entirely with the
// primitives in vault/primitive and vault/random.
type SoftwareBackend struct{}

var _ Backend = SoftwareBackend{}

func (SoftwareBackend) Random(out []byte) error { return random.Fill(out) }

func (SoftwareBackend) SHA256(data []byte) [32]byte { return primitive.SHA256(data) }

func (SoftwareBackend) HKDFSHA256(salt, ikm, info []byte, outLen int) ([]byte, error) {
	return primitive.HKDFSHA256(salt, ikm, info, outLen)
}

func (SoftwareBackend) AEADSeal(key, nonce, aad, plaintext []byte) ([]byte, error) {
	return primitive.AEADSeal(key, nonce, aad, plaintext)
}

func (SoftwareBackend) AEADOpen(key, nonce, aad, ciphertextTag []byte) ([]byte, error) {
	return primitive.AEADOpen(key, nonce, aad, ciphertextTag)
}

func (SoftwareBackend) GenerateCurve25519() (priv, pub []byte, err error) {
	priv = make([]byte, primitive.X25519KeySize)
	if err := random.Fill(priv); err != nil {
		return nil, nil, err
	}
	pub, err = primitive.X25519ScalarBaseMult(priv)
	if err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}

func (SoftwareBackend) Curve25519PublicKey(priv []byte) ([]byte, error) {
	return primitive.X25519ScalarBaseMult(priv)
}

func (SoftwareBackend) Curve25519ECDH(priv, peerPub []byte) ([]byte, error) {
	return primitive.X25519ScalarMult(priv, peerPub)
}

func (SoftwareBackend) GenerateP256() (priv, pub []byte, err error) {
	return primitive.P256GenerateKey(random.Fill)
}

func (SoftwareBackend) P256PublicKey(priv []byte) ([]byte, error) {
	return primitive.P256PublicKey(priv)
}

func (SoftwareBackend) P256ECDH(priv, peerPub []byte) ([]byte, error) {
	return primitive.P256ECDH(priv, peerPub)
}
