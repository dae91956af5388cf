// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package vault

import (
	"github.com/vaultage/vaultage/vault/primitive"
	"github.com/vaultage/vaultage/vaulterr"
)

// maxHKDFOutputs bounds how many derived secrets a single HKDFSHA256 call
// may produce before it is rejected as InvalidArgument.
const maxHKDFOutputs = 8

// SHA256 hashes input; it touches no handle and needs no vault state.
func (v *Vault) SHA256(input []byte) [32]byte {
	return v.backend.SHA256(input)
}

// HKDFSHA256 derives len(derivedAttrs) new secrets from HKDF-SHA-256 over
// (salt=material of saltHandle, ikm=material of ikmHandle, info=""),
// slicing the expanded output across the requested attributes in order.
func (v *Vault) HKDFSHA256(saltHandle Handle, ikmHandle *Handle, derivedAttrs []Attributes) ([]Handle, error) {
	if len(derivedAttrs) == 0 || len(derivedAttrs) > maxHKDFOutputs {
		return nil, vaulterr.New(vaulterr.InvalidArgument, "vault.HKDFSHA256")
	}

	v.mu.Lock()
	salt, ok := v.table.resolve(saltHandle)
	if !ok {
		v.mu.Unlock()
		return nil, vaulterr.New(vaulterr.UnknownHandle, "vault.HKDFSHA256")
	}
	saltBytes := salt.export()
	var ikmBytes []byte
	if ikmHandle != nil {
		ikm, ok := v.table.resolve(*ikmHandle)
		if !ok {
			v.mu.Unlock()
			return nil, vaulterr.New(vaulterr.UnknownHandle, "vault.HKDFSHA256")
		}
		ikmBytes = ikm.export()
	}
	v.mu.Unlock()

	total := 0
	for _, a := range derivedAttrs {
		if err := a.validate(); err != nil {
			return nil, err
		}
		total += a.length()
	}

	out, err := v.backend.HKDFSHA256(saltBytes, ikmBytes, nil, total)
	if err != nil {
		return nil, err
	}

	handles := make([]Handle, 0, len(derivedAttrs))
	offset := 0
	for _, a := range derivedAttrs {
		n := a.length()
		h, err := v.put(a, out[offset:offset+n])
		if err != nil {
			for _, prior := range handles {
				v.Destroy(prior)
			}
			return nil, err
		}
		handles = append(handles, h)
		offset += n
	}
	return handles, nil
}

// curveOf reports the DH curve a private-key secret type belongs to, and
// the expected peer public-key length for that curve.
func curveOf(t SecretType) (peerPubLen int, ok bool) {
	switch t {
	case TypeCurve25519Private:
		return primitive.X25519KeySize, true
	case TypeP256Private:
		return primitive.P256PublicKeySize, true
	default:
		return 0, false
	}
}

// ECDH computes a shared secret from a private-key handle and a peer's
// public key, returning it as a new ephemeral Buffer secret.
func (v *Vault) ECDH(skHandle Handle, peerPub []byte) (Handle, error) {
	v.mu.Lock()
	sk, ok := v.table.resolve(skHandle)
	if !ok {
		v.mu.Unlock()
		return 0, vaulterr.New(vaulterr.UnknownHandle, "vault.ECDH")
	}
	skType, skMaterial := sk.attrs.Type, sk.export()
	v.mu.Unlock()

	peerLen, ok := curveOf(skType)
	if !ok {
		return 0, vaulterr.New(vaulterr.WrongCurve, "vault.ECDH")
	}
	if len(peerPub) != peerLen {
		return 0, vaulterr.New(vaulterr.WrongCurve, "vault.ECDH")
	}

	var shared []byte
	var err error
	switch skType {
	case TypeCurve25519Private:
		shared, err = v.backend.Curve25519ECDH(skMaterial, peerPub)
	case TypeP256Private:
		shared, err = v.backend.P256ECDH(skMaterial, peerPub)
	}
	if err != nil {
		return 0, err
	}

	return v.put(Attributes{
		Type:        TypeBuffer,
		Purpose:     PurposeKeyAgreement,
		Persistence: Ephemeral,
		Length:      len(shared),
	}, shared)
}

// AEADEncrypt seals plaintext under kHandle's key, encoding nonce as the
// fixed 12-byte IV.
func (v *Vault) AEADEncrypt(kHandle Handle, nonce uint64, aad, plaintext []byte) ([]byte, error) {
	key, err := v.aeadKey(kHandle)
	if err != nil {
		return nil, err
	}
	iv := primitive.NonceFromCounter(nonce)
	return v.backend.AEADSeal(key, iv[:], aad, plaintext)
}

// AEADDecrypt authenticates and opens ciphertextTag under kHandle's key.
func (v *Vault) AEADDecrypt(kHandle Handle, nonce uint64, aad, ciphertextTag []byte) ([]byte, error) {
	key, err := v.aeadKey(kHandle)
	if err != nil {
		return nil, err
	}
	iv := primitive.NonceFromCounter(nonce)
	return v.backend.AEADOpen(key, iv[:], aad, ciphertextTag)
}

func (v *Vault) aeadKey(h Handle) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.table.resolve(h)
	if !ok {
		return nil, vaulterr.New(vaulterr.UnknownHandle, "vault.aeadKey")
	}
	if s.attrs.Type != TypeAESKey128 && s.attrs.Type != TypeAESKey256 {
		return nil, vaulterr.New(vaulterr.WrongKeyType, "vault.aeadKey")
	}
	return s.export(), nil
}

// RandomBytes fills out with fresh entropy, bypassing the handle table.
func (v *Vault) RandomBytes(out []byte) error {
	return v.backend.Random(out)
}
