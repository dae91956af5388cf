// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

// Package vault implements a handle-based secret store: the only
// component that ever holds raw key material. Every AEAD, hash, HKDF,
// ECDH and CSPRNG operation downstream of the vault is expressed in terms
// of opaque Handle values.
package vault

import (
	"github.com/vaultage/vaultage/vault/primitive"
	"github.com/vaultage/vaultage/vaulterr"
)

// SecretType is the kind of material a secret holds.
type SecretType int

const (
	TypeBuffer SecretType = iota
	TypeAESKey128
	TypeAESKey256
	TypeCurve25519Private
	TypeP256Private
	TypeChainKey
)

func (t SecretType) String() string {
	switch t {
	case TypeBuffer:
		return "Buffer"
	case TypeAESKey128:
		return "AesKey128"
	case TypeAESKey256:
		return "AesKey256"
	case TypeCurve25519Private:
		return "Curve25519Private"
	case TypeP256Private:
		return "P256Private"
	case TypeChainKey:
		return "ChainKey"
	default:
		return "Unknown"
	}
}

// isPrivateKey reports whether t is one of the private-key types, which
// never satisfy Export.
func (t SecretType) isPrivateKey() bool {
	return t == TypeCurve25519Private || t == TypeP256Private
}

// fixedLength returns the declared byte length for types whose length is
// implied by the type itself (0, ok=false if the type's length is instead
// supplied by the caller, as for Buffer).
func (t SecretType) fixedLength() (n int, ok bool) {
	switch t {
	case TypeAESKey128:
		return 16, true
	case TypeAESKey256:
		return 32, true
	case TypeCurve25519Private:
		return primitive.X25519KeySize, true
	case TypeP256Private:
		return primitive.P256KeySize, true
	case TypeChainKey:
		return 32, true
	default:
		return 0, false
	}
}

// Purpose is an informational tag naming a secret's derivation context. No
// vault operation checks it: it gates neither access nor which derivation
// may use the secret.
type Purpose int

const (
	PurposeNone Purpose = iota
	PurposeKeyAgreement
	PurposeEpilogue
)

// Persistence selects whether a secret is zeroised at Deinit (Ephemeral)
// or survives across a restart under a stable string ID (Persistent).
type Persistence int

const (
	Ephemeral Persistence = iota
	Persistent
)

// Attributes describes a secret's type, purpose, persistence and declared
// length. ID is only meaningful when Persistence is Persistent.
type Attributes struct {
	Type        SecretType
	Purpose     Purpose
	Persistence Persistence
	Length      int
	ID          string
}

func (a Attributes) validate() error {
	if n, ok := a.Type.fixedLength(); ok {
		if a.Length != 0 && a.Length != n {
			return vaulterr.New(vaulterr.InvalidArgument, "vault.Attributes")
		}
		a.Length = n
	} else if a.Length <= 0 {
		return vaulterr.New(vaulterr.InvalidArgument, "vault.Attributes")
	}
	if a.Persistence == Persistent && (a.ID == "" || len(a.ID) > 64) {
		return vaulterr.New(vaulterr.InvalidArgument, "vault.Attributes")
	}
	return nil
}

func (a Attributes) length() int {
	if n, ok := a.Type.fixedLength(); ok {
		return n
	}
	return a.Length
}
