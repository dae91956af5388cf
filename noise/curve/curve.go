// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

// Package curve parameterizes the Noise XX handshake over its DH group, so
// the same handshake state machine drives both the X25519
// (Noise_XX_25519_AESGCM_SHA256) and P-256 (Noise_XX_P256_AESGCM_SHA256)
// variants.
package curve

import "github.com/vaultage/vaultage/vault"

// Curve names one of the two DH groups the handshake can run over.
type Curve struct {
	// Label is the exact ASCII protocol name mixed into h at
	// initialization.
	Label string
	// PubLen is L: the DH public-key length in bytes (32 for X25519, 65
	// for P-256 uncompressed).
	PubLen int
	// PrivateType is the vault secret type for a keypair on this curve.
	PrivateType vault.SecretType
}

// X25519 is the Noise_XX_25519_AESGCM_SHA256 curve.
var X25519 = Curve{
	Label:       "Noise_XX_25519_AESGCM_SHA256",
	PubLen:      32,
	PrivateType: vault.TypeCurve25519Private,
}

// P256 is the Noise_XX_P256_AESGCM_SHA256 curve.
var P256 = Curve{
	Label:       "Noise_XX_P256_AESGCM_SHA256",
	PubLen:      65,
	PrivateType: vault.TypeP256Private,
}
