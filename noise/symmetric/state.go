// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

// Package symmetric implements the Noise symmetric state: the running
// transcript hash h, chaining key ck, current AEAD key k and message
// counter n, all built on top of a vault.Vault so that ck and k never
// exist as raw bytes outside the vault boundary.
package symmetric

import "github.com/vaultage/vaultage/vault"

// State is the Noise symmetric state threaded through a handshake.
type State struct {
	v  *vault.Vault
	h  [32]byte
	ck vault.Handle
	k  *vault.Handle
	n  uint64
}

// New initializes a symmetric state from a protocol label: h is the label
// padded with zeros to 32 bytes if it fits, or its SHA-256 otherwise; ck
// starts equal to h; k is absent; n is 0; the (empty) prologue is then
// mixed in.
func New(v *vault.Vault, label string) (*State, error) {
	var h [32]byte
	if len(label) <= 32 {
		copy(h[:], label)
	} else {
		h = v.SHA256([]byte(label))
	}

	ck, err := v.Import(vault.Attributes{
		Type:        vault.TypeChainKey,
		Persistence: vault.Ephemeral,
	}, h[:])
	if err != nil {
		return nil, err
	}

	s := &State{v: v, h: h, ck: ck}
	s.MixHash(nil) // the prologue is empty
	return s, nil
}

// H returns a copy of the current transcript hash.
func (s *State) H() [32]byte { return s.h }

// CKHandle exposes the chaining-key handle so the handshake's split step
// can derive the final directional keys from it.
func (s *State) CKHandle() vault.Handle { return s.ck }

// MixHash folds d into the running transcript hash: h ← SHA256(h || d).
func (s *State) MixHash(d []byte) {
	buf := make([]byte, 0, len(s.h)+len(d))
	buf = append(buf, s.h[:]...)
	buf = append(buf, d...)
	s.h = s.v.SHA256(buf)
}

// MixKey derives a fresh (ck, k) pair via HKDF-SHA-256 over (salt=ck,
// ikm), resets n to 0, and destroys the old ck and k.
func (s *State) MixKey(ikm vault.Handle) error {
	derived, err := s.v.HKDFSHA256(s.ck, &ikm, []vault.Attributes{
		{Type: vault.TypeChainKey, Persistence: vault.Ephemeral},
		{Type: vault.TypeAESKey128, Persistence: vault.Ephemeral},
	})
	if err != nil {
		return err
	}

	oldCK, oldK := s.ck, s.k
	s.ck = derived[0]
	newK := derived[1]
	s.k = &newK
	s.n = 0

	s.v.Destroy(oldCK)
	if oldK != nil {
		s.v.Destroy(*oldK)
	}
	return nil
}

// EncryptAndHash seals p under k when present, mixing the ciphertext into
// h and advancing n. With no k present it is the identity, mixing the
// plaintext into h instead.
func (s *State) EncryptAndHash(p []byte) ([]byte, error) {
	if s.k == nil {
		s.MixHash(p)
		return p, nil
	}
	c, err := s.v.AEADEncrypt(*s.k, s.n, s.h[:], p)
	if err != nil {
		return nil, err
	}
	s.MixHash(c)
	s.n++
	return c, nil
}

// DecryptAndHash is the mirror of EncryptAndHash: the mix_hash step
// absorbs the ciphertext, never the recovered plaintext.
func (s *State) DecryptAndHash(c []byte) ([]byte, error) {
	if s.k == nil {
		s.MixHash(c)
		return c, nil
	}
	p, err := s.v.AEADDecrypt(*s.k, s.n, s.h[:], c)
	if err != nil {
		return nil, err
	}
	s.MixHash(c)
	s.n++
	return p, nil
}

// HasKey reports whether k is currently present.
func (s *State) HasKey() bool { return s.k != nil }

// Destroy releases the ck and k handles this state owns. Safe to call more
// than once.
func (s *State) Destroy() {
	s.v.Destroy(s.ck)
	if s.k != nil {
		s.v.Destroy(*s.k)
		s.k = nil
	}
}
