// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

// Package session implements the post-handshake secure channel: a pair of
// directional AES-128 keys with independent, strictly monotonic nonce
// counters.
package session

import (
	"github.com/vaultage/vaultage/vault"
	"github.com/vaultage/vaultage/vaulterr"
)

// Session is the post-handshake state of a channel: encrypt_key,
// decrypt_key and their independent 64-bit nonce counters, plus the
// binding transcript hash carried over from the handshake.
type Session struct {
	v *vault.Vault

	encryptKey vault.Handle
	decryptKey vault.Handle

	encryptNonce uint64
	decryptNonce uint64

	h [32]byte

	closed bool
}

// New wraps a completed handshake's split keys into a Session. encryptKey
// and decryptKey are owned by the Session from this point on; Close
// destroys them.
func New(v *vault.Vault, encryptKey, decryptKey vault.Handle, h [32]byte) *Session {
	return &Session{v: v, encryptKey: encryptKey, decryptKey: decryptKey, h: h}
}

// TranscriptHash returns the handshake's final h, usable by a higher layer
// as a channel-binding value.
func (s *Session) TranscriptHash() [32]byte { return s.h }

// Encrypt seals plaintext under aad with the current encrypt_nonce,
// advancing it on success. The nonce is encoded into the AEAD as the fixed
// 12-byte IV (4 zero bytes || big-endian counter), identical to the
// handshake's encoding.
func (s *Session) Encrypt(aad, plaintext []byte) ([]byte, error) {
	if s.closed {
		return nil, vaulterr.Terminal(vaulterr.New(vaulterr.TransportClosed, "session.Encrypt"))
	}
	if s.encryptNonce == ^uint64(0) {
		s.closed = true
		return nil, vaulterr.Terminal(vaulterr.New(vaulterr.NonceExhausted, "session.Encrypt"))
	}
	ct, err := s.v.AEADEncrypt(s.encryptKey, s.encryptNonce, aad, plaintext)
	if err != nil {
		s.closed = true
		return nil, vaulterr.Terminal(err)
	}
	s.encryptNonce++
	return ct, nil
}

// Decrypt authenticates and opens ciphertextTag under aad with the current
// decrypt_nonce, advancing it only on success. A failed authentication
// leaves decrypt_nonce untouched and does not close the session: the
// caller may still decrypt the next frame at the next nonce.
func (s *Session) Decrypt(aad, ciphertextTag []byte) ([]byte, error) {
	if s.closed {
		return nil, vaulterr.Terminal(vaulterr.New(vaulterr.TransportClosed, "session.Decrypt"))
	}
	if s.decryptNonce == ^uint64(0) {
		s.closed = true
		return nil, vaulterr.Terminal(vaulterr.New(vaulterr.NonceExhausted, "session.Decrypt"))
	}
	pt, err := s.v.AEADDecrypt(s.decryptKey, s.decryptNonce, aad, ciphertextTag)
	if err != nil {
		// Surfaced as a bare AuthFailed, not wrapped with a terminal
		// sentinel: a rejected frame does not close the session, so this
		// is not a terminal boundary. See DESIGN.md.
		return nil, vaulterr.Wrap(vaulterr.AuthFailed, "session.Decrypt", err)
	}
	s.decryptNonce++
	return pt, nil
}

// Close destroys both directional keys and marks the session permanently
// unusable. Safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err1 := s.v.Destroy(s.encryptKey)
	err2 := s.v.Destroy(s.decryptKey)
	if err1 != nil {
		return err1
	}
	return err2
}
