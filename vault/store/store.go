// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

// Package store is the backing store for persistent secrets: a small
// file-based ledger, keyed by stable ASCII ID, that survives a process
// restart. Each record's material is sealed under a master key supplied
// by the caller, the same way a recipient-derived wrapping key seals a
// file key elsewhere in this module — only here the "recipient" is the
// vault's own master key rather than a peer's public key, and the "body"
// is JSON rather than a wire stanza.
//
// Only get-by-ID is exposed; see DESIGN.md for the reasoning.
package store

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/vaultage/vaultage/vault/primitive"
	"github.com/vaultage/vaultage/vault/random"
	"github.com/vaultage/vaultage/vaulterr"
)

const maxIDLen = 64

// record is the on-disk, sealed representation of one persistent secret.
type record struct {
	ID         string `json:"id"`
	Type       int    `json:"type"`
	Purpose    int    `json:"purpose"`
	Length     int    `json:"length"`
	Nonce      string `json:"nonce"`      // base64, 12 bytes
	CipherText string `json:"ciphertext"` // base64, ciphertext || tag
}

type ledger struct {
	Records []record `json:"records"`
}

// Store is a JSON ledger of AEAD-sealed persistent secrets on disk.
type Store struct {
	path    string
	sealKey []byte // AES-128 or AES-256 key wrapping every record

	mu      sync.Mutex
	records map[string]record
}

// Open loads path if it exists, or starts an empty ledger. sealKey must be
// 16 or 32 bytes; it never touches disk itself, so callers are responsible
// for its own persistence and protection.
func Open(path string, sealKey []byte) (*Store, error) {
	if len(sealKey) != 16 && len(sealKey) != 32 {
		return nil, vaulterr.New(vaulterr.InvalidArgument, "store.Open")
	}
	s := &Store{path: path, sealKey: sealKey, records: make(map[string]record)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.InvalidArgument, "store.Open", err)
	}
	var l ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, vaulterr.Wrap(vaulterr.InvalidArgument, "store.Open", err)
	}
	for _, r := range l.Records {
		s.records[r.ID] = r
	}
	return s, nil
}

// Put seals plaintext under the store's master key and records it under id,
// overwriting any previous record with the same ID.
func (s *Store) Put(id string, secretType, purpose, length int, plaintext []byte) error {
	if id == "" || len(id) > maxIDLen {
		return vaulterr.New(vaulterr.InvalidArgument, "store.Put")
	}

	var nonce [primitive.NonceSize]byte
	if err := random.Fill(nonce[:]); err != nil {
		return err
	}
	ciphertext, err := primitive.AEADSeal(s.sealKey, nonce[:], []byte(id), plaintext)
	if err != nil {
		return vaulterr.Wrap(vaulterr.InvalidArgument, "store.Put", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = record{
		ID:         id,
		Type:       secretType,
		Purpose:    purpose,
		Length:     length,
		Nonce:      base64.StdEncoding.EncodeToString(nonce[:]),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}
	return s.flushLocked()
}

// Get retrieves and unseals the record stored under id.
func (s *Store) Get(id string) (plaintext []byte, secretType, purpose, length int, err error) {
	s.mu.Lock()
	r, ok := s.records[id]
	s.mu.Unlock()
	if !ok {
		return nil, 0, 0, 0, vaulterr.New(vaulterr.UnknownHandle, "store.Get")
	}

	nonce, err := base64.StdEncoding.DecodeString(r.Nonce)
	if err != nil {
		return nil, 0, 0, 0, vaulterr.Wrap(vaulterr.InvalidArgument, "store.Get", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(r.CipherText)
	if err != nil {
		return nil, 0, 0, 0, vaulterr.Wrap(vaulterr.InvalidArgument, "store.Get", err)
	}
	plaintext, err = primitive.AEADOpen(s.sealKey, nonce, []byte(id), ciphertext)
	if err != nil {
		return nil, 0, 0, 0, err
	}
	return plaintext, r.Type, r.Purpose, r.Length, nil
}

// Delete removes the record stored under id, if any.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return nil
	}
	delete(s.records, id)
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	l := ledger{Records: make([]record, 0, len(s.records))}
	for _, r := range s.records {
		l.Records = append(l.Records, r)
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return vaulterr.Wrap(vaulterr.InvalidArgument, "store.flush", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return vaulterr.Wrap(vaulterr.InvalidArgument, "store.flush", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return vaulterr.Wrap(vaulterr.InvalidArgument, "store.flush", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return vaulterr.Wrap(vaulterr.InvalidArgument, "store.flush", err)
	}
	return nil
}
