// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package store_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/txtar"

	"github.com/vaultage/vaultage/vault/store"
)

// recordsFixture holds the plaintext test vectors for the round-trip tests
// below. It is a txtar archive rather than individual testdata files so that
// adding one more record stored under another record's file doesn't require
// touching the test code, only the archive.
const recordsFixture = `
-- alice --
alice's persistent X25519 static key material, 32 bytes long
-- bob --
bob's persistent X25519 static key material
-- empty --
`

func openTemp(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.json")
	s, err := store.Open(path, bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStorePutGetRoundTrip(t *testing.T) {
	archive := txtar.Parse([]byte(recordsFixture))
	s := openTemp(t)

	for i, f := range archive.Files {
		data := bytes.TrimSuffix(f.Data, []byte("\n"))
		if err := s.Put(f.Name, i, i, len(data), data); err != nil {
			t.Fatalf("Put(%q): %v", f.Name, err)
		}
	}

	for i, f := range archive.Files {
		want := bytes.TrimSuffix(f.Data, []byte("\n"))
		got, secretType, purpose, length, err := s.Get(f.Name)
		if err != nil {
			t.Fatalf("Get(%q): %v", f.Name, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get(%q) plaintext = %q, want %q", f.Name, got, want)
		}
		if secretType != i || purpose != i || length != len(want) {
			t.Fatalf("Get(%q) metadata = (%d, %d, %d), want (%d, %d, %d)", f.Name, secretType, purpose, length, i, i, len(want))
		}
	}
}

func TestStoreGetUnknownID(t *testing.T) {
	s := openTemp(t)
	if _, _, _, _, err := s.Get("nobody"); err == nil {
		t.Fatal("Get of an unknown ID succeeded, want an error")
	}
}

func TestStoreDeleteThenGet(t *testing.T) {
	s := openTemp(t)
	if err := s.Put("alice", 1, 1, 5, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("alice"); err != nil {
		t.Fatal(err)
	}
	if _, _, _, _, err := s.Get("alice"); err == nil {
		t.Fatal("Get after Delete succeeded, want an error")
	}
	// Deleting an ID that isn't there is a no-op, not an error.
	if err := s.Delete("alice"); err != nil {
		t.Fatalf("second Delete = %v, want nil", err)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	sealKey := bytes.Repeat([]byte{0x7}, 32)

	s1, err := store.Open(path, sealKey)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Put("alice", 1, 2, 3, []byte("persisted material")); err != nil {
		t.Fatal(err)
	}

	s2, err := store.Open(path, sealKey)
	if err != nil {
		t.Fatal(err)
	}
	got, secretType, purpose, length, err := s2.Get("alice")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("persisted material")) {
		t.Fatalf("reopened plaintext = %q, want %q", got, "persisted material")
	}
	if secretType != 1 || purpose != 2 || length != 3 {
		t.Fatalf("reopened metadata = (%d, %d, %d), want (1, 2, 3)", secretType, purpose, length)
	}
}

func TestStoreRejectsShortSealKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if _, err := store.Open(path, []byte("too short")); err == nil {
		t.Fatal("Open with an undersized seal key succeeded, want an error")
	}
}
