// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package vault

import (
	"sync"

	"github.com/vaultage/vaultage/internal/logger"
	"github.com/vaultage/vaultage/vault/internal/mlockall"
	"github.com/vaultage/vaultage/vault/store"
	"github.com/vaultage/vaultage/vaulterr"
)

// Options configures a Vault at Open time.
type Options struct {
	// Backend defaults to SoftwareBackend{} when zero.
	Backend Backend

	// StorePath, if set, backs persistent secrets with an on-disk ledger
	// sealed under SealKey, which must then be 16 or 32 bytes or Open fails.
	StorePath string
	SealKey   []byte

	// LockMemory calls mlockall on Linux so secret-bearing pages are never
	// swapped. Best-effort: a failure here does not fail Open.
	LockMemory bool
}

// Vault is the handle-based secret store. All operations are logically
// atomic from the caller's perspective; this implementation serializes
// them with a mutex.
type Vault struct {
	mu      sync.Mutex
	backend Backend
	table   table
	store   *store.Store
}

// Open constructs a Vault. Every Vault returned by Open must eventually be
// closed with Deinit.
func Open(opts Options) (*Vault, error) {
	v := &Vault{backend: opts.Backend}
	if v.backend == nil {
		v.backend = SoftwareBackend{}
	}
	if opts.LockMemory {
		if err := mlockall.Lock(); err != nil {
			// Best-effort: a caller that asked for LockMemory still gets a
			// working vault, just without the swap guarantee, so this is a
			// warning rather than a failed Open.
			logger.Global.Warningf("mlockall failed, secret pages may be swappable: %v", err)
		}
	}
	if opts.StorePath != "" {
		s, err := store.Open(opts.StorePath, opts.SealKey)
		if err != nil {
			return nil, err
		}
		v.store = s
	}
	return v, nil
}

// Deinit zeroises every ephemeral secret still held by the vault.
// Persistent secrets are left untouched in the backing store.
func (v *Vault) Deinit() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, h := range v.table.all() {
		sl, ok := v.table.resolve(h)
		if !ok || sl.attrs.Persistence != Ephemeral {
			continue
		}
		v.table.release(h)
	}
	return nil
}

// Generate creates a new secret of the given attributes from the vault's
// entropy source.
func (v *Vault) Generate(attrs Attributes) (Handle, error) {
	if err := attrs.validate(); err != nil {
		return 0, err
	}

	var material []byte
	switch attrs.Type {
	case TypeCurve25519Private:
		priv, _, err := v.backend.GenerateCurve25519()
		if err != nil {
			return 0, err
		}
		material = priv
	case TypeP256Private:
		priv, _, err := v.backend.GenerateP256()
		if err != nil {
			return 0, err
		}
		material = priv
	default:
		material = make([]byte, attrs.length())
		if err := v.backend.Random(material); err != nil {
			return 0, err
		}
	}

	return v.put(attrs, material)
}

// Import creates a new secret from caller-supplied material.
func (v *Vault) Import(attrs Attributes, material []byte) (Handle, error) {
	if err := attrs.validate(); err != nil {
		return 0, err
	}
	if len(material) != attrs.length() {
		return 0, vaulterr.New(vaulterr.InvalidArgument, "vault.Import")
	}
	return v.put(attrs, material)
}

func (v *Vault) put(attrs Attributes, material []byte) (Handle, error) {
	attrs.Length = attrs.length()

	v.mu.Lock()
	h := v.table.alloc(newSecret(attrs, material))
	v.mu.Unlock()

	if attrs.Persistence == Persistent && v.store != nil {
		if err := v.store.Put(attrs.ID, int(attrs.Type), int(attrs.Purpose), attrs.Length, material); err != nil {
			v.mu.Lock()
			v.table.release(h)
			v.mu.Unlock()
			return 0, err
		}
	}
	return h, nil
}

// Load retrieves a persistent secret previously written with attrs.ID set,
// issuing it a fresh Handle in this vault instance.
func (v *Vault) Load(id string) (Handle, error) {
	if v.store == nil {
		return 0, vaulterr.New(vaulterr.UnknownHandle, "vault.Load")
	}
	material, typ, purpose, length, err := v.store.Get(id)
	if err != nil {
		return 0, err
	}
	attrs := Attributes{
		Type:        SecretType(typ),
		Purpose:     Purpose(purpose),
		Persistence: Persistent,
		Length:      length,
		ID:          id,
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.table.alloc(newSecret(attrs, material)), nil
}

// Export returns a copy of a secret's raw material. Private-key types
// never satisfy Export.
func (v *Vault) Export(h Handle) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.table.resolve(h)
	if !ok {
		return nil, vaulterr.New(vaulterr.UnknownHandle, "vault.Export")
	}
	if s.attrs.Type.isPrivateKey() {
		return nil, vaulterr.New(vaulterr.NotExportable, "vault.Export")
	}
	return s.export(), nil
}

// PublicKeyGet derives the public key for a private-key handle.
func (v *Vault) PublicKeyGet(h Handle) ([]byte, error) {
	v.mu.Lock()
	s, ok := v.table.resolve(h)
	if !ok {
		v.mu.Unlock()
		return nil, vaulterr.New(vaulterr.UnknownHandle, "vault.PublicKeyGet")
	}
	typ, material := s.attrs.Type, s.export()
	v.mu.Unlock()
	switch typ {
	case TypeCurve25519Private:
		return v.backend.Curve25519PublicKey(material)
	case TypeP256Private:
		return v.backend.P256PublicKey(material)
	default:
		return nil, vaulterr.New(vaulterr.NotAPrivateKey, "vault.PublicKeyGet")
	}
}

// AttributesGet returns a copy of a handle's attributes.
func (v *Vault) AttributesGet(h Handle) (Attributes, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.table.resolve(h)
	if !ok {
		return Attributes{}, vaulterr.New(vaulterr.UnknownHandle, "vault.AttributesGet")
	}
	return s.attrs, nil
}

// legalTransitions enumerates the only permitted type_set transitions;
// every other pair is IllegalTransition.
var legalTransitions = map[SecretType][]SecretType{
	TypeBuffer:   {TypeAESKey128, TypeAESKey256},
	TypeChainKey: {TypeBuffer},
}

// TypeSet re-tags a secret's type in place. Only the narrow transitions in
// legalTransitions are accepted: a ChainKey to a Buffer, and a Buffer of the
// right length to a typed AES key.
func (v *Vault) TypeSet(h Handle, t SecretType) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.table.resolve(h)
	if !ok {
		return vaulterr.New(vaulterr.UnknownHandle, "vault.TypeSet")
	}

	allowed := false
	for _, to := range legalTransitions[s.attrs.Type] {
		if to == t {
			allowed = true
			break
		}
	}
	if !allowed {
		return vaulterr.New(vaulterr.IllegalTransition, "vault.TypeSet")
	}
	if n, ok := t.fixedLength(); ok && len(s.material) != n {
		return vaulterr.New(vaulterr.IllegalTransition, "vault.TypeSet")
	}

	s.attrs.Type = t
	return nil
}

// Destroy overwrites and releases h. It also removes the record from the
// persistent store, if h refers to one.
func (v *Vault) Destroy(h Handle) error {
	v.mu.Lock()
	s, ok := v.table.resolve(h)
	if !ok {
		v.mu.Unlock()
		return vaulterr.New(vaulterr.UnknownHandle, "vault.Destroy")
	}
	persistentID := ""
	if s.attrs.Persistence == Persistent {
		persistentID = s.attrs.ID
	}
	v.table.release(h)
	v.mu.Unlock()

	if persistentID != "" && v.store != nil {
		return v.store.Delete(persistentID)
	}
	return nil
}
