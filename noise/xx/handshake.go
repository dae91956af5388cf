// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

// Package xx implements the Noise XX handshake pattern: three messages
// (-> e, <- e, ee, s, es, -> s, se) that mutually authenticate two peers
// and terminate in a pair of directional AEAD keys.
package xx

import (
	"github.com/vaultage/vaultage/noise/curve"
	"github.com/vaultage/vaultage/noise/symmetric"
	"github.com/vaultage/vaultage/vault"
	"github.com/vaultage/vaultage/vault/primitive"
	"github.com/vaultage/vaultage/vaulterr"
)

// Role distinguishes the two peers of an XX handshake.
type Role int

const (
	RoleInitiator Role = iota
	RoleResponder
)

type step int

const (
	stepStart step = iota
	stepWaitM2       // initiator: sent M1, waiting to read M2
	stepReadyM3      // initiator: read M2, ready to write M3
	stepSendM2       // responder: read M1, ready to write M2
	stepWaitM3       // responder: sent M2, waiting to read M3
	stepDone
	stepFailed
)

// Handshake drives the XX state machine over a single vault.Vault. A Handshake is single-use: once it reaches Done or an error,
// it must be discarded.
type Handshake struct {
	v     *vault.Vault
	curve curve.Curve
	role  Role
	sym   *symmetric.State

	e    vault.Handle // local ephemeral private key
	ePub []byte
	s    vault.Handle // local static private key (caller-owned)
	sPub []byte

	re []byte // remote ephemeral public key, once known
	rs []byte // remote static public key, once known

	step step

	// EncryptKey and DecryptKey are populated once Done() is true.
	EncryptKey vault.Handle
	DecryptKey vault.Handle
}

// New starts a handshake over v, for the given curve and role, using
// staticHandle as the long-term identity key (a Curve25519Private or
// P256Private secret matching curve.PrivateType, owned by the caller: New
// does not take ownership of it and will not destroy it).
func New(v *vault.Vault, c curve.Curve, role Role, staticHandle vault.Handle) (*Handshake, error) {
	attrs, err := v.AttributesGet(staticHandle)
	if err != nil {
		return nil, err
	}
	if attrs.Type != c.PrivateType {
		return nil, vaulterr.New(vaulterr.WrongCurve, "xx.New")
	}

	sym, err := symmetric.New(v, c.Label)
	if err != nil {
		return nil, err
	}

	e, err := v.Generate(vault.Attributes{Type: c.PrivateType, Persistence: vault.Ephemeral})
	if err != nil {
		sym.Destroy()
		return nil, err
	}
	ePub, err := v.PublicKeyGet(e)
	if err != nil {
		v.Destroy(e)
		sym.Destroy()
		return nil, err
	}
	sPub, err := v.PublicKeyGet(staticHandle)
	if err != nil {
		v.Destroy(e)
		sym.Destroy()
		return nil, err
	}

	return &Handshake{
		v: v, curve: c, role: role, sym: sym,
		e: e, ePub: ePub, s: staticHandle, sPub: sPub,
		step: stepStart,
	}, nil
}

// Done reports whether the handshake completed successfully and
// EncryptKey/DecryptKey are valid.
func (h *Handshake) Done() bool { return h.step == stepDone }

// TranscriptHash returns the final h, retained for higher-layer channel
// binding. Only meaningful once Done() is true.
func (h *Handshake) TranscriptHash() [32]byte { return h.sym.H() }

// Abort drops the handshake, zeroising the symmetric state and destroying
// every secret handle it owns (ephemeral e; ck and k via the symmetric
// state). It does not destroy the caller-owned static handle. Safe to call
// after any error or at any point before Done.
func (h *Handshake) Abort() {
	if h.step == stepFailed || h.step == stepDone {
		return
	}
	h.step = stepFailed
	h.sym.Destroy()
	h.v.Destroy(h.e)
}

// fail aborts the handshake and wraps err with the matching exported
// terminal sentinel (ErrHandshakeAuthFailed, ErrHandshakeWeakPoint,
// ErrHandshakeProtocol), so a caller can discard the handshake on
// errors.Is(err, vaulterr.ErrHandshake...) instead of inspecting Op strings.
func (h *Handshake) fail(err error) error {
	h.Abort()
	return vaulterr.Terminal(err)
}

// WriteMessage1 produces M1: e.pub || encrypt_and_hash(payload).
// Initiator only, from Start.
func (h *Handshake) WriteMessage1(payload []byte) ([]byte, error) {
	if h.role != RoleInitiator || h.step != stepStart {
		return nil, h.fail(vaulterr.New(vaulterr.ProtocolViolation, "xx.WriteMessage1"))
	}
	h.sym.MixHash(h.ePub)
	ct, err := h.sym.EncryptAndHash(payload)
	if err != nil {
		return nil, h.fail(err)
	}
	h.step = stepWaitM2
	return append(append([]byte{}, h.ePub...), ct...), nil
}

// ReadMessage1 consumes M1. Responder only, from Start.
func (h *Handshake) ReadMessage1(msg []byte) (payload []byte, err error) {
	if h.role != RoleResponder || h.step != stepStart {
		return nil, h.fail(vaulterr.New(vaulterr.ProtocolViolation, "xx.ReadMessage1"))
	}
	if len(msg) < h.curve.PubLen {
		return nil, h.fail(vaulterr.New(vaulterr.ProtocolViolation, "xx.ReadMessage1"))
	}
	re := msg[:h.curve.PubLen]
	h.sym.MixHash(re)
	payload, err = h.sym.DecryptAndHash(msg[h.curve.PubLen:])
	if err != nil {
		return nil, h.fail(err)
	}
	h.re = append([]byte{}, re...)
	h.step = stepSendM2
	return payload, nil
}

// WriteMessage2 produces M2: e.pub || encrypt_and_hash(s.pub) ||
// encrypt_and_hash(payload). Responder only, from SendM2.
func (h *Handshake) WriteMessage2(payload []byte) ([]byte, error) {
	if h.role != RoleResponder || h.step != stepSendM2 {
		return nil, h.fail(vaulterr.New(vaulterr.ProtocolViolation, "xx.WriteMessage2"))
	}

	h.sym.MixHash(h.ePub)

	ee, err := h.v.ECDH(h.e, h.re) // DH(e, re): own ephemeral x initiator's ephemeral
	if err != nil {
		return nil, h.fail(err)
	}
	err = h.sym.MixKey(ee)
	h.v.Destroy(ee)
	if err != nil {
		return nil, h.fail(err)
	}

	encS, err := h.sym.EncryptAndHash(h.sPub)
	if err != nil {
		return nil, h.fail(err)
	}

	es, err := h.v.ECDH(h.s, h.re) // DH(s, re): own static x initiator's ephemeral
	if err != nil {
		return nil, h.fail(err)
	}
	err = h.sym.MixKey(es)
	h.v.Destroy(es)
	if err != nil {
		return nil, h.fail(err)
	}

	encPayload, err := h.sym.EncryptAndHash(payload)
	if err != nil {
		return nil, h.fail(err)
	}

	h.step = stepWaitM3
	out := append([]byte{}, h.ePub...)
	out = append(out, encS...)
	out = append(out, encPayload...)
	return out, nil
}

// ReadMessage2 consumes M2. Initiator only, from WaitM2.
func (h *Handshake) ReadMessage2(msg []byte) (payload []byte, err error) {
	if h.role != RoleInitiator || h.step != stepWaitM2 {
		return nil, h.fail(vaulterr.New(vaulterr.ProtocolViolation, "xx.ReadMessage2"))
	}
	L := h.curve.PubLen
	encSLen := L + primitive.TagSize
	if len(msg) < L+encSLen {
		return nil, h.fail(vaulterr.New(vaulterr.ProtocolViolation, "xx.ReadMessage2"))
	}

	re := msg[:L]
	h.sym.MixHash(re)

	ee, err := h.v.ECDH(h.e, re) // DH(e, re): own ephemeral x responder's ephemeral
	if err != nil {
		return nil, h.fail(err)
	}
	err = h.sym.MixKey(ee)
	h.v.Destroy(ee)
	if err != nil {
		return nil, h.fail(err)
	}

	rs, err := h.sym.DecryptAndHash(msg[L : L+encSLen])
	if err != nil {
		return nil, h.fail(vaulterr.Wrap(vaulterr.AuthFailed, "xx.ReadMessage2", err))
	}

	es, err := h.v.ECDH(h.e, rs) // DH(e, rs): own ephemeral x responder's static
	if err != nil {
		return nil, h.fail(err)
	}
	err = h.sym.MixKey(es)
	h.v.Destroy(es)
	if err != nil {
		return nil, h.fail(err)
	}

	payload, err = h.sym.DecryptAndHash(msg[L+encSLen:])
	if err != nil {
		return nil, h.fail(vaulterr.Wrap(vaulterr.AuthFailed, "xx.ReadMessage2", err))
	}

	h.re = append([]byte{}, re...)
	h.rs = append([]byte{}, rs...)
	h.step = stepReadyM3
	return payload, nil
}

// WriteMessage3 produces M3: encrypt_and_hash(s.pub) ||
// encrypt_and_hash(payload), then splits into the directional session
// keys. Initiator only, from ReadyM3.
func (h *Handshake) WriteMessage3(payload []byte) ([]byte, error) {
	if h.role != RoleInitiator || h.step != stepReadyM3 {
		return nil, h.fail(vaulterr.New(vaulterr.ProtocolViolation, "xx.WriteMessage3"))
	}

	encS, err := h.sym.EncryptAndHash(h.sPub)
	if err != nil {
		return nil, h.fail(err)
	}

	se, err := h.v.ECDH(h.s, h.re) // DH(s, re): own static x responder's ephemeral
	if err != nil {
		return nil, h.fail(err)
	}
	err = h.sym.MixKey(se)
	h.v.Destroy(se)
	if err != nil {
		return nil, h.fail(err)
	}

	encPayload, err := h.sym.EncryptAndHash(payload)
	if err != nil {
		return nil, h.fail(err)
	}

	if err := h.split(); err != nil {
		return nil, h.fail(err)
	}

	return append(append([]byte{}, encS...), encPayload...), nil
}

// ReadMessage3 consumes M3 and splits into the directional session keys.
// Responder only, from WaitM3.
func (h *Handshake) ReadMessage3(msg []byte) (payload []byte, err error) {
	if h.role != RoleResponder || h.step != stepWaitM3 {
		return nil, h.fail(vaulterr.New(vaulterr.ProtocolViolation, "xx.ReadMessage3"))
	}
	L := h.curve.PubLen
	encSLen := L + primitive.TagSize
	if len(msg) < encSLen {
		return nil, h.fail(vaulterr.New(vaulterr.ProtocolViolation, "xx.ReadMessage3"))
	}

	rs, err := h.sym.DecryptAndHash(msg[:encSLen])
	if err != nil {
		return nil, h.fail(vaulterr.Wrap(vaulterr.AuthFailed, "xx.ReadMessage3", err))
	}
	h.rs = append([]byte{}, rs...)

	// Mirrors the initiator's "se" mix: own ephemeral x the peer's static
	// key just decrypted, rather than own static x the peer's ephemeral
	// literally substituted into the same DH(s, re) notation the
	// initiator uses. Substituting literally would have the responder
	// re-mix the exact DH it already folded in during M2 ("es"),
	// producing a transcript hash the initiator's side could never
	// match. This pairing is the one under which both sides compute the
	// same shared secret (DH(s_I, e_R) == DH(e_R, s_I)) and therefore
	// agree on the final h and split keys. See DESIGN.md.
	se, err := h.v.ECDH(h.e, h.rs)
	if err != nil {
		return nil, h.fail(err)
	}
	err = h.sym.MixKey(se)
	h.v.Destroy(se)
	if err != nil {
		return nil, h.fail(err)
	}

	payload, err = h.sym.DecryptAndHash(msg[encSLen:])
	if err != nil {
		return nil, h.fail(vaulterr.Wrap(vaulterr.AuthFailed, "xx.ReadMessage3", err))
	}

	if err := h.split(); err != nil {
		return nil, h.fail(err)
	}
	return payload, nil
}

// split implements the handshake epilogue: derive (k1, k2) from ck with
// empty ikm, assign directional keys per role, and destroy the spent
// symmetric state and local ephemeral.
func (h *Handshake) split() error {
	derived, err := h.v.HKDFSHA256(h.sym.CKHandle(), nil, []vault.Attributes{
		{Type: vault.TypeAESKey128, Persistence: vault.Ephemeral},
		{Type: vault.TypeAESKey128, Persistence: vault.Ephemeral},
	})
	if err != nil {
		return err
	}
	k1, k2 := derived[0], derived[1]

	if h.role == RoleInitiator {
		h.DecryptKey, h.EncryptKey = k1, k2
	} else {
		h.EncryptKey, h.DecryptKey = k1, k2
	}

	h.sym.Destroy()
	h.v.Destroy(h.e)
	h.step = stepDone
	return nil
}
