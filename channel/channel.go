// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

// Package channel is the external façade: it drives an XX handshake over
// an io.Reader/io.Writer pair using the 16-bit length-prefixed framing
// every handshake message and session frame shares, then hands off to a
// session.Session for the lifetime of the connection.
package channel

import (
	"io"

	"github.com/vaultage/vaultage/channel/session"
	"github.com/vaultage/vaultage/internal/logger"
	"github.com/vaultage/vaultage/noise/curve"
	"github.com/vaultage/vaultage/noise/xx"
	"github.com/vaultage/vaultage/vault"
)

// Channel is a framed, authenticated-encrypted byte stream obtained after
// a successful handshake. Every Send and Receive call corresponds to
// exactly one frame on the wire.
type Channel struct {
	r    io.Reader
	w    io.Writer
	sess *session.Session
}

// Initiate runs the initiator side of an XX handshake over rw, identifying
// itself with staticHandle, and returns the resulting Channel. staticHandle
// must be a private key of the type c.PrivateType; it is not consumed.
func Initiate(v *vault.Vault, c curve.Curve, staticHandle vault.Handle, rw io.ReadWriter) (*Channel, error) {
	logger.Global.Debugf("initiating handshake as initiator")
	h, err := xx.New(v, c, xx.RoleInitiator, staticHandle)
	if err != nil {
		return nil, err
	}

	m1, err := h.WriteMessage1(nil)
	if err != nil {
		return nil, err
	}
	if err := writeFrame(rw, m1); err != nil {
		h.Abort()
		return nil, err
	}

	m2, err := readFrame(rw)
	if err != nil {
		h.Abort()
		return nil, err
	}
	if _, err := h.ReadMessage2(m2); err != nil {
		return nil, err
	}

	m3, err := h.WriteMessage3(nil)
	if err != nil {
		return nil, err
	}
	if err := writeFrame(rw, m3); err != nil {
		return nil, err
	}

	logger.Global.Debugf("handshake complete, transcript hash %x", h.TranscriptHash())
	return newChannel(v, rw, rw, h), nil
}

// Respond runs the responder side of an XX handshake over rw, identifying
// itself with staticHandle, and returns the resulting Channel.
func Respond(v *vault.Vault, c curve.Curve, staticHandle vault.Handle, rw io.ReadWriter) (*Channel, error) {
	logger.Global.Debugf("awaiting handshake as responder")
	h, err := xx.New(v, c, xx.RoleResponder, staticHandle)
	if err != nil {
		return nil, err
	}

	m1, err := readFrame(rw)
	if err != nil {
		h.Abort()
		return nil, err
	}
	if _, err := h.ReadMessage1(m1); err != nil {
		return nil, err
	}

	m2, err := h.WriteMessage2(nil)
	if err != nil {
		return nil, err
	}
	if err := writeFrame(rw, m2); err != nil {
		h.Abort()
		return nil, err
	}

	m3, err := readFrame(rw)
	if err != nil {
		h.Abort()
		return nil, err
	}
	if _, err := h.ReadMessage3(m3); err != nil {
		return nil, err
	}

	logger.Global.Debugf("handshake complete, transcript hash %x", h.TranscriptHash())
	return newChannel(v, rw, rw, h), nil
}

func newChannel(v *vault.Vault, r io.Reader, w io.Writer, h *xx.Handshake) *Channel {
	sess := session.New(v, h.EncryptKey, h.DecryptKey, h.TranscriptHash())
	return &Channel{r: r, w: w, sess: sess}
}

// TranscriptHash returns the handshake's final transcript hash, a binding
// value a higher layer may compare or log.
func (c *Channel) TranscriptHash() [32]byte { return c.sess.TranscriptHash() }

// Send seals plaintext under aad and writes it as one framed message.
func (c *Channel) Send(aad, plaintext []byte) error {
	ct, err := c.sess.Encrypt(aad, plaintext)
	if err != nil {
		return err
	}
	return writeFrame(c.w, ct)
}

// Receive reads one framed message and authenticates it under aad.
func (c *Channel) Receive(aad []byte) ([]byte, error) {
	frame, err := readFrame(c.r)
	if err != nil {
		return nil, err
	}
	return c.sess.Decrypt(aad, frame)
}

// Close destroys the session's directional keys. It does not close the
// underlying reader/writer, which the caller owns.
func (c *Channel) Close() error {
	return c.sess.Close()
}
