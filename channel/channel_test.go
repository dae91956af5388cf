// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package channel_test

import (
	"bytes"
	"net"
	"testing"

	"github.com/vaultage/vaultage/channel"
	"github.com/vaultage/vaultage/noise/curve"
	"github.com/vaultage/vaultage/vault"
)

func openVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.Open(vault.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = v.Deinit() })
	return v
}

func TestChannelEndToEnd(t *testing.T) {
	iv := openVault(t)
	rv := openVault(t)

	iStatic, err := iv.Generate(vault.Attributes{Type: vault.TypeCurve25519Private})
	if err != nil {
		t.Fatal(err)
	}
	rStatic, err := rv.Generate(vault.Attributes{Type: vault.TypeCurve25519Private})
	if err != nil {
		t.Fatal(err)
	}

	iConn, rConn := net.Pipe()

	type result struct {
		ch  *channel.Channel
		err error
	}
	iCh := make(chan result, 1)
	rCh := make(chan result, 1)

	go func() {
		c, err := channel.Initiate(iv, curve.X25519, iStatic, iConn)
		iCh <- result{c, err}
	}()
	go func() {
		c, err := channel.Respond(rv, curve.X25519, rStatic, rConn)
		rCh <- result{c, err}
	}()

	ir := <-iCh
	rr := <-rCh
	if ir.err != nil {
		t.Fatal(ir.err)
	}
	if rr.err != nil {
		t.Fatal(rr.err)
	}
	initiator, responder := ir.ch, rr.ch

	if initiator.TranscriptHash() != responder.TranscriptHash() {
		t.Fatal("initiator and responder disagree on the transcript hash")
	}

	sendErr := make(chan error, 1)
	go func() { sendErr <- initiator.Send([]byte("aad"), []byte("hello, responder")) }()
	got, err := responder.Receive([]byte("aad"))
	if err != nil {
		t.Fatal(err)
	}
	if err := <-sendErr; err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("hello, responder")) {
		t.Fatalf("responder received %q, want %q", got, "hello, responder")
	}

	go func() { sendErr <- responder.Send([]byte("aad"), []byte("hello, initiator")) }()
	got2, err := initiator.Receive([]byte("aad"))
	if err != nil {
		t.Fatal(err)
	}
	if err := <-sendErr; err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got2, []byte("hello, initiator")) {
		t.Fatalf("initiator received %q, want %q", got2, "hello, initiator")
	}

	if err := initiator.Close(); err != nil {
		t.Fatal(err)
	}
	if err := responder.Close(); err != nil {
		t.Fatal(err)
	}
}
