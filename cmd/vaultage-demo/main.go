// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

// Command vaultage-demo establishes one secure channel over TCP, as
// either the dialing or the listening peer, and relays stdin/stdout over
// it. It exists to exercise the vault, handshake, session and channel
// packages end to end against a real socket.
package main

import (
	"bufio"
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"

	"github.com/vaultage/vaultage/channel"
	"github.com/vaultage/vaultage/internal/term"
	"github.com/vaultage/vaultage/noise/curve"
	"github.com/vaultage/vaultage/vault"
)

func main() {
	log.SetFlags(0)

	listenAddr := flag.String("listen", "", "listen on `ADDR` and accept one connection as the responder")
	dialAddr := flag.String("dial", "", "dial `ADDR` as the initiator")
	identityPath := flag.String("identity", "", "persist the static identity key at `PATH`, sealed under a passphrase")
	flag.Parse()

	if (*listenAddr == "") == (*dialAddr == "") {
		log.Fatalf("exactly one of -listen or -dial is required")
	}

	v, static, err := openVaultAndIdentity(*identityPath)
	if err != nil {
		log.Fatalf("vaultage-demo: %v", err)
	}
	defer v.Deinit()

	var conn net.Conn
	var ch *channel.Channel
	if *listenAddr != "" {
		conn, err = acceptOne(*listenAddr)
		if err != nil {
			log.Fatalf("vaultage-demo: %v", err)
		}
		ch, err = channel.Respond(v, curve.X25519, static, conn)
	} else {
		conn, err = net.Dial("tcp", *dialAddr)
		if err != nil {
			log.Fatalf("vaultage-demo: dial %s: %v", *dialAddr, err)
		}
		ch, err = channel.Initiate(v, curve.X25519, static, conn)
	}
	if err != nil {
		log.Fatalf("vaultage-demo: handshake failed: %v", err)
	}
	defer conn.Close()
	defer ch.Close()

	fmt.Fprintf(os.Stderr, "channel established, transcript hash %x\n", ch.TranscriptHash())
	relay(ch)
}

func openVaultAndIdentity(identityPath string) (*vault.Vault, vault.Handle, error) {
	if identityPath == "" {
		v, err := vault.Open(vault.Options{})
		if err != nil {
			return nil, 0, err
		}
		h, err := v.Generate(vault.Attributes{Type: vault.TypeCurve25519Private})
		return v, h, err
	}

	var passphrase []byte
	if _, err := os.Stat(identityPath); os.IsNotExist(err) {
		passphrase, err = term.ReadSecretConfirm(
			"Choose a passphrase to seal the new vault identity:",
			"Confirm passphrase:")
		if err != nil {
			return nil, 0, fmt.Errorf("reading seal passphrase: %w", err)
		}
	} else {
		passphrase, err = term.ReadSecret("Enter the vault seal passphrase:")
		if err != nil {
			return nil, 0, fmt.Errorf("reading seal passphrase: %w", err)
		}
	}
	sealKey, err := sealKeyFromPassphrase(identityPath, passphrase)
	if err != nil {
		return nil, 0, err
	}

	v, err := vault.Open(vault.Options{StorePath: identityPath, SealKey: sealKey})
	if err != nil {
		return nil, 0, err
	}

	const identityID = "demo-identity"
	if h, err := v.Load(identityID); err == nil {
		return v, h, nil
	}
	h, err := v.Generate(vault.Attributes{
		Type:        vault.TypeCurve25519Private,
		Persistence: vault.Persistent,
		ID:          identityID,
	})
	return v, h, err
}

// sealKeyFromPassphrase derives a 32-byte seal key from passphrase via
// scrypt, using a salt persisted alongside the identity store so the same
// passphrase reproduces the same key across runs.
func sealKeyFromPassphrase(identityPath string, passphrase []byte) ([]byte, error) {
	saltPath := identityPath + ".salt"

	salt, err := os.ReadFile(saltPath)
	if err != nil {
		salt = make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(saltPath), 0o700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(saltPath, salt, 0600); err != nil {
			return nil, err
		}
	}
	return scrypt.Key(passphrase, salt, 1<<15, 8, 1, 32)
}

func acceptOne(addr string) (net.Conn, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	defer l.Close()
	fmt.Fprintf(os.Stderr, "listening on %s\n", l.Addr())
	return l.Accept()
}

// relay reads lines from stdin and sends them as channel frames, printing
// every received frame to stdout. It returns once stdin is exhausted (or a
// send fails) and the receiving side has also stopped.
func relay(ch *channel.Channel) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			pt, err := ch.Receive(nil)
			if err != nil {
				return
			}
			fmt.Printf("< %s\n", pt)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := ch.Send(nil, scanner.Bytes()); err != nil {
			log.Printf("vaultage-demo: send: %v", err)
			break
		}
	}
	<-done
}
