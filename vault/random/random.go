// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

// Package random fills buffers from OS entropy, the one primitive every
// other vault operation is ultimately seeded from.
package random

import (
	"crypto/rand"
	"io"

	"github.com/vaultage/vaultage/vaulterr"
)

// Fill reads len(out) bytes of uniform random data from the OS CSPRNG into
// out. It retries on restartable interrupts the way crypto/rand's Reader
// already does on every supported platform, so the only errors that reach
// the caller here are a genuinely unavailable source or a short read after
// the io.ReadFull retry loop gives up.
func Fill(out []byte) error {
	if len(out) == 0 {
		return nil
	}
	n, err := io.ReadFull(rand.Reader, out)
	if err != nil {
		if n > 0 && n < len(out) {
			return vaulterr.Wrap(vaulterr.RandomShort, "random.Fill", err)
		}
		return vaulterr.Wrap(vaulterr.RandomUnavailable, "random.Fill", err)
	}
	return nil
}
