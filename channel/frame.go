// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package channel

import (
	"encoding/binary"
	"io"

	"github.com/vaultage/vaultage/vaulterr"
)

// maxFrameLen is the largest payload a 16-bit big-endian length prefix can
// address.
const maxFrameLen = 0xffff

// writeFrame writes payload as len(payload) (uint16 BE) followed by
// payload itself. It writes the whole frame in a single call so a partial
// write never leaves the wire mid-frame.
func writeFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxFrameLen {
		return vaulterr.New(vaulterr.ProtocolViolation, "channel.writeFrame")
	}
	buf := make([]byte, 2+len(payload))
	binary.BigEndian.PutUint16(buf, uint16(len(payload)))
	copy(buf[2:], payload)
	if _, err := w.Write(buf); err != nil {
		return vaulterr.Wrap(vaulterr.TransportClosed, "channel.writeFrame", err)
	}
	return nil
}

// readFrame reads a length-prefixed frame, performing full-frame reads as
// required by the reader/writer contract: a reader's single Read call may
// return fewer bytes than requested, so every read is looped to
// completion.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [2]byte
	if err := readFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	payload := make([]byte, n)
	if err := readFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func readFull(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	if err == nil {
		return nil
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return vaulterr.Wrap(vaulterr.TransportClosed, "channel.readFull", err)
	}
	return vaulterr.Wrap(vaulterr.TransportShort, "channel.readFull", err)
}
