// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package vault

// Handle is an opaque identifier for a secret inside the vault instance
// that issued it; it is not meaningful in any other vault instance. It
// packs a slot index in the low 32 bits and a generation counter in the
// high 32 bits, so that a destroyed and reused slot never satisfies a
// stale handle.
type Handle uint64

func makeHandle(index, generation uint32) Handle {
	return Handle(generation)<<32 | Handle(index)
}

func (h Handle) index() uint32      { return uint32(h) }
func (h Handle) generation() uint32 { return uint32(h >> 32) }

// slot is one entry in the vault's handle table.
type slot struct {
	generation uint32
	occupied   bool
	secret     *secret
}

// table is a generational handle table: destroying a handle increments its
// slot's generation and returns the index to the free list, so the next
// secret to occupy that index gets a different Handle value and any old
// handle to it resolves to UnknownHandle.
type table struct {
	slots []slot
	free  []uint32
}

func (t *table) alloc(s *secret) Handle {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		sl := &t.slots[idx]
		sl.occupied = true
		sl.secret = s
		return makeHandle(idx, sl.generation)
	}
	idx := uint32(len(t.slots))
	t.slots = append(t.slots, slot{occupied: true, secret: s})
	return makeHandle(idx, 0)
}

func (t *table) resolve(h Handle) (*secret, bool) {
	idx := h.index()
	if int(idx) >= len(t.slots) {
		return nil, false
	}
	sl := &t.slots[idx]
	if !sl.occupied || sl.generation != h.generation() {
		return nil, false
	}
	return sl.secret, true
}

// release zeroises and evicts the slot h points to, reporting whether it
// did. It is a no-op returning false if h does not resolve.
func (t *table) release(h Handle) bool {
	idx := h.index()
	if int(idx) >= len(t.slots) {
		return false
	}
	sl := &t.slots[idx]
	if !sl.occupied || sl.generation != h.generation() {
		return false
	}
	sl.secret.zero()
	sl.secret = nil
	sl.occupied = false
	sl.generation++
	t.free = append(t.free, idx)
	return true
}

// all returns every currently occupied handle, used only by Deinit to
// zeroise ephemeral secrets.
func (t *table) all() []Handle {
	out := make([]Handle, 0, len(t.slots))
	for i, sl := range t.slots {
		if sl.occupied {
			out = append(out, makeHandle(uint32(i), sl.generation))
		}
	}
	return out
}
