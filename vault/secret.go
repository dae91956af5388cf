// Copyright 2019 Google LLC
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file or at
// https://developers.google.com/open-source/licenses/bsd

package vault

// secret is the material backing one occupied slot. material is always
// owned by the secret: callers only ever see copies.
type secret struct {
	attrs    Attributes
	material []byte
}

func newSecret(attrs Attributes, material []byte) *secret {
	s := &secret{attrs: attrs, material: make([]byte, len(material))}
	copy(s.material, material)
	return s
}

// zero overwrites material in place before the slot is released.
func (s *secret) zero() {
	for i := range s.material {
		s.material[i] = 0
	}
	s.material = nil
}

func (s *secret) export() []byte {
	out := make([]byte, len(s.material))
	copy(out, s.material)
	return out
}
