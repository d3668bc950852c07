// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package core

import (
	"errors"
	"testing"
)

type fakeSurface struct {
	name string
	w, h int
}

func (s *fakeSurface) Label() string    { return s.name }
func (s *fakeSurface) Size() (w, h int) { return s.w, s.h }

func TestPingPong(t *testing.T) {
	a := &fakeSurface{"a", 4, 4}
	b := &fakeSurface{"b", 4, 4}
	pp, err := NewPingPong(a, b)
	if err != nil {
		t.Fatalf("NewPingPong: %v", err)
	}
	for i := range 5 {
		if pp.Read() == pp.Write() {
			t.Fatalf("iteration %d: read and write alias", i)
		}
		if err := CheckDistinct(pp.Read(), pp.Write()); err != nil {
			t.Fatalf("CheckDistinct: %v", err)
		}
		pp.Swap()
	}
	if pp.Read() != b {
		t.Errorf("after 5 swaps Read() = %s, want b", pp.Read().Label())
	}
	pp.Reset()
	if pp.Read() != a {
		t.Errorf("after Reset Read() = %s, want a", pp.Read().Label())
	}
}

func TestPingPong_Aliasing(t *testing.T) {
	a := &fakeSurface{"a", 4, 4}
	if _, err := NewPingPong(a, a); !errors.Is(err, ErrBufferAliasing) {
		t.Errorf("NewPingPong(a, a) = %v, want ErrBufferAliasing", err)
	}
	if err := CheckDistinct(a, a); !errors.Is(err, ErrBufferAliasing) {
		t.Errorf("CheckDistinct(a, a) = %v, want ErrBufferAliasing", err)
	}
	if _, err := NewPingPong(a, &fakeSurface{"b", 4, 5}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("NewPingPong size mismatch = %v, want ErrConfiguration", err)
	}
}
