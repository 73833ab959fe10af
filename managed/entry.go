// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package managed

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"weak"
)

// Variant describes one kind of content held in a Pool: how it is hashed,
// compared and weighed, how a canonical copy is made, and which heap
// allocation decides whether a value is still alive.
//
// Equal and Hash must agree on content; neither may block or touch the
// filesystem or network.
type Variant[T, E any] interface {
	// Kind names the content kind in logs.
	Kind() string
	Hash(v T) uint64
	Equal(a, b T) bool
	// Size estimates the bytes held by v.
	Size(v T) int
	// Clone returns a fresh copy of v that shares no memory with it.
	Clone(v T) T
	// Anchor returns the allocation that keeps v reachable, plus any length
	// Rebuild needs to reconstruct v from it.
	Anchor(v T) (*E, int)
	Rebuild(p *E, n int) T
}

type state uint8

const (
	live state = iota
	// evicted entries were unlinked while their value was still reachable.
	evicted
	// destroyed entries were unlinked after the reclaimer reported them.
	destroyed
)

// meta is the weighted part shared by every entry regardless of kind.
type meta struct {
	hash      uint64
	size      int
	hits      atomic.Uint32
	state     state
	permanent bool
	cleanup   runtime.Cleanup
}

// hit records a cache hit. It runs under the read lock, so it saturates
// with a CAS instead of relying on the pool lock.
func (m *meta) hit() {
	for {
		h := m.hits.Load()
		if h >= MaxHits || m.hits.CompareAndSwap(h, h+1) {
			return
		}
	}
}

// age runs under the write lock.
func (m *meta) age() {
	if h := m.hits.Load(); h > 0 {
		m.hits.Store(h - 1)
	}
}

func (m *meta) savings() int64 {
	return int64(m.hits.Load()) * int64(m.size)
}

// slot is an entry seen through the pool index, which mixes kinds.
type slot interface {
	header() *meta
	alive() bool
	fmt.Stringer
}

// entry weakly observes one canonical value. Permanent entries hold their
// value strongly instead.
type entry[T, E any] struct {
	meta
	ref     weak.Pointer[E]
	strong  *E
	n       int
	variant Variant[T, E]
}

func (e *entry[T, E]) header() *meta { return &e.meta }

func (e *entry[T, E]) anchor() *E {
	if e.strong != nil {
		return e.strong
	}
	return e.ref.Value()
}

// get returns the canonical value, or false once it has been collected.
func (e *entry[T, E]) get() (T, bool) {
	p := e.anchor()
	if p == nil {
		var zero T
		return zero, false
	}
	return e.variant.Rebuild(p, e.n), true
}

func (e *entry[T, E]) alive() bool {
	return e.anchor() != nil
}

func (e *entry[T, E]) String() string {
	size := fmt.Sprint(e.size)
	if e.permanent {
		size = "p"
	}
	v, ok := e.get()
	if !ok {
		return fmt.Sprintf("%s h=%d;s=%s <collected>", e.variant.Kind(), e.hits.Load(), size)
	}
	return fmt.Sprintf("%s h=%d;s=%s %v", e.variant.Kind(), e.hits.Load(), size, v)
}
