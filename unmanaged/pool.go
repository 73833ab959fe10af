// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

// Package unmanaged implements an unbounded interning pool for arbitrary
// comparable values. Entries are weak, so the pool shrinks on its own as
// canonical values become unreachable; there is no eviction.
package unmanaged

import (
	"runtime"
	"sync"
	"weak"
)

// Pool maps each value to a weak pointer at its canonical instance.
type Pool[T comparable] struct {
	mu    sync.RWMutex
	items map[T]weak.Pointer[T]

	qmu   sync.Mutex
	queue []T
}

// New creates an empty pool.
func New[T comparable]() *Pool[T] {
	return &Pool[T]{
		items: make(map[T]weak.Pointer[T]),
	}
}

// Intern returns the canonical pointer for *v, making v canonical if no
// live pointer to an equal value is known.
func (p *Pool[T]) Intern(v *T) *T {
	key := *v

	p.mu.RLock()
	canon := p.items[key].Value()
	p.mu.RUnlock()
	if canon != nil {
		return canon
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.drain()
	if canon := p.items[key].Value(); canon != nil {
		return canon
	}
	p.items[key] = weak.Make(v)
	runtime.AddCleanup(v, p.enqueue, key)
	return v
}

func (p *Pool[T]) enqueue(key T) {
	p.qmu.Lock()
	p.queue = append(p.queue, key)
	p.qmu.Unlock()
}

// drain runs with the write lock held. A queued key may have been interned
// again since its old value died, so only empty pointers are removed.
func (p *Pool[T]) drain() {
	p.qmu.Lock()
	queue := p.queue
	p.queue = nil
	p.qmu.Unlock()

	for _, key := range queue {
		if w, ok := p.items[key]; ok && w.Value() == nil {
			delete(p.items, key)
		}
	}
}

// Sweep removes dead entries and rebuilds the map at its current size.
func (p *Pool[T]) Sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.drain()
	items := make(map[T]weak.Pointer[T], len(p.items))
	for k, w := range p.items {
		if w.Value() != nil {
			items[k] = w
		}
	}
	p.items = items
}

// Len returns the number of entries, including any whose value died since
// the last sweep.
func (p *Pool[T]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}
