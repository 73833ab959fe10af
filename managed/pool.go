// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package managed implements the bounded interning pool: a set of weakly
// held canonical values with hit and size accounting, curated by a
// multi-phase eviction pass.
//
// Lookups take the read lock. A miss releases it, takes the write lock,
// runs an unscheduled cleanup if the pool has grown past its trigger, looks
// again and only then inserts a copy of the candidate. Values leave the
// pool either when nothing outside it references them any more, or when an
// eviction pass decides they are not worth keeping.
package managed

import (
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/sirupsen/logrus"
)

// Pool is a bounded, weakly held interning set shared by all content kinds.
type Pool struct {
	mu       sync.RWMutex
	buckets  map[uint64][]slot
	n        int
	perm     int
	bytes    int64
	removed  [numReasons]uint64
	queue    *reclaimQueue
	cfg      Config
	log      logrus.FieldLogger
	observer Observer

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for pass summaries and internal faults.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// WithObserver sets the receiver of pool events.
func WithObserver(o Observer) Option {
	return func(p *Pool) {
		if o != nil {
			p.observer = o
		}
	}
}

// New creates an empty pool. cfg is normalized with Config.Build.
func New(cfg Config, opts ...Option) *Pool {
	cfg = cfg.Build()
	p := &Pool{
		buckets:  make(map[uint64][]slot, cfg.InitialCapacity),
		queue:    &reclaimQueue{},
		cfg:      cfg,
		log:      logrus.StandardLogger(),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Intern returns the canonical instance equal to v, inserting a copy of v
// if the pool holds none.
func Intern[T, E any](p *Pool, v T, variant Variant[T, E]) T {
	h := variant.Hash(v)

	p.mu.RLock()
	if e, canon, ok := lookup(p, h, v, variant); ok {
		e.hit()
		p.mu.RUnlock()
		p.recordHit()
		return canon
	}
	p.mu.RUnlock()

	return insert(p, h, v, variant)
}

func insert[T, E any](p *Pool, h uint64, v T, variant Variant[T, E]) T {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sanitize(false)

	// An equal value may have been inserted between the two locks.
	if e, canon, ok := lookup(p, h, v, variant); ok {
		e.hit()
		p.recordHit()
		return canon
	}

	canon := variant.Clone(v)
	if !variant.Equal(v, canon) {
		p.log.WithField("kind", variant.Kind()).Error("canonical copy does not match candidate")
		return v
	}

	ptr, n := variant.Anchor(canon)
	e := &entry[T, E]{ref: weak.Make(ptr), n: n, variant: variant}
	e.hash = h
	e.size = variant.Size(canon)
	e.cleanup = runtime.AddCleanup(ptr, p.queue.push, slot(e))
	p.add(e)

	p.misses.Add(1)
	p.observer.Miss()
	p.observer.Len(p.n)
	return canon
}

// Seed adds v as a permanent entry. The pool holds v strongly, so it is
// never reclaimed, and eviction passes skip it. If an equal value is already
// present, that value is returned and left as it is.
func Seed[T, E any](p *Pool, v T, variant Variant[T, E]) T {
	h := variant.Hash(v)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, canon, ok := lookup(p, h, v, variant); ok {
		return canon
	}
	ptr, n := variant.Anchor(v)
	e := &entry[T, E]{strong: ptr, n: n, variant: variant}
	e.hash = h
	e.size = variant.Size(v)
	e.permanent = true
	p.add(e)
	return v
}

func lookup[T, E any](p *Pool, h uint64, v T, variant Variant[T, E]) (*entry[T, E], T, bool) {
	for _, s := range p.buckets[h] {
		e, ok := s.(*entry[T, E])
		if !ok {
			continue
		}
		if canon, ok := e.get(); ok && variant.Equal(canon, v) {
			return e, canon, true
		}
	}
	var zero T
	return nil, zero, false
}

func (p *Pool) recordHit() {
	p.hits.Add(1)
	p.observer.Hit()
}

func (p *Pool) add(s slot) {
	m := s.header()
	p.buckets[m.hash] = append(p.buckets[m.hash], s)
	p.n++
	p.bytes += int64(m.size)
	if m.permanent {
		p.perm++
	}
}

// remove unlinks s from the index and reports whether it was present.
func (p *Pool) remove(s slot) bool {
	m := s.header()
	b := p.buckets[m.hash]
	i := slices.Index(b, s)
	if i < 0 {
		return false
	}
	last := len(b) - 1
	b[i] = b[last]
	b[last] = nil
	if last == 0 {
		delete(p.buckets, m.hash)
	} else {
		p.buckets[m.hash] = b[:last]
	}
	p.n--
	p.bytes -= int64(m.size)
	if m.permanent {
		p.perm--
	}
	return true
}

// Len returns the number of entries, permanent ones included.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.n
}

// Stats is a snapshot of pool accounting.
type Stats struct {
	Entries   int
	Permanent int
	// Bytes is the sum of the entries' estimated sizes.
	Bytes     int64
	Queued    int
	Hits      uint64
	Misses    uint64
	Reclaimed uint64
	ZeroHit   uint64
	Weighted  uint64
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Stats{
		Entries:   p.n,
		Permanent: p.perm,
		Bytes:     p.bytes,
		Queued:    p.queue.len(),
		Hits:      p.hits.Load(),
		Misses:    p.misses.Load(),
		Reclaimed: p.removed[Reclaimed],
		ZeroHit:   p.removed[ZeroHit],
		Weighted:  p.removed[Weighted],
	}
}
