// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package intern provides a process-wide value-interning cache.
//
// Given a text string, byte or rune sequence, filesystem path or URL, the
// interner returns one canonical instance equal to it, so logically
// identical values parsed again and again by different subsystems share
// one allocation. The cache never keeps a value alive by itself: entries
// observe their values weakly and disappear once nothing else uses them.
//
// Values of these five kinds live in a bounded managed pool curated by an
// eviction pass. Arbitrary comparable objects go to unbounded per-type pools
// through Object. A fixed table of well known protocol keys is available
// through LiteralKey.
//
// Interned values are shared: callers must not modify returned byte or rune
// slices.
//
// # Startup
//
// Interning works as soon as the package is loaded. Periodic maintenance is
// a separate step: call Start once configuration has been loaded.
package intern

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/luxfi/intern/literal"
	"github.com/luxfi/intern/managed"
)

// Interner owns one managed pool, a set of unmanaged pools and the
// maintenance scheduler that sweeps them.
type Interner struct {
	cfg      Config
	log      logrus.FieldLogger
	disabled atomic.Bool
	managed  *managed.Pool
	objects  sync.Map // reflect.Type -> pool

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates an interner. The literal keys are seeded into its managed pool
// as permanent entries. Maintenance does not run until Start is called.
func New(cfg Config) *Interner {
	cfg = cfg.build()
	in := &Interner{
		cfg: cfg,
		log: cfg.Logger,
	}
	in.disabled.Store(cfg.Disabled)

	opts := []managed.Option{managed.WithLogger(cfg.Logger)}
	if cfg.Observer != nil {
		opts = append(opts, managed.WithObserver(cfg.Observer))
	}
	in.managed = managed.New(cfg.Pool, opts...)
	for _, key := range literal.Keys() {
		managed.Seed(in.managed, key, textVariant{})
	}
	return in
}

var defaultInterner = sync.OnceValue(func() *Interner {
	return New(ConfigFromEnv())
})

// Default returns the process-wide interner, configured from the
// environment on first use.
func Default() *Interner {
	return defaultInterner()
}

// SetDisabled switches pass-through mode. It takes effect on the next call
// and leaves values already interned in place.
func (in *Interner) SetDisabled(disabled bool) {
	in.disabled.Store(disabled)
}

// Disabled reports whether interning calls return their input unchanged.
func (in *Interner) Disabled() bool {
	return in.disabled.Load()
}

// String returns the canonical instance of s.
func (in *Interner) String(s string) string {
	if s == "" || in.Disabled() {
		return s
	}
	return managed.Intern(in.managed, s, textVariant{})
}

// Bytes returns the canonical instance of b. Nil and empty slices are
// returned unchanged.
func (in *Interner) Bytes(b []byte) []byte {
	if len(b) == 0 || in.Disabled() {
		return b
	}
	return managed.Intern(in.managed, b, bytesVariant{})
}

// Runes returns the canonical instance of r. Nil and empty slices are
// returned unchanged.
func (in *Interner) Runes(r []rune) []rune {
	if len(r) == 0 || in.Disabled() {
		return r
	}
	return managed.Intern(in.managed, r, runesVariant{})
}

// File returns the canonical instance of p. Paths with the same canonical
// form share an instance.
func (in *Interner) File(p *Path) *Path {
	if p == nil || in.Disabled() {
		return p
	}
	return managed.Intern(in.managed, p, pathVariant{})
}

// URL returns the canonical instance of u. URLs with the same external form
// share an instance; no name resolution takes place.
func (in *Interner) URL(u *url.URL) *url.URL {
	if u == nil || in.Disabled() {
		return u
	}
	return managed.Intern(in.managed, u, urlVariant{})
}

// LiteralKey returns the canonical string for one of the well known keys.
// It never inserts anything: keys outside the table miss, and callers fall
// back to String themselves. A disabled interner misses on every key, and
// the fallback String call then returns the caller's text unchanged, so the
// disabled path is identity from end to end.
func (in *Interner) LiteralKey(b []byte) (string, bool) {
	if in.Disabled() {
		return "", false
	}
	return literal.Lookup(b)
}

// String interns s in the default interner.
func String(s string) string { return Default().String(s) }

// Bytes interns b in the default interner.
func Bytes(b []byte) []byte { return Default().Bytes(b) }

// Runes interns r in the default interner.
func Runes(r []rune) []rune { return Default().Runes(r) }

// File interns p in the default interner.
func File(p *Path) *Path { return Default().File(p) }

// URL interns u in the default interner.
func URL(u *url.URL) *url.URL { return Default().URL(u) }

// LiteralKey looks b up in the default interner's literal table.
func LiteralKey(b []byte) (string, bool) { return Default().LiteralKey(b) }

// SetDisabled switches pass-through mode on the default interner.
func SetDisabled(disabled bool) { Default().SetDisabled(disabled) }

// Start starts maintenance of the default interner.
func Start(ctx context.Context) { Default().Start(ctx) }
