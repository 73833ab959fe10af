// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package managed

import (
	"cmp"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweep runs a scheduled maintenance pass and compacts the index.
func (p *Pool) Sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sanitize(true)
}

// sanitize runs with the write lock held. It always drains the reclamation
// queue; the remaining steps run on every scheduled pass and on inserts that
// find the pool at or above the immediate trigger.
func (p *Pool) sanitize(scheduled bool) {
	start := time.Now()
	p.reclaim()
	if !scheduled && p.n < p.cfg.ImmediateTrigger {
		return
	}

	before := p.n
	p.cleanup(scheduled)
	if scheduled {
		p.compact()
	}

	took := time.Since(start)
	p.observer.Len(p.n)
	p.observer.Swept(scheduled, took)
	p.log.WithFields(logrus.Fields{
		"scheduled": scheduled,
		"before":    before,
		"after":     p.n,
		"took":      took,
	}).Debug("interning pool cleanup")
}

func (p *Pool) reclaim() {
	n := 0
	for _, s := range p.queue.drain() {
		m := s.header()
		switch m.state {
		case destroyed:
			p.log.WithField("entry", s.String()).Warn("double removal of reclaimed entry")
		case evicted:
			// Unlinked by an eviction pass before its cleanup could be stopped.
		default:
			m.state = destroyed
			if p.remove(s) {
				n++
			}
		}
	}
	p.count(Reclaimed, n)
}

// cleanup is the eviction engine. Each phase may end the pass as soon as the
// pool is small enough for the mode it runs in.
func (p *Pool) cleanup(scheduled bool) {
	cfg := p.cfg
	done := func() bool { return !scheduled && p.n < cfg.ImmediateGoal }

	remaining := make([]slot, 0, p.n)
	if !scheduled || p.n >= cfg.ScheduledTrigger {
		// Values never looked up a second time gain nothing from interning.
		for _, s := range p.slots() {
			if done() {
				return
			}
			m := s.header()
			switch {
			case m.permanent:
			case !s.alive():
				p.evict(s, Reclaimed)
			case m.hits.Load() == 0:
				p.evict(s, ZeroHit)
			default:
				remaining = append(remaining, s)
			}
		}
		if done() {
			return
		}

		if !scheduled || p.n >= cfg.ScheduledTrigger {
			goal := cfg.ImmediateGoal
			if scheduled {
				goal = cfg.ScheduledGoal
			}
			slices.SortStableFunc(remaining, func(a, b slot) int {
				return cmp.Compare(a.header().savings(), b.header().savings())
			})
			for _, s := range remaining {
				if p.n < goal {
					break
				}
				p.evict(s, Weighted)
			}
			if done() {
				return
			}
		}
	}

	if scheduled && p.n < cfg.AgingThreshold {
		return
	}
	for _, b := range p.buckets {
		for _, s := range b {
			if m := s.header(); !m.permanent {
				m.age()
			}
		}
	}
}

// evict unlinks a live entry and stops its cleanup. The cleanup may already
// be queued, in which case reclaim skips it by its state.
func (p *Pool) evict(s slot, reason Reason) {
	if !p.remove(s) {
		return
	}
	m := s.header()
	m.state = evicted
	m.cleanup.Stop()
	p.count(reason, 1)
}

func (p *Pool) count(reason Reason, n int) {
	if n == 0 {
		return
	}
	p.removed[reason] += uint64(n)
	p.observer.Removed(reason, n)
}

func (p *Pool) slots() []slot {
	all := make([]slot, 0, p.n)
	for _, b := range p.buckets {
		all = append(all, b...)
	}
	return all
}

// compact rebuilds the index so capacity left behind by removals is freed.
func (p *Pool) compact() {
	m := make(map[uint64][]slot, max(len(p.buckets), p.cfg.InitialCapacity))
	for h, b := range p.buckets {
		if cap(b) > len(b) {
			b = slices.Clone(b)
		}
		m[h] = b
	}
	p.buckets = m
}
