// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package intern

import (
	"context"
	"time"
)

// Start launches periodic maintenance in its own goroutine and returns
// immediately. Only the first call has an effect; maintenance stops when ctx
// is done or Stop is called.
//
// Start is kept apart from New so that building the interner never depends
// on configuration that may itself intern values while loading.
func (in *Interner) Start(ctx context.Context) {
	in.lifecycle.Lock()
	defer in.lifecycle.Unlock()
	if in.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	in.cancel = cancel
	in.done = make(chan struct{})
	go in.run(ctx, in.done)
}

// Stop ends maintenance started by Start and waits for a pass in progress.
func (in *Interner) Stop() {
	in.lifecycle.Lock()
	cancel, done := in.cancel, in.done
	in.lifecycle.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (in *Interner) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(in.cfg.Interval)
	defer ticker.Stop()

	in.log.WithField("interval", in.cfg.Interval).Debug("interning maintenance started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			in.Sweep()
		}
	}
}

// Sweep runs one maintenance pass: the managed pool's scheduled eviction and
// a cleanup of every unmanaged pool. A failing pass is logged, never
// propagated.
func (in *Interner) Sweep() {
	defer func() {
		if r := recover(); r != nil {
			in.log.WithField("panic", r).Error("interning maintenance pass failed")
		}
	}()

	in.managed.Sweep()
	in.objects.Range(func(_, p any) bool {
		p.(Sweeper).Sweep()
		return true
	})
}
