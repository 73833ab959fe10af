// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package managed

import "sync"

// reclaimQueue collects entries whose values the garbage collector found
// unreachable. Cleanups push onto it from the runtime's cleanup goroutine
// without taking the pool lock.
type reclaimQueue struct {
	mu    sync.Mutex
	items []slot
}

func (q *reclaimQueue) push(s slot) {
	q.mu.Lock()
	q.items = append(q.items, s)
	q.mu.Unlock()
}

func (q *reclaimQueue) drain() []slot {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func (q *reclaimQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
