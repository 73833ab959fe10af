// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package managed

import "time"

// Reason says why an entry left the pool.
type Reason uint8

const (
	// Reclaimed entries referenced a value nothing else held.
	Reclaimed Reason = iota
	// ZeroHit entries were never looked up again after insertion.
	ZeroHit
	// Weighted entries saved the least memory among those with hits.
	Weighted

	numReasons
)

func (r Reason) String() string {
	switch r {
	case Reclaimed:
		return "reclaimed"
	case ZeroHit:
		return "zero_hit"
	case Weighted:
		return "weighted"
	default:
		return "unknown"
	}
}

// Observer receives pool events. Calls other than Hit happen with the write
// lock held and must not call back into the pool.
type Observer interface {
	Hit()
	Miss()
	Removed(reason Reason, n int)
	Len(n int)
	Swept(scheduled bool, d time.Duration)
}

type noopObserver struct{}

func (noopObserver) Hit()                      {}
func (noopObserver) Miss()                     {}
func (noopObserver) Removed(Reason, int)       {}
func (noopObserver) Len(int)                   {}
func (noopObserver) Swept(bool, time.Duration) {}
