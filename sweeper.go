// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package intern

import (
	"github.com/luxfi/intern/managed"
	"github.com/luxfi/intern/unmanaged"
)

var (
	_ Sweeper = (*managed.Pool)(nil)
	_ Sweeper = (*unmanaged.Pool[struct{}])(nil)
)

// Sweeper is a pool the maintenance scheduler keeps in shape.
type Sweeper interface {
	// Sweep drops entries whose values are gone and compacts storage.
	// Managed pools also run their scheduled eviction pass.
	Sweep()

	// Len returns the number of entries in the pool.
	Len() int
}
