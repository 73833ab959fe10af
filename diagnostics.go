// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package intern

import (
	"fmt"
	"io"

	"github.com/luxfi/intern/managed"
)

// Stats is a snapshot of an interner's pools.
type Stats struct {
	Managed managed.Stats

	// Objects counts entries across all unmanaged pools.
	Objects     int
	ObjectPools int
	Disabled    bool
}

// Stats returns a snapshot of the interner's pools.
func (in *Interner) Stats() Stats {
	s := Stats{
		Managed:  in.managed.Stats(),
		Disabled: in.Disabled(),
	}
	in.objects.Range(func(_, p any) bool {
		s.ObjectPools++
		s.Objects += p.(Sweeper).Len()
		return true
	})
	return s
}

// WriteDiagnostics writes a human readable summary of the interner.
func (in *Interner) WriteDiagnostics(w io.Writer) error {
	s := in.Stats()
	m := s.Managed
	_, err := fmt.Fprintf(w,
		"String Interner\n"+
			"\tManaged: %d (permanent %d, ~%d bytes, %d queued)\n"+
			"\tLookups: hits=%d misses=%d\n"+
			"\tRemoved: reclaimed=%d zero-hit=%d weighted=%d\n"+
			"\tUnmanaged: %d in %d pools\n"+
			"\tDisabled: %t\n",
		m.Entries, m.Permanent, m.Bytes, m.Queued,
		m.Hits, m.Misses,
		m.Reclaimed, m.ZeroHit, m.Weighted,
		s.Objects, s.ObjectPools,
		s.Disabled,
	)
	return err
}
