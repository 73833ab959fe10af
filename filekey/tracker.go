// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package filekey

import (
	"fmt"
	"io"
	"runtime"
	"strconv"
	"sync/atomic"
	"unsafe"
	"weak"

	cmap "github.com/orcaman/concurrent-map"
)

// tracker remembers every live key so diagnostics can measure how much
// component sharing actually saves.
type tracker struct {
	keys cmap.ConcurrentMap // id -> weak.Pointer[Key]
	next atomic.Uint64
}

func newTracker() *tracker {
	return &tracker{keys: cmap.New()}
}

func (t *tracker) add(key *Key) {
	id := strconv.FormatUint(t.next.Add(1), 36)
	t.keys.Set(id, weak.Make(key))
	runtime.AddCleanup(key, t.keys.Remove, id)
}

// Usage summarizes the components held by live keys.
type Usage struct {
	Keys int
	// Total is the length of all directory components as referenced.
	Total int64
	// Actual is the length of distinct component allocations.
	Actual int64
	// Dups is the part of Actual spent on equal text held more than once.
	Dups int64
}

func (t *tracker) usage() Usage {
	var u Usage
	seen := make(map[*byte]struct{})
	texts := make(map[string]struct{})
	for item := range t.keys.IterBuffered() {
		key := item.Val.(weak.Pointer[Key]).Value()
		if key == nil {
			continue
		}
		u.Keys++
		comps := key.comps
		if !key.dir && len(comps) > 0 {
			comps = comps[:len(comps)-1]
		}
		for _, c := range comps {
			n := int64(len(c))
			u.Total += n
			p := unsafe.StringData(c)
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			u.Actual += n
			if _, ok := texts[c]; ok {
				u.Dups += n
			} else {
				texts[c] = struct{}{}
			}
		}
	}
	return u
}

// Usage reports component sharing across live keys. It is zero unless the
// factory tracks keys.
func (k *Keys) Usage() Usage {
	if k.tracker == nil {
		return Usage{}
	}
	return k.tracker.usage()
}

// WriteDiagnostics writes the Usage summary.
func (k *Keys) WriteDiagnostics(w io.Writer) error {
	if k.tracker == nil {
		_, err := fmt.Fprintln(w, "File Keys: not tracked")
		return err
	}
	u := k.tracker.usage()
	_, err := fmt.Fprintf(w, "File Keys: num=%d, total=%d, dups=%d, actual=%d\n",
		u.Keys, u.Total, u.Dups, u.Actual)
	return err
}
