// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package filekey stores file and directory paths as lists of interned
// components. Torrents with thousands of files under the same few
// directories then share one copy of each directory name.
package filekey

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/luxfi/intern"
)

const sep = string(filepath.Separator)

var _ fmt.Stringer = (*Key)(nil)

// Key is an immutable path split into components, root first. Directory
// components are interned; the leaf of a file key is not, since file names
// rarely repeat.
type Key struct {
	comps []string
	hash  uint64
	dir   bool
}

// Keys creates keys whose components are interned in one interner.
type Keys struct {
	in      *intern.Interner
	tracker *tracker
}

// NewKeys returns a factory interning through in. With track set, every
// live key is recorded for WriteDiagnostics.
func NewKeys(in *intern.Interner, track bool) *Keys {
	k := &Keys{in: in}
	if track {
		k.tracker = newTracker()
	}
	return k
}

var defaultKeys = sync.OnceValue(func() *Keys {
	return NewKeys(intern.Default(), false)
})

// File returns a file key built with the default interner.
func File(path string) *Key { return defaultKeys().File(path) }

// Dir returns a directory key built with the default interner.
func Dir(path string) *Key { return defaultKeys().Dir(path) }

// File returns the key of the file at path.
func (k *Keys) File(path string) *Key {
	return k.build(nil, split(path), false)
}

// Dir returns the key of the directory at path.
func (k *Keys) Dir(path string) *Key {
	return k.build(nil, split(path), true)
}

// Join returns the key of the file at tail below parent.
func (k *Keys) Join(parent *Key, tail string) *Key {
	return k.build(parent, segments(tail), false)
}

// JoinDir returns the key of the directory at tail below parent.
func (k *Keys) JoinDir(parent *Key, tail string) *Key {
	return k.build(parent, segments(tail), true)
}

func (k *Keys) build(parent *Key, tail []string, dir bool) *Key {
	var comps []string
	if parent != nil {
		comps = make([]string, len(parent.comps), len(parent.comps)+len(tail))
		copy(comps, parent.comps)
		// A file parent's leaf was kept verbatim; it is a directory now.
		if last := len(comps) - 1; last >= 0 && !parent.dir && len(tail) > 0 {
			comps[last] = k.in.String(comps[last])
		}
	}
	if len(tail) == 0 && parent != nil {
		dir = parent.dir
	}
	for i, c := range tail {
		if i == len(tail)-1 && !dir {
			comps = append(comps, strings.Clone(c))
		} else {
			comps = append(comps, k.in.String(c))
		}
	}

	key := &Key{comps: comps, hash: hashComps(comps), dir: dir}
	if k.tracker != nil {
		k.tracker.add(key)
	}
	return key
}

func hashComps(comps []string) uint64 {
	h := murmur3.New64()
	for _, c := range comps {
		h.Write([]byte(c))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// split breaks an absolute or relative path into components. A leading
// volume or root stays one component, separator included.
func split(path string) []string {
	if path == "" {
		return nil
	}
	vol := filepath.VolumeName(path)
	rest := path[len(vol):]

	var comps []string
	switch {
	case strings.HasPrefix(rest, sep):
		comps = append(comps, vol+sep)
		rest = strings.TrimLeft(rest, sep)
	case vol != "":
		comps = append(comps, vol)
	}
	return append(comps, segments(rest)...)
}

func segments(path string) []string {
	var comps []string
	for _, c := range strings.Split(path, sep) {
		if c != "" {
			comps = append(comps, c)
		}
	}
	return comps
}

// String rebuilds the path on demand; keys never store it whole.
func (key *Key) String() string {
	var b strings.Builder
	for i, c := range key.comps {
		if i > 0 && !strings.HasSuffix(key.comps[i-1], sep) {
			b.WriteString(sep)
		}
		b.WriteString(c)
	}
	return b.String()
}

// Hash returns a hash of the components.
func (key *Key) Hash() uint64 { return key.hash }

// IsFile reports whether the key names a file rather than a directory.
func (key *Key) IsFile() bool { return !key.dir }

// Empty reports whether the key has no components.
func (key *Key) Empty() bool { return len(key.comps) == 0 }

// Components returns a copy of the components, root first.
func (key *Key) Components() []string {
	return append([]string(nil), key.comps...)
}

// Equal compares component by component. Whether a key names a file or a
// directory does not matter.
func (key *Key) Equal(o *Key) bool {
	if key == o {
		return true
	}
	if key == nil || o == nil || key.hash != o.hash || len(key.comps) != len(o.comps) {
		return false
	}
	for i, c := range key.comps {
		if c != o.comps[i] {
			return false
		}
	}
	return true
}

// Compare orders keys by their rebuilt paths.
func (key *Key) Compare(o *Key) int {
	return strings.Compare(key.String(), o.String())
}
