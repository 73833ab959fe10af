// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package intern

import (
	"bytes"
	"net/url"
	"slices"
	"strings"
	"unsafe"

	"github.com/spaolacci/murmur3"

	"github.com/luxfi/intern/managed"
)

// Hash seeds keep equal bytes of different kinds in different buckets.
const (
	seedText uint32 = iota + 1
	seedBytes
	seedRunes
	seedPath
	seedURL
)

var (
	_ managed.Variant[string, byte]      = textVariant{}
	_ managed.Variant[[]byte, byte]      = bytesVariant{}
	_ managed.Variant[[]rune, rune]      = runesVariant{}
	_ managed.Variant[*Path, Path]       = pathVariant{}
	_ managed.Variant[*url.URL, url.URL] = urlVariant{}
)

func stringBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// textVariant: string header plus its backing array.
type textVariant struct{}

func (textVariant) Kind() string { return "text" }

func (textVariant) Hash(s string) uint64 {
	return murmur3.Sum64WithSeed(stringBytes(s), seedText)
}

func (textVariant) Equal(a, b string) bool { return a == b }

func (textVariant) Size(s string) int { return 16 + 8 + len(s) }

func (textVariant) Clone(s string) string { return strings.Clone(s) }

func (textVariant) Anchor(s string) (*byte, int) {
	return unsafe.StringData(s), len(s)
}

func (textVariant) Rebuild(p *byte, n int) string { return unsafe.String(p, n) }

type bytesVariant struct{}

func (bytesVariant) Kind() string { return "bytes" }

func (bytesVariant) Hash(b []byte) uint64 {
	return murmur3.Sum64WithSeed(b, seedBytes)
}

func (bytesVariant) Equal(a, b []byte) bool { return bytes.Equal(a, b) }

func (bytesVariant) Size(b []byte) int { return len(b) + 8 }

func (bytesVariant) Clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

func (bytesVariant) Anchor(b []byte) (*byte, int) {
	return unsafe.SliceData(b), len(b)
}

func (bytesVariant) Rebuild(p *byte, n int) []byte { return unsafe.Slice(p, n) }

type runesVariant struct{}

func (runesVariant) Kind() string { return "chars" }

func (runesVariant) Hash(r []rune) uint64 {
	raw := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(r))), len(r)*4)
	return murmur3.Sum64WithSeed(raw, seedRunes)
}

func (runesVariant) Equal(a, b []rune) bool { return slices.Equal(a, b) }

func (runesVariant) Size(r []rune) int { return len(r)*4 + 8 }

func (runesVariant) Clone(r []rune) []rune {
	c := make([]rune, len(r))
	copy(c, r)
	return c
}

func (runesVariant) Anchor(r []rune) (*rune, int) {
	return unsafe.SliceData(r), len(r)
}

func (runesVariant) Rebuild(p *rune, n int) []rune { return unsafe.Slice(p, n) }

// pathVariant compares canonical path strings, never the filesystem.
type pathVariant struct{}

func (pathVariant) Kind() string { return "path" }

func (pathVariant) Hash(p *Path) uint64 {
	return murmur3.Sum64WithSeed(stringBytes(p.name), seedPath)
}

func (pathVariant) Equal(a, b *Path) bool { return a == b || a.name == b.name }

// Size counts the Path, its string header and the backing array.
func (pathVariant) Size(p *Path) int { return 16 + 16 + 8 + len(p.name) }

func (pathVariant) Clone(p *Path) *Path {
	return &Path{name: strings.Clone(p.name)}
}

func (pathVariant) Anchor(p *Path) (*Path, int) { return p, 0 }

func (pathVariant) Rebuild(p *Path, _ int) *Path { return p }

// urlVariant compares external forms. Nothing here resolves host names.
type urlVariant struct{}

func (urlVariant) Kind() string { return "url" }

func (urlVariant) Hash(u *url.URL) uint64 {
	return murmur3.Sum64WithSeed(stringBytes(u.String()), seedURL)
}

func (urlVariant) Equal(a, b *url.URL) bool {
	return a == b || a.String() == b.String()
}

// Size approximates the URL struct, the strings it points at and one shared
// backing array.
func (urlVariant) Size(u *url.URL) int {
	return 13*8 + 4*16 + 8 + len(u.String())
}

// Clone copies every string field, since url.Parse slices them out of the
// text it was given.
func (urlVariant) Clone(u *url.URL) *url.URL {
	c := *u
	c.Scheme = strings.Clone(u.Scheme)
	c.Opaque = strings.Clone(u.Opaque)
	c.Host = strings.Clone(u.Host)
	c.Path = strings.Clone(u.Path)
	c.RawPath = strings.Clone(u.RawPath)
	c.RawQuery = strings.Clone(u.RawQuery)
	c.Fragment = strings.Clone(u.Fragment)
	c.RawFragment = strings.Clone(u.RawFragment)
	if u.User != nil {
		name := strings.Clone(u.User.Username())
		if password, ok := u.User.Password(); ok {
			c.User = url.UserPassword(name, strings.Clone(password))
		} else {
			c.User = url.User(name)
		}
	}
	return &c
}

func (urlVariant) Anchor(u *url.URL) (*url.URL, int) { return u, 0 }

func (urlVariant) Rebuild(u *url.URL, _ int) *url.URL { return u }
