// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package intern

import (
	"path/filepath"

	"github.com/pkg/errors"
)

// Path is a filesystem path held in canonical form: absolute and cleaned.
// The canonical form is computed once by NewPath, so comparing or interning
// paths never touches the filesystem.
type Path struct {
	name string
}

// NewPath resolves name against the working directory.
func NewPath(name string) (*Path, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve path %q", name)
	}
	return &Path{name: abs}, nil
}

// String returns the canonical form.
func (p *Path) String() string { return p.name }

// Base returns the last element of the path.
func (p *Path) Base() string { return filepath.Base(p.name) }

// Dir returns the parent directory.
func (p *Path) Dir() *Path { return &Path{name: filepath.Dir(p.name)} }

// Join appends elements to the path.
func (p *Path) Join(elem ...string) *Path {
	return &Path{name: filepath.Join(append([]string{p.name}, elem...)...)}
}

// Equal reports whether both paths have the same canonical form.
func (p *Path) Equal(o *Path) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.name == o.name
}
