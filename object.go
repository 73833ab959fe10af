// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package intern

import (
	"reflect"

	"github.com/luxfi/intern/unmanaged"
)

// ObjectIn returns the canonical pointer for the value *v in in's unmanaged
// pool for T. The first pointer seen for a value becomes canonical; it is
// never copied. v must point to heap memory.
//
// T may be an interface type only if every dynamic value stored in it is
// comparable.
func ObjectIn[T comparable](in *Interner, v *T) *T {
	if v == nil || in.Disabled() {
		return v
	}
	return objectPool[T](in).Intern(v)
}

// Object interns v in the default interner.
func Object[T comparable](v *T) *T {
	return ObjectIn(Default(), v)
}

func objectPool[T comparable](in *Interner) *unmanaged.Pool[T] {
	key := reflect.TypeFor[T]()
	if p, ok := in.objects.Load(key); ok {
		return p.(*unmanaged.Pool[T])
	}
	p, _ := in.objects.LoadOrStore(key, unmanaged.New[T]())
	return p.(*unmanaged.Pool[T])
}
