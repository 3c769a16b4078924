package lumen

import (
	"reflect"
)

// rows is a type-erased []T for one component type. data always holds the
// live slice so typed queries can assert it back to []T without reflection.
type rows struct {
	elem reflect.Type
	data any
}

func newRows(elem reflect.Type) rows {
	return rows{elem: elem, data: reflect.MakeSlice(reflect.SliceOf(elem), 0, 1).Interface()}
}

func (r rows) len() int { return reflect.ValueOf(r.data).Len() }

func (r rows) at(i int) reflect.Value { return reflect.ValueOf(r.data).Index(i) }

// put overwrites row i, or appends when i is one past the end.
func (r *rows) put(i int, v reflect.Value) {
	s := reflect.ValueOf(r.data)
	if i == s.Len() {
		r.data = reflect.Append(s, v).Interface()
		return
	}
	s.Index(i).Set(v)
}

// swapRemove moves the last row into i and shrinks by one. The vacated tail
// slot is zeroed so it holds no stale references.
func (r *rows) swapRemove(i int) {
	s := reflect.ValueOf(r.data)
	last := s.Len() - 1
	if i != last {
		s.Index(i).Set(s.Index(last))
	}
	s.Index(last).Set(reflect.Zero(r.elem))
	r.data = s.Slice(0, last).Interface()
}
