package lumen

import (
	"reflect"
	"slices"
)

// Queries visit matching entities in ascending EntityId order. Types listed
// as optionals may be missing on an entity; their pointer is nil then.
type Query1[A any] struct{ ecs *Ecs }
type Query2[A, B any] struct{ ecs *Ecs }
type Query3[A, B, C any] struct{ ecs *Ecs }

func MakeQuery1[A any](cmd *Commands) Query1[A]             { return Query1[A]{ecs: cmd.app.ecs} }
func MakeQuery2[A, B any](cmd *Commands) Query2[A, B]       { return Query2[A, B]{ecs: cmd.app.ecs} }
func MakeQuery3[A, B, C any](cmd *Commands) Query3[A, B, C] { return Query3[A, B, C]{ecs: cmd.app.ecs} }

func (q Query1[A]) Map(m func(EntityId, *A) bool) {
	colA := q.ecs.columnOf(reflect.TypeFor[A]())
	if colA == nil {
		return
	}
	for _, eid := range colA.sortedOwners() {
		if !m(eid, fetch[A](colA, eid)) {
			return
		}
	}
}

// Count is the number of entities carrying A.
func (q Query1[A]) Count() int {
	if colA := q.ecs.columnOf(reflect.TypeFor[A]()); colA != nil {
		return colA.len()
	}
	return 0
}

func (q Query2[A, B]) Map(m func(EntityId, *A, *B) bool, optionals ...any) {
	ta, tb := reflect.TypeFor[A](), reflect.TypeFor[B]()
	colA, colB := q.ecs.columnOf(ta), q.ecs.columnOf(tb)
	ids, ok := q.ecs.candidates(optionalTypes(optionals), []reflect.Type{ta, tb}, []*column{colA, colB})
	if !ok {
		return
	}
	for _, eid := range ids {
		if !m(eid, fetch[A](colA, eid), fetch[B](colB, eid)) {
			return
		}
	}
}

func (q Query3[A, B, C]) Map(m func(EntityId, *A, *B, *C) bool, optionals ...any) {
	ta, tb, tc := reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]()
	colA, colB, colC := q.ecs.columnOf(ta), q.ecs.columnOf(tb), q.ecs.columnOf(tc)
	ids, ok := q.ecs.candidates(optionalTypes(optionals), []reflect.Type{ta, tb, tc}, []*column{colA, colB, colC})
	if !ok {
		return
	}
	for _, eid := range ids {
		if !m(eid, fetch[A](colA, eid), fetch[B](colB, eid), fetch[C](colC, eid)) {
			return
		}
	}
}

func (ecs *Ecs) columnOf(t reflect.Type) *column {
	id, ok := ecs.componentTypeIdMap[t]
	if !ok {
		return nil
	}
	return ecs.columns[id]
}

func fetch[T any](col *column, eid EntityId) *T {
	if col == nil {
		return nil
	}
	row, ok := col.index[eid]
	if !ok {
		return nil
	}
	return &col.rows.data.([]T)[row]
}

func optionalTypes(optionals []any) set[reflect.Type] {
	res := make(set[reflect.Type])
	for _, o := range optionals {
		t := reflect.TypeOf(o)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		res[t] = struct{}{}
	}
	return res
}

// candidates lists the entities holding every required column, driven by the
// smallest one. ok is false when a required column does not exist.
func (ecs *Ecs) candidates(opt set[reflect.Type], types []reflect.Type, cols []*column) ([]EntityId, bool) {
	var required []*column
	for i, t := range types {
		if _, optional := opt[t]; optional {
			continue
		}
		if cols[i] == nil {
			return nil, false
		}
		required = append(required, cols[i])
	}

	var ids []EntityId
	if len(required) == 0 {
		for eid := range ecs.entities {
			ids = append(ids, eid)
		}
		slices.Sort(ids)
		return ids, true
	}

	driver := slices.MinFunc(required, func(a, b *column) int { return len(a.owner) - len(b.owner) })
	for _, eid := range driver.sortedOwners() {
		matches := true
		for _, col := range required {
			if _, has := col.index[eid]; !has {
				matches = false
				break
			}
		}
		if matches {
			ids = append(ids, eid)
		}
	}
	return ids, true
}
