package lumen

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

type EntityId uint64
type componentId uint32
type set[T comparable] = map[T]struct{}

// column stores every component of one type. owner[i] is the entity of
// row i and index is its inverse.
type column struct {
	rows  rows
	owner []EntityId
	index map[EntityId]int
}

type Ecs struct {
	columns  map[componentId]*column
	entities map[EntityId]set[componentId]

	idGeneratorLock sync.Mutex
	entityIdCounter EntityId

	componentIdCounterLock sync.Mutex
	componentIdCounter     componentId
	componentTypeIdMap     map[reflect.Type]componentId
}

func MakeEcs() *Ecs {
	return &Ecs{
		columns:            make(map[componentId]*column),
		entities:           make(map[EntityId]set[componentId]),
		componentTypeIdMap: make(map[reflect.Type]componentId),
	}
}

func (ecs *Ecs) addEntity(components ...any) EntityId {
	return ecs.insertEntity(ecs.nextEntityId(), components...)
}

func (ecs *Ecs) insertEntity(entityId EntityId, components ...any) EntityId {
	if _, ok := ecs.entities[entityId]; !ok {
		ecs.entities[entityId] = make(set[componentId])
	}
	ecs.addComponents(entityId, components...)
	return entityId
}

func (ecs *Ecs) hasEntity(entityId EntityId) bool {
	_, ok := ecs.entities[entityId]
	return ok
}

func (ecs *Ecs) removeEntity(entityId EntityId) {
	comps, ok := ecs.entities[entityId]
	if !ok {
		return
	}
	for id := range comps {
		ecs.columns[id].remove(entityId)
	}
	delete(ecs.entities, entityId)
}

// addComponents writes components, replacing any of the same type. Unknown
// entities are ignored.
func (ecs *Ecs) addComponents(entityId EntityId, components ...any) {
	comps, ok := ecs.entities[entityId]
	if !ok {
		return
	}
	for _, component := range components {
		value := componentValue(component)
		id := ecs.getComponentId(value.Type())
		ecs.columnFor(id, value.Type()).write(entityId, value)
		comps[id] = struct{}{}
	}
}

func (ecs *Ecs) removeComponents(entityId EntityId, components ...any) {
	comps, ok := ecs.entities[entityId]
	if !ok {
		return
	}
	for _, c := range components {
		cType := reflect.TypeOf(c)
		if cType.Kind() == reflect.Pointer {
			cType = cType.Elem()
		}
		id := ecs.getComponentId(cType)
		if _, has := comps[id]; has {
			ecs.columns[id].remove(entityId)
			delete(comps, id)
		}
	}
}

// allComponents returns copies of an entity's components, ordered by type id.
func (ecs *Ecs) allComponents(entityId EntityId) []any {
	comps := ecs.entities[entityId]
	ids := make([]componentId, 0, len(comps))
	for id := range comps {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	res := make([]any, 0, len(ids))
	for _, id := range ids {
		col := ecs.columns[id]
		res = append(res, col.rows.at(col.index[entityId]).Interface())
	}
	return res
}

func componentValue(component any) reflect.Value {
	v := reflect.ValueOf(component)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		panic(fmt.Errorf("expected Component to be a struct or a pointer to a struct, got %s", v.Kind()))
	}
	return v
}

func (ecs *Ecs) columnFor(id componentId, typ reflect.Type) *column {
	if col, ok := ecs.columns[id]; ok {
		return col
	}
	col := &column{rows: newRows(typ), index: make(map[EntityId]int)}
	ecs.columns[id] = col
	return col
}

func (c *column) write(entityId EntityId, value reflect.Value) {
	if row, ok := c.index[entityId]; ok {
		c.rows.put(row, value)
		return
	}
	c.rows.put(len(c.owner), value)
	c.index[entityId] = len(c.owner)
	c.owner = append(c.owner, entityId)
}

func (c *column) len() int { return c.rows.len() }

// remove swaps the last row into the freed slot.
func (c *column) remove(entityId EntityId) {
	row, ok := c.index[entityId]
	if !ok {
		return
	}
	last := len(c.owner) - 1
	c.rows.swapRemove(row)
	if row != last {
		moved := c.owner[last]
		c.owner[row] = moved
		c.index[moved] = row
	}
	c.owner = c.owner[:last]
	delete(c.index, entityId)
}

// sortedOwners returns the column's entities in ascending id order, so
// queries visit entities deterministically.
func (c *column) sortedOwners() []EntityId {
	ids := slices.Clone(c.owner)
	slices.Sort(ids)
	return ids
}

func (ecs *Ecs) nextEntityId() EntityId {
	ecs.idGeneratorLock.Lock()
	defer ecs.idGeneratorLock.Unlock()

	id := ecs.entityIdCounter
	ecs.entityIdCounter += 1

	return id
}

func (ecs *Ecs) getComponentId(componentType reflect.Type) componentId {
	ecs.componentIdCounterLock.Lock()
	defer ecs.componentIdCounterLock.Unlock()

	if id, ok := ecs.componentTypeIdMap[componentType]; ok {
		return id
	}
	id := ecs.componentIdCounter
	ecs.componentIdCounter += 1
	ecs.componentTypeIdMap[componentType] = id
	return id
}
