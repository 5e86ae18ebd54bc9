package mapping

import (
	"fmt"
	"reflect"
	"sync"
)

// property is one visible field of a mapped struct.
type property struct {
	name  string
	index []int
	typ   reflect.Type
	tag   reflect.StructTag
}

// get returns the field value of v, which must be the struct value.
func (p *property) get(v reflect.Value) reflect.Value {
	return v.FieldByIndex(p.index)
}

// set assigns x to the field of v, which must be an addressable struct value.
func (p *property) set(v reflect.Value, x reflect.Value) {
	v.FieldByIndex(p.index).Set(x)
}

// accessorTable lists a struct type's visible properties in declaration order.
type accessorTable struct {
	typ    reflect.Type
	props  []*property
	byName map[string]*property
}

func (a *accessorTable) lookup(name string) (*property, bool) {
	p, ok := a.byName[name]
	return p, ok
}

var accessorCache sync.Map // map[reflect.Type]*accessorTable

// accessorsFor returns the accessor table of t, building it on first use.
// Tables depend only on the type, so one copy is shared process-wide.
func accessorsFor(t reflect.Type) (*accessorTable, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v", ErrNotStruct, t)
	}
	if cached, ok := accessorCache.Load(t); ok {
		return cached.(*accessorTable), nil
	}

	table := &accessorTable{
		typ:    t,
		byName: make(map[string]*property),
	}
	shadow := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); !isFlattened(f) {
			shadow[f.Name] = true
		}
	}
	collectProperties(t, nil, shadow, table)

	actual, _ := accessorCache.LoadOrStore(t, table)
	return actual.(*accessorTable), nil
}

func collectProperties(t reflect.Type, parent []int, shadow map[string]bool, table *accessorTable) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		if isFlattened(f) {
			collectProperties(f.Type, index, shadow, table)
			continue
		}
		if !f.IsExported() || f.Anonymous {
			continue
		}
		// Fields of embedded structs are hidden by same-named outer fields.
		if parent != nil && shadow[f.Name] {
			continue
		}
		if _, dup := table.byName[f.Name]; dup {
			continue
		}

		p := &property{
			name:  f.Name,
			index: index,
			typ:   f.Type,
			tag:   f.Tag,
		}
		table.props = append(table.props, p)
		table.byName[p.name] = p
	}
}

// isFlattened reports whether f is an embedded struct whose fields are
// promoted into the parent mapping. The embedded type itself may be
// unexported; only its exported fields become properties.
func isFlattened(f reflect.StructField) bool {
	return f.Anonymous && f.Type.Kind() == reflect.Struct
}

// structType normalizes a value or type to the underlying struct type.
func structType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
