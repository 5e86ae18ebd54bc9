package mapping

import (
	"fmt"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Read returns the storage value of col on instance, which may be a value or
// a pointer of the mapped type. Nil fields read as NULL.
func (m *ResolvedMapping) Read(instance any, col BoundColumn) (types.AttributeValue, error) {
	v, err := m.structValue(instance, false)
	if err != nil {
		return nil, err
	}
	bound, err := m.bound(col)
	if err != nil {
		return nil, err
	}
	return encodeColumn(bound, bound.prop.get(v))
}

// Write stores raw into col on instance, which must be a non-nil pointer of the
// mapped type. A nil or NULL raw value writes the zero value of nullable
// fields and fails with *TypeConversionError for the others. On error the
// field is left unchanged.
func (m *ResolvedMapping) Write(instance any, col BoundColumn, raw types.AttributeValue) error {
	v, err := m.structValue(instance, true)
	if err != nil {
		return err
	}
	bound, err := m.bound(col)
	if err != nil {
		return err
	}
	decoded, err := decodeColumn(bound.Property, raw, bound.GoType)
	if err != nil {
		return err
	}
	bound.prop.set(v, decoded)
	return nil
}

// Marshal converts instance to a full item containing every bound column.
func (m *ResolvedMapping) Marshal(instance any) (Item, error) {
	v, err := m.structValue(instance, false)
	if err != nil {
		return nil, err
	}
	item := make(Item, len(m.columns))
	for i := range m.columns {
		col := &m.columns[i]
		av, err := encodeColumn(col, col.prop.get(v))
		if err != nil {
			return nil, err
		}
		item[col.Name] = av
	}
	return item, nil
}

// Unmarshal copies item into the struct pointed to by out. Columns absent from
// the item keep their current value; attributes without a bound column are
// skipped. Nothing is written unless every present column converts.
func (m *ResolvedMapping) Unmarshal(item Item, out any) error {
	v, err := m.structValue(out, true)
	if err != nil {
		return err
	}

	type pending struct {
		col   *BoundColumn
		value reflect.Value
	}
	var decoded []pending
	for i := range m.columns {
		col := &m.columns[i]
		raw, ok := item[col.Name]
		if !ok {
			continue
		}
		value, err := decodeColumn(col.Property, raw, col.GoType)
		if err != nil {
			return err
		}
		decoded = append(decoded, pending{col: col, value: value})
	}
	for _, p := range decoded {
		p.col.prop.set(v, p.value)
	}
	return nil
}

// structValue unwraps instance to the mapped struct value. Writable access
// requires a non-nil pointer.
func (m *ResolvedMapping) structValue(instance any, writable bool) (reflect.Value, error) {
	v := reflect.ValueOf(instance)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: nil %s", ErrInstanceType, v.Type())
		}
		v = v.Elem()
	} else if writable {
		return reflect.Value{}, fmt.Errorf("%w: need *%s, got %T", ErrInstanceType, m.typ, instance)
	}
	if !v.IsValid() || v.Type() != m.typ {
		return reflect.Value{}, fmt.Errorf("%w: need %s, got %T", ErrInstanceType, m.typ, instance)
	}
	return v, nil
}

// bound returns this mapping's copy of col, so columns from another mapping
// cannot be applied to the wrong struct.
func (m *ResolvedMapping) bound(col BoundColumn) (*BoundColumn, error) {
	i, ok := m.byName[col.Name]
	if !ok || m.columns[i].Property != col.Property {
		return nil, fmt.Errorf("%w: column %q is not bound in %s", ErrInstanceType, col.Name, m.typ)
	}
	return &m.columns[i], nil
}
