package mapping

import (
	"encoding"
	"reflect"
	"strings"
)

// BoundColumn is one mapped, non-ignored property.
type BoundColumn struct {
	// Property is the Go field name.
	Property string

	// Name is the effective column name.
	Name string

	// StorageType is the effective storage kind: the explicit override when
	// set, else the kind implied by GoType. StorageDynamic for interface fields.
	StorageType StorageType

	// Override is the explicit storage type, or StorageDynamic when none was set.
	Override StorageType

	// GoType is the declared field type.
	GoType reflect.Type

	// Nullable reports whether the field can hold a null value.
	Nullable bool

	prop *property
}

// ResolvedMapping is the immutable, merged mapping of one struct type.
type ResolvedMapping struct {
	typ        reflect.Type
	table      string
	columns    []BoundColumn
	byName     map[string]int
	byProperty map[string]int
	partition  []string
	clustering []string
}

// Type returns the mapped struct type.
func (m *ResolvedMapping) Type() reflect.Type {
	return m.typ
}

// Table returns the effective table name.
func (m *ResolvedMapping) Table() string {
	return m.table
}

// Columns returns the bound columns in declared-property order.
func (m *ResolvedMapping) Columns() []BoundColumn {
	return append([]BoundColumn(nil), m.columns...)
}

// ColumnNames returns the column names in declared-property order.
func (m *ResolvedMapping) ColumnNames() []string {
	names := make([]string, len(m.columns))
	for i, c := range m.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a bound column by column name.
func (m *ResolvedMapping) Column(name string) (BoundColumn, bool) {
	i, ok := m.byName[name]
	if !ok {
		return BoundColumn{}, false
	}
	return m.columns[i], true
}

// ColumnFor looks up a bound column by Go field name.
func (m *ResolvedMapping) ColumnFor(property string) (BoundColumn, bool) {
	i, ok := m.byProperty[property]
	if !ok {
		return BoundColumn{}, false
	}
	return m.columns[i], true
}

// resolve merges d over convention defaults and validates the result.
// The same merge serves fluent and scanned definitions.
func resolve(d *Definition, cfg Config) (*ResolvedMapping, error) {
	if err := d.Err(); err != nil {
		return nil, err
	}
	table, err := accessorsFor(d.typ)
	if err != nil {
		return nil, err
	}
	typeName := d.typ.String()

	m := &ResolvedMapping{
		typ:        d.typ,
		byName:     make(map[string]int),
		byProperty: make(map[string]int),
	}

	switch {
	case d.table != nil && *d.table != "":
		m.table = *d.table
	case d.typ.Name() != "":
		m.table = cfg.TableNaming.Apply(simpleName(d.typ))
	default:
		return nil, &ConfigurationError{Type: typeName, Reason: "anonymous struct needs an explicit table name"}
	}

	partition := dedupe(d.partition)
	clustering := dedupe(d.clustering)
	keyRole := make(map[string]string, len(partition)+len(clustering))
	for _, p := range partition {
		keyRole[p] = "partition"
	}
	for _, p := range clustering {
		if keyRole[p] != "" {
			return nil, &ConfigurationError{Type: typeName, Property: p, Reason: "declared as both partition and clustering key"}
		}
		keyRole[p] = "clustering"
	}

	for _, p := range table.props {
		o := ColumnOverride{}
		if declared, ok := d.columns[p.name]; ok {
			o = *declared
		} else if d.explicitColumns && keyRole[p.name] == "" {
			continue
		}

		if o.ignored() {
			if role := keyRole[p.name]; role != "" {
				return nil, &ConfigurationError{Type: typeName, Property: p.name, Reason: role + " key property is ignored"}
			}
			continue
		}

		col := BoundColumn{
			Property: p.name,
			Name:     cfg.ColumnNaming.Apply(p.name),
			GoType:   p.typ,
			Nullable: isNullable(p.typ),
			prop:     p,
		}
		if o.Name != nil {
			if *o.Name == "" {
				return nil, &ConfigurationError{Type: typeName, Property: p.name, Reason: "empty column name"}
			}
			col.Name = *o.Name
		}
		natural, supported := naturalStorageType(p.typ)
		if o.StorageType != nil {
			col.Override = *o.StorageType
			col.StorageType = *o.StorageType
		} else if !supported {
			return nil, &ConfigurationError{Type: typeName, Property: p.name, Reason: "unsupported field type " + p.typ.String()}
		} else {
			col.StorageType = natural
		}

		if prev, dup := m.byName[col.Name]; dup {
			return nil, &ConfigurationError{
				Type:     typeName,
				Property: p.name,
				Reason:   "column name " + col.Name + " already used by " + m.columns[prev].Property,
			}
		}
		m.byName[col.Name] = len(m.columns)
		m.byProperty[col.Property] = len(m.columns)
		m.columns = append(m.columns, col)
	}

	if m.partition, err = keyColumns(m, partition, typeName); err != nil {
		return nil, err
	}
	if m.clustering, err = keyColumns(m, clustering, typeName); err != nil {
		return nil, err
	}
	return m, nil
}

func keyColumns(m *ResolvedMapping, props []string, typeName string) ([]string, error) {
	names := make([]string, 0, len(props))
	for _, p := range props {
		i, ok := m.byProperty[p]
		if !ok {
			return nil, &ConfigurationError{Type: typeName, Property: p, Reason: "key property is not mapped"}
		}
		names = append(names, m.columns[i].Name)
	}
	return names, nil
}

// dedupe drops repeated entries, keeping the first occurrence.
func dedupe(props []string) []string {
	seen := make(map[string]bool, len(props))
	out := make([]string, 0, len(props))
	for _, p := range props {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// simpleName returns t's name without type arguments: Page[int] is Page.
func simpleName(t reflect.Type) string {
	name, _, _ := strings.Cut(t.Name(), "[")
	return name
}

var textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()

// isBytes reports whether t is a byte slice or a fixed-size byte array.
func isBytes(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() == reflect.Uint8
	}
	return false
}

// naturalStorageType returns the storage kind implied by a Go type.
func naturalStorageType(t reflect.Type) (StorageType, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType) {
		return StorageString, true
	}
	if isBytes(t) {
		return StorageBinary, true
	}

	switch t.Kind() {
	case reflect.String:
		return StorageString, true
	case reflect.Bool:
		return StorageBool, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return StorageNumber, true
	case reflect.Slice, reflect.Array:
		return StorageList, true
	case reflect.Map, reflect.Struct:
		return StorageMap, true
	case reflect.Interface:
		return StorageDynamic, true
	}
	return StorageDynamic, false
}

func isNullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}
