package mapping

import (
	"fmt"
	"reflect"
)

// ColumnOverride holds the per-property facets a definition may set.
// A nil facet is unset and falls back to the convention default; facets merge
// independently, so setting one never resets another.
type ColumnOverride struct {
	Name        *string
	StorageType *StorageType
	Ignore      *bool
}

// merge copies every facet set on o into c. Later writes win per facet.
func (c *ColumnOverride) merge(o ColumnOverride) {
	if o.Name != nil {
		c.Name = o.Name
	}
	if o.StorageType != nil {
		c.StorageType = o.StorageType
	}
	if o.Ignore != nil {
		c.Ignore = o.Ignore
	}
}

func (c ColumnOverride) ignored() bool {
	return c.Ignore != nil && *c.Ignore
}

// Definition is the mutable mapping configuration of one struct type.
// It is produced by the fluent builder, the tag scanner or a YAML file, and is
// not safe for concurrent use.
type Definition struct {
	typ             reflect.Type
	table           *string
	partition       []string
	clustering      []string
	columns         map[string]*ColumnOverride
	order           []string // properties with overrides, first-seen order
	explicitColumns bool
	errs            []error
}

func newDefinition(t reflect.Type) *Definition {
	return &Definition{
		typ:     t,
		columns: make(map[string]*ColumnOverride),
	}
}

// Type returns the struct type the definition describes.
func (d *Definition) Type() reflect.Type {
	return d.typ
}

// Err returns the first configuration error recorded while building.
func (d *Definition) Err() error {
	if len(d.errs) == 0 {
		return nil
	}
	return d.errs[0]
}

// Definition returns d itself, so a *Definition can be passed to Registry.Define.
func (d *Definition) Definition() *Definition {
	return d
}

func (d *Definition) override(prop string) *ColumnOverride {
	c, ok := d.columns[prop]
	if !ok {
		c = &ColumnOverride{}
		d.columns[prop] = c
		d.order = append(d.order, prop)
	}
	return c
}

// checkProperty records a configuration error when prop is not a visible
// property of the definition's type.
func (d *Definition) checkProperty(prop string) bool {
	table, err := accessorsFor(d.typ)
	if err != nil {
		d.errs = append(d.errs, err)
		return false
	}
	if _, ok := table.lookup(prop); !ok {
		d.errs = append(d.errs, &ConfigurationError{
			Type:     d.typ.String(),
			Property: prop,
			Reason:   "no such exported field",
		})
		return false
	}
	return true
}

func (d *Definition) setTable(name string) {
	d.table = &name
}

func (d *Definition) addPartition(props ...string) {
	for _, p := range props {
		if d.checkProperty(p) {
			d.partition = append(d.partition, p)
		}
	}
}

func (d *Definition) addClustering(props ...string) {
	for _, p := range props {
		if d.checkProperty(p) {
			d.clustering = append(d.clustering, p)
		}
	}
}

func (d *Definition) setColumn(prop string, o ColumnOverride) {
	if d.checkProperty(prop) {
		d.override(prop).merge(o)
	}
}

// Map is the fluent mapping builder for struct type T.
//
//	users := mapping.NewMap[User]().
//	    TableName("users").
//	    PartitionKey("ID").
//	    Column("ID", func(c *mapping.ColumnMap) { c.WithName("userid") })
//
// Property arguments are Go field names, checked against T when the call is
// made. Unknown names are reported by Registry.Define.
type Map[T any] struct {
	def *Definition
}

// NewMap starts a definition for T. T must be a struct type.
func NewMap[T any]() *Map[T] {
	t := reflect.TypeFor[T]()
	d := newDefinition(t)
	if _, err := accessorsFor(t); err != nil {
		d.errs = append(d.errs, err)
	}
	return &Map[T]{def: d}
}

// TableName overrides the table name.
func (m *Map[T]) TableName(name string) *Map[T] {
	m.def.setTable(name)
	return m
}

// PartitionKey appends properties to the partition key, in call order.
func (m *Map[T]) PartitionKey(props ...string) *Map[T] {
	m.def.addPartition(props...)
	return m
}

// PrimaryKey is PartitionKey, for tables keyed by partition alone.
func (m *Map[T]) PrimaryKey(props ...string) *Map[T] {
	return m.PartitionKey(props...)
}

// ClusteringKey appends properties to the clustering (sort) key, in call order.
func (m *Map[T]) ClusteringKey(props ...string) *Map[T] {
	m.def.addClustering(props...)
	return m
}

// Column configures one property. Repeated calls for the same property merge
// facet by facet.
func (m *Map[T]) Column(prop string, configure func(*ColumnMap)) *Map[T] {
	cm := &ColumnMap{}
	if configure != nil {
		configure(cm)
	}
	m.def.setColumn(prop, cm.override)
	return m
}

// ExplicitColumns restricts the mapping to properties named by Column or a key.
func (m *Map[T]) ExplicitColumns() *Map[T] {
	m.def.explicitColumns = true
	return m
}

// Definition returns the accumulated definition.
func (m *Map[T]) Definition() *Definition {
	return m.def
}

// ColumnMap configures the facets of one column.
type ColumnMap struct {
	override ColumnOverride
}

// WithName overrides the column name.
func (c *ColumnMap) WithName(name string) *ColumnMap {
	c.override.Name = &name
	return c
}

// WithStorageType stores the column as st regardless of the field's Go type.
func (c *ColumnMap) WithStorageType(st StorageType) *ColumnMap {
	c.override.StorageType = &st
	return c
}

// Ignore excludes the property from the mapping.
func (c *ColumnMap) Ignore() *ColumnMap {
	ignore := true
	c.override.Ignore = &ignore
	return c
}

// Include sets the ignore facet back to false.
func (c *ColumnMap) Include() *ColumnMap {
	ignore := false
	c.override.Ignore = &ignore
	return c
}

// String describes the definition for logs.
func (d *Definition) String() string {
	return fmt.Sprintf("Definition(%s, %d columns, pk=%v, ck=%v)", d.typ, len(d.columns), d.partition, d.clustering)
}
