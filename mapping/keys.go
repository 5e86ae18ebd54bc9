package mapping

import "fmt"

// Keys lists a mapping's key columns in declaration order.
type Keys struct {
	// Partition holds the partition (hash) key columns.
	Partition []string

	// Clustering holds the clustering (sort) key columns.
	Clustering []string
}

// All returns partition columns followed by clustering columns.
func (k Keys) All() []string {
	all := make([]string, 0, len(k.Partition)+len(k.Clustering))
	all = append(all, k.Partition...)
	return append(all, k.Clustering...)
}

// Empty reports whether no key columns were declared.
func (k Keys) Empty() bool {
	return len(k.Partition) == 0 && len(k.Clustering) == 0
}

// KeysOf returns the key columns of m. The order is the order the keys were
// declared in, never sorted.
func KeysOf(m *ResolvedMapping) Keys {
	return Keys{
		Partition:  append([]string(nil), m.partition...),
		Clustering: append([]string(nil), m.clustering...),
	}
}

// PartitionKey returns the partition key column names.
func (m *ResolvedMapping) PartitionKey() []string {
	return append([]string(nil), m.partition...)
}

// ClusteringKey returns the clustering key column names.
func (m *ResolvedMapping) ClusteringKey() []string {
	return append([]string(nil), m.clustering...)
}

// IsKey reports whether column is part of the partition or clustering key.
func (m *ResolvedMapping) IsKey(column string) bool {
	for _, k := range m.partition {
		if k == column {
			return true
		}
	}
	for _, k := range m.clustering {
		if k == column {
			return true
		}
	}
	return false
}

// RequireKey returns a *MissingKeyError naming operation when m has no
// partition key.
func (m *ResolvedMapping) RequireKey(operation string) error {
	if len(m.partition) == 0 {
		return &MissingKeyError{Type: m.typ.String(), Operation: operation}
	}
	return nil
}

// KeyOf returns the key attributes of instance. Key attributes may not be
// NULL.
func KeyOf(m *ResolvedMapping, instance any) (PK, error) {
	if err := m.RequireKey("KeyOf"); err != nil {
		return nil, err
	}
	pk := make(PK, len(m.partition)+len(m.clustering))
	for _, name := range KeysOf(m).All() {
		col, _ := m.Column(name)
		av, err := m.Read(instance, col)
		if err != nil {
			return nil, err
		}
		if isNull(av) {
			return nil, &TypeConversionError{Property: col.Property, Value: nil, Target: "key " + col.StorageType.String(), Err: fmt.Errorf("key attribute %s is null", name)}
		}
		pk[name] = av
	}
	return pk, nil
}
