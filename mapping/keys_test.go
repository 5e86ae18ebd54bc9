package mapping_test

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/lattice/mapping"
)

func readingMapping(t *testing.T) *mapping.ResolvedMapping {
	t.Helper()
	r := newRegistry()
	require.NoError(t, r.Define(mapping.NewMap[Reading]().
		PartitionKey("Sensor", "Day").
		ClusteringKey("Timestamp").
		Column("Sensor", func(c *mapping.ColumnMap) { c.WithName("sensor_id") })))
	m, err := mapping.Resolve[Reading](r)
	require.NoError(t, err)
	return m
}

func TestKeysOf(t *testing.T) {
	keys := mapping.KeysOf(readingMapping(t))

	assert.Equal(t, []string{"sensor_id", "Day"}, keys.Partition)
	assert.Equal(t, []string{"Timestamp"}, keys.Clustering)
	assert.Equal(t, []string{"sensor_id", "Day", "Timestamp"}, keys.All())
	assert.False(t, keys.Empty())
}

func TestKeysOf_ReturnsCopies(t *testing.T) {
	m := readingMapping(t)
	keys := mapping.KeysOf(m)
	keys.Partition[0] = "mutated"

	assert.Equal(t, []string{"sensor_id", "Day"}, m.PartitionKey())

	pk := m.PartitionKey()
	pk[1] = "mutated"
	assert.Equal(t, []string{"sensor_id", "Day"}, mapping.KeysOf(m).Partition)
}

func TestKeyOf(t *testing.T) {
	m := readingMapping(t)

	pk, err := mapping.KeyOf(m, &Reading{Sensor: "s-1", Day: "2024-03-01", Timestamp: 17, Value: 2.5})
	require.NoError(t, err)
	assert.Equal(t, mapping.PK{
		"sensor_id": &types.AttributeValueMemberS{Value: "s-1"},
		"Day":       &types.AttributeValueMemberS{Value: "2024-03-01"},
		"Timestamp": &types.AttributeValueMemberN{Value: "17"},
	}, pk)
}

func TestKeyOf_MissingKey(t *testing.T) {
	m, err := mapping.Resolve[User](newRegistry())
	require.NoError(t, err)

	_, err = mapping.KeyOf(m, User{ID: 1})
	require.Error(t, err)

	var missing *mapping.MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Type, "User")
	assert.ErrorIs(t, err, mapping.ErrMissingKey)
	assert.False(t, mapping.IsConfigurationError(err))
}

func TestKeyOf_ClusteringOnlyIsMissingKey(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.Define(mapping.NewMap[Reading]().ClusteringKey("Timestamp")))
	m, err := mapping.Resolve[Reading](r)
	require.NoError(t, err)

	assert.Equal(t, []string{"Timestamp"}, m.ClusteringKey())
	assert.True(t, mapping.IsMissingKeyError(m.RequireKey("Get")))
}

func TestKeyOf_NullKey(t *testing.T) {
	type Device struct {
		Serial *string
	}
	r := newRegistry()
	require.NoError(t, r.Define(mapping.NewMap[Device]().PartitionKey("Serial")))
	m, err := mapping.Resolve[Device](r)
	require.NoError(t, err)

	_, err = mapping.KeyOf(m, Device{})
	assert.True(t, mapping.IsTypeConversionError(err))

	serial := "abc"
	pk, err := mapping.KeyOf(m, Device{Serial: &serial})
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "abc"}, pk["Serial"])
}

func TestIsKey(t *testing.T) {
	m := readingMapping(t)
	assert.True(t, m.IsKey("sensor_id"))
	assert.True(t, m.IsKey("Timestamp"))
	assert.False(t, m.IsKey("Sensor"))
	assert.False(t, m.IsKey("Value"))
}
