package mapping_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/lattice/mapping"
)

// --- Tagged Types ---

type Event struct {
	Seq     int64  `lattice:"seq,clustering"`
	Stream  string `lattice:"stream_id,partition"`
	Kind    string `lattice:"kind,partition=1"`
	Payload []byte `lattice:",type=B"`
	Count   int    `lattice:",type=s"`
	Cache   string `lattice:"-"`
	Temp    string `lattice:",ignore"`
	Plain   string
}

type Order struct {
	Region   string `lattice:",partition=2"`
	Customer string `lattice:",partition=1"`
	Placed   int64  `lattice:",clustering=1"`
	Line     int    `lattice:",clustering=0"`
}

func (Order) TableName() string { return "orders" }

type Malformed struct {
	ID    string `lattice:"id,partition=abc"`
	Size  int    `lattice:",type=INTEGER"`
	Flag  bool   `lattice:",bogus,ignore=perhaps"`
	Other string `lattice:",partition=-3"`
}

type IgnoredKey struct {
	ID string `lattice:"-"`
}

type CustomTag struct {
	ID   string `db:"pk,partition"`
	Name string `db:"display_name"`
}

// --- Scan ---

func TestScan_Tags(t *testing.T) {
	m, err := mapping.Resolve[Event](newRegistry())
	require.NoError(t, err)

	assert.Equal(t, "Event", m.Table())
	assert.Equal(t, []string{"seq", "stream_id", "kind", "Payload", "Count", "Plain"}, m.ColumnNames())
	assert.Equal(t, []string{"stream_id", "kind"}, m.PartitionKey())
	assert.Equal(t, []string{"seq"}, m.ClusteringKey())

	payload, _ := m.Column("Payload")
	assert.Equal(t, mapping.StorageBinary, payload.Override)
	count, _ := m.Column("Count")
	assert.Equal(t, mapping.StorageString, count.StorageType, "type names are case-insensitive")

	item, err := m.Marshal(Event{Stream: "s", Kind: "k", Seq: 3, Count: 9})
	require.NoError(t, err)
	assert.NotContains(t, item, "Cache")
	assert.NotContains(t, item, "Temp")
}

func TestScan_KeyPositions(t *testing.T) {
	m, err := mapping.Resolve[Order](newRegistry())
	require.NoError(t, err)

	assert.Equal(t, "orders", m.Table())
	assert.Equal(t, []string{"Customer", "Region"}, m.PartitionKey())
	assert.Equal(t, []string{"Line", "Placed"}, m.ClusteringKey())
}

func TestScan_TablerWithPointerType(t *testing.T) {
	d := mapping.Scan(reflect.TypeFor[*Order](), "")
	require.NoError(t, d.Err())
	assert.Equal(t, reflect.TypeFor[Order](), d.Type())
}

func TestScan_MalformedMarkersDegrade(t *testing.T) {
	m, err := mapping.Resolve[Malformed](newRegistry())
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "Other"}, m.PartitionKey(), "bad positions default to 0, field order breaks ties")

	size, _ := m.Column("Size")
	assert.Equal(t, mapping.StorageNumber, size.StorageType)
	assert.Equal(t, mapping.StorageDynamic, size.Override)

	_, ok := m.Column("Flag")
	assert.True(t, ok, "unparseable ignore value leaves the column mapped")
}

func TestScan_IgnoredKeyImpossible(t *testing.T) {
	m, err := mapping.Resolve[IgnoredKey](newRegistry())
	require.NoError(t, err)
	assert.Empty(t, m.Columns())
}

func TestScan_CustomTagKey(t *testing.T) {
	cfg := mapping.DefaultConfig()
	cfg.TagKey = "db"
	cfg.Logger = newRegistry().Config().Logger
	r := mapping.NewRegistry(cfg)

	m, err := mapping.Resolve[CustomTag](r)
	require.NoError(t, err)
	assert.Equal(t, []string{"pk", "display_name"}, m.ColumnNames())
	assert.Equal(t, []string{"pk"}, m.PartitionKey())
}

func TestScan_FluentDefinitionIgnoresTags(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.Define(mapping.NewMap[Event]().
		PartitionKey("Stream").
		Column("Seq", func(c *mapping.ColumnMap) { c.WithName("sequence") })))

	m, err := mapping.Resolve[Event](r)
	require.NoError(t, err)

	assert.Equal(t, []string{"Stream"}, m.PartitionKey())
	assert.Empty(t, m.ClusteringKey())
	assert.Contains(t, m.ColumnNames(), "sequence")
	assert.Contains(t, m.ColumnNames(), "Cache", "tag ignore markers do not apply to fluent definitions")
}

func TestScan_NeverFails(t *testing.T) {
	for _, typ := range []reflect.Type{
		reflect.TypeFor[Event](),
		reflect.TypeFor[Malformed](),
		reflect.TypeFor[IgnoredKey](),
		reflect.TypeFor[User](),
	} {
		assert.NoError(t, mapping.Scan(typ, mapping.DefaultTagKey).Err(), typ.String())
	}
}
