// Package mapping resolves how Go structs map to DynamoDB items and converts
// between the two.
//
// A mapping is declared either with the fluent [Map] builder or with struct
// tags, merged facet by facet over naming conventions, and published once per
// type by a [Registry]. The resolved mapping is immutable and shared by every
// caller.
//
// # Conventions
//
// Without any configuration a struct maps to a table named after the type and
// every exported field maps to a column named after the field:
//
//	type User struct {
//	    ID            int
//	    FavoriteColor string
//	    HairColor     *int
//	}
//	// table "User", columns ID (N), FavoriteColor (S), HairColor (N, nullable)
//
// # Fluent Definitions
//
// A fluent definition is authoritative for every facet it sets. Facets it
// leaves alone keep their convention default:
//
//	reg := mapping.NewRegistry(mapping.DefaultConfig())
//	err := reg.Define(mapping.NewMap[User]().
//	    TableName("users").
//	    PartitionKey("ID").
//	    Column("ID", func(c *mapping.ColumnMap) { c.WithName("userid") }))
//
// # Struct Tags
//
// Types without a fluent definition are scanned for tags. See [Scan] for the
// grammar:
//
//	type Event struct {
//	    Stream  string `lattice:"stream_id,partition"`
//	    Seq     int64  `lattice:"seq,clustering"`
//	    Payload []byte `lattice:",type=B"`
//	    Cache   string `lattice:"-"`
//	}
//
// # Keys
//
// Partition and clustering keys are kept apart and always in declaration
// order. See [KeysOf] and [KeyOf].
//
// # Errors
//
//   - [ConfigurationError] - conflicting or unknown configuration, reported by
//     Define or Resolve
//   - [TypeConversionError] - a value that cannot be stored or loaded
//   - [MissingKeyError] - a key-based operation on a mapping without keys
package mapping
