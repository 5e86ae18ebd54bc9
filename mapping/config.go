package mapping

import "log/slog"

// DefaultTagKey is the struct tag read by the scanner.
const DefaultTagKey = "lattice"

// Config holds configuration for a Registry.
type Config struct {
	// TagKey is the struct tag key carrying declarative column markers.
	// Default: "lattice"
	TagKey string

	// TableNaming derives the default table name from the type's simple name.
	// Explicit table names (builder, tag file or Tabler) are never rewritten.
	// Default: NamingIdentity
	TableNaming Naming

	// ColumnNaming derives the default column name from the field name.
	// Default: NamingIdentity
	ColumnNaming Naming

	// Logger receives resolution events. Default: slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns the convention-only configuration: table names equal
// type names and column names equal field names.
func DefaultConfig() Config {
	return Config{
		TagKey:       DefaultTagKey,
		TableNaming:  NamingIdentity,
		ColumnNaming: NamingIdentity,
	}
}

// validate fills unset values with defaults.
func (c *Config) validate() {
	if c.TagKey == "" {
		c.TagKey = DefaultTagKey
	}
	if !c.TableNaming.valid() {
		c.TableNaming = NamingIdentity
	}
	if !c.ColumnNaming.valid() {
		c.ColumnNaming = NamingIdentity
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
