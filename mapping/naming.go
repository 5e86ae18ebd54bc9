package mapping

import "github.com/go-openapi/inflect"

// Naming is a strategy for deriving convention names from Go identifiers.
type Naming int

const (
	// NamingIdentity keeps the Go identifier unchanged ("FavoriteColor").
	NamingIdentity Naming = iota
	// NamingSnakeCase lowercases with underscores ("favorite_color").
	NamingSnakeCase
	// NamingLowerCamel lowercases the first letter ("favoriteColor").
	NamingLowerCamel
	// NamingPluralSnake pluralizes then snake-cases ("user_accounts").
	NamingPluralSnake
)

// String returns the strategy name.
func (n Naming) String() string {
	switch n {
	case NamingIdentity:
		return "identity"
	case NamingSnakeCase:
		return "snake_case"
	case NamingLowerCamel:
		return "lower_camel"
	case NamingPluralSnake:
		return "plural_snake"
	default:
		return "unknown"
	}
}

// namingRules keeps common Go initialisms whole, so "UserID" becomes
// "user_id" rather than "user_i_d". Longer initialisms come first because
// acronyms are replaced in order.
var namingRules = func() *inflect.Ruleset {
	rs := inflect.NewDefaultRuleset()
	for _, acronym := range []string{"UUID", "HTTP", "JSON", "URL", "API", "TTL", "ID"} {
		rs.AddAcronym(acronym)
	}
	return rs
}()

// Apply converts a Go identifier using the strategy.
func (n Naming) Apply(ident string) string {
	if ident == "" {
		return ""
	}
	switch n {
	case NamingSnakeCase:
		return namingRules.Underscore(ident)
	case NamingLowerCamel:
		return namingRules.CamelizeDownFirst(namingRules.Underscore(ident))
	case NamingPluralSnake:
		return namingRules.Underscore(namingRules.Pluralize(ident))
	default:
		return ident
	}
}

func (n Naming) valid() bool {
	return n >= NamingIdentity && n <= NamingPluralSnake
}

