// Package resolver maps loosely-typed product identifiers onto canonical
// catalog records. A product is reachable through three aliasing schemes
// (primary key, string mirror, external numeric id) and every consumer must
// go through this package or the store's SQL equivalent; direct key lookups
// silently miss products whose aliases diverge in representation.
package resolver

import "strconv"

// Kind tags which alias field a lookup key targets.
type Kind int

const (
	KindPrimary Kind = iota
	KindStringAlias
	KindNumericAlias
)

func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "primary"
	case KindStringAlias:
		return "string_alias"
	case KindNumericAlias:
		return "numeric_alias"
	default:
		return "unknown"
	}
}

// Key is a tagged lookup key. All keys produced from one raw identifier are
// matched with equal priority, not as a sequential fallback chain.
type Key struct {
	Kind  Kind
	Value string
}

// ParseKeys expands a raw identifier into the keys it could match under.
// The numeric-alias key is only produced when the identifier parses as an
// integer.
func ParseKeys(raw string) []Key {
	keys := []Key{
		{Kind: KindPrimary, Value: raw},
		{Kind: KindStringAlias, Value: raw},
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		keys = append(keys, Key{Kind: KindNumericAlias, Value: raw})
	}
	return keys
}

// NumericValue returns the parsed numeric form of the identifier and whether
// it has one.
func NumericValue(raw string) (int64, bool) {
	n, err := strconv.ParseInt(raw, 10, 64)
	return n, err == nil
}
