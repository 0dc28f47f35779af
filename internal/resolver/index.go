package resolver

import (
	"context"
	"errors"
	"strconv"

	"tryon-storefront/internal/domain"
)

// ErrNotFound signals a resolver miss. It is a normal, expected outcome and
// callers branch on it; it never wraps a backing-store failure.
var ErrNotFound = errors.New("resolver: product not found")

// Index resolves identifiers against an in-memory map built from all three
// alias fields of a product set. It satisfies the same contract as the SQL
// resolver in internal/store and backs consumers that hold a product slice
// rather than a database handle.
type Index struct {
	byAlias  []map[string]int // one map per Kind, value is position in products
	products []domain.Product
}

// NewIndex builds an index over the given products. Later products do not
// displace earlier ones on alias collision; by the catalog invariant all
// aliases of a product resolve to the same primary key, so collisions across
// products do not occur in well-formed catalogs.
func NewIndex(products []domain.Product) *Index {
	idx := &Index{
		byAlias:  []map[string]int{{}, {}, {}},
		products: make([]domain.Product, len(products)),
	}
	copy(idx.products, products)
	for i, p := range idx.products {
		idx.register(KindPrimary, p.ID, i)
		idx.register(KindStringAlias, p.AliasID, i)
		if p.ShopifyID != 0 {
			idx.register(KindNumericAlias, strconv.FormatInt(p.ShopifyID, 10), i)
		}
	}
	return idx
}

func (idx *Index) register(kind Kind, value string, pos int) {
	if value == "" {
		return
	}
	m := idx.byAlias[kind]
	if _, taken := m[value]; !taken {
		m[value] = pos
	}
}

// ResolveProduct returns the product any of whose aliases matches the
// identifier, or ErrNotFound. The context parameter keeps the signature
// aligned with the store-backed resolver; it is not consulted.
func (idx *Index) ResolveProduct(_ context.Context, ident string) (*domain.Product, error) {
	for _, key := range ParseKeys(ident) {
		if pos, ok := idx.byAlias[key.Kind][key.Value]; ok {
			p := idx.products[pos]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// ResolveProducts returns the subset of products whose any alias is in the
// identifier set. Missing identifiers are silently dropped, never errored,
// and each product appears at most once regardless of how many aliases of it
// the input names.
func (idx *Index) ResolveProducts(_ context.Context, idents []string) ([]domain.Product, error) {
	seen := make(map[string]bool, len(idents))
	matched := make([]domain.Product, 0, len(idents))
	for _, ident := range idents {
		for _, key := range ParseKeys(ident) {
			pos, ok := idx.byAlias[key.Kind][key.Value]
			if !ok {
				continue
			}
			p := idx.products[pos]
			if !seen[p.ID] {
				seen[p.ID] = true
				matched = append(matched, p)
			}
			break
		}
	}
	return matched, nil
}
