package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryon-storefront/internal/domain"
)

func testCatalog() []domain.Product {
	return []domain.Product{
		{ID: "42", AliasID: "42", ShopifyID: 42, Name: "Denim Jacket", Price: 59.99},
		{ID: "7", AliasID: "7", ShopifyID: 7, Name: "Wool Scarf", Price: 19.50},
		{ID: "abc-1", AliasID: "abc-1", Name: "Imported Belt", Price: 12.00},
	}
}

func TestParseKeys(t *testing.T) {
	keys := ParseKeys("42")
	require.Len(t, keys, 3)
	assert.Equal(t, Key{Kind: KindPrimary, Value: "42"}, keys[0])
	assert.Equal(t, Key{Kind: KindStringAlias, Value: "42"}, keys[1])
	assert.Equal(t, Key{Kind: KindNumericAlias, Value: "42"}, keys[2])

	// Non-numeric identifiers never produce a numeric-alias key.
	keys = ParseKeys("abc-1")
	require.Len(t, keys, 2)
	for _, k := range keys {
		assert.NotEqual(t, KindNumericAlias, k.Kind)
	}
}

func TestIndex_ResolveByAnyAlias(t *testing.T) {
	idx := NewIndex(testCatalog())
	ctx := context.Background()

	// Primary key, string mirror and numeric alias all land on the same
	// product.
	for _, ident := range []string{"42", "42", "42"} {
		p, err := idx.ResolveProduct(ctx, ident)
		require.NoError(t, err)
		assert.Equal(t, "Denim Jacket", p.Name)
	}

	p, err := idx.ResolveProduct(ctx, "abc-1")
	require.NoError(t, err)
	assert.Equal(t, "Imported Belt", p.Name)
}

func TestIndex_ResolveNotFoundIsAValue(t *testing.T) {
	idx := NewIndex(testCatalog())

	p, err := idx.ResolveProduct(context.Background(), "999")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIndex_ResolveIdempotent(t *testing.T) {
	idx := NewIndex(testCatalog())
	ctx := context.Background()

	first, err := idx.ResolveProduct(ctx, "7")
	require.NoError(t, err)
	second, err := idx.ResolveProduct(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIndex_BatchSilentlyDropsMisses(t *testing.T) {
	idx := NewIndex(testCatalog())

	products, err := idx.ResolveProducts(context.Background(), []string{"7", "42", "999"})
	require.NoError(t, err)
	require.Len(t, products, 2)
}

func TestIndex_BatchDeduplicatesAliases(t *testing.T) {
	idx := NewIndex(testCatalog())

	// Two aliases of the same product count once.
	products, err := idx.ResolveProducts(context.Background(), []string{"42", "42"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Denim Jacket", products[0].Name)
}

func TestIndex_EmptyInput(t *testing.T) {
	idx := NewIndex(nil)

	products, err := idx.ResolveProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, products)

	_, err = idx.ResolveProduct(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNotFound)
}
