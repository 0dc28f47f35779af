package catalog

import (
	"context"
	"errors"
	"log"

	"tryon-storefront/internal/domain"
	"tryon-storefront/internal/store"
)

// ErrEmptyCatalog signals that the upstream source returned no products, so a
// sync would wipe the catalog for nothing.
var ErrEmptyCatalog = errors.New("catalog: upstream source returned no products")

// Fetcher pulls the full product set from the external commerce platform.
type Fetcher interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
}

// Service serves catalog reads and the wholesale sync.
type Service struct {
	products store.ProductStorer
	resolve  store.ProductResolver
	fetcher  Fetcher
}

// NewService wires the catalog service. The resolver is usually the same
// PostgresStore as the product storer.
func NewService(products store.ProductStorer, resolve store.ProductResolver, fetcher Fetcher) *Service {
	return &Service{products: products, resolve: resolve, fetcher: fetcher}
}

// List returns up to 50 stored products. On an empty store it fetches from
// the upstream source, caches the result best-effort, and returns the fetched
// set even when caching fails.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListProducts(ctx, 50)
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		return products, nil
	}

	log.Println("INFO: No products in store, fetching from upstream catalog...")
	fetched, err := s.fetcher.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(fetched) > 0 {
		if _, err := s.products.ReplaceProducts(ctx, fetched); err != nil {
			log.Printf("WARN: Failed to cache fetched products: %v", err)
		}
	}
	return fetched, nil
}

// Sync replaces the whole catalog from the upstream source. Returns the
// stored products and their count; ErrEmptyCatalog when the source is empty.
func (s *Service) Sync(ctx context.Context) ([]domain.Product, int, error) {
	fetched, err := s.fetcher.FetchProducts(ctx)
	if err != nil {
		return nil, 0, err
	}
	if len(fetched) == 0 {
		return nil, 0, ErrEmptyCatalog
	}

	count, err := s.products.ReplaceProducts(ctx, fetched)
	if err != nil {
		return nil, 0, err
	}
	return fetched, count, nil
}

// Get resolves a single product by any alias.
func (s *Service) Get(ctx context.Context, ident string) (*domain.Product, error) {
	return s.resolve.ResolveProduct(ctx, ident)
}

// Batch resolves a set of identifiers, silently dropping misses.
func (s *Service) Batch(ctx context.Context, idents []string) ([]domain.Product, error) {
	return s.resolve.ResolveProducts(ctx, idents)
}
