package store

import (
	"context"

	"tryon-storefront/internal/domain"
)

// ProductStorer defines the catalog read/replace operations.
// The catalog is created wholesale by sync and never partially mutated.
type ProductStorer interface {
	ListProducts(ctx context.Context, limit int) ([]domain.Product, error)
	ReplaceProducts(ctx context.Context, products []domain.Product) (int, error)
	ListByCategory(ctx context.Context, category, excludeID string, limit int) ([]domain.Product, error)
	CountProducts(ctx context.Context) (int, error)
	AverageProductPrice(ctx context.Context) (float64, error)
}

// ProductResolver resolves a loosely-typed identifier against all three alias
// fields with equal priority. A miss is the sentinel ErrProductNotFound, never
// a wrapped store failure; the batch form silently drops missing identifiers.
// internal/resolver.Index satisfies the same contract in memory.
type ProductResolver interface {
	ResolveProduct(ctx context.Context, ident string) (*domain.Product, error)
	ResolveProducts(ctx context.Context, idents []string) ([]domain.Product, error)
}

// AdminStorer defines the admin-account operations.
type AdminStorer interface {
	GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error)
	CreateAdmin(ctx context.Context, admin *domain.Admin) (*domain.Admin, error)
}

// AnalyticsStorer reads the stored dashboard overview row, if any.
type AnalyticsStorer interface {
	GetAnalytics(ctx context.Context) (*domain.Analytics, error)
}
