// Package analytics derives dashboard metrics from the product set when no
// richer event history exists.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"tryon-storefront/internal/domain"
	"tryon-storefront/internal/store"
)

// MetricsSource supplies per-product engagement counters. No real event
// tracking exists yet, so production wiring injects SyntheticSource; a
// counter-fed implementation can replace it without touching the aggregator.
type MetricsSource interface {
	TopProductMetrics() (tryOns, purchases int)
	ProductMetrics() (views, tryOns, purchases int, conversionRate float64)
}

// SyntheticSource generates placeholder counters. Deterministic for a fixed
// seed, which is what tests rely on.
type SyntheticSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSyntheticSource(seed int64) *SyntheticSource {
	return &SyntheticSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *SyntheticSource) TopProductMetrics() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(100), s.rng.Intn(30)
}

func (s *SyntheticSource) ProductMetrics() (int, int, int, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := s.rng.Intn(500)
	tryOns := s.rng.Intn(200)
	purchases := s.rng.Intn(50)
	conversion := float64(s.rng.Intn(100)) / 100
	return views, tryOns, purchases, conversion
}

// Defaults applied to overview fields the store left at zero. An explicit
// table, not generated values.
const (
	defaultTryOnSuccessRate   = 92.5
	defaultAvgImagesGenerated = 3.2
	defaultAvgRating          = 4.7
)

var defaultSalesTrend = []int{12, 19, 15, 25, 28, 35, 42}

// Aggregator computes the dashboard payloads.
type Aggregator struct {
	products store.ProductStorer
	stored   store.AnalyticsStorer
	metrics  MetricsSource
}

func NewAggregator(products store.ProductStorer, stored store.AnalyticsStorer, metrics MetricsSource) *Aggregator {
	return &Aggregator{products: products, stored: stored, metrics: metrics}
}

// Overview returns the stored analytics row topped up with computed product
// totals and the default table. A missing stored row is a zero row, not an
// error. Totals come from dedicated aggregate queries; the listed page only
// feeds the top-products table, so catalogs larger than one page report their
// real size.
func (a *Aggregator) Overview(ctx context.Context) (*domain.Analytics, error) {
	products, err := a.products.ListProducts(ctx, 50)
	if err != nil {
		return nil, fmt.Errorf("analytics: failed to list products: %w", err)
	}
	total, err := a.products.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: failed to count products: %w", err)
	}
	avgPrice, err := a.products.AverageProductPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics: failed to average product price: %w", err)
	}

	overview, err := a.stored.GetAnalytics(ctx)
	if errors.Is(err, store.ErrAnalyticsNotFound) {
		overview = &domain.Analytics{}
	} else if err != nil {
		return nil, fmt.Errorf("analytics: failed to load stored analytics: %w", err)
	}

	overview.TotalProducts = total
	overview.AvgProductPrice = avgPrice

	top := products
	if len(top) > 5 {
		top = top[:5]
	}
	overview.TopProducts = make([]domain.TopProduct, 0, len(top))
	for _, p := range top {
		tryOns, purchases := a.metrics.TopProductMetrics()
		overview.TopProducts = append(overview.TopProducts, domain.TopProduct{
			Name:      p.Name,
			Price:     p.Price,
			TryOns:    tryOns,
			Purchases: purchases,
			Revenue:   p.Price * float64(purchases),
		})
	}

	if overview.TryOnSuccessRate == 0 {
		overview.TryOnSuccessRate = defaultTryOnSuccessRate
	}
	if overview.AvgImagesGenerated == 0 {
		overview.AvgImagesGenerated = defaultAvgImagesGenerated
	}
	if overview.AvgRating == 0 {
		overview.AvgRating = defaultAvgRating
	}
	if len(overview.SalesTrend) == 0 {
		overview.SalesTrend = append([]int(nil), defaultSalesTrend...)
	}
	if overview.MostViewedProduct == "" {
		overview.MostViewedProduct = firstProductName(products)
	}
	if overview.BestPerformer == "" {
		overview.BestPerformer = firstProductName(products)
	}
	overview.UpdatedAt = time.Now().UTC()

	return overview, nil
}

// PerProduct returns one analytics row per product, at most 20, in the
// dashboard table shape.
func (a *Aggregator) PerProduct(ctx context.Context) ([]domain.ProductAnalytics, error) {
	products, err := a.products.ListProducts(ctx, 20)
	if err != nil {
		return nil, fmt.Errorf("analytics: failed to list products: %w", err)
	}

	rows := make([]domain.ProductAnalytics, 0, len(products))
	for _, p := range products {
		views, tryOns, purchases, conversion := a.metrics.ProductMetrics()
		rows = append(rows, domain.ProductAnalytics{
			ID:             p.AliasID,
			Name:           p.Name,
			Price:          p.Price,
			Views:          views,
			TryOns:         tryOns,
			Purchases:      purchases,
			Revenue:        p.Price * float64(purchases),
			ConversionRate: conversion,
		})
	}
	return rows, nil
}

func firstProductName(products []domain.Product) string {
	if len(products) == 0 {
		return "N/A"
	}
	return products[0].Name
}
