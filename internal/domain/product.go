package domain

import (
	"encoding/json"
	"time"
)

// Product is a canonical catalog entry, created wholesale by a catalog sync
// and read-only everywhere else.
//
// Identity is aliased three ways: ID is the stable primary key, AliasID is a
// string mirror of it, and ShopifyID is the external numeric id. Depending on
// the sync source the three can diverge in representation (string vs number),
// so lookups must accept any of them interchangeably; see internal/resolver.
type Product struct {
	ID          string           `json:"_id"`
	AliasID     string           `json:"id"`
	ShopifyID   int64            `json:"shopifyId"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       float64          `json:"price"` // non-negative, currency-agnostic unit
	Image       string           `json:"image"`
	Images      []string         `json:"images"`
	SKU         string           `json:"sku"`
	Category    string           `json:"category"`
	Vendor      string           `json:"vendor"`
	Tags        []string         `json:"tags"`
	Variants    *json.RawMessage `json:"variants,omitempty"` // opaque variant blob, never interpreted here
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	SavedAt     time.Time        `json:"savedAt"`
}
