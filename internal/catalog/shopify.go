// Package catalog fills and serves the product catalog. Products originate
// from a single paginated Shopify fetch and are cached wholesale in the
// store; the catalog is never partially mutated.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tryon-storefront/internal/domain"
)

const shopifyAPIVersion = "2024-01"

// shopifyProduct mirrors the subset of the Shopify Admin API product payload
// the catalog consumes.
type shopifyProduct struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	BodyHTML    string           `json:"body_html"`
	ProductType string           `json:"product_type"`
	Vendor      string           `json:"vendor"`
	Tags        string           `json:"tags"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Image       *shopifyImage    `json:"image"`
	Images      []shopifyImage   `json:"images"`
	Variants    *json.RawMessage `json:"variants"`
}

type shopifyImage struct {
	Src string `json:"src"`
}

type shopifyVariant struct {
	Price string `json:"price"`
	SKU   string `json:"sku"`
}

// ShopifyClient fetches products from the Shopify Admin API.
type ShopifyClient struct {
	storeURL    string
	accessToken string
	httpClient  *http.Client
}

// NewShopifyClient creates a client for the given store. timeout bounds the
// whole fetch; catalog reads are short-lived.
func NewShopifyClient(storeURL, accessToken string, timeout time.Duration) *ShopifyClient {
	return &ShopifyClient{
		storeURL:    storeURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// FetchProducts pulls up to 250 products and maps them to catalog entries.
// The primary key is the Shopify numeric id rendered as a string; the string
// mirror alias carries the same value and the numeric alias the raw number,
// so all three alias schemes resolve to the same record.
func (c *ShopifyClient) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	if c.storeURL == "" || c.accessToken == "" {
		return nil, fmt.Errorf("catalog: missing Shopify store URL or access token")
	}

	cleanURL := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(c.storeURL, "https://"), "http://"), "/")
	url := fmt.Sprintf("https://%s/admin/api/%s/products.json?limit=250", cleanURL, shopifyAPIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to build Shopify request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: Shopify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog: Shopify responded with status %d", resp.StatusCode)
	}

	var payload struct {
		Products []shopifyProduct `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("catalog: failed to decode Shopify response: %w", err)
	}

	products := make([]domain.Product, 0, len(payload.Products))
	for _, sp := range payload.Products {
		products = append(products, mapShopifyProduct(sp))
	}
	return products, nil
}

func mapShopifyProduct(sp shopifyProduct) domain.Product {
	idStr := strconv.FormatInt(sp.ID, 10)

	description := sp.BodyHTML
	if description == "" {
		description = "No description"
	}

	category := sp.ProductType
	if category == "" {
		category = "Uncategorized"
	}

	var price float64
	var sku string
	if sp.Variants != nil {
		var variants []shopifyVariant
		if err := json.Unmarshal(*sp.Variants, &variants); err == nil && len(variants) > 0 {
			if parsed, err := strconv.ParseFloat(variants[0].Price, 64); err == nil {
				price = parsed
			}
			sku = variants[0].SKU
		}
	}

	image := "/placeholder.svg"
	if sp.Image != nil && sp.Image.Src != "" {
		image = sp.Image.Src
	} else if len(sp.Images) > 0 && sp.Images[0].Src != "" {
		image = sp.Images[0].Src
	}

	images := make([]string, 0, len(sp.Images))
	for _, img := range sp.Images {
		images = append(images, img.Src)
	}
	if len(images) == 0 {
		images = []string{image}
	}

	var tags []string
	if sp.Tags != "" {
		for _, t := range strings.Split(sp.Tags, ",") {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
	}

	return domain.Product{
		ID:          idStr,
		AliasID:     idStr,
		ShopifyID:   sp.ID,
		Name:        sp.Title,
		Description: description,
		Price:       price,
		Image:       image,
		Images:      images,
		SKU:         sku,
		Category:    category,
		Vendor:      sp.Vendor,
		Tags:        tags,
		Variants:    sp.Variants,
		CreatedAt:   sp.CreatedAt,
		UpdatedAt:   sp.UpdatedAt,
	}
}
