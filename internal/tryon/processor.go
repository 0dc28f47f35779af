// Package tryon relays uploaded shopper images to the external
// image-processing service and attaches same-category recommendations to the
// result. The processing itself is opaque to this service.
package tryon

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"syscall"
	"time"

	"tryon-storefront/internal/domain"
	"tryon-storefront/internal/store"
)

// ErrServiceUnavailable signals that the image service refused the
// connection; routes surface it as 503 with an explicit message, distinct
// from a service that answered with an error status.
var ErrServiceUnavailable = errors.New("tryon: AI service unavailable")

// UpstreamError carries an error response from the image service so routes
// can pass the upstream status through.
type UpstreamError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("tryon: image service responded with status %d", e.StatusCode)
}

// Result is the relay response plus recommendations.
type Result struct {
	ProcessedImage   string           `json:"processed_image"`
	Recommendations  []domain.Product `json:"recommendations"`
	ProductOverlayed bool             `json:"product_overlayed"`
	Status           string           `json:"status"`
}

// Processor forwards try-on requests. The timeout is long (minutes, not
// seconds); once a request is in flight there is no cancellation and no
// automatic retry.
type Processor struct {
	serviceURL string
	httpClient *http.Client
	resolve    store.ProductResolver
	products   store.ProductStorer
}

func NewProcessor(serviceURL string, timeout time.Duration, resolve store.ProductResolver, products store.ProductStorer) *Processor {
	return &Processor{
		serviceURL: serviceURL,
		httpClient: &http.Client{Timeout: timeout},
		resolve:    resolve,
		products:   products,
	}
}

type processRequest struct {
	Image           string  `json:"image"`
	ProductID       string  `json:"product_id"`
	ProductImageURL *string `json:"product_image_url"`
}

type processResponse struct {
	ProcessedImage   string `json:"processed_image"`
	ProductOverlayed bool   `json:"product_overlayed"`
	Status           string `json:"status"`
}

// Process base64-encodes the image, resolves the product for its overlay
// reference and forwards everything to the image service. A resolver miss is
// tolerated: the relay proceeds without an overlay reference and without
// recommendations.
func (p *Processor) Process(ctx context.Context, image []byte, productID string) (*Result, error) {
	encoded := base64.StdEncoding.EncodeToString(image)

	var product *domain.Product
	resolved, err := p.resolve.ResolveProduct(ctx, productID)
	switch {
	case err == nil:
		product = resolved
	case errors.Is(err, store.ErrProductNotFound):
		log.Printf("WARN: Try-on product %s not found, relaying without overlay reference", productID)
	default:
		log.Printf("WARN: Try-on product lookup failed: %v", err)
	}

	reqPayload := processRequest{Image: encoded, ProductID: productID}
	if product != nil && product.Image != "" {
		reqPayload.ProductImageURL = &product.Image
	}
	body, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("tryon: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL+"/process-try-on", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tryon: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, ErrServiceUnavailable
		}
		return nil, fmt.Errorf("tryon: image service request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tryon: failed to read image service response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: respBody}
	}

	var parsed processResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("tryon: failed to decode image service response: %w", err)
	}

	result := &Result{
		ProcessedImage:   parsed.ProcessedImage,
		Recommendations:  []domain.Product{},
		ProductOverlayed: parsed.ProductOverlayed,
		Status:           parsed.Status,
	}

	if product != nil {
		recs, err := p.products.ListByCategory(ctx, product.Category, product.ID, 5)
		if err != nil {
			log.Printf("WARN: Recommendations query failed: %v", err)
		} else {
			result.Recommendations = recs
		}
	}
	return result, nil
}
