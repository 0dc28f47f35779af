package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"tryon-storefront/internal/analytics"
	"tryon-storefront/internal/auth"
	"tryon-storefront/internal/cart"
	"tryon-storefront/internal/catalog"
	"tryon-storefront/internal/domain"
	"tryon-storefront/internal/pricing"
	"tryon-storefront/internal/store"
	"tryon-storefront/internal/tryon"
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	catalog    *catalog.Service
	ledger     *cart.Ledger
	processor  *tryon.Processor
	auth       *auth.Service
	issuer     *auth.TokenIssuer
	aggregator *analytics.Aggregator
	validate   *validator.Validate

	maxUploadBytes int64
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(
	catalogSvc *catalog.Service,
	ledger *cart.Ledger,
	processor *tryon.Processor,
	authSvc *auth.Service,
	issuer *auth.TokenIssuer,
	aggregator *analytics.Aggregator,
	maxUploadBytes int64,
) *HTTPHandler {
	return &HTTPHandler{
		catalog:        catalogSvc,
		ledger:         ledger,
		processor:      processor,
		auth:           authSvc,
		issuer:         issuer,
		aggregator:     aggregator,
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses. Every route
// failure carries a message; Err and ID are filled where the contract names
// them (sync, single-product lookup).
type ErrorResponse struct {
	Message string `json:"message"`
	Err     string `json:"error,omitempty"`
	ID      string `json:"id,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Message: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
			http.Error(w, `{"message": "Internal server error during JSON encoding"}`, http.StatusInternalServerError)
		}
	}
}

// --- Product Handlers ---

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		log.Printf("ERROR: ListProducts failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	product, err := h.catalog.Get(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			// A resolver miss is an expected outcome, not a failure.
			respondWithJSON(w, http.StatusNotFound, ErrorResponse{Message: "Product not found", ID: productID})
			return
		}
		log.Printf("ERROR: GetProduct for ID %s failed: %v", productID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

// BatchInput defines the expected input for the batch product lookup.
type BatchInput struct {
	IDs []string `json:"ids" validate:"required"`
}

func (h *HTTPHandler) BatchProducts(w http.ResponseWriter, r *http.Request) {
	var input BatchInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	// Missing identifiers are silently dropped; the result may be smaller
	// than the input and callers tolerate that.
	products, err := h.catalog.Batch(r.Context(), input.IDs)
	if err != nil {
		log.Printf("ERROR: BatchProducts failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) SyncProducts(w http.ResponseWriter, r *http.Request) {
	log.Println("INFO: Starting catalog sync...")
	products, count, err := h.catalog.Sync(r.Context())
	if err != nil {
		if errors.Is(err, catalog.ErrEmptyCatalog) {
			respondWithJSON(w, http.StatusBadRequest, ErrorResponse{
				Message: "No products found from Shopify. Check your credentials.",
				Err:     "EMPTY_PRODUCTS",
			})
			return
		}
		log.Printf("ERROR: Catalog sync failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to sync products")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Products synced successfully",
		"count":    count,
		"products": products,
	})
}

// --- Virtual Try-On Handler ---

func (h *HTTPHandler) ProcessTryOn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "No image file provided")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}
	if !strings.HasPrefix(contentType, "image/") {
		respondWithError(w, http.StatusBadRequest, "File must be an image")
		return
	}

	productID := r.FormValue("product_id")
	log.Printf("INFO: Processing virtual try-on for product: %s", productID)

	result, err := h.processor.Process(r.Context(), image, productID)
	if err != nil {
		var upstream *tryon.UpstreamError
		switch {
		case errors.Is(err, tryon.ErrServiceUnavailable):
			respondWithJSON(w, http.StatusServiceUnavailable, ErrorResponse{
				Message: "AI service unavailable. Make sure the image service is running",
				Err:     err.Error(),
			})
		case errors.As(err, &upstream):
			log.Printf("ERROR: Image service error: status %d", upstream.StatusCode)
			var upstreamBody interface{} = upstream.Body
			if !json.Valid(upstream.Body) {
				upstreamBody = string(upstream.Body)
			}
			respondWithJSON(w, upstream.StatusCode, map[string]interface{}{
				"message": "Image service error",
				"error":   upstreamBody,
			})
		default:
			log.Printf("ERROR: Virtual try-on failed: %v", err)
			respondWithJSON(w, http.StatusInternalServerError, ErrorResponse{
				Message: "Failed to process image",
				Err:     err.Error(),
			})
		}
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// --- Cart Handlers ---

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items": h.ledger.Items(),
		"count": h.ledger.Count(),
	})
}

// CartCommitInput defines the expected input for committing a selection.
// Discount is optional; when absent the bundle tier for the selection size
// applies.
type CartCommitInput struct {
	IDs      []string `json:"ids" validate:"required,min=1"`
	Discount *int     `json:"discount" validate:"omitempty,gte=0,lte=100"`
}

func (h *HTTPHandler) CommitCart(w http.ResponseWriter, r *http.Request) {
	var input CartCommitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	selection := domain.NewSelection(input.IDs...)
	discount := pricing.DiscountFor(selection.Size())
	if input.Discount != nil {
		discount = *input.Discount
	}

	added, err := h.ledger.Commit(r.Context(), selection, discount)
	if err != nil {
		log.Printf("ERROR: Cart commit failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to add items to cart")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"added":    added,
		"discount": discount,
		"count":    h.ledger.Count(),
	})
}

// CartQuantityInput defines the expected input for a quantity update.
type CartQuantityInput struct {
	Quantity int `json:"quantity"`
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid line item index")
		return
	}

	var input CartQuantityInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.ledger.SetQuantity(index, input.Quantity); err != nil {
		if errors.Is(err, cart.ErrIndexOutOfRange) {
			respondWithError(w, http.StatusNotFound, "Line item not found")
			return
		}
		log.Printf("ERROR: Cart quantity update failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items": h.ledger.Items(),
		"count": h.ledger.Count(),
	})
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid line item index")
		return
	}

	if err := h.ledger.Remove(index); err != nil {
		if errors.Is(err, cart.ErrIndexOutOfRange) {
			respondWithError(w, http.StatusNotFound, "Line item not found")
			return
		}
		log.Printf("ERROR: Cart remove failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items": h.ledger.Items(),
		"count": h.ledger.Count(),
	})
}

func (h *HTTPHandler) GetCartTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.ledger.Totals(r.Context())
	if err != nil {
		log.Printf("ERROR: Cart totals failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to compute cart totals")
		return
	}
	respondWithJSON(w, http.StatusOK, totals)
}

// --- Admin Handlers ---

// LoginInput defines the expected input for admin login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *HTTPHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	token, err := h.auth.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Printf("ERROR: Admin login failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"token": token, "email": input.Email})
}

func (h *HTTPHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	overview, err := h.aggregator.Overview(r.Context())
	if err != nil {
		log.Printf("ERROR: Analytics overview failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to compute analytics")
		return
	}
	respondWithJSON(w, http.StatusOK, overview)
}

func (h *HTTPHandler) GetProductsAnalytics(w http.ResponseWriter, r *http.Request) {
	rows, err := h.aggregator.PerProduct(r.Context())
	if err != nil {
		log.Printf("ERROR: Product analytics failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to compute product analytics")
		return
	}
	if rows == nil {
		rows = []domain.ProductAnalytics{}
	}
	respondWithJSON(w, http.StatusOK, rows)
}

// --- Docs Handler ---

func (h *HTTPHandler) GetDocs(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "Virtual Try-On API",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"products": map[string]string{
				"GET /api/products":        "Get all products",
				"GET /api/products/{id}":   "Get single product",
				"POST /api/products/sync":  "Sync from Shopify",
				"POST /api/products/batch": "Get multiple products",
			},
			"virtualTryOn": map[string]string{
				"POST /api/virtual-tryon/process": "Process image with AI",
			},
			"cart": map[string]string{
				"GET /api/cart":                  "Get cart line items",
				"POST /api/cart/commit":          "Commit a selection to the cart",
				"PUT /api/cart/items/{index}":    "Update line item quantity",
				"DELETE /api/cart/items/{index}": "Remove line item",
				"GET /api/cart/totals":           "Get cart totals",
			},
			"admin": map[string]string{
				"POST /api/admin/login":             "Admin login",
				"GET /api/admin/analytics":          "Get analytics (requires auth)",
				"GET /api/admin/products-analytics": "Get product analytics (requires auth)",
			},
			"health": map[string]string{
				"GET /api/health": "Backend health check",
			},
		},
	})
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service. Paths under
// /api/products, /api/virtual-tryon and /api/admin are a compatibility
// contract and must not change.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/batch", h.BatchProducts)
		r.Post("/sync", h.SyncProducts)
		r.Get("/{id}", h.GetProduct)
	})

	r.Post("/api/virtual-tryon/process", h.ProcessTryOn)

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/commit", h.CommitCart)
		r.Get("/totals", h.GetCartTotals)
		r.Route("/items/{index}", func(r chi.Router) {
			r.Put("/", h.UpdateCartItem)
			r.Delete("/", h.RemoveCartItem)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", h.AdminLogin)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.issuer))
			r.Get("/analytics", h.GetAnalytics)
			r.Get("/products-analytics", h.GetProductsAnalytics)
		})
	})

	r.Get("/api/docs", h.GetDocs)
}
