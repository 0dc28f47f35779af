package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tryon-storefront/internal/analytics"
	"tryon-storefront/internal/auth"
	"tryon-storefront/internal/cart"
	"tryon-storefront/internal/catalog"
	"tryon-storefront/internal/domain"
	"tryon-storefront/internal/store"
	"tryon-storefront/internal/tryon"
)

// MockStore is a mock implementation of the store interfaces the handler's
// services depend on.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, limit)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

func (m *MockStore) ReplaceProducts(ctx context.Context, products []domain.Product) (int, error) {
	args := m.Called(ctx, products)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) ListByCategory(ctx context.Context, category, excludeID string, limit int) ([]domain.Product, error) {
	args := m.Called(ctx, category, excludeID, limit)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

func (m *MockStore) CountProducts(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) AverageProductPrice(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockStore) ResolveProduct(ctx context.Context, ident string) (*domain.Product, error) {
	args := m.Called(ctx, ident)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockStore) ResolveProducts(ctx context.Context, idents []string) ([]domain.Product, error) {
	args := m.Called(ctx, idents)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

func (m *MockStore) GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Admin), args.Error(1)
}

func (m *MockStore) CreateAdmin(ctx context.Context, admin *domain.Admin) (*domain.Admin, error) {
	args := m.Called(ctx, admin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Admin), args.Error(1)
}

func (m *MockStore) GetAnalytics(ctx context.Context) (*domain.Analytics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Analytics), args.Error(1)
}

// MockFetcher is a mock implementation of catalog.Fetcher.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	var products []domain.Product
	if arg0 := args.Get(0); arg0 != nil {
		products = arg0.([]domain.Product)
	}
	return products, args.Error(1)
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T, mockStore *MockStore, fetcher *MockFetcher) *httptest.Server {
	t.Helper()

	catalogSvc := catalog.NewService(mockStore, mockStore, fetcher)
	ledger, err := cart.NewLedger(cart.NewMemoryStorage(), mockStore)
	require.NoError(t, err)
	processor := tryon.NewProcessor("http://localhost:1", time.Second, mockStore, mockStore)
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	authSvc := auth.NewService(mockStore, issuer)
	aggregator := analytics.NewAggregator(mockStore, mockStore, analytics.NewSyntheticSource(1))

	handler := NewHTTPHandler(catalogSvc, ledger, processor, authSvc, issuer, aggregator, 10<<20)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPHandler_GetProduct_NotFoundShape(t *testing.T) {
	mockStore := new(MockStore)
	server := setupTestChiServer(t, mockStore, new(MockFetcher))

	mockStore.On("ResolveProduct", mock.Anything, "999").
		Return(nil, store.ErrProductNotFound).Once()

	res, err := http.Get(server.URL + "/api/products/999")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusNotFound, res.StatusCode)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Equal(t, "Product not found", errResp.Message)
	assert.Equal(t, "999", errResp.ID)

	mockStore.AssertExpectations(t)
}

func TestHTTPHandler_GetProduct_Success(t *testing.T) {
	mockStore := new(MockStore)
	server := setupTestChiServer(t, mockStore, new(MockFetcher))

	product := &domain.Product{ID: "42", AliasID: "42", ShopifyID: 42, Name: "Denim Jacket", Price: 59.99}
	mockStore.On("ResolveProduct", mock.Anything, "42").Return(product, nil).Once()

	res, err := http.Get(server.URL + "/api/products/42")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var got domain.Product
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, "Denim Jacket", got.Name)

	mockStore.AssertExpectations(t)
}

func TestHTTPHandler_BatchProducts_SilentlyDropsMissing(t *testing.T) {
	mockStore := new(MockStore)
	server := setupTestChiServer(t, mockStore, new(MockFetcher))

	matched := []domain.Product{
		{ID: "1", AliasID: "1", Name: "One"},
		{ID: "2", AliasID: "2", Name: "Two"},
	}
	mockStore.On("ResolveProducts", mock.Anything, []string{"1", "2", "999"}).
		Return(matched, nil).Once()

	body, _ := json.Marshal(map[string][]string{"ids": {"1", "2", "999"}})
	res, err := http.Post(server.URL+"/api/products/batch", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var got []domain.Product
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Len(t, got, 2)

	mockStore.AssertExpectations(t)
}

func TestHTTPHandler_BatchProducts_MissingIDs(t *testing.T) {
	mockStore := new(MockStore)
	server := setupTestChiServer(t, mockStore, new(MockFetcher))

	res, err := http.Post(server.URL+"/api/products/batch", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHTTPHandler_ListProducts_FillsFromUpstreamOnEmptyStore(t *testing.T) {
	mockStore := new(MockStore)
	fetcher := new(MockFetcher)
	server := setupTestChiServer(t, mockStore, fetcher)

	fetched := []domain.Product{{ID: "1", AliasID: "1", Name: "One"}}
	mockStore.On("ListProducts", mock.Anything, 50).Return([]domain.Product{}, nil).Once()
	fetcher.On("FetchProducts", mock.Anything).Return(fetched, nil).Once()
	mockStore.On("ReplaceProducts", mock.Anything, fetched).Return(1, nil).Once()

	res, err := http.Get(server.URL + "/api/products")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var got []domain.Product
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Len(t, got, 1)

	mockStore.AssertExpectations(t)
	fetcher.AssertExpectations(t)
}

func TestHTTPHandler_SyncProducts_EmptyUpstream(t *testing.T) {
	mockStore := new(MockStore)
	fetcher := new(MockFetcher)
	server := setupTestChiServer(t, mockStore, fetcher)

	fetcher.On("FetchProducts", mock.Anything).Return([]domain.Product{}, nil).Once()

	res, err := http.Post(server.URL+"/api/products/sync", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Equal(t, "EMPTY_PRODUCTS", errResp.Err)
	assert.Contains(t, errResp.Message, "No products found")

	fetcher.AssertExpectations(t)
}

func TestHTTPHandler_AdminLogin_CreatesAdminOnFirstUse(t *testing.T) {
	mockStore := new(MockStore)
	server := setupTestChiServer(t, mockStore, new(MockFetcher))

	mockStore.On("GetAdminByEmail", mock.Anything, "new@example.com").
		Return(nil, store.ErrAdminNotFound).Once()
	mockStore.On("CreateAdmin", mock.Anything, mock.MatchedBy(func(a *domain.Admin) bool {
		return a.Email == "new@example.com" && a.PasswordHash != "" && a.PasswordHash != "hunter22"
	})).Return(&domain.Admin{ID: "admin-1", Email: "new@example.com"}, nil).Once()

	body, _ := json.Marshal(map[string]string{"email": "new@example.com", "password": "hunter22"})
	res, err := http.Post(server.URL+"/api/admin/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var got map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.NotEmpty(t, got["token"])
	assert.Equal(t, "new@example.com", got["email"])

	mockStore.AssertExpectations(t)
}

func TestHTTPHandler_AdminLogin_MissingCredentials(t *testing.T) {
	mockStore := new(MockStore)
	server := setupTestChiServer(t, mockStore, new(MockFetcher))

	body, _ := json.Marshal(map[string]string{"email": "not-an-email"})
	res, err := http.Post(server.URL+"/api/admin/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHTTPHandler_Analytics_RequiresBearerToken(t *testing.T) {
	mockStore := new(MockStore)
	server := setupTestChiServer(t, mockStore, new(MockFetcher))

	res, err := http.Get(server.URL + "/api/admin/analytics")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	var errResp map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Equal(t, "No token provided", errResp["message"])
}

func TestHTTPHandler_Analytics_RejectsGarbageToken(t *testing.T) {
	mockStore := new(MockStore)
	server := setupTestChiServer(t, mockStore, new(MockFetcher))

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/admin/analytics", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	var errResp map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Equal(t, "Invalid or expired token", errResp["message"])
}

func TestHTTPHandler_Analytics_WithValidToken(t *testing.T) {
	mockStore := new(MockStore)
	server := setupTestChiServer(t, mockStore, new(MockFetcher))

	products := []domain.Product{{ID: "1", AliasID: "1", Name: "One", Price: 10}}
	mockStore.On("ListProducts", mock.Anything, 50).Return(products, nil).Once()
	mockStore.On("CountProducts", mock.Anything).Return(1, nil).Once()
	mockStore.On("AverageProductPrice", mock.Anything).Return(10.0, nil).Once()
	mockStore.On("GetAnalytics", mock.Anything).Return(nil, store.ErrAnalyticsNotFound).Once()

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Issue("admin@example.com", "admin-1")
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/admin/analytics", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var overview domain.Analytics
	require.NoError(t, json.NewDecoder(res.Body).Decode(&overview))
	assert.Equal(t, 1, overview.TotalProducts)
	assert.Equal(t, 92.5, overview.TryOnSuccessRate)

	mockStore.AssertExpectations(t)
}

func TestHTTPHandler_CartCommitAndTotals(t *testing.T) {
	mockStore := new(MockStore)
	server := setupTestChiServer(t, mockStore, new(MockFetcher))

	products := []domain.Product{
		{ID: "A", AliasID: "A", Name: "Jacket", Price: 10},
		{ID: "B", AliasID: "B", Name: "Scarf", Price: 20},
	}
	mockStore.On("ResolveProducts", mock.Anything, []string{"A", "B"}).Return(products, nil)

	// Two-item bundle: the size-2 tier (10%) applies when no discount is
	// supplied explicitly.
	body, _ := json.Marshal(map[string]interface{}{"ids": []string{"A", "B"}})
	res, err := http.Post(server.URL+"/api/cart/commit", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusCreated, res.StatusCode)
	var commitResp struct {
		Added    []domain.CartLineItem `json:"added"`
		Discount int                   `json:"discount"`
		Count    int                   `json:"count"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&commitResp))
	assert.Equal(t, 10, commitResp.Discount)
	assert.Equal(t, 2, commitResp.Count)

	totalsRes, err := http.Get(server.URL + "/api/cart/totals")
	require.NoError(t, err)
	defer totalsRes.Body.Close()

	require.Equal(t, http.StatusOK, totalsRes.StatusCode)
	var totals domain.CartTotals
	require.NoError(t, json.NewDecoder(totalsRes.Body).Decode(&totals))
	assert.Equal(t, "30.00", totals.Subtotal)
	assert.Equal(t, "3.00", totals.DiscountAmount)
	assert.Equal(t, "27.00", totals.Total)
}

func TestHTTPHandler_CartQuantityFloor(t *testing.T) {
	mockStore := new(MockStore)
	server := setupTestChiServer(t, mockStore, new(MockFetcher))

	mockStore.On("ResolveProducts", mock.Anything, []string{"A"}).
		Return([]domain.Product{{ID: "A", AliasID: "A", Name: "Jacket", Price: 10}}, nil)

	body, _ := json.Marshal(map[string]interface{}{"ids": []string{"A"}})
	res, err := http.Post(server.URL+"/api/cart/commit", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	// Quantity 0 is a no-op, not a delete.
	qtyBody, _ := json.Marshal(map[string]int{"quantity": 0})
	req, _ := http.NewRequest(http.MethodPut, server.URL+"/api/cart/items/0", bytes.NewReader(qtyBody))
	req.Header.Set("Content-Type", "application/json")
	qtyRes, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer qtyRes.Body.Close()

	require.Equal(t, http.StatusOK, qtyRes.StatusCode)
	var cartResp struct {
		Items []domain.CartLineItem `json:"items"`
		Count int                   `json:"count"`
	}
	require.NoError(t, json.NewDecoder(qtyRes.Body).Decode(&cartResp))
	require.Len(t, cartResp.Items, 1)
	assert.Equal(t, 1, cartResp.Items[0].Quantity)
}

func TestHTTPHandler_CartRemoveUnknownIndex(t *testing.T) {
	mockStore := new(MockStore)
	server := setupTestChiServer(t, mockStore, new(MockFetcher))

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/cart/items/5", nil)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestHTTPHandler_Docs(t *testing.T) {
	mockStore := new(MockStore)
	server := setupTestChiServer(t, mockStore, new(MockFetcher))

	res, err := http.Get(server.URL + "/api/docs")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var docs map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&docs))
	assert.Equal(t, "Virtual Try-On API", docs["name"])
}
