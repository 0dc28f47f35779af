package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"tryon-storefront/internal/domain"
	"tryon-storefront/internal/resolver"
)

// Predefined errors for store operations
var (
	ErrProductNotFound   = errors.New("store: product not found")
	ErrAdminNotFound     = errors.New("store: admin not found")
	ErrAdminEmailExists  = errors.New("store: admin email already exists")
	ErrAnalyticsNotFound = errors.New("store: analytics row not found")
)

const productColumns = `id, alias_id, shopify_id, name, description, price, image, images, sku, category, vendor, tags, variants, created_at, updated_at, saved_at`

// PostgresStore implements the ProductStorer, ProductResolver, AdminStorer and
// AnalyticsStorer interfaces using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// scanProduct scans one product row from any query selecting productColumns.
func scanProduct(row interface{ Scan(...interface{}) error }) (*domain.Product, error) {
	var p domain.Product
	var scannedVariants sql.NullString
	err := row.Scan(
		&p.ID, &p.AliasID, &p.ShopifyID, &p.Name, &p.Description, &p.Price,
		&p.Image, pq.Array(&p.Images), &p.SKU, &p.Category, &p.Vendor,
		pq.Array(&p.Tags), &scannedVariants,
		&p.CreatedAt, &p.UpdatedAt, &p.SavedAt,
	)
	if err != nil {
		return nil, err
	}
	if scannedVariants.Valid && scannedVariants.String != "" && scannedVariants.String != "null" {
		rawMsg := json.RawMessage(scannedVariants.String)
		p.Variants = &rawMsg
	}
	return &p, nil
}

// --- ProductStorer Implementation ---

func (s *PostgresStore) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		ORDER BY saved_at DESC
		LIMIT $1;
	`, productColumns)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}
	return products, nil
}

// ReplaceProducts clears the catalog and inserts the given products in one
// transaction, matching the sync contract of a wholesale replace. Returns the
// number of products inserted.
func (s *PostgresStore) ReplaceProducts(ctx context.Context, products []domain.Product) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: ReplaceProducts failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM products;`); err != nil {
		return 0, fmt.Errorf("store: ReplaceProducts failed to clear products: %w", err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO products (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, CURRENT_TIMESTAMP);
	`, productColumns)

	for _, p := range products {
		var variantsJSON []byte
		if p.Variants != nil && len(*p.Variants) > 0 {
			variantsJSON = *p.Variants
		} else {
			variantsJSON = []byte("null")
		}
		_, err := tx.ExecContext(ctx, insertQuery,
			p.ID, p.AliasID, p.ShopifyID, p.Name, p.Description, p.Price,
			p.Image, pq.Array(p.Images), p.SKU, p.Category, p.Vendor,
			pq.Array(p.Tags), variantsJSON, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("store: ReplaceProducts failed to insert product %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: ReplaceProducts failed to commit: %w", err)
	}
	return len(products), nil
}

func (s *PostgresStore) ListByCategory(ctx context.Context, category, excludeID string, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		return []domain.Product{}, nil
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE category = $1 AND id <> $2
		LIMIT $3;
	`, productColumns)
	rows, err := s.db.QueryContext(ctx, query, category, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: ListByCategory failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListByCategory failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListByCategory iteration error: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) CountProducts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("store: CountProducts failed: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) AverageProductPrice(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, `SELECT AVG(price) FROM products;`).Scan(&avg); err != nil {
		return 0, fmt.Errorf("store: AverageProductPrice failed: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// --- ProductResolver Implementation ---

// ResolveProduct matches the identifier against the primary key, the string
// mirror alias and the external numeric alias in a single query with equal
// priority. The numeric arm only participates when the identifier parses as
// an integer.
func (s *PostgresStore) ResolveProduct(ctx context.Context, ident string) (*domain.Product, error) {
	var row *sql.Row
	if n, ok := resolver.NumericValue(ident); ok {
		query := fmt.Sprintf(`
			SELECT %s
			FROM products
			WHERE id = $1 OR alias_id = $1 OR shopify_id = $2
			LIMIT 1;
		`, productColumns)
		row = s.db.QueryRowContext(ctx, query, ident, n)
	} else {
		query := fmt.Sprintf(`
			SELECT %s
			FROM products
			WHERE id = $1 OR alias_id = $1
			LIMIT 1;
		`, productColumns)
		row = s.db.QueryRowContext(ctx, query, ident)
	}

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: ResolveProduct failed to scan row: %w", err)
	}
	return p, nil
}

// ResolveProducts returns the subset of products whose any alias is in the
// identifier set. Missing identifiers are silently dropped; callers must
// tolerate a result smaller than the input.
func (s *PostgresStore) ResolveProducts(ctx context.Context, idents []string) ([]domain.Product, error) {
	if len(idents) == 0 {
		return []domain.Product{}, nil
	}

	numeric := make([]int64, 0, len(idents))
	for _, ident := range idents {
		if n, ok := resolver.NumericValue(ident); ok {
			numeric = append(numeric, n)
		}
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE id = ANY($1) OR alias_id = ANY($1) OR shopify_id = ANY($2);
	`, productColumns)
	rows, err := s.db.QueryContext(ctx, query, pq.Array(idents), pq.Array(numeric))
	if err != nil {
		return nil, fmt.Errorf("store: ResolveProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, len(idents))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ResolveProducts failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ResolveProducts iteration error: %w", err)
	}
	return products, nil
}

// --- AdminStorer Implementation ---

func (s *PostgresStore) GetAdminByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM admins
		WHERE email = $1;
	`
	var admin domain.Admin
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&admin.ID, &admin.Email, &admin.PasswordHash, &admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("store: GetAdminByEmail failed to scan row: %w", err)
	}
	return &admin, nil
}

func (s *PostgresStore) CreateAdmin(ctx context.Context, admin *domain.Admin) (*domain.Admin, error) {
	query := `
		INSERT INTO admins (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, created_at;
	`
	var created domain.Admin
	err := s.db.QueryRowContext(ctx, query, admin.ID, admin.Email, admin.PasswordHash).Scan(
		&created.ID, &created.Email, &created.PasswordHash, &created.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // Unique violation
			return nil, ErrAdminEmailExists
		}
		return nil, fmt.Errorf("store: CreateAdmin failed to scan row: %w", err)
	}
	return &created, nil
}

// --- AnalyticsStorer Implementation ---

func (s *PostgresStore) GetAnalytics(ctx context.Context) (*domain.Analytics, error) {
	query := `
		SELECT total_orders, virtual_try_ons, total_revenue, conversion_rate,
		       unique_users, avg_session_duration, return_user_rate, total_try_ons,
		       try_on_success_rate, avg_images_generated, avg_order_value,
		       discount_redeemed, most_viewed_product, best_performer, avg_rating,
		       sales_trend, updated_at
		FROM analytics
		LIMIT 1;
	`
	var a domain.Analytics
	err := s.db.QueryRowContext(ctx, query).Scan(
		&a.TotalOrders, &a.VirtualTryOns, &a.TotalRevenue, &a.ConversionRate,
		&a.UniqueUsers, &a.AvgSessionDuration, &a.ReturnUserRate, &a.TotalTryOns,
		&a.TryOnSuccessRate, &a.AvgImagesGenerated, &a.AvgOrderValue,
		&a.DiscountRedeemed, &a.MostViewedProduct, &a.BestPerformer, &a.AvgRating,
		pq.Array(&a.SalesTrend), &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAnalyticsNotFound
		}
		return nil, fmt.Errorf("store: GetAnalytics failed to scan row: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing database connection pool...")
		if err := s.db.Close(); err != nil {
			log.Printf("ERROR: Failed to close database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Database connection pool closed successfully.")
	}
	return nil
}
