// Package cart maintains the ordered line-item ledger and its money totals.
// The ledger is owned by a single browsing session; Storage implementations
// give no cross-writer guarantees (concurrent sessions writing the same key
// are last-write-wins, edits can be lost silently).
package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"tryon-storefront/internal/domain"
	"tryon-storefront/internal/store"
)

// ErrIndexOutOfRange signals an operation against a line index the ledger
// does not hold.
var ErrIndexOutOfRange = errors.New("cart: line item index out of range")

// Storage is the durable persistence port for the ledger, the server-side
// analogue of the browser's local storage. Save replaces the whole sequence.
type Storage interface {
	Load() ([]domain.CartLineItem, error)
	Save(items []domain.CartLineItem) error
}

// Ledger holds the committed line items and derives totals. Every mutating
// operation writes the full ledger back to storage synchronously and then
// publishes the new line count on the update channel.
type Ledger struct {
	mu      sync.Mutex
	storage Storage
	resolve store.ProductResolver
	items   []domain.CartLineItem
	updates chan int
}

// NewLedger loads the persisted ledger from storage. A missing or empty
// backing record yields an empty ledger, not an error.
func NewLedger(storage Storage, resolve store.ProductResolver) (*Ledger, error) {
	items, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("cart: failed to load ledger: %w", err)
	}
	return &Ledger{
		storage: storage,
		resolve: resolve,
		items:   items,
		updates: make(chan int, 16),
	}, nil
}

// Updates is the change-notification channel; each mutation publishes the
// line count (the cart badge value). Sends never block; a slow observer
// misses intermediate counts, not the final one semantics-wise, so observers
// should re-read Count after draining.
func (l *Ledger) Updates() <-chan int {
	return l.updates
}

// Commit appends one line item per identifier in the selection, quantity 1,
// all carrying the given discount, with a display snapshot resolved at commit
// time. Separate commits stay separate: committing a product again in a later
// selection appends a new independently-discounted line, it never merges into
// an existing one. Identifiers that fail to resolve are committed with an
// empty snapshot so the purchase intent is not dropped.
func (l *Ledger) Commit(ctx context.Context, selection *domain.Selection, discount int) ([]domain.CartLineItem, error) {
	if discount < 0 || discount > 100 {
		return nil, fmt.Errorf("cart: discount %d out of range", discount)
	}

	ids := selection.IDs()
	resolved, err := l.resolve.ResolveProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("cart: failed to resolve selection: %w", err)
	}
	// Keyed by every alias scheme so a line committed under any of them finds
	// its snapshot.
	byAlias := make(map[string]domain.Product, len(resolved)*3)
	for _, p := range resolved {
		byAlias[p.ID] = p
		byAlias[p.AliasID] = p
		if p.ShopifyID != 0 {
			byAlias[strconv.FormatInt(p.ShopifyID, 10)] = p
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	appended := make([]domain.CartLineItem, 0, len(ids))
	for _, id := range ids {
		item := domain.CartLineItem{ProductID: id, Quantity: 1, Discount: discount}
		if p, ok := byAlias[id]; ok {
			item.Name = p.Name
			item.Price = p.Price
			item.Image = p.Image
		} else {
			log.Printf("WARN: Committing unresolved product %s without snapshot", id)
		}
		appended = append(appended, item)
	}
	l.items = append(l.items, appended...)

	if err := l.persistLocked(); err != nil {
		return nil, err
	}
	return appended, nil
}

// SetQuantity replaces the quantity of the line at index. Quantities below 1
// are a no-op; this path never deletes. The discount field is untouched.
func (l *Ledger) SetQuantity(index, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.items) {
		return ErrIndexOutOfRange
	}
	if quantity < 1 {
		return nil
	}
	l.items[index].Quantity = quantity
	return l.persistLocked()
}

// Remove deletes the line at index; subsequent indices shift down.
func (l *Ledger) Remove(index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.items) {
		return ErrIndexOutOfRange
	}
	l.items = append(l.items[:index], l.items[index+1:]...)
	return l.persistLocked()
}

// Items returns a copy of the ledger in order.
func (l *Ledger) Items() []domain.CartLineItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.CartLineItem, len(l.items))
	copy(out, l.items)
	return out
}

// Count returns the number of line items, the badge value.
func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Totals derives subtotal, discount amount and total from current resolved
// prices, not the commit-time snapshots, so totals drift with catalog price
// changes. Lines whose product no longer resolves are skipped.
func (l *Ledger) Totals(ctx context.Context) (*domain.CartTotals, error) {
	items := l.Items()

	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	resolved, err := l.resolve.ResolveProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("cart: failed to resolve prices: %w", err)
	}
	prices := make(map[string]decimal.Decimal, len(resolved)*3)
	for _, p := range resolved {
		d := decimal.NewFromFloat(p.Price)
		prices[p.ID] = d
		prices[p.AliasID] = d
		if p.ShopifyID != 0 {
			prices[strconv.FormatInt(p.ShopifyID, 10)] = d
		}
	}

	subtotal := decimal.Zero
	discountAmount := decimal.Zero
	hundred := decimal.NewFromInt(100)
	for _, item := range items {
		price, ok := prices[item.ProductID]
		if !ok {
			continue
		}
		lineSubtotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineSubtotal)
		discountAmount = discountAmount.Add(
			lineSubtotal.Mul(decimal.NewFromInt(int64(item.Discount))).Div(hundred))
	}

	return &domain.CartTotals{
		Subtotal:       subtotal.StringFixed(2),
		DiscountAmount: discountAmount.StringFixed(2),
		Total:          subtotal.Sub(discountAmount).StringFixed(2),
		ItemCount:      len(items),
	}, nil
}

// persistLocked writes the ledger back and notifies observers. Callers hold
// l.mu.
func (l *Ledger) persistLocked() error {
	if err := l.storage.Save(l.items); err != nil {
		return fmt.Errorf("cart: failed to persist ledger: %w", err)
	}
	select {
	case l.updates <- len(l.items):
	default:
	}
	return nil
}
