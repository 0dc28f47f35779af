package domain

// CartLineItem is one committed purchase intent in the cart ledger.
//
// Discount is captured at commit time from the bundle size of the selection
// the item arrived with, and is immutable afterwards: quantity changes never
// recompute it. Name, Price and Image are a display snapshot taken at commit
// time so the cart stays renderable if the catalog entry later disappears;
// money totals are computed from the current resolved price, not from the
// snapshot.
type CartLineItem struct {
	ProductID string  `json:"id"`
	Quantity  int     `json:"quantity"`
	Discount  int     `json:"discount"` // percent, 0..100
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
}

// CartTotals is the derived money view of a ledger.
type CartTotals struct {
	Subtotal       string `json:"subtotal"`
	DiscountAmount string `json:"discountAmount"`
	Total          string `json:"total"`
	ItemCount      int    `json:"itemCount"`
}
