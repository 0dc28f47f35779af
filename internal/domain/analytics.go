package domain

import "time"

// Analytics is the stored dashboard overview row. Fields left at zero by the
// store are filled with the aggregator's explicit default table before the
// row is returned to a client.
type Analytics struct {
	TotalProducts      int          `json:"totalProducts"`
	AvgProductPrice    float64      `json:"avgProductPrice"`
	TotalOrders        int          `json:"totalOrders"`
	VirtualTryOns      int          `json:"virtualTryOns"`
	TotalRevenue       float64      `json:"totalRevenue"`
	ConversionRate     float64      `json:"conversionRate"`
	UniqueUsers        int          `json:"uniqueUsers"`
	AvgSessionDuration float64      `json:"avgSessionDuration"`
	ReturnUserRate     float64      `json:"returnUserRate"`
	TotalTryOns        int          `json:"totalTryOns"`
	TryOnSuccessRate   float64      `json:"tryOnSuccessRate"`
	AvgImagesGenerated float64      `json:"avgImagesGenerated"`
	AvgOrderValue      float64      `json:"avgOrderValue"`
	DiscountRedeemed   float64      `json:"discountRedeemed"`
	MostViewedProduct  string       `json:"mostViewedProduct"`
	BestPerformer      string       `json:"bestPerformer"`
	AvgRating          float64      `json:"avgRating"`
	SalesTrend         []int        `json:"salesTrend"`
	TopProducts        []TopProduct `json:"topProducts"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// TopProduct is one row of the overview's top-products list.
type TopProduct struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	TryOns    int     `json:"tryOns"`
	Purchases int     `json:"purchases"`
	Revenue   float64 `json:"revenue"`
}

// ProductAnalytics is one row of the per-product dashboard table.
type ProductAnalytics struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	Views          int     `json:"views"`
	TryOns         int     `json:"tryOns"`
	Purchases      int     `json:"purchases"`
	Revenue        float64 `json:"revenue"`
	ConversionRate float64 `json:"conversionRate"`
}
