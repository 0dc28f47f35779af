// Package pricing holds the bundle-discount tier table and the mapping from
// a selection size to a discount percentage.
package pricing

// Tier is one fixed row of the bundle-discount table.
type Tier struct {
	Size     int    `json:"count"`
	Discount int    `json:"discount"` // percent
	Label    string `json:"text"`
}

// tiers is keyed by exact selection size, not "at least". A size of 5 falls
// back to the zero-discount tier; see TierFor.
var tiers = []Tier{
	{Size: 1, Discount: 0, Label: "No discount"},
	{Size: 2, Discount: 10, Label: "10% off"},
	{Size: 3, Discount: 15, Label: "15% off"},
	{Size: 4, Discount: 20, Label: "20% off"},
}

// Tiers returns the discount table for display.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// TierFor maps a selection size to its tier. Total over all ints: any size
// without an exact row, including 0, negatives and sizes above 4, yields the
// zero-discount tier rather than a discount meant for a different size.
func TierFor(size int) Tier {
	for _, t := range tiers {
		if t.Size == size {
			return t
		}
	}
	return tiers[0]
}

// DiscountFor is TierFor reduced to the percentage, the form every selection
// toggle calls.
func DiscountFor(size int) int {
	return TierFor(size).Discount
}
