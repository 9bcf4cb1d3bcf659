// Package pricing holds the single order-total rule used by both the API
// server when recording an order and the storefront client when displaying the
// pre-submit estimate. Keeping one implementation guarantees the displayed and
// recorded totals cannot diverge.
package pricing

// Rule holds the parameters of the totals computation. All amounts in cents.
type Rule struct {
	// FreeShippingThreshold is the subtotal above which shipping is free.
	FreeShippingThreshold int64
	// ShippingFee is the flat fee charged when the subtotal is at or below
	// the threshold.
	ShippingFee int64
	// TaxRatePercent is the tax percentage applied to the subtotal.
	TaxRatePercent int64
}

// DefaultRule returns the storefront's standard pricing rule: free shipping
// above $100.00, $10.00 flat fee otherwise, 15% tax.
func DefaultRule() Rule {
	return Rule{
		FreeShippingThreshold: 100_00,
		ShippingFee:           10_00,
		TaxRatePercent:        15,
	}
}

// Totals is the breakdown of an order's charged amount.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// Compute derives the totals for the given items subtotal:
// subtotal + shipping (free above threshold, flat fee otherwise) + tax
// (TaxRatePercent of subtotal, truncated to whole cents).
func (r Rule) Compute(subtotal int64) Totals {
	var shipping int64
	if subtotal <= r.FreeShippingThreshold {
		shipping = r.ShippingFee
	}

	tax := subtotal * r.TaxRatePercent / 100

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}
}
