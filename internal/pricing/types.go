package pricing

import (
	"github.com/google/uuid"

	"github.com/storelane/storelane-backend/pkg/enums"
)

// CartLine is one cart entry frozen at its add-time catalog price.
type CartLine struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Qty            int       `json:"qty"`
	ImageRef       string    `json:"image_ref,omitempty"`
}

// Totals is the priced breakdown for a cart. Derived, never stored on its
// own; recomputed from lines plus a discount rule whenever needed.
type Totals struct {
	SubtotalCents int64   `json:"subtotal_cents"`
	ShippingCents int64   `json:"shipping_cents"`
	DiscountCents int64   `json:"discount_cents"`
	DiscountCode  *string `json:"discount_code,omitempty"`
	TotalCents    int64   `json:"total_cents"`
}

// Rule is the resolved discount applied against a cart subtotal.
type Rule struct {
	Code        string
	Kind        enums.DiscountKind
	AmountCents int64
	Percent     int
}
