package pricing

import (
	"testing"

	"github.com/google/uuid"

	"github.com/storelane/storelane-backend/pkg/enums"
	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
)

func line(priceCents int64, qty int) CartLine {
	return CartLine{
		ProductID:      uuid.New(),
		Name:           "item",
		UnitPriceCents: priceCents,
		Qty:            qty,
	}
}

func TestQuoteNoDiscount(t *testing.T) {
	totals, err := Quote([]CartLine{line(45000, 2)}, 8000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.SubtotalCents != 90000 {
		t.Fatalf("subtotal = %d, want 90000", totals.SubtotalCents)
	}
	if totals.ShippingCents != 8000 {
		t.Fatalf("shipping = %d, want 8000", totals.ShippingCents)
	}
	if totals.DiscountCents != 0 {
		t.Fatalf("discount = %d, want 0", totals.DiscountCents)
	}
	if totals.TotalCents != 98000 {
		t.Fatalf("total = %d, want 98000", totals.TotalCents)
	}
}

func TestQuoteTotalsInvariantHolds(t *testing.T) {
	cases := []struct {
		name     string
		lines    []CartLine
		shipping int64
		rule     *Rule
	}{
		{"single line", []CartLine{line(1000, 1)}, 500, nil},
		{"flat discount", []CartLine{line(2500, 3)}, 0, &Rule{Code: "FLAT5", Kind: enums.DiscountKindFlat, AmountCents: 500}},
		{"percent discount", []CartLine{line(3333, 2), line(777, 5)}, 1200, &Rule{Code: "PCT15", Kind: enums.DiscountKindPercent, Percent: 15}},
		{"full discount", []CartLine{line(100, 1)}, 0, &Rule{Code: "PCT100", Kind: enums.DiscountKindPercent, Percent: 100}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totals, err := Quote(tc.lines, tc.shipping, tc.rule)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := totals.SubtotalCents + totals.ShippingCents - totals.DiscountCents; got != totals.TotalCents {
				t.Fatalf("invariant broken: subtotal+shipping-discount = %d, total = %d", got, totals.TotalCents)
			}
			if totals.TotalCents < 0 {
				t.Fatalf("total went negative: %d", totals.TotalCents)
			}
			if totals.DiscountCents < 0 {
				t.Fatalf("discount went negative: %d", totals.DiscountCents)
			}
		})
	}
}

func TestQuoteClampsPathologicalFlatDiscount(t *testing.T) {
	totals, err := Quote([]CartLine{line(1000, 1)}, 500, &Rule{Code: "HUGE", Kind: enums.DiscountKindFlat, AmountCents: 99999})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.DiscountCents != 1000 {
		t.Fatalf("discount should be clamped to subtotal, got %d", totals.DiscountCents)
	}
	if totals.TotalCents != 500 {
		t.Fatalf("total should be shipping only, got %d", totals.TotalCents)
	}
}

func TestQuotePercentComputedAgainstSubtotalNotTotal(t *testing.T) {
	// 10% of subtotal 10000 is 1000; if shipping leaked into the base it
	// would be 1080.
	totals, err := Quote([]CartLine{line(10000, 1)}, 800, &Rule{Code: "PCT10", Kind: enums.DiscountKindPercent, Percent: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.DiscountCents != 1000 {
		t.Fatalf("discount = %d, want 1000", totals.DiscountCents)
	}
}

func TestQuotePercentRoundsHalfUpOnce(t *testing.T) {
	// 15% of 30030 = 4504.5 which rounds up to 4505.
	totals, err := Quote([]CartLine{line(10010, 3)}, 0, &Rule{Code: "PCT15", Kind: enums.DiscountKindPercent, Percent: 15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.DiscountCents != 4505 {
		t.Fatalf("discount = %d, want 4505 (half-up)", totals.DiscountCents)
	}
}

func TestQuoteRejectsInvalidLines(t *testing.T) {
	_, err := Quote([]CartLine{line(1000, 0)}, 0, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}

	_, err = Quote([]CartLine{line(-5, 1)}, 0, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}

	_, err = Quote(nil, 0, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}
}

func TestQuoteRejectsInvalidRule(t *testing.T) {
	_, err := Quote([]CartLine{line(1000, 1)}, 0, &Rule{Code: "BAD", Kind: enums.DiscountKindPercent, Percent: 120})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for >100 percent, got %v", err)
	}
}
