package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/storelane/storelane-backend/pkg/enums"
	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Quote prices a cart. Pure: no I/O, deterministic for the same inputs.
// Shipping is an opaque policy value supplied by the caller. The discount is
// clamped to the subtotal so the total can never go negative.
func Quote(lines []CartLine, shippingCents int64, rule *Rule) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	if shippingCents < 0 {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
	}

	var subtotal int64
	for i, line := range lines {
		if line.Qty < 1 {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be at least 1", i))
		}
		if line.UnitPriceCents < 0 {
			return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: unit price cannot be negative", i))
		}
		subtotal += line.UnitPriceCents * int64(line.Qty)
	}

	discount, err := discountFor(subtotal, rule)
	if err != nil {
		return Totals{}, err
	}

	totals := Totals{
		SubtotalCents: subtotal,
		ShippingCents: shippingCents,
		DiscountCents: discount,
		TotalCents:    subtotal + shippingCents - discount,
	}
	if rule != nil {
		code := rule.Code
		totals.DiscountCode = &code
	}
	return totals, nil
}

func discountFor(subtotalCents int64, rule *Rule) (int64, error) {
	if rule == nil {
		return 0, nil
	}

	var discount int64
	switch rule.Kind {
	case enums.DiscountKindFlat:
		if rule.AmountCents < 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "discount amount cannot be negative")
		}
		discount = rule.AmountCents
	case enums.DiscountKindPercent:
		if rule.Percent < 0 || rule.Percent > 100 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
		}
		// Rounded once at the end, half-up, never per line.
		discount = decimal.NewFromInt(subtotalCents).
			Mul(decimal.NewFromInt(int64(rule.Percent))).
			Div(oneHundred).
			Round(0).
			IntPart()
	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown discount kind %q", rule.Kind))
	}

	if discount > subtotalCents {
		discount = subtotalCents
	}
	return discount, nil
}
