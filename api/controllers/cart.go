package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/storelane/storelane-backend/api/responses"
	"github.com/storelane/storelane-backend/api/validators"
	"github.com/storelane/storelane-backend/internal/pricing"
	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
	"github.com/storelane/storelane-backend/pkg/logger"
)

type linePayload struct {
	ProductID      uuid.UUID `json:"product_id" validate:"required"`
	Name           string    `json:"name" validate:"required,max=255"`
	UnitPriceCents int64     `json:"unit_price_cents" validate:"gte=0"`
	Qty            int       `json:"qty" validate:"required,min=1,max=999"`
	ImageRef       string    `json:"image_ref,omitempty" validate:"omitempty,max=500"`
}

type quoteRequest struct {
	Lines        []linePayload `json:"lines" validate:"required,min=1,max=100,dive"`
	DiscountCode string        `json:"discount_code,omitempty" validate:"omitempty,max=64"`
}

type totalsResponse struct {
	SubtotalCents int64   `json:"subtotal_cents"`
	ShippingCents int64   `json:"shipping_cents"`
	DiscountCents int64   `json:"discount_cents"`
	DiscountCode  *string `json:"discount_code,omitempty"`
	TotalCents    int64   `json:"total_cents"`
}

// CartQuote prices a cart without staging anything.
func CartQuote(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		totals, err := svc.Price(r.Context(), toCartLines(payload.Lines), payload.DiscountCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newTotalsResponse(totals))
	}
}

func toCartLines(lines []linePayload) []pricing.CartLine {
	out := make([]pricing.CartLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, pricing.CartLine{
			ProductID:      line.ProductID,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Qty:            line.Qty,
			ImageRef:       line.ImageRef,
		})
	}
	return out
}

func newTotalsResponse(totals pricing.Totals) totalsResponse {
	return totalsResponse{
		SubtotalCents: totals.SubtotalCents,
		ShippingCents: totals.ShippingCents,
		DiscountCents: totals.DiscountCents,
		DiscountCode:  totals.DiscountCode,
		TotalCents:    totals.TotalCents,
	}
}
