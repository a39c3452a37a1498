package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storelane/storelane-backend/api/middleware"
	"github.com/storelane/storelane-backend/api/responses"
	"github.com/storelane/storelane-backend/api/validators"
	"github.com/storelane/storelane-backend/internal/orders"
	"github.com/storelane/storelane-backend/pkg/db/models"
	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
	"github.com/storelane/storelane-backend/pkg/logger"
)

type orderItemResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Qty            int       `json:"qty"`
	ImageRef       *string   `json:"image_ref,omitempty"`
}

type orderResponse struct {
	OrderNumber        string              `json:"order_number"`
	Status             string              `json:"status"`
	CustomerName       string              `json:"customer_name"`
	CustomerEmail      string              `json:"customer_email"`
	CustomerPhone      string              `json:"customer_phone"`
	ShippingAddress    string              `json:"shipping_address"`
	ShippingCity       string              `json:"shipping_city"`
	ShippingZip        string              `json:"shipping_zip"`
	PaymentMethod      string              `json:"payment_method"`
	SubtotalCents      int64               `json:"subtotal_cents"`
	ShippingCents      int64               `json:"shipping_cents"`
	DiscountCents      int64               `json:"discount_cents"`
	DiscountCode       *string             `json:"discount_code,omitempty"`
	TotalCents         int64               `json:"total_cents"`
	Notes              *string             `json:"notes,omitempty"`
	Items              []orderItemResponse `json:"items"`
	Cancellable        bool                `json:"cancellable"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CancellationReason *string             `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

func newOrderResponse(order *models.Order, cancellable bool) orderResponse {
	resp := orderResponse{
		OrderNumber:        order.OrderNumber,
		Status:             order.Status.String(),
		CustomerName:       order.CustomerName,
		CustomerEmail:      order.CustomerEmail,
		CustomerPhone:      order.CustomerPhone,
		ShippingAddress:    order.ShippingAddress,
		ShippingCity:       order.ShippingCity,
		ShippingZip:        order.ShippingZip,
		PaymentMethod:      order.PaymentMethod.String(),
		SubtotalCents:      order.SubtotalCents,
		ShippingCents:      order.ShippingCents,
		DiscountCents:      order.DiscountCents,
		DiscountCode:       order.DiscountCode,
		TotalCents:         order.TotalCents,
		Notes:              order.Notes,
		Items:              make([]orderItemResponse, 0, len(order.Items)),
		Cancellable:        cancellable,
		CancelledAt:        order.CancelledAt,
		CancellationReason: order.CancellationReason,
		CreatedAt:          order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			ImageRef:       item.ImageRef,
		})
	}
	return resp
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// OrderDetail returns one order, scoped to the caller. A mismatched session
// is answered with not found so order numbers cannot be probed.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		order, err := svc.Get(ctx, chi.URLParam(r, "orderNumber"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !callerOwnsOrder(ctx, order) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order, svc.CancellableNow(order)))
	}
}

// OrderCancel handles a customer-initiated cancellation request.
func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload cancelRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		order, err := svc.Cancel(ctx, orders.CancelInput{
			OrderNumber: chi.URLParam(r, "orderNumber"),
			SessionID:   middleware.SessionIDFromContext(ctx),
			UserID:      middleware.UserIDFromContext(ctx),
			Reason:      payload.Reason,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order, false))
	}
}

func callerOwnsOrder(ctx context.Context, order *models.Order) bool {
	if userID := middleware.UserIDFromContext(ctx); userID != nil && order.UserID != nil && *order.UserID == *userID {
		return true
	}
	sessionID := middleware.SessionIDFromContext(ctx)
	return sessionID != "" && order.SessionID == sessionID
}
