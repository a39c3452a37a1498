package controllers

import (
	"net/http"
	"time"

	"github.com/storelane/storelane-backend/api/middleware"
	"github.com/storelane/storelane-backend/api/responses"
	"github.com/storelane/storelane-backend/api/validators"
	"github.com/storelane/storelane-backend/internal/orders"
	"github.com/storelane/storelane-backend/internal/payments"
	"github.com/storelane/storelane-backend/internal/pending"
	"github.com/storelane/storelane-backend/internal/pricing"
	"github.com/storelane/storelane-backend/pkg/enums"
	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
	"github.com/storelane/storelane-backend/pkg/logger"
	"github.com/storelane/storelane-backend/pkg/metrics"
)

type customerPayload struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Phone   string `json:"phone" validate:"required,max=32"`
	Address string `json:"address" validate:"required,max=500"`
	City    string `json:"city" validate:"required,max=128"`
	Zip     string `json:"zip" validate:"required,max=16"`
}

type checkoutRequest struct {
	Customer      customerPayload `json:"customer" validate:"required"`
	Lines         []linePayload   `json:"lines" validate:"required,min=1,max=100,dive"`
	DiscountCode  string          `json:"discount_code,omitempty" validate:"omitempty,max=64"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=card bank_debit bank_transfer"`
	PaymentToken  string          `json:"payment_token,omitempty" validate:"omitempty,max=255"`
	Notes         string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type redirectResponse struct {
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url"`
}

// CheckoutDeps bundles everything the checkout handler orchestrates.
type CheckoutDeps struct {
	Pricing pricing.Service
	Pending pending.Store
	Card    payments.Confirmer
	Debit   payments.Confirmer
	Orders  orders.Service
	Metrics *metrics.CheckoutMetrics
	Logger  *logger.Logger
}

// Checkout validates the submitted form, prices and freezes the cart, then
// confirms payment through the chosen rail. Card and manual checkouts finish
// synchronously; bank debit hands back a redirect.
func Checkout(deps CheckoutDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logg := deps.Logger

		sessionID := middleware.SessionIDFromContext(ctx)
		if sessionID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session required for checkout"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}
		if method == enums.PaymentMethodCard && payload.PaymentToken == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment_token required for card payments"))
			return
		}

		totals, err := deps.Pricing.Price(ctx, toCartLines(payload.Lines), payload.DiscountCode)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		po := &pending.PendingOrder{
			OrderNumber: checkoutOrderNumber(r, deps.Pending, sessionID),
			SessionID:   sessionID,
			UserID:      middleware.UserIDFromContext(ctx),
			Customer: pending.CustomerInfo{
				Name:    payload.Customer.Name,
				Email:   payload.Customer.Email,
				Phone:   payload.Customer.Phone,
				Address: payload.Customer.Address,
				City:    payload.Customer.City,
				Zip:     payload.Customer.Zip,
			},
			PaymentMethod: method,
			PaymentToken:  payload.PaymentToken,
			Notes:         payload.Notes,
			Lines:         toCartLines(payload.Lines),
			Totals:        totals,
			StagedAt:      time.Now().UTC(),
		}

		if err := deps.Pending.Stage(ctx, po); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		switch method {
		case enums.PaymentMethodBankTransfer:
			order, err := deps.Orders.Materialize(ctx, po, payments.Outcome{})
			if err != nil {
				deps.Metrics.IncAttempt(method.String(), "error")
				responses.WriteError(ctx, logg, w, err)
				return
			}
			deps.Metrics.IncAttempt(method.String(), string(payments.OutcomeSucceeded))
			responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order, false))

		case enums.PaymentMethodCard:
			outcome, err := confirmTimed(r, deps, deps.Card, po, method)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !outcome.Succeeded() {
				// The staged checkout survives so the shopper can retry with
				// a different card.
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodePaymentDeclined, outcome.Reason))
				return
			}
			order, err := deps.Orders.Materialize(ctx, po, outcome)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order, false))

		case enums.PaymentMethodBankDebit:
			outcome, err := confirmTimed(r, deps, deps.Debit, po, method)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusAccepted, redirectResponse{
				OrderNumber: po.OrderNumber,
				Status:      string(outcome.Status),
				RedirectURL: outcome.RedirectURL,
			})
		}
	}
}

// checkoutOrderNumber reuses the staged order number when the session is
// retrying a checkout, so provider idempotency keys stay stable.
func checkoutOrderNumber(r *http.Request, store pending.Store, sessionID string) string {
	if existing, err := store.Peek(r.Context(), sessionID); err == nil && existing != nil {
		return existing.OrderNumber
	}
	return pending.NewOrderNumber()
}

func confirmTimed(r *http.Request, deps CheckoutDeps, confirmer payments.Confirmer, po *pending.PendingOrder, method enums.PaymentMethod) (payments.Outcome, error) {
	if confirmer == nil {
		return payments.Outcome{}, pkgerrors.New(pkgerrors.CodeInternal, "payment rail unavailable")
	}

	start := time.Now()
	outcome, err := confirmer.Confirm(r.Context(), po)
	deps.Metrics.ObserveConfirmDuration(method.String(), time.Since(start))

	if err != nil {
		deps.Metrics.IncAttempt(method.String(), "error")
		return payments.Outcome{}, err
	}
	deps.Metrics.IncAttempt(method.String(), string(outcome.Status))
	return outcome, nil
}
