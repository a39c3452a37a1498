package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/storelane/storelane-backend/api/middleware"
	"github.com/storelane/storelane-backend/api/responses"
	"github.com/storelane/storelane-backend/internal/orders"
	"github.com/storelane/storelane-backend/internal/payments"
	"github.com/storelane/storelane-backend/internal/pending"
	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
	"github.com/storelane/storelane-backend/pkg/logger"
)

// CheckoutReturn handles the shopper landing back from the debit provider's
// hosted page. The transaction status is always re-fetched from the provider,
// never taken from the query string, because the return navigation is
// attacker-forgeable.
func CheckoutReturn(store pending.Store, resolver payments.Resolver, svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		txRef := strings.TrimSpace(r.URL.Query().Get("tx_ref"))
		if txRef == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tx_ref query parameter required"))
			return
		}

		sessionID := middleware.SessionIDFromContext(ctx)
		po, err := store.Peek(ctx, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if po == nil {
			// Staged checkout expired while the shopper was on the external
			// page. The webhook may still materialize the order; the shopper
			// is told to check back or restart.
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session expired, start a new checkout"))
			return
		}

		outcome, err := resolver.Resolve(ctx, txRef)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		switch outcome.Status {
		case payments.OutcomeSucceeded:
			// The settlement only pays for the checkout it was opened for. A
			// replayed tx_ref from an earlier, cheaper transaction must not
			// mark a re-staged cart as paid.
			if outcome.Reference != po.OrderNumber || outcome.AmountCents != po.Totals.TotalCents {
				logg.Warn(ctx, fmt.Sprintf("settled debit %s does not match staged checkout %s", txRef, po.OrderNumber))
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "settled transaction does not belong to this checkout"))
				return
			}
			order, err := svc.Materialize(ctx, po, outcome)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order, false))

		case payments.OutcomeFailed:
			// The staged checkout stays put so the shopper can retry with a
			// different method.
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodePaymentDeclined, outcome.Reason))

		case payments.OutcomePendingExternal:
			responses.WriteSuccessStatus(w, http.StatusAccepted, redirectResponse{
				OrderNumber: po.OrderNumber,
				Status:      string(outcome.Status),
			})
		}
	}
}
