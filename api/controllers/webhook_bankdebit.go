package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/storelane/storelane-backend/api/responses"
	"github.com/storelane/storelane-backend/internal/orders"
	"github.com/storelane/storelane-backend/internal/payments"
	"github.com/storelane/storelane-backend/internal/pending"
	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
	"github.com/storelane/storelane-backend/pkg/logger"
)

const (
	debitSignatureHeader = "X-Debit-Signature"
	maxCallbackBody      = 1 << 20
)

// BankDebitCallback receives the provider's server-to-server settlement
// notification. The signature covers the raw body; the status inside the
// payload is advisory only and the transaction is re-fetched before anything
// is persisted. Replays land on the idempotent materializer and return 200.
func BankDebitCallback(store pending.Store, debit interface {
	payments.Resolver
	payments.CallbackVerifier
}, svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read callback body"))
			return
		}

		if !debit.VerifyCallback(raw, r.Header.Get(debitSignatureHeader)) {
			logg.Warn(ctx, "rejected debit callback with bad signature")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid callback signature"))
			return
		}

		var payload payments.CallbackPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode callback body"))
			return
		}
		if payload.TransactionRef == "" || payload.SessionID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "callback missing transaction_ref or session_id"))
			return
		}

		outcome, err := debit.Resolve(ctx, payload.TransactionRef)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		lctx := logg.WithOrderNumber(ctx, payload.Reference)

		if !outcome.Succeeded() {
			// Nothing to persist for failed or still-pending transactions.
			// Acknowledge so the provider stops retrying.
			logg.Info(lctx, "debit callback acknowledged without materialization, status "+string(outcome.Status))
			responses.WriteSuccess(w, map[string]string{"status": "acknowledged"})
			return
		}

		po, err := store.Peek(ctx, payload.SessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if po == nil {
			// Either the return navigation already materialized the order and
			// cleared the staging entry, or it expired. The materializer is
			// keyed on order number, so a duplicate callback is harmless.
			logg.Info(lctx, "debit callback for absent staged checkout, acknowledging")
			responses.WriteSuccess(w, map[string]string{"status": "acknowledged"})
			return
		}

		if outcome.Reference != po.OrderNumber || outcome.AmountCents != po.Totals.TotalCents {
			// The session re-staged a different checkout after this
			// transaction was opened. Acknowledge so the provider stops
			// retrying; that settlement pays for nothing that is staged.
			logg.Warn(lctx, "settled debit does not match the staged checkout, acknowledging")
			responses.WriteSuccess(w, map[string]string{"status": "acknowledged"})
			return
		}

		order, err := svc.Materialize(ctx, po, outcome)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		logg.Info(lctx, "order materialized from debit callback")
		responses.WriteSuccess(w, map[string]string{"status": "processed", "order_number": order.OrderNumber})
	}
}
