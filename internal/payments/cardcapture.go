package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"

	"github.com/storelane/storelane-backend/internal/pending"
	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
	"github.com/storelane/storelane-backend/pkg/logger"
	pkgstripe "github.com/storelane/storelane-backend/pkg/stripe"
)

// PaymentIntentAPI exposes the subset of Stripe operations the card capture
// adapter needs, so it can be tested without the network.
type PaymentIntentAPI interface {
	Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type paymentIntentWrapper struct {
	intents paymentintent.Client
}

// NewPaymentIntentAPI wraps the initialized Stripe client. Calls go through
// a resource client bound to the configured key, not the package global.
func NewPaymentIntentAPI(api *pkgstripe.Client) PaymentIntentAPI {
	if api == nil {
		return nil
	}
	return &paymentIntentWrapper{
		intents: paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: api.APIKey()},
	}
}

func (w *paymentIntentWrapper) Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return w.intents.New(params)
}

// CardCapture confirms card payments synchronously through Stripe. The whole
// attempt resolves within the request; there is no redirect leg.
type CardCapture struct {
	intents        PaymentIntentAPI
	minChargeCents int64
	logg           *logger.Logger
}

// NewCardCapture builds the synchronous card adapter.
func NewCardCapture(intents PaymentIntentAPI, minChargeCents int64, logg *logger.Logger) (*CardCapture, error) {
	if intents == nil {
		return nil, fmt.Errorf("payment intent api required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &CardCapture{intents: intents, minChargeCents: minChargeCents, logg: logg}, nil
}

// Confirm creates and confirms a PaymentIntent for the exact staged total.
// Amounts below the processor minimum are rejected before any provider call.
func (c *CardCapture) Confirm(ctx context.Context, po *pending.PendingOrder) (Outcome, error) {
	if po == nil {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "pending order required")
	}
	if po.PaymentToken == "" {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "payment token required for card capture")
	}
	if po.Totals.TotalCents < c.minChargeCents {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeAmountTooLow, "order total below chargeable minimum").
			WithDetails(map[string]int64{
				"total_cents":      po.Totals.TotalCents,
				"min_charge_cents": c.minChargeCents,
			})
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(po.Totals.TotalCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethod: stripe.String(po.PaymentToken),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.SetIdempotencyKey(po.OrderNumber)

	intent, err := c.intents.Create(ctx, params)
	if err != nil {
		var sErr *stripe.Error
		if errors.As(err, &sErr) && sErr.Type == stripe.ErrorTypeCard {
			lctx := c.logg.WithOrderNumber(ctx, po.OrderNumber)
			c.logg.Info(lctx, fmt.Sprintf("card declined: %s", sErr.Code))
			return Outcome{Status: OutcomeFailed, Reason: declineReason(sErr)}, nil
		}
		return Outcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "card processor unavailable")
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return Outcome{Status: OutcomeSucceeded, ProviderRef: intent.ID}, nil
	case stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusCanceled:
		return Outcome{Status: OutcomeFailed, ProviderRef: intent.ID, Reason: intentFailureReason(intent)}, nil
	default:
		// requires_action and friends are unexpected with redirects disabled.
		return Outcome{Status: OutcomeFailed, ProviderRef: intent.ID,
			Reason: fmt.Sprintf("payment left in unsupported state %s", intent.Status)}, nil
	}
}

func declineReason(sErr *stripe.Error) string {
	if sErr.DeclineCode != "" {
		return fmt.Sprintf("card declined (%s)", sErr.DeclineCode)
	}
	if sErr.Msg != "" {
		return sErr.Msg
	}
	return "card declined"
}

func intentFailureReason(intent *stripe.PaymentIntent) string {
	if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
		return intent.LastPaymentError.Msg
	}
	return "payment was not completed"
}
