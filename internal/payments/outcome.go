package payments

import (
	"context"

	"github.com/storelane/storelane-backend/internal/pending"
)

// OutcomeStatus is the result class of a confirmation attempt.
type OutcomeStatus string

const (
	// OutcomeSucceeded means funds were captured or authorized synchronously.
	OutcomeSucceeded OutcomeStatus = "succeeded"
	// OutcomeFailed means the provider gave a definitive negative answer.
	OutcomeFailed OutcomeStatus = "failed"
	// OutcomePendingExternal means the shopper must complete payment on an
	// external page before the attempt can resolve.
	OutcomePendingExternal OutcomeStatus = "pending_external"
)

// Outcome is the normalized result of a payment confirmation attempt.
// Provider specifics never leak past this type. Reference and AmountCents
// echo what the provider recorded when the transaction was opened, so an
// asynchronous settlement can be bound back to the checkout that opened it.
type Outcome struct {
	Status      OutcomeStatus
	ProviderRef string
	Reference   string
	AmountCents int64
	RedirectURL string
	Reason      string
}

func (o Outcome) Succeeded() bool {
	return o.Status == OutcomeSucceeded
}

// Confirmer attempts to confirm payment for a staged checkout. A failed
// outcome is a normal return, not an error; errors are reserved for cases
// where no definitive answer was obtained.
type Confirmer interface {
	Confirm(ctx context.Context, po *pending.PendingOrder) (Outcome, error)
}

// Resolver fetches the definitive outcome of a previously opened
// asynchronous transaction.
type Resolver interface {
	Resolve(ctx context.Context, txRef string) (Outcome, error)
}

// CallbackVerifier authenticates provider-initiated callbacks.
type CallbackVerifier interface {
	VerifyCallback(payload []byte, signature string) bool
}
