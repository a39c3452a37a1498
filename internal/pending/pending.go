package pending

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storelane/storelane-backend/internal/pricing"
	"github.com/storelane/storelane-backend/pkg/enums"
)

// CustomerInfo is the validated checkout form snapshot.
type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
}

// PendingOrder is a staged, not-yet-persisted checkout attempt. Lines and
// totals are frozen at submission time; confirmation and materialization read
// from this snapshot, never from live cart state.
type PendingOrder struct {
	OrderNumber   string              `json:"order_number"`
	SessionID     string              `json:"session_id"`
	UserID        *uuid.UUID          `json:"user_id,omitempty"`
	Customer      CustomerInfo        `json:"customer"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	// PaymentToken is the tokenized payment method reference for card
	// capture. Never a raw card number.
	PaymentToken string             `json:"payment_token,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	Lines        []pricing.CartLine `json:"lines"`
	Totals       pricing.Totals     `json:"totals"`
	StagedAt     time.Time          `json:"staged_at"`
}

// NewOrderNumber generates the human-readable order number. It is created
// before the first external call so retries of the same logical checkout
// reuse one number.
func NewOrderNumber() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "SL-" + raw[:10]
}
