package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/storelane/storelane-backend/internal/pending"
	"github.com/storelane/storelane-backend/pkg/config"
	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
	"github.com/storelane/storelane-backend/pkg/logger"
)

const (
	debitStatusSettled = "settled"
	debitStatusFailed  = "failed"
	debitStatusPending = "pending"
)

// BankDebit confirms payments through a redirect-based direct debit rail.
// Confirm only opens the transaction; the definitive answer arrives later
// through Resolve, driven by the return navigation or the server callback.
type BankDebit struct {
	http           *http.Client
	baseURL        string
	apiKey         string
	callbackSecret string
	returnURL      string
	logg           *logger.Logger
}

// NewBankDebit builds the redirect debit adapter from config.
func NewBankDebit(cfg config.BankDebitConfig, logg *logger.Logger) (*BankDebit, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("bank debit base url required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("bank debit api key required")
	}
	if strings.TrimSpace(cfg.CallbackSecret) == "" {
		return nil, fmt.Errorf("bank debit callback secret required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &BankDebit{
		http:           &http.Client{Timeout: timeout},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		callbackSecret: cfg.CallbackSecret,
		returnURL:      cfg.ReturnURL,
		logg:           logg,
	}, nil
}

type debitCreateRequest struct {
	Reference     string `json:"reference"`
	SessionID     string `json:"session_id"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customer_email"`
	ReturnURL     string `json:"return_url"`
}

// CallbackPayload is the body the provider posts to the server callback.
// The signature is verified before any field is trusted, and the status is
// re-fetched from the provider rather than read from the payload.
type CallbackPayload struct {
	TransactionRef string `json:"transaction_ref"`
	Reference      string `json:"reference"`
	SessionID      string `json:"session_id"`
	Status         string `json:"status"`
}

type debitTransaction struct {
	TransactionRef string `json:"transaction_ref"`
	Reference      string `json:"reference"`
	AmountCents    int64  `json:"amount_cents"`
	Status         string `json:"status"`
	RedirectURL    string `json:"redirect_url,omitempty"`
	FailureReason  string `json:"failure_reason,omitempty"`
}

// Confirm opens a debit transaction for the staged total and hands back the
// provider's hosted payment page. The order number doubles as the provider
// idempotency key, so a retried submission reuses the open transaction.
func (b *BankDebit) Confirm(ctx context.Context, po *pending.PendingOrder) (Outcome, error) {
	if po == nil {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "pending order required")
	}

	body := debitCreateRequest{
		Reference:     po.OrderNumber,
		SessionID:     po.SessionID,
		AmountCents:   po.Totals.TotalCents,
		Currency:      "usd",
		CustomerEmail: po.Customer.Email,
		ReturnURL:     b.returnURL,
	}

	tx, err := b.call(ctx, http.MethodPost, "/v1/transactions", po.OrderNumber, body)
	if err != nil {
		return Outcome{}, err
	}
	if tx.RedirectURL == "" {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeDependency, "debit provider returned no redirect url")
	}

	return Outcome{
		Status:      OutcomePendingExternal,
		ProviderRef: tx.TransactionRef,
		Reference:   tx.Reference,
		AmountCents: tx.AmountCents,
		RedirectURL: tx.RedirectURL,
	}, nil
}

// Resolve fetches the transaction and maps the provider status to an
// outcome. A still-pending transaction stays pending_external.
func (b *BankDebit) Resolve(ctx context.Context, txRef string) (Outcome, error) {
	if strings.TrimSpace(txRef) == "" {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference required")
	}

	tx, err := b.call(ctx, http.MethodGet, "/v1/transactions/"+txRef, "", nil)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		ProviderRef: tx.TransactionRef,
		Reference:   tx.Reference,
		AmountCents: tx.AmountCents,
	}

	switch tx.Status {
	case debitStatusSettled:
		out.Status = OutcomeSucceeded
		return out, nil
	case debitStatusFailed:
		out.Status = OutcomeFailed
		out.Reason = tx.FailureReason
		if out.Reason == "" {
			out.Reason = "bank debit was not authorized"
		}
		return out, nil
	case debitStatusPending:
		out.Status = OutcomePendingExternal
		return out, nil
	default:
		return Outcome{}, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("debit provider reported unknown status %q", tx.Status))
	}
}

// VerifyCallback checks the HMAC-SHA256 signature the provider attaches to
// server callbacks.
func (b *BankDebit) VerifyCallback(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(b.callbackSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}

func (b *BankDebit) call(ctx context.Context, method, path, idempotencyKey string, body any) (*debitTransaction, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode debit request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build debit request")
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit provider unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read debit response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "debit transaction not found")
	}
	if resp.StatusCode >= 400 {
		b.logg.Warn(ctx, fmt.Sprintf("debit provider responded %d: %s", resp.StatusCode, truncate(raw, 256)))
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("debit provider responded %d", resp.StatusCode))
	}

	var tx debitTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode debit response")
	}
	return &tx, nil
}

func truncate(raw []byte, max int) string {
	if len(raw) <= max {
		return string(raw)
	}
	return string(raw[:max]) + "..."
}
