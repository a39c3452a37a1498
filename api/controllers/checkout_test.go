package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/storelane/storelane-backend/api/middleware"
	"github.com/storelane/storelane-backend/internal/orders"
	"github.com/storelane/storelane-backend/internal/payments"
	"github.com/storelane/storelane-backend/internal/pending"
	"github.com/storelane/storelane-backend/internal/pricing"
	"github.com/storelane/storelane-backend/pkg/db/models"
	"github.com/storelane/storelane-backend/pkg/enums"
	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
	"github.com/storelane/storelane-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type stubPricing struct {
	totals pricing.Totals
	err    error
}

func (s *stubPricing) Price(_ context.Context, _ []pricing.CartLine, _ string) (pricing.Totals, error) {
	return s.totals, s.err
}

type stubPending struct {
	staged   *pending.PendingOrder
	peek     *pending.PendingOrder
	peekErr  error
	stageErr error
	cleared  []string
}

func (s *stubPending) Stage(_ context.Context, po *pending.PendingOrder) error {
	if s.stageErr != nil {
		return s.stageErr
	}
	s.staged = po
	return nil
}

func (s *stubPending) Peek(_ context.Context, _ string) (*pending.PendingOrder, error) {
	return s.peek, s.peekErr
}

func (s *stubPending) Clear(_ context.Context, sessionID string) error {
	s.cleared = append(s.cleared, sessionID)
	return nil
}

type stubConfirmer struct {
	outcome payments.Outcome
	err     error
	got     *pending.PendingOrder
}

func (s *stubConfirmer) Confirm(_ context.Context, po *pending.PendingOrder) (payments.Outcome, error) {
	s.got = po
	return s.outcome, s.err
}

type stubOrdersService struct {
	order        *models.Order
	err          error
	materialized *pending.PendingOrder
	outcome      payments.Outcome
	cancelInput  orders.CancelInput
	adminInput   orders.AdminTransitionInput
	list         []models.Order
	total        int64
	listErr      error
	cancellable  bool
}

func (s *stubOrdersService) Materialize(_ context.Context, po *pending.PendingOrder, outcome payments.Outcome) (*models.Order, error) {
	s.materialized = po
	s.outcome = outcome
	return s.order, s.err
}

func (s *stubOrdersService) Get(_ context.Context, _ string) (*models.Order, error) {
	if s.order == nil && s.err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, s.err
}

func (s *stubOrdersService) Cancel(_ context.Context, input orders.CancelInput) (*models.Order, error) {
	s.cancelInput = input
	return s.order, s.err
}

func (s *stubOrdersService) AdminTransition(_ context.Context, input orders.AdminTransitionInput) (*models.Order, error) {
	s.adminInput = input
	return s.order, s.err
}

func (s *stubOrdersService) List(_ context.Context, _ orders.ListFilter) ([]models.Order, int64, error) {
	return s.list, s.total, s.listErr
}

func (s *stubOrdersService) CancellableNow(_ *models.Order) bool {
	return s.cancellable
}

func testOrder(orderNumber string) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   orderNumber,
		SessionID:     "sess-1",
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
		CustomerPhone: "+15550001111",
		PaymentMethod: enums.PaymentMethodCard,
		Status:        enums.OrderStatusConfirmed,
		SubtotalCents: 12000,
		ShippingCents: 8000,
		TotalCents:    20000,
		Items: []models.OrderLineItem{
			{ProductID: uuid.New(), Name: "Walnut Desk Organizer", UnitPriceCents: 6000, Qty: 2},
		},
	}
}

func checkoutBody(method, token string) string {
	return `{
		"customer": {
			"name": "Ada Lovelace",
			"email": "ada@example.com",
			"phone": "+15550001111",
			"address": "12 Analytical Row",
			"city": "London",
			"zip": "EC1A"
		},
		"lines": [
			{"product_id": "` + uuid.NewString() + `", "name": "Walnut Desk Organizer", "unit_price_cents": 6000, "qty": 2}
		],
		"payment_method": "` + method + `",
		"payment_token": "` + token + `"
	}`
}

func checkoutRequestWithSession(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithSessionID(req.Context(), "sess-1"))
}

func TestCheckoutCardSuccess(t *testing.T) {
	card := &stubConfirmer{outcome: payments.Outcome{Status: payments.OutcomeSucceeded, ProviderRef: "pi_123"}}
	store := &stubPending{}
	svc := &stubOrdersService{order: testOrder("SL-AAAA111122")}

	handler := Checkout(CheckoutDeps{
		Pricing: &stubPricing{totals: pricing.Totals{SubtotalCents: 12000, ShippingCents: 8000, TotalCents: 20000}},
		Pending: store,
		Card:    card,
		Orders:  svc,
		Logger:  testLogger(),
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, checkoutRequestWithSession(checkoutBody("card", "tok_visa")))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if store.staged == nil {
		t.Fatalf("checkout must stage the pending order before confirming")
	}
	if store.staged.PaymentToken != "tok_visa" {
		t.Fatalf("staged order missing payment token")
	}
	if card.got == nil || card.got.OrderNumber != store.staged.OrderNumber {
		t.Fatalf("confirmer must receive the staged order")
	}
	if svc.materialized != store.staged {
		t.Fatalf("materializer must receive the staged order")
	}
	if svc.outcome.ProviderRef != "pi_123" {
		t.Fatalf("materializer must receive the payment outcome")
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderNumber != "SL-AAAA111122" {
		t.Fatalf("unexpected order number %q", envelope.Data.OrderNumber)
	}
}

func TestCheckoutCardDeclineKeepsPendingOrder(t *testing.T) {
	card := &stubConfirmer{outcome: payments.Outcome{Status: payments.OutcomeFailed, Reason: "card was declined"}}
	store := &stubPending{}
	svc := &stubOrdersService{}

	handler := Checkout(CheckoutDeps{
		Pricing: &stubPricing{totals: pricing.Totals{TotalCents: 20000}},
		Pending: store,
		Card:    card,
		Orders:  svc,
		Logger:  testLogger(),
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, checkoutRequestWithSession(checkoutBody("card", "tok_chargeDeclined")))

	if resp.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d", resp.Code)
	}
	if svc.materialized != nil {
		t.Fatalf("declined payment must not materialize an order")
	}
	if len(store.cleared) != 0 {
		t.Fatalf("declined payment must keep the staged checkout for retry")
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodePaymentDeclined) {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "card was declined" {
		t.Fatalf("decline reason should surface, got %q", envelope.Error.Message)
	}
}

func TestCheckoutBankDebitReturnsRedirect(t *testing.T) {
	debit := &stubConfirmer{outcome: payments.Outcome{
		Status:      payments.OutcomePendingExternal,
		ProviderRef: "dtx_9",
		RedirectURL: "https://pay.example.com/dtx_9",
	}}
	store := &stubPending{}

	handler := Checkout(CheckoutDeps{
		Pricing: &stubPricing{totals: pricing.Totals{TotalCents: 20000}},
		Pending: store,
		Debit:   debit,
		Orders:  &stubOrdersService{},
		Logger:  testLogger(),
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, checkoutRequestWithSession(checkoutBody("bank_debit", "")))

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data redirectResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.RedirectURL != "https://pay.example.com/dtx_9" {
		t.Fatalf("expected redirect url, got %q", envelope.Data.RedirectURL)
	}
	if envelope.Data.OrderNumber != store.staged.OrderNumber {
		t.Fatalf("redirect response must carry the staged order number")
	}
}

func TestCheckoutBankTransferMaterializesImmediately(t *testing.T) {
	store := &stubPending{}
	order := testOrder("SL-BBBB222233")
	order.PaymentMethod = enums.PaymentMethodBankTransfer
	order.Status = enums.OrderStatusPending
	svc := &stubOrdersService{order: order}

	handler := Checkout(CheckoutDeps{
		Pricing: &stubPricing{totals: pricing.Totals{TotalCents: 20000}},
		Pending: store,
		Orders:  svc,
		Logger:  testLogger(),
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, checkoutRequestWithSession(checkoutBody("bank_transfer", "")))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.materialized == nil {
		t.Fatalf("bank transfer checkout must materialize without a payment call")
	}
	if svc.outcome.Status != "" {
		t.Fatalf("bank transfer must pass an empty outcome, got %q", svc.outcome.Status)
	}
}

func TestCheckoutReusesStagedOrderNumberOnRetry(t *testing.T) {
	existing := &pending.PendingOrder{OrderNumber: "SL-CCCC333344", SessionID: "sess-1"}
	store := &stubPending{peek: existing}
	card := &stubConfirmer{outcome: payments.Outcome{Status: payments.OutcomeSucceeded}}

	handler := Checkout(CheckoutDeps{
		Pricing: &stubPricing{totals: pricing.Totals{TotalCents: 20000}},
		Pending: store,
		Card:    card,
		Orders:  &stubOrdersService{order: testOrder("SL-CCCC333344")},
		Logger:  testLogger(),
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, checkoutRequestWithSession(checkoutBody("card", "tok_visa")))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if store.staged.OrderNumber != "SL-CCCC333344" {
		t.Fatalf("retried checkout must keep the staged order number, got %s", store.staged.OrderNumber)
	}
}

func TestCheckoutRejectsCardWithoutToken(t *testing.T) {
	handler := Checkout(CheckoutDeps{
		Pricing: &stubPricing{},
		Pending: &stubPending{},
		Orders:  &stubOrdersService{},
		Logger:  testLogger(),
	})

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, checkoutRequestWithSession(checkoutBody("card", "")))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutRequiresSession(t *testing.T) {
	handler := Checkout(CheckoutDeps{
		Pricing: &stubPricing{},
		Pending: &stubPending{},
		Orders:  &stubOrdersService{},
		Logger:  testLogger(),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody("card", "tok_visa")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without session got %d", resp.Code)
	}
}
