package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/storelane/storelane-backend/internal/orders"
	"github.com/storelane/storelane-backend/internal/payments"
	"github.com/storelane/storelane-backend/internal/pending"
	"github.com/storelane/storelane-backend/internal/pricing"
	"github.com/storelane/storelane-backend/pkg/config"
	"github.com/storelane/storelane-backend/pkg/db/models"
	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
	"github.com/storelane/storelane-backend/pkg/logger"
	"github.com/storelane/storelane-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubPricingService struct{}

func (stubPricingService) Price(context.Context, []pricing.CartLine, string) (pricing.Totals, error) {
	return pricing.Totals{}, nil
}

type stubPendingStore struct{}

func (stubPendingStore) Stage(context.Context, *pending.PendingOrder) error {
	return nil
}

func (stubPendingStore) Peek(context.Context, string) (*pending.PendingOrder, error) {
	return nil, nil
}

func (stubPendingStore) Clear(context.Context, string) error {
	return nil
}

type stubConfirmer struct{}

func (stubConfirmer) Confirm(context.Context, *pending.PendingOrder) (payments.Outcome, error) {
	return payments.Outcome{Status: payments.OutcomeSucceeded}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Materialize(context.Context, *pending.PendingOrder, payments.Outcome) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) Get(context.Context, string) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (stubOrdersService) Cancel(context.Context, orders.CancelInput) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (stubOrdersService) AdminTransition(context.Context, orders.AdminTransitionInput) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (stubOrdersService) List(context.Context, orders.ListFilter) ([]models.Order, int64, error) {
	return nil, 0, nil
}

func (stubOrdersService) CancellableNow(*models.Order) bool {
	return false
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "storelane-identity"},
	}
}

func testDebitAdapter(t *testing.T) *payments.BankDebit {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	adapter, err := payments.NewBankDebit(config.BankDebitConfig{
		BaseURL:        "https://debit.test",
		APIKey:         "dk_test",
		CallbackSecret: "cb_secret",
	}, logg)
	if err != nil {
		t.Fatalf("build debit adapter: %v", err)
	}
	return adapter
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubPricingService{},
		stubPendingStore{},
		stubConfirmer{},
		testDebitAdapter(t),
		stubOrdersService{},
		nil,
	)
}

func buildToken(t *testing.T, cfg *config.Config, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  uuid.NewString(),
		"iss":  cfg.JWT.Issuer,
		"exp":  jwt.NewNumericDate(time.Now().Add(time.Hour)),
		"role": role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestHealthLiveRoute(t *testing.T) {
	router := newTestRouter(t, testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(t, testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestShopperRoutesRequireSession(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/SL-1234567890", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without session header got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	anon := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	anon.Header.Set("X-Session-ID", "sess-admin-test")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, anon)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	customer.Header.Set("X-Session-ID", "sess-admin-test")
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, "customer"))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	admin.Header.Set("X-Session-ID", "sess-admin-test")
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, "admin"))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestCheckoutRouteRequiresIdempotencyKey(t *testing.T) {
	router := newTestRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", "sess-idem-test")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Idempotency-Key") {
		t.Fatalf("rejection must come from the replay guard, got %s", resp.Body.String())
	}
}

func TestWebhookRouteSkipsSessionRequirement(t *testing.T) {
	router := newTestRouter(t, testConfig())
	// No session header; the route must still be reachable. The forged
	// signature is rejected by the handler, not by session middleware.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/bankdebit", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unsigned callback got %d", resp.Code)
	}
}
