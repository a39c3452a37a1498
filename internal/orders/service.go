package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/storelane/storelane-backend/internal/payments"
	"github.com/storelane/storelane-backend/internal/pending"
	"github.com/storelane/storelane-backend/pkg/db"
	"github.com/storelane/storelane-backend/pkg/db/models"
	"github.com/storelane/storelane-backend/pkg/enums"
	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
	"github.com/storelane/storelane-backend/pkg/logger"
	"github.com/storelane/storelane-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pendingClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

// Service materializes confirmed checkouts into orders and drives the order
// lifecycle for both customer and admin actors.
type Service interface {
	Materialize(ctx context.Context, po *pending.PendingOrder, outcome payments.Outcome) (*models.Order, error)
	Get(ctx context.Context, orderNumber string) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	AdminTransition(ctx context.Context, input AdminTransitionInput) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error)
	CancellableNow(order *models.Order) bool
}

type service struct {
	repo    Repository
	tx      txRunner
	pending pendingClearer
	met     *metrics.CheckoutMetrics
	logg    *logger.Logger
	window  time.Duration
	now     func() time.Time
}

// NewService builds the order service with the configured cancellation window.
func NewService(repo Repository, tx txRunner, pendingStore pendingClearer, met *metrics.CheckoutMetrics, logg *logger.Logger, window time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if pendingStore == nil {
		return nil, fmt.Errorf("pending store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if window <= 0 {
		return nil, fmt.Errorf("cancellation window must be positive")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		pending: pendingStore,
		met:     met,
		logg:    logg,
		window:  window,
		now:     time.Now,
	}, nil
}

// Materialize turns a staged checkout plus its payment outcome into a
// persisted order. The write is idempotent on order number: a concurrent or
// repeated materialization of the same checkout returns the already stored
// order instead of failing.
func (s *service) Materialize(ctx context.Context, po *pending.PendingOrder, outcome payments.Outcome) (*models.Order, error) {
	if po == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pending order required")
	}
	if po.OrderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}

	status := enums.OrderStatusConfirmed
	switch po.PaymentMethod {
	case enums.PaymentMethodBankTransfer:
		// Manual settlement: the order exists immediately and an operator
		// confirms it once funds arrive.
		status = enums.OrderStatusPending
	default:
		if !outcome.Succeeded() {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "materialize called without a captured payment")
		}
	}

	order := buildOrder(po, outcome, status)

	var stored *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return err
		}
		stored = created
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			existing, findErr := s.repo.FindByOrderNumber(ctx, po.OrderNumber)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load already materialized order")
			}
			stored = existing
		} else {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}
	}

	if clearErr := s.pending.Clear(ctx, po.SessionID); clearErr != nil {
		// The staged entry expires on its own; losing the delete is not
		// worth failing a completed checkout.
		s.logg.Warn(s.logg.WithOrderNumber(ctx, po.OrderNumber), "failed to clear pending order after materialization")
	}

	return stored, nil
}

func (s *service) Get(ctx context.Context, orderNumber string) (*models.Order, error) {
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// Cancel performs a customer-initiated cancellation. Ownership, lifecycle
// legality, and the time window are all re-checked at attempt time.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.Reason == "" {
		input.Reason = "cancelled by customer"
	}

	order, err := s.Get(ctx, input.OrderNumber)
	if err != nil {
		return nil, err
	}
	if !ownsOrder(order, input) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to caller")
	}

	if !s.withinWindow(order) {
		if !Cancellable(order.Status) {
			return nil, invalidTransitionErr(order.Status, enums.OrderStatusCancelled)
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancellation window has expired").
			WithDetails(map[string]any{"window_minutes": int(s.window.Minutes())})
	}

	return s.transition(ctx, order, enums.OrderStatusCancelled, ActorCustomer, input.Reason)
}

// AdminTransition applies an operator-driven status change. Force-cancel
// ignores the customer window but still respects lifecycle legality.
func (s *service) AdminTransition(ctx context.Context, input AdminTransitionInput) (*models.Order, error) {
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}

	order, err := s.Get(ctx, input.OrderNumber)
	if err != nil {
		return nil, err
	}

	reason := input.Reason
	if input.Target == enums.OrderStatusCancelled && reason == "" {
		reason = "cancelled by operator"
	}

	return s.transition(ctx, order, input.Target, ActorAdmin, reason)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, total, nil
}

// CancellableNow reports whether the customer could cancel the order at this
// moment. Used to surface the flag on order detail responses.
func (s *service) CancellableNow(order *models.Order) bool {
	if order == nil {
		return false
	}
	return Cancellable(order.Status) && s.withinWindow(order)
}

// transition is the one place lifecycle moves are validated and applied,
// shared by the customer and admin paths. The status precondition rides on
// the UPDATE itself so a concurrent move cannot slip through.
func (s *service) transition(ctx context.Context, order *models.Order, target enums.OrderStatus, actor Actor, reason string) (*models.Order, error) {
	if order.Status == target {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order is already %s", target))
	}
	if !CanTransition(order.Status, target) {
		return nil, invalidTransitionErr(order.Status, target)
	}

	updates := map[string]any{"status": target}
	if target == enums.OrderStatusCancelled {
		updates["cancelled_at"] = s.now().UTC()
		updates["cancellation_reason"] = reason
	}

	applied, err := s.repo.UpdateStatusIf(ctx, order.OrderNumber, order.Status, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently, reload and retry")
	}

	s.met.IncTransition(target.String(), string(actor))
	lctx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Info(lctx, fmt.Sprintf("order %s -> %s by %s", order.Status, target, actor))

	return s.repo.FindByOrderNumber(ctx, order.OrderNumber)
}

func (s *service) withinWindow(order *models.Order) bool {
	return s.now().Sub(order.CreatedAt) < s.window
}

func ownsOrder(order *models.Order, input CancelInput) bool {
	if input.UserID != nil && order.UserID != nil && *order.UserID == *input.UserID {
		return true
	}
	return input.SessionID != "" && order.SessionID == input.SessionID
}

func invalidTransitionErr(from, to enums.OrderStatus) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot move order from %s to %s", from, to))
}

func buildOrder(po *pending.PendingOrder, outcome payments.Outcome, status enums.OrderStatus) *models.Order {
	order := &models.Order{
		OrderNumber:   po.OrderNumber,
		SessionID:     po.SessionID,
		UserID:        po.UserID,
		CustomerName:  po.Customer.Name,
		CustomerEmail: po.Customer.Email,
		CustomerPhone: po.Customer.Phone,

		ShippingAddress: po.Customer.Address,
		ShippingCity:    po.Customer.City,
		ShippingZip:     po.Customer.Zip,

		PaymentMethod: po.PaymentMethod,
		Status:        status,
		SubtotalCents: po.Totals.SubtotalCents,
		ShippingCents: po.Totals.ShippingCents,
		DiscountCents: po.Totals.DiscountCents,
		DiscountCode:  po.Totals.DiscountCode,
		TotalCents:    po.Totals.TotalCents,
	}
	if po.Notes != "" {
		notes := po.Notes
		order.Notes = &notes
	}
	if provider := providerForMethod(po.PaymentMethod); provider != "" {
		p := provider
		order.PaymentProvider = &p
	}
	if outcome.ProviderRef != "" {
		ref := outcome.ProviderRef
		order.ExternalPaymentRef = &ref
	}
	for _, line := range po.Lines {
		item := models.OrderLineItem{
			ProductID:      line.ProductID,
			Name:           line.Name,
			UnitPriceCents: line.UnitPriceCents,
			Qty:            line.Qty,
		}
		if line.ImageRef != "" {
			ref := line.ImageRef
			item.ImageRef = &ref
		}
		order.Items = append(order.Items, item)
	}
	return order
}

func providerForMethod(method enums.PaymentMethod) enums.PaymentProvider {
	switch method {
	case enums.PaymentMethodCard:
		return enums.PaymentProviderStripe
	case enums.PaymentMethodBankDebit:
		return enums.PaymentProviderBankDebit
	case enums.PaymentMethodBankTransfer:
		return enums.PaymentProviderManual
	default:
		return ""
	}
}
