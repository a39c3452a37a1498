package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/storelane/storelane-backend/pkg/db/models"
	"github.com/storelane/storelane-backend/pkg/enums"
)

// Repository persists and loads orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error)
	// UpdateStatusIf applies updates only while the row still holds the
	// expected status. Returns false when the precondition was lost.
	UpdateStatusIf(ctx context.Context, orderNumber string, expected enums.OrderStatus, updates map[string]any) (bool, error)
}
