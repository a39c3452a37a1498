package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storelane/storelane-backend/pkg/enums"
)

// DiscountRule maps a customer-entered code to either a flat amount or a
// percentage of the cart subtotal.
type DiscountRule struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string             `gorm:"column:code;uniqueIndex;not null"`
	Kind        enums.DiscountKind `gorm:"column:kind;not null"`
	AmountCents int64              `gorm:"column:amount_cents;not null;default:0"`
	Percent     int                `gorm:"column:percent;not null;default:0"`
	Active      bool               `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
