package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem is a frozen snapshot of one cart line at submission time.
// Unit price is the catalog price when the line was added, never re-priced.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	ImageRef       *string   `gorm:"column:image_ref"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
