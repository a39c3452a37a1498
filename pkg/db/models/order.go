package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storelane/storelane-backend/pkg/enums"
)

// Order is the persisted record materialized from a confirmed checkout.
// Everything except status and the cancellation fields is immutable after
// creation; corrections require a new order.
type Order struct {
	ID                 uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber        string                 `gorm:"column:order_number;uniqueIndex;not null"`
	SessionID          string                 `gorm:"column:session_id;not null"`
	UserID             *uuid.UUID             `gorm:"column:user_id;type:uuid"`
	CustomerName       string                 `gorm:"column:customer_name;not null"`
	CustomerEmail      string                 `gorm:"column:customer_email;not null"`
	CustomerPhone      string                 `gorm:"column:customer_phone;not null"`
	ShippingAddress    string                 `gorm:"column:shipping_address;not null"`
	ShippingCity       string                 `gorm:"column:shipping_city;not null"`
	ShippingZip        string                 `gorm:"column:shipping_zip;not null"`
	PaymentMethod      enums.PaymentMethod    `gorm:"column:payment_method;not null"`
	PaymentProvider    *enums.PaymentProvider `gorm:"column:payment_provider"`
	ExternalPaymentRef *string                `gorm:"column:external_payment_ref"`
	Status             enums.OrderStatus      `gorm:"column:status;not null;default:'pending'"`
	SubtotalCents      int64                  `gorm:"column:subtotal_cents;not null"`
	ShippingCents      int64                  `gorm:"column:shipping_cents;not null;default:0"`
	DiscountCents      int64                  `gorm:"column:discount_cents;not null;default:0"`
	DiscountCode       *string                `gorm:"column:discount_code"`
	TotalCents         int64                  `gorm:"column:total_cents;not null"`
	Notes              *string                `gorm:"column:notes"`
	CancelledAt        *time.Time             `gorm:"column:cancelled_at"`
	CancellationReason *string                `gorm:"column:cancellation_reason"`
	Items              []OrderLineItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
