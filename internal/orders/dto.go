package orders

import (
	"github.com/google/uuid"

	"github.com/storelane/storelane-backend/pkg/enums"
	"github.com/storelane/storelane-backend/pkg/pagination"
)

// ListFilter narrows and pages the admin order listing.
type ListFilter struct {
	Status  *enums.OrderStatus
	Page    int
	PerPage int
}

// Normalize clamps paging values to sane bounds.
func (f ListFilter) Normalize() ListFilter {
	page := pagination.Normalize(f.Page, f.PerPage)
	f.Page = page.Number
	f.PerPage = page.PerPage
	return f
}

// CancelInput carries a customer cancellation request.
type CancelInput struct {
	OrderNumber string
	SessionID   string
	UserID      *uuid.UUID
	Reason      string
}

// AdminTransitionInput carries an operator-driven status change.
type AdminTransitionInput struct {
	OrderNumber string
	Target      enums.OrderStatus
	Reason      string
}
