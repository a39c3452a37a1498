package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storelane/storelane-backend/api/responses"
	"github.com/storelane/storelane-backend/api/validators"
	"github.com/storelane/storelane-backend/internal/orders"
	"github.com/storelane/storelane-backend/pkg/enums"
	pkgerrors "github.com/storelane/storelane-backend/pkg/errors"
	"github.com/storelane/storelane-backend/pkg/logger"
)

type adminTransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed processing shipped delivered cancelled"`
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type orderListResponse struct {
	Orders  []orderResponse `json:"orders"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// AdminOrderList pages through all orders, optionally filtered by status.
func AdminOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		page, err := validators.QueryInt(r, "page", 1)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		perPage, err := validators.QueryInt(r, "per_page", 0)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		filter := orders.ListFilter{Page: page, PerPage: perPage}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
				return
			}
			filter.Status = &status
		}
		filter = filter.Normalize()

		list, total, err := svc.List(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		resp := orderListResponse{
			Orders:  make([]orderResponse, 0, len(list)),
			Total:   total,
			Page:    filter.Page,
			PerPage: filter.PerPage,
		}
		for i := range list {
			resp.Orders = append(resp.Orders, newOrderResponse(&list[i], svc.CancellableNow(&list[i])))
		}

		responses.WriteSuccess(w, resp)
	}
}

// AdminOrderTransition moves an order through its lifecycle on behalf of an
// operator. Cancellation from here ignores the customer time window.
func AdminOrderTransition(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload adminTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}

		order, err := svc.AdminTransition(ctx, orders.AdminTransitionInput{
			OrderNumber: chi.URLParam(r, "orderNumber"),
			Target:      target,
			Reason:      payload.Reason,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order, false))
	}
}
