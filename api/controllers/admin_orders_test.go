package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/storelane/storelane-backend/pkg/db/models"
	"github.com/storelane/storelane-backend/pkg/enums"
)

func TestAdminOrderListReturnsPage(t *testing.T) {
	svc := &stubOrdersService{
		list:  []models.Order{*testOrder("SL-1111AAAA22"), *testOrder("SL-2222BBBB33")},
		total: 7,
	}

	handler := AdminOrderList(svc, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=confirmed&page=2&per_page=2", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data orderListResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Total != 7 {
		t.Fatalf("expected total 7, got %d", envelope.Data.Total)
	}
	if envelope.Data.Page != 2 || envelope.Data.PerPage != 2 {
		t.Fatalf("expected page 2 per_page 2, got %d/%d", envelope.Data.Page, envelope.Data.PerPage)
	}
	if len(envelope.Data.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(envelope.Data.Orders))
	}
}

func TestAdminOrderListRejectsUnknownStatus(t *testing.T) {
	handler := AdminOrderList(&stubOrdersService{}, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=limbo", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", resp.Code)
	}
}

func TestAdminOrderListRejectsNonNumericPage(t *testing.T) {
	handler := AdminOrderList(&stubOrdersService{}, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?page=two", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non numeric page, got %d", resp.Code)
	}
}

func TestAdminOrderTransition(t *testing.T) {
	order := testOrder("SL-3333CCCC44")
	order.Status = enums.OrderStatusProcessing
	svc := &stubOrdersService{order: order}

	handler := AdminOrderTransition(svc, testLogger())
	req := orderRequest(http.MethodPost, "/api/v1/admin/orders/SL-3333CCCC44/status", "SL-3333CCCC44",
		strings.NewReader(`{"status":"processing"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.adminInput.OrderNumber != "SL-3333CCCC44" {
		t.Fatalf("transition must target the path order number")
	}
	if svc.adminInput.Target != enums.OrderStatusProcessing {
		t.Fatalf("expected target processing, got %s", svc.adminInput.Target)
	}
}

func TestAdminOrderTransitionRejectsUnknownStatus(t *testing.T) {
	handler := AdminOrderTransition(&stubOrdersService{}, testLogger())
	req := orderRequest(http.MethodPost, "/api/v1/admin/orders/SL-3333CCCC44/status", "SL-3333CCCC44",
		strings.NewReader(`{"status":"teleported"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", resp.Code)
	}
}
