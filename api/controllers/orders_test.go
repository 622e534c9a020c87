package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/daisydays/daisydays-backend/internal/orders"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
)

type stubOrderService struct {
	actor     orders.Actor
	placed    orders.PlaceOrderInput
	listQuery orders.ListQuery
	status    string
	cancelled uuid.UUID
}

func (s *stubOrderService) Place(ctx context.Context, actor orders.Actor, input orders.PlaceOrderInput) (*orders.OrderDTO, error) {
	s.actor = actor
	s.placed = input
	return &orders.OrderDTO{ID: uuid.New(), UserID: actor.UserID, Status: enums.OrderStatusPending}, nil
}

func (s *stubOrderService) List(ctx context.Context, actor orders.Actor, query orders.ListQuery) (*orders.ListResult, error) {
	s.actor = actor
	s.listQuery = query
	return &orders.ListResult{Items: []orders.OrderDTO{}}, nil
}

func (s *stubOrderService) Get(ctx context.Context, actor orders.Actor, id uuid.UUID) (*orders.OrderDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return &orders.OrderDTO{ID: id}, nil
}

func (s *stubOrderService) Receipt(ctx context.Context, actor orders.Actor, id uuid.UUID) ([]byte, string, error) {
	return []byte("%PDF-1.3 fake"), "daisy-days-receipt-1234.pdf", nil
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, actor orders.Actor, id uuid.UUID, status string) (*orders.OrderDTO, error) {
	s.status = status
	if !actor.IsAdmin() && status != string(enums.OrderStatusCancelled) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can advance orders")
	}
	return &orders.OrderDTO{ID: id, Status: enums.OrderStatus(status)}, nil
}

func (s *stubOrderService) Cancel(ctx context.Context, actor orders.Actor, id uuid.UUID) (*orders.OrderDTO, error) {
	s.cancelled = id
	return &orders.OrderDTO{ID: id, Status: enums.OrderStatusCancelled}, nil
}

const placeOrderBody = `{
	"items":[{"productId":"%s","quantity":2}],
	"shippingAddress":{"fullName":"Ada Bloom","phone":"555-0100","line1":"1 Petal Way","city":"Springfield","postalCode":"12345"},
	"totalAmount":"40.00"
}`

func TestPlaceOrderCreated(t *testing.T) {
	svc := &stubOrderService{}
	userID := uuid.New()
	productID := uuid.New()
	body := strings.Replace(placeOrderBody, "%s", productID.String(), 1)
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)), userID, enums.UserRoleCustomer)
	resp := httptest.NewRecorder()

	PlaceOrder(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.actor.UserID != userID || svc.actor.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected actor %+v", svc.actor)
	}
	if len(svc.placed.Items) != 1 || svc.placed.Items[0].ProductID != productID || svc.placed.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", svc.placed.Items)
	}
}

func TestPlaceOrderRejectsEmptyItems(t *testing.T) {
	body := `{"items":[],"shippingAddress":{"fullName":"Ada","phone":"1","line1":"x","city":"y","postalCode":"z"},"totalAmount":"0"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)), uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()

	PlaceOrder(&stubOrderService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListOrdersPassesFilters(t *testing.T) {
	svc := &stubOrderService{}
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/orders?status=shipped&cursor=abc&limit=5", nil), uuid.New(), enums.UserRoleAdmin)
	resp := httptest.NewRecorder()

	ListOrders(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.listQuery != (orders.ListQuery{Status: "shipped", Cursor: "abc", Limit: 5}) {
		t.Fatalf("unexpected query %+v", svc.listQuery)
	}
}

func TestOrderReceiptServesPDF(t *testing.T) {
	id := uuid.NewString()
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/orders/"+id+"/receipt", nil), uuid.New(), enums.UserRoleCustomer)
	req = withURLParams(req, map[string]string{"id": id})
	resp := httptest.NewRecorder()

	OrderReceipt(&stubOrderService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "daisy-days-receipt-1234.pdf") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !strings.HasPrefix(resp.Body.String(), "%PDF") {
		t.Fatal("expected pdf body")
	}
}

func TestUpdateOrderStatusCustomerCannotAdvance(t *testing.T) {
	id := uuid.NewString()
	req := asUser(httptest.NewRequest(http.MethodPut, "/api/orders/"+id, strings.NewReader(`{"status":"shipped"}`)), uuid.New(), enums.UserRoleCustomer)
	req = withURLParams(req, map[string]string{"id": id})
	resp := httptest.NewRecorder()

	UpdateOrderStatus(&stubOrderService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestCancelOrder(t *testing.T) {
	svc := &stubOrderService{}
	id := uuid.New()
	req := asUser(httptest.NewRequest(http.MethodDelete, "/api/orders/"+id.String(), nil), uuid.New(), enums.UserRoleCustomer)
	req = withURLParams(req, map[string]string{"id": id.String()})
	resp := httptest.NewRecorder()

	CancelOrder(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.cancelled != id {
		t.Fatal("expected cancel forwarded")
	}
	var out orders.OrderDTO
	decodeData(t, resp, &out)
	if out.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", out.Status)
	}
}
