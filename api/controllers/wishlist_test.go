package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/daisydays/daisydays-backend/internal/cart"
	"github.com/daisydays/daisydays-backend/internal/wishlist"
	"github.com/daisydays/daisydays-backend/pkg/enums"
)

type stubWishlistService struct {
	moveQuantity int
	added        uuid.UUID
}

func (s *stubWishlistService) List(ctx context.Context, userID uuid.UUID) ([]wishlist.ItemDTO, error) {
	return []wishlist.ItemDTO{}, nil
}

func (s *stubWishlistService) Add(ctx context.Context, userID, productID uuid.UUID) (*wishlist.ItemDTO, bool, error) {
	s.added = productID
	return &wishlist.ItemDTO{ID: uuid.New(), ProductID: productID}, false, nil
}

func (s *stubWishlistService) Check(ctx context.Context, userID, productID uuid.UUID) (*wishlist.CheckDTO, error) {
	return &wishlist.CheckDTO{InWishlist: false}, nil
}

func (s *stubWishlistService) MoveToCart(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*cart.ItemDTO, error) {
	s.moveQuantity = quantity
	return &cart.ItemDTO{ID: uuid.New(), Quantity: quantity}, nil
}

func (s *stubWishlistService) Remove(ctx context.Context, userID, itemID uuid.UUID) error { return nil }

func (s *stubWishlistService) RemoveProduct(ctx context.Context, userID, productID uuid.UUID) error {
	return nil
}

func (s *stubWishlistService) Clear(ctx context.Context, userID uuid.UUID) error { return nil }

func TestAddWishlistItemAlwaysCreated(t *testing.T) {
	svc := &stubWishlistService{}
	productID := uuid.New()
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/wishlist", strings.NewReader(`{"productId":"`+productID.String()+`"}`)), uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()

	AddWishlistItem(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.added != productID {
		t.Fatal("expected product forwarded")
	}
}

func TestMoveWishlistItemQuantity(t *testing.T) {
	itemID := uuid.NewString()
	for _, tc := range []struct {
		body string
		want int
	}{
		{body: "", want: 1},
		{body: `{"quantity":3}`, want: 3},
	} {
		svc := &stubWishlistService{}
		req := asUser(httptest.NewRequest(http.MethodPut, "/api/wishlist/"+itemID, strings.NewReader(tc.body)), uuid.New(), enums.UserRoleCustomer)
		req = withURLParams(req, map[string]string{"id": itemID})
		resp := httptest.NewRecorder()

		MoveWishlistItem(svc, nil).ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("body %q: expected 200 got %d: %s", tc.body, resp.Code, resp.Body.String())
		}
		if svc.moveQuantity != tc.want {
			t.Fatalf("body %q: expected quantity %d got %d", tc.body, tc.want, svc.moveQuantity)
		}
	}
}

func TestCheckWishlistRejectsBadProductID(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodGet, "/api/wishlist/check/bad", nil), uuid.New(), enums.UserRoleCustomer)
	req = withURLParams(req, map[string]string{"productId": "bad"})
	resp := httptest.NewRecorder()

	CheckWishlist(&stubWishlistService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
