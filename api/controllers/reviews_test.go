package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/daisydays/daisydays-backend/internal/reviews"
	"github.com/daisydays/daisydays-backend/pkg/enums"
)

type stubReviewService struct {
	created    bool
	submitted  reviews.SubmitInput
	bulkIDs    []uuid.UUID
	productArg uuid.UUID
}

func (s *stubReviewService) ListByProduct(ctx context.Context, productID uuid.UUID) (*reviews.ProductReviews, error) {
	s.productArg = productID
	return &reviews.ProductReviews{Items: []reviews.ReviewDTO{}, AverageRating: 4.5, Count: 2}, nil
}

func (s *stubReviewService) Get(ctx context.Context, id uuid.UUID) (*reviews.ReviewDTO, error) {
	return &reviews.ReviewDTO{ID: id}, nil
}

func (s *stubReviewService) Submit(ctx context.Context, userID uuid.UUID, input reviews.SubmitInput) (*reviews.ReviewDTO, bool, error) {
	s.submitted = input
	return &reviews.ReviewDTO{ID: uuid.New(), OrderID: input.OrderID, ProductID: input.ProductID}, s.created, nil
}

func (s *stubReviewService) Update(ctx context.Context, userID, id uuid.UUID, input reviews.UpdateInput) (*reviews.ReviewDTO, error) {
	return &reviews.ReviewDTO{ID: id}, nil
}

func (s *stubReviewService) Check(ctx context.Context, userID, productID uuid.UUID) (*reviews.Eligibility, error) {
	return &reviews.Eligibility{CanReview: true, EligibleOrderIDs: []uuid.UUID{uuid.New()}}, nil
}

func (s *stubReviewService) ListByOrder(ctx context.Context, userID, orderID uuid.UUID) ([]reviews.ReviewDTO, error) {
	return []reviews.ReviewDTO{}, nil
}

func (s *stubReviewService) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	s.bulkIDs = ids
	return int64(len(ids)), nil
}

func TestSubmitReviewStatusReflectsCreation(t *testing.T) {
	body := `{"orderId":"` + uuid.NewString() + `","productId":"` + uuid.NewString() + `","rating":5,"comment":"Lovely"}`

	for _, tc := range []struct {
		created bool
		want    int
	}{
		{created: true, want: http.StatusCreated},
		{created: false, want: http.StatusOK},
	} {
		svc := &stubReviewService{created: tc.created}
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(body)), uuid.New(), enums.UserRoleCustomer)
		resp := httptest.NewRecorder()

		SubmitReview(svc, nil).ServeHTTP(resp, req)

		if resp.Code != tc.want {
			t.Fatalf("created=%v: expected %d got %d", tc.created, tc.want, resp.Code)
		}
		if svc.submitted.Rating != 5 {
			t.Fatalf("unexpected input %+v", svc.submitted)
		}
	}
}

func TestSubmitReviewRejectsRatingOutOfRange(t *testing.T) {
	body := `{"orderId":"` + uuid.NewString() + `","productId":"` + uuid.NewString() + `","rating":6}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(body)), uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()

	SubmitReview(&stubReviewService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListProductReviewsRequiresProductID(t *testing.T) {
	resp := httptest.NewRecorder()
	ListProductReviews(&stubReviewService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/reviews", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	svc := &stubReviewService{}
	productID := uuid.New()
	resp = httptest.NewRecorder()
	ListProductReviews(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/reviews?productId="+productID.String(), nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.productArg != productID {
		t.Fatal("expected product id forwarded")
	}
}

func TestBulkDeleteReviews(t *testing.T) {
	svc := &stubReviewService{}
	ids := []string{uuid.NewString(), uuid.NewString()}
	body := `{"ids":["` + strings.Join(ids, `","`) + `"]}`
	resp := httptest.NewRecorder()

	BulkDeleteReviews(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/reviews/bulk-delete", strings.NewReader(body)))

	var out map[string]int64
	decodeData(t, resp, &out)
	if out["deleted"] != 2 || len(svc.bulkIDs) != 2 {
		t.Fatalf("unexpected result %v", out)
	}
}
