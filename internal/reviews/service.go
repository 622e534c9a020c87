package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goaway "github.com/TwiN/go-away"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/internal/orders"
	"github.com/daisydays/daisydays-backend/pkg/db"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
)

const (
	maxCommentLength = 2000
	maxBulkDelete    = 100
)

// Censor masks profanity in free text.
type Censor interface {
	Censor(input string) string
}

// Service manages product reviews gated on delivered orders.
type Service interface {
	ListByProduct(ctx context.Context, productID uuid.UUID) (*ProductReviews, error)
	Get(ctx context.Context, id uuid.UUID) (*ReviewDTO, error)
	Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*ReviewDTO, bool, error)
	Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*ReviewDTO, error)
	Check(ctx context.Context, userID, productID uuid.UUID) (*Eligibility, error)
	ListByOrder(ctx context.Context, userID, orderID uuid.UUID) ([]ReviewDTO, error)
	BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type ServiceParams struct {
	Repo      *Repository
	OrderRepo orders.Repository
	Censor    Censor
}

type service struct {
	repo      *Repository
	orderRepo orders.Repository
	censor    Censor
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Censor == nil {
		params.Censor = goaway.NewProfanityDetector()
	}
	return &service{repo: params.Repo, orderRepo: params.OrderRepo, censor: params.Censor}, nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) (*ProductReviews, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	rows, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	avg, count, err := s.repo.Summary(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize reviews")
	}
	return &ProductReviews{
		Items:         fromModels(rows),
		AverageRating: float64(int64(avg*10+0.5)) / 10,
		Count:         count,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ReviewDTO, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapErr(err, "review not found")
	}
	dto := fromModel(*review)
	return &dto, nil
}

// Submit creates the review or, when the user already reviewed this product for the
// order, rewrites it in place. The bool reports whether a new row was created.
func (s *service) Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*ReviewDTO, bool, error) {
	if err := validateRating(input.Rating); err != nil {
		return nil, false, err
	}
	comment, err := s.cleanComment(input.Comment)
	if err != nil {
		return nil, false, err
	}

	order, err := s.orderRepo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, false, mapErr(err, "order not found")
	}
	if order.UserID != userID {
		return nil, false, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, false, pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be reviewed").
			WithDetails(map[string]any{"status": order.Status})
	}
	if !order.ContainsProduct(input.ProductID) {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "product is not part of this order").
			WithDetails(map[string]string{"productId": "not found in order items"})
	}

	existing, err := s.repo.FindByKey(ctx, order.ID, input.ProductID, userID)
	switch {
	case err == nil:
		return s.rewrite(ctx, existing, input.Rating, comment)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}

	review := &models.Review{
		OrderID:   order.ID,
		ProductID: input.ProductID,
		UserID:    userID,
		Rating:    input.Rating,
		Comment:   comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if !db.IsUniqueViolation(err, "reviews_order_product_user_key") {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		// A concurrent submit won the insert; fold this one into it.
		existing, findErr := s.repo.FindByKey(ctx, order.ID, input.ProductID, userID)
		if findErr != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load review")
		}
		return s.rewrite(ctx, existing, input.Rating, comment)
	}
	return s.reload(ctx, review.ID, true)
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*ReviewDTO, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapErr(err, "review not found")
	}
	if review.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "review does not belong to user")
	}
	rating := review.Rating
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		rating = *input.Rating
	}
	comment := review.Comment
	if input.Comment != nil {
		if comment, err = s.cleanComment(*input.Comment); err != nil {
			return nil, err
		}
	}
	review.User = nil
	dto, _, err := s.rewrite(ctx, review, rating, comment)
	return dto, err
}

func (s *service) Check(ctx context.Context, userID, productID uuid.UUID) (*Eligibility, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	ids, err := s.repo.EligibleOrderIDs(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load eligible orders")
	}
	rows, err := s.repo.ListByUserProduct(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return &Eligibility{
		CanReview:        len(ids) > 0,
		EligibleOrderIDs: ids,
		Reviews:          fromModels(rows),
	}, nil
}

func (s *service) ListByOrder(ctx context.Context, userID, orderID uuid.UUID) ([]ReviewDTO, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapErr(err, "order not found")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	rows, err := s.repo.ListByOrder(ctx, orderID, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return fromModels(rows), nil
}

func (s *service) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "ids must not be empty")
	}
	if len(ids) > maxBulkDelete {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d ids per request", maxBulkDelete))
	}
	deleted, err := s.repo.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reviews")
	}
	return deleted, nil
}

func (s *service) rewrite(ctx context.Context, review *models.Review, rating int, comment string) (*ReviewDTO, bool, error) {
	review.Rating = rating
	review.Comment = comment
	if err := s.repo.Save(ctx, review); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
	}
	return s.reload(ctx, review.ID, false)
}

func (s *service) reload(ctx context.Context, id uuid.UUID, created bool) (*ReviewDTO, bool, error) {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload review")
	}
	dto := fromModel(*review)
	return &dto, created, nil
}

func (s *service) cleanComment(raw string) (string, error) {
	comment := strings.TrimSpace(raw)
	if len(comment) > maxCommentLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "comment too long").
			WithDetails(map[string]string{"comment": fmt.Sprintf("must be at most %d characters", maxCommentLength)})
	}
	return s.censor.Censor(comment), nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid rating").
			WithDetails(map[string]string{"rating": "must be between 1 and 5"})
	}
	return nil
}

func mapErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
