package reviews

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/internal/orders"
	"github.com/daisydays/daisydays-backend/pkg/db/dbtest"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
	"github.com/daisydays/daisydays-backend/pkg/types"
)

type wordCensor struct{}

func (wordCensor) Censor(input string) string {
	return strings.ReplaceAll(input, "darn", "****")
}

type reviewFixture struct {
	svc     Service
	conn    *gorm.DB
	user    models.User
	product models.Product
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		OrderRepo: orders.NewRepository(conn),
		Censor:    wordCensor{},
	})
	require.NoError(t, err)

	user := models.User{Name: "Rosa", Email: uuid.NewString() + "@example.com", Role: enums.UserRoleCustomer, IsActive: true}
	require.NoError(t, conn.Create(&user).Error)
	product := models.Product{Name: "Tulip Bunch", Price: decimal.RequireFromString("18"), Stock: 3, Category: enums.ProductCategoryTulips}
	require.NoError(t, conn.Create(&product).Error)
	return &reviewFixture{svc: svc, conn: conn, user: user, product: product}
}

func (f *reviewFixture) order(t *testing.T, userID uuid.UUID, status enums.OrderStatus) models.Order {
	t.Helper()
	order := models.Order{
		UserID:          userID,
		Status:          status,
		Subtotal:        decimal.RequireFromString("18"),
		TotalAmount:     decimal.RequireFromString("18"),
		ShippingAddress: types.ShippingAddress{FullName: "Rosa", Line1: "2 Elm", City: "Oak", PostalCode: "1"},
		Items: []models.OrderItem{{
			ProductID:   f.product.ID,
			ProductName: f.product.Name,
			UnitPrice:   f.product.Price,
			Quantity:    1,
			LineTotal:   f.product.Price,
		}},
	}
	require.NoError(t, f.conn.Create(&order).Error)
	return order
}

func TestSubmitRequiresDeliveredOwnedOrder(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	pending := f.order(t, f.user.ID, enums.OrderStatusPending)
	_, _, err := f.svc.Submit(ctx, f.user.ID, SubmitInput{OrderID: pending.ID, ProductID: f.product.ID, Rating: 5})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	delivered := f.order(t, f.user.ID, enums.OrderStatusDelivered)
	_, _, err = f.svc.Submit(ctx, uuid.New(), SubmitInput{OrderID: delivered.ID, ProductID: f.product.ID, Rating: 5})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, _, err = f.svc.Submit(ctx, f.user.ID, SubmitInput{OrderID: delivered.ID, ProductID: uuid.New(), Rating: 5})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, _, err = f.svc.Submit(ctx, f.user.ID, SubmitInput{OrderID: delivered.ID, ProductID: f.product.ID, Rating: 6})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, _, err = f.svc.Submit(ctx, f.user.ID, SubmitInput{OrderID: uuid.New(), ProductID: f.product.ID, Rating: 3})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestResubmitUpdatesInPlace(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	delivered := f.order(t, f.user.ID, enums.OrderStatusDelivered)

	first, created, err := f.svc.Submit(ctx, f.user.ID, SubmitInput{
		OrderID: delivered.ID, ProductID: f.product.ID, Rating: 2, Comment: "darn wilted",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "**** wilted", first.Comment)
	assert.Equal(t, "Rosa", first.UserName)

	second, created, err := f.svc.Submit(ctx, f.user.ID, SubmitInput{
		OrderID: delivered.ID, ProductID: f.product.ID, Rating: 5, Comment: "revived!",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Rating)

	var count int64
	require.NoError(t, f.conn.Model(&models.Review{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCheckAndListings(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	first := f.order(t, f.user.ID, enums.OrderStatusDelivered)
	second := f.order(t, f.user.ID, enums.OrderStatusDelivered)
	f.order(t, f.user.ID, enums.OrderStatusShipped)

	check, err := f.svc.Check(ctx, f.user.ID, f.product.ID)
	require.NoError(t, err)
	assert.True(t, check.CanReview)
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, check.EligibleOrderIDs)

	_, _, err = f.svc.Submit(ctx, f.user.ID, SubmitInput{OrderID: first.ID, ProductID: f.product.ID, Rating: 4})
	require.NoError(t, err)
	_, _, err = f.svc.Submit(ctx, f.user.ID, SubmitInput{OrderID: second.ID, ProductID: f.product.ID, Rating: 5})
	require.NoError(t, err)

	check, err = f.svc.Check(ctx, f.user.ID, f.product.ID)
	require.NoError(t, err)
	assert.False(t, check.CanReview)
	assert.Empty(t, check.EligibleOrderIDs)
	assert.Len(t, check.Reviews, 2)

	listing, err := f.svc.ListByProduct(ctx, f.product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, listing.Count)
	assert.InDelta(t, 4.5, listing.AverageRating, 0.001)

	byOrder, err := f.svc.ListByOrder(ctx, f.user.ID, first.ID)
	require.NoError(t, err)
	require.Len(t, byOrder, 1)
	assert.Equal(t, 4, byOrder[0].Rating)

	_, err = f.svc.ListByOrder(ctx, uuid.New(), first.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestUpdateOwnerOnlyAndBulkDelete(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	delivered := f.order(t, f.user.ID, enums.OrderStatusDelivered)
	review, _, err := f.svc.Submit(ctx, f.user.ID, SubmitInput{OrderID: delivered.ID, ProductID: f.product.ID, Rating: 3})
	require.NoError(t, err)

	rating := 1
	_, err = f.svc.Update(ctx, uuid.New(), review.ID, UpdateInput{Rating: &rating})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	comment := "darn thorns"
	updated, err := f.svc.Update(ctx, f.user.ID, review.ID, UpdateInput{Rating: &rating, Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Rating)
	assert.Equal(t, "**** thorns", updated.Comment)

	_, err = f.svc.BulkDelete(ctx, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	deleted, err := f.svc.BulkDelete(ctx, []uuid.UUID{review.ID, uuid.New()})
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = f.svc.Get(ctx, review.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestNewServiceRequiresRepositories(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	assert.Nil(t, pkgerrors.As(err))
}
