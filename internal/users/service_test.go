package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/pkg/db/dbtest"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
)

type revokerStub struct {
	revoked []uuid.UUID
}

func (r *revokerStub) RevokeUser(_ context.Context, id uuid.UUID) error {
	r.revoked = append(r.revoked, id)
	return nil
}

func seedUser(t *testing.T, conn *gorm.DB, name, email string, role enums.UserRole, active bool) *models.User {
	t.Helper()
	user, err := NewRepository(conn).Create(context.Background(), CreateUserDTO{
		Name:     name,
		Email:    email,
		Role:     role,
		IsActive: &active,
	})
	require.NoError(t, err)
	return user
}

func newUsersService(t *testing.T) (Service, *gorm.DB, *revokerStub) {
	t.Helper()
	conn := dbtest.Open(t)
	revoker := &revokerStub{}
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), Sessions: revoker})
	require.NoError(t, err)
	return svc, conn, revoker
}

func TestListFiltersBySearchRoleAndActive(t *testing.T) {
	svc, conn, _ := newUsersService(t)
	seedUser(t, conn, "Rose Admin", "rose@daisydays.shop", enums.UserRoleAdmin, true)
	seedUser(t, conn, "Lily Buyer", "lily@example.com", enums.UserRoleCustomer, true)
	seedUser(t, conn, "Iris Buyer", "iris@example.com", enums.UserRoleCustomer, false)

	all, err := svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)

	customers, err := svc.List(context.Background(), ListQuery{Role: "customer"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), customers.Total)

	inactive, err := svc.List(context.Background(), ListQuery{Active: "false"})
	require.NoError(t, err)
	require.Len(t, inactive.Items, 1)
	assert.Equal(t, "iris@example.com", inactive.Items[0].Email)

	search, err := svc.List(context.Background(), ListQuery{Search: "LILY"})
	require.NoError(t, err)
	require.Len(t, search.Items, 1)
	assert.Equal(t, "Lily Buyer", search.Items[0].Name)

	paged, err := svc.List(context.Background(), ListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, paged.Items, 1)
	assert.Equal(t, 2, paged.TotalPages)
}

func TestListRejectsBadFilters(t *testing.T) {
	svc, _, _ := newUsersService(t)
	_, err := svc.List(context.Background(), ListQuery{Role: "gardener", Active: "maybe"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateDeactivatesAndRevokesSessions(t *testing.T) {
	svc, conn, revoker := newUsersService(t)
	admin := seedUser(t, conn, "Rose", "rose@daisydays.shop", enums.UserRoleAdmin, true)
	customer := seedUser(t, conn, "Lily", "lily@example.com", enums.UserRoleCustomer, true)

	inactive := false
	out, err := svc.Update(context.Background(), admin.ID, customer.ID, UpdateInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, out.IsActive)
	assert.Equal(t, []uuid.UUID{customer.ID}, revoker.revoked)
}

func TestUpdateDemotionRevokesSessions(t *testing.T) {
	svc, conn, revoker := newUsersService(t)
	admin := seedUser(t, conn, "Rose", "rose@daisydays.shop", enums.UserRoleAdmin, true)
	other := seedUser(t, conn, "Violet", "violet@daisydays.shop", enums.UserRoleAdmin, true)

	role := "customer"
	out, err := svc.Update(context.Background(), admin.ID, other.ID, UpdateInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleCustomer, out.Role)
	assert.True(t, out.IsActive)
	assert.Equal(t, []uuid.UUID{other.ID}, revoker.revoked)
}

func TestUpdateSameRoleIsNoop(t *testing.T) {
	svc, conn, revoker := newUsersService(t)
	admin := seedUser(t, conn, "Rose", "rose@daisydays.shop", enums.UserRoleAdmin, true)
	customer := seedUser(t, conn, "Lily", "lily@example.com", enums.UserRoleCustomer, true)

	role := "customer"
	out, err := svc.Update(context.Background(), admin.ID, customer.ID, UpdateInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleCustomer, out.Role)
	assert.Empty(t, revoker.revoked)
}

func TestUpdateBlocksSelfDemotionAndDeactivation(t *testing.T) {
	svc, conn, _ := newUsersService(t)
	admin := seedUser(t, conn, "Rose", "rose@daisydays.shop", enums.UserRoleAdmin, true)

	role := "customer"
	_, err := svc.Update(context.Background(), admin.ID, admin.ID, UpdateInput{Role: &role})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	inactive := false
	_, err = svc.Update(context.Background(), admin.ID, admin.ID, UpdateInput{IsActive: &inactive})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestGetMissingUser(t *testing.T) {
	svc, _, _ := newUsersService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
