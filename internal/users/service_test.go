package users

import (
	"context"
	"testing"
	"time"

	"ms-booking/internal/booking"
	"ms-booking/internal/database"
	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setupTestService(t *testing.T) (*Service, *bun.DB) {
	t.Helper()
	bunDB, err := database.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })
	return NewService(&DB{Bun: bunDB}, nil), bunDB
}

func customer(email string) Profile {
	return Profile{FirstName: "Jane", LastName: "Doe", Email: email, Phone: "+447700900000"}
}

func TestCreateUser(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, customer(" Jane@Example.com "), false)
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, "Jane Doe", u.FullName())

	_, err = svc.CreateUser(ctx, customer("jane@example.com"), false)
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = svc.CreateUser(ctx, Profile{FirstName: "X", LastName: "Y", Email: "not-an-email"}, false)
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestResolve(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	admin, err := svc.CreateUser(ctx, customer("admin@example.com"), true)
	require.NoError(t, err)

	id, err := svc.Resolve(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.Identity{UserID: admin.ID, IsAdmin: true}, id)

	_, err = svc.Resolve(ctx, 9999)
	assert.ErrorIs(t, err, booking.ErrUnauthorized)
}

func TestToggleAdmin(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	admin, err := svc.CreateUser(ctx, customer("admin@example.com"), true)
	require.NoError(t, err)
	user, err := svc.CreateUser(ctx, customer("user@example.com"), false)
	require.NoError(t, err)

	_, err = svc.ToggleAdmin(ctx, user.ID, admin.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	toggled, err := svc.ToggleAdmin(ctx, admin.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsAdmin)

	stored, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)
}

func TestDeleteUser_RefusedWithBookings(t *testing.T) {
	svc, bunDB := setupTestService(t)
	ctx := context.Background()

	admin, err := svc.CreateUser(ctx, customer("admin@example.com"), true)
	require.NoError(t, err)
	traveller, err := svc.CreateUser(ctx, customer("traveller@example.com"), false)
	require.NoError(t, err)
	idle, err := svc.CreateUser(ctx, customer("idle@example.com"), false)
	require.NoError(t, err)

	_, err = bunDB.NewInsert().Model(&models.Booking{
		UserID: traveller.ID, RouteID: 1, Reference: "AB12CD34", JourneyDate: "2026-06-01",
		Passengers: 1, ClassType: models.ClassStandard,
		BasePrice: decimal.NewFromInt(90), Discount: decimal.Zero, TotalPrice: decimal.NewFromInt(90),
		Status: models.StatusCancelled, CreatedAt: time.Now(),
	}).Exec(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteUser(ctx, admin.ID, traveller.ID), ErrUserHasBookings)
	require.NoError(t, svc.DeleteUser(ctx, admin.ID, idle.ID))

	_, err = svc.GetUser(ctx, idle.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, svc.DeleteUser(ctx, admin.ID, idle.ID), ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, customer("jane@example.com"), false)
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, customer("taken@example.com"), false)
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, u.ID, Profile{FirstName: "Janet", LastName: "Doe", Email: "janet@example.com", Phone: "123"})
	require.NoError(t, err)
	assert.Equal(t, "Janet", updated.FirstName)

	_, err = svc.UpdateProfile(ctx, u.ID, customer("taken@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestSeedAdmin_Once(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SeedAdmin(ctx))
	require.NoError(t, svc.SeedAdmin(ctx))

	admin, err := svc.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	users, err := svc.ListUsers(ctx, admin.ID)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
