package db_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ms-booking/internal/booking"
	bookingdb "ms-booking/internal/booking/db"
	"ms-booking/internal/catalog"
	catalogdb "ms-booking/internal/catalog/db"
	"ms-booking/internal/clock"
	"ms-booking/internal/config"
	"ms-booking/internal/database"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// noLock leaves mutual exclusion entirely to the database row lock.
type noLock struct{}

func (noLock) Lock(context.Context, string) (func(), error) { return func() {}, nil }

// TestPostgresIntegration_RowLockHoldsCapacity books concurrently against a
// real PostgreSQL with the in-process lock disabled.
func TestPostgresIntegration_RowLockHoldsCapacity(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "booking",
				"POSTGRES_PASSWORD": "booking",
				"POSTGRES_DB":       "booking",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Docker not available: %v", err)
	}
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	bunDB, err := database.Open(ctx, config.DatabaseConfig{
		Driver:       database.DriverPostgres,
		DSN:          fmt.Sprintf("postgres://booking:booking@%s:%s/booking?sslmode=disable", host, port.Port()),
		MaxOpenConns: 20,
		MaxIdleConns: 5,
		MaxLifetime:  time.Minute,
	}, logger.Nop())
	require.NoError(t, err)
	defer bunDB.Close()
	require.NoError(t, database.CreateSchema(ctx, bunDB))

	cat := catalog.NewService(&catalogdb.DB{Bun: bunDB}, nil)
	require.NoError(t, cat.Seed(ctx))
	userSvc := users.NewService(&users.DB{Bun: bunDB}, nil)
	customer, err := userSvc.CreateUser(ctx, users.Profile{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}, false)
	require.NoError(t, err)

	store := &bookingdb.DB{Bun: bunDB}
	svc := booking.NewService(store, cat, userSvc,
		booking.WithClock(clock.NewFixed(now)),
		booking.WithLocker(noLock{}),
		booking.WithPersistenceTimeout(30*time.Second),
	)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		confirmed int
		rejected  int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateBooking(ctx, customer.ID, req(50, 5, models.ClassStandard))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				confirmed++
			case errors.Is(err, booking.ErrCapacityExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 26, confirmed)
	assert.Equal(t, 14, rejected)

	left, err := svc.SeatsRemaining(ctx, booking.Selector{From: "Newcastle", To: "Bristol", Mode: models.ModeAir},
		now.AddDate(0, 0, 50).Format(models.DateLayout))
	require.NoError(t, err)
	assert.Zero(t, left)

	// An administrator shrinks another route while it is being booked. Whatever
	// order the row lock picks, sold seats never exceed the stored capacity.
	glasgow, err := cat.FindRoute(ctx, "Bristol", "Glasgow", models.ModeAir)
	require.NoError(t, err)
	shrunk := catalog.RouteInput{
		FromCityID: glasgow.FromCityID, ToCityID: glasgow.ToCityID, Mode: glasgow.Mode,
		DepartureTime: glasgow.DepartureTime, ArrivalTime: glasgow.ArrivalTime,
		StandardFare: glasgow.StandardFare, BusinessFare: glasgow.BusinessFare,
		AvailableSeats: 60,
	}
	glasgowReq := req(50, 5, models.ClassStandard)
	glasgowReq.Selector = booking.Selector{From: "Bristol", To: "Glasgow", Mode: models.ModeAir}

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateBooking(ctx, customer.ID, glasgowReq)
			if err != nil && !errors.Is(err, booking.ErrCapacityExceeded) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := cat.UpdateRoute(ctx, glasgow.ID, shrunk)
		if err != nil && !errors.Is(err, catalog.ErrSeatsBelowSold) {
			t.Errorf("unexpected update error: %v", err)
		}
	}()
	wg.Wait()

	final, err := cat.GetRoute(ctx, glasgow.ID)
	require.NoError(t, err)
	sold, err := store.CommittedPassengers(ctx, glasgow.ID, glasgowReq.JourneyDate)
	require.NoError(t, err)
	assert.LessOrEqual(t, sold, final.AvailableSeats)
}
