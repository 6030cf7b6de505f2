package booking

import (
	"context"
	"time"

	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
)

// Store persists bookings. RunInTx hands fn a Store bound to one transaction;
// every call made through it shares that transaction and it is rolled back
// when fn returns an error.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	CommittedPassengers(ctx context.Context, routeID int64, journeyDate string) (int, error)
	// LockRoute reads the current route row, taking a row lock on it where the
	// database supports one.
	LockRoute(ctx context.Context, routeID int64) (*models.Route, error)
	ReferenceExists(ctx context.Context, ref string) (bool, error)
	InsertBooking(ctx context.Context, b *models.Booking) error

	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	// MarkCancelled cancels a booking unless it already is. It reports whether
	// a row changed.
	MarkCancelled(ctx context.Context, id int64, refund decimal.Decimal, at time.Time) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Booking, error)
	ListAll(ctx context.Context, limit int) ([]models.Booking, error)
}

type RouteFinder interface {
	FindRoute(ctx context.Context, from, to string, mode models.Mode) (*models.Route, error)
}

// Identity is the acting user as far as authorisation is concerned.
type Identity struct {
	UserID  int64
	IsAdmin bool
}

// IdentityResolver returns ErrUnauthorized for unknown users.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID int64) (Identity, error)
}

type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event models.BookingEvent) error
}

type nopPublisher struct{}

func (nopPublisher) PublishBookingEvent(context.Context, models.BookingEvent) error { return nil }
