// Package inventory answers how many seats of a route are left on a given
// journey date.
package inventory

import (
	"context"
	"fmt"

	"ms-booking/internal/models"
)

// Counter sums the passengers of non-cancelled bookings for a route and
// journey date. The booking store implements it, both on the pool and inside
// a transaction.
type Counter interface {
	CommittedPassengers(ctx context.Context, routeID int64, journeyDate string) (int, error)
}

type Ledger struct {
	counter Counter
}

// NewLedger binds a ledger to a read scope. Bind it to the booking
// transaction when the answer guards an insert.
func NewLedger(counter Counter) *Ledger {
	return &Ledger{counter: counter}
}

func (l *Ledger) SeatsCommitted(ctx context.Context, routeID int64, journeyDate string) (int, error) {
	n, err := l.counter.CommittedPassengers(ctx, routeID, journeyDate)
	if err != nil {
		return 0, fmt.Errorf("count seats for route %d on %s: %w", routeID, journeyDate, err)
	}
	return n, nil
}

// HasCapacity reports whether requested more passengers fit on the route.
// The comparison is made against the seats left so that no sum can overflow.
func (l *Ledger) HasCapacity(ctx context.Context, route models.Route, journeyDate string, requested int) (bool, error) {
	if requested < 0 {
		return false, nil
	}
	committed, err := l.SeatsCommitted(ctx, route.ID, journeyDate)
	if err != nil {
		return false, err
	}
	return requested <= route.AvailableSeats-committed, nil
}

// Remaining is the number of unsold seats, never below zero.
func (l *Ledger) Remaining(ctx context.Context, route models.Route, journeyDate string) (int, error) {
	committed, err := l.SeatsCommitted(ctx, route.ID, journeyDate)
	if err != nil {
		return 0, err
	}
	if left := route.AvailableSeats - committed; left > 0 {
		return left, nil
	}
	return 0, nil
}
