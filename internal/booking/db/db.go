package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-booking/internal/booking"
	"ms-booking/internal/database"
	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// DB is the bun implementation of booking.Store.
type DB struct {
	Bun *bun.DB

	tx bun.IDB
}

func (d *DB) conn() bun.IDB {
	if d.tx != nil {
		return d.tx
	}
	return d.Bun
}

// RunInTx binds a copy of the store to a new transaction. Nested calls reuse
// the outer transaction.
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx booking.Store) error) error {
	if d.tx != nil {
		return fn(ctx, d)
	}
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &DB{Bun: d.Bun, tx: tx})
	})
}

// ---------------- INVENTORY ----------------

// CommittedPassengers → seats held by non-cancelled bookings on a route and date
func (d *DB) CommittedPassengers(ctx context.Context, routeID int64, journeyDate string) (int, error) {
	var total int
	err := d.conn().NewSelect().
		Model((*models.Booking)(nil)).
		ColumnExpr("COALESCE(SUM(passengers), 0)").
		Where("route_id = ?", routeID).
		Where("journey_date = ?", journeyDate).
		Where("status <> ?", string(models.StatusCancelled)).
		Scan(ctx, &total)
	return total, err
}

// LockRoute → the current route row, SELECT ... FOR UPDATE on PostgreSQL
func (d *DB) LockRoute(ctx context.Context, routeID int64) (*models.Route, error) {
	conn := d.conn()
	var route models.Route
	q := conn.NewSelect().
		Model(&route).
		Where("id = ?", routeID)
	if database.IsPostgres(conn) {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", booking.ErrRouteNotFound, routeID)
	}
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// ---------------- BOOKINGS ----------------

func (d *DB) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	return d.conn().NewSelect().
		Model((*models.Booking)(nil)).
		Where("reference = ?", ref).
		Exists(ctx)
}

func (d *DB) InsertBooking(ctx context.Context, b *models.Booking) error {
	_, err := d.conn().NewInsert().Model(b).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", booking.ErrDuplicateReference, b.Reference)
	}
	return err
}

// GetBooking → one booking with its route and city names
func (d *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	err := d.withRoute(d.conn().NewSelect().Model(&b)).
		Where("booking.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", booking.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// MarkCancelled → conditional update, a second cancel changes nothing
func (d *DB) MarkCancelled(ctx context.Context, id int64, refund decimal.Decimal, at time.Time) (bool, error) {
	res, err := d.conn().NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", string(models.StatusCancelled)).
		Set("refund_amount = ?", refund).
		Set("cancelled_at = ?", at).
		Where("id = ?", id).
		Where("status <> ?", string(models.StatusCancelled)).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (d *DB) ListByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.withRoute(d.conn().NewSelect().Model(&bookings)).
		Where("booking.user_id = ?", userID).
		Order("booking.journey_date DESC", "booking.id DESC").
		Scan(ctx)
	return bookings, err
}

// ListAll → most recent bookings across all users; limit <= 0 means no limit
func (d *DB) ListAll(ctx context.Context, limit int) ([]models.Booking, error) {
	var bookings []models.Booking
	q := d.withRoute(d.conn().NewSelect().Model(&bookings)).
		Relation("User").
		Order("booking.created_at DESC", "booking.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(ctx)
	return bookings, err
}

func (d *DB) withRoute(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Relation("Route").
		Relation("Route.FromCity").
		Relation("Route.ToCity")
}
