package database

import (
	"context"
	"fmt"

	"ms-booking/internal/models"

	"github.com/uptrace/bun"
)

// tables is in dependency order.
var tables = []interface{}{
	(*models.City)(nil),
	(*models.User)(nil),
	(*models.Route)(nil),
	(*models.Booking)(nil),
}

// CreateSchema creates any missing table and index. Existing tables are left
// untouched.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().WithForeignKeys().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	_, err := db.NewCreateIndex().
		Model((*models.Booking)(nil)).
		Index("bookings_route_date_idx").
		Column("route_id", "journey_date").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create bookings index: %w", err)
	}

	_, err = db.NewCreateIndex().
		Model((*models.Booking)(nil)).
		Index("bookings_user_idx").
		Column("user_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create bookings index: %w", err)
	}
	return nil
}
