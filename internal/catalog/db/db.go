package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ms-booking/internal/catalog"
	"ms-booking/internal/database"
	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ROUTES ----------------

// FindRoute → the route for an exact (from, to, mode) triple
func (d *DB) FindRoute(ctx context.Context, from, to string, mode models.Mode) (*models.Route, error) {
	var route models.Route
	err := d.Bun.NewSelect().
		Model(&route).
		Relation("FromCity").
		Relation("ToCity").
		Where("from_city.name = ?", from).
		Where("to_city.name = ?", to).
		Where("route.mode = ?", mode).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrRouteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// GetRoute → fetch one route by its ID
func (d *DB) GetRoute(ctx context.Context, id int64) (*models.Route, error) {
	var route models.Route
	err := d.Bun.NewSelect().
		Model(&route).
		Relation("FromCity").
		Relation("ToCity").
		Where("route.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", catalog.ErrRouteNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// ListRoutes → all routes with city names, optionally one mode only
func (d *DB) ListRoutes(ctx context.Context, mode models.Mode) ([]models.Route, error) {
	var routes []models.Route
	q := d.Bun.NewSelect().
		Model(&routes).
		Relation("FromCity").
		Relation("ToCity").
		OrderExpr("route.mode ASC, from_city.name ASC, to_city.name ASC")
	if mode != "" {
		q = q.Where("route.mode = ?", mode)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return routes, nil
}

func (d *DB) InsertRoute(ctx context.Context, route *models.Route) error {
	_, err := d.Bun.NewInsert().Model(route).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return catalog.ErrDuplicateRoute
	}
	return err
}

// UpdateRoute → guarded read-check-write; the route row is locked on PostgreSQL
// so bookings created meanwhile are counted before apply runs
func (d *DB) UpdateRoute(ctx context.Context, id int64, apply func(route *models.Route, usage catalog.RouteUsage) error) (*models.Route, error) {
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var route models.Route
		q := tx.NewSelect().Model(&route).Where("id = ?", id)
		if database.IsPostgres(tx) {
			q = q.For("UPDATE")
		}
		if err := q.Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: id %d", catalog.ErrRouteNotFound, id)
			}
			return err
		}

		usage, err := routeUsage(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := apply(&route, usage); err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model(&route).
			Column("from_city_id", "to_city_id", "mode", "departure_time", "arrival_time",
				"standard_fare", "business_fare", "available_seats").
			WherePK().
			Exec(ctx)
		if database.IsUniqueViolation(err) {
			return catalog.ErrDuplicateRoute
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return d.GetRoute(ctx, id)
}

// routeUsage → whether the route was ever booked and its busiest journey date
func routeUsage(ctx context.Context, db bun.IDB, id int64) (catalog.RouteUsage, error) {
	var usage catalog.RouteUsage
	booked, err := db.NewSelect().
		Model((*models.Booking)(nil)).
		Where("route_id = ?", id).
		Exists(ctx)
	if err != nil {
		return usage, err
	}
	usage.Booked = booked

	perDate := db.NewSelect().
		Model((*models.Booking)(nil)).
		ColumnExpr("SUM(passengers) AS seats").
		Where("route_id = ?", id).
		Where("status <> ?", string(models.StatusCancelled)).
		Group("journey_date")
	err = db.NewSelect().
		TableExpr("(?) AS per_date", perDate).
		ColumnExpr("COALESCE(MAX(seats), 0)").
		Scan(ctx, &usage.PeakPassengers)
	return usage, err
}

func (d *DB) DeleteRoute(ctx context.Context, id int64) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Route)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// RouteHasBookings counts bookings of any status, cancelled ones included.
func (d *DB) RouteHasBookings(ctx context.Context, id int64) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Booking)(nil)).
		Where("route_id = ?", id).
		Exists(ctx)
}

// ---------------- CITIES ----------------

func (d *DB) ListCities(ctx context.Context) ([]models.City, error) {
	var cities []models.City
	err := d.Bun.NewSelect().Model(&cities).Order("name ASC").Scan(ctx)
	return cities, err
}

func (d *DB) CityExists(ctx context.Context, id int64) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.City)(nil)).
		Where("id = ?", id).
		Exists(ctx)
}

func (d *DB) InsertCity(ctx context.Context, city *models.City) error {
	_, err := d.Bun.NewInsert().Model(city).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", catalog.ErrDuplicateCity, city.Name)
	}
	return err
}

// ---------------- SEED ----------------

// Seed inserts cities and routes in one transaction when the city table is
// empty. It reports whether anything was written.
func (d *DB) Seed(ctx context.Context, cityNames []string, rows []catalog.SeedRoute) (bool, error) {
	seeded := false
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		populated, err := tx.NewSelect().Model((*models.City)(nil)).Exists(ctx)
		if err != nil || populated {
			return err
		}

		cities := make([]models.City, len(cityNames))
		for i, name := range cityNames {
			cities[i] = models.City{Name: name}
		}
		if _, err := tx.NewInsert().Model(&cities).Exec(ctx); err != nil {
			return fmt.Errorf("insert cities: %w", err)
		}
		ids := make(map[string]int64, len(cities))
		for _, c := range cities {
			ids[c.Name] = c.ID
		}

		routes := make([]models.Route, 0, len(rows))
		for _, r := range rows {
			from, okFrom := ids[r.From]
			to, okTo := ids[r.To]
			if !okFrom || !okTo {
				return fmt.Errorf("%w: %s to %s", catalog.ErrCityNotFound, r.From, r.To)
			}
			routes = append(routes, models.Route{
				FromCityID:     from,
				ToCityID:       to,
				Mode:           r.Mode,
				DepartureTime:  r.Departure,
				ArrivalTime:    r.Arrival,
				StandardFare:   decimal.NewFromInt(r.Standard),
				BusinessFare:   decimal.NewFromInt(r.Business),
				AvailableSeats: r.Seats,
			})
		}
		if _, err := tx.NewInsert().Model(&routes).Exec(ctx); err != nil {
			return fmt.Errorf("insert routes: %w", err)
		}
		seeded = true
		return nil
	})
	return seeded, err
}
