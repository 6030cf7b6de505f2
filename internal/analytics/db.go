package analytics

import (
	"context"
	"fmt"
	"time"

	"ms-booking/internal/database"
	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// revenueExpr is money kept per booking: total price less any refund.
const revenueExpr = "COALESCE(SUM(b.total_price - COALESCE(b.refund_amount, 0)), 0)"

// DB handles analytics database operations
type DB struct {
	bun *bun.DB
}

// NewDB creates a new analytics DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// dayExpr renders created_at as YYYY-MM-DD in the connected dialect.
func (db *DB) dayExpr() string {
	if database.IsPostgres(db.bun) {
		return "TO_CHAR(b.created_at, 'YYYY-MM-DD')"
	}
	return "DATE(b.created_at)"
}

type totalsRow struct {
	Bookings int             `bun:"bookings"`
	Revenue  decimal.Decimal `bun:"revenue"`
}

func (db *DB) Totals(ctx context.Context, since time.Time) (totalsRow, error) {
	var row totalsRow
	err := db.bun.NewRaw(`
		SELECT COUNT(*) AS bookings, `+revenueExpr+` AS revenue
		FROM bookings AS b
		WHERE b.created_at >= ?`, since).
		Scan(ctx, &row)
	return row, err
}

func (db *DB) NewUsers(ctx context.Context, since time.Time) (int, error) {
	return db.bun.NewSelect().
		Model((*models.User)(nil)).
		Where("created_at >= ?", since).
		Count(ctx)
}

type dailyRow struct {
	Day      string          `bun:"day"`
	Bookings int             `bun:"bookings"`
	Revenue  decimal.Decimal `bun:"revenue"`
}

func (db *DB) DailySales(ctx context.Context, since time.Time) ([]dailyRow, error) {
	var rows []dailyRow
	day := db.dayExpr()
	err := db.bun.NewRaw(fmt.Sprintf(`
		SELECT %s AS day, COUNT(*) AS bookings, %s AS revenue
		FROM bookings AS b
		WHERE b.created_at >= ?
		GROUP BY %s
		ORDER BY day`, day, revenueExpr, day), since).
		Scan(ctx, &rows)
	return rows, err
}

type modeSalesRow struct {
	Mode     models.Mode     `bun:"mode"`
	Bookings int             `bun:"bookings"`
	Revenue  decimal.Decimal `bun:"revenue"`
}

func (db *DB) SalesByMode(ctx context.Context, since time.Time) ([]modeSalesRow, error) {
	var rows []modeSalesRow
	err := db.bun.NewRaw(`
		SELECT r.mode AS mode, COUNT(b.id) AS bookings, `+revenueExpr+` AS revenue
		FROM bookings AS b
		JOIN routes AS r ON r.id = b.route_id
		WHERE b.created_at >= ?
		GROUP BY r.mode
		ORDER BY r.mode`, since).
		Scan(ctx, &rows)
	return rows, err
}

type customerRow struct {
	UserID    int64           `bun:"user_id"`
	FirstName string          `bun:"first_name"`
	LastName  string          `bun:"last_name"`
	Bookings  int             `bun:"bookings"`
	Spent     decimal.Decimal `bun:"spent"`
}

func (db *DB) TopCustomers(ctx context.Context, since time.Time, limit int) ([]customerRow, error) {
	var rows []customerRow
	err := db.bun.NewRaw(`
		SELECT u.id AS user_id, u.first_name, u.last_name,
			COUNT(b.id) AS bookings, `+revenueExpr+` AS spent
		FROM bookings AS b
		JOIN users AS u ON u.id = b.user_id
		WHERE b.created_at >= ?
		GROUP BY u.id, u.first_name, u.last_name
		ORDER BY spent DESC, u.id ASC
		LIMIT ?`, since, limit).
		Scan(ctx, &rows)
	return rows, err
}

type routeRow struct {
	RouteID    int64           `bun:"route_id"`
	FromCity   string          `bun:"from_city"`
	ToCity     string          `bun:"to_city"`
	Mode       models.Mode     `bun:"mode"`
	Bookings   int             `bun:"bookings"`
	Passengers int             `bun:"passengers"`
	Revenue    decimal.Decimal `bun:"revenue"`
}

func (db *DB) RoutePerformance(ctx context.Context, since time.Time) ([]routeRow, error) {
	var rows []routeRow
	err := db.bun.NewRaw(`
		SELECT r.id AS route_id, fc.name AS from_city, tc.name AS to_city, r.mode AS mode,
			COUNT(b.id) AS bookings,
			COALESCE(SUM(CASE WHEN b.status <> 'cancelled' THEN b.passengers ELSE 0 END), 0) AS passengers,
			`+revenueExpr+` AS revenue
		FROM bookings AS b
		JOIN routes AS r ON r.id = b.route_id
		JOIN cities AS fc ON fc.id = r.from_city_id
		JOIN cities AS tc ON tc.id = r.to_city_id
		WHERE b.created_at >= ?
		GROUP BY r.id, fc.name, tc.name, r.mode
		ORDER BY revenue DESC, r.id ASC`, since).
		Scan(ctx, &rows)
	return rows, err
}
