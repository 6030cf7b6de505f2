// Package analytics computes the admin revenue reports. Revenue is what the
// business keeps: the total price of each booking minus any refund paid.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-booking/internal/clock"
	"ms-booking/internal/models"
	"ms-booking/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

var (
	ErrUnknownReport = errors.New("unknown report")
	ErrInvalidPeriod = errors.New("invalid reporting period")
)

const (
	DefaultPeriodDays = 30
	maxPeriodDays     = 366
)

// Report kinds accepted by Generate.
const (
	ReportDashboard        = "dashboard"
	ReportDailySales       = "daily-sales"
	ReportJourneySales     = "journey-sales"
	ReportTopCustomers     = "top-customers"
	ReportRoutePerformance = "route-performance"
)

// Service handles analytics operations
type Service struct {
	db    *DB
	clock clock.Clock
}

// NewService creates a new analytics service
func NewService(db *bun.DB, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Service{db: NewDB(db), clock: clk}
}

// DailySales is the revenue booked on one calendar day.
type DailySales struct {
	Date     string          `json:"date"`
	Bookings int             `json:"bookings"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type ModeSales struct {
	Mode     models.Mode     `json:"mode"`
	Bookings int             `json:"bookings"`
	Revenue  decimal.Decimal `json:"revenue"`
	// SharePercent is this mode's part of all revenue, one decimal place.
	SharePercent decimal.Decimal `json:"share_percent"`
}

type CustomerSpend struct {
	UserID   int64           `json:"user_id"`
	Name     string          `json:"name"`
	Bookings int             `json:"bookings"`
	Spent    decimal.Decimal `json:"spent"`
}

type RoutePerformance struct {
	RouteID    int64           `json:"route_id"`
	FromCity   string          `json:"from_city"`
	ToCity     string          `json:"to_city"`
	Mode       models.Mode     `json:"mode"`
	Bookings   int             `json:"bookings"`
	Passengers int             `json:"passengers"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// Dashboard is the summary shown on the admin landing page.
type Dashboard struct {
	PeriodDays           int                `json:"period_days"`
	TotalBookings        int                `json:"total_bookings"`
	Revenue              decimal.Decimal    `json:"revenue"`
	NewUsers             int                `json:"new_users"`
	PopularRoute         string             `json:"popular_route"`
	PopularRouteBookings int                `json:"popular_route_bookings"`
	SalesByMode          []ModeSales        `json:"sales_by_mode"`
	TopRoutes            []RoutePerformance `json:"top_routes"`
	TopCustomers         []CustomerSpend    `json:"top_customers"`
}

func (s *Service) since(days int) (time.Time, error) {
	if days <= 0 || days > maxPeriodDays {
		return time.Time{}, fmt.Errorf("%w: must be between 1 and %d days, got %d", ErrInvalidPeriod, maxPeriodDays, days)
	}
	return s.clock.Now().UTC().AddDate(0, 0, -days), nil
}

// Generate builds the named report over the last periodDays days.
func (s *Service) Generate(ctx context.Context, kind string, periodDays int) (interface{}, error) {
	switch kind {
	case ReportDashboard:
		return s.Dashboard(ctx, periodDays)
	case ReportDailySales:
		return s.DailySales(ctx, periodDays)
	case ReportJourneySales:
		return s.SalesByMode(ctx, periodDays)
	case ReportTopCustomers:
		return s.TopCustomers(ctx, periodDays, 10)
	case ReportRoutePerformance:
		return s.RoutePerformance(ctx, periodDays)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownReport, kind)
}

func (s *Service) DailySales(ctx context.Context, periodDays int) ([]DailySales, error) {
	since, err := s.since(periodDays)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.DailySales(ctx, since)
	if err != nil {
		return nil, err
	}
	out := make([]DailySales, 0, len(rows))
	for _, r := range rows {
		out = append(out, DailySales{Date: r.Day, Bookings: r.Bookings, Revenue: pricing.Round(r.Revenue)})
	}
	return out, nil
}

// SalesByMode always lists every mode, with zeroes for modes without sales.
func (s *Service) SalesByMode(ctx context.Context, periodDays int) ([]ModeSales, error) {
	since, err := s.since(periodDays)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.SalesByMode(ctx, since)
	if err != nil {
		return nil, err
	}

	byMode := make(map[models.Mode]modeSalesRow, len(rows))
	total := decimal.Zero
	for _, r := range rows {
		byMode[r.Mode] = r
		total = total.Add(r.Revenue)
	}

	out := make([]ModeSales, 0, len(models.Modes))
	for _, mode := range models.Modes {
		r := byMode[mode]
		share := decimal.Zero
		if total.IsPositive() {
			share = r.Revenue.Div(total).Mul(decimal.NewFromInt(100)).RoundBank(1)
		}
		out = append(out, ModeSales{
			Mode:         mode,
			Bookings:     r.Bookings,
			Revenue:      pricing.Round(r.Revenue),
			SharePercent: share,
		})
	}
	return out, nil
}

func (s *Service) TopCustomers(ctx context.Context, periodDays, limit int) ([]CustomerSpend, error) {
	since, err := s.since(periodDays)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.TopCustomers(ctx, since, limit)
	if err != nil {
		return nil, err
	}
	out := make([]CustomerSpend, 0, len(rows))
	for _, r := range rows {
		out = append(out, CustomerSpend{
			UserID:   r.UserID,
			Name:     r.FirstName + " " + r.LastName,
			Bookings: r.Bookings,
			Spent:    pricing.Round(r.Spent),
		})
	}
	return out, nil
}

// RoutePerformance ranks routes by revenue. Passenger counts exclude
// cancelled bookings.
func (s *Service) RoutePerformance(ctx context.Context, periodDays int) ([]RoutePerformance, error) {
	since, err := s.since(periodDays)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.RoutePerformance(ctx, since)
	if err != nil {
		return nil, err
	}
	out := make([]RoutePerformance, 0, len(rows))
	for _, r := range rows {
		out = append(out, RoutePerformance{
			RouteID:    r.RouteID,
			FromCity:   r.FromCity,
			ToCity:     r.ToCity,
			Mode:       r.Mode,
			Bookings:   r.Bookings,
			Passengers: r.Passengers,
			Revenue:    pricing.Round(r.Revenue),
		})
	}
	return out, nil
}

func (s *Service) Dashboard(ctx context.Context, periodDays int) (*Dashboard, error) {
	since, err := s.since(periodDays)
	if err != nil {
		return nil, err
	}

	totals, err := s.db.Totals(ctx, since)
	if err != nil {
		return nil, err
	}
	newUsers, err := s.db.NewUsers(ctx, since)
	if err != nil {
		return nil, err
	}
	modes, err := s.SalesByMode(ctx, periodDays)
	if err != nil {
		return nil, err
	}
	routes, err := s.RoutePerformance(ctx, periodDays)
	if err != nil {
		return nil, err
	}
	customers, err := s.TopCustomers(ctx, periodDays, 3)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		PeriodDays:    periodDays,
		TotalBookings: totals.Bookings,
		Revenue:       pricing.Round(totals.Revenue),
		NewUsers:      newUsers,
		PopularRoute:  "N/A",
		SalesByMode:   modes,
		TopCustomers:  customers,
	}
	for _, r := range routes {
		if r.Bookings > d.PopularRouteBookings {
			d.PopularRoute = r.FromCity + "-" + r.ToCity
			d.PopularRouteBookings = r.Bookings
		}
	}
	if len(routes) > 3 {
		routes = routes[:3]
	}
	d.TopRoutes = routes
	return d, nil
}
