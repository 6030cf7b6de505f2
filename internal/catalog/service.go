// Package catalog holds the cities and the route timetable and answers route
// lookups by city pair and mode.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
)

type DBLayer interface {
	FindRoute(ctx context.Context, from, to string, mode models.Mode) (*models.Route, error)
	GetRoute(ctx context.Context, id int64) (*models.Route, error)
	ListRoutes(ctx context.Context, mode models.Mode) ([]models.Route, error)
	ListCities(ctx context.Context) ([]models.City, error)
	CityExists(ctx context.Context, id int64) (bool, error)
	InsertCity(ctx context.Context, city *models.City) error
	InsertRoute(ctx context.Context, route *models.Route) error
	// UpdateRoute hands apply the current row and its booking usage inside one
	// transaction and writes the route back when apply returns nil.
	UpdateRoute(ctx context.Context, id int64, apply func(route *models.Route, usage RouteUsage) error) (*models.Route, error)
	DeleteRoute(ctx context.Context, id int64) error
	RouteHasBookings(ctx context.Context, id int64) (bool, error)
	Seed(ctx context.Context, cities []string, routes []SeedRoute) (bool, error)
}

// RouteUsage summarises the bookings held against a route.
type RouteUsage struct {
	// Booked is true once any booking, cancelled or not, references the route.
	Booked bool
	// PeakPassengers is the largest number of seats sold on a single journey
	// date.
	PeakPassengers int
}

type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{DB: db, Logger: log}
}

// FindRoute looks a route up by exact, case-sensitive city names.
func (s *Service) FindRoute(ctx context.Context, from, to string, mode models.Mode) (*models.Route, error) {
	route, err := s.DB.FindRoute(ctx, from, to, mode)
	if err != nil {
		if errors.Is(err, ErrRouteNotFound) {
			return nil, fmt.Errorf("%w: %s to %s by %s", ErrRouteNotFound, from, to, mode)
		}
		return nil, err
	}
	return route, nil
}

func (s *Service) GetRoute(ctx context.Context, id int64) (*models.Route, error) {
	return s.DB.GetRoute(ctx, id)
}

// ListRoutes returns every route with its city names. An empty mode lists all
// modes.
func (s *Service) ListRoutes(ctx context.Context, mode models.Mode) ([]models.Route, error) {
	if mode != "" && !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidRoute, mode)
	}
	return s.DB.ListRoutes(ctx, mode)
}

func (s *Service) ListCities(ctx context.Context) ([]models.City, error) {
	return s.DB.ListCities(ctx)
}

func (s *Service) AddCity(ctx context.Context, name string) (*models.City, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: city name is required", ErrInvalidRoute)
	}
	city := &models.City{Name: name}
	if err := s.DB.InsertCity(ctx, city); err != nil {
		return nil, err
	}
	s.Logger.LogDatabase("INSERT", "cities", fmt.Sprintf("added %s (id %d)", city.Name, city.ID))
	return city, nil
}

// MaxRouteSeats is the largest capacity a route may be given.
const MaxRouteSeats = 10000

// RouteInput carries the editable fields of a route.
type RouteInput struct {
	FromCityID     int64           `json:"from_city_id"`
	ToCityID       int64           `json:"to_city_id"`
	Mode           models.Mode     `json:"mode"`
	DepartureTime  string          `json:"departure_time"`
	ArrivalTime    string          `json:"arrival_time"`
	StandardFare   decimal.Decimal `json:"standard_fare"`
	BusinessFare   decimal.Decimal `json:"business_fare"`
	AvailableSeats int             `json:"available_seats"`
}

func (in RouteInput) validate() error {
	switch {
	case in.FromCityID == in.ToCityID:
		return fmt.Errorf("%w: departure and arrival cities must differ", ErrInvalidRoute)
	case !in.Mode.Valid():
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRoute, in.Mode)
	case in.StandardFare.IsNegative() || in.BusinessFare.IsNegative():
		return fmt.Errorf("%w: fares must not be negative", ErrInvalidRoute)
	case in.AvailableSeats <= 0:
		return fmt.Errorf("%w: available seats must be positive", ErrInvalidRoute)
	case in.AvailableSeats > MaxRouteSeats:
		return fmt.Errorf("%w: available seats must not exceed %d", ErrInvalidRoute, MaxRouteSeats)
	}
	for _, clock := range []string{in.DepartureTime, in.ArrivalTime} {
		if _, err := time.Parse(models.ClockLayout, clock); err != nil {
			return fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidRoute, clock)
		}
	}
	return nil
}

func (in RouteInput) applyTo(r *models.Route) {
	r.FromCityID = in.FromCityID
	r.ToCityID = in.ToCityID
	r.Mode = in.Mode
	r.DepartureTime = in.DepartureTime
	r.ArrivalTime = in.ArrivalTime
	r.StandardFare = in.StandardFare.RoundBank(2)
	r.BusinessFare = in.BusinessFare.RoundBank(2)
	r.AvailableSeats = in.AvailableSeats
}

func (s *Service) checkCities(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		ok, err := s.DB.CityExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: id %d", ErrCityNotFound, id)
		}
	}
	return nil
}

func (s *Service) AddRoute(ctx context.Context, in RouteInput) (*models.Route, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkCities(ctx, in.FromCityID, in.ToCityID); err != nil {
		return nil, err
	}

	route := &models.Route{}
	in.applyTo(route)
	if err := s.DB.InsertRoute(ctx, route); err != nil {
		return nil, err
	}
	s.Logger.LogDatabase("INSERT", "routes", fmt.Sprintf("route %d %d->%d by %s", route.ID, route.FromCityID, route.ToCityID, route.Mode))
	return route, nil
}

// UpdateRoute rewrites a route in place. Existing bookings keep the prices
// they were sold at. Once booked, a route keeps its cities and mode, and its
// seats cannot drop below what is already sold on any journey date.
func (s *Service) UpdateRoute(ctx context.Context, id int64, in RouteInput) (*models.Route, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkCities(ctx, in.FromCityID, in.ToCityID); err != nil {
		return nil, err
	}

	route, err := s.DB.UpdateRoute(ctx, id, func(route *models.Route, usage RouteUsage) error {
		moved := route.FromCityID != in.FromCityID || route.ToCityID != in.ToCityID || route.Mode != in.Mode
		if moved && usage.Booked {
			return fmt.Errorf("%w: route %d cannot change cities or mode", ErrRouteInUse, id)
		}
		if in.AvailableSeats < usage.PeakPassengers {
			return fmt.Errorf("%w: route %d has %d seats sold on one date, cannot reduce to %d",
				ErrSeatsBelowSold, id, usage.PeakPassengers, in.AvailableSeats)
		}
		in.applyTo(route)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Logger.LogDatabase("UPDATE", "routes", fmt.Sprintf("route %d updated", route.ID))
	return route, nil
}

// DeleteRoute removes a route that has never been booked.
func (s *Service) DeleteRoute(ctx context.Context, id int64) error {
	if _, err := s.DB.GetRoute(ctx, id); err != nil {
		return err
	}
	used, err := s.DB.RouteHasBookings(ctx, id)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("%w: route %d", ErrRouteInUse, id)
	}
	if err := s.DB.DeleteRoute(ctx, id); err != nil {
		return err
	}
	s.Logger.LogDatabase("DELETE", "routes", fmt.Sprintf("route %d deleted", id))
	return nil
}

// Seed loads the default timetable into an empty catalog.
func (s *Service) Seed(ctx context.Context) error {
	seeded, err := s.DB.Seed(ctx, seedCities, seedRoutes)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if seeded {
		s.Logger.Info("CATALOG", fmt.Sprintf("Seeded %d cities and %d routes", len(seedCities), len(seedRoutes)))
	} else {
		s.Logger.Debug("CATALOG", "Catalog already populated, skipping seed")
	}
	return nil
}
