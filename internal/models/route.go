package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Mode is the transport mode a route is operated with.
type Mode string

const (
	ModeAir   Mode = "air"
	ModeCoach Mode = "coach"
	ModeTrain Mode = "train"
)

// Modes lists every supported mode in display order.
var Modes = []Mode{ModeAir, ModeCoach, ModeTrain}

func (m Mode) Valid() bool {
	switch m {
	case ModeAir, ModeCoach, ModeTrain:
		return true
	}
	return false
}

// OperatingDays is the weekly pattern advertised for each mode.
func (m Mode) OperatingDays() string {
	switch m {
	case ModeAir:
		return "Mon-Fri"
	case ModeCoach:
		return "Sat-Thurs"
	default:
		return "All week"
	}
}

// ClockLayout is the time-of-day format used for departure and arrival.
const ClockLayout = "15:04"

// Route is a reusable timetable entry. Capacity applies to each journey date
// separately.
type Route struct {
	bun.BaseModel `bun:"table:routes"`

	ID             int64           `bun:"id,pk,autoincrement" json:"id"`
	FromCityID     int64           `bun:"from_city_id,notnull,unique:route_triple" json:"from_city_id"`
	ToCityID       int64           `bun:"to_city_id,notnull,unique:route_triple" json:"to_city_id"`
	Mode           Mode            `bun:"mode,notnull,unique:route_triple" json:"mode"`
	DepartureTime  string          `bun:"departure_time,notnull" json:"departure_time"`
	ArrivalTime    string          `bun:"arrival_time,notnull" json:"arrival_time"`
	StandardFare   decimal.Decimal `bun:"standard_fare,type:decimal(10,2),notnull" json:"standard_fare"`
	BusinessFare   decimal.Decimal `bun:"business_fare,type:decimal(10,2),notnull" json:"business_fare"`
	AvailableSeats int             `bun:"available_seats,notnull" json:"available_seats"`
	CreatedAt      time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	FromCity *City `bun:"rel:belongs-to,join:from_city_id=id" json:"from_city,omitempty"`
	ToCity   *City `bun:"rel:belongs-to,join:to_city_id=id" json:"to_city,omitempty"`
}

// Duration returns the scheduled travel time. Arrivals earlier than the
// departure are on the following day.
func (r Route) Duration() (time.Duration, error) {
	dep, err := time.Parse(ClockLayout, r.DepartureTime)
	if err != nil {
		return 0, fmt.Errorf("departure time %q: %w", r.DepartureTime, err)
	}
	arr, err := time.Parse(ClockLayout, r.ArrivalTime)
	if err != nil {
		return 0, fmt.Errorf("arrival time %q: %w", r.ArrivalTime, err)
	}
	d := arr.Sub(dep)
	if d < 0 {
		d += 24 * time.Hour
	}
	return d, nil
}

// Key renders the "From-To" label used by the booking screens.
func (r Route) Key() string {
	if r.FromCity == nil || r.ToCity == nil {
		return fmt.Sprintf("%d-%d", r.FromCityID, r.ToCityID)
	}
	return r.FromCity.Name + "-" + r.ToCity.Name
}
