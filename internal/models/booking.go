package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type ClassType string

const (
	ClassStandard ClassType = "standard"
	ClassBusiness ClassType = "business"
)

func (c ClassType) Valid() bool {
	return c == ClassStandard || c == ClassBusiness
}

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to target.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	next, ok := bookingTransitions[s]
	return ok && len(next) == 0
}

// DateLayout is the calendar-date format of journey dates.
const DateLayout = "2006-01-02"

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID           int64               `bun:"id,pk,autoincrement" json:"id"`
	UserID       int64               `bun:"user_id,notnull" json:"user_id"`
	RouteID      int64               `bun:"route_id,notnull" json:"route_id"`
	Reference    string              `bun:"reference,notnull,unique" json:"reference"`
	JourneyDate  string              `bun:"journey_date,notnull" json:"journey_date"`
	Passengers   int                 `bun:"passengers,notnull" json:"passengers"`
	ClassType    ClassType           `bun:"class_type,notnull" json:"class_type"`
	BasePrice    decimal.Decimal     `bun:"base_price,type:decimal(10,2),notnull" json:"base_price"`
	Discount     decimal.Decimal     `bun:"discount,type:decimal(10,2),notnull" json:"discount"`
	TotalPrice   decimal.Decimal     `bun:"total_price,type:decimal(10,2),notnull" json:"total_price"`
	Status       BookingStatus       `bun:"status,notnull" json:"status"`
	RefundAmount decimal.NullDecimal `bun:"refund_amount,type:decimal(10,2)" json:"refund_amount,omitempty"`
	CreatedAt    time.Time           `bun:"created_at,notnull" json:"created_at"`
	CancelledAt  *time.Time          `bun:"cancelled_at,nullzero" json:"cancelled_at,omitempty"`

	Route *Route `bun:"rel:belongs-to,join:route_id=id" json:"route,omitempty"`
	User  *User  `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

// Journey parses the journey date as a UTC midnight.
func (b Booking) Journey() (time.Time, error) {
	return time.Parse(DateLayout, b.JourneyDate)
}
