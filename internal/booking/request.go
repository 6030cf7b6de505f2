package booking

import (
	"fmt"
	"time"

	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
)

// Selector identifies a route by city names and mode.
type Selector struct {
	From string      `json:"from"`
	To   string      `json:"to"`
	Mode models.Mode `json:"mode"`
}

func (s Selector) validate() error {
	if s.From == "" || s.To == "" {
		return fmt.Errorf("%w: departure and arrival cities are required", ErrInvalidRequest)
	}
	if s.From == s.To {
		return fmt.Errorf("%w: departure and arrival cities must be different", ErrInvalidRequest)
	}
	if !s.Mode.Valid() {
		return fmt.Errorf("%w: unknown travel mode %q", ErrInvalidRequest, s.Mode)
	}
	return nil
}

// MaxPassengers is the largest party a single booking may carry.
const MaxPassengers = 1000

type QuoteRequest struct {
	Selector
	JourneyDate string           `json:"journey_date"`
	Passengers  int              `json:"passengers"`
	ClassType   models.ClassType `json:"class_type"`
}

// CreateRequest carries the same fields as a quote.
type CreateRequest = QuoteRequest

// validate checks everything but the selector and returns the parsed journey
// date.
func (r QuoteRequest) validate() (time.Time, error) {
	if r.Passengers < 1 {
		return time.Time{}, fmt.Errorf("%w: at least one passenger is required", ErrInvalidRequest)
	}
	if r.Passengers > MaxPassengers {
		return time.Time{}, fmt.Errorf("%w: at most %d passengers per booking", ErrInvalidRequest, MaxPassengers)
	}
	if !r.ClassType.Valid() {
		return time.Time{}, fmt.Errorf("%w: unknown class %q", ErrInvalidRequest, r.ClassType)
	}
	return parseJourneyDate(r.JourneyDate)
}

func parseJourneyDate(s string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: journey date %q is not YYYY-MM-DD", ErrInvalidRequest, s)
	}
	return d, nil
}

// Cancellation is the outcome of a successful cancel.
type Cancellation struct {
	BookingID       int64           `json:"booking_id"`
	Reference       string          `json:"reference"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	CancellationFee decimal.Decimal `json:"cancellation_fee"`
	RefundPercent   int             `json:"refund_percent"`
}
