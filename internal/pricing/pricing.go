// Package pricing computes fares for a booking request. Everything here is a
// pure function of its inputs; the caller supplies "today".
package pricing

import (
	"time"

	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
)

// Fares is the fare table of a route.
type Fares struct {
	Standard decimal.Decimal
	Business decimal.Decimal
}

func FaresOf(r models.Route) Fares {
	return Fares{Standard: r.StandardFare, Business: r.BusinessFare}
}

// Breakdown is a priced quote. All amounts carry two decimal places.
type Breakdown struct {
	UnitPrice       decimal.Decimal `json:"unit_price"`
	BasePrice       decimal.Decimal `json:"base_price"`
	Discount        decimal.Decimal `json:"discount"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	DiscountPercent int             `json:"discount_percent"`
	DaysInAdvance   int             `json:"days_in_advance"`
}

type tier struct {
	minDays int
	percent int
}

// advanceTiers is ordered from the highest threshold down; first match wins.
var advanceTiers = []tier{
	{minDays: 80, percent: 25},
	{minDays: 60, percent: 15},
	{minDays: 45, percent: 10},
}

// DiscountPercent returns the advance-purchase discount for a booking made
// the given number of days ahead. Negative values earn nothing.
func DiscountPercent(daysInAdvance int) int {
	for _, t := range advanceTiers {
		if daysInAdvance >= t.minDays {
			return t.percent
		}
	}
	return 0
}

// Quote prices passengers seats of the given class for journeyDate, as seen
// on today.
func Quote(fares Fares, class models.ClassType, passengers int, journeyDate, today time.Time) Breakdown {
	unit := fares.Standard
	if class == models.ClassBusiness {
		unit = fares.Business
	}

	days := DaysBetween(today, journeyDate)
	pct := DiscountPercent(days)

	base := Round(unit.Mul(decimal.NewFromInt(int64(passengers))))
	discount := Round(base.Mul(percent(pct)))

	return Breakdown{
		UnitPrice:       Round(unit),
		BasePrice:       base,
		Discount:        discount,
		TotalPrice:      base.Sub(discount),
		DiscountPercent: pct,
		DaysInAdvance:   days,
	}
}

// DaysBetween counts whole calendar days from one date to another, ignoring
// the time of day. The result is negative when to is before from.
func DaysBetween(from, to time.Time) int {
	return int(Date(to).Sub(Date(from)) / (24 * time.Hour))
}

// Date truncates t to midnight UTC of its own calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Round applies the currency rounding: two places, half to even.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

func percent(p int) decimal.Decimal {
	return decimal.New(int64(p), -2)
}
