package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Refund is the outcome of a cancellation.
type Refund struct {
	Amount        decimal.Decimal `json:"refund_amount"`
	Fee           decimal.Decimal `json:"cancellation_fee"`
	Percent       int             `json:"refund_percent"`
	DaysToJourney int             `json:"days_to_journey"`
}

// RefundPercent maps days left before the journey to the share of the total
// price that is returned.
func RefundPercent(daysToJourney int) int {
	switch {
	case daysToJourney <= 30:
		return 0
	case daysToJourney <= 60:
		return 60
	default:
		return 100
	}
}

// CancellationRefund computes the refund on total for a journey on
// journeyDate cancelled on today.
func CancellationRefund(total decimal.Decimal, journeyDate, today time.Time) Refund {
	days := DaysBetween(today, journeyDate)
	pct := RefundPercent(days)
	amount := Round(total.Mul(percent(pct)))
	return Refund{
		Amount:        amount,
		Fee:           Round(total).Sub(amount),
		Percent:       pct,
		DaysToJourney: days,
	}
}
