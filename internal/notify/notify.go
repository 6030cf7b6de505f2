// Package notify turns booking events into customer-facing messages.
package notify

import (
	"context"
	"fmt"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
)

// Message renders the text a customer is shown for event.
func Message(event models.BookingEvent) string {
	switch event.Type {
	case models.EventBookingCreated:
		return fmt.Sprintf("Booking confirmed! Your booking reference is %s. Total: £%s",
			event.Reference, event.TotalPrice.StringFixed(2))
	case models.EventBookingCancelled:
		refund := decimal.Zero
		if event.RefundAmount != nil {
			refund = *event.RefundAmount
		}
		return CancellationMessage(refund)
	}
	return ""
}

// CancellationMessage tells the customer whether a refund is on its way.
func CancellationMessage(refund decimal.Decimal) string {
	if refund.IsPositive() {
		return fmt.Sprintf("Booking cancelled successfully. A refund of £%s will be processed.", refund.StringFixed(2))
	}
	return "Booking cancelled successfully. No refund will be issued due to late cancellation."
}

type Notifier struct {
	Logger *logger.Logger
}

func New(log *logger.Logger) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{Logger: log}
}

// Handle logs the notification for one event. Unknown event types are
// ignored.
func (n *Notifier) Handle(_ context.Context, event models.BookingEvent) error {
	msg := Message(event)
	if msg == "" {
		n.Logger.Debug("NOTIFY", fmt.Sprintf("ignoring %s event for %s", event.Type, event.Reference))
		return nil
	}
	n.Logger.LogBooking("NOTIFY", event.Reference, fmt.Sprintf("user %d: %s", event.UserID, msg))
	return nil
}
