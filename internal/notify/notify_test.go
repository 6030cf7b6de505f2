package notify

import (
	"bytes"
	"context"
	"testing"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name  string
		event models.BookingEvent
		want  string
	}{
		{
			name:  "created",
			event: models.BookingEvent{Type: models.EventBookingCreated, Reference: "HT-ABC12345", TotalPrice: decimal.RequireFromString("135")},
			want:  "Booking confirmed! Your booking reference is HT-ABC12345. Total: £135.00",
		},
		{
			name:  "cancelled with refund",
			event: models.BookingEvent{Type: models.EventBookingCancelled, RefundAmount: amount("40.5")},
			want:  "Booking cancelled successfully. A refund of £40.50 will be processed.",
		},
		{
			name:  "cancelled without refund",
			event: models.BookingEvent{Type: models.EventBookingCancelled, RefundAmount: amount("0")},
			want:  "Booking cancelled successfully. No refund will be issued due to late cancellation.",
		},
		{
			name:  "unknown",
			event: models.BookingEvent{Type: "booking.archived"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.event))
		})
	}
}

func TestHandle_LogsNotification(t *testing.T) {
	var buf bytes.Buffer
	n := New(logger.NewWithWriter(&buf, logger.DEBUG))

	err := n.Handle(context.Background(), models.BookingEvent{
		Type:         models.EventBookingCancelled,
		Reference:    "HT-ABC12345",
		UserID:       42,
		RefundAmount: amount("81.00"),
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "HT-ABC12345")
	assert.Contains(t, buf.String(), "user 42")
	assert.Contains(t, buf.String(), "£81.00")
}
