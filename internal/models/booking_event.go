package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingEventType string

const (
	EventBookingCreated   BookingEventType = "booking.created"
	EventBookingCancelled BookingEventType = "booking.cancelled"
)

// BookingEvent is the message published to Kafka when a booking changes state.
type BookingEvent struct {
	Type         BookingEventType `json:"type"`
	BookingID    int64            `json:"booking_id"`
	Reference    string           `json:"reference"`
	UserID       int64            `json:"user_id"`
	RouteID      int64            `json:"route_id"`
	JourneyDate  string           `json:"journey_date"`
	Passengers   int              `json:"passengers"`
	ClassType    ClassType        `json:"class_type"`
	TotalPrice   decimal.Decimal  `json:"total_price"`
	RefundAmount *decimal.Decimal `json:"refund_amount,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

// NewBookingEvent snapshots b. Cancellation events carry the refund.
func NewBookingEvent(t BookingEventType, b Booking, at time.Time) BookingEvent {
	ev := BookingEvent{
		Type:        t,
		BookingID:   b.ID,
		Reference:   b.Reference,
		UserID:      b.UserID,
		RouteID:     b.RouteID,
		JourneyDate: b.JourneyDate,
		Passengers:  b.Passengers,
		ClassType:   b.ClassType,
		TotalPrice:  b.TotalPrice,
		OccurredAt:  at.UTC(),
	}
	if b.RefundAmount.Valid {
		refund := b.RefundAmount.Decimal
		ev.RefundAmount = &refund
	}
	return ev
}
