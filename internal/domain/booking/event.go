// internal/domain/booking/event.go
package booking

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventRentalCreated       EventType = "rental.created"
	EventRentalStatusChanged EventType = "rental.status_changed"
	EventRentalCancelled     EventType = "rental.cancelled"
	EventSaleCreated         EventType = "sale.created"
	EventSaleStatusChanged   EventType = "sale.status_changed"
	EventSaleCancelled       EventType = "sale.cancelled"
)

const (
	AggregateRental = "rental"
	AggregateSale   = "sale"

	EventStatusPending = "PENDING"
	EventStatusSent    = "SENT"
)

// OutboxEvent is written in the same transaction as the booking change it describes.
type OutboxEvent struct {
	ID            string          `json:"id" db:"id"`
	AggregateType string          `json:"aggregate_type" db:"aggregate_type"`
	AggregateID   int64           `json:"aggregate_id" db:"aggregate_id"`
	EventType     EventType       `json:"event_type" db:"event_type"`
	Payload       json.RawMessage `json:"payload" db:"payload"`
	Status        string          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	SentAt        *time.Time      `json:"sent_at,omitempty" db:"sent_at"`
}

// EventPayload is the body published for every booking event.
type EventPayload struct {
	Reference      string        `json:"reference"`
	Kind           string        `json:"kind"`
	BookingID      int64         `json:"booking_id"`
	VehicleID      int64         `json:"vehicle_id"`
	OwnerUserID    *int64        `json:"owner_user_id,omitempty"`
	Status         string        `json:"status"`
	PreviousStatus string        `json:"previous_status,omitempty"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	VehicleStatus  string        `json:"vehicle_status,omitempty"`
	OccurredAt     time.Time     `json:"occurred_at"`
}
