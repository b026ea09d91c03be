// internal/domain/booking/entity.go
package booking

import (
	"time"

	"vehicle-booking-service/internal/domain/vehicle"
	"vehicle-booking-service/internal/pkg/money"
)

type Rental struct {
	ID        int64    `json:"id" db:"id"`
	Reference string   `json:"reference" db:"reference"`
	VehicleID int64    `json:"vehicle_id" db:"vehicle_id"`
	Owner     OwnerRef `json:"owner"`

	// Rental period, half-open [StartDate, EndDate) at day granularity
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
	Days      int       `json:"days" db:"days"`

	TotalPrice    money.Cents   `json:"total_price" db:"total_price"`
	Status        RentalStatus  `json:"status" db:"status"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentMethod PaymentMethod `json:"payment_method" db:"payment_method"`
	Notes         string        `json:"notes,omitempty" db:"notes"`

	// Cancellation
	CancellationReason *string    `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancelledBy        *int64     `json:"cancelled_by,omitempty" db:"cancelled_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Vehicle *vehicle.Summary `json:"vehicle,omitempty"`
}

// Interval returns the rental period.
func (r *Rental) Interval() Interval {
	return Interval{Start: r.StartDate, End: r.EndDate}
}

// MarkCancelled records cancellation metadata alongside the status change.
func (r *Rental) MarkCancelled(reason string, by int64, at time.Time) {
	r.Status = RentalStatusCancelled
	r.CancellationReason = &reason
	r.CancelledAt = &at
	r.CancelledBy = &by
	r.UpdatedAt = at
}

type Sale struct {
	ID        int64    `json:"id" db:"id"`
	Reference string   `json:"reference" db:"reference"`
	VehicleID int64    `json:"vehicle_id" db:"vehicle_id"`
	Owner     OwnerRef `json:"owner"`

	// Snapshot of the vehicle sale price at booking time
	SalePrice     money.Cents   `json:"sale_price" db:"sale_price"`
	Status        SaleStatus    `json:"status" db:"status"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentMethod PaymentMethod `json:"payment_method" db:"payment_method"`
	Notes         string        `json:"notes,omitempty" db:"notes"`

	CancellationReason *string    `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancelledBy        *int64     `json:"cancelled_by,omitempty" db:"cancelled_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Vehicle *vehicle.Summary `json:"vehicle,omitempty"`
}

func (s *Sale) MarkCancelled(reason string, by int64, at time.Time) {
	s.Status = SaleStatusCancelled
	s.CancellationReason = &reason
	s.CancelledAt = &at
	s.CancelledBy = &by
	s.UpdatedAt = at
}

// Interval is a half-open date range [Start, End).
type Interval struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Overlaps reports whether i and o share at least one instant. Touching
// intervals (i.End == o.Start) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Conflict describes an existing rental that overlaps a requested interval.
type Conflict struct {
	RentalID  int64        `json:"rental_id"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	Status    RentalStatus `json:"status"`
}

// Availability is the outcome of a rental availability check.
type Availability struct {
	VehicleID       int64      `json:"vehicle_id"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	Available       bool       `json:"available"`
	Reason          string     `json:"reason,omitempty"`
	Message         string     `json:"message,omitempty"`
	Conflicts       []Conflict `json:"conflicts,omitempty"`
	BlockingSaleIDs []int64    `json:"blocking_sale_ids,omitempty"`
}
