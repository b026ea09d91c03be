// internal/domain/booking/dto.go
package booking

import "strings"

const DateLayout = "2006-01-02"

type CheckAvailabilityRequest struct {
	VehicleID       int64  `json:"vehicle_id" binding:"required"`
	StartDate       string `json:"start_date" binding:"required"`
	EndDate         string `json:"end_date" binding:"required"`
	ExcludeRentalID *int64 `json:"exclude_rental_id,omitempty"`
}

type CreateRentalRequest struct {
	VehicleID     int64         `json:"vehicle_id" binding:"required"`
	StartDate     string        `json:"start_date" binding:"required"`
	EndDate       string        `json:"end_date" binding:"required"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	AgreeToTerms  bool          `json:"agree_to_terms"`
	Guest         *GuestInfo    `json:"guest_info,omitempty"`
}

type CreateSaleRequest struct {
	VehicleID     int64         `json:"vehicle_id" binding:"required"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	AgreeToTerms  bool          `json:"agree_to_terms"`
	Guest         *GuestInfo    `json:"guest_info,omitempty"`
}

// UpdateStatusRequest is the admin status change payload shared by rentals and sales.
type UpdateStatusRequest struct {
	Status             string  `json:"status" binding:"required"`
	PaymentStatus      *string `json:"payment_status,omitempty"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

// ListFilter drives the admin and owner booking lists.
type ListFilter struct {
	Status    string `form:"status"`
	VehicleID *int64 `form:"vehicle_id"`
	UserID    *int64 `form:"-"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

func (f *ListFilter) Normalize() {
	f.Status = strings.ToUpper(strings.TrimSpace(f.Status))
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

func (f *ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type RentalListResponse struct {
	Rentals    []*Rental `json:"rentals"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
}

type SaleListResponse struct {
	Sales      []*Sale `json:"sales"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"total_pages"`
}

type BookingKind string

const (
	BookingKindRental BookingKind = "rental"
	BookingKindSale   BookingKind = "sale"
)

// BookingItem is one entry of the merged rental and sale list; exactly one of
// Rental and Sale is set.
type BookingItem struct {
	Type   BookingKind `json:"type"`
	Rental *Rental     `json:"rental,omitempty"`
	Sale   *Sale       `json:"sale,omitempty"`
}

type BookingListResponse struct {
	Bookings   []BookingItem `json:"bookings"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}

// RangeReport lists the blocking rentals that overlap a date range.
type RangeReport struct {
	StartDate        string    `json:"start_date"`
	EndDate          string    `json:"end_date"`
	Rentals          []*Rental `json:"conflicting_rentals"`
	AffectedVehicles int       `json:"total_conflicting_vehicles"`
}

// ScheduleEntry is the public view of a booked rental period; it never carries owner data.
type ScheduleEntry struct {
	RentalID  int64        `json:"rental_id"`
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
	Status    RentalStatus `json:"status"`
}

func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
