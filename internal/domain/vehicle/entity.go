// internal/domain/vehicle/entity.go
package vehicle

import (
	"time"

	"vehicle-booking-service/internal/pkg/money"
)

type Kind string
type Status string

const (
	KindRentalOnly Kind = "RENTAL_ONLY"
	KindSaleOnly   Kind = "SALE_ONLY"
	KindBoth       Kind = "BOTH"

	StatusAvailable Status = "AVAILABLE"
	StatusRented    Status = "RENTED"
	StatusSold      Status = "SOLD"
)

// Vehicle is the inventory record the booking engine reads. Only Status is
// written here, as a side effect of reservation transitions.
type Vehicle struct {
	ID         int64        `json:"id" db:"id"`
	Make       string       `json:"make" db:"make"`
	Model      string       `json:"model" db:"model"`
	Year       int          `json:"year" db:"year"`
	Kind       Kind         `json:"kind" db:"kind"`
	Status     Status       `json:"status" db:"status"`
	IsActive   bool         `json:"is_active" db:"is_active"`
	DailyRate  money.Cents  `json:"daily_rate" db:"daily_rate"`
	WeeklyRate *money.Cents `json:"weekly_rate,omitempty" db:"weekly_rate"`
	SalePrice  *money.Cents `json:"sale_price,omitempty" db:"sale_price"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}

// SupportsRental reports whether the vehicle kind allows rentals.
func (v *Vehicle) SupportsRental() bool {
	return v.Kind == KindRentalOnly || v.Kind == KindBoth
}

// SupportsSale reports whether the vehicle kind allows sales.
func (v *Vehicle) SupportsSale() bool {
	return v.Kind == KindSaleOnly || v.Kind == KindBoth
}

// Rentable is the vehicle-level eligibility for rentals; date conflicts are checked separately.
func (v *Vehicle) Rentable() bool {
	return v.IsActive && v.Status != StatusSold && v.SupportsRental()
}

// Sellable is the vehicle-level eligibility for a new sale.
func (v *Vehicle) Sellable() bool {
	return v.IsActive && v.Status == StatusAvailable && v.SupportsSale()
}

// Summary is the vehicle snippet attached to booking responses.
type Summary struct {
	ID         int64        `json:"id"`
	Make       string       `json:"make"`
	Model      string       `json:"model"`
	Year       int          `json:"year"`
	DailyRate  money.Cents  `json:"daily_rate"`
	WeeklyRate *money.Cents `json:"weekly_rate,omitempty"`
	SalePrice  *money.Cents `json:"sale_price,omitempty"`
}

func (v *Vehicle) Summary() *Summary {
	return &Summary{
		ID:         v.ID,
		Make:       v.Make,
		Model:      v.Model,
		Year:       v.Year,
		DailyRate:  v.DailyRate,
		WeeklyRate: v.WeeklyRate,
		SalePrice:  v.SalePrice,
	}
}
