// internal/service/pricing/pricing.go
package pricing

import (
	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/domain/vehicle"
	"vehicle-booking-service/internal/pkg/money"
)

const (
	secondsPerDay = 24 * 60 * 60
	daysPerWeek   = 7
)

// Quote is a priced rental period.
type Quote struct {
	Days      int         `json:"days"`
	Weeks     int         `json:"weeks"`
	ExtraDays int         `json:"extra_days"`
	Total     money.Cents `json:"total"`
}

// Days returns the number of started days in the interval, rounded up.
// Seconds are compared directly since time.Duration saturates after ~292 years.
func Days(in booking.Interval) int {
	secs := in.End.Unix() - in.Start.Unix()
	nanos := in.End.Nanosecond() - in.Start.Nanosecond()
	if secs < 0 || (secs == 0 && nanos <= 0) {
		return 0
	}

	n := secs / secondsPerDay
	if secs%secondsPerDay != 0 || nanos > 0 {
		n++
	}
	return int(n)
}

// RentalPrice prices a rental of days. Full weeks use the weekly rate when
// one exists and the rental is at least a week long; the rest is charged daily.
func RentalPrice(daily money.Cents, weekly *money.Cents, days int) Quote {
	q := Quote{Days: days}
	if days <= 0 {
		return q
	}
	if weekly != nil && days >= daysPerWeek {
		q.Weeks = days / daysPerWeek
		q.ExtraDays = days % daysPerWeek
		q.Total = weekly.Mul(int64(q.Weeks)).Add(daily.Mul(int64(q.ExtraDays)))
		return q
	}
	q.ExtraDays = days
	q.Total = daily.Mul(int64(days))
	return q
}

// QuoteRental prices the interval with the vehicle's current rates.
func QuoteRental(v *vehicle.Vehicle, in booking.Interval) Quote {
	return RentalPrice(v.DailyRate, v.WeeklyRate, Days(in))
}
