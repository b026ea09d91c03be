package pricing

import (
	"testing"
	"time"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/domain/vehicle"
	"vehicle-booking-service/internal/pkg/money"

	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, err := time.Parse(booking.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDays(t *testing.T) {
	assert.Equal(t, 10, Days(booking.Interval{Start: date("2024-03-01"), End: date("2024-03-11")}))
	assert.Equal(t, 1, Days(booking.Interval{Start: date("2024-03-01"), End: date("2024-03-02")}))
	assert.Equal(t, 0, Days(booking.Interval{Start: date("2024-03-02"), End: date("2024-03-01")}))

	partial := booking.Interval{Start: date("2024-03-01"), End: date("2024-03-02").Add(time.Hour)}
	assert.Equal(t, 2, Days(partial))

	subSecond := booking.Interval{Start: date("2024-03-01"), End: date("2024-03-01").Add(time.Millisecond)}
	assert.Equal(t, 1, Days(subSecond))
}

func TestDaysLongRange(t *testing.T) {
	in := booking.Interval{Start: date("1700-01-01"), End: date("2100-01-01")}
	assert.Equal(t, 146097, Days(in))

	q := RentalPrice(money.FromUnits(1), nil, Days(in))
	assert.Equal(t, "146097.00", q.Total.String())
}

func TestRentalPrice(t *testing.T) {
	weekly := money.FromUnits(300)
	daily := money.FromUnits(50)

	tests := []struct {
		name   string
		weekly *money.Cents
		days   int
		want   string
	}{
		{"ten days with weekly rate", &weekly, 10, "450.00"},
		{"five days short of a week", &weekly, 5, "250.00"},
		{"exactly one week", &weekly, 7, "300.00"},
		{"two weeks", &weekly, 14, "600.00"},
		{"no weekly rate", nil, 10, "500.00"},
		{"zero days", &weekly, 0, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := RentalPrice(daily, tt.weekly, tt.days)
			assert.Equal(t, tt.want, q.Total.String())
			assert.Equal(t, tt.days, q.Days)
		})
	}
}

func TestQuoteRental(t *testing.T) {
	weekly := money.FromUnits(300)
	v := &vehicle.Vehicle{DailyRate: money.FromUnits(50), WeeklyRate: &weekly}

	q := QuoteRental(v, booking.Interval{Start: date("2024-01-01"), End: date("2024-01-11")})
	assert.Equal(t, 10, q.Days)
	assert.Equal(t, 1, q.Weeks)
	assert.Equal(t, 3, q.ExtraDays)
	assert.Equal(t, money.FromUnits(450), q.Total)
}

func TestRentalPriceIsExactForFractionalRates(t *testing.T) {
	daily, err := money.Parse("33.33")
	assert.NoError(t, err)

	q := RentalPrice(daily, nil, 3)
	assert.Equal(t, "99.99", q.Total.String())
}
