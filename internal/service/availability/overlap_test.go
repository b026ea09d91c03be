package availability

import (
	"testing"
	"time"

	"vehicle-booking-service/internal/domain/booking"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func span(from, to int) booking.Interval {
	return booking.Interval{
		Start: epoch.AddDate(0, 0, from),
		End:   epoch.AddDate(0, 0, to),
	}
}

func TestOverlapping(t *testing.T) {
	a := span(10, 20)

	tests := []struct {
		name      string
		candidate booking.Interval
		want      bool
	}{
		{"touching after", span(20, 30), false},
		{"touching before", span(0, 10), false},
		{"partial overlap", span(15, 25), true},
		{"identical", span(10, 20), true},
		{"covers existing", span(5, 25), true},
		{"inside existing", span(12, 14), true},
		{"disjoint", span(30, 40), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflict, hits := Overlapping(tt.candidate, []booking.Interval{a})
			assert.Equal(t, tt.want, conflict)
			if tt.want {
				assert.Equal(t, []booking.Interval{a}, hits)
			} else {
				assert.Empty(t, hits)
			}
		})
	}
}

func TestOverlappingReturnsEveryOffender(t *testing.T) {
	existing := []booking.Interval{span(0, 5), span(5, 10), span(10, 15), span(20, 25)}
	conflict, hits := Overlapping(span(4, 11), existing)

	assert.True(t, conflict)
	assert.Equal(t, []booking.Interval{span(0, 5), span(5, 10), span(10, 15)}, hits)
}

func TestRentalConflictsSkipsExcludedAndNonBlocking(t *testing.T) {
	rentals := []*booking.Rental{
		{ID: 3, VehicleID: 1, StartDate: span(12, 14).Start, EndDate: span(12, 14).End, Status: booking.RentalStatusConfirmed},
		{ID: 1, VehicleID: 1, StartDate: span(10, 12).Start, EndDate: span(10, 12).End, Status: booking.RentalStatusPending},
		{ID: 2, VehicleID: 1, StartDate: span(10, 20).Start, EndDate: span(10, 20).End, Status: booking.RentalStatusCancelled},
		{ID: 4, VehicleID: 1, StartDate: span(15, 18).Start, EndDate: span(15, 18).End, Status: booking.RentalStatusActive},
	}

	exclude := int64(4)
	got := RentalConflicts(span(10, 20), rentals, &exclude)

	if assert.Len(t, got, 2) {
		assert.Equal(t, int64(1), got[0].RentalID)
		assert.Equal(t, int64(3), got[1].RentalID)
	}
}
