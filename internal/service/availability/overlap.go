// internal/service/availability/overlap.go
package availability

import (
	"sort"

	"vehicle-booking-service/internal/domain/booking"
)

// Overlapping returns the existing intervals that overlap candidate, in input order.
func Overlapping(candidate booking.Interval, existing []booking.Interval) (bool, []booking.Interval) {
	var hits []booking.Interval
	for _, e := range existing {
		if candidate.Overlaps(e) {
			hits = append(hits, e)
		}
	}
	return len(hits) > 0, hits
}

// RentalConflicts returns the blocking rentals overlapping candidate, sorted by
// start date then id. excludeID skips one rental.
func RentalConflicts(candidate booking.Interval, rentals []*booking.Rental, excludeID *int64) []booking.Conflict {
	var out []booking.Conflict
	for _, r := range rentals {
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		if !r.Status.Blocking() || !candidate.Overlaps(r.Interval()) {
			continue
		}
		out = append(out, booking.Conflict{
			RentalID:  r.ID,
			StartDate: r.StartDate,
			EndDate:   r.EndDate,
			Status:    r.Status,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].RentalID < out[j].RentalID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}
