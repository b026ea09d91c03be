// internal/service/vehicle/vehicle_service.go
package vehicle

import (
	"context"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/domain/vehicle"
	xerrors "vehicle-booking-service/internal/pkg/errors"
	"vehicle-booking-service/internal/service/availability"

	"go.uber.org/zap"
)

// Listing is a vehicle with its availability for the requested window, if any.
type Listing struct {
	vehicle.Vehicle
	Availability *booking.Availability `json:"availability,omitempty"`
}

type ListResponse struct {
	Vehicles   []Listing `json:"vehicles"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
}

type VehicleService struct {
	store  booking.Store
	logger *zap.Logger
}

func NewVehicleService(store booking.Store, logger *zap.Logger) *VehicleService {
	return &VehicleService{
		store:  store,
		logger: logger,
	}
}

// ListVehicles lists vehicles. When the query carries a date window every
// vehicle is annotated with its rental availability; reads are not locked and
// may be slightly stale.
func (s *VehicleService) ListVehicles(ctx context.Context, q *vehicle.ListQuery) (*ListResponse, error) {
	q.Normalize()

	if (q.StartDate == "") != (q.EndDate == "") {
		return nil, xerrors.InvalidRequest(xerrors.ReasonInvalidDate, "start_date and end_date must be provided together")
	}
	if q.HasDates() {
		in, err := availability.ParseRange(q.StartDate, q.EndDate)
		if err != nil {
			return nil, err
		}
		q.SetRange(in.Start, in.End)
	}

	start, end, hasWindow := q.Range()
	window := booking.Interval{Start: start, End: end}

	// Availability filtering happens after annotation, so page in memory
	if q.AvailableOnly && hasWindow {
		all := *q
		all.Unpaged = true
		vehicles, _, err := s.store.Vehicles().List(ctx, &all)
		if err != nil {
			return nil, xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to list vehicles", err)
		}

		listings, err := s.annotate(ctx, vehicles, window)
		if err != nil {
			return nil, err
		}

		available := listings[:0]
		for _, l := range listings {
			if l.Availability != nil && l.Availability.Available {
				available = append(available, l)
			}
		}

		total := int64(len(available))
		from := q.Offset()
		if from > len(available) {
			from = len(available)
		}
		to := from + q.PageSize
		if to > len(available) {
			to = len(available)
		}
		return s.response(available[from:to], total, q), nil
	}

	vehicles, total, err := s.store.Vehicles().List(ctx, q)
	if err != nil {
		return nil, xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to list vehicles", err)
	}

	if !hasWindow {
		listings := make([]Listing, 0, len(vehicles))
		for _, v := range vehicles {
			listings = append(listings, Listing{Vehicle: v})
		}
		return s.response(listings, total, q), nil
	}

	listings, err := s.annotate(ctx, vehicles, window)
	if err != nil {
		return nil, err
	}
	return s.response(listings, total, q), nil
}

// annotate loads blocking reservations for all vehicles in two queries and
// evaluates each vehicle with the same rule the booking path uses.
func (s *VehicleService) annotate(ctx context.Context, vehicles []vehicle.Vehicle, in booking.Interval) ([]Listing, error) {
	ids := make([]int64, 0, len(vehicles))
	for _, v := range vehicles {
		ids = append(ids, v.ID)
	}

	rentals, err := s.store.Rentals().FindBlockingByVehicles(ctx, ids)
	if err != nil {
		return nil, xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to load rentals", err)
	}
	sales, err := s.store.Sales().FindBlockingByVehicles(ctx, ids)
	if err != nil {
		return nil, xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to load sales", err)
	}

	rentalsByVehicle := make(map[int64][]*booking.Rental)
	for _, r := range rentals {
		rentalsByVehicle[r.VehicleID] = append(rentalsByVehicle[r.VehicleID], r)
	}
	salesByVehicle := make(map[int64][]*booking.Sale)
	for _, sl := range sales {
		salesByVehicle[sl.VehicleID] = append(salesByVehicle[sl.VehicleID], sl)
	}

	listings := make([]Listing, 0, len(vehicles))
	for i := range vehicles {
		v := vehicles[i]
		listings = append(listings, Listing{
			Vehicle:      v,
			Availability: availability.Decide(&v, in, rentalsByVehicle[v.ID], salesByVehicle[v.ID], nil),
		})
	}
	return listings, nil
}

func (s *VehicleService) response(listings []Listing, total int64, q *vehicle.ListQuery) *ListResponse {
	if listings == nil {
		listings = []Listing{}
	}
	return &ListResponse{
		Vehicles:   listings,
		Total:      total,
		Page:       q.Page,
		Limit:      q.PageSize,
		TotalPages: booking.TotalPages(total, q.PageSize),
	}
}
