// internal/service/booking/queries.go
package booking

import (
	"context"
	"time"

	"vehicle-booking-service/internal/domain/booking"
	xerrors "vehicle-booking-service/internal/pkg/errors"
	"vehicle-booking-service/internal/service/availability"
)

// GetRental returns a rental to its owner or an admin.
func (s *BookingService) GetRental(ctx context.Context, rentalID int64, actor *booking.Actor) (*booking.Rental, error) {
	rental, err := s.store.Rentals().FindByID(ctx, rentalID)
	if err != nil {
		return nil, rentalLookupError(err)
	}
	if !actor.CanAccess(rental.Owner) {
		return nil, xerrors.Forbidden(xerrors.ReasonNotOwner, "you do not have access to this rental")
	}
	rental.Vehicle = s.summaries(ctx, []int64{rental.VehicleID})[rental.VehicleID]
	return rental, nil
}

// GetSale returns a sale to its owner or an admin.
func (s *BookingService) GetSale(ctx context.Context, saleID int64, actor *booking.Actor) (*booking.Sale, error) {
	sale, err := s.store.Sales().FindByID(ctx, saleID)
	if err != nil {
		return nil, saleLookupError(err)
	}
	if !actor.CanAccess(sale.Owner) {
		return nil, xerrors.Forbidden(xerrors.ReasonNotOwner, "you do not have access to this sale")
	}
	sale.Vehicle = s.summaries(ctx, []int64{sale.VehicleID})[sale.VehicleID]
	return sale, nil
}

// ListMyRentals lists the caller's rentals, newest first.
func (s *BookingService) ListMyRentals(ctx context.Context, userID int64, filter *booking.ListFilter) (*booking.RentalListResponse, error) {
	filter.UserID = &userID
	return s.ListRentals(ctx, filter)
}

// ListMySales lists the caller's purchases, newest first.
func (s *BookingService) ListMySales(ctx context.Context, userID int64, filter *booking.ListFilter) (*booking.SaleListResponse, error) {
	filter.UserID = &userID
	return s.ListSales(ctx, filter)
}

// ListRentals lists rentals matching the filter.
func (s *BookingService) ListRentals(ctx context.Context, filter *booking.ListFilter) (*booking.RentalListResponse, error) {
	filter.Normalize()
	if filter.Status != "" && !booking.RentalStatus(filter.Status).Valid() {
		return nil, xerrors.InvalidRequest(xerrors.ReasonInvalidStatus, "invalid rental status filter")
	}

	rentals, total, err := s.store.Rentals().List(ctx, filter)
	if err != nil {
		return nil, xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to list rentals", err)
	}

	ids := make([]int64, 0, len(rentals))
	for _, r := range rentals {
		ids = append(ids, r.VehicleID)
	}
	vehicles := s.summaries(ctx, ids)
	for _, r := range rentals {
		r.Vehicle = vehicles[r.VehicleID]
	}

	if rentals == nil {
		rentals = []*booking.Rental{}
	}
	return &booking.RentalListResponse{
		Rentals:    rentals,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: booking.TotalPages(total, filter.Limit),
	}, nil
}

// ListSales lists sales matching the filter.
func (s *BookingService) ListSales(ctx context.Context, filter *booking.ListFilter) (*booking.SaleListResponse, error) {
	filter.Normalize()
	if filter.Status != "" && !booking.SaleStatus(filter.Status).Valid() {
		return nil, xerrors.InvalidRequest(xerrors.ReasonInvalidStatus, "invalid sale status filter")
	}

	sales, total, err := s.store.Sales().List(ctx, filter)
	if err != nil {
		return nil, xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to list sales", err)
	}

	ids := make([]int64, 0, len(sales))
	for _, sl := range sales {
		ids = append(ids, sl.VehicleID)
	}
	vehicles := s.summaries(ctx, ids)
	for _, sl := range sales {
		sl.Vehicle = vehicles[sl.VehicleID]
	}

	if sales == nil {
		sales = []*booking.Sale{}
	}
	return &booking.SaleListResponse{
		Sales:      sales,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: booking.TotalPages(total, filter.Limit),
	}, nil
}

// ListMyBookings lists the caller's rentals and sales together, newest first.
func (s *BookingService) ListMyBookings(ctx context.Context, userID int64, filter *booking.ListFilter) (*booking.BookingListResponse, error) {
	filter.UserID = &userID
	return s.ListAllBookings(ctx, filter)
}

// ListAllBookings merges rentals and sales into one list ordered by creation
// time. Each kind is read up to the end of the requested page before merging.
func (s *BookingService) ListAllBookings(ctx context.Context, filter *booking.ListFilter) (*booking.BookingListResponse, error) {
	filter.Normalize()
	if filter.Status != "" && !booking.RentalStatus(filter.Status).Valid() && !booking.SaleStatus(filter.Status).Valid() {
		return nil, xerrors.InvalidRequest(xerrors.ReasonInvalidStatus, "invalid booking status filter")
	}

	head := &booking.ListFilter{
		Status:    filter.Status,
		VehicleID: filter.VehicleID,
		UserID:    filter.UserID,
		Page:      1,
		Limit:     filter.Page * filter.Limit,
	}

	rentals, rentalTotal, err := s.store.Rentals().List(ctx, head)
	if err != nil {
		return nil, xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to list rentals", err)
	}
	sales, saleTotal, err := s.store.Sales().List(ctx, head)
	if err != nil {
		return nil, xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to list sales", err)
	}

	merged := mergeBookings(rentals, sales)
	from := filter.Offset()
	if from > len(merged) {
		from = len(merged)
	}
	to := from + filter.Limit
	if to > len(merged) {
		to = len(merged)
	}
	page := merged[from:to]

	ids := make([]int64, 0, len(page))
	for _, item := range page {
		if item.Rental != nil {
			ids = append(ids, item.Rental.VehicleID)
		} else {
			ids = append(ids, item.Sale.VehicleID)
		}
	}
	vehicles := s.summaries(ctx, ids)
	for _, item := range page {
		if item.Rental != nil {
			item.Rental.Vehicle = vehicles[item.Rental.VehicleID]
		} else {
			item.Sale.Vehicle = vehicles[item.Sale.VehicleID]
		}
	}

	total := rentalTotal + saleTotal
	return &booking.BookingListResponse{
		Bookings:   page,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: booking.TotalPages(total, filter.Limit),
	}, nil
}

// mergeBookings interleaves two lists already sorted by created_at DESC, id DESC.
func mergeBookings(rentals []*booking.Rental, sales []*booking.Sale) []booking.BookingItem {
	out := make([]booking.BookingItem, 0, len(rentals)+len(sales))
	i, j := 0, 0
	for i < len(rentals) || j < len(sales) {
		if j == len(sales) || (i < len(rentals) && newerOrSame(rentals[i].CreatedAt, rentals[i].ID, sales[j].CreatedAt, sales[j].ID)) {
			out = append(out, booking.BookingItem{Type: booking.BookingKindRental, Rental: rentals[i]})
			i++
			continue
		}
		out = append(out, booking.BookingItem{Type: booking.BookingKindSale, Sale: sales[j]})
		j++
	}
	return out
}

func newerOrSame(a time.Time, aID int64, b time.Time, bID int64) bool {
	if a.Equal(b) {
		return aID >= bID
	}
	return a.After(b)
}

// RentalsInRange reports the blocking rentals of every vehicle that overlap
// [start, end) and how many distinct vehicles they hold.
func (s *BookingService) RentalsInRange(ctx context.Context, start, end string) (*booking.RangeReport, error) {
	in, err := availability.ParseRange(start, end)
	if err != nil {
		return nil, err
	}

	rentals, err := s.store.Rentals().FindBlockingInRange(ctx, in)
	if err != nil {
		return nil, xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to load rentals in range", err)
	}

	ids := make([]int64, 0, len(rentals))
	affected := make(map[int64]struct{})
	for _, r := range rentals {
		ids = append(ids, r.VehicleID)
		affected[r.VehicleID] = struct{}{}
	}
	vehicles := s.summaries(ctx, ids)
	for _, r := range rentals {
		r.Vehicle = vehicles[r.VehicleID]
	}

	if rentals == nil {
		rentals = []*booking.Rental{}
	}
	return &booking.RangeReport{
		StartDate:        in.Start.Format(booking.DateLayout),
		EndDate:          in.End.Format(booking.DateLayout),
		Rentals:          rentals,
		AffectedVehicles: len(affected),
	}, nil
}

// ListVehicleRentals returns the booked periods of a vehicle without any owner data.
func (s *BookingService) ListVehicleRentals(ctx context.Context, vehicleID int64) ([]booking.ScheduleEntry, error) {
	if _, err := s.store.Vehicles().FindByID(ctx, vehicleID); err != nil {
		return nil, vehicleError(err)
	}

	rentals, err := s.store.Rentals().FindBlockingByVehicle(ctx, vehicleID, nil)
	if err != nil {
		return nil, xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to load vehicle rentals", err)
	}

	schedule := make([]booking.ScheduleEntry, 0, len(rentals))
	for _, r := range rentals {
		schedule = append(schedule, booking.ScheduleEntry{
			RentalID:  r.ID,
			StartDate: r.StartDate.Format(booking.DateLayout),
			EndDate:   r.EndDate.Format(booking.DateLayout),
			Status:    r.Status,
		})
	}
	return schedule, nil
}
