// internal/service/availability/resolver.go
package availability

import (
	"context"
	"sort"
	"strings"
	"time"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/domain/vehicle"
	xerrors "vehicle-booking-service/internal/pkg/errors"

	"go.uber.org/zap"
)

const (
	msgNotRentable  = "vehicle is not available for rental"
	msgDateConflict = "vehicle is already booked for the selected dates"
	msgSaleBlocked  = "vehicle has a pending sale and cannot be rented"
)

// Cache is the read-side cache for public availability checks. Get returns
// the cached result (nil on miss) and the vehicle version it was read under;
// Set must store under that version so writes that bump it make stale
// entries unreachable.
type Cache interface {
	Get(ctx context.Context, key Key) (*booking.Availability, int64, error)
	Set(ctx context.Context, key Key, version int64, a *booking.Availability) error
	Invalidate(ctx context.Context, vehicleID int64) error
}

// Key identifies one cached availability answer.
type Key struct {
	VehicleID int64
	Start     time.Time
	End       time.Time
	ExcludeID *int64
}

type Resolver struct {
	store  booking.Store
	cache  Cache
	logger *zap.Logger
}

// NewResolver builds a resolver; cache may be nil.
func NewResolver(store booking.Store, cache Cache, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, cache: cache, logger: logger}
}

// ParseRange parses ISO calendar dates into a half-open interval.
func ParseRange(start, end string) (booking.Interval, error) {
	s, err := time.Parse(booking.DateLayout, strings.TrimSpace(start))
	if err != nil {
		return booking.Interval{}, xerrors.InvalidRequest(xerrors.ReasonInvalidDate, "start_date must be a YYYY-MM-DD date")
	}
	e, err := time.Parse(booking.DateLayout, strings.TrimSpace(end))
	if err != nil {
		return booking.Interval{}, xerrors.InvalidRequest(xerrors.ReasonInvalidDate, "end_date must be a YYYY-MM-DD date")
	}
	in := booking.Interval{Start: s.UTC(), End: e.UTC()}
	if err := ValidateRange(in); err != nil {
		return booking.Interval{}, err
	}
	return in, nil
}

func ValidateRange(in booking.Interval) error {
	if !in.Valid() {
		return xerrors.InvalidRequest(xerrors.ReasonInvalidRange, "end date must be after start date")
	}
	return nil
}

// CheckAvailability answers the public availability query. Results may come
// from the cache; the booking write path uses Evaluate instead.
func (r *Resolver) CheckAvailability(ctx context.Context, req *booking.CheckAvailabilityRequest) (*booking.Availability, error) {
	in, err := ParseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	key := Key{VehicleID: req.VehicleID, Start: in.Start, End: in.End, ExcludeID: req.ExcludeRentalID}
	var version int64
	if r.cache != nil {
		cached, ver, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.Warn("availability cache read failed", zap.Int64("vehicle_id", req.VehicleID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
		version = ver
	}

	v, err := r.store.Vehicles().FindByID(ctx, req.VehicleID)
	if err != nil {
		return nil, VehicleLookupError(err)
	}

	result, err := r.Evaluate(ctx, r.store, v, in, req.ExcludeRentalID)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, version, result); err != nil {
			r.logger.Warn("availability cache write failed", zap.Int64("vehicle_id", req.VehicleID), zap.Error(err))
		}
	}
	return result, nil
}

// Evaluate checks v for the interval against the reservations visible through
// store. Inside a transaction holding the vehicle lock the answer is stable
// until commit.
func (r *Resolver) Evaluate(ctx context.Context, store booking.Store, v *vehicle.Vehicle, in booking.Interval, excludeID *int64) (*booking.Availability, error) {
	if err := ValidateRange(in); err != nil {
		return nil, err
	}
	if !v.Rentable() {
		return Decide(v, in, nil, nil, excludeID), nil
	}

	rentals, err := store.Rentals().FindBlockingByVehicle(ctx, v.ID, excludeID)
	if err != nil {
		return nil, xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to load rentals", err)
	}
	sales, err := store.Sales().FindBlockingByVehicle(ctx, v.ID)
	if err != nil {
		return nil, xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to load sales", err)
	}

	return Decide(v, in, rentals, sales, excludeID), nil
}

// Decide is the pure availability rule: vehicle eligibility first, then any
// blocking sale, then date overlap with blocking rentals.
func Decide(v *vehicle.Vehicle, in booking.Interval, rentals []*booking.Rental, sales []*booking.Sale, excludeID *int64) *booking.Availability {
	result := &booking.Availability{
		VehicleID: v.ID,
		StartDate: in.Start,
		EndDate:   in.End,
	}

	if !v.Rentable() {
		result.Reason = xerrors.ReasonVehicleNotRentable
		result.Message = msgNotRentable
		return result
	}

	var blocking []int64
	for _, s := range sales {
		if s.VehicleID == v.ID && s.Status.Blocking() {
			blocking = append(blocking, s.ID)
		}
	}
	if len(blocking) > 0 {
		sort.Slice(blocking, func(i, j int) bool { return blocking[i] < blocking[j] })
		result.Reason = xerrors.ReasonSaleBlocked
		result.Message = msgSaleBlocked
		result.BlockingSaleIDs = blocking
		return result
	}

	var own []*booking.Rental
	for _, rt := range rentals {
		if rt.VehicleID == v.ID {
			own = append(own, rt)
		}
	}
	if conflicts := RentalConflicts(in, own, excludeID); len(conflicts) > 0 {
		result.Reason = xerrors.ReasonDateConflict
		result.Message = msgDateConflict
		result.Conflicts = conflicts
		return result
	}

	result.Available = true
	return result
}

// AsError converts a negative availability result into a Conflict error
// carrying the result as details.
func AsError(a *booking.Availability) error {
	if a == nil || a.Available {
		return nil
	}
	return xerrors.Conflict(a.Reason, a.Message, a)
}

// VehicleLookupError maps a repository error from a vehicle read.
func VehicleLookupError(err error) error {
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return xerrors.NotFound(xerrors.ReasonVehicleNotFound, "vehicle not found")
	}
	if _, ok := xerrors.As(err); ok {
		return err
	}
	return xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to load vehicle", err)
}
