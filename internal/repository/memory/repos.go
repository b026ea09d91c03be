package memory

import (
	"context"
	"sort"
	"strings"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/domain/vehicle"
	xerrors "vehicle-booking-service/internal/pkg/errors"
)

type vehicleRepo struct{ v *view }

func (r *vehicleRepo) FindByID(ctx context.Context, id int64) (*vehicle.Vehicle, error) {
	var out *vehicle.Vehicle
	err := r.v.run(func(st *state) error {
		v, ok := st.vehicles[id]
		if !ok {
			return xerrors.ErrNotFound
		}
		cp := *v
		out = &cp
		return nil
	})
	return out, err
}

func (r *vehicleRepo) FindByIDForUpdate(ctx context.Context, id int64) (*vehicle.Vehicle, error) {
	return r.FindByID(ctx, id)
}

func (r *vehicleRepo) UpdateStatus(ctx context.Context, id int64, status vehicle.Status) error {
	return r.v.run(func(st *state) error {
		v, ok := st.vehicles[id]
		if !ok {
			return xerrors.ErrNotFound
		}
		v.Status = status
		v.UpdatedAt = r.v.store.now()
		return nil
	})
}

func (r *vehicleRepo) List(ctx context.Context, q *vehicle.ListQuery) ([]vehicle.Vehicle, int64, error) {
	var out []vehicle.Vehicle
	var total int64
	err := r.v.run(func(st *state) error {
		search := strings.ToLower(q.Search)
		var matched []vehicle.Vehicle
		for _, v := range st.vehicles {
			if q.Kind != nil && v.Kind != *q.Kind {
				continue
			}
			if q.IsActive != nil && v.IsActive != *q.IsActive {
				continue
			}
			if q.AvailableOnly && (!v.IsActive || v.Status == vehicle.StatusSold) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(v.Make+" "+v.Model), search) {
				continue
			}
			matched = append(matched, *v)
		}

		sortVehicles(matched, q.SortBy)
		total = int64(len(matched))
		if q.Unpaged {
			out = matched
			return nil
		}
		from, to := paginate(len(matched), q.Offset(), q.PageSize)
		out = matched[from:to]
		return nil
	})
	return out, total, err
}

func sortVehicles(vs []vehicle.Vehicle, by vehicle.SortBy) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		switch by {
		case vehicle.SortByPrice:
			if a.DailyRate != b.DailyRate {
				return a.DailyRate < b.DailyRate
			}
		case vehicle.SortByYear:
			if a.Year != b.Year {
				return a.Year > b.Year
			}
		case vehicle.SortByName:
			an, bn := strings.ToLower(a.Make+" "+a.Model), strings.ToLower(b.Make+" "+b.Model)
			if an != bn {
				return an < bn
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

type rentalRepo struct{ v *view }

func (r *rentalRepo) Create(ctx context.Context, rt *booking.Rental) error {
	return r.v.run(func(st *state) error {
		st.nextRentalID++
		rt.ID = st.nextRentalID
		if rt.CreatedAt.IsZero() {
			rt.CreatedAt = r.v.store.now()
			rt.UpdatedAt = rt.CreatedAt
		}
		cp := *rt
		cp.Vehicle = nil
		st.rentals[rt.ID] = &cp
		return nil
	})
}

func (r *rentalRepo) FindByID(ctx context.Context, id int64) (*booking.Rental, error) {
	var out *booking.Rental
	err := r.v.run(func(st *state) error {
		rt, ok := st.rentals[id]
		if !ok {
			return xerrors.ErrNotFound
		}
		cp := *rt
		out = &cp
		return nil
	})
	return out, err
}

func (r *rentalRepo) FindByIDForUpdate(ctx context.Context, id int64) (*booking.Rental, error) {
	return r.FindByID(ctx, id)
}

func (r *rentalRepo) FindBlockingByVehicle(ctx context.Context, vehicleID int64, excludeID *int64) ([]*booking.Rental, error) {
	rentals, err := r.FindBlockingByVehicles(ctx, []int64{vehicleID})
	if err != nil || excludeID == nil {
		return rentals, err
	}
	out := rentals[:0]
	for _, rt := range rentals {
		if rt.ID != *excludeID {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (r *rentalRepo) FindBlockingByVehicles(ctx context.Context, vehicleIDs []int64) ([]*booking.Rental, error) {
	wanted := make(map[int64]bool, len(vehicleIDs))
	for _, id := range vehicleIDs {
		wanted[id] = true
	}

	var out []*booking.Rental
	err := r.v.run(func(st *state) error {
		for _, rt := range st.rentals {
			if wanted[rt.VehicleID] && rt.Status.Blocking() {
				cp := *rt
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out, err
}

func (r *rentalRepo) FindBlockingInRange(ctx context.Context, in booking.Interval) ([]*booking.Rental, error) {
	var out []*booking.Rental
	err := r.v.run(func(st *state) error {
		for _, rt := range st.rentals {
			if rt.Status.Blocking() && rt.Interval().Overlaps(in) {
				cp := *rt
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out, err
}

func (r *rentalRepo) UpdateStatus(ctx context.Context, rt *booking.Rental) error {
	return r.v.run(func(st *state) error {
		stored, ok := st.rentals[rt.ID]
		if !ok {
			return xerrors.ErrNotFound
		}
		stored.Status = rt.Status
		stored.PaymentStatus = rt.PaymentStatus
		stored.CancellationReason = rt.CancellationReason
		stored.CancelledAt = rt.CancelledAt
		stored.CancelledBy = rt.CancelledBy
		stored.UpdatedAt = rt.UpdatedAt
		return nil
	})
}

func (r *rentalRepo) List(ctx context.Context, f *booking.ListFilter) ([]*booking.Rental, int64, error) {
	var out []*booking.Rental
	var total int64
	err := r.v.run(func(st *state) error {
		var matched []*booking.Rental
		for _, rt := range st.rentals {
			if f.Status != "" && string(rt.Status) != f.Status {
				continue
			}
			if f.VehicleID != nil && rt.VehicleID != *f.VehicleID {
				continue
			}
			if f.UserID != nil && !rt.Owner.OwnedBy(*f.UserID) {
				continue
			}
			cp := *rt
			matched = append(matched, &cp)
		}
		sort.Slice(matched, func(i, j int) bool {
			if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].ID > matched[j].ID
			}
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
		total = int64(len(matched))
		from, to := paginate(len(matched), f.Offset(), f.Limit)
		out = matched[from:to]
		return nil
	})
	return out, total, err
}

type saleRepo struct{ v *view }

func (r *saleRepo) Create(ctx context.Context, s *booking.Sale) error {
	return r.v.run(func(st *state) error {
		st.nextSaleID++
		s.ID = st.nextSaleID
		if s.CreatedAt.IsZero() {
			s.CreatedAt = r.v.store.now()
			s.UpdatedAt = s.CreatedAt
		}
		cp := *s
		cp.Vehicle = nil
		st.sales[s.ID] = &cp
		return nil
	})
}

func (r *saleRepo) FindByID(ctx context.Context, id int64) (*booking.Sale, error) {
	var out *booking.Sale
	err := r.v.run(func(st *state) error {
		s, ok := st.sales[id]
		if !ok {
			return xerrors.ErrNotFound
		}
		cp := *s
		out = &cp
		return nil
	})
	return out, err
}

func (r *saleRepo) FindByIDForUpdate(ctx context.Context, id int64) (*booking.Sale, error) {
	return r.FindByID(ctx, id)
}

func (r *saleRepo) FindBlockingByVehicle(ctx context.Context, vehicleID int64) ([]*booking.Sale, error) {
	return r.FindBlockingByVehicles(ctx, []int64{vehicleID})
}

func (r *saleRepo) FindBlockingByVehicles(ctx context.Context, vehicleIDs []int64) ([]*booking.Sale, error) {
	wanted := make(map[int64]bool, len(vehicleIDs))
	for _, id := range vehicleIDs {
		wanted[id] = true
	}

	var out []*booking.Sale
	err := r.v.run(func(st *state) error {
		for _, s := range st.sales {
			if wanted[s.VehicleID] && s.Status.Blocking() {
				cp := *s
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *saleRepo) UpdateStatus(ctx context.Context, s *booking.Sale) error {
	return r.v.run(func(st *state) error {
		stored, ok := st.sales[s.ID]
		if !ok {
			return xerrors.ErrNotFound
		}
		stored.Status = s.Status
		stored.PaymentStatus = s.PaymentStatus
		stored.CancellationReason = s.CancellationReason
		stored.CancelledAt = s.CancelledAt
		stored.CancelledBy = s.CancelledBy
		stored.UpdatedAt = s.UpdatedAt
		return nil
	})
}

func (r *saleRepo) List(ctx context.Context, f *booking.ListFilter) ([]*booking.Sale, int64, error) {
	var out []*booking.Sale
	var total int64
	err := r.v.run(func(st *state) error {
		var matched []*booking.Sale
		for _, s := range st.sales {
			if f.Status != "" && string(s.Status) != f.Status {
				continue
			}
			if f.VehicleID != nil && s.VehicleID != *f.VehicleID {
				continue
			}
			if f.UserID != nil && !s.Owner.OwnedBy(*f.UserID) {
				continue
			}
			cp := *s
			matched = append(matched, &cp)
		}
		sort.Slice(matched, func(i, j int) bool {
			if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].ID > matched[j].ID
			}
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
		total = int64(len(matched))
		from, to := paginate(len(matched), f.Offset(), f.Limit)
		out = matched[from:to]
		return nil
	})
	return out, total, err
}

type outboxRepo struct{ v *view }

func (r *outboxRepo) Insert(ctx context.Context, e *booking.OutboxEvent) error {
	return r.v.run(func(st *state) error {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = r.v.store.now()
		}
		if e.Status == "" {
			e.Status = booking.EventStatusPending
		}
		cp := *e
		st.outbox = append(st.outbox, &cp)
		return nil
	})
}

func (r *outboxRepo) FetchPending(ctx context.Context, limit int) ([]*booking.OutboxEvent, error) {
	var out []*booking.OutboxEvent
	err := r.v.run(func(st *state) error {
		for _, e := range st.outbox {
			if e.Status != booking.EventStatusPending {
				continue
			}
			cp := *e
			out = append(out, &cp)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *outboxRepo) MarkSent(ctx context.Context, ids []string) error {
	sent := make(map[string]bool, len(ids))
	for _, id := range ids {
		sent[id] = true
	}
	return r.v.run(func(st *state) error {
		now := r.v.store.now()
		for _, e := range st.outbox {
			if sent[e.ID] {
				e.Status = booking.EventStatusSent
				e.SentAt = &now
			}
		}
		return nil
	})
}
