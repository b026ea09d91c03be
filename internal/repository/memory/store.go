// Package memory is an in-process implementation of the booking store. All
// access is serialized by one mutex; WithinTx holds it for the whole callback
// and restores a snapshot when the callback fails.
package memory

import (
	"context"
	"sync"
	"time"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/domain/vehicle"
)

type state struct {
	vehicles map[int64]*vehicle.Vehicle
	rentals  map[int64]*booking.Rental
	sales    map[int64]*booking.Sale
	outbox   []*booking.OutboxEvent

	nextVehicleID int64
	nextRentalID  int64
	nextSaleID    int64
}

func newState() *state {
	return &state{
		vehicles: make(map[int64]*vehicle.Vehicle),
		rentals:  make(map[int64]*booking.Rental),
		sales:    make(map[int64]*booking.Sale),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, v := range s.vehicles {
		cp := *v
		c.vehicles[id] = &cp
	}
	for id, r := range s.rentals {
		cp := *r
		c.rentals[id] = &cp
	}
	for id, sl := range s.sales {
		cp := *sl
		c.sales[id] = &cp
	}
	for _, e := range s.outbox {
		cp := *e
		c.outbox = append(c.outbox, &cp)
	}
	c.nextVehicleID = s.nextVehicleID
	c.nextRentalID = s.nextRentalID
	c.nextSaleID = s.nextSaleID
	return c
}

type Store struct {
	mu   sync.Mutex
	data *state
	root *view
	now  func() time.Time
}

func New() *Store {
	s := &Store{data: newState(), now: time.Now}
	s.root = &view{store: s, run: s.locked}
	return s
}

func (s *Store) locked(fn func(*state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// AddVehicle seeds a vehicle and returns it with its assigned id.
func (s *Store) AddVehicle(v vehicle.Vehicle) *vehicle.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == 0 {
		s.data.nextVehicleID++
		v.ID = s.data.nextVehicleID
	} else if v.ID > s.data.nextVehicleID {
		s.data.nextVehicleID = v.ID
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now()
	}
	v.UpdatedAt = v.CreatedAt
	stored := v
	s.data.vehicles[v.ID] = &stored
	return &v
}

func (s *Store) Vehicles() vehicle.Repository { return s.root.Vehicles() }
func (s *Store) Rentals() booking.RentalRepository { return s.root.Rentals() }
func (s *Store) Sales() booking.SaleRepository { return s.root.Sales() }
func (s *Store) Outbox() booking.OutboxRepository { return s.root.Outbox() }

func (s *Store) WithinTx(ctx context.Context, fn func(tx booking.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &view{store: s, inTx: true}
	tx.run = func(f func(*state) error) error { return f(s.data) }

	if err := fn(tx); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// view binds the repositories to either the locking accessor or, inside a
// transaction, direct access under the already-held lock.
type view struct {
	store *Store
	run   func(func(*state) error) error
	inTx  bool
}

func (v *view) Vehicles() vehicle.Repository { return &vehicleRepo{v} }
func (v *view) Rentals() booking.RentalRepository { return &rentalRepo{v} }
func (v *view) Sales() booking.SaleRepository { return &saleRepo{v} }
func (v *view) Outbox() booking.OutboxRepository { return &outboxRepo{v} }

func (v *view) WithinTx(ctx context.Context, fn func(tx booking.Store) error) error {
	if v.inTx {
		return fn(v)
	}
	return v.store.WithinTx(ctx, fn)
}

func paginate(total, offset, limit int) (int, int) {
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return offset, end
}
