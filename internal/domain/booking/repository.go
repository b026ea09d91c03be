// internal/domain/booking/repository.go
package booking

import (
	"context"

	"vehicle-booking-service/internal/domain/vehicle"
)

type RentalRepository interface {
	Create(ctx context.Context, r *Rental) error
	FindByID(ctx context.Context, id int64) (*Rental, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*Rental, error)
	// FindBlockingByVehicle returns rentals in a blocking status ordered by start date.
	FindBlockingByVehicle(ctx context.Context, vehicleID int64, excludeID *int64) ([]*Rental, error)
	FindBlockingByVehicles(ctx context.Context, vehicleIDs []int64) ([]*Rental, error)
	// FindBlockingInRange returns blocking rentals of any vehicle that overlap in.
	FindBlockingInRange(ctx context.Context, in Interval) ([]*Rental, error)
	// UpdateStatus persists status, payment status and cancellation metadata.
	UpdateStatus(ctx context.Context, r *Rental) error
	List(ctx context.Context, f *ListFilter) ([]*Rental, int64, error)
}

type SaleRepository interface {
	Create(ctx context.Context, s *Sale) error
	FindByID(ctx context.Context, id int64) (*Sale, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*Sale, error)
	FindBlockingByVehicle(ctx context.Context, vehicleID int64) ([]*Sale, error)
	FindBlockingByVehicles(ctx context.Context, vehicleIDs []int64) ([]*Sale, error)
	UpdateStatus(ctx context.Context, s *Sale) error
	List(ctx context.Context, f *ListFilter) ([]*Sale, int64, error)
}

type OutboxRepository interface {
	Insert(ctx context.Context, e *OutboxEvent) error
	FetchPending(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkSent(ctx context.Context, ids []string) error
}

// Store groups the repositories the booking engine works against.
type Store interface {
	Vehicles() vehicle.Repository
	Rentals() RentalRepository
	Sales() SaleRepository
	Outbox() OutboxRepository

	// WithinTx runs fn with a Store whose repositories share one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
