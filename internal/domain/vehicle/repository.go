// internal/domain/vehicle/repository.go
package vehicle

import "context"

type Repository interface {
	FindByID(ctx context.Context, id int64) (*Vehicle, error)
	// FindByIDForUpdate reads the vehicle and holds its row lock until the
	// enclosing transaction ends. Outside a transaction it behaves like FindByID.
	FindByIDForUpdate(ctx context.Context, id int64) (*Vehicle, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	List(ctx context.Context, q *ListQuery) ([]Vehicle, int64, error)
}
