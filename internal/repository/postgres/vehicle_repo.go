// internal/repository/postgres/vehicle_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vehicle-booking-service/internal/domain/vehicle"
	xerrors "vehicle-booking-service/internal/pkg/errors"
	"vehicle-booking-service/internal/pkg/money"
)

const vehicleColumns = `id, make, model, year, kind, status, is_active,
	       daily_rate, weekly_rate, sale_price, created_at, updated_at`

type VehicleRepository struct {
	db      querier
	locking bool
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*vehicle.Vehicle, error) {
	var v vehicle.Vehicle
	var daily int64
	var weekly, sale *int64

	err := row.Scan(
		&v.ID, &v.Make, &v.Model, &v.Year, &v.Kind, &v.Status, &v.IsActive,
		&daily, &weekly, &sale, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.DailyRate = money.Cents(daily)
	if weekly != nil {
		w := money.Cents(*weekly)
		v.WeeklyRate = &w
	}
	if sale != nil {
		p := money.Cents(*sale)
		v.SalePrice = &p
	}
	return &v, nil
}

// FindByID retrieves a vehicle by ID
func (r *VehicleRepository) FindByID(ctx context.Context, id int64) (*vehicle.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	v, err := scanVehicle(r.db.QueryRow(ctx, query, id))
	if notFound(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	return v, nil
}

// FindByIDForUpdate locks the vehicle row for the rest of the transaction.
// Every booking write for a vehicle takes this lock first.
func (r *VehicleRepository) FindByIDForUpdate(ctx context.Context, id int64) (*vehicle.Vehicle, error) {
	if !r.locking {
		return r.FindByID(ctx, id)
	}

	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1 FOR UPDATE`

	v, err := scanVehicle(r.db.QueryRow(ctx, query, id))
	if notFound(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock vehicle: %w", err)
	}
	return v, nil
}

// UpdateStatus sets the vehicle status
func (r *VehicleRepository) UpdateStatus(ctx context.Context, id int64, status vehicle.Status) error {
	query := `UPDATE vehicles SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update vehicle status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// List retrieves vehicles matching the query
func (r *VehicleRepository) List(ctx context.Context, q *vehicle.ListQuery) ([]vehicle.Vehicle, int64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if q.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argPos))
		args = append(args, *q.Kind)
		argPos++
	}

	if q.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *q.IsActive)
		argPos++
	}

	if q.AvailableOnly {
		conditions = append(conditions, "is_active = TRUE", "status <> 'SOLD'")
	}

	if q.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(make ILIKE $%d OR model ILIKE $%d OR (make || ' ' || model) ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+q.Search+"%")
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM vehicles WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	// Sorting
	orderBy := "created_at DESC, id ASC"
	switch q.SortBy {
	case vehicle.SortByPrice:
		orderBy = "daily_rate ASC, id ASC"
	case vehicle.SortByYear:
		orderBy = "year DESC, id ASC"
	case vehicle.SortByName:
		orderBy = "LOWER(make || ' ' || model) ASC, id ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM vehicles
		WHERE %s
		ORDER BY %s
	`, vehicleColumns, whereClause, orderBy)

	if !q.Unpaged {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
		args = append(args, q.PageSize, q.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []vehicle.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate vehicles: %w", err)
	}

	return vehicles, total, nil
}
