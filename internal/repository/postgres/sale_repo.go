// internal/repository/postgres/sale_repo.go
package postgres

import (
	"context"
	"fmt"

	"vehicle-booking-service/internal/domain/booking"
	xerrors "vehicle-booking-service/internal/pkg/errors"
	"vehicle-booking-service/internal/pkg/money"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

const saleColumns = `id, reference, vehicle_id, user_id, guest_info, sale_price,
	       status, payment_status, payment_method, notes,
	       cancellation_reason, cancelled_at, cancelled_by,
	       created_at, updated_at`

type SaleRepository struct {
	db      querier
	locking bool
}

func scanSale(row rowScanner) (*booking.Sale, error) {
	var s booking.Sale
	var userID *int64
	var guestJSON []byte
	var price int64

	err := row.Scan(
		&s.ID, &s.Reference, &s.VehicleID, &userID, &guestJSON, &price,
		&s.Status, &s.PaymentStatus, &s.PaymentMethod, &s.Notes,
		&s.CancellationReason, &s.CancelledAt, &s.CancelledBy,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.SalePrice = money.Cents(price)
	s.Owner, err = ownerFromColumns(userID, guestJSON)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSales(rows pgx.Rows) ([]*booking.Sale, error) {
	defer rows.Close()

	sales := []*booking.Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales: %w", err)
	}
	return sales, nil
}

// Create inserts a sale
func (r *SaleRepository) Create(ctx context.Context, s *booking.Sale) error {
	query := `
		INSERT INTO sales (
			reference, vehicle_id, user_id, guest_info, sale_price,
			status, payment_status, payment_method, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	userID, guestJSON, err := ownerColumns(s.Owner)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(
		ctx, query,
		s.Reference, s.VehicleID, userID, guestJSON, int64(s.SalePrice),
		s.Status, s.PaymentStatus, s.PaymentMethod, s.Notes,
		s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

// FindByID retrieves a sale by ID
func (r *SaleRepository) FindByID(ctx context.Context, id int64) (*booking.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`

	s, err := scanSale(r.db.QueryRow(ctx, query, id))
	if notFound(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}
	return s, nil
}

// FindByIDForUpdate retrieves a sale and locks its row
func (r *SaleRepository) FindByIDForUpdate(ctx context.Context, id int64) (*booking.Sale, error) {
	if !r.locking {
		return r.FindByID(ctx, id)
	}

	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1 FOR UPDATE`

	s, err := scanSale(r.db.QueryRow(ctx, query, id))
	if notFound(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock sale: %w", err)
	}
	return s, nil
}

// FindBlockingByVehicle retrieves sales that hold the vehicle
func (r *SaleRepository) FindBlockingByVehicle(ctx context.Context, vehicleID int64) ([]*booking.Sale, error) {
	query := `
		SELECT ` + saleColumns + `
		FROM sales
		WHERE vehicle_id = $1 AND status = ANY($2)
		ORDER BY id ASC
	`

	rows, err := r.db.Query(ctx, query, vehicleID, pq.Array(blockingSaleStatuses()))
	if err != nil {
		return nil, fmt.Errorf("failed to find blocking sales: %w", err)
	}
	return collectSales(rows)
}

// FindBlockingByVehicles retrieves blocking sales for a page of vehicles
func (r *SaleRepository) FindBlockingByVehicles(ctx context.Context, vehicleIDs []int64) ([]*booking.Sale, error) {
	if len(vehicleIDs) == 0 {
		return []*booking.Sale{}, nil
	}

	query := `
		SELECT ` + saleColumns + `
		FROM sales
		WHERE vehicle_id = ANY($1) AND status = ANY($2)
		ORDER BY vehicle_id ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, pq.Array(vehicleIDs), pq.Array(blockingSaleStatuses()))
	if err != nil {
		return nil, fmt.Errorf("failed to find blocking sales: %w", err)
	}
	return collectSales(rows)
}

// UpdateStatus persists status, payment status and cancellation metadata
func (r *SaleRepository) UpdateStatus(ctx context.Context, s *booking.Sale) error {
	query := `
		UPDATE sales
		SET status = $1, payment_status = $2,
		    cancellation_reason = $3, cancelled_at = $4, cancelled_by = $5,
		    updated_at = $6
		WHERE id = $7
	`

	result, err := r.db.Exec(ctx, query,
		s.Status, s.PaymentStatus,
		s.CancellationReason, s.CancelledAt, s.CancelledBy,
		s.UpdatedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sale status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// List retrieves sales with filters, newest first
func (r *SaleRepository) List(ctx context.Context, f *booking.ListFilter) ([]*booking.Sale, int64, error) {
	whereClause, args, argPos := bookingFilter(f)

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM sales WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sales
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, saleColumns, whereClause, argPos, argPos+1)
	args = append(args, f.Limit, f.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sales: %w", err)
	}
	sales, err := collectSales(rows)
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func blockingSaleStatuses() []string {
	out := make([]string, 0, len(booking.BlockingSaleStatuses))
	for _, s := range booking.BlockingSaleStatuses {
		out = append(out, string(s))
	}
	return out
}
