// internal/repository/postgres/rental_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"vehicle-booking-service/internal/domain/booking"
	xerrors "vehicle-booking-service/internal/pkg/errors"
	"vehicle-booking-service/internal/pkg/money"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

const rentalColumns = `id, reference, vehicle_id, user_id, guest_info,
	       start_date, end_date, days, total_price,
	       status, payment_status, payment_method, notes,
	       cancellation_reason, cancelled_at, cancelled_by,
	       created_at, updated_at`

type RentalRepository struct {
	db      querier
	locking bool
}

// ownerColumns splits an owner into the user_id / guest_info column pair.
func ownerColumns(o booking.OwnerRef) (*int64, []byte, error) {
	if id, ok := o.UserID(); ok {
		return &id, nil, nil
	}
	guest := o.GuestInfo()
	if guest == nil {
		return nil, nil, fmt.Errorf("booking has no owner")
	}
	data, err := json.Marshal(guest)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal guest info: %w", err)
	}
	return nil, data, nil
}

func ownerFromColumns(userID *int64, guestJSON []byte) (booking.OwnerRef, error) {
	if userID != nil {
		return booking.Authenticated(*userID), nil
	}
	var guest booking.GuestInfo
	if err := json.Unmarshal(guestJSON, &guest); err != nil {
		return booking.OwnerRef{}, fmt.Errorf("failed to unmarshal guest info: %w", err)
	}
	return booking.Guest(guest), nil
}

func scanRental(row rowScanner) (*booking.Rental, error) {
	var r booking.Rental
	var userID *int64
	var guestJSON []byte
	var total int64

	err := row.Scan(
		&r.ID, &r.Reference, &r.VehicleID, &userID, &guestJSON,
		&r.StartDate, &r.EndDate, &r.Days, &total,
		&r.Status, &r.PaymentStatus, &r.PaymentMethod, &r.Notes,
		&r.CancellationReason, &r.CancelledAt, &r.CancelledBy,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.TotalPrice = money.Cents(total)
	r.Owner, err = ownerFromColumns(userID, guestJSON)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func collectRentals(rows pgx.Rows) ([]*booking.Rental, error) {
	defer rows.Close()

	rentals := []*booking.Rental{}
	for rows.Next() {
		r, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rental: %w", err)
		}
		rentals = append(rentals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rentals: %w", err)
	}
	return rentals, nil
}

// Create inserts a rental
func (r *RentalRepository) Create(ctx context.Context, rt *booking.Rental) error {
	query := `
		INSERT INTO rentals (
			reference, vehicle_id, user_id, guest_info,
			start_date, end_date, days, total_price,
			status, payment_status, payment_method, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	userID, guestJSON, err := ownerColumns(rt.Owner)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(
		ctx, query,
		rt.Reference, rt.VehicleID, userID, guestJSON,
		rt.StartDate, rt.EndDate, rt.Days, int64(rt.TotalPrice),
		rt.Status, rt.PaymentStatus, rt.PaymentMethod, rt.Notes,
		rt.CreatedAt, rt.UpdatedAt,
	).Scan(&rt.ID)
	if err != nil {
		return fmt.Errorf("failed to create rental: %w", err)
	}
	return nil
}

// FindByID retrieves a rental by ID
func (r *RentalRepository) FindByID(ctx context.Context, id int64) (*booking.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`

	rt, err := scanRental(r.db.QueryRow(ctx, query, id))
	if notFound(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find rental: %w", err)
	}
	return rt, nil
}

// FindByIDForUpdate retrieves a rental and locks its row
func (r *RentalRepository) FindByIDForUpdate(ctx context.Context, id int64) (*booking.Rental, error) {
	if !r.locking {
		return r.FindByID(ctx, id)
	}

	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1 FOR UPDATE`

	rt, err := scanRental(r.db.QueryRow(ctx, query, id))
	if notFound(err) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock rental: %w", err)
	}
	return rt, nil
}

// FindBlockingByVehicle retrieves rentals that occupy the vehicle calendar
func (r *RentalRepository) FindBlockingByVehicle(ctx context.Context, vehicleID int64, excludeID *int64) ([]*booking.Rental, error) {
	query := `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE vehicle_id = $1 AND status = ANY($2) AND ($3::BIGINT IS NULL OR id <> $3)
		ORDER BY start_date ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, vehicleID, pq.Array(blockingRentalStatuses()), excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find blocking rentals: %w", err)
	}
	return collectRentals(rows)
}

// FindBlockingByVehicles retrieves blocking rentals for a page of vehicles
func (r *RentalRepository) FindBlockingByVehicles(ctx context.Context, vehicleIDs []int64) ([]*booking.Rental, error) {
	if len(vehicleIDs) == 0 {
		return []*booking.Rental{}, nil
	}

	query := `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE vehicle_id = ANY($1) AND status = ANY($2)
		ORDER BY vehicle_id ASC, start_date ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, pq.Array(vehicleIDs), pq.Array(blockingRentalStatuses()))
	if err != nil {
		return nil, fmt.Errorf("failed to find blocking rentals: %w", err)
	}
	return collectRentals(rows)
}

// FindBlockingInRange retrieves blocking rentals overlapping [in.Start, in.End)
func (r *RentalRepository) FindBlockingInRange(ctx context.Context, in booking.Interval) ([]*booking.Rental, error) {
	query := `
		SELECT ` + rentalColumns + `
		FROM rentals
		WHERE status = ANY($1) AND start_date < $3 AND end_date > $2
		ORDER BY start_date ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, pq.Array(blockingRentalStatuses()), in.Start, in.End)
	if err != nil {
		return nil, fmt.Errorf("failed to find rentals in range: %w", err)
	}
	return collectRentals(rows)
}

// UpdateStatus persists status, payment status and cancellation metadata
func (r *RentalRepository) UpdateStatus(ctx context.Context, rt *booking.Rental) error {
	query := `
		UPDATE rentals
		SET status = $1, payment_status = $2,
		    cancellation_reason = $3, cancelled_at = $4, cancelled_by = $5,
		    updated_at = $6
		WHERE id = $7
	`

	result, err := r.db.Exec(ctx, query,
		rt.Status, rt.PaymentStatus,
		rt.CancellationReason, rt.CancelledAt, rt.CancelledBy,
		rt.UpdatedAt, rt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rental status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// List retrieves rentals with filters, newest first
func (r *RentalRepository) List(ctx context.Context, f *booking.ListFilter) ([]*booking.Rental, int64, error) {
	whereClause, args, argPos := bookingFilter(f)

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM rentals WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rentals: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM rentals
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, rentalColumns, whereClause, argPos, argPos+1)
	args = append(args, f.Limit, f.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rentals: %w", err)
	}
	rentals, err := collectRentals(rows)
	if err != nil {
		return nil, 0, err
	}
	return rentals, total, nil
}

// bookingFilter builds the WHERE clause shared by rental and sale lists.
func bookingFilter(f *booking.ListFilter) (string, []interface{}, int) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if f.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, f.Status)
		argPos++
	}

	if f.VehicleID != nil {
		conditions = append(conditions, fmt.Sprintf("vehicle_id = $%d", argPos))
		args = append(args, *f.VehicleID)
		argPos++
	}

	if f.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argPos))
		args = append(args, *f.UserID)
		argPos++
	}

	return strings.Join(conditions, " AND "), args, argPos
}

func blockingRentalStatuses() []string {
	out := make([]string, 0, len(booking.BlockingRentalStatuses))
	for _, s := range booking.BlockingRentalStatuses {
		out = append(out, string(s))
	}
	return out
}
