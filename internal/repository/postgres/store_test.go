package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/domain/vehicle"
	xerrors "vehicle-booking-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(NewDB(mock), zap.NewNop()), mock
}

// int64Ptr matches a *int64 argument by value.
type int64Ptr struct{ want *int64 }

func (a int64Ptr) Match(v interface{}) bool {
	p, ok := v.(*int64)
	if !ok {
		return false
	}
	if a.want == nil {
		return p == nil
	}
	return p != nil && *p == *a.want
}

var rentalCols = []string{
	"id", "reference", "vehicle_id", "user_id", "guest_info",
	"start_date", "end_date", "days", "total_price",
	"status", "payment_status", "payment_method", "notes",
	"cancellation_reason", "cancelled_at", "cancelled_by",
	"created_at", "updated_at",
}

func TestVehicleLockInsideTransaction(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM vehicles WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := store.WithinTx(ctx, func(tx booking.Store) error {
		_, err := tx.Vehicles().FindByIDForUpdate(ctx, 42)
		return err
	})
	assert.True(t, errors.Is(err, xerrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleLockOutsideTransactionIsPlainRead(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM vehicles WHERE id = \$1\s*$`).
		WithArgs(int64(42)).
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Vehicles().FindByIDForUpdate(context.Background(), 42)
	assert.True(t, errors.Is(err, xerrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalAndSaleLocks(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM rentals WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`FROM sales WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(8)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectCommit()

	err := store.WithinTx(ctx, func(tx booking.Store) error {
		_, err := tx.Rentals().FindByIDForUpdate(ctx, 7)
		if !errors.Is(err, xerrors.ErrNotFound) {
			return fmt.Errorf("rental lock: %v", err)
		}
		_, err = tx.Sales().FindByIDForUpdate(ctx, 8)
		if !errors.Is(err, xerrors.ErrNotFound) {
			return fmt.Errorf("sale lock: %v", err)
		}
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBlockingByVehiclePassesExclusion(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	exclude := int64(11)

	mock.ExpectQuery(`WHERE vehicle_id = \$1 AND status = ANY\(\$2\) AND \(\$3::BIGINT IS NULL OR id <> \$3\)`).
		WithArgs(int64(3), pgxmock.AnyArg(), int64Ptr{want: &exclude}).
		WillReturnRows(pgxmock.NewRows(rentalCols))
	mock.ExpectQuery(`WHERE vehicle_id = \$1 AND status = ANY\(\$2\)`).
		WithArgs(int64(3), pgxmock.AnyArg(), int64Ptr{}).
		WillReturnRows(pgxmock.NewRows(rentalCols))

	rentals, err := store.Rentals().FindBlockingByVehicle(ctx, 3, &exclude)
	require.NoError(t, err)
	assert.Empty(t, rentals)
	assert.NotNil(t, rentals)

	_, err = store.Rentals().FindBlockingByVehicle(ctx, 3, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBlockingByVehiclesSkipsEmptyInput(t *testing.T) {
	store, mock := newMockStore(t)

	rentals, err := store.Rentals().FindBlockingByVehicles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rentals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBlockingInRangeBounds(t *testing.T) {
	store, mock := newMockStore(t)
	in := booking.Interval{
		Start: time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectQuery(`status = ANY\(\$1\) AND start_date < \$3 AND end_date > \$2`).
		WithArgs(pgxmock.AnyArg(), in.Start, in.End).
		WillReturnRows(pgxmock.NewRows(rentalCols))

	rentals, err := store.Rentals().FindBlockingInRange(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, rentals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingRow(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE vehicles SET status = \$1`).
		WithArgs(vehicle.StatusRented, pgxmock.AnyArg(), int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(`UPDATE rentals`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.Vehicles().UpdateStatus(ctx, 5, vehicle.StatusRented)
	assert.True(t, errors.Is(err, xerrors.ErrNotFound))

	err = store.Rentals().UpdateStatus(ctx, &booking.Rental{ID: 9, Status: booking.RentalStatusConfirmed})
	assert.True(t, errors.Is(err, xerrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxFetchSkipsLockedRowsInTransaction(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	cols := []string{"id", "aggregate_type", "aggregate_id", "event_type", "payload", "status", "created_at", "sent_at"}

	mock.ExpectQuery(`LIMIT \$2\s*$`).
		WithArgs(booking.EventStatusPending, 10).
		WillReturnRows(pgxmock.NewRows(cols))
	mock.ExpectBegin()
	mock.ExpectQuery(`LIMIT \$2\s+FOR UPDATE SKIP LOCKED`).
		WithArgs(booking.EventStatusPending, 10).
		WillReturnRows(pgxmock.NewRows(cols))
	mock.ExpectCommit()

	events, err := store.Outbox().FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	err = store.WithinTx(ctx, func(tx booking.Store) error {
		_, err := tx.Outbox().FetchPending(ctx, 10)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxCommitsAndNests(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO outbox_events`).
		WithArgs("01EVT", booking.AggregateRental, int64(1), booking.EventRentalCreated, pgxmock.AnyArg(), booking.EventStatusPending, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := store.WithinTx(ctx, func(tx booking.Store) error {
		// A nested call reuses the open transaction
		return tx.WithinTx(ctx, func(inner booking.Store) error {
			return inner.Outbox().Insert(ctx, &booking.OutboxEvent{
				ID:            "01EVT",
				AggregateType: booking.AggregateRental,
				AggregateID:   1,
				EventType:     booking.EventRentalCreated,
				Payload:       []byte(`{}`),
				Status:        booking.EventStatusPending,
				CreatedAt:     time.Now(),
			})
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRetriesThenFaults(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	for _, code := range []string{"40001", "40P01"} {
		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs(int64(42)).
			WillReturnError(&pgconn.PgError{Code: code})
		mock.ExpectRollback()
	}

	calls := 0
	err := store.WithinTx(ctx, func(tx booking.Store) error {
		calls++
		_, err := tx.Vehicles().FindByIDForUpdate(ctx, 42)
		return err
	})
	require.Error(t, err)
	assert.Equal(t, maxTxAttempts, calls)
	assert.Equal(t, xerrors.ReasonTransactionFailed, xerrors.ReasonOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRetrySucceeds(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE vehicles`).
		WithArgs(vehicle.StatusSold, pgxmock.AnyArg(), int64(3)).
		WillReturnError(&pgconn.PgError{Code: "40P01"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE vehicles`).
		WithArgs(vehicle.StatusSold, pgxmock.AnyArg(), int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := store.WithinTx(ctx, func(tx booking.Store) error {
		return tx.Vehicles().UpdateStatus(ctx, 3, vehicle.StatusSold)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxDoesNotRetryOtherErrors(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectRollback()

	conflict := xerrors.Conflict(xerrors.ReasonDateConflict, "taken", nil)
	calls := 0
	err := store.WithinTx(ctx, func(tx booking.Store) error {
		calls++
		return conflict
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, xerrors.ReasonDateConflict, xerrors.ReasonOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"wrapped serialization failure", fmt.Errorf("lock vehicle: %w", &pgconn.PgError{Code: "40001"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"no rows", pgx.ErrNoRows, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}
