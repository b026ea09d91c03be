// internal/repository/postgres/db.go
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/domain/vehicle"
	xerrors "vehicle-booking-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

// maxTxAttempts bounds how often a transaction is replayed after a
// serialization failure or deadlock.
const maxTxAttempts = 2

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is the subset of *pgxpool.Pool the store needs.
type Pool interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type DB struct {
	pool Pool
}

func NewDB(pool Pool) *DB {
	return &DB{pool: pool}
}

func (db *DB) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return db.pool.Begin(ctx)
}

// EnsureSchema creates the booking tables when they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Store implements booking.Store on PostgreSQL. Outside a transaction the
// repositories use the pool; inside WithinTx they share one pgx.Tx.
type Store struct {
	db     *DB
	q      querier
	inTx   bool
	logger *zap.Logger
}

func NewStore(db *DB, logger *zap.Logger) *Store {
	return &Store{db: db, q: db.pool, logger: logger}
}

func (s *Store) Vehicles() vehicle.Repository {
	return &VehicleRepository{db: s.q, locking: s.inTx}
}

func (s *Store) Rentals() booking.RentalRepository {
	return &RentalRepository{db: s.q, locking: s.inTx}
}

func (s *Store) Sales() booking.SaleRepository {
	return &SaleRepository{db: s.q, locking: s.inTx}
}

func (s *Store) Outbox() booking.OutboxRepository {
	return &OutboxRepository{db: s.q, locking: s.inTx}
}

// WithinTx runs fn in a transaction. A serialization failure or deadlock
// replays fn once; a second failure is reported as a transient fault.
func (s *Store) WithinTx(ctx context.Context, fn func(tx booking.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		s.logger.Warn("transaction aborted by database, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	return xerrors.Fault(xerrors.ReasonTransactionFailed, "the booking could not be saved, please try again", err)
}

func (s *Store) runTx(ctx context.Context, fn func(tx booking.Store) error) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{db: s.db, q: tx, inTx: true, logger: s.logger}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func notFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
