// internal/service/booking/transitions.go
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/domain/vehicle"
	xerrors "vehicle-booking-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// rentalCascade returns the vehicle status a rental transition implies. A
// rental never overwrites SOLD, and cancelling a rental only frees the
// vehicle when that rental had claimed it.
func rentalCascade(current vehicle.Status, from, to booking.RentalStatus) (vehicle.Status, bool) {
	if current == vehicle.StatusSold {
		return "", false
	}
	switch to {
	case booking.RentalStatusConfirmed:
		return vehicle.StatusRented, true
	case booking.RentalStatusCompleted:
		return vehicle.StatusAvailable, true
	case booking.RentalStatusCancelled:
		if from == booking.RentalStatusConfirmed || from == booking.RentalStatusActive {
			return vehicle.StatusAvailable, true
		}
	}
	return "", false
}

// saleCascade returns the vehicle status a sale transition implies. A
// completed sale leaves the vehicle SOLD.
func saleCascade(from, to booking.SaleStatus) (vehicle.Status, bool) {
	switch to {
	case booking.SaleStatusConfirmed:
		return vehicle.StatusSold, true
	case booking.SaleStatusCancelled:
		if from == booking.SaleStatusConfirmed {
			return vehicle.StatusAvailable, true
		}
	}
	return "", false
}

// SetRentalStatus applies an admin status change, writing the rental and the
// cascaded vehicle status in one transaction.
func (s *BookingService) SetRentalStatus(ctx context.Context, rentalID int64, req *booking.UpdateStatusRequest, actorID int64) (*booking.Rental, error) {
	next := booking.RentalStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !next.Valid() {
		return nil, xerrors.InvalidRequest(xerrors.ReasonInvalidStatus, fmt.Sprintf("invalid rental status %q", req.Status))
	}
	payment, err := parsePaymentStatus(req.PaymentStatus)
	if err != nil {
		return nil, err
	}

	current, err := s.store.Rentals().FindByID(ctx, rentalID)
	if err != nil {
		return nil, rentalLookupError(err)
	}

	var updated *booking.Rental
	err = s.store.WithinTx(ctx, func(tx booking.Store) error {
		// Vehicle first, then rental: the same order CreateRental uses
		v, err := tx.Vehicles().FindByIDForUpdate(ctx, current.VehicleID)
		if err != nil {
			return vehicleError(err)
		}
		rental, err := tx.Rentals().FindByIDForUpdate(ctx, rentalID)
		if err != nil {
			return rentalLookupError(err)
		}

		from := rental.Status
		if err := checkTransition(string(from), string(next), from == next, from.CanTransitionTo(next), payment, rental.PaymentStatus); err != nil {
			return err
		}

		now := s.now()
		if next == booking.RentalStatusCancelled && from != next {
			rental.MarkCancelled(cancelReason(req.CancellationReason, defaultAdminCancelReason), actorID, now)
		}
		rental.Status = next
		if payment != nil {
			rental.PaymentStatus = *payment
		}
		rental.UpdatedAt = now

		if err := tx.Rentals().UpdateStatus(ctx, rental); err != nil {
			return fmt.Errorf("update rental status: %w", err)
		}

		if status, ok := rentalCascade(v.Status, from, next); ok && from != next {
			if err := tx.Vehicles().UpdateStatus(ctx, v.ID, status); err != nil {
				return fmt.Errorf("update vehicle status: %w", err)
			}
			v.Status = status
		}

		eventType := booking.EventRentalStatusChanged
		if next == booking.RentalStatusCancelled && from != next {
			eventType = booking.EventRentalCancelled
		}
		if err := s.emit(ctx, tx, booking.AggregateRental, eventType, rentalPayload(rental, from, v.Status, now)); err != nil {
			return err
		}

		rental.Vehicle = v.Summary()
		updated = rental
		return nil
	})
	if err != nil {
		return nil, s.txError("update rental status", err)
	}

	s.invalidate(ctx, updated.VehicleID)

	s.logger.Info("rental status updated",
		zap.Int64("rental_id", updated.ID),
		zap.Int64("vehicle_id", updated.VehicleID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("payment_status", string(updated.PaymentStatus)),
		zap.Int64("actor_id", actorID),
	)

	return updated, nil
}

// SetSaleStatus applies an admin status change to a sale and its vehicle.
func (s *BookingService) SetSaleStatus(ctx context.Context, saleID int64, req *booking.UpdateStatusRequest, actorID int64) (*booking.Sale, error) {
	next := booking.SaleStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !next.Valid() {
		return nil, xerrors.InvalidRequest(xerrors.ReasonInvalidStatus, fmt.Sprintf("invalid sale status %q", req.Status))
	}
	payment, err := parsePaymentStatus(req.PaymentStatus)
	if err != nil {
		return nil, err
	}

	current, err := s.store.Sales().FindByID(ctx, saleID)
	if err != nil {
		return nil, saleLookupError(err)
	}

	var updated *booking.Sale
	err = s.store.WithinTx(ctx, func(tx booking.Store) error {
		v, err := tx.Vehicles().FindByIDForUpdate(ctx, current.VehicleID)
		if err != nil {
			return vehicleError(err)
		}
		sale, err := tx.Sales().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return saleLookupError(err)
		}

		from := sale.Status
		if err := checkTransition(string(from), string(next), from == next, from.CanTransitionTo(next), payment, sale.PaymentStatus); err != nil {
			return err
		}

		now := s.now()
		if next == booking.SaleStatusCancelled && from != next {
			sale.MarkCancelled(cancelReason(req.CancellationReason, defaultAdminCancelReason), actorID, now)
		}
		sale.Status = next
		if payment != nil {
			sale.PaymentStatus = *payment
		}
		sale.UpdatedAt = now

		if err := tx.Sales().UpdateStatus(ctx, sale); err != nil {
			return fmt.Errorf("update sale status: %w", err)
		}

		if status, ok := saleCascade(from, next); ok && from != next {
			if err := tx.Vehicles().UpdateStatus(ctx, v.ID, status); err != nil {
				return fmt.Errorf("update vehicle status: %w", err)
			}
			v.Status = status
		}

		eventType := booking.EventSaleStatusChanged
		if next == booking.SaleStatusCancelled && from != next {
			eventType = booking.EventSaleCancelled
		}
		if err := s.emit(ctx, tx, booking.AggregateSale, eventType, salePayload(sale, string(from), v.Status, now)); err != nil {
			return err
		}

		sale.Vehicle = v.Summary()
		updated = sale
		return nil
	})
	if err != nil {
		return nil, s.txError("update sale status", err)
	}

	s.invalidate(ctx, updated.VehicleID)

	s.logger.Info("sale status updated",
		zap.Int64("sale_id", updated.ID),
		zap.Int64("vehicle_id", updated.VehicleID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("payment_status", string(updated.PaymentStatus)),
		zap.Int64("actor_id", actorID),
	)

	return updated, nil
}

// CancelRental cancels a pending rental on behalf of its owner or an admin.
// A pending rental never claimed the vehicle, so no vehicle status changes.
func (s *BookingService) CancelRental(ctx context.Context, rentalID int64, actor *booking.Actor, reason string) (*booking.Rental, error) {
	current, err := s.store.Rentals().FindByID(ctx, rentalID)
	if err != nil {
		return nil, rentalLookupError(err)
	}

	var cancelled *booking.Rental
	err = s.store.WithinTx(ctx, func(tx booking.Store) error {
		v, err := tx.Vehicles().FindByIDForUpdate(ctx, current.VehicleID)
		if err != nil {
			return vehicleError(err)
		}
		rental, err := tx.Rentals().FindByIDForUpdate(ctx, rentalID)
		if err != nil {
			return rentalLookupError(err)
		}

		if !actor.CanAccess(rental.Owner) {
			return xerrors.Forbidden(xerrors.ReasonNotOwner, "you can only cancel your own rentals")
		}
		if rental.Status != booking.RentalStatusPending {
			return xerrors.InvalidRequest(xerrors.ReasonNotCancellable, "only pending rentals can be cancelled")
		}

		now := s.now()
		rental.MarkCancelled(cancelReason(&reason, defaultOwnerCancelReason), actor.UserID, now)
		if err := tx.Rentals().UpdateStatus(ctx, rental); err != nil {
			return fmt.Errorf("cancel rental: %w", err)
		}

		payload := rentalPayload(rental, booking.RentalStatusPending, v.Status, now)
		if err := s.emit(ctx, tx, booking.AggregateRental, booking.EventRentalCancelled, payload); err != nil {
			return err
		}

		rental.Vehicle = v.Summary()
		cancelled = rental
		return nil
	})
	if err != nil {
		return nil, s.txError("cancel rental", err)
	}

	s.invalidate(ctx, cancelled.VehicleID)

	s.logger.Info("rental cancelled",
		zap.Int64("rental_id", cancelled.ID),
		zap.Int64("vehicle_id", cancelled.VehicleID),
		zap.Int64("cancelled_by", actor.UserID),
	)

	return cancelled, nil
}

// CancelSale cancels a pending sale on behalf of its owner or an admin.
func (s *BookingService) CancelSale(ctx context.Context, saleID int64, actor *booking.Actor, reason string) (*booking.Sale, error) {
	current, err := s.store.Sales().FindByID(ctx, saleID)
	if err != nil {
		return nil, saleLookupError(err)
	}

	var cancelled *booking.Sale
	err = s.store.WithinTx(ctx, func(tx booking.Store) error {
		v, err := tx.Vehicles().FindByIDForUpdate(ctx, current.VehicleID)
		if err != nil {
			return vehicleError(err)
		}
		sale, err := tx.Sales().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return saleLookupError(err)
		}

		if !actor.CanAccess(sale.Owner) {
			return xerrors.Forbidden(xerrors.ReasonNotOwner, "you can only cancel your own purchases")
		}
		if sale.Status != booking.SaleStatusPending {
			return xerrors.InvalidRequest(xerrors.ReasonNotCancellable, "only pending sales can be cancelled")
		}

		now := s.now()
		sale.MarkCancelled(cancelReason(&reason, defaultOwnerCancelReason), actor.UserID, now)
		if err := tx.Sales().UpdateStatus(ctx, sale); err != nil {
			return fmt.Errorf("cancel sale: %w", err)
		}

		payload := salePayload(sale, string(booking.SaleStatusPending), v.Status, now)
		if err := s.emit(ctx, tx, booking.AggregateSale, booking.EventSaleCancelled, payload); err != nil {
			return err
		}

		sale.Vehicle = v.Summary()
		cancelled = sale
		return nil
	})
	if err != nil {
		return nil, s.txError("cancel sale", err)
	}

	s.invalidate(ctx, cancelled.VehicleID)

	s.logger.Info("sale cancelled",
		zap.Int64("sale_id", cancelled.ID),
		zap.Int64("vehicle_id", cancelled.VehicleID),
		zap.Int64("cancelled_by", actor.UserID),
	)

	return cancelled, nil
}

// checkTransition validates a status change against the transition table.
// Keeping the same status is only allowed as a payment status update.
func checkTransition(from, to string, same, allowed bool, payment *booking.PaymentStatus, currentPayment booking.PaymentStatus) error {
	if same {
		if payment != nil && *payment != currentPayment {
			return nil
		}
		return xerrors.InvalidRequest(xerrors.ReasonInvalidTransition, fmt.Sprintf("booking is already %s", from))
	}
	if !allowed {
		return xerrors.InvalidRequest(xerrors.ReasonInvalidTransition, fmt.Sprintf("cannot change status from %s to %s", from, to))
	}
	return nil
}

func cancelReason(reason *string, fallback string) string {
	if reason == nil || strings.TrimSpace(*reason) == "" {
		return fallback
	}
	return strings.TrimSpace(*reason)
}

func rentalLookupError(err error) error {
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return xerrors.NotFound(xerrors.ReasonRentalNotFound, "rental not found")
	}
	return xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to load rental", err)
}

func saleLookupError(err error) error {
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return xerrors.NotFound(xerrors.ReasonSaleNotFound, "sale not found")
	}
	return xerrors.Fault(xerrors.ReasonTransactionFailed, "failed to load sale", err)
}

func rentalPayload(r *booking.Rental, previous booking.RentalStatus, vehicleStatus vehicle.Status, at time.Time) booking.EventPayload {
	return booking.EventPayload{
		Reference:      r.Reference,
		Kind:           booking.AggregateRental,
		BookingID:      r.ID,
		VehicleID:      r.VehicleID,
		OwnerUserID:    ownerUserID(r.Owner),
		Status:         string(r.Status),
		PreviousStatus: string(previous),
		PaymentStatus:  r.PaymentStatus,
		VehicleStatus:  string(vehicleStatus),
		OccurredAt:     at,
	}
}

func salePayload(sl *booking.Sale, previous string, vehicleStatus vehicle.Status, at time.Time) booking.EventPayload {
	return booking.EventPayload{
		Reference:      sl.Reference,
		Kind:           booking.AggregateSale,
		BookingID:      sl.ID,
		VehicleID:      sl.VehicleID,
		OwnerUserID:    ownerUserID(sl.Owner),
		Status:         string(sl.Status),
		PreviousStatus: previous,
		PaymentStatus:  sl.PaymentStatus,
		VehicleStatus:  string(vehicleStatus),
		OccurredAt:     at,
	}
}
