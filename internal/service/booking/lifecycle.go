// internal/service/booking/lifecycle.go
package booking

import (
	"context"
	"fmt"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/domain/vehicle"
	xerrors "vehicle-booking-service/internal/pkg/errors"
	"vehicle-booking-service/internal/service/availability"
	"vehicle-booking-service/internal/service/pricing"

	"go.uber.org/zap"
)

// CreateRental books a vehicle for [start, end). The vehicle row stays locked
// from the availability check until the rental is committed, so concurrent
// requests for overlapping dates cannot both succeed.
func (s *BookingService) CreateRental(ctx context.Context, req *booking.CreateRentalRequest, actor *booking.Actor) (*booking.Rental, error) {
	owner, err := resolveOwner(req.AgreeToTerms, req.Guest, actor)
	if err != nil {
		return nil, err
	}

	interval, err := availability.ParseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	method, err := parsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	var created *booking.Rental
	err = s.store.WithinTx(ctx, func(tx booking.Store) error {
		// Lock the vehicle before reading its reservations
		v, err := tx.Vehicles().FindByIDForUpdate(ctx, req.VehicleID)
		if err != nil {
			return availability.VehicleLookupError(err)
		}

		result, err := s.resolver.Evaluate(ctx, tx, v, interval, nil)
		if err != nil {
			return err
		}
		if !result.Available {
			return availability.AsError(result)
		}

		quote := pricing.QuoteRental(v, interval)
		now := s.now()

		rental := &booking.Rental{
			Reference:     newReference(rentalRefPrefix),
			VehicleID:     v.ID,
			Owner:         owner,
			StartDate:     interval.Start,
			EndDate:       interval.End,
			Days:          quote.Days,
			TotalPrice:    quote.Total,
			Status:        booking.RentalStatusPending,
			PaymentStatus: booking.PaymentStatusPending,
			PaymentMethod: method,
			Notes:         req.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Rentals().Create(ctx, rental); err != nil {
			return fmt.Errorf("create rental: %w", err)
		}

		if err := s.emit(ctx, tx, booking.AggregateRental, booking.EventRentalCreated, rentalPayload(rental, "", v.Status, now)); err != nil {
			return err
		}

		rental.Vehicle = v.Summary()
		created = rental
		return nil
	})
	if err != nil {
		return nil, s.txError("create rental", err)
	}

	s.invalidate(ctx, created.VehicleID)

	s.logger.Info("rental created",
		zap.Int64("rental_id", created.ID),
		zap.String("reference", created.Reference),
		zap.Int64("vehicle_id", created.VehicleID),
		zap.String("owner", created.Owner.String()),
		zap.String("total_price", created.TotalPrice.String()),
	)

	return created, nil
}

// CreateSale reserves a vehicle for purchase at its current sale price.
func (s *BookingService) CreateSale(ctx context.Context, req *booking.CreateSaleRequest, actor *booking.Actor) (*booking.Sale, error) {
	owner, err := resolveOwner(req.AgreeToTerms, req.Guest, actor)
	if err != nil {
		return nil, err
	}

	method, err := parsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	var created *booking.Sale
	err = s.store.WithinTx(ctx, func(tx booking.Store) error {
		v, err := tx.Vehicles().FindByIDForUpdate(ctx, req.VehicleID)
		if err != nil {
			return availability.VehicleLookupError(err)
		}

		if err := checkSellable(v); err != nil {
			return err
		}

		// Another pending or confirmed sale holds the vehicle
		existing, err := tx.Sales().FindBlockingByVehicle(ctx, v.ID)
		if err != nil {
			return fmt.Errorf("load blocking sales: %w", err)
		}
		if len(existing) > 0 {
			ids := make([]int64, 0, len(existing))
			for _, sl := range existing {
				ids = append(ids, sl.ID)
			}
			return xerrors.Conflict(xerrors.ReasonSaleBlocked, "vehicle already has a pending sale", map[string]interface{}{
				"vehicle_id":        v.ID,
				"blocking_sale_ids": ids,
			})
		}

		now := s.now()
		sale := &booking.Sale{
			Reference:     newReference(saleRefPrefix),
			VehicleID:     v.ID,
			Owner:         owner,
			SalePrice:     *v.SalePrice,
			Status:        booking.SaleStatusPending,
			PaymentStatus: booking.PaymentStatusPending,
			PaymentMethod: method,
			Notes:         req.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Sales().Create(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		if err := s.emit(ctx, tx, booking.AggregateSale, booking.EventSaleCreated, salePayload(sale, "", v.Status, now)); err != nil {
			return err
		}

		sale.Vehicle = v.Summary()
		created = sale
		return nil
	})
	if err != nil {
		return nil, s.txError("create sale", err)
	}

	s.invalidate(ctx, created.VehicleID)

	s.logger.Info("sale created",
		zap.Int64("sale_id", created.ID),
		zap.String("reference", created.Reference),
		zap.Int64("vehicle_id", created.VehicleID),
		zap.String("owner", created.Owner.String()),
		zap.String("sale_price", created.SalePrice.String()),
	)

	return created, nil
}

func checkSellable(v *vehicle.Vehicle) error {
	if !v.Sellable() {
		return xerrors.Conflict(xerrors.ReasonVehicleNotSellable, "vehicle is not available for sale", map[string]interface{}{
			"vehicle_id": v.ID,
			"status":     v.Status,
			"is_active":  v.IsActive,
			"kind":       v.Kind,
		})
	}
	if v.SalePrice == nil {
		return xerrors.Conflict(xerrors.ReasonMissingSalePrice, "vehicle has no sale price", map[string]interface{}{
			"vehicle_id": v.ID,
		})
	}
	return nil
}
