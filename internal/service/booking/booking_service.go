// internal/service/booking/booking_service.go
package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/domain/vehicle"
	xerrors "vehicle-booking-service/internal/pkg/errors"
	"vehicle-booking-service/internal/service/availability"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	rentalRefPrefix = "RNT"
	saleRefPrefix   = "SAL"

	defaultAdminCancelReason = "Admin cancelled"
	defaultOwnerCancelReason = "Cancelled by customer"
)

type BookingService struct {
	store    booking.Store
	resolver *availability.Resolver
	cache    availability.Cache
	logger   *zap.Logger
	now      func() time.Time
}

func NewBookingService(
	store booking.Store,
	resolver *availability.Resolver,
	cache availability.Cache,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		store:    store,
		resolver: resolver,
		cache:    cache,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CheckAvailability delegates to the resolver's public read path.
func (s *BookingService) CheckAvailability(ctx context.Context, req *booking.CheckAvailabilityRequest) (*booking.Availability, error) {
	return s.resolver.CheckAvailability(ctx, req)
}

// resolveOwner applies the terms and identity checks shared by rentals and sales.
func resolveOwner(agreeToTerms bool, guest *booking.GuestInfo, actor *booking.Actor) (booking.OwnerRef, error) {
	if !agreeToTerms {
		return booking.OwnerRef{}, xerrors.InvalidRequest(xerrors.ReasonTermsNotAccepted, "you must agree to the terms and conditions")
	}
	if actor != nil && actor.UserID != 0 {
		return booking.Authenticated(actor.UserID), nil
	}
	if guest == nil {
		return booking.OwnerRef{}, xerrors.InvalidRequest(xerrors.ReasonMissingIdentity, "sign in or provide guest information")
	}
	if !guest.Complete() {
		return booking.OwnerRef{}, xerrors.InvalidRequest(xerrors.ReasonIncompleteGuestInfo,
			"guest first name, last name, email, phone, address and license number are required")
	}
	return booking.Guest(*guest), nil
}

func parsePaymentMethod(m booking.PaymentMethod) (booking.PaymentMethod, error) {
	if m == "" {
		return booking.PaymentMethodCard, nil
	}
	m = booking.PaymentMethod(strings.ToLower(string(m)))
	if !m.Valid() {
		return "", xerrors.InvalidRequest(xerrors.ReasonInvalidPayment, fmt.Sprintf("unsupported payment method %q", m))
	}
	return m, nil
}

func parsePaymentStatus(p *string) (*booking.PaymentStatus, error) {
	if p == nil {
		return nil, nil
	}
	ps := booking.PaymentStatus(strings.ToUpper(strings.TrimSpace(*p)))
	if !ps.Valid() {
		return nil, xerrors.InvalidRequest(xerrors.ReasonInvalidStatus, fmt.Sprintf("invalid payment status %q", *p))
	}
	return &ps, nil
}

func newReference(prefix string) string {
	return prefix + "-" + ulid.Make().String()
}

// emit writes a booking event to the outbox inside tx.
func (s *BookingService) emit(ctx context.Context, tx booking.Store, aggregate string, eventType booking.EventType, payload booking.EventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	event := &booking.OutboxEvent{
		ID:            ulid.Make().String(),
		AggregateType: aggregate,
		AggregateID:   payload.BookingID,
		EventType:     eventType,
		Payload:       body,
		Status:        booking.EventStatusPending,
		CreatedAt:     payload.OccurredAt,
	}
	if err := tx.Outbox().Insert(ctx, event); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func ownerUserID(o booking.OwnerRef) *int64 {
	if id, ok := o.UserID(); ok {
		return &id
	}
	return nil
}

// invalidate drops cached availability answers for a vehicle after a committed write.
func (s *BookingService) invalidate(ctx context.Context, vehicleID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, vehicleID); err != nil {
		s.logger.Warn("failed to invalidate availability cache",
			zap.Int64("vehicle_id", vehicleID),
			zap.Error(err),
		)
	}
}

func vehicleError(err error) error {
	return availability.VehicleLookupError(err)
}

// txError keeps classified errors and turns anything else into a fault.
func (s *BookingService) txError(op string, err error) error {
	if appErr, ok := xerrors.As(err); ok {
		if appErr.Code == xerrors.CodeFault {
			s.logger.Error(op+" failed", zap.String("reason", appErr.Reason), zap.Error(appErr.Err))
		} else {
			s.logger.Info(op+" rejected", zap.String("reason", appErr.Reason), zap.String("message", appErr.Message))
		}
		return err
	}
	s.logger.Error(op+" failed", zap.Error(err))
	return xerrors.Fault(xerrors.ReasonTransactionFailed, "the booking could not be saved, please try again", err)
}

// summaries loads vehicle summaries for a page of bookings.
func (s *BookingService) summaries(ctx context.Context, ids []int64) map[int64]*vehicle.Summary {
	out := make(map[int64]*vehicle.Summary, len(ids))
	for _, id := range ids {
		if _, seen := out[id]; seen {
			continue
		}
		v, err := s.store.Vehicles().FindByID(ctx, id)
		if err != nil {
			s.logger.Warn("failed to load vehicle for booking", zap.Int64("vehicle_id", id), zap.Error(err))
			out[id] = nil
			continue
		}
		out[id] = v.Summary()
	}
	return out
}
