// internal/websocket/handler/booking.go
package handler

import (
	"context"
	"fmt"

	"vehicle-booking-service/internal/domain/booking"
	wstypes "vehicle-booking-service/internal/domain/websocket"
	ws "vehicle-booking-service/internal/websocket"
)

// BookingReader is the part of the booking service the socket can query
type BookingReader interface {
	GetRental(ctx context.Context, rentalID int64, actor *booking.Actor) (*booking.Rental, error)
	GetSale(ctx context.Context, saleID int64, actor *booking.Actor) (*booking.Sale, error)
}

// BookingHandler lets a connected client fetch the current state of one of
// its bookings, typically after a booking:event push.
type BookingHandler struct {
	bookings BookingReader
}

func NewBookingHandler(bookings BookingReader) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// SupportedEvents returns events this handler supports
func (h *BookingHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeRentalStatus,
		wstypes.EventTypeSaleStatus,
	}
}

// HandleMessage answers booking status requests
func (h *BookingHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	var req wstypes.BookingStatusRequest
	if err := ws.DecodeData(msg, &req); err != nil {
		return err
	}
	if req.ID <= 0 {
		return fmt.Errorf("id is required")
	}

	actor := &booking.Actor{UserID: client.GetIdentityID(), Admin: client.IsAdmin()}

	switch msg.Type {
	case wstypes.EventTypeRentalStatus:
		rental, err := h.bookings.GetRental(ctx, req.ID, actor)
		if err != nil {
			return err
		}
		client.SendMessage(wstypes.NewMessage(msg.Type, rental))

	case wstypes.EventTypeSaleStatus:
		sale, err := h.bookings.GetSale(ctx, req.ID, actor)
		if err != nil {
			return err
		}
		client.SendMessage(wstypes.NewMessage(msg.Type, sale))

	default:
		return fmt.Errorf("unsupported event type: %s", msg.Type)
	}

	return nil
}
