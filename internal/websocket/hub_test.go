package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"vehicle-booking-service/internal/domain/booking"
	wstypes "vehicle-booking-service/internal/domain/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub() *Hub {
	return NewHub(nil, zap.NewNop())
}

func connect(h *Hub, id int64, admin bool) *Client {
	c := NewClient(h, nil, &ClientAuth{IdentityID: id, SessionID: "s", Admin: admin})
	h.registerClient(c)
	drain(c)
	return c
}

func drain(c *Client) []*wstypes.WSMessage {
	var out []*wstypes.WSMessage
	for {
		select {
		case data := <-c.send:
			msg, err := wstypes.ParseMessage(data)
			if err == nil {
				out = append(out, msg)
			}
		default:
			return out
		}
	}
}

func outboxEvent(t *testing.T, owner *int64) *booking.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(booking.EventPayload{
		Reference:   "RNT-1",
		Kind:        booking.AggregateRental,
		BookingID:   1,
		VehicleID:   2,
		OwnerUserID: owner,
		Status:      "PENDING",
		OccurredAt:  time.Now(),
	})
	require.NoError(t, err)
	return &booking.OutboxEvent{
		ID:            "01HZX",
		AggregateType: booking.AggregateRental,
		AggregateID:   1,
		EventType:     booking.EventRentalCreated,
		Payload:       payload,
	}
}

func publish(t *testing.T, h *Hub, e *booking.OutboxEvent) {
	t.Helper()
	require.NoError(t, h.Publish(context.Background(), e))
	h.BroadcastMessage(<-h.broadcast)
}

func TestPublishReachesOwnerAndAdmins(t *testing.T) {
	h := newTestHub()
	owner := connect(h, 7, false)
	stranger := connect(h, 8, false)
	admin := connect(h, 1, true)

	ownerID := int64(7)
	publish(t, h, outboxEvent(t, &ownerID))

	got := drain(owner)
	require.Len(t, got, 1)
	assert.Equal(t, wstypes.EventTypeBooking, got[0].Type)

	assert.Empty(t, drain(stranger))
	assert.Len(t, drain(admin), 1)
}

func TestPublishGuestBookingOnlyReachesAdmins(t *testing.T) {
	h := newTestHub()
	user := connect(h, 7, false)
	admin := connect(h, 1, true)

	publish(t, h, outboxEvent(t, nil))

	assert.Empty(t, drain(user))
	assert.Len(t, drain(admin), 1)
}

func TestAdminOwnerReceivesOneCopy(t *testing.T) {
	h := newTestHub()
	admin := connect(h, 1, true)

	ownerID := int64(1)
	publish(t, h, outboxEvent(t, &ownerID))

	assert.Len(t, drain(admin), 1)
}

func TestUnsubscribedClientIsSkipped(t *testing.T) {
	h := newTestHub()
	owner := connect(h, 7, false)
	owner.Unsubscribe(wstypes.ChannelBookings)

	ownerID := int64(7)
	publish(t, h, outboxEvent(t, &ownerID))

	assert.Empty(t, drain(owner))
}

func TestSubscribeAdminChannelRequiresAdmin(t *testing.T) {
	h := newTestHub()
	user := NewClient(h, nil, &ClientAuth{IdentityID: 7})
	admin := NewClient(h, nil, &ClientAuth{IdentityID: 1, Admin: true})

	assert.False(t, user.Subscribe(wstypes.ChannelAdmin))
	assert.False(t, user.Subscribe("unknown"))
	assert.True(t, admin.Subscribe(wstypes.ChannelAdmin))
	assert.Equal(t, []wstypes.ChannelType{wstypes.ChannelBookings}, user.Channels())
}

func TestUnregisterAndCounts(t *testing.T) {
	h := newTestHub()
	a := connect(h, 7, false)
	connect(h, 7, false)
	assert.Equal(t, 2, h.GetConnectedClients(7))
	assert.Equal(t, 2, h.TotalClients())

	h.unregisterClient(a)
	assert.Equal(t, 1, h.GetConnectedClients(7))
	assert.Error(t, a.ctx.Err())
}

type stubHandler struct {
	called bool
}

func (s *stubHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeRentalStatus}
}

func (s *stubHandler) HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error {
	s.called = true
	client.SendMessage(wstypes.NewMessage(msg.Type, "ok"))
	return nil
}

func TestClientMessages(t *testing.T) {
	h := newTestHub()
	stub := &stubHandler{}
	h.RegisterHandler(stub)
	c := connect(h, 7, false)

	c.handleMessage([]byte(`{"type":"booking:rental_status","data":{"id":3}}`))
	assert.True(t, stub.called)
	got := drain(c)
	require.Len(t, got, 1)
	assert.Equal(t, wstypes.EventTypeRentalStatus, got[0].Type)

	c.handleMessage([]byte(`{"type":"ping"}`))
	got = drain(c)
	require.Len(t, got, 1)
	assert.Equal(t, wstypes.EventTypePong, got[0].Type)

	c.handleMessage([]byte(`not json`))
	got = drain(c)
	require.Len(t, got, 1)
	assert.Equal(t, wstypes.EventTypeError, got[0].Type)
}

func TestPublishAfterShutdown(t *testing.T) {
	h := newTestHub()
	h.shutdown()

	// Fill the buffer so the closed hub is the only ready case.
	for i := 0; i < cap(h.broadcast); i++ {
		h.broadcast <- &BroadcastMessage{}
	}
	err := h.Publish(context.Background(), outboxEvent(t, nil))
	assert.ErrorIs(t, err, ErrHubClosed)
}
