// internal/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"vehicle-booking-service/internal/domain/booking"
	wstypes "vehicle-booking-service/internal/domain/websocket"
	"vehicle-booking-service/internal/pkg/jwt"

	"go.uber.org/zap"
)

type Hub struct {
	// Registered clients by identity ID
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client

	broadcast chan *BroadcastMessage
	done      chan struct{}

	// Handler registry for client requests
	handlerRegistry *HandlerRegistry

	jwtVerifier *jwt.Verifier
	logger      *zap.Logger
}

// BroadcastMessage targets the given identities on Channel. When AdminChannel
// is set the message also reaches every admin subscribed to it.
type BroadcastMessage struct {
	IdentityIDs  []int64
	Channel      wstypes.ChannelType
	AdminChannel bool
	Message      *wstypes.WSMessage
}

func NewHub(jwtVerifier *jwt.Verifier, logger *zap.Logger) *Hub {
	return &Hub{
		clients:         make(map[int64]map[*Client]bool),
		Register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		done:            make(chan struct{}),
		handlerRegistry: NewHandlerRegistry(),
		jwtVerifier:     jwtVerifier,
		logger:          logger,
	}
}

// AuthenticateClient validates the access token of a connecting client
func (h *Hub) AuthenticateClient(token string) (*ClientAuth, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := h.jwtVerifier.VerifyAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &ClientAuth{
		IdentityID: claims.IdentityID,
		SessionID:  claims.ID,
		Admin:      claims.IsAdmin(),
	}, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlerRegistry.Register(handler)
}

// Attach hands a connected client to the hub loop
func (h *Hub) Attach(client *Client) error {
	select {
	case h.Register <- client:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// HandleClientMessage dispatches a client message to its registered handler
func (h *Hub) HandleClientMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) (bool, error) {
	handler, exists := h.handlerRegistry.GetHandler(msg.Type)
	if !exists {
		return false, nil
	}
	return true, handler.HandleMessage(ctx, client, msg)
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.identityID] == nil {
		h.clients[client.identityID] = make(map[*Client]bool)
	}
	h.clients[client.identityID][client] = true

	h.logger.Info("websocket client connected",
		zap.Int64("identity_id", client.identityID),
		zap.String("session_id", client.sessionID),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"identity_id": client.identityID,
		"session_id":  client.sessionID,
		"admin":       client.admin,
		"channels":    client.Channels(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.identityID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.identityID)
			}

			h.logger.Info("websocket client disconnected",
				zap.Int64("identity_id", client.identityID),
				zap.String("session_id", client.sessionID),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

// BroadcastMessage delivers msg once to every matching client
func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := make(map[*Client]bool)
	for _, identityID := range msg.IdentityIDs {
		for client := range h.clients[identityID] {
			if client.IsSubscribed(msg.Channel) {
				targets[client] = true
			}
		}
	}

	if msg.AdminChannel {
		for _, clients := range h.clients {
			for client := range clients {
				if client.admin && client.IsSubscribed(wstypes.ChannelAdmin) {
					targets[client] = true
				}
			}
		}
	}

	for client := range targets {
		client.SendMessage(msg.Message)
	}
}

// Publish pushes a committed booking event to the reservation owner, when
// the owner is an authenticated user, and to connected admins.
func (h *Hub) Publish(ctx context.Context, event *booking.OutboxEvent) error {
	var payload booking.EventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode booking event %s: %w", event.ID, err)
	}

	var owners []int64
	if payload.OwnerUserID != nil {
		owners = []int64{*payload.OwnerUserID}
	}

	msg := &BroadcastMessage{
		IdentityIDs:  owners,
		Channel:      wstypes.ChannelBookings,
		AdminChannel: true,
		Message: wstypes.NewMessage(wstypes.EventTypeBooking, wstypes.BookingEventData{
			EventID:   event.ID,
			EventType: string(event.EventType),
			Payload:   event.Payload,
		}),
	}

	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) GetConnectedClients(identityID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[identityID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for identityID, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
		delete(h.clients, identityID)
	}
}
