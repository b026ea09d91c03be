package app

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bookingHandler "vehicle-booking-service/internal/handlers/booking"
	vehicleHandler "vehicle-booking-service/internal/handlers/vehicle"
	wsHandler "vehicle-booking-service/internal/handlers/websocket"
	"vehicle-booking-service/internal/middleware"
	"vehicle-booking-service/internal/pkg/jwt"
	"vehicle-booking-service/internal/repository/memory"
	"vehicle-booking-service/internal/service/availability"
	bookingUsecase "vehicle-booking-service/internal/service/booking"
	vehicleUsecase "vehicle-booking-service/internal/service/vehicle"
	"vehicle-booking-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(t *testing.T) (*gin.Engine, *jwt.Generator) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	verifier := jwt.NewVerifier(&key.PublicKey, "identity", "bookings")
	gen := jwt.NewGenerator(key, "identity", "bookings", "", time.Hour)

	logger := zap.NewNop()
	store := memory.New()
	resolver := availability.NewResolver(store, nil, logger)
	hub := websocket.NewHub(verifier, logger)

	r := gin.New()
	SetupRouter(r, logger, &Handlers{
		BookingHandler: bookingHandler.NewBookingHandler(bookingUsecase.NewBookingService(store, resolver, nil, logger)),
		VehicleHandler: vehicleHandler.NewVehicleHandler(vehicleUsecase.NewVehicleService(store, logger)),
		WSHandler:      wsHandler.NewWebSocketHandler(hub, nil, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(verifier, logger),
	})
	return r, gen
}

func TestRouterAccessLevels(t *testing.T) {
	r, gen := testRouter(t)
	userTok, _, err := gen.GenerateAccessToken(7, nil)
	require.NoError(t, err)
	adminTok, _, err := gen.GenerateAccessToken(1, []string{jwt.RoleSuperAdmin})
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health", http.MethodGet, "/api/v1/health", "", http.StatusOK},
		{"public vehicles", http.MethodGet, "/api/v1/vehicles", "", http.StatusOK},
		{"unknown vehicle schedule", http.MethodGet, "/api/v1/bookings/vehicle/1/rentals", "", http.StatusNotFound},
		{"own rentals need auth", http.MethodGet, "/api/v1/bookings/rentals", "", http.StatusUnauthorized},
		{"own rentals", http.MethodGet, "/api/v1/bookings/rentals", userTok, http.StatusOK},
		{"admin list rejects user", http.MethodGet, "/api/v1/bookings/admin/rentals", userTok, http.StatusForbidden},
		{"admin list", http.MethodGet, "/api/v1/bookings/admin/sales", adminTok, http.StatusOK},
		{"merged bookings need auth", http.MethodGet, "/api/v1/bookings/my", "", http.StatusUnauthorized},
		{"merged bookings", http.MethodGet, "/api/v1/bookings/my", userTok, http.StatusOK},
		{"admin merged rejects user", http.MethodGet, "/api/v1/bookings/admin/all", userTok, http.StatusForbidden},
		{"admin merged", http.MethodGet, "/api/v1/bookings/admin/all", adminTok, http.StatusOK},
		{"range report", http.MethodGet, "/api/v1/bookings/admin/vehicle-rentals?start_date=2024-01-01&end_date=2024-01-05", adminTok, http.StatusOK},
		{"range report without dates", http.MethodGet, "/api/v1/bookings/admin/vehicle-rentals", adminTok, http.StatusBadRequest},
		{"ws stats", http.MethodGet, "/api/v1/ws/stats", adminTok, http.StatusOK},
		{"ws without token", http.MethodGet, "/ws", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	s := NewServer()
	s.cfg.LogLevel = "loud"
	_, err := newLogger(s.cfg)
	assert.Error(t, err)

	s.cfg.LogLevel = "debug"
	logger, err := newLogger(s.cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
