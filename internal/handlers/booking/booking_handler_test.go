package booking

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/domain/vehicle"
	"vehicle-booking-service/internal/middleware"
	"vehicle-booking-service/internal/pkg/jwt"
	"vehicle-booking-service/internal/pkg/money"
	"vehicle-booking-service/internal/repository/memory"
	"vehicle-booking-service/internal/service/availability"
	service "vehicle-booking-service/internal/service/booking"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Reason  string          `json:"reason"`
}

type testServer struct {
	router *gin.Engine
	store  *memory.Store
	gen    *jwt.Generator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	gen := jwt.NewGenerator(key, "identity", "bookings", "", time.Hour)
	auth := middleware.NewAuthMiddleware(jwt.NewVerifier(&key.PublicKey, "identity", "bookings"), zap.NewNop())

	store := memory.New()
	logger := zap.NewNop()
	resolver := availability.NewResolver(store, nil, logger)
	h := NewBookingHandler(service.NewBookingService(store, resolver, nil, logger))

	r := gin.New()
	g := r.Group("/api/v1/bookings")
	g.POST("/check-availability", h.CheckAvailability)
	g.GET("/vehicle/:vehicleId/rentals", h.GetVehicleSchedule)
	g.POST("/rentals", auth.OptionalAuth(), h.CreateRental)
	g.POST("/sales", auth.OptionalAuth(), h.CreateSale)

	user := g.Group("", auth.Auth())
	user.GET("/my", h.ListMyBookings)
	user.GET("/rentals", h.ListMyRentals)
	user.GET("/sales", h.ListMySales)
	user.GET("/rentals/:id", h.GetRental)
	user.GET("/sales/:id", h.GetSale)
	user.PATCH("/rentals/:id/cancel", h.CancelRental)
	user.PATCH("/sales/:id/cancel", h.CancelSale)

	admin := g.Group("/admin", auth.AdminOnly()...)
	admin.GET("/all", h.AdminListBookings)
	admin.GET("/vehicle-rentals", h.AdminRentalsInRange)
	admin.GET("/rentals", h.AdminListRentals)
	admin.GET("/sales", h.AdminListSales)
	admin.PATCH("/rentals/:id/status", h.AdminUpdateRentalStatus)
	admin.PATCH("/sales/:id/status", h.AdminUpdateSaleStatus)

	return &testServer{router: r, store: store, gen: gen}
}

func (s *testServer) token(t *testing.T, id int64, roles ...string) string {
	t.Helper()
	tok, _, err := s.gen.GenerateAccessToken(id, roles)
	require.NoError(t, err)
	return tok
}

func (s *testServer) seedVehicle(kind vehicle.Kind) *vehicle.Vehicle {
	weekly := money.FromUnits(300)
	price := money.FromUnits(15000)
	return s.store.AddVehicle(vehicle.Vehicle{
		Make:       "Toyota",
		Model:      "Hilux",
		Year:       2021,
		Kind:       kind,
		Status:     vehicle.StatusAvailable,
		IsActive:   true,
		DailyRate:  money.FromUnits(50),
		WeeklyRate: &weekly,
		SalePrice:  &price,
	})
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func guest() *booking.GuestInfo {
	return &booking.GuestInfo{
		FirstName:     "Jane",
		LastName:      "Doe",
		Email:         "jane@example.com",
		Phone:         "+15550100",
		Address:       "12 Main St",
		LicenseNumber: "LIC-889",
	}
}

func TestCreateRentalAuthenticatedAndConflict(t *testing.T) {
	s := newTestServer(t)
	v := s.seedVehicle(vehicle.KindBoth)
	tok := s.token(t, 7)

	req := booking.CreateRentalRequest{VehicleID: v.ID, StartDate: "2024-01-01", EndDate: "2024-01-11", AgreeToTerms: true}
	status, env := s.do(t, http.MethodPost, "/api/v1/bookings/rentals", tok, req)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)

	var rental booking.Rental
	require.NoError(t, json.Unmarshal(env.Data, &rental))
	assert.Equal(t, booking.RentalStatusPending, rental.Status)
	assert.Equal(t, "450.00", rental.TotalPrice.String())

	req.StartDate, req.EndDate = "2024-01-05", "2024-01-07"
	status, env = s.do(t, http.MethodPost, "/api/v1/bookings/rentals", tok, req)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Code)
	assert.Equal(t, "date_conflict", env.Reason)
}

func TestCreateRentalGuest(t *testing.T) {
	s := newTestServer(t)
	v := s.seedVehicle(vehicle.KindRentalOnly)

	req := booking.CreateRentalRequest{VehicleID: v.ID, StartDate: "2024-03-01", EndDate: "2024-03-03", AgreeToTerms: true}
	status, env := s.do(t, http.MethodPost, "/api/v1/bookings/rentals", "", req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "missing_identity", env.Reason)

	req.Guest = guest()
	status, _ = s.do(t, http.MethodPost, "/api/v1/bookings/rentals", "", req)
	assert.Equal(t, http.StatusCreated, status)
}

func TestCreateRentalBindError(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/api/v1/bookings/rentals", "", map[string]string{"notes": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestCheckAvailability(t *testing.T) {
	s := newTestServer(t)
	v := s.seedVehicle(vehicle.KindBoth)

	req := booking.CheckAvailabilityRequest{VehicleID: v.ID, StartDate: "2024-05-01", EndDate: "2024-05-04"}
	status, env := s.do(t, http.MethodPost, "/api/v1/bookings/check-availability", "", req)
	require.Equal(t, http.StatusOK, status)

	var result booking.Availability
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.True(t, result.Available)

	req.EndDate = "2024-04-01"
	status, env = s.do(t, http.MethodPost, "/api/v1/bookings/check-availability", "", req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_range", env.Reason)
}

func TestGetRentalOwnership(t *testing.T) {
	s := newTestServer(t)
	v := s.seedVehicle(vehicle.KindBoth)

	req := booking.CreateRentalRequest{VehicleID: v.ID, StartDate: "2024-06-01", EndDate: "2024-06-03", AgreeToTerms: true}
	_, env := s.do(t, http.MethodPost, "/api/v1/bookings/rentals", s.token(t, 7), req)
	var rental booking.Rental
	require.NoError(t, json.Unmarshal(env.Data, &rental))

	path := "/api/v1/bookings/rentals/" + itoa(rental.ID)

	status, _ := s.do(t, http.MethodGet, path, s.token(t, 7), nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, path, s.token(t, 8), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "not_owner", env.Reason)

	status, _ = s.do(t, http.MethodGet, path, s.token(t, 1, jwt.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/bookings/rentals/abc", s.token(t, 7), nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(t, http.MethodGet, "/api/v1/bookings/rentals/999", s.token(t, 7), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "rental_not_found", env.Reason)
}

func TestCancelRentalWithoutBody(t *testing.T) {
	s := newTestServer(t)
	v := s.seedVehicle(vehicle.KindBoth)
	tok := s.token(t, 7)

	req := booking.CreateRentalRequest{VehicleID: v.ID, StartDate: "2024-07-01", EndDate: "2024-07-03", AgreeToTerms: true}
	_, env := s.do(t, http.MethodPost, "/api/v1/bookings/rentals", tok, req)
	var rental booking.Rental
	require.NoError(t, json.Unmarshal(env.Data, &rental))

	status, env := s.do(t, http.MethodPatch, "/api/v1/bookings/rentals/"+itoa(rental.ID)+"/cancel", tok, nil)
	require.Equal(t, http.StatusOK, status)

	var cancelled booking.Rental
	require.NoError(t, json.Unmarshal(env.Data, &cancelled))
	assert.Equal(t, booking.RentalStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "Cancelled by customer", *cancelled.CancellationReason)
}

func TestAdminStatusFlow(t *testing.T) {
	s := newTestServer(t)
	v := s.seedVehicle(vehicle.KindBoth)
	adminTok := s.token(t, 1, jwt.RoleAdmin)

	req := booking.CreateSaleRequest{VehicleID: v.ID, AgreeToTerms: true, Guest: guest()}
	status, env := s.do(t, http.MethodPost, "/api/v1/bookings/sales", "", req)
	require.Equal(t, http.StatusCreated, status)
	var sale booking.Sale
	require.NoError(t, json.Unmarshal(env.Data, &sale))

	path := "/api/v1/bookings/admin/sales/" + itoa(sale.ID) + "/status"

	status, _ = s.do(t, http.MethodPatch, path, s.token(t, 7), booking.UpdateStatusRequest{Status: "CONFIRMED"})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.do(t, http.MethodPatch, path, adminTok, booking.UpdateStatusRequest{Status: "CONFIRMED"})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &sale))
	assert.Equal(t, booking.SaleStatusConfirmed, sale.Status)

	status, env = s.do(t, http.MethodPatch, path, adminTok, booking.UpdateStatusRequest{Status: "PENDING"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_transition", env.Reason)

	status, env = s.do(t, http.MethodGet, "/api/v1/bookings/admin/sales?status=confirmed", adminTok, nil)
	require.Equal(t, http.StatusOK, status)
	var list booking.SaleListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.Total)
}

func TestListMyRentalsAndSchedule(t *testing.T) {
	s := newTestServer(t)
	v := s.seedVehicle(vehicle.KindBoth)

	for i, dates := range [][2]string{{"2024-08-01", "2024-08-03"}, {"2024-08-10", "2024-08-12"}} {
		req := booking.CreateRentalRequest{VehicleID: v.ID, StartDate: dates[0], EndDate: dates[1], AgreeToTerms: true}
		status, _ := s.do(t, http.MethodPost, "/api/v1/bookings/rentals", s.token(t, int64(7+i)), req)
		require.Equal(t, http.StatusCreated, status)
	}

	status, env := s.do(t, http.MethodGet, "/api/v1/bookings/rentals?page=1&limit=5", s.token(t, 7), nil)
	require.Equal(t, http.StatusOK, status)
	var list booking.RentalListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.Total)
	assert.Equal(t, 5, list.Limit)

	status, env = s.do(t, http.MethodGet, "/api/v1/bookings/vehicle/"+itoa(v.ID)+"/rentals", "", nil)
	require.Equal(t, http.StatusOK, status)
	var schedule []booking.ScheduleEntry
	require.NoError(t, json.Unmarshal(env.Data, &schedule))
	assert.Len(t, schedule, 2)

	status, _ = s.do(t, http.MethodGet, "/api/v1/bookings/vehicle/0/rentals", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListMyBookingsAndAdminViews(t *testing.T) {
	s := newTestServer(t)
	car := s.seedVehicle(vehicle.KindBoth)
	truck := s.seedVehicle(vehicle.KindBoth)
	userTok := s.token(t, 7)
	adminTok := s.token(t, 1, jwt.RoleAdmin)

	rental := booking.CreateRentalRequest{VehicleID: car.ID, StartDate: "2024-09-01", EndDate: "2024-09-05", AgreeToTerms: true}
	status, _ := s.do(t, http.MethodPost, "/api/v1/bookings/rentals", userTok, rental)
	require.Equal(t, http.StatusCreated, status)
	status, _ = s.do(t, http.MethodPost, "/api/v1/bookings/sales", userTok, booking.CreateSaleRequest{VehicleID: truck.ID, AgreeToTerms: true})
	require.Equal(t, http.StatusCreated, status)
	status, _ = s.do(t, http.MethodPost, "/api/v1/bookings/rentals", "", booking.CreateRentalRequest{
		VehicleID: car.ID, StartDate: "2024-09-10", EndDate: "2024-09-12", AgreeToTerms: true, Guest: guest(),
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/bookings/my", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := s.do(t, http.MethodGet, "/api/v1/bookings/my", userTok, nil)
	require.Equal(t, http.StatusOK, status)
	var mine booking.BookingListResponse
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	assert.EqualValues(t, 2, mine.Total)
	kinds := map[booking.BookingKind]int{}
	for _, item := range mine.Bookings {
		kinds[item.Type]++
	}
	assert.Equal(t, map[booking.BookingKind]int{booking.BookingKindRental: 1, booking.BookingKindSale: 1}, kinds)

	status, _ = s.do(t, http.MethodGet, "/api/v1/bookings/admin/all", userTok, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.do(t, http.MethodGet, "/api/v1/bookings/admin/all?limit=2", adminTok, nil)
	require.Equal(t, http.StatusOK, status)
	var all booking.BookingListResponse
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.EqualValues(t, 3, all.Total)
	assert.Len(t, all.Bookings, 2)
	assert.Equal(t, 2, all.TotalPages)

	status, env = s.do(t, http.MethodGet, "/api/v1/bookings/admin/vehicle-rentals?start_date=2024-09-04&end_date=2024-09-11", adminTok, nil)
	require.Equal(t, http.StatusOK, status)
	var report booking.RangeReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Len(t, report.Rentals, 2)
	assert.Equal(t, 1, report.AffectedVehicles)

	status, env = s.do(t, http.MethodGet, "/api/v1/bookings/admin/vehicle-rentals?start_date=2024-09-11", adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_date", env.Reason)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
