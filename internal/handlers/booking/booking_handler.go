// internal/handlers/booking/booking_handler.go
package booking

import (
	"net/http"
	"strconv"

	"vehicle-booking-service/internal/domain/booking"
	"vehicle-booking-service/internal/middleware"
	"vehicle-booking-service/internal/pkg/response"
	service "vehicle-booking-service/internal/service/booking"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService *service.BookingService
}

func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

func parseID(c *gin.Context, param, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid "+label+" ID", err)
		return 0, false
	}
	return id, true
}

// ========== Public Endpoints ==========

// CheckAvailability answers whether a vehicle can be rented for a date range
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	var req booking.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.bookingService.CheckAvailability(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	message := "vehicle is available"
	if !result.Available {
		message = result.Message
	}
	response.Success(c, http.StatusOK, message, result)
}

// GetVehicleSchedule lists the booked periods of a vehicle
func (h *BookingHandler) GetVehicleSchedule(c *gin.Context) {
	vehicleID, ok := parseID(c, "vehicleId", "vehicle")
	if !ok {
		return
	}

	result, err := h.bookingService.ListVehicleRentals(c.Request.Context(), vehicleID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "vehicle schedule retrieved", result)
}

// ========== Customer Endpoints ==========

// CreateRental books a vehicle; guests must supply guest_info
func (h *BookingHandler) CreateRental(c *gin.Context) {
	var req booking.CreateRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.bookingService.CreateRental(c.Request.Context(), &req, middleware.Actor(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "rental created successfully", result)
}

// CreateSale places a purchase; guests must supply guest_info
func (h *BookingHandler) CreateSale(c *gin.Context) {
	var req booking.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.bookingService.CreateSale(c.Request.Context(), &req, middleware.Actor(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "sale created successfully", result)
}

// ListMyRentals lists the caller's rentals
func (h *BookingHandler) ListMyRentals(c *gin.Context) {
	userID := middleware.MustGetIdentityID(c)

	var filter booking.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.bookingService.ListMyRentals(c.Request.Context(), userID, &filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "rentals retrieved", result)
}

// ListMyBookings lists the caller's rentals and purchases together
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userID := middleware.MustGetIdentityID(c)

	var filter booking.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.bookingService.ListMyBookings(c.Request.Context(), userID, &filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "bookings retrieved", result)
}

// ListMySales lists the caller's purchases
func (h *BookingHandler) ListMySales(c *gin.Context) {
	userID := middleware.MustGetIdentityID(c)

	var filter booking.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.bookingService.ListMySales(c.Request.Context(), userID, &filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "sales retrieved", result)
}

// GetRental retrieves a rental for its owner or an admin
func (h *BookingHandler) GetRental(c *gin.Context) {
	rentalID, ok := parseID(c, "id", "rental")
	if !ok {
		return
	}

	result, err := h.bookingService.GetRental(c.Request.Context(), rentalID, middleware.Actor(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "rental retrieved", result)
}

// GetSale retrieves a sale for its owner or an admin
func (h *BookingHandler) GetSale(c *gin.Context) {
	saleID, ok := parseID(c, "id", "sale")
	if !ok {
		return
	}

	result, err := h.bookingService.GetSale(c.Request.Context(), saleID, middleware.Actor(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "sale retrieved", result)
}

// CancelRental cancels a pending rental
func (h *BookingHandler) CancelRental(c *gin.Context) {
	rentalID, ok := parseID(c, "id", "rental")
	if !ok {
		return
	}

	var req booking.CancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ValidationError(c, "invalid request", err)
			return
		}
	}

	result, err := h.bookingService.CancelRental(c.Request.Context(), rentalID, middleware.Actor(c), req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "rental cancelled", result)
}

// CancelSale cancels a pending sale
func (h *BookingHandler) CancelSale(c *gin.Context) {
	saleID, ok := parseID(c, "id", "sale")
	if !ok {
		return
	}

	var req booking.CancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ValidationError(c, "invalid request", err)
			return
		}
	}

	result, err := h.bookingService.CancelSale(c.Request.Context(), saleID, middleware.Actor(c), req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "sale cancelled", result)
}

// ========== Admin Endpoints ==========

// AdminListRentals lists all rentals
func (h *BookingHandler) AdminListRentals(c *gin.Context) {
	var filter booking.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.bookingService.ListRentals(c.Request.Context(), &filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "rentals retrieved", result)
}

// AdminListBookings lists rentals and sales of every customer together
func (h *BookingHandler) AdminListBookings(c *gin.Context) {
	var filter booking.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.bookingService.ListAllBookings(c.Request.Context(), &filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "bookings retrieved", result)
}

// AdminRentalsInRange reports rentals that hold any vehicle within the dates
func (h *BookingHandler) AdminRentalsInRange(c *gin.Context) {
	result, err := h.bookingService.RentalsInRange(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "rentals in range retrieved", result)
}

// AdminListSales lists all sales
func (h *BookingHandler) AdminListSales(c *gin.Context) {
	var filter booking.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.bookingService.ListSales(c.Request.Context(), &filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "sales retrieved", result)
}

// AdminUpdateRentalStatus moves a rental through its lifecycle
func (h *BookingHandler) AdminUpdateRentalStatus(c *gin.Context) {
	adminID := middleware.MustGetIdentityID(c)

	rentalID, ok := parseID(c, "id", "rental")
	if !ok {
		return
	}

	var req booking.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.bookingService.SetRentalStatus(c.Request.Context(), rentalID, &req, adminID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "rental status updated", result)
}

// AdminUpdateSaleStatus moves a sale through its lifecycle
func (h *BookingHandler) AdminUpdateSaleStatus(c *gin.Context) {
	adminID := middleware.MustGetIdentityID(c)

	saleID, ok := parseID(c, "id", "sale")
	if !ok {
		return
	}

	var req booking.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.bookingService.SetSaleStatus(c.Request.Context(), saleID, &req, adminID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "sale status updated", result)
}
