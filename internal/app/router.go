// internal/app/router.go
package app

import (
	bookingHandler "vehicle-booking-service/internal/handlers/booking"
	vehicleHandler "vehicle-booking-service/internal/handlers/vehicle"
	wsHandler "vehicle-booking-service/internal/handlers/websocket"
	"vehicle-booking-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	BookingHandler *bookingHandler.BookingHandler
	VehicleHandler *vehicleHandler.VehicleHandler
	WSHandler      *wsHandler.WebSocketHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Vehicles ====================
	api.GET("/vehicles", h.VehicleHandler.ListVehicles)

	// ==================== Bookings ====================
	bookings := api.Group("/bookings")
	{
		// Public
		bookings.POST("/check-availability", h.BookingHandler.CheckAvailability)
		bookings.GET("/vehicle/:vehicleId/rentals", h.BookingHandler.GetVehicleSchedule)

		// Guests may book without a token
		bookings.POST("/rentals", h.AuthMiddleware.OptionalAuth(), h.BookingHandler.CreateRental)
		bookings.POST("/sales", h.AuthMiddleware.OptionalAuth(), h.BookingHandler.CreateSale)
	}

	customer := bookings.Group("")
	customer.Use(h.AuthMiddleware.Auth())
	{
		customer.GET("/my", h.BookingHandler.ListMyBookings)
		customer.GET("/rentals", h.BookingHandler.ListMyRentals)
		customer.GET("/rentals/:id", h.BookingHandler.GetRental)
		customer.PATCH("/rentals/:id/cancel", h.BookingHandler.CancelRental)

		customer.GET("/sales", h.BookingHandler.ListMySales)
		customer.GET("/sales/:id", h.BookingHandler.GetSale)
		customer.PATCH("/sales/:id/cancel", h.BookingHandler.CancelSale)
	}

	// ==================== Admin ====================
	admin := bookings.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		admin.GET("/all", h.BookingHandler.AdminListBookings)
		admin.GET("/vehicle-rentals", h.BookingHandler.AdminRentalsInRange)
		admin.GET("/rentals", h.BookingHandler.AdminListRentals)
		admin.PATCH("/rentals/:id/status", h.BookingHandler.AdminUpdateRentalStatus)

		admin.GET("/sales", h.BookingHandler.AdminListSales)
		admin.PATCH("/sales/:id/status", h.BookingHandler.AdminUpdateSaleStatus)
	}

	wsAdmin := api.Group("/ws")
	wsAdmin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		wsAdmin.GET("/stats", h.WSHandler.GetStats)
	}

	logger.Info("routes registered", zap.Int("count", len(r.Routes())))
}
