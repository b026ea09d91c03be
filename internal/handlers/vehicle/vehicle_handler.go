// internal/handlers/vehicle/vehicle_handler.go
package vehicle

import (
	"net/http"

	"vehicle-booking-service/internal/domain/vehicle"
	"vehicle-booking-service/internal/pkg/response"
	service "vehicle-booking-service/internal/service/vehicle"

	"github.com/gin-gonic/gin"
)

type VehicleHandler struct {
	vehicleService *service.VehicleService
}

func NewVehicleHandler(vehicleService *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
	}
}

// ListVehicles lists vehicles, annotated with availability when
// start_date and end_date are given
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	var q vehicle.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, "invalid query parameters", err)
		return
	}

	result, err := h.vehicleService.ListVehicles(c.Request.Context(), &q)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "vehicles retrieved", result)
}
