package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/glowbook/service-booking/internal/application"
	"github.com/glowbook/service-booking/internal/auth"
	"github.com/glowbook/service-booking/internal/middleware"
	"github.com/glowbook/service-booking/internal/response"
	"go.uber.org/zap"
)

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service *application.BookingService
	logger  *zap.Logger
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService, logger *zap.Logger) *AdminBookingHandler {
	return &AdminBookingHandler{service: service, logger: logger}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.service.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		h.logger.Error("failed to list bookings", zap.Error(err))
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to get booking stats", zap.Error(err))
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
