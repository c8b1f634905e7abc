package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/glowbook/service-booking/internal/auth"
	"github.com/glowbook/service-booking/internal/domain"
	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/glowbook/service-booking/internal/middleware"
	"github.com/glowbook/service-booking/internal/response"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocationUpdater stores a provider's live position.
type LocationUpdater interface {
	UpdateProviderLocation(ctx context.Context, providerID uuid.UUID, point bookingDomain.GeoPoint) error
}

// LocationHandler receives location pings from provider devices.
type LocationHandler struct {
	locations LocationUpdater
	logger    *zap.Logger
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(locations LocationUpdater, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{locations: locations, logger: logger}
}

// RegisterRoutes registers provider location routes.
func (h *LocationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager, limiter *middleware.RateLimiter) {
	providers := r.Group("/api/v1/providers")
	providers.Use(
		middleware.AuthMiddleware(jwtManager),
		middleware.RequireRole(auth.RoleProvider),
		middleware.RateLimitMiddleware(limiter, h.logger),
	)
	{
		providers.PUT("/me/location", h.UpdateLocation)
	}
}

// UpdateLocation handles PUT /api/v1/providers/me/location.
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	providerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var body locationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	point, err := body.toGeoPoint()
	if err != nil {
		response.Error(c, err)
		return
	}
	if point == nil {
		response.Error(c, domain.NewValidationError("lat and lng are required"))
		return
	}

	if err := h.locations.UpdateProviderLocation(c.Request.Context(), providerID, *point); err != nil {
		if _, isDomain := domain.AsError(err); !isDomain {
			h.logger.Error("failed to store provider location",
				zap.String("provider_id", providerID.String()),
				zap.Error(err),
			)
		}
		response.Error(c, err)
		return
	}

	response.Success(c, point)
}
