package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/glowbook/service-booking/internal/application"
	"github.com/glowbook/service-booking/internal/auth"
	"github.com/glowbook/service-booking/internal/domain"
	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/glowbook/service-booking/internal/middleware"
	"github.com/glowbook/service-booking/internal/response"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
	noShows *application.NoShowService
	logger  *zap.Logger
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService, noShows *application.NoShowService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{service: service, noShows: noShows, logger: logger}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager, limiter *middleware.RateLimiter) {
	providerOnly := middleware.RequireRole(auth.RoleProvider, auth.RoleAdmin)
	customerOnly := middleware.RequireRole(auth.RoleCustomer, auth.RoleAdmin)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager), middleware.RateLimitMiddleware(limiter, h.logger))
	{
		bookings.POST("", middleware.RequireRole(auth.RoleCustomer), h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)

		bookings.POST("/:id/confirm", providerOnly, h.ConfirmBooking)
		bookings.POST("/:id/decline", providerOnly, h.DeclineBooking)
		bookings.POST("/:id/start", providerOnly, h.StartService)
		bookings.POST("/:id/steps/:stepId/complete", providerOnly, h.AdvanceStep)
		bookings.POST("/:id/complete", providerOnly, h.CompleteService)
		bookings.GET("/:id/progress", h.GetProgress)

		bookings.GET("/:id/cancellation-quote", h.QuoteCancellation)
		bookings.POST("/:id/cancel", h.CancelBooking)

		bookings.POST("/:id/counter-proposal", providerOnly, h.ProposeSlot)
		bookings.POST("/:id/counter-proposal/accept", customerOnly, h.AcceptCounterProposal)
		bookings.POST("/:id/counter-proposal/refuse", customerOnly, h.RefuseCounterProposal)

		bookings.GET("/:id/rebook-suggestion", h.SuggestRebook)

		bookings.POST("/:id/no-show", providerOnly, h.ReportNoShow)
		bookings.GET("/:id/no-show", h.GetNoShow)
		bookings.DELETE("/:id/no-show", h.CancelNoShow)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var body createBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req, err := body.toRequest()
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. Customers see their bookings,
// providers the bookings assigned to them.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	role, _ := middleware.GetUserRole(c)

	page, limit := parsePagination(c)

	var (
		result *domain.PaginatedResult[application.BookingDTO]
		err    error
	)
	if role == auth.RoleProvider {
		result, err = h.service.GetProviderBookings(c.Request.Context(), userID, page, limit)
	} else {
		result, err = h.service.GetCustomerBookings(c.Request.Context(), userID, page, limit)
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.service.GetBooking(c.Request.Context(), mustActor(c), id)
	})
}

// ConfirmBooking handles POST /api/v1/bookings/:id/confirm.
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.service.ConfirmBooking(c.Request.Context(), mustActor(c), id)
	})
}

// DeclineBooking handles POST /api/v1/bookings/:id/decline.
func (h *BookingHandler) DeclineBooking(c *gin.Context) {
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.service.DeclineBooking(c.Request.Context(), mustActor(c), id)
	})
}

// StartService handles POST /api/v1/bookings/:id/start. The body may carry
// a custom step template; without one the default steps are used.
func (h *BookingHandler) StartService(c *gin.Context) {
	var body startServiceBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.service.StartService(c.Request.Context(), mustActor(c), id, body.toTemplate())
	})
}

// AdvanceStep handles POST /api/v1/bookings/:id/steps/:stepId/complete.
func (h *BookingHandler) AdvanceStep(c *gin.Context) {
	stepID, err := uuid.Parse(c.Param("stepId"))
	if err != nil {
		response.BadRequest(c, "invalid step ID")
		return
	}
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.service.AdvanceStep(c.Request.Context(), mustActor(c), id, stepID)
	})
}

// CompleteService handles POST /api/v1/bookings/:id/complete.
func (h *BookingHandler) CompleteService(c *gin.Context) {
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.service.CompleteService(c.Request.Context(), mustActor(c), id)
	})
}

// GetProgress handles GET /api/v1/bookings/:id/progress.
func (h *BookingHandler) GetProgress(c *gin.Context) {
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.service.GetProgress(c.Request.Context(), mustActor(c), id)
	})
}

// QuoteCancellation handles GET /api/v1/bookings/:id/cancellation-quote.
func (h *BookingHandler) QuoteCancellation(c *gin.Context) {
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.service.QuoteCancellation(c.Request.Context(), mustActor(c), id)
	})
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel. The cancellation
// stands even when the refund fails, so the booking is returned either way:
// a configuration problem comes back as a warning, a gateway failure as 502.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var body cancelBody
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.CancelBooking(c.Request.Context(), actor, bookingID, body.Reason.String())
	switch {
	case err == nil:
		response.Success(c, result)
	case result != nil && domain.IsKind(err, domain.KindConfiguration):
		response.WithWarning(c, result, err)
	case result != nil:
		response.Error(c, err, result)
	default:
		h.fail(c, err)
	}
}

// ProposeSlot handles POST /api/v1/bookings/:id/counter-proposal.
func (h *BookingHandler) ProposeSlot(c *gin.Context) {
	var body proposeSlotBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.service.ProposeSlot(c.Request.Context(), mustActor(c), id, application.ProposeSlotRequest{
			Slot:    body.Slot.toSlot(),
			Message: body.Message.String(),
		})
	})
}

// AcceptCounterProposal handles POST /api/v1/bookings/:id/counter-proposal/accept.
func (h *BookingHandler) AcceptCounterProposal(c *gin.Context) {
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.service.AcceptCounterProposal(c.Request.Context(), mustActor(c), id)
	})
}

// RefuseCounterProposal handles POST /api/v1/bookings/:id/counter-proposal/refuse.
func (h *BookingHandler) RefuseCounterProposal(c *gin.Context) {
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.service.RefuseCounterProposal(c.Request.Context(), mustActor(c), id)
	})
}

// SuggestRebook handles GET /api/v1/bookings/:id/rebook-suggestion.
func (h *BookingHandler) SuggestRebook(c *gin.Context) {
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.service.SuggestRebook(c.Request.Context(), mustActor(c), id)
	})
}

// ReportNoShow handles POST /api/v1/bookings/:id/no-show.
func (h *BookingHandler) ReportNoShow(c *gin.Context) {
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.noShows.ReportCustomerAbsent(c.Request.Context(), mustActor(c), id)
	})
}

// GetNoShow handles GET /api/v1/bookings/:id/no-show.
func (h *BookingHandler) GetNoShow(c *gin.Context) {
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.noShows.GetCountdown(c.Request.Context(), mustActor(c), id)
	})
}

// CancelNoShow handles DELETE /api/v1/bookings/:id/no-show.
func (h *BookingHandler) CancelNoShow(c *gin.Context) {
	h.withBooking(c, func(c *gin.Context, id uuid.UUID) (interface{}, error) {
		return h.noShows.CancelCountdown(c.Request.Context(), mustActor(c), id)
	})
}

// withBooking parses the :id parameter, runs fn and writes its result.
func (h *BookingHandler) withBooking(c *gin.Context, fn func(c *gin.Context, id uuid.UUID) (interface{}, error)) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}
	if _, ok := middleware.GetActor(c); !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := fn(c, bookingID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, result)
}

// fail logs errors that are not part of the domain taxonomy before writing them.
func (h *BookingHandler) fail(c *gin.Context, err error) {
	if _, ok := domain.AsError(err); !ok {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("booking_id", c.Param("id")),
			zap.Error(err),
		)
	}
	response.Error(c, err)
}

// mustActor is only used behind withBooking, which has already checked the actor.
func mustActor(c *gin.Context) bookingDomain.Actor {
	actor, _ := middleware.GetActor(c)
	return actor
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
