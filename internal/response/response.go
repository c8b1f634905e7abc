// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/glowbook/service-booking/internal/domain"
)

// Envelope is the body of every response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Warning *ErrorBody  `json:"warning,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorBody names the failure so clients can render the specific reason.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries pagination details.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes 200 with a page of items.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages},
	})
}

// WithWarning writes 200: the command committed but a follow-up step failed.
func WithWarning(c *gin.Context, data interface{}, err error) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Warning: body(err)})
}

// BadRequest writes 400 for malformed input.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{
		Error: &ErrorBody{Kind: string(domain.KindValidation), Code: "bad_request", Message: message},
	})
}

// Unauthorized writes 401.
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{
		Error: &ErrorBody{Kind: "unauthorized", Code: "unauthorized", Message: message},
	})
}

// Forbidden writes 403.
func Forbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, Envelope{
		Error: &ErrorBody{Kind: string(domain.KindForbidden), Code: "forbidden", Message: message},
	})
}

// TooManyRequests writes 429.
func TooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Envelope{
		Error: &ErrorBody{Kind: "rate_limited", Code: "rate_limited", Message: "too many requests, try again later"},
	})
}

// Error maps err onto a status code and writes it. data, when given, is
// included so a committed transition is still visible to the caller.
func Error(c *gin.Context, err error, data ...interface{}) {
	env := Envelope{Error: body(err)}
	if len(data) > 0 {
		env.Data = data[0]
	}
	c.AbortWithStatusJSON(StatusFor(err), env)
}

// StatusFor returns the HTTP status for an error.
func StatusFor(err error) int {
	var de *domain.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindInvalidTransition, domain.KindConflict:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindPayment:
		return http.StatusBadGateway
	case domain.KindConfiguration:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func body(err error) *ErrorBody {
	var de *domain.Error
	if errors.As(err, &de) {
		return &ErrorBody{Kind: string(de.Kind), Code: de.Code, Message: de.Message}
	}
	// infrastructure errors are logged by the caller; the detail stays internal
	return &ErrorBody{Kind: "internal", Code: "internal_error", Message: "internal server error"}
}
