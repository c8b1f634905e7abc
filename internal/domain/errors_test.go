package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsKind_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("load booking: %w", NewNotFoundError("Booking", "42"))

	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindConflict))
	assert.Equal(t, "not_found", CodeOf(err))
}

func TestIsKind_PlainError(t *testing.T) {
	err := errors.New("boom")

	assert.False(t, IsKind(err, KindValidation))
	assert.Empty(t, CodeOf(err))
}

func TestPaymentError_Unwraps(t *testing.T) {
	cause := errors.New("card_declined")
	err := NewPaymentError("refund_failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "card_declined")
}

func TestNewPaginatedResult_TotalPages(t *testing.T) {
	res := NewPaginatedResult([]int{1, 2}, 41, 1, 20)
	assert.Equal(t, 3, res.TotalPages)

	empty := NewPaginatedResult([]int{}, 0, 1, 0)
	assert.Equal(t, 0, empty.TotalPages)
}
