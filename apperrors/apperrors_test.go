package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesOnCode(t *testing.T) {
	err := InsufficientPermission("delete")

	assert.True(t, errors.Is(err, ErrInsufficientPermission))
	assert.False(t, errors.Is(err, ErrNotAMember))
	assert.Equal(t, "You don't have permission to delete cases in this chamber", err.Error())
}

func TestError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("approve request: %w", ErrDuplicateMembership)

	assert.True(t, errors.Is(err, ErrDuplicateMembership))
	assert.Equal(t, http.StatusConflict, Status(err))
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad"), http.StatusBadRequest},
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized},
		{"invalid credentials override", ErrInvalidCredentials, http.StatusBadRequest},
		{"permission", ErrCannotModifySelf, http.StatusForbidden},
		{"not found", ErrChamberNotFound, http.StatusNotFound},
		{"conflict", ErrDuplicatePending, http.StatusConflict},
		{"email taken override", ErrEmailTaken, http.StatusBadRequest},
		{"upstream", Upstream("storage down", errors.New("dial tcp")), http.StatusBadGateway},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestAs_ClassifiesUnknownErrorsAsInternal(t *testing.T) {
	ae := As(errors.New("socket closed"))

	assert.Equal(t, KindInternal, ae.Kind)
	assert.Equal(t, "Internal Server Error", ae.Message)
	assert.EqualError(t, ae.Unwrap(), "socket closed")
	assert.Nil(t, As(nil))
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(ErrNotAMember, KindPermission))
	assert.False(t, IsKind(ErrNotAMember, KindConflict))
	assert.True(t, IsKind(errors.New("x"), KindInternal))
}
