package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Unauthorized("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{Conflict("dup"), http.StatusConflict},
		{Internal(errors.New("boom"), "failed"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("failed to load trade: %w", NotFound("Trade not found"))

	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "Trade not found", Message(err))
}

func TestInternalMessageIsHidden(t *testing.T) {
	err := Internal(errors.New("connection refused"), "failed to save order")

	assert.Equal(t, "Internal server error", Message(err))
	assert.Contains(t, err.Error(), "connection refused")
}
