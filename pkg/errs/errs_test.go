package errs

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("plan", "PRO")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, `plan not found: "PRO"`, err.Error())
	assert.False(t, IsValidation(err))
}

func TestInvalidTransition(t *testing.T) {
	err := InvalidTransition("invoice", "paid", "issued")
	assert.True(t, IsInvalidTransition(err))
	assert.Contains(t, err.Error(), "paid -> issued")
}

func TestWrappedErrorsKeepKind(t *testing.T) {
	err := fmt.Errorf("saving subscription: %w", InvalidTransition("subscription", "canceled", "change_plan"))
	assert.True(t, IsInvalidTransition(err))
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NotFound("invoice", "abc"), http.StatusNotFound},
		{"invalid transition", InvalidTransition("invoice", "draft", "paid"), http.StatusConflict},
		{"validation", Validationf("seats must be >= 1"), http.StatusBadRequest},
		{"currency mismatch", CurrencyMismatch("EUR", "USD"), http.StatusBadRequest},
		{"promo not valid", PromoNotValid("SAVE10", "expired"), http.StatusBadRequest},
		{"config", Configf("unknown plan type"), http.StatusBadRequest},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
