package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/task-manager-api/internal/models"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: name is required", models.ErrValidation), http.StatusBadRequest},
		{models.ErrDuplicateEmail, http.StatusBadRequest},
		{models.ErrAuthentication, http.StatusUnauthorized},
		{fmt.Errorf("mongo find user: %w", models.ErrNotFound), http.StatusNotFound},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation detail is returned",
			err:        fmt.Errorf("%w: email is invalid", models.ErrValidation),
			wantStatus: http.StatusBadRequest,
			wantBody:   "email is invalid",
		},
		{
			name:       "duplicate email",
			err:        models.ErrDuplicateEmail,
			wantStatus: http.StatusBadRequest,
			wantBody:   "email is already registered",
		},
		{
			name:       "server error is hidden",
			err:        errors.New("mongo: socket closed"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "internal error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantBody, body["error"])
		})
	}
}
