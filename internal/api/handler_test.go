//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/promptrelay/internal/domain"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"foo": "bar"})

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "bar", got["foo"])
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, "Prompt is empty.")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var got map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, map[string]string{"detail": "Prompt is empty."}, got)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.NewError(domain.KindValidation, "", "Prompt is empty.", nil), http.StatusBadRequest},
		{"busy", domain.NewError(domain.KindBusy, "acquire_profile", "busy", nil), http.StatusServiceUnavailable},
		{"locate", domain.NewError(domain.KindLocate, "locate_input", "not found", errors.New("boom")), http.StatusInternalServerError},
		{"timeout", domain.NewError(domain.KindTimeout, "await_stability", "timed out", nil), http.StatusInternalServerError},
		{"internal", domain.NewError(domain.KindInternal, "launching", "unexpected failure", errors.New("panic: x")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestDetail(t *testing.T) {
	assert.Equal(t, "Prompt is empty.",
		Detail(domain.NewError(domain.KindValidation, "read_prompt", "Prompt is empty.", nil)))

	err := domain.NewError(domain.KindLocate, "locate_input", "could not find chat input", errors.New("bad selector"))
	assert.Equal(t, err.Error(), Detail(err))
}
