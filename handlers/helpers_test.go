package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/worldcup/brackets"
	"github.com/Dosada05/worldcup/ranking"
	"github.com/Dosada05/worldcup/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{services.ErrWorldcupNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", services.ErrCandidateNotFound), http.StatusNotFound},
		{services.ErrCandidateKeyConflict, http.StatusConflict},
		{brackets.ErrRunFinished, http.StatusConflict},
		{brackets.ErrInvalidRoundSize, http.StatusBadRequest},
		{ranking.ErrSelfMatch, http.StatusBadRequest},
		{ranking.ErrUnknownBucket, http.StatusBadRequest},
		{services.ErrUnsupportedImageType, http.StatusBadRequest},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrForbiddenOperation, http.StatusForbidden},
		{fmt.Errorf("op: %w: %w", services.ErrStoreUnavailable, errors.New("dial tcp")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestReadJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"ok", `{"name":"x"}`, ""},
		{"empty", ``, "must not be empty"},
		{"two values", `{"name":"x"}{"name":"y"}`, "single JSON value"},
		{"unknown key", `{"nope":1}`, "unknown key"},
		{"wrong type", `{"name":1}`, "incorrect JSON type"},
		{"too large", `{"name":"` + strings.Repeat("a", 1_048_577) + `"}`, "larger than"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := readJSON(rec, req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
