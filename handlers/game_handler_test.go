package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/worldcup/brackets"
	"github.com/Dosada05/worldcup/middleware"
	"github.com/Dosada05/worldcup/models"
	"github.com/Dosada05/worldcup/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gameRouter(svc services.GameService) http.Handler {
	h := NewGameHandler(svc)
	r := chi.NewRouter()
	r.Get("/games/{worldcupID}/candidates", h.StartRun)
	r.Post("/games/pick", h.Pick)
	r.Post("/ranking/current", h.MatchResult)
	r.Post("/ranking/final", h.FinalResult)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStartRunHandler(t *testing.T) {
	var gotID, gotRound int
	svc := &stubGameService{startRun: func(ctx context.Context, worldcupID, roundSize int) (*services.RunView, error) {
		gotID, gotRound = worldcupID, roundSize
		if roundSize == 6 {
			return nil, fmt.Errorf("%w: got 6", brackets.ErrInvalidRoundSize)
		}
		if worldcupID == 404 {
			return nil, services.ErrWorldcupNotFound
		}
		return &services.RunView{RunToken: "tok", Phase: brackets.PhaseAwaitingPick}, nil
	}}
	router := gameRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games/7/candidates?round=8", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, gotID)
	assert.Equal(t, 8, gotRound)
	assert.Equal(t, "tok", decodeBody(t, rec)["run_token"])

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"bad round size", "/games/7/candidates?round=6", http.StatusBadRequest},
		{"round not a number", "/games/7/candidates?round=eight", http.StatusBadRequest},
		{"bad id", "/games/abc/candidates", http.StatusBadRequest},
		{"unknown worldcup", "/games/404/candidates", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestPickHandler(t *testing.T) {
	var gotVoter int
	svc := &stubGameService{pick: func(ctx context.Context, voterID int, input services.PickInput) (*services.PickResult, error) {
		gotVoter = voterID
		switch input.WinnerID {
		case 2:
			return nil, brackets.ErrNotInMatch
		case 3:
			return nil, brackets.ErrRunFinished
		case 4:
			return nil, fmt.Errorf("apply: %w", services.ErrStoreUnavailable)
		case 5:
			return nil, services.ErrInvalidRunToken
		}
		return &services.PickResult{RunView: services.RunView{RunToken: "next", Phase: brackets.PhaseAwaitingPick}, Duplicate: true}, nil
	}}
	router := gameRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/games/pick", strings.NewReader(`{"run_token":"t","winner_id":1}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), 9))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 9, gotVoter)
	body := decodeBody(t, rec)
	assert.Equal(t, "next", body["run_token"])
	assert.Equal(t, true, body["duplicate"])

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"not in match", `{"run_token":"t","winner_id":2}`, http.StatusBadRequest},
		{"run finished", `{"run_token":"t","winner_id":3}`, http.StatusConflict},
		{"store down", `{"run_token":"t","winner_id":4}`, http.StatusServiceUnavailable},
		{"bad token", `{"run_token":"t","winner_id":5}`, http.StatusBadRequest},
		{"missing token", `{"winner_id":1}`, http.StatusBadRequest},
		{"unknown field", `{"run_token":"t","winner_id":1,"x":1}`, http.StatusBadRequest},
		{"malformed", `{"run_token":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/games/pick", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestMatchResultHandler(t *testing.T) {
	applied := map[string]bool{}
	svc := &stubGameService{matchResult: func(ctx context.Context, voterID int, input services.MatchResultInput) (*services.ResultReceipt, error) {
		if input.WinID == input.LoseID {
			return nil, fmt.Errorf("%w", services.ErrValidationFailed)
		}
		receipt := &services.ResultReceipt{Token: "round:" + input.IdempotencyKey, Kind: models.MatchKindRound, WinnerID: input.WinID, LoserID: input.LoseID}
		if applied[input.IdempotencyKey] {
			return receipt, services.ErrDuplicateResult
		}
		applied[input.IdempotencyKey] = true
		return receipt, nil
	}}
	router := gameRouter(svc)

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/ranking/current", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := send(`{"win_id":1,"lose_id":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["duplicate"])
	assert.Equal(t, "round:abc", body["result"].(map[string]interface{})["token"])

	rec = send(`{"win_id":1,"lose_id":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["duplicate"])

	assert.Equal(t, http.StatusBadRequest, send(`{"win_id":1,"lose_id":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(`{"win_id":1}`).Code)
}

func TestFinalResultHandler(t *testing.T) {
	var got services.FinalResultInput
	svc := &stubGameService{finalResult: func(ctx context.Context, voterID int, input services.FinalResultInput) (*services.ResultReceipt, error) {
		got = input
		return &services.ResultReceipt{Token: "final:" + input.IdempotencyKey, Kind: models.MatchKindFinal}, nil
	}}
	router := gameRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/ranking/final",
		strings.NewReader(`{"worldcup_id":3,"win_id":1,"lose_id":2,"participant_ids":[1,2,5,6],"demographic":"male"}`))
	req.Header.Set("Idempotency-Key", "run-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 3, got.WorldcupID)
	assert.Equal(t, []int{1, 2, 5, 6}, got.ParticipantIDs)
	assert.Equal(t, "male", got.Demographic)
	assert.Equal(t, "run-1", got.IdempotencyKey)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ranking/final", strings.NewReader(`{"win_id":1,"lose_id":2}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
