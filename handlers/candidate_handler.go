package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/worldcup/middleware"
	"github.com/Dosada05/worldcup/services"
	"github.com/go-chi/chi/v5"
)

type CandidateHandler struct {
	candidateService services.CandidateService
}

func NewCandidateHandler(candidateService services.CandidateService) *CandidateHandler {
	return &CandidateHandler{candidateService: candidateService}
}

func (h *CandidateHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.AddCandidatesInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.WorldcupID <= 0 {
		badRequestResponse(w, r, errors.New("worldcup_id is required"))
		return
	}

	candidates, err := h.candidateService.Add(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"candidates": candidates}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CandidateHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	key := chi.URLParam(r, "key")

	var input services.UpdateCandidateInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	candidate, err := h.candidateService.Update(r.Context(), userID, key, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"candidate": candidate}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CandidateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.candidateService.Delete(r.Context(), userID, chi.URLParam(r, "key")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
