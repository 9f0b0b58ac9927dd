package handlers

import (
	"net/http"

	"github.com/Dosada05/worldcup/middleware"
	"github.com/Dosada05/worldcup/services"
)

type WorldcupHandler struct {
	worldcupService services.WorldcupService
}

func NewWorldcupHandler(worldcupService services.WorldcupService) *WorldcupHandler {
	return &WorldcupHandler{worldcupService: worldcupService}
}

// List godoc
// @Summary List public worldcups
// @Param keyword query string false "title or keyword filter"
// @Param offset query int false "offset"
// @Param limit query int false "page size"
// @Router /api/worldcups [get]
func (h *WorldcupHandler) List(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	worldcups, err := h.worldcupService.List(r.Context(), services.ListWorldcupsInput{
		Keyword: r.URL.Query().Get("keyword"),
		Offset:  offset,
		Limit:   limit,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"worldcups": worldcups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WorldcupHandler) Keywords(w http.ResponseWriter, r *http.Request) {
	keywords, err := h.worldcupService.Keywords(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"keywords": keywords}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WorldcupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "worldcupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	worldcup, err := h.worldcupService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"worldcup": worldcup}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Rounds returns the bracket sizes the client may offer for this worldcup.
func (h *WorldcupHandler) Rounds(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "worldcupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rounds, err := h.worldcupService.AllowedRounds(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": rounds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WorldcupHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	worldcups, err := h.worldcupService.ListMine(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"worldcups": worldcups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WorldcupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.CreateWorldcupInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	worldcup, err := h.worldcupService.Create(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"worldcup": worldcup}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WorldcupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	id, err := getIDFromURL(r, "worldcupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.worldcupService.Delete(r.Context(), userID, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
