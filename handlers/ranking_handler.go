package handlers

import (
	"net/http"

	"github.com/Dosada05/worldcup/services"
)

type RankingHandler struct {
	rankingService services.RankingService
}

func NewRankingHandler(rankingService services.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rankingService}
}

// Ranking godoc
// @Summary Рейтинг кандидатов кубка
// @Tags ranking
// @Produce json
// @Param worldcupID path int true "Worldcup ID"
// @Param search query string false "Case-sensitive name filter"
// @Param page query int false "1-based page"
// @Param limit query int false "Page size, 0 for everything"
// @Success 200 {object} services.RankingPage
// @Failure 404 {object} map[string]string "Кубок не найден"
// @Router /api/ranking/{worldcupID} [get]
func (h *RankingHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	worldcupID, err := getIDFromURL(r, "worldcupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.rankingService.Rank(r.Context(), worldcupID, services.RankingQuery{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Detail godoc
// @Summary Демографическая разбивка кандидата
// @Tags ranking
// @Produce json
// @Param candidateID path int true "Candidate ID"
// @Success 200 {object} services.CandidateDetail
// @Failure 404 {object} map[string]string "Кандидат не найден"
// @Router /api/ranking/candidates/{candidateID} [get]
func (h *RankingHandler) Detail(w http.ResponseWriter, r *http.Request) {
	candidateID, err := getIDFromURL(r, "candidateID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	detail, err := h.rankingService.Detail(r.Context(), candidateID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, detail, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
