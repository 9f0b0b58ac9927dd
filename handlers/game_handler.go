package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/worldcup/middleware"
	"github.com/Dosada05/worldcup/services"
)

const idempotencyHeader = "Idempotency-Key"

type GameHandler struct {
	gameService services.GameService
}

func NewGameHandler(gameService services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// StartRun godoc
// @Summary Начать прохождение кубка
// @Tags games
// @Description Случайно выбирает round кандидатов и возвращает первую пару вместе с токеном прохождения.
// @Produce json
// @Param worldcupID path int true "Worldcup ID"
// @Param round query int false "Bracket size (4, 8, 16, ...). Defaults to the largest allowed"
// @Success 200 {object} services.RunView
// @Failure 400 {object} map[string]string "Недопустимый размер сетки"
// @Failure 404 {object} map[string]string "Кубок не найден"
// @Router /api/games/{worldcupID}/candidates [get]
func (h *GameHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	worldcupID, err := getIDFromURL(r, "worldcupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := queryInt(r, "round", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.gameService.StartRun(r.Context(), worldcupID, round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, view, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Pick godoc
// @Summary Выбрать победителя текущей пары
// @Tags games
// @Accept json
// @Produce json
// @Param input body services.PickInput true "Run token and winner"
// @Success 200 {object} services.PickResult
// @Failure 400 {object} map[string]string "Кандидат не из текущей пары / неверный токен"
// @Failure 409 {object} map[string]string "Прохождение уже завершено"
// @Failure 503 {object} map[string]string "Голос не сохранён, повторите тот же выбор"
// @Router /api/games/pick [post]
func (h *GameHandler) Pick(w http.ResponseWriter, r *http.Request) {
	var input services.PickInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.RunToken == "" || input.WinnerID <= 0 {
		badRequestResponse(w, r, errors.New("run_token and winner_id are required"))
		return
	}

	result, err := h.gameService.Pick(r.Context(), middleware.OptionalUserID(r.Context()), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MatchResult godoc
// @Summary Учесть результат одного матча
// @Tags ranking
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Retry-safe key of this decision"
// @Param input body services.MatchResultInput true "Winner and loser"
// @Success 201 {object} services.ResultReceipt
// @Success 200 {object} map[string]interface{} "Повтор уже учтённого результата"
// @Failure 400 {object} map[string]string "winner == loser / неизвестная группа"
// @Failure 503 {object} map[string]string "Хранилище недоступно"
// @Router /api/ranking/current [post]
func (h *GameHandler) MatchResult(w http.ResponseWriter, r *http.Request) {
	var input services.MatchResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.WinID <= 0 || input.LoseID <= 0 {
		badRequestResponse(w, r, errors.New("win_id and lose_id are required"))
		return
	}
	input.IdempotencyKey = r.Header.Get(idempotencyHeader)

	receipt, err := h.gameService.ApplyMatchResult(r.Context(), middleware.OptionalUserID(r.Context()), input)
	h.writeReceipt(w, r, receipt, err)
}

// FinalResult godoc
// @Summary Учесть финал и чемпиона прохождения
// @Tags ranking
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Retry-safe key of this run"
// @Param input body services.FinalResultInput true "Finalists and participants"
// @Success 201 {object} services.ResultReceipt
// @Success 200 {object} map[string]interface{} "Повтор уже учтённого результата"
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/ranking/final [post]
func (h *GameHandler) FinalResult(w http.ResponseWriter, r *http.Request) {
	var input services.FinalResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.WorldcupID <= 0 || input.WinID <= 0 || input.LoseID <= 0 {
		badRequestResponse(w, r, errors.New("worldcup_id, win_id and lose_id are required"))
		return
	}
	input.IdempotencyKey = r.Header.Get(idempotencyHeader)

	receipt, err := h.gameService.ApplyFinalResult(r.Context(), middleware.OptionalUserID(r.Context()), input)
	h.writeReceipt(w, r, receipt, err)
}

func (h *GameHandler) writeReceipt(w http.ResponseWriter, r *http.Request, receipt *services.ResultReceipt, err error) {
	status := http.StatusCreated
	duplicate := false
	if err != nil {
		if !errors.Is(err, services.ErrDuplicateResult) {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		status = http.StatusOK
		duplicate = true
	}

	if err := writeJSON(w, status, jsonResponse{"result": receipt, "duplicate": duplicate}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
