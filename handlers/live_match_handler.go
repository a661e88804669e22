package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/hockey-live/models"
	"github.com/Dosada05/hockey-live/repositories"
	"github.com/Dosada05/hockey-live/services"
)

type LiveMatchHandler struct {
	service *services.LiveMatchService
	responder
}

func NewLiveMatchHandler(service *services.LiveMatchService, logger *slog.Logger) *LiveMatchHandler {
	return &LiveMatchHandler{service: service, responder: responder{logger: logger}}
}

type createMatchRequest struct {
	MatchID      string `json:"match_id"`
	TournamentID string `json:"tournament_id"`
	Team1ID      string `json:"team1_id"`
	Team2ID      string `json:"team2_id"`
	Team1Name    string `json:"team1_name" validate:"required_without=Team1ID"`
	Team2Name    string `json:"team2_name" validate:"required_without=Team2ID"`
	Venue        string `json:"venue"`
	MatchDate    string `json:"match_date"`
	MatchTime    string `json:"match_time"`
	TotalSeconds int    `json:"total_seconds" validate:"gte=0,lte=2147483647"`
}

type scoreRequest struct {
	TeamName string `json:"teamName" validate:"required"`
}

type timerRequest struct {
	TotalSeconds *int  `json:"totalSeconds"`
	IsPaused     *bool `json:"isPaused"`
}

type eventRequest struct {
	Event *models.MatchEvent `json:"event" validate:"required"`
}

type quarterRequest struct {
	CurrentQuarter models.Quarter `json:"currentQuarter" validate:"required"`
}

type statusRequest struct {
	Status models.MatchStatus `json:"status" validate:"required"`
}

// matchID достаёт публичный идентификатор матча из пути. Пустой id даёт 400.
func (h *LiveMatchHandler) matchID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "matchId"))
	if id == "" {
		h.badRequestResponse(w, r, services.ErrMatchIDRequired)
		return "", false
	}
	return id, true
}

// decode читает тело и проверяет теги validate. При ошибке ответ уже отправлен.
func (h *LiveMatchHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := readJSON(w, r, dst); err != nil {
		h.badRequestResponse(w, r, err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		h.failedValidationResponse(w, r, validationErrors(err))
		return false
	}
	return true
}

// CreateMatch godoc
// @Summary Создать live-матч
// @Tags matches
// @Description Заводит матч. Команды задаются названием или team_id из справочника, состав копируется из справочника.
// @Accept json
// @Produce json
// @Param body body createMatchRequest true "Данные матча"
// @Success 201 {object} models.LiveMatch "Матч создан"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]string "Нет прав (не scorer)"
// @Failure 404 {object} map[string]string "Команда или турнир не найдены"
// @Failure 409 {object} map[string]string "Матч с таким match_id уже существует"
// @Failure 503 {object} map[string]string "Хранилище недоступно"
// @Security BearerAuth
// @Router /matches [post]
func (h *LiveMatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	match, err := h.service.CreateMatch(r.Context(), services.CreateLiveMatchInput{
		MatchID:      req.MatchID,
		TournamentID: req.TournamentID,
		Team1ID:      req.Team1ID,
		Team2ID:      req.Team2ID,
		Team1Name:    req.Team1Name,
		Team2Name:    req.Team2Name,
		Venue:        req.Venue,
		MatchDate:    req.MatchDate,
		MatchTime:    req.MatchTime,
		TotalSeconds: req.TotalSeconds,
	})
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, http.StatusCreated, match)
}

// ListMatches godoc
// @Summary Список live-матчей
// @Tags matches
// @Produce json
// @Param status query string false "Фильтр по статусу" Enums(Upcoming, Live, Finished)
// @Param tournament_id query string false "Фильтр по турниру"
// @Success 200 {array} models.LiveMatch
// @Failure 400 {object} map[string]string "Неизвестный статус"
// @Failure 503 {object} map[string]string "Хранилище недоступно"
// @Router /matches [get]
func (h *LiveMatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	var filter repositories.LiveMatchFilter
	q := r.URL.Query()
	if s := strings.TrimSpace(q.Get("status")); s != "" {
		status := models.MatchStatus(s)
		if !status.IsValid() {
			h.badRequestResponse(w, r, services.ErrInvalidMatchStatus)
			return
		}
		filter.Status = &status
	}
	if t := strings.TrimSpace(q.Get("tournament_id")); t != "" {
		filter.TournamentID = &t
	}

	matches, err := h.service.ListMatches(r.Context(), filter)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, http.StatusOK, matches)
}

// GetMatch godoc
// @Summary Получить live-матч
// @Tags matches
// @Description Возвращает матч с названиями команд и турнира из справочников.
// @Produce json
// @Param matchId path string true "Match ID"
// @Success 200 {object} services.MatchView
// @Failure 404 {object} map[string]string "Матч не найден"
// @Failure 503 {object} map[string]string "Хранилище недоступно"
// @Router /matches/{matchId} [get]
func (h *LiveMatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.matchID(w, r)
	if !ok {
		return
	}
	view, err := h.service.GetMatch(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, http.StatusOK, view)
}

// UpdateScore godoc
// @Summary Засчитать гол
// @Tags matches
// @Description Увеличивает счёт команды с указанным названием на единицу.
// @Accept json
// @Produce json
// @Param matchId path string true "Match ID"
// @Param body body scoreRequest true "Название команды"
// @Success 200 {object} models.LiveMatch
// @Failure 400 {object} map[string]string "Команда не участвует в матче"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Security BearerAuth
// @Router /matches/{matchId}/score [post]
func (h *LiveMatchHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.matchID(w, r)
	if !ok {
		return
	}
	var req scoreRequest
	if !h.decode(w, r, &req) {
		return
	}

	match, err := h.service.UpdateScore(r.Context(), id, req.TeamName)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, http.StatusOK, match)
}

// UpdateTimer godoc
// @Summary Обновить таймер
// @Tags matches
// @Accept json
// @Produce json
// @Param matchId path string true "Match ID"
// @Param body body timerRequest true "Секунды и признак паузы"
// @Success 200 {object} models.LiveMatch
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Security BearerAuth
// @Router /matches/{matchId}/timer [post]
func (h *LiveMatchHandler) UpdateTimer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.matchID(w, r)
	if !ok {
		return
	}
	var req timerRequest
	if !h.decode(w, r, &req) {
		return
	}

	errs := map[string]string{}
	if req.TotalSeconds == nil {
		errs["totalSeconds"] = "required"
	} else if !models.ValidTotalSeconds(*req.TotalSeconds) {
		errs["totalSeconds"] = "gte=0,lte=" + strconv.Itoa(models.MaxTotalSeconds)
	}
	if req.IsPaused == nil {
		errs["isPaused"] = "required"
	}
	if len(errs) > 0 {
		h.failedValidationResponse(w, r, errs)
		return
	}

	match, err := h.service.UpdateTimer(r.Context(), id, *req.TotalSeconds, *req.IsPaused)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, http.StatusOK, match)
}

// AddEvent godoc
// @Summary Добавить событие в протокол
// @Tags matches
// @Description Добавляет событие в конец протокола. Счёт не меняется.
// @Accept json
// @Produce json
// @Param matchId path string true "Match ID"
// @Param body body eventRequest true "Событие матча"
// @Success 200 {object} models.LiveMatch
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Security BearerAuth
// @Router /matches/{matchId}/events [post]
func (h *LiveMatchHandler) AddEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.matchID(w, r)
	if !ok {
		return
	}
	var req eventRequest
	if !h.decode(w, r, &req) {
		return
	}

	match, err := h.service.AddEvent(r.Context(), id, *req.Event)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, http.StatusOK, match)
}

// ChangeQuarter godoc
// @Summary Сменить четверть
// @Tags matches
// @Accept json
// @Produce json
// @Param matchId path string true "Match ID"
// @Param body body quarterRequest true "Четверть: Q1, Q2, Q3, Q4 или Extra Time"
// @Success 200 {object} models.LiveMatch
// @Failure 400 {object} map[string]string "Неизвестная четверть"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Security BearerAuth
// @Router /matches/{matchId}/quarter [post]
func (h *LiveMatchHandler) ChangeQuarter(w http.ResponseWriter, r *http.Request) {
	id, ok := h.matchID(w, r)
	if !ok {
		return
	}
	var req quarterRequest
	if !h.decode(w, r, &req) {
		return
	}

	match, err := h.service.ChangeQuarter(r.Context(), id, req.CurrentQuarter)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, http.StatusOK, match)
}

// ChangeStatus godoc
// @Summary Сменить статус матча
// @Tags matches
// @Description При переходе в Finished итоговый снимок матча архивируется.
// @Accept json
// @Produce json
// @Param matchId path string true "Match ID"
// @Param body body statusRequest true "Статус: Upcoming, Live или Finished"
// @Success 200 {object} models.LiveMatch
// @Failure 400 {object} map[string]string "Неизвестный статус"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Security BearerAuth
// @Router /matches/{matchId}/status [post]
func (h *LiveMatchHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.matchID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}

	match, err := h.service.ChangeStatus(r.Context(), id, req.Status)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, http.StatusOK, match)
}

// DeleteMatch godoc
// @Summary Удалить live-матч
// @Tags matches
// @Produce json
// @Param matchId path string true "Match ID"
// @Success 200 {object} map[string]string "deletedMatchId"
// @Failure 404 {object} map[string]string "Матч не найден"
// @Security BearerAuth
// @Router /matches/{matchId} [delete]
func (h *LiveMatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.matchID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteMatch(r.Context(), id); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeOK(w, r, http.StatusOK, jsonResponse{"deletedMatchId": id})
}
