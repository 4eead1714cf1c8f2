package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matchplay/tournament-system/models"
	"github.com/matchplay/tournament-system/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.matchService.GetMatch(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, nil)
}

func (h *MatchHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.matchService.StartGame(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game, nil)
}

func (h *MatchHandler) UpdateGameScore(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TeamAScore *int `json:"team_a_score"`
		TeamBScore *int `json:"team_b_score"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.matchService.UpdateGameScore(r.Context(), chi.URLParam(r, "gameID"), input.TeamAScore, input.TeamBScore)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, nil)
}

func (h *MatchHandler) EndGame(w http.ResponseWriter, r *http.Request) {
	view, err := h.matchService.EndGame(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, nil)
}

func (h *MatchHandler) ReopenGame(w http.ResponseWriter, r *http.Request) {
	view, err := h.matchService.ReopenGame(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, nil)
}

func (h *MatchHandler) SetGameCourt(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CourtNumber *string `json:"court_number"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.matchService.SetGameCourt(r.Context(), chi.URLParam(r, "gameID"), input.CourtNumber)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game, nil)
}

func (h *MatchHandler) Complete(w http.ResponseWriter, r *http.Request) {
	view, err := h.matchService.CompleteMatch(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, nil)
}

func (h *MatchHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Side models.TeamSide `json:"side"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.matchService.ForfeitMatch(r.Context(), chi.URLParam(r, "matchID"), input.Side)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, nil)
}

func (h *MatchHandler) DecideByPoints(w http.ResponseWriter, r *http.Request) {
	view, err := h.matchService.DecideByPoints(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, nil)
}

func (h *MatchHandler) ScheduleTiebreaker(w http.ResponseWriter, r *http.Request) {
	view, err := h.matchService.ScheduleTiebreaker(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view, nil)
}
