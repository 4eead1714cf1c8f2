package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matchplay/tournament-system/services"
)

type LineupHandler struct {
	lineupService services.LineupService
}

func NewLineupHandler(lineupService services.LineupService) *LineupHandler {
	return &LineupHandler{lineupService: lineupService}
}

func (h *LineupHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input services.SubmitLineupInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.RoundID = chi.URLParam(r, "roundID")
	input.TeamID = chi.URLParam(r, "teamID")

	lineup, err := h.lineupService.Submit(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lineup, nil)
}

func (h *LineupHandler) Get(w http.ResponseWriter, r *http.Request) {
	lineup, err := h.lineupService.Get(r.Context(), chi.URLParam(r, "roundID"), chi.URLParam(r, "teamID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lineup, nil)
}

func (h *LineupHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.lineupService.Clear(r.Context(), chi.URLParam(r, "roundID"), chi.URLParam(r, "teamID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LineupHandler) ListByRound(w http.ResponseWriter, r *http.Request) {
	lineups, err := h.lineupService.ListByRound(r.Context(), chi.URLParam(r, "roundID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lineups, nil)
}

func (h *LineupHandler) AvailablePlayers(w http.ResponseWriter, r *http.Request) {
	slotIndex, err := strconv.Atoi(r.URL.Query().Get("slot"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	players, err := h.lineupService.AvailablePlayers(r.Context(),
		chi.URLParam(r, "roundID"), chi.URLParam(r, "teamID"), slotIndex)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, players, nil)
}
