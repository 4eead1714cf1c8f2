package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matchplay/tournament-system/services"
)

type StopHandler struct {
	stopService    services.StopService
	bracketService services.BracketService
}

func NewStopHandler(stopService services.StopService, bracketService services.BracketService) *StopHandler {
	return &StopHandler{
		stopService:    stopService,
		bracketService: bracketService,
	}
}

func (h *StopHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateStopInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stop, err := h.stopService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stop, nil)
}

// GetFull returns the stop with rounds, matches and games attached.
func (h *StopHandler) GetFull(w http.ResponseWriter, r *http.Request) {
	stop, err := h.stopService.GetFull(r.Context(), chi.URLParam(r, "stopID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stop, nil)
}

func (h *StopHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input services.UpdateStopInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stop, err := h.stopService.Update(r.Context(), chi.URLParam(r, "stopID"), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stop, nil)
}

func (h *StopHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.stopService.Delete(r.Context(), chi.URLParam(r, "stopID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StopHandler) GenerateBracket(w http.ResponseWriter, r *http.Request) {
	stop, err := h.bracketService.GenerateBracket(r.Context(), chi.URLParam(r, "stopID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stop, nil)
}

func (h *StopHandler) RegenerateBracket(w http.ResponseWriter, r *http.Request) {
	stop, err := h.bracketService.RegenerateBracket(r.Context(), chi.URLParam(r, "stopID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stop, nil)
}

func (h *StopHandler) SetRoster(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PlayerIDs []string `json:"player_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.stopService.SetRoster(r.Context(),
		chi.URLParam(r, "stopID"), chi.URLParam(r, "teamID"), input.PlayerIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries, nil)
}

func (h *StopHandler) GetRoster(w http.ResponseWriter, r *http.Request) {
	entries, err := h.stopService.GetRoster(r.Context(),
		chi.URLParam(r, "stopID"), chi.URLParam(r, "teamID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries, nil)
}

func (h *StopHandler) FindDuplicateMatchups(w http.ResponseWriter, r *http.Request) {
	duplicates, err := h.stopService.FindDuplicateMatchups(r.Context(), chi.URLParam(r, "stopID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"duplicates": duplicates}, nil)
}
