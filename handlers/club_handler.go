package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matchplay/tournament-system/services"
)

const maxLogoSize = 5 << 20 // 5MB

type ClubHandler struct {
	clubService services.ClubService
}

func NewClubHandler(clubService services.ClubService) *ClubHandler {
	return &ClubHandler{clubService: clubService}
}

func (h *ClubHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateClubInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	club, err := h.clubService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, club, nil)
}

func (h *ClubHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	club, err := h.clubService.GetByID(r.Context(), chi.URLParam(r, "clubID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, club, nil)
}

func (h *ClubHandler) List(w http.ResponseWriter, r *http.Request) {
	clubs, err := h.clubService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clubs, nil)
}

func (h *ClubHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.clubService.Delete(r.Context(), chi.URLParam(r, "clubID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ClubHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLogoSize)
	if err := r.ParseMultipartForm(maxLogoSize); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	club, err := h.clubService.UploadLogo(r.Context(), chi.URLParam(r, "clubID"),
		header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, club, nil)
}

func (h *ClubHandler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	var input services.CreatePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.clubService.AddPlayer(r.Context(), chi.URLParam(r, "clubID"), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, player, nil)
}

func (h *ClubHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.clubService.ListPlayers(r.Context(), chi.URLParam(r, "clubID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, players, nil)
}

func (h *ClubHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	if err := h.clubService.RemovePlayer(r.Context(), chi.URLParam(r, "playerID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
