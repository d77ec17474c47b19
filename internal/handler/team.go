// internal/handler/team.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/osfield/osfield/internal/middleware"
	"github.com/osfield/osfield/internal/service"
)

type TeamHandler struct {
	team *service.TeamService
}

func NewTeamHandler(team *service.TeamService) *TeamHandler {
	return &TeamHandler{team: team}
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.team.List(r.Context(), middleware.CurrentUser(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, members)
}

func (h *TeamHandler) Add(w http.ResponseWriter, r *http.Request) {
	var input service.AddMemberInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload", "invalid_input")
		return
	}
	defer r.Body.Close()

	member, err := h.team.Add(r.Context(), middleware.CurrentUser(r.Context()), input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, member)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := memberID(w, r)
	if !ok {
		return
	}

	var input service.UpdateMemberInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload", "invalid_input")
		return
	}
	defer r.Body.Close()

	member, err := h.team.Update(r.Context(), middleware.CurrentUser(r.Context()), id, input)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, member)
}

// Deactivate soft-deletes the member; the record stays for timeline actors.
func (h *TeamHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := memberID(w, r)
	if !ok {
		return
	}

	if err := h.team.Deactivate(r.Context(), middleware.CurrentUser(r.Context()), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "member deactivated"})
}

func memberID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid member id", "invalid_input")
		return uuid.Nil, false
	}
	return id, true
}
