package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/IvoFFaria/Jarvis-IA/pkg/skills"
)

func writeSkillError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, skills.ErrNotFound):
		WriteNotFound(w, "Skill not found")
	case errors.Is(err, skills.ErrActionNotAllowed):
		WriteForbidden(w, err.Error())
	case errors.Is(err, skills.ErrInvalidSkill), errors.Is(err, skills.ErrLimitExceeded):
		WriteBadRequest(w, err.Error())
	default:
		WriteInternal(w, err)
	}
}

func (s *Server) handleSkillCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req skills.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	skill, err := s.deps.Skills.Create(r.Context(), req)
	if err != nil {
		writeSkillError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

func (s *Server) handleSkillList(w http.ResponseWriter, r *http.Request) {
	enabledOnly := r.URL.Query().Get("enabled_only") != "false"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	out, err := s.deps.Skills.List(r.Context(), enabledOnly, limit)
	if err != nil {
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSkillSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		WriteBadRequest(w, "Missing required query parameter: q")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	out, err := s.deps.Skills.Search(r.Context(), q, limit)
	if err != nil {
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSkillGet(w http.ResponseWriter, r *http.Request) {
	skill, err := s.deps.Skills.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeSkillError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

func (s *Server) handleSkillUpdate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req skills.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	skill, err := s.deps.Skills.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeSkillError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, skill)
}

func (s *Server) handleSkillDisable(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Skills.Disable(r.Context(), r.PathValue("id")); err != nil {
		writeSkillError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Skill disabled"})
}
