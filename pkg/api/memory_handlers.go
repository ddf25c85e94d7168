package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/IvoFFaria/Jarvis-IA/pkg/memory"
)

func (s *Server) handleMemoryProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req memory.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	ctx, done := s.deps.Obs.TrackOperation(r.Context(), "memory.process",
		attribute.String("user_id", req.UserID))
	resp, err := s.deps.Extractor.Process(ctx, req)
	done(err)
	if err != nil {
		if errors.Is(err, memory.ErrInvalidRecord) {
			WriteBadRequest(w, err.Error())
			return
		}
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMemoryHot(w http.ResponseWriter, r *http.Request) {
	ctx, done := s.deps.Obs.TrackOperation(r.Context(), "memory.list_hot")
	records, err := s.deps.Memory.ListHot(ctx, userIDParam(r))
	done(err)
	if err != nil {
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleMemoryCold(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Memory.ListCold(r.Context(), userIDParam(r))
	if err != nil {
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleMemoryArchive(w http.ResponseWriter, r *http.Request) {
	records, err := s.deps.Memory.ListArchive(r.Context(), userIDParam(r))
	if err != nil {
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type archiveKeyRequest struct {
	UserID string `json:"user_id"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

func (s *Server) handleMemoryArchiveKey(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req archiveKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	ctx, done := s.deps.Obs.TrackOperation(r.Context(), "memory.archive",
		attribute.String("user_id", req.UserID))
	moved, err := s.deps.Memory.Archive(ctx, req.UserID, req.Key, req.Reason)
	done(err)
	if err != nil {
		if errors.Is(err, memory.ErrInvalidRecord) {
			WriteBadRequest(w, err.Error())
			return
		}
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"archived": moved})
}
