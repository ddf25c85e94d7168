package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"github.com/IvoFFaria/Jarvis-IA/pkg/approval"
)

func (s *Server) handleApprovalCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req approval.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	ctx, done := s.deps.Obs.TrackOperation(r.Context(), "approval.create",
		attribute.String("action_type", req.ActionType))
	rec, err := s.deps.Approvals.Create(ctx, req)
	done(err)
	if err != nil {
		if errors.Is(err, approval.ErrInvalidApproval) {
			WriteBadRequest(w, err.Error())
			return
		}
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleApprovalList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	recs, err := s.deps.Approvals.List(r.Context(), userIDParam(r), limit)
	if err != nil {
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
