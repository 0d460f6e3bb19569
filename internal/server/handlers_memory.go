package server

import (
	"net/http"
	"strconv"

	"github.com/josephgoksu/StoryWing/internal/workflow"
)

// handleListMemories lists ?workspace= entries, optionally with
// ?minConfidence=
func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	minConf := -1.0
	if v := r.URL.Query().Get("minConfidence"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, r, workflow.InvalidRequest("invalid minConfidence %q", v))
			return
		}
		minConf = parsed
	}
	entries, err := s.svc.ListMemories(r.URL.Query().Get("workspace"), minConf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, entries)
}

func (s *Server) handleAddMemory(w http.ResponseWriter, r *http.Request) {
	var req workflow.MemoryRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	e, err := s.svc.AddMemory(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSONStatus(w, http.StatusCreated, e)
}
