package server

import (
	"net/http"

	"github.com/josephgoksu/StoryWing/internal/workflow"
)

// The handlers below call the completion service. They pass the request
// context so a client disconnect cancels the upstream call.

func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request) {
	var req workflow.RefineRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	res, err := s.svc.Refine(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, res)
}

func (s *Server) handleValidateCriteria(w http.ResponseWriter, r *http.Request) {
	var req workflow.ValidateCriteriaRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	res, err := s.svc.ValidateCriteria(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, res)
}

func (s *Server) handleRecommendPriority(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.RecommendPriority(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, rec)
}

func (s *Server) handleRecommendPriorities(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.RecommendPriorities(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, sum)
}

func (s *Server) handleSetPriority(w http.ResponseWriter, r *http.Request) {
	var req workflow.SetPriorityRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	st, err := s.svc.SetPriority(r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, st)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req workflow.GenerateRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	res, err := s.svc.GenerateStories(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, res)
}

func (s *Server) handleAcceptGenerated(w http.ResponseWriter, r *http.Request) {
	var req workflow.AcceptGeneratedRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	stories, err := s.svc.AcceptGenerated(r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSONStatus(w, http.StatusCreated, stories)
}
