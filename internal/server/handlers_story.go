package server

import (
	"net/http"

	"github.com/josephgoksu/StoryWing/internal/workflow"
)

// handleListStandalone lists stories without a PRD for ?workspace=
func (s *Server) handleListStandalone(w http.ResponseWriter, r *http.Request) {
	stories, err := s.svc.ListStandaloneStories(r.URL.Query().Get("workspace"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, stories)
}

func (s *Server) handleCreateStory(w http.ResponseWriter, r *http.Request) {
	var req workflow.CreateStoryRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	st, err := s.svc.CreateStory(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSONStatus(w, http.StatusCreated, st)
}

func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.GetStory(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, st)
}

func (s *Server) handleUpdateStory(w http.ResponseWriter, r *http.Request) {
	var req workflow.UpdateStoryRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	st, err := s.svc.UpdateStory(r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, st)
}

func (s *Server) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteStory(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	st, err := s.svc.SetStatus(r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, st)
}

func (s *Server) handleSetCriterion(w http.ResponseWriter, r *http.Request) {
	var req CriterionRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	st, err := s.svc.SetCriterionPassed(r.PathValue("id"), r.PathValue("criterionId"), req.Passed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, st)
}

func (s *Server) handleAddLearning(w http.ResponseWriter, r *http.Request) {
	var req LearningRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	st, err := s.svc.AddLearning(r.PathValue("id"), req.Learning)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, st)
}

func (s *Server) handleRecordAttempt(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.RecordAttempt(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, st)
}

func (s *Server) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	var req workflow.AddDependencyRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	st, err := s.svc.AddDependency(r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, st)
}

func (s *Server) handleRemoveDependency(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.RemoveDependency(r.PathValue("id"), r.PathValue("dep"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, st)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req workflow.EstimateRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	st, err := s.svc.SetEstimate(r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, st)
}
