package server

import (
	"net/http"

	"github.com/josephgoksu/StoryWing/internal/ralph"
	"github.com/josephgoksu/StoryWing/internal/workflow"
)

func (s *Server) handleListPRDs(w http.ResponseWriter, r *http.Request) {
	prds, err := s.svc.ListPRDs(r.URL.Query().Get("workspace"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, prds)
}

func (s *Server) handleCreatePRD(w http.ResponseWriter, r *http.Request) {
	var req workflow.CreatePRDRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	prd, err := s.svc.CreatePRD(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSONStatus(w, http.StatusCreated, prd)
}

func (s *Server) handleGetPRD(w http.ResponseWriter, r *http.Request) {
	prd, err := s.svc.GetPRD(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, prd)
}

func (s *Server) handleUpdatePRD(w http.ResponseWriter, r *http.Request) {
	var req workflow.UpdatePRDRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	prd, err := s.svc.UpdatePRD(r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, prd)
}

func (s *Server) handleDeletePRD(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePRD(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreatePRDStory(w http.ResponseWriter, r *http.Request) {
	var req workflow.CreateStoryRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	req.PRDID = r.PathValue("id")
	st, err := s.svc.CreateStory(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSONStatus(w, http.StatusCreated, st)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	stories, err := s.svc.ReorderStories(r.PathValue("id"), req.StoryIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, stories)
}

func (s *Server) handleExportRalph(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.ExportRalph(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, doc)
}

func (s *Server) handleSyncRalph(w http.ResponseWriter, r *http.Request) {
	var doc ralph.Document
	if !decodeBody(w, r, &doc, false) {
		return
	}
	res, err := s.svc.SyncRalph(r.PathValue("id"), doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, res)
}

// handleNextStory answers 204 when every story is completed or blocked.
func (s *Server) handleNextStory(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.NextStory(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if st == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeAPIJSON(w, st)
}

func (s *Server) handleImportRalph(w http.ResponseWriter, r *http.Request) {
	var req RalphImportRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	prd, err := s.svc.ImportRalph(req.WorkspacePath, req.Document)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSONStatus(w, http.StatusCreated, prd)
}
