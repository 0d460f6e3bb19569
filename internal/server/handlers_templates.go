package server

import (
	"net/http"

	"github.com/josephgoksu/StoryWing/internal/workflow"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListTemplates()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, list)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req workflow.TemplateRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	t, err := s.svc.CreateTemplate(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSONStatus(w, http.StatusCreated, t)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.GetTemplate(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, t)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req workflow.TemplateRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	t, err := s.svc.UpdateTemplate(r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSON(w, t)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTemplate(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInstantiateTemplate(w http.ResponseWriter, r *http.Request) {
	var req workflow.InstantiateRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	st, err := s.svc.InstantiateTemplate(r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAPIJSONStatus(w, http.StatusCreated, st)
}
