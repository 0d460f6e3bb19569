package server

import "net/http"

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	// PRDs
	mux.HandleFunc("GET /api/prds", s.handleListPRDs)
	mux.HandleFunc("POST /api/prds", s.handleCreatePRD)
	mux.HandleFunc("GET /api/prds/{id}", s.handleGetPRD)
	mux.HandleFunc("PATCH /api/prds/{id}", s.handleUpdatePRD)
	mux.HandleFunc("DELETE /api/prds/{id}", s.handleDeletePRD)
	mux.HandleFunc("POST /api/prds/{id}/stories", s.handleCreatePRDStory)
	mux.HandleFunc("POST /api/prds/{id}/reorder", s.handleReorder)
	mux.HandleFunc("POST /api/prds/{id}/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/prds/{id}/generate/accept", s.handleAcceptGenerated)
	mux.HandleFunc("POST /api/prds/{id}/priorities/recommend", s.handleRecommendPriorities)
	mux.HandleFunc("GET /api/prds/{id}/next", s.handleNextStory)
	mux.HandleFunc("GET /api/prds/{id}/ralph", s.handleExportRalph)
	mux.HandleFunc("POST /api/prds/{id}/ralph/sync", s.handleSyncRalph)
	mux.HandleFunc("POST /api/ralph/import", s.handleImportRalph)

	// Stories
	mux.HandleFunc("GET /api/stories", s.handleListStandalone)
	mux.HandleFunc("POST /api/stories", s.handleCreateStory)
	mux.HandleFunc("GET /api/stories/{id}", s.handleGetStory)
	mux.HandleFunc("PATCH /api/stories/{id}", s.handleUpdateStory)
	mux.HandleFunc("DELETE /api/stories/{id}", s.handleDeleteStory)
	mux.HandleFunc("POST /api/stories/{id}/status", s.handleSetStatus)
	mux.HandleFunc("POST /api/stories/{id}/criteria/{criterionId}", s.handleSetCriterion)
	mux.HandleFunc("POST /api/stories/{id}/learnings", s.handleAddLearning)
	mux.HandleFunc("POST /api/stories/{id}/attempts", s.handleRecordAttempt)
	mux.HandleFunc("POST /api/stories/{id}/dependencies", s.handleAddDependency)
	mux.HandleFunc("DELETE /api/stories/{id}/dependencies/{dep}", s.handleRemoveDependency)
	mux.HandleFunc("POST /api/stories/{id}/estimate", s.handleEstimate)

	// AI-assisted
	mux.HandleFunc("POST /api/stories/{id}/refine", s.handleRefine)
	mux.HandleFunc("POST /api/stories/{id}/validate-criteria", s.handleValidateCriteria)
	mux.HandleFunc("POST /api/stories/{id}/priority/recommend", s.handleRecommendPriority)
	mux.HandleFunc("POST /api/stories/{id}/priority", s.handleSetPriority)

	// Templates
	mux.HandleFunc("GET /api/templates", s.handleListTemplates)
	mux.HandleFunc("POST /api/templates", s.handleCreateTemplate)
	mux.HandleFunc("GET /api/templates/{id}", s.handleGetTemplate)
	mux.HandleFunc("PATCH /api/templates/{id}", s.handleUpdateTemplate)
	mux.HandleFunc("DELETE /api/templates/{id}", s.handleDeleteTemplate)
	mux.HandleFunc("POST /api/templates/{id}/instantiate", s.handleInstantiateTemplate)

	// Workspace memory
	mux.HandleFunc("GET /api/memory", s.handleListMemories)
	mux.HandleFunc("POST /api/memory", s.handleAddMemory)

	return s.corsMiddleware(logMiddleware(recoverMiddleware(mux)))
}
