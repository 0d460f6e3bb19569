// Package server exposes the story workflow over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/josephgoksu/StoryWing/internal/config"
	"github.com/josephgoksu/StoryWing/internal/workflow"
)

// maxBodyBytes bounds request bodies; Ralph documents are the largest.
const maxBodyBytes = 4 << 20

type Server struct {
	svc     *workflow.Service
	origins map[string]struct{}
	port    int
	server  *http.Server
}

func New(cfg config.ServerConfig, svc *workflow.Service) *Server {
	s := &Server{
		svc:     svc,
		origins: make(map[string]struct{}, len(cfg.Origins)),
		port:    cfg.Port,
	}
	for _, o := range cfg.Origins {
		s.origins[o] = struct{}{}
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed API with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.registerRoutes()
}

func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("api server listening", "port", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func statusFor(kind workflow.Kind) int {
	switch kind {
	case workflow.KindNotFound:
		return http.StatusNotFound
	case workflow.KindInvalidRequest:
		return http.StatusBadRequest
	case workflow.KindUpstreamFailure, workflow.KindMalformedUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Code: string(workflow.KindInternal), Message: "internal error"}
	var we *workflow.Error
	if errors.As(err, &we) {
		body = errorBody{Code: string(we.Kind), Message: we.Message, Details: we.Details}
	}
	status := statusFor(workflow.Kind(body.Code))
	if status >= http.StatusInternalServerError {
		slog.Warn("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeAPIJSONStatus(w, status, body)
}

func writeAPIJSON(w http.ResponseWriter, data any) {
	writeAPIJSONStatus(w, http.StatusOK, data)
}

func writeAPIJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeBody reads a JSON body into v. An empty body is accepted when
// optional is true. On failure the error response has been written.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, r, workflow.InvalidRequest("invalid request body: %v", err))
		return false
	}
	return true
}
