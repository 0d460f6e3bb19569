// Package workflow is the story workflow facade. It is the only component
// that touches the store and the completion service; the pure packages
// (story, criteria, refine, priority, generate, templates, ralph) are
// composed here and every multi-row change runs in one transaction.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/josephgoksu/StoryWing/internal/llm"
	"github.com/josephgoksu/StoryWing/internal/logger"
	"github.com/josephgoksu/StoryWing/internal/memory"
	"github.com/josephgoksu/StoryWing/internal/story"
	"github.com/josephgoksu/StoryWing/internal/utils"
)

// errNoCompleter is reported as an upstream failure when no completion
// service is configured.
var errNoCompleter = errors.New("completion service is not configured")

// Service implements every workflow operation.
type Service struct {
	store         *memory.SQLiteStore
	completer     llm.Completer
	minConfidence float64
	now           func() time.Time
	seeded        atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

// WithMinConfidence sets the memory confidence floor for prompt context.
func WithMinConfidence(v float64) Option {
	return func(s *Service) { s.minConfidence = v }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. completer may be nil, in which case every
// AI-assisted operation fails with an upstream failure.
func New(store *memory.SQLiteStore, completer llm.Completer, opts ...Option) *Service {
	s := &Service{
		store:         store,
		completer:     completer,
		minConfidence: story.DefaultMemoryConfidence,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// complete sends one request and decodes the reply into T. Transport
// failures become UpstreamFailure, decode failures MalformedUpstream.
func complete[T any](ctx context.Context, s *Service, op, system, user string) (T, error) {
	var zero T
	if s.completer == nil {
		return zero, UpstreamFailure(errNoCompleter)
	}

	logger.Default().SetLastPrompt(user)
	start := time.Now()
	text, err := s.completer.Complete(ctx, system, user)
	if err != nil {
		slog.Warn("completion failed", "op", op, "error", err)
		return zero, UpstreamFailure(err)
	}
	slog.Debug("completion received", "op", op, "chars", len(text), "elapsed", time.Since(start))

	out, err := utils.ExtractAndParseJSON[T](text)
	if err != nil {
		slog.Warn("malformed completion", "op", op, "error", err, "preview", utils.Truncate(text, 200))
		return zero, MalformedUpstream(err)
	}
	return out, nil
}

// memories returns workspace memory above the confidence floor.
func (s *Service) memories(workspace string) ([]story.MemoryEntry, error) {
	if workspace == "" {
		return nil, nil
	}
	return s.store.ListMemories(workspace, s.minConfidence)
}

// invalidate clears the recommendation of every listed story.
func (s *Service) invalidate(tx *memory.Tx, ids []string, cause string) error {
	n, err := tx.ClearRecommendations(ids, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Debug("recommendations invalidated", "cause", cause, "stories", ids, "cleared", n)
	}
	return nil
}

// touchParent bumps the PRD's updated_at for PRD-owned stories.
func (s *Service) touchParent(tx *memory.Tx, st *story.Story) error {
	if st.Standalone() {
		return nil
	}
	return storeErr(tx.TouchPRD(st.PRDID, s.now()), "prd", st.PRDID)
}
