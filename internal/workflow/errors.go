package workflow

import (
	"errors"
	"fmt"

	"github.com/josephgoksu/StoryWing/internal/llm"
	"github.com/josephgoksu/StoryWing/internal/memory"
)

// Kind classifies a workflow failure for the transport layer.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidRequest    Kind = "invalid_request"
	KindUpstreamFailure   Kind = "upstream_failure"
	KindMalformedUpstream Kind = "malformed_upstream_response"
	KindInternal          Kind = "internal"
)

// Error is a classified workflow failure with optional structured details.
type Error struct {
	Kind    Kind           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports a missing PRD, story, template or criterion.
func NotFound(what, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, id),
		Details: map[string]any{"id": id},
	}
}

// InvalidRequest reports a caller mistake. Nothing has been persisted.
func InvalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// UpstreamFailure wraps a non-success outcome from the completion service.
func UpstreamFailure(err error) *Error {
	e := &Error{
		Kind:    KindUpstreamFailure,
		Message: "completion service request failed",
		Details: map[string]any{"detail": err.Error()},
		Err:     err,
	}
	var up *llm.UpstreamError
	if errors.As(err, &up) {
		e.Details["reason"] = string(up.Reason)
	}
	return e
}

// MalformedUpstream reports a successful reply that could not be parsed.
func MalformedUpstream(err error) *Error {
	return &Error{
		Kind:    KindMalformedUpstream,
		Message: "completion service returned an unparsable response",
		Details: map[string]any{"detail": err.Error()},
		Err:     err,
	}
}

// KindOf returns the kind of err, or KindInternal when it is not a
// workflow error.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindInternal
}

// storeErr turns memory.ErrNotFound into a NotFound error and wraps
// anything else.
func storeErr(err error, what, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, memory.ErrNotFound) {
		return NotFound(what, id)
	}
	return fmt.Errorf("%s %s: %w", what, id, err)
}
