package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Completer sends one system/user prompt pair and returns the raw text reply.
// It is a single fallible round trip; there are no partial results.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// UpstreamReason classifies why a completion failed.
type UpstreamReason string

const (
	ReasonRateLimited  UpstreamReason = "rate_limited"
	ReasonUnauthorized UpstreamReason = "unauthorized"
	ReasonEmpty        UpstreamReason = "empty_response"
	ReasonFailed       UpstreamReason = "failed"
)

// ErrEmptyCompletion is wrapped when the model returns no text content.
var ErrEmptyCompletion = errors.New("completion returned no text content")

// UpstreamError describes a non-success outcome from the completion service.
type UpstreamError struct {
	Reason UpstreamReason
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion %s: %v", e.Reason, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ChatCompleter adapts an Eino chat model to Completer.
type ChatCompleter struct {
	model model.BaseChatModel
}

// NewCompleter creates a Completer for the configured provider.
func NewCompleter(ctx context.Context, cfg Config) (*ChatCompleter, error) {
	cm, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &ChatCompleter{model: cm}, nil
}

// NewCompleterFromModel wraps an existing chat model.
func NewCompleterFromModel(cm model.BaseChatModel) *ChatCompleter {
	return &ChatCompleter{model: cm}
}

// Complete implements Completer.
func (c *ChatCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}

	resp, err := c.model.Generate(ctx, messages)
	if err != nil {
		return "", &UpstreamError{Reason: classifyError(err), Err: err}
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", &UpstreamError{Reason: ReasonEmpty, Err: ErrEmptyCompletion}
	}
	return resp.Content, nil
}

// classifyError maps provider error text onto a reason. Providers do not
// share an error type, so this matches on the message.
func classifyError(err error) UpstreamReason {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "429"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "quota exceeded"):
		return ReasonRateLimited
	case strings.Contains(msg, "401"),
		strings.Contains(msg, "403"),
		strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "invalid api key"),
		strings.Contains(msg, "authentication"):
		return ReasonUnauthorized
	default:
		return ReasonFailed
	}
}
