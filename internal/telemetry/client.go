package telemetry

import (
	"io"
	"runtime"
	"time"

	"github.com/posthog/posthog-go"
)

// Event names.
const (
	EventCommand = "command_executed"
)

// Client sends events. Track never blocks and never fails the caller.
type Client interface {
	Track(event string, properties map[string]any)
	Close() error
}

// enqueuer is the part of the PostHog SDK the client uses.
type enqueuer interface {
	io.Closer
	Enqueue(msg posthog.Message) error
}

// Options configure New.
type Options struct {
	APIKey   string
	Endpoint string // optional, for self-hosted PostHog
	Version  string
}

// PostHogClient sends events to PostHog.
type PostHogClient struct {
	client  enqueuer
	id      string
	version string
}

// New returns a PostHog client when cfg is enabled and an API key is set,
// otherwise a NoopClient.
func New(cfg *Config, opts Options) (Client, error) {
	if cfg == nil || !cfg.Enabled || opts.APIKey == "" {
		return NoopClient{}, nil
	}
	phConfig := posthog.Config{
		BatchSize: 10,
		Interval:  time.Second,
		Logger:    quietLogger{},
	}
	if opts.Endpoint != "" {
		phConfig.Endpoint = opts.Endpoint
	}
	c, err := posthog.NewWithConfig(opts.APIKey, phConfig)
	if err != nil {
		return nil, err
	}
	return newPostHogClient(c, cfg.AnonymousID, opts.Version), nil
}

func newPostHogClient(enq enqueuer, id, version string) *PostHogClient {
	return &PostHogClient{client: enq, id: id, version: version}
}

func (c *PostHogClient) Track(event string, properties map[string]any) {
	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}
	props.Set("os", runtime.GOOS)
	props.Set("arch", runtime.GOARCH)
	props.Set("cli_version", c.version)
	// No person profiles: events stay anonymous.
	props.Set("$process_person_profile", false)

	_ = c.client.Enqueue(posthog.Capture{
		DistinctId: c.id,
		Event:      event,
		Properties: props,
	})
}

// Close flushes queued events.
func (c *PostHogClient) Close() error {
	return c.client.Close()
}

// NoopClient drops every event.
type NoopClient struct{}

func (NoopClient) Track(string, map[string]any) {}
func (NoopClient) Close() error                 { return nil }

// quietLogger keeps SDK transport warnings out of CLI output.
type quietLogger struct{}

func (quietLogger) Debugf(string, ...interface{}) {}
func (quietLogger) Logf(string, ...interface{})   {}
func (quietLogger) Warnf(string, ...interface{})  {}
func (quietLogger) Errorf(string, ...interface{}) {}
