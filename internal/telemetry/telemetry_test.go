package telemetry

import (
	"runtime"
	"sync"
	"testing"

	"github.com/posthog/posthog-go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEnqueuer struct {
	mu     sync.Mutex
	events []posthog.Capture
	closed bool
}

func (m *mockEnqueuer) Enqueue(msg posthog.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := msg.(posthog.Capture); ok {
		m.events = append(m.events, c)
	}
	return nil
}

func (m *mockEnqueuer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func TestPostHogClient_Track(t *testing.T) {
	mock := &mockEnqueuer{}
	c := newPostHogClient(mock, "anon-123", "1.2.3")

	c.Track(EventCommand, map[string]any{"command": "storywing serve", "success": true})
	require.NoError(t, c.Close())

	require.Len(t, mock.events, 1)
	ev := mock.events[0]
	assert.Equal(t, EventCommand, ev.Event)
	assert.Equal(t, "anon-123", ev.DistinctId)
	assert.Equal(t, "storywing serve", ev.Properties["command"])
	assert.Equal(t, true, ev.Properties["success"])
	assert.Equal(t, runtime.GOOS, ev.Properties["os"])
	assert.Equal(t, "1.2.3", ev.Properties["cli_version"])
	assert.Equal(t, false, ev.Properties["$process_person_profile"])
	assert.True(t, mock.closed)
}

func TestNew_Noop(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		opts Options
	}{
		{"nil config", nil, Options{APIKey: "phc_x"}},
		{"disabled", &Config{Enabled: false, AnonymousID: "a"}, Options{APIKey: "phc_x"}},
		{"no api key", &Config{Enabled: true, AnonymousID: "a"}, Options{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg, tt.opts)
			require.NoError(t, err)
			assert.IsType(t, NoopClient{}, c)
			c.Track(EventCommand, nil)
			assert.NoError(t, c.Close())
		})
	}
}

func TestStore_LoadSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewStore(fs, "/home/me/.storywing")

	cfg, err := s.Load()
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.NotEmpty(t, cfg.AnonymousID)

	cfg.Enabled = true
	require.NoError(t, s.Save(cfg))

	info, err := fs.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())

	again, err := s.Load()
	require.NoError(t, err)
	assert.True(t, again.Enabled)
	assert.Equal(t, cfg.AnonymousID, again.AnonymousID)

	require.NoError(t, afero.WriteFile(fs, s.Path(), []byte("{"), 0o600))
	_, err = s.Load()
	assert.Error(t, err)
}
