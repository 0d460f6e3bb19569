// Package logger records crash reports for StoryWing.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

const (
	// CrashLogDir is the crash report directory under the data path.
	CrashLogDir = "crash_logs"

	// MaxCrashLogs is how many reports are kept.
	MaxCrashLogs = 10

	crashPrefix = "crash_"
	crashSuffix = ".log"
)

// CrashLog is one crash report.
type CrashLog struct {
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Command     string    `json:"command"`
	PanicValue  string    `json:"panic_value"`
	StackTrace  string    `json:"stack_trace"`
	LastRequest string    `json:"last_request,omitempty"`
	LastPrompt  string    `json:"last_prompt,omitempty"`
	GoVersion   string    `json:"go_version"`
	OS          string    `json:"os"`
	Arch        string    `json:"arch"`
}

// Recorder keeps the context written into crash reports.
type Recorder struct {
	mu          sync.RWMutex
	fs          afero.Fs
	basePath    string
	version     string
	command     string
	lastRequest string
	lastPrompt  string
}

// NewRecorder returns a Recorder writing under basePath on fs.
func NewRecorder(fs afero.Fs, basePath string) *Recorder {
	return &Recorder{fs: fs, basePath: basePath}
}

var global = NewRecorder(afero.NewOsFs(), "")

// Default returns the process-wide recorder.
func Default() *Recorder { return global }

// SetBasePath sets the directory crash_logs/ is created in, normally the
// data path.
func (r *Recorder) SetBasePath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.basePath = path
}

func (r *Recorder) SetVersion(version string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.version = version
}

func (r *Recorder) SetCommand(cmd string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.command = cmd
}

// SetLastRequest records the last API request line, e.g. "POST /api/prds".
func (r *Recorder) SetLastRequest(req string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRequest = truncateForLog(strings.TrimSpace(req), 500)
}

// SetLastPrompt records the last prompt sent to the model.
func (r *Recorder) SetLastPrompt(prompt string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastPrompt = truncateForLog(prompt, 2000)
}

func truncateForLog(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	return value[:maxLen] + "... [truncated]"
}

// HandlePanic recovers a panic, writes a report and exits with status 1.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	if v := recover(); v != nil {
		global.report(v, os.Stderr)
		os.Exit(1)
	}
}

func (r *Recorder) report(v any, w io.Writer) {
	log := r.Capture(v)
	path, err := r.Write(log)
	if err != nil {
		fmt.Fprintf(w, "\n[CRASH] could not write crash log: %v\n", err)
		fmt.Fprintf(w, "[CRASH] panic: %v\n%s\n", v, log.StackTrace)
		return
	}
	fmt.Fprintf(w, "\nStoryWing crashed unexpectedly.\n")
	fmt.Fprintf(w, "A crash log was saved to:\n  %s\n\n", path)
}

// Capture builds a report for panic value v from the recorded context.
func (r *Recorder) Capture(v any) CrashLog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return CrashLog{
		Timestamp:   time.Now(),
		Version:     r.version,
		Command:     r.command,
		PanicValue:  fmt.Sprintf("%v", v),
		StackTrace:  string(debug.Stack()),
		LastRequest: r.lastRequest,
		LastPrompt:  r.lastPrompt,
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
	}
}

// Write stores log and prunes old reports. It returns the file path.
func (r *Recorder) Write(log CrashLog) (string, error) {
	dir := r.Dir()
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}
	path := r.pathFor(log.Timestamp)
	if err := afero.WriteFile(r.fs, path, []byte(Format(log)), 0o644); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}
	if err := r.prune(); err != nil {
		return path, fmt.Errorf("prune crash logs: %w", err)
	}
	return path, nil
}

// Dir is the crash report directory.
func (r *Recorder) Dir() string {
	r.mu.RLock()
	base := r.basePath
	r.mu.RUnlock()
	if base == "" {
		base = ".storywing"
	}
	return filepath.Join(base, CrashLogDir)
}

func (r *Recorder) pathFor(t time.Time) string {
	return filepath.Join(r.Dir(), crashPrefix+t.Format("20060102_150405")+crashSuffix)
}

// List returns report paths, oldest first.
func (r *Recorder) List() ([]string, error) {
	dir := r.Dir()
	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var logs []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), crashPrefix) && strings.HasSuffix(e.Name(), crashSuffix) {
			logs = append(logs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(logs)
	return logs, nil
}

// prune keeps the newest MaxCrashLogs reports. Names embed the timestamp,
// so lexical order is chronological.
func (r *Recorder) prune() error {
	logs, err := r.List()
	if err != nil || len(logs) <= MaxCrashLogs {
		return err
	}
	for _, path := range logs[:len(logs)-MaxCrashLogs] {
		if err := r.fs.Remove(path); err != nil {
			return err
		}
	}
	return nil
}

// Format renders a report as text.
func Format(log CrashLog) string {
	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)
	var sb strings.Builder

	section := func(title, body string) {
		sb.WriteString("\n" + thin + "\n" + title + "\n" + thin + "\n")
		sb.WriteString(strings.TrimRight(body, "\n") + "\n")
	}

	sb.WriteString(rule + "\nSTORYWING CRASH LOG\n" + rule + "\n\n")
	fmt.Fprintf(&sb, "Timestamp: %s\n", log.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Version:   %s\n", log.Version)
	fmt.Fprintf(&sb, "Command:   %s\n", log.Command)
	fmt.Fprintf(&sb, "Go:        %s\n", log.GoVersion)
	fmt.Fprintf(&sb, "OS/Arch:   %s/%s\n", log.OS, log.Arch)

	section("PANIC VALUE", log.PanicValue)
	section("STACK TRACE", log.StackTrace)
	if log.LastRequest != "" {
		section("LAST REQUEST", log.LastRequest)
	}
	if log.LastPrompt != "" {
		section("LAST LLM PROMPT", log.LastPrompt)
	}
	sb.WriteString("\n" + rule + "\nEND OF CRASH LOG\n" + rule + "\n")
	return sb.String()
}
