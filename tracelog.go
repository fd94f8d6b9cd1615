package examprep

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TraceLogger writes a per-request pipeline trace to a file: the prompt
// sent upstream, the raw completion, and the outcome of each stage. Traces
// are what make prompt-drift diagnosable after the fallback has hidden the
// failure from the student. All methods are nil-safe.
type TraceLogger struct {
	file *os.File
	mu   sync.Mutex
}

// NewTraceLogger creates a trace log file for one pipeline request
func NewTraceLogger(dir, requestID string, req GenerationRequest) (*TraceLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}

	file, err := os.Create(filepath.Join(dir, fmt.Sprintf("%s.log", requestID)))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	tl := &TraceLogger{file: file}
	tl.Logf("=== Generation Trace ===\n")
	tl.Logf("Request ID: %s\n", requestID)
	tl.Logf("Course: %s\n", req.Course)
	tl.Logf("Topic: %s\n", req.Topic)
	tl.Logf("Difficulty: %s\n", req.Difficulty)
	tl.Logf("Count: %d\n", req.Count)
	tl.Logf("Started: %s\n\n", time.Now().Format(time.RFC3339))
	return tl, nil
}

// Logf writes a timestamped entry
func (tl *TraceLogger) Logf(format string, args ...interface{}) {
	if tl == nil {
		return
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()

	fmt.Fprintf(tl.file, "[%s] %s", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
	tl.file.Sync()
}

// LogPrompt records the instruction string sent upstream
func (tl *TraceLogger) LogPrompt(stage, prompt string) {
	tl.Logf("=== PROMPT (%s) ===\n%s\n===\n\n", stage, prompt)
}

// LogCompletion records the raw upstream response
func (tl *TraceLogger) LogCompletion(stage, text string) {
	tl.Logf("=== COMPLETION (%s) ===\n%s\n===\n\n", stage, text)
}

// LogFailure records a recovered stage failure and the offending excerpt
func (tl *TraceLogger) LogFailure(stage string, kind FailureKind, excerpt string) {
	tl.Logf("FAILURE at %s (%s): %s\n", stage, kind, excerpt)
}

// LogOutcome records how the request terminated
func (tl *TraceLogger) LogOutcome(outcome string) {
	tl.Logf("Outcome: %s\n", outcome)
}

// Close finalizes and closes the trace file
func (tl *TraceLogger) Close() error {
	if tl == nil {
		return nil
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.file != nil {
		fmt.Fprintf(tl.file, "[%s] Completed: %s\n", time.Now().Format("15:04:05.000"), time.Now().Format(time.RFC3339))
		return tl.file.Close()
	}
	return nil
}
