package examprep

import (
	"errors"
	"fmt"
	"time"
)

// Difficulty levels accepted by the generation pipeline
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// DefaultQuestionCount is the set size handed to students in practice
const DefaultQuestionCount = 5

// GenerationRequest represents a request to generate a question set
type GenerationRequest struct {
	Course     string     `json:"course"`
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
	PriorScore *float64   `json:"prior_score,omitempty"`
	Count      int        `json:"count"`
}

// Question is the validated internal contract. CorrectAnswer holds the
// option's literal text, never an index, so shuffling the options cannot
// break the correct-answer reference.
type Question struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Topic         string   `json:"topic"`
	Difficulty    string   `json:"difficulty"`
}

// QuestionSet is an ordered question sequence of exactly the requested length
type QuestionSet []Question

// TestSummary is the prior-performance signal supplied by the store
type TestSummary struct {
	Subject string    `json:"subject"`
	Score   float64   `json:"score"`
	TakenAt time.Time `json:"takenAt"`
}

// Student is the authenticated identity the pipeline acts on behalf of
type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Analysis is the result of a performance_analysis request
type Analysis struct {
	ConfidenceScore int    `json:"confidenceScore"`
	ProgressStatus  string `json:"progressStatus"`
}

// RawCompletion is the outcome of a single completion call. Failures are
// carried in-band; the completion client never lets a transport error
// escape past this boundary.
type RawCompletion struct {
	Text      string
	Succeeded bool
	ErrorKind FailureKind
	Err       error
}

// FailureKind classifies pipeline failures
type FailureKind string

const (
	FailureUpstreamUnavailable FailureKind = "upstream_unavailable"
	FailureMalformedResponse   FailureKind = "malformed_response"
	FailureSchemaViolation     FailureKind = "schema_violation"
	FailureConfiguration       FailureKind = "configuration_error"
)

// PipelineError records where in the pipeline a request failed and a bounded
// excerpt of the offending model output for prompt-drift diagnosis.
type PipelineError struct {
	Kind    FailureKind
	Stage   string
	Excerpt string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s at %s: %v", e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s at %s", e.Kind, e.Stage)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is the one failure class that is
// surfaced to callers instead of being recovered by the fallback bank.
func IsConfigurationError(err error) bool {
	var pe *PipelineError
	return errors.As(err, &pe) && pe.Kind == FailureConfiguration
}

const excerptLimit = 200

// excerpt bounds raw model output for logging
func excerpt(s string) string {
	if len(s) <= excerptLimit {
		return s
	}
	return s[:excerptLimit] + "..."
}
