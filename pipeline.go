package examprep

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"math/rand"
)

// QuestionSource produces a question set for a request. The live model path
// and the fallback bank are two implementations of this interface, selected
// at a single decision point in the pipeline rather than via exception-style
// control flow.
type QuestionSource interface {
	Questions(ctx context.Context, req GenerationRequest, prior *TestSummary) ([]Question, error)
}

// liveSource drives the completion client and defensively parses its output
type liveSource struct {
	client CompletionClient
	tracer *TraceLogger
}

func (s *liveSource) Questions(ctx context.Context, req GenerationRequest, prior *TestSummary) ([]Question, error) {
	prompt := BuildQuestionPrompt(req, prior)
	s.tracer.LogPrompt("generate_question", prompt)

	raw := s.client.Complete(ctx, prompt, CompletionOptions{})
	if !raw.Succeeded {
		return nil, &PipelineError{
			Kind:  FailureUpstreamUnavailable,
			Stage: "calling",
			Err:   raw.Err,
		}
	}
	s.tracer.LogCompletion("generate_question", raw.Text)

	span, err := ExtractArray(raw.Text)
	if err != nil {
		return nil, err
	}
	return NormalizeQuestions(span, req)
}

// fallbackSource draws from the static bank; it performs no I/O and only
// fails on a configuration gap.
type fallbackSource struct {
	bank *FallbackBank
	rng  *rand.Rand
}

func (s *fallbackSource) Questions(_ context.Context, req GenerationRequest, _ *TestSummary) ([]Question, error) {
	return s.bank.Draw(req.Course, req.Count, s.rng)
}

// Pipeline orchestrates prompt building, the completion call, extraction,
// normalization, and shuffling, diverting to the fallback bank when the live
// path fails. It holds no per-request state; concurrent requests are
// independent.
type Pipeline struct {
	client   CompletionClient
	bank     *FallbackBank
	traceDir string

	// rng is injected by tests for deterministic shuffles; nil means the
	// shared package source, which is safe under concurrency.
	rng *rand.Rand
}

// NewPipeline creates a pipeline over a completion client and fallback bank
func NewPipeline(client CompletionClient, bank *FallbackBank) *Pipeline {
	return &Pipeline{client: client, bank: bank}
}

// SetTraceDir enables per-request trace files under dir
func (p *Pipeline) SetTraceDir(dir string) {
	p.traceDir = dir
}

// SetRand fixes the random source. Only for tests; the fixed source is not
// safe for concurrent requests.
func (p *Pipeline) SetRand(rng *rand.Rand) {
	p.rng = rng
}

// GenerateQuestionSet returns a question set of exactly req.Count questions.
// Upstream, extraction, and normalization failures are recovered through the
// fallback bank and never surfaced; the only error callers can see is a
// configuration gap in the bank itself.
func (p *Pipeline) GenerateQuestionSet(ctx context.Context, req GenerationRequest, prior *TestSummary) (QuestionSet, error) {
	if req.Count <= 0 {
		req.Count = DefaultQuestionCount
	}

	var tracer *TraceLogger
	if p.traceDir != "" {
		var err error
		if tracer, err = NewTraceLogger(p.traceDir, newRequestID(), req); err != nil {
			log.Printf("Failed to create trace logger: %v", err)
			tracer = nil
		} else {
			defer tracer.Close()
		}
	}

	live := &liveSource{client: p.client, tracer: tracer}
	questions, err := live.Questions(ctx, req, prior)
	if err != nil {
		var pe *PipelineError
		if errors.As(err, &pe) {
			log.Printf("Recovered %s at %s, serving fallback (raw: %s)", pe.Kind, pe.Stage, pe.Excerpt)
			tracer.LogFailure(pe.Stage, pe.Kind, pe.Excerpt)
		} else {
			log.Printf("Recovered generation failure, serving fallback: %v", err)
		}

		fb := &fallbackSource{bank: p.bank, rng: p.rng}
		questions, err = fb.Questions(ctx, req, prior)
		if err != nil {
			tracer.LogOutcome("configuration error")
			return nil, err
		}
		tracer.LogOutcome("fallback")
	} else {
		tracer.LogOutcome("live")
	}

	for i := range questions {
		ShuffleOptions(&questions[i], p.rng)
	}
	return questions, nil
}

// AnalyzePerformance computes a subject-mastery confidence from recent
// scores, most recent first. The model is asked first; any failure falls
// back to a local recency-weighted computation, mirroring the question
// path's fallback-not-error policy.
func (p *Pipeline) AnalyzePerformance(ctx context.Context, course string, scores []float64) Analysis {
	if len(scores) == 0 {
		return Analysis{ConfidenceScore: 0, ProgressStatus: "No data"}
	}

	prompt := BuildAnalysisPrompt(course, scores)
	raw := p.client.Complete(ctx, prompt, CompletionOptions{JSONObject: true})
	if raw.Succeeded {
		if span, err := ExtractObject(raw.Text); err == nil {
			var out struct {
				ConfidenceScore float64 `json:"confidenceScore"`
				ProgressStatus  string  `json:"progressStatus"`
			}
			if err := json.Unmarshal([]byte(span), &out); err == nil && out.ProgressStatus != "" {
				return Analysis{
					ConfidenceScore: clampPercent(out.ConfidenceScore),
					ProgressStatus:  out.ProgressStatus,
				}
			}
		}
		log.Printf("Analysis response unusable, computing locally (raw: %s)", excerpt(raw.Text))
	} else {
		log.Printf("Analysis call failed, computing locally: %v", raw.Err)
	}
	return localAnalysis(scores)
}

// Chat answers a tutor question. Personal context is only injected when the
// message asks for it, and the reply is redacted and shortened before it
// reaches the student.
func (p *Pipeline) Chat(ctx context.Context, student Student, message, course string, last *TestSummary) (string, error) {
	system := BuildChatSystemPrompt(student, course, last, NeedsPersonalContext(message))

	raw := p.client.Complete(ctx, message, CompletionOptions{System: system})
	if !raw.Succeeded {
		return "", &PipelineError{
			Kind:  FailureUpstreamUnavailable,
			Stage: "chat",
			Err:   raw.Err,
		}
	}

	reply := Redact(raw.Text, student.ID)
	return ShortenReply(reply, 2), nil
}

// localAnalysis is the deterministic stand-in for the model analysis:
// a recency-weighted mean plus a first-half/second-half trend.
func localAnalysis(scores []float64) Analysis {
	var sum, weightSum float64
	for i, s := range scores {
		w := float64(len(scores) - i) // most recent first
		sum += s * w
		weightSum += w
	}
	confidence := clampPercent(sum / weightSum)

	status := "Stable"
	if len(scores) >= 2 {
		half := len(scores) / 2
		recent := mean(scores[:half+len(scores)%2])
		older := mean(scores[half+len(scores)%2:])
		switch {
		case recent > older+5:
			status = "Improving"
		case recent < older-5:
			status = "Declining"
		}
	}
	return Analysis{ConfidenceScore: confidence, ProgressStatus: status}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func clampPercent(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}

func newRequestID() string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 12)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
