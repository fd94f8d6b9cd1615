package examprep

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
)

// stubClient scripts the completion boundary for pipeline tests
type stubClient struct {
	text      string
	fail      bool
	gotPrompt string
	gotOpts   CompletionOptions
}

func (c *stubClient) Complete(_ context.Context, prompt string, opts CompletionOptions) RawCompletion {
	c.gotPrompt = prompt
	c.gotOpts = opts
	if c.fail {
		return RawCompletion{
			Succeeded: false,
			ErrorKind: FailureUpstreamUnavailable,
			Err:       errors.New("connection timed out"),
		}
	}
	return RawCompletion{Text: c.text, Succeeded: true}
}

const validFiveQuestions = `[
	{"question": "q1", "options": ["a1","b1","c1","d1"], "correct_answer": "a1", "explanation": "e1"},
	{"question": "q2", "options": ["a2","b2","c2","d2"], "correct_answer": "1"},
	{"question": "q3", "options": ["a3","b3","c3","d3"], "correct_answer": 2},
	{"questionText": "q4", "options": ["a4","b4","c4","d4"], "correctAnswer": " D4 "},
	{"question": "q5", "options": ["a5","b5","c5","d5"], "correct_answer": "nope"}
]`

func checkInvariants(t *testing.T, qs QuestionSet, wantLen int) {
	t.Helper()
	if len(qs) != wantLen {
		t.Fatalf("expected %d questions, got %d", wantLen, len(qs))
	}
	for _, q := range qs {
		if q.QuestionText == "" {
			t.Errorf("empty question text in set")
		}
		seen := make(map[string]bool)
		member := false
		for _, opt := range q.Options {
			if seen[opt] {
				t.Errorf("duplicate option %q in %q", opt, q.QuestionText)
			}
			seen[opt] = true
			if opt == q.CorrectAnswer {
				member = true
			}
		}
		if !member {
			t.Errorf("correct answer %q not in options %v for %q", q.CorrectAnswer, q.Options, q.QuestionText)
		}
	}
}

func TestGenerateQuestionSetLivePath(t *testing.T) {
	client := &stubClient{text: "```json\n" + validFiveQuestions + "\n```"}
	p := NewPipeline(client, NewFallbackBank())
	p.SetRand(rand.New(rand.NewSource(21)))

	qs, err := p.GenerateQuestionSet(context.Background(), testRequest(5), nil)
	if err != nil {
		t.Fatalf("GenerateQuestionSet() failed: %v", err)
	}
	checkInvariants(t, qs, 5)

	// q2: numeric string index; q3: numeric index; q4: text match.
	byText := make(map[string]Question)
	for _, q := range qs {
		byText[q.QuestionText] = q
	}
	if byText["q2"].CorrectAnswer != "b2" {
		t.Errorf("q2: expected b2, got %q", byText["q2"].CorrectAnswer)
	}
	if byText["q3"].CorrectAnswer != "c3" {
		t.Errorf("q3: expected c3, got %q", byText["q3"].CorrectAnswer)
	}
	if byText["q4"].CorrectAnswer != "d4" {
		t.Errorf("q4: expected canonical d4, got %q", byText["q4"].CorrectAnswer)
	}
}

func TestGenerateQuestionSetPromptContents(t *testing.T) {
	client := &stubClient{text: validFiveQuestions}
	p := NewPipeline(client, NewFallbackBank())

	score := 72.0
	req := testRequest(5)
	req.PriorScore = &score
	if _, err := p.GenerateQuestionSet(context.Background(), req, nil); err != nil {
		t.Fatalf("GenerateQuestionSet() failed: %v", err)
	}

	for _, want := range []string{"EXACTLY 5 MCQs", "Physics", "Thermodynamics", "Medium", "72", "NO TEXT. NO MARKDOWN. JSON ONLY."} {
		if !strings.Contains(client.gotPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, client.gotPrompt)
		}
	}
}

func TestGenerateQuestionSetUpstreamFailureFallsBack(t *testing.T) {
	client := &stubClient{fail: true}
	p := NewPipeline(client, NewFallbackBank())
	p.SetRand(rand.New(rand.NewSource(23)))

	qs, err := p.GenerateQuestionSet(context.Background(), testRequest(5), nil)
	if err != nil {
		t.Fatalf("upstream failure must not escape: %v", err)
	}
	checkInvariants(t, qs, 5)
}

func TestGenerateQuestionSetMalformedResponseFallsBack(t *testing.T) {
	client := &stubClient{text: "I'm sorry, I can't produce JSON today."}
	p := NewPipeline(client, NewFallbackBank())

	qs, err := p.GenerateQuestionSet(context.Background(), testRequest(5), nil)
	if err != nil {
		t.Fatalf("malformed response must not escape: %v", err)
	}
	checkInvariants(t, qs, 5)
}

func TestGenerateQuestionSetWrongLengthFallsBack(t *testing.T) {
	client := &stubClient{text: `[
		{"question": "q1", "options": ["a","b","c","d"], "correct_answer": "a"},
		{"question": "q2", "options": ["a","b","c","d"], "correct_answer": "b"},
		{"question": "q3", "options": ["a","b","c","d"], "correct_answer": "c"}
	]`}
	p := NewPipeline(client, NewFallbackBank())

	qs, err := p.GenerateQuestionSet(context.Background(), testRequest(5), nil)
	if err != nil {
		t.Fatalf("wrong-length set must fall back, not error: %v", err)
	}
	checkInvariants(t, qs, 5)
}

func TestGenerateQuestionSetConfigurationErrorSurfaces(t *testing.T) {
	client := &stubClient{fail: true}
	empty := NewFallbackBankFromPools(nil, nil)
	p := NewPipeline(client, empty)

	_, err := p.GenerateQuestionSet(context.Background(), testRequest(5), nil)
	if err == nil {
		t.Fatal("missing fallback pool must surface as an error")
	}
	if !IsConfigurationError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestGenerateQuestionSetDefaultsCount(t *testing.T) {
	client := &stubClient{fail: true}
	p := NewPipeline(client, NewFallbackBank())

	req := testRequest(0)
	qs, err := p.GenerateQuestionSet(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("GenerateQuestionSet() failed: %v", err)
	}
	if len(qs) != DefaultQuestionCount {
		t.Errorf("expected default count %d, got %d", DefaultQuestionCount, len(qs))
	}
}

func TestChatRedactsAndShortens(t *testing.T) {
	client := &stubClient{text: "Your id is 507f191e810c19729de860ea and my email is tutor@school.edu. Keep practicing! Another sentence. And one more."}
	p := NewPipeline(client, NewFallbackBank())

	student := Student{ID: "507f191e810c19729de860ea", Name: "Ash Singh"}
	reply, err := p.Chat(context.Background(), student, "explain entropy", "Physics", nil)
	if err != nil {
		t.Fatalf("Chat() failed: %v", err)
	}
	if strings.Contains(reply, "507f191e810c19729de860ea") {
		t.Errorf("student id leaked: %s", reply)
	}
	if strings.Contains(reply, "tutor@school.edu") {
		t.Errorf("email leaked: %s", reply)
	}
	if strings.Contains(reply, "And one more") {
		t.Errorf("reply not shortened: %s", reply)
	}
}

func TestChatPersonalContextOnlyWhenAsked(t *testing.T) {
	client := &stubClient{text: "Sure."}
	p := NewPipeline(client, NewFallbackBank())
	student := Student{ID: "id-1234", Name: "Ash Singh"}
	last := &TestSummary{Subject: "Physics", Score: 64}

	if _, err := p.Chat(context.Background(), student, "explain entropy", "Physics", last); err != nil {
		t.Fatalf("Chat() failed: %v", err)
	}
	if strings.Contains(client.gotOpts.System, "64") {
		t.Errorf("score injected without being asked:\n%s", client.gotOpts.System)
	}

	if _, err := p.Chat(context.Background(), student, "what was my last score?", "Physics", last); err != nil {
		t.Fatalf("Chat() failed: %v", err)
	}
	if !strings.Contains(client.gotOpts.System, "64") {
		t.Errorf("score missing when explicitly asked:\n%s", client.gotOpts.System)
	}
	if strings.Contains(client.gotOpts.System, "id-1234") {
		t.Errorf("student id embedded in prompt:\n%s", client.gotOpts.System)
	}
	if strings.Contains(client.gotOpts.System, "Singh") {
		t.Errorf("full name embedded in prompt, want first name only:\n%s", client.gotOpts.System)
	}
}

func TestChatUpstreamFailure(t *testing.T) {
	client := &stubClient{fail: true}
	p := NewPipeline(client, NewFallbackBank())

	_, err := p.Chat(context.Background(), Student{ID: "x"}, "hello", "", nil)
	if err == nil {
		t.Fatal("chat upstream failure should return an error")
	}
}

func TestAnalyzePerformanceNoData(t *testing.T) {
	p := NewPipeline(&stubClient{}, NewFallbackBank())
	a := p.AnalyzePerformance(context.Background(), "Physics", nil)
	if a.ConfidenceScore != 0 || a.ProgressStatus != "No data" {
		t.Errorf("unexpected analysis for empty history: %+v", a)
	}
}

func TestAnalyzePerformanceModelPath(t *testing.T) {
	client := &stubClient{text: `{"confidenceScore": 81, "progressStatus": "Improving"}`}
	p := NewPipeline(client, NewFallbackBank())

	a := p.AnalyzePerformance(context.Background(), "Physics", []float64{80, 70, 60})
	if a.ConfidenceScore != 81 || a.ProgressStatus != "Improving" {
		t.Errorf("unexpected analysis: %+v", a)
	}
	if !client.gotOpts.JSONObject {
		t.Error("analysis call should request JSON object output")
	}
}

func TestAnalyzePerformanceLocalFallback(t *testing.T) {
	client := &stubClient{fail: true}
	p := NewPipeline(client, NewFallbackBank())

	// Most recent first and clearly improving.
	a := p.AnalyzePerformance(context.Background(), "Physics", []float64{90, 85, 50, 45})
	if a.ProgressStatus != "Improving" {
		t.Errorf("expected Improving, got %+v", a)
	}
	if a.ConfidenceScore <= 0 || a.ConfidenceScore > 100 {
		t.Errorf("confidence out of range: %+v", a)
	}
}

func TestAnalyzePerformanceClampsModelOutput(t *testing.T) {
	client := &stubClient{text: `{"confidenceScore": 140, "progressStatus": "Stable"}`}
	p := NewPipeline(client, NewFallbackBank())

	a := p.AnalyzePerformance(context.Background(), "Physics", []float64{50})
	if a.ConfidenceScore != 100 {
		t.Errorf("expected clamp to 100, got %d", a.ConfidenceScore)
	}
}
