package examprep

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// candidateQuestion is the loosely-typed item shape produced by the model,
// before validation. Field names the model is known to use are all accepted.
type candidateQuestion struct {
	Question     string          `json:"question"`
	QuestionText string          `json:"questionText"`
	Text         string          `json:"text"`
	Options      []any           `json:"options"`
	CorrectSnake json.RawMessage `json:"correct_answer"`
	CorrectCamel json.RawMessage `json:"correctAnswer"`
	Explanation  string          `json:"explanation"`
	Topic        string          `json:"topic"`
	Difficulty   string          `json:"difficulty"`
}

func (c candidateQuestion) questionText() string {
	for _, s := range []string{c.QuestionText, c.Question, c.Text} {
		if strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func (c candidateQuestion) correctAnswerField() json.RawMessage {
	if len(c.CorrectSnake) > 0 && string(c.CorrectSnake) != "null" {
		return c.CorrectSnake
	}
	if len(c.CorrectCamel) > 0 && string(c.CorrectCamel) != "null" {
		return c.CorrectCamel
	}
	return nil
}

// coerceOptions turns the raw options values into distinct non-empty strings,
// preserving order.
func coerceOptions(raw []any) []string {
	opts := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, v := range raw {
		var s string
		switch t := v.(type) {
		case string:
			s = strings.TrimSpace(t)
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(t)
		default:
			continue
		}
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		opts = append(opts, s)
	}
	return opts
}

// resolveCorrectAnswer maps the model's correct-answer field onto the literal
// text of one option. Precedence: numeric value or numeric-looking string is
// a zero-based index; otherwise the field must match an option after trimming
// and case folding. Returns false when nothing resolves.
func resolveCorrectAnswer(raw json.RawMessage, options []string) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		idx := int(num)
		if idx >= 0 && idx < len(options) {
			return options[idx], true
		}
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if idx, err := strconv.Atoi(s); err == nil {
		if idx >= 0 && idx < len(options) {
			return options[idx], true
		}
		return "", false
	}

	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), s) {
			return opt, true
		}
	}
	return "", false
}

// NormalizeQuestions maps an extracted JSON array span onto validated
// Questions. Items without a usable question text or with fewer than two
// usable options are dropped; an unresolvable correct answer is left empty
// for the shuffler to default rather than failing the set. The resulting
// sequence must have exactly req.Count items or the whole attempt fails —
// a short set would corrupt downstream scoring.
func NormalizeQuestions(span string, req GenerationRequest) ([]Question, error) {
	var candidates []candidateQuestion
	if err := json.Unmarshal([]byte(span), &candidates); err != nil {
		return nil, &PipelineError{
			Kind:    FailureMalformedResponse,
			Stage:   "normalize",
			Excerpt: excerpt(span),
			Err:     fmt.Errorf("candidate items are not objects: %w", err),
		}
	}

	questions := make([]Question, 0, len(candidates))
	for i, c := range candidates {
		text := c.questionText()
		if text == "" {
			VerboseLog("Dropping candidate %d: no question text", i)
			continue
		}

		options := coerceOptions(c.Options)
		if len(options) < 2 {
			VerboseLog("Dropping candidate %d: only %d usable options", i, len(options))
			continue
		}

		correct, ok := resolveCorrectAnswer(c.correctAnswerField(), options)
		if !ok {
			// Degraded item: shuffler will default the correct answer.
			log.Printf("Question %d: unresolvable correct answer %q, defaulting", i, string(c.correctAnswerField()))
		}

		topic := c.Topic
		if topic == "" {
			topic = req.Topic
		}
		difficulty := c.Difficulty
		if difficulty == "" {
			difficulty = string(req.Difficulty)
		}

		questions = append(questions, Question{
			QuestionText:  text,
			Options:       options,
			CorrectAnswer: correct,
			Explanation:   c.Explanation,
			Topic:         topic,
			Difficulty:    difficulty,
		})
	}

	if len(questions) != req.Count {
		return nil, &PipelineError{
			Kind:    FailureSchemaViolation,
			Stage:   "normalize",
			Excerpt: excerpt(span),
			Err:     fmt.Errorf("expected %d questions, got %d usable", req.Count, len(questions)),
		}
	}
	return questions, nil
}
