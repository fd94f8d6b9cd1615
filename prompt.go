package examprep

import (
	"fmt"
	"strings"
)

// BuildQuestionPrompt constructs the instruction string for a question-set
// generation request. The format constraints are stated aggressively because
// the model ignores softer phrasing often enough that the extractor and
// normalizer must still assume the worst.
func BuildQuestionPrompt(req GenerationRequest, prior *TestSummary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generate EXACTLY %d MCQs for %s.\n", req.Count, req.Course))
	sb.WriteString(fmt.Sprintf("Topic: %s.\n", req.Topic))
	sb.WriteString(fmt.Sprintf("Difficulty: %s.\n", req.Difficulty))

	switch {
	case prior != nil:
		sb.WriteString(fmt.Sprintf("Student previous score: %.0f.\n", prior.Score))
	case req.PriorScore != nil:
		sb.WriteString(fmt.Sprintf("Student previous score: %.0f.\n", *req.PriorScore))
	default:
		sb.WriteString("Student previous score: New.\n")
	}

	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- Each question must have exactly 4 multiple choice options\n")
	sb.WriteString("- The correct answer should be non-obvious but clearly correct\n")
	sb.WriteString("- Incorrect options should be plausible but clearly wrong\n")
	sb.WriteString("- Never include student names, emails, or any identifiers in the questions\n")

	sb.WriteString("\nReturn ONLY valid JSON ARRAY like:\n")
	sb.WriteString("[\n")
	sb.WriteString("  {\n")
	sb.WriteString("    \"question\": \"\",\n")
	sb.WriteString("    \"options\": [\"A\",\"B\",\"C\",\"D\"],\n")
	sb.WriteString("    \"correct_answer\": \"\",\n")
	sb.WriteString("    \"explanation\": \"\",\n")
	sb.WriteString(fmt.Sprintf("    \"topic\": %q,\n", req.Topic))
	sb.WriteString(fmt.Sprintf("    \"difficulty\": %q\n", string(req.Difficulty)))
	sb.WriteString("  }\n")
	sb.WriteString("]\n")
	sb.WriteString("\nNO TEXT. NO MARKDOWN. JSON ONLY.\n")

	return sb.String()
}

// BuildAnalysisPrompt constructs the instruction string for a subject-mastery
// confidence analysis over the student's recent scores, most recent first.
func BuildAnalysisPrompt(course string, scores []float64) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = fmt.Sprintf("%.0f", s)
	}

	var sb strings.Builder
	sb.WriteString("You are a Student Progress Analyzer.\n")
	sb.WriteString(fmt.Sprintf("Input Scores for %s: [%s] (Most recent first).\n", course, strings.Join(parts, ", ")))
	sb.WriteString("Task: Calculate a \"Subject Mastery Confidence\" percentage (0-100).\n")
	sb.WriteString("Logic: Give more weight to recent scores. If scores are improving, confidence is higher.\n")
	sb.WriteString("Format: Return ONLY valid JSON: {\"confidenceScore\": number, \"progressStatus\": \"Improving/Declining/Stable\"}\n")
	return sb.String()
}

// chat context keywords that indicate the student is asking about their own
// data, in which case the last test snapshot is injected into the prompt
var personalContextKeywords = []string{
	"last test", "last marks", "my marks", "my score", "my last", "my test", "my results",
	"how did i", "tell me my", "what was my", "my performance", "my progress", "last score",
}

// NeedsPersonalContext reports whether a chat message explicitly asks for the
// student's own results. Personal data is only put in front of the model when
// the student asked for it.
func NeedsPersonalContext(message string) bool {
	t := strings.ToLower(message)
	for _, k := range personalContextKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// BuildChatSystemPrompt constructs the tutor system prompt for the chat path.
// The student's internal identifier is never embedded; when context is
// included, only a first name and the last score appear.
func BuildChatSystemPrompt(student Student, course string, last *TestSummary, includeContext bool) string {
	var sb strings.Builder

	sb.WriteString("You are an expert AI Tutor.\n")
	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("1. Answer the student's question clearly and concisely.\n")
	sb.WriteString("2. Use a helpful, educational tone.\n")

	if course != "" {
		sb.WriteString(fmt.Sprintf("Course context: %s.\n", course))
	}

	if includeContext && last != nil {
		displayName := "Student"
		if student.Name != "" {
			displayName = strings.Fields(student.Name)[0]
		}
		takenAt := "unknown date"
		if !last.TakenAt.IsZero() {
			takenAt = last.TakenAt.Format("Mon Jan 2 2006")
		}
		sb.WriteString(fmt.Sprintf("Student: %s (IDENTIFIER REDACTED). Last test for %s: score %.0f, takenAt %s.\n",
			displayName, course, last.Score, takenAt))
	}

	sb.WriteString("PRIVACY: Do not emit any persistent identifiers (IDs, emails, phone numbers). Replace them with [REDACTED] if needed.\n")
	sb.WriteString("Brevity: Answer in a short, point-to-point sentence or two, then add a very short 1-2 sentence summary. Keep total length minimal.\n")

	return sb.String()
}
