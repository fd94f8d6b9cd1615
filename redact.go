package examprep

import (
	"regexp"
	"strings"
)

// RedactedToken replaces every masked identifier
const RedactedToken = "[REDACTED]"

// maxReplyChars bounds tutor replies after sentence truncation
const maxReplyChars = 400

var (
	objectIDPattern = regexp.MustCompile(`\b[0-9a-fA-F]{24}\b`)
	idFieldPattern  = regexp.MustCompile(`(?i)id:\s*[^\s,;\n)]*`)
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern    = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)
)

// Redact masks identifiers in untrusted model output headed for a student:
// 24-hex database ids, explicit "id:" tokens, email addresses, phone-like
// digit runs, and every literal occurrence of the student's own id. The
// prompt already forbids emitting identifiers; this does not trust that the
// instruction was followed.
func Redact(text, studentID string) string {
	out := objectIDPattern.ReplaceAllString(text, RedactedToken)
	out = idFieldPattern.ReplaceAllString(out, "id: "+RedactedToken)
	out = emailPattern.ReplaceAllString(out, RedactedToken)
	out = phonePattern.ReplaceAllString(out, RedactedToken)

	if id := strings.TrimSpace(studentID); len(id) > 3 {
		out = strings.ReplaceAll(out, id, RedactedToken)
	}
	return out
}

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]?`)

// ShortenReply keeps tutor answers point-to-point: the first maxSentences
// sentences, capped at a character budget.
func ShortenReply(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 2
	}
	parts := sentencePattern.FindAllString(text, -1)
	if len(parts) == 0 {
		parts = []string{text}
	}
	if len(parts) > maxSentences {
		parts = parts[:maxSentences]
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	taken := strings.TrimSpace(strings.Join(parts, " "))
	if len(taken) > maxReplyChars {
		return strings.TrimSpace(taken[:maxReplyChars]) + "..."
	}
	return taken
}
