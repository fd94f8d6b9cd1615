package examprep

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripFences removes a leading/trailing fenced code block marker. Models
// wrap JSON in ```json fences despite being told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "```json"):
		s = s[len("```json"):]
	case strings.HasPrefix(s, "```"):
		s = s[len("```"):]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractArray locates and strictly parses the top-level JSON array in raw
// model output. The returned span is valid JSON whose top-level value is an
// array; anything else fails with a MalformedResponse error.
func ExtractArray(text string) (string, error) {
	cleaned := stripFences(text)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start < 0 || end <= start {
		return "", &PipelineError{
			Kind:    FailureMalformedResponse,
			Stage:   "extract",
			Excerpt: excerpt(text),
			Err:     fmt.Errorf("no JSON array found in response"),
		}
	}

	span := cleaned[start : end+1]
	var probe []json.RawMessage
	if err := json.Unmarshal([]byte(span), &probe); err != nil {
		return "", &PipelineError{
			Kind:    FailureMalformedResponse,
			Stage:   "extract",
			Excerpt: excerpt(text),
			Err:     fmt.Errorf("invalid JSON array: %w", err),
		}
	}
	return span, nil
}

// ExtractObject locates and strictly parses the top-level JSON object in raw
// model output.
func ExtractObject(text string) (string, error) {
	cleaned := stripFences(text)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", &PipelineError{
			Kind:    FailureMalformedResponse,
			Stage:   "extract",
			Excerpt: excerpt(text),
			Err:     fmt.Errorf("no JSON object found in response"),
		}
	}

	span := cleaned[start : end+1]
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &probe); err != nil {
		return "", &PipelineError{
			Kind:    FailureMalformedResponse,
			Stage:   "extract",
			Excerpt: excerpt(text),
			Err:     fmt.Errorf("invalid JSON object: %w", err),
		}
	}
	return span, nil
}
