package examprep

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultCompletionTimeout bounds a single upstream call. The orchestrator
// treats a timeout like any other upstream failure.
const DefaultCompletionTimeout = 60 * time.Second

// CompletionOptions tune a single completion call. JSONObject is a
// best-effort structured-output hint; the extractor must not rely on it.
type CompletionOptions struct {
	System     string
	JSONObject bool
	Timeout    time.Duration
}

// CompletionClient sends a prompt to an external text-generation service.
// Failures are reported in the returned RawCompletion, never raised.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) RawCompletion
}

// OpenAIClient is the production CompletionClient backed by the OpenAI chat
// completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a completion client using the default model
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
}

// NewOpenAIClientWithModel creates a completion client for a specific model
func NewOpenAIClientWithModel(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Complete sends one prompt and returns the raw completion text
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, opts CompletionOptions) RawCompletion {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultCompletionTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if opts.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: opts.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}
	if opts.JSONObject {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return RawCompletion{
			Succeeded: false,
			ErrorKind: FailureUpstreamUnavailable,
			Err:       fmt.Errorf("completion call failed: %w", err),
		}
	}

	if len(resp.Choices) == 0 {
		return RawCompletion{
			Succeeded: false,
			ErrorKind: FailureUpstreamUnavailable,
			Err:       errors.New("no choices in completion response"),
		}
	}

	return RawCompletion{
		Text:      resp.Choices[0].Message.Content,
		Succeeded: true,
	}
}
