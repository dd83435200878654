package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type OpenAICompletionConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// OpenAICompletion sends each message to the chat completions endpoint as a
// single user turn with no history.
type OpenAICompletion struct {
	client openai.Client
	model  string
}

var _ CompletionBackend = (*OpenAICompletion)(nil)

func NewOpenAICompletion(cfg OpenAICompletionConfig) *OpenAICompletion {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAICompletion{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (o *OpenAICompletion) Complete(ctx context.Context, text string) (string, error) {
	res, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(text),
		},
		Model: o.model,
	})
	if err != nil {
		return "", upstreamFromOpenAI(err)
	}

	if len(res.Choices) == 0 {
		return "", &UpstreamError{Reason: "the model returned no choices"}
	}

	content := res.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &UpstreamError{Reason: "the model returned an empty answer"}
	}

	return content, nil
}

func upstreamFromOpenAI(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		retryable := apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
		return &UpstreamError{
			Reason:    fmt.Sprintf("the model service returned status %d", apiErr.StatusCode),
			Retryable: retryable,
			Err:       err,
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &UpstreamError{Reason: "the model did not respond in time", Retryable: true, Err: err}
	}

	if errors.Is(err, context.Canceled) {
		return &UpstreamError{Reason: "request was cancelled", Err: err}
	}

	return &UpstreamError{Reason: "could not reach the model service", Retryable: true, Err: err}
}
