package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

type Mode string

const (
	ModeDirect   Mode = "direct"
	ModeGrounded Mode = "grounded"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDirect:
		return ModeDirect, nil
	case ModeGrounded:
		return ModeGrounded, nil
	default:
		return "", fmt.Errorf("invalid chat mode '%s', expected 'direct' or 'grounded'", s)
	}
}

const (
	EmptyInputMessage = "Please enter a message."
	FailurePrefix     = "Sorry, I couldn't process your request: "
)

type ChatMessage struct {
	Text string
	Mode Mode
}

type ChatResponse struct {
	OriginalMessage string
	AnswerText      string
	Succeeded       bool
	Kind            Kind
	Retryable       bool
}

type CompletionBackend interface {
	Complete(ctx context.Context, text string) (string, error)
}

type GroundedQueryBackend interface {
	Answer(ctx context.Context, text string) (string, error)
}

type Gateway struct {
	completion  CompletionBackend
	grounded    GroundedQueryBackend
	defaultMode Mode
	timeout     time.Duration
}

type GatewayOptions struct {
	DefaultMode Mode
	Timeout     time.Duration
}

const DefaultTimeout = 60 * time.Second

// NewGateway routes messages to the given backends. Either backend may be nil,
// in which case messages for that mode fail with an UpstreamError.
func NewGateway(completion CompletionBackend, grounded GroundedQueryBackend, opts GatewayOptions) *Gateway {
	if opts.DefaultMode == "" {
		opts.DefaultMode = ModeGrounded
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Gateway{
		completion:  completion,
		grounded:    grounded,
		defaultMode: opts.DefaultMode,
		timeout:     opts.Timeout,
	}
}

// Handle never returns an error: every failure is reported through the
// response's Succeeded and Kind fields.
func (g *Gateway) Handle(ctx context.Context, msg ChatMessage) ChatResponse {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return ChatResponse{
			OriginalMessage: msg.Text,
			AnswerText:      EmptyInputMessage,
			Succeeded:       false,
			Kind:            KindEmptyInput,
		}
	}

	mode := msg.Mode
	if mode != ModeDirect && mode != ModeGrounded {
		mode = g.defaultMode
	}

	start := time.Now()
	answer, err := g.call(ctx, mode, text)
	if err != nil {
		slog.Error("chat request failed", "mode", mode, "kind", kindOf(err), "duration", time.Since(start), "error", sanitize(err.Error()))
		return ChatResponse{
			OriginalMessage: msg.Text,
			AnswerText:      FailurePrefix + sanitize(publicReason(err)),
			Succeeded:       false,
			Kind:            kindOf(err),
			Retryable:       isRetryable(err),
		}
	}

	slog.Info("chat request completed", "mode", mode, "duration", time.Since(start))

	return ChatResponse{
		OriginalMessage: msg.Text,
		AnswerText:      answer,
		Succeeded:       true,
	}
}

type callResult struct {
	answer string
	err    error
}

// call runs the backend in its own goroutine so that a backend which ignores
// its context still cannot hold the request past the timeout.
func (g *Gateway) call(ctx context.Context, mode Mode, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: &UpstreamError{Reason: "internal error", Err: fmt.Errorf("backend panic: %v", r)}}
			}
		}()
		answer, err := g.dispatch(ctx, mode, text)
		done <- callResult{answer: answer, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) {
			return "", timeoutError(res.err)
		}
		return res.answer, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", timeoutError(ctx.Err())
		}
		return "", &UpstreamError{Reason: "request was cancelled", Err: ctx.Err()}
	}
}

func timeoutError(err error) error {
	var dataErr *DataLoadError
	if errors.As(err, &dataErr) {
		return err
	}
	return &UpstreamError{Reason: "the model did not respond in time", Retryable: true, Err: err}
}

func (g *Gateway) dispatch(ctx context.Context, mode Mode, text string) (string, error) {
	switch mode {
	case ModeDirect:
		if g.completion == nil {
			return "", &UpstreamError{Reason: "direct mode is not configured"}
		}
		return g.completion.Complete(ctx, text)
	default:
		if g.grounded == nil {
			return "", &UpstreamError{Reason: "grounded mode is not configured"}
		}
		return g.grounded.Answer(ctx, text)
	}
}

var (
	apiKeyPattern      = regexp.MustCompile(`sk-[A-Za-z0-9_\-]{4,}`)
	bearerTokenPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=\-]+`)
)

func sanitize(s string) string {
	s = apiKeyPattern.ReplaceAllString(s, "sk-***")
	return bearerTokenPattern.ReplaceAllString(s, "Bearer ***")
}
