package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client is the reasoning collaborator: it takes a fully rendered system
// prompt plus an optional user message and returns the model's markdown text.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
	Model() string
}

type Config struct {
	Provider  string // "anthropic" or "openai"
	APIKey    string
	BaseURL   string // Optional: for custom endpoints
	Model     string
	MaxTokens int

	// Timeout applies to the whole completion request. Reasoning calls can
	// run for minutes, so this is configured independently of the short
	// timeouts used for storage and messaging.
	Timeout time.Duration
}

// DefaultUserMessage is sent when the caller supplies no user message of its own.
const DefaultUserMessage = "Please analyze the context provided and respond according to your instructions."

// New selects a provider implementation from the config.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "", "anthropic":
		return NewAnthropicClient(cfg)
	case "openai":
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// FailureKind classifies a completion failure for reporting.
type FailureKind string

const (
	FailureTimeout   FailureKind = "timeout"
	FailureTransport FailureKind = "transport"
	FailureService   FailureKind = "service"
)

// Error is the typed failure returned by Client implementations.
type Error struct {
	Kind     FailureKind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain.
// Unclassified errors are reported as transport failures.
func KindOf(err error) FailureKind {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	return FailureTransport
}

func classify(err error, statusCode int, hasStatus bool) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	if hasStatus && statusCode > 0 {
		return FailureService
	}
	return FailureTransport
}
