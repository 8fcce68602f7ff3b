// Package llm provides the chat-completion capability consumed by the
// session manager, with Azure OpenAI and Gemini backends.
package llm

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrNoChoices      = errors.New("completion returned no choices")
	ErrNotConfigured  = errors.New("completion backend not configured")
	ErrUnknownBackend = errors.New("unknown completion backend")
)

// FinishReason tags why the model stopped generating.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishContentFilter FinishReason = "content_filter"
	FinishOther         FinishReason = "other"
)

// Message is a single chat message in conversation order.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Request carries the ordered message sequence and generation parameters.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// Result is a successful completion. Content may be empty even on success,
// e.g. when a content-safety filter suppressed the reply; the finish reason
// distinguishes that from a plain empty answer.
type Result struct {
	Content      string
	FinishReason FinishReason
}

// Client is the completion capability. Transport and vendor failures are
// returned as errors; a filtered or empty reply is a non-error Result.
type Client interface {
	// Name returns the backend identifier (e.g. "azure", "gemini").
	Name() string

	// Complete runs one chat completion over the full message sequence.
	Complete(ctx context.Context, req *Request) (*Result, error)
}
