// Package genai is the client boundary to the external text-generation
// service that performs the actual triage judgment.
package genai

import (
	"context"
	"errors"
	"time"
)

// ChatMessage is one turn of the buffered conversation handed to the model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompleteRequest carries the instruction contract and the message buffer.
type CompleteRequest struct {
	System    string        `json:"system"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// Completion is the model output plus the accounting the spend ledger needs.
type Completion struct {
	Text             string
	Model            string
	InputTokens      int
	OutputTokens     int
	CacheWriteTokens int
	CacheReadTokens  int
	Cost             float64
	Duration         time.Duration
}

// Client performs one completion call. Implementations handle their own
// transport-level retry policy; callers treat any returned error as the
// call having failed for this attempt.
type Client interface {
	Complete(ctx context.Context, req CompleteRequest) (*Completion, error)
}

var ErrNotConfigured = errors.New("genai: endpoint not configured")
