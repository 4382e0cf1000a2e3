package domain

import (
	"context"
	"errors"
	"time"
)

// DefaultSpendWindow is the rolling window used when callers pass zero.
const DefaultSpendWindow = 24 * time.Hour

// RecordRequest describes one external call to account for.
type RecordRequest struct {
	CommunityID      string         `json:"community_id"`
	ChannelID        string         `json:"channel_id"`
	CallType         string         `json:"call_type"`
	Model            string         `json:"model"`
	InputTokens      int            `json:"input_tokens"`
	OutputTokens     int            `json:"output_tokens"`
	CacheWriteTokens int            `json:"cache_write_tokens"`
	CacheReadTokens  int            `json:"cache_read_tokens"`
	Cost             float64        `json:"cost"`
	DurationMS       int64          `json:"duration_ms"`
	ActorID          *string        `json:"actor_id"`
	SearchCount      int            `json:"search_count"`
	IdempotencyKey   *string        `json:"idempotency_key"`
	Metadata         map[string]any `json:"metadata"`
	RecordedAt       time.Time      `json:"recorded_at"`
}

// Service is the spend ledger: append usage rows and read rolling spend.
type Service interface {
	Record(ctx context.Context, req RecordRequest) (*UsageRecord, error)

	// SpendSince sums Cost over records newer than now-window. It never
	// fails: an empty community id, a storage error, or no matching rows
	// all yield 0 so that callers are not blocked by ledger availability.
	SpendSince(ctx context.Context, communityID string, window time.Duration) float64
}

var (
	ErrInvalidCommunity = errors.New("invalid_community")
	ErrInvalidCallType  = errors.New("invalid_call_type")
	ErrInvalidCost      = errors.New("invalid_cost")
)
