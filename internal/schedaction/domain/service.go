package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ScheduleRequest describes one action to defer.
type ScheduleRequest struct {
	CommunityID string        `json:"community_id"`
	TargetID    string        `json:"target_id"`
	Action      string        `json:"action"`
	CaseID      *snowflake.ID `json:"case_id"`
	ExecuteAt   time.Time     `json:"execute_at"`
}

type Service interface {
	Schedule(ctx context.Context, req ScheduleRequest) (*ScheduledAction, error)

	// Due returns pending actions whose ExecuteAt is at or before now,
	// oldest first.
	Due(ctx context.Context, now time.Time, limit int) ([]*ScheduledAction, error)

	// MarkExecuted flips the action's executed flag. Calling it on an
	// already-executed action is a no-op.
	MarkExecuted(ctx context.Context, id snowflake.ID) error
}

var (
	ErrInvalidCommunity = errors.New("invalid_community")
	ErrInvalidTarget    = errors.New("invalid_target")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrActionNotFound   = errors.New("scheduled_action_not_found")
)
