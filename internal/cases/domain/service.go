package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// CreateCaseRequest describes one enforcement decision to ledger.
type CreateCaseRequest struct {
	CommunityID  string     `json:"community_id"`
	Action       string     `json:"action"`
	TargetID     string     `json:"target_id"`
	TargetTag    string     `json:"target_tag"`
	ModeratorID  string     `json:"moderator_id"`
	ModeratorTag string     `json:"moderator_tag"`
	Reason       *string    `json:"reason"`
	Duration     *string    `json:"duration"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

type Service interface {
	// CreateCase allocates the community's next case number and persists
	// the record. Allocation races are retried internally; after the retry
	// bound the call fails loudly rather than dropping the case.
	CreateCase(ctx context.Context, req CreateCaseRequest) (*ModerationCase, error)

	// AttachLogReference back-fills the announcement message reference.
	// No-op when already set to the same value, last-write-wins otherwise.
	AttachLogReference(ctx context.Context, caseID snowflake.ID, logMessageID string) error

	GetCase(ctx context.Context, communityID string, caseNumber int64) (*ModerationCase, error)

	// ListCasesForTarget returns the target's cases, newest first.
	// A positive window restricts results to cases created within it.
	ListCasesForTarget(ctx context.Context, communityID, targetID string, window time.Duration) ([]*ModerationCase, error)
}

var (
	ErrInvalidCommunity   = errors.New("invalid_community")
	ErrInvalidAction      = errors.New("invalid_action")
	ErrInvalidTarget      = errors.New("invalid_target")
	ErrInvalidModerator   = errors.New("invalid_moderator")
	ErrCaseNotFound       = errors.New("case_not_found")
	ErrAllocationConflict = errors.New("case_number_allocation_conflict")
)
