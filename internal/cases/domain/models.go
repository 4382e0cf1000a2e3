// Package domain contains persistence models for the moderation case ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Enforcement actions a case can record.
const (
	ActionWarn = "warn"
	ActionMute = "mute"
	ActionKick = "kick"
	ActionBan  = "ban"
)

// ModerationCase is one durable enforcement record. CaseNumber is unique
// per community, assigned monotonically from 1, and never reused; gaps are
// tolerated when an insert fails after allocation. Rows are immutable after
// creation except for LogMessageID, which is back-filled once the case has
// been announced.
type ModerationCase struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	CommunityID  string       `gorm:"type:text;not null;uniqueIndex:idx_case_community_number;index:idx_case_community_target"`
	CaseNumber   int64        `gorm:"not null;uniqueIndex:idx_case_community_number"`
	Action       string       `gorm:"type:text;not null"`
	TargetID     string       `gorm:"type:text;not null;index:idx_case_community_target"`
	TargetTag    string       `gorm:"type:text"`
	ModeratorID  string       `gorm:"type:text;not null"`
	ModeratorTag string       `gorm:"type:text"`
	Reason       *string      `gorm:"type:text"`
	Duration     *string      `gorm:"type:text"`
	ExpiresAt    *time.Time
	LogMessageID *string   `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (ModerationCase) TableName() string { return "moderation_cases" }
