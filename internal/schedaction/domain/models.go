// Package domain contains persistence models for deferred moderation actions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	casesdomain "github.com/wardenhq/warden/internal/cases/domain"
)

// Actions the executor knows how to carry out.
const (
	ActionUnmute = "unmute"
	ActionUnban  = "unban"
)

// ScheduledAction is one deferred enforcement step. Executed flips from
// false to true exactly once and never reverts; rows are kept after
// execution as an audit trail. The case link is cleared, not cascaded,
// when the referenced case row is deleted.
type ScheduledAction struct {
	ID          snowflake.ID                `gorm:"primaryKey"`
	CommunityID string                      `gorm:"type:text;not null"`
	TargetID    string                      `gorm:"type:text;not null"`
	Action      string                      `gorm:"type:text;not null"`
	CaseID      *snowflake.ID               `gorm:"index"`
	Case        *casesdomain.ModerationCase `gorm:"foreignKey:CaseID;references:ID;constraint:OnDelete:SET NULL"`
	ExecuteAt   time.Time                   `gorm:"not null;index:idx_schedaction_due,priority:2"`
	Executed    bool                        `gorm:"not null;default:false;index:idx_schedaction_due,priority:1"`
	ExecutedAt  *time.Time
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (ScheduledAction) TableName() string { return "scheduled_actions" }
