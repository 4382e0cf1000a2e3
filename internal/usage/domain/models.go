// Package domain contains persistence models for the classification spend ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Call types recorded against the ledger.
const (
	CallTypeTriage  = "triage"
	CallTypeRespond = "respond"
)

// UsageRecord stores the token and cost accounting of one external
// text-generation call. Rows are append-only; nothing in this service
// mutates or deletes them.
type UsageRecord struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	CommunityID      string       `gorm:"type:text;not null;index:idx_usage_community_recorded"`
	ChannelID        string       `gorm:"type:text"`
	CallType         string       `gorm:"type:text;not null"`
	Model            string       `gorm:"type:text"`
	InputTokens      int          `gorm:"not null;default:0"`
	OutputTokens     int          `gorm:"not null;default:0"`
	CacheWriteTokens int          `gorm:"not null;default:0"`
	CacheReadTokens  int          `gorm:"not null;default:0"`
	Cost             float64      `gorm:"not null;default:0"`
	DurationMS       int64        `gorm:"not null;default:0"`
	ActorID          *string      `gorm:"type:text"`
	SearchCount      int          `gorm:"not null;default:0"`
	IdempotencyKey   *string      `gorm:"type:text;uniqueIndex"`
	Metadata         datatypes.JSONMap
	RecordedAt       time.Time `gorm:"not null;index:idx_usage_community_recorded"`
	CreatedAt        time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }
