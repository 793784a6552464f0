package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

const (
	ActorTypeStaff  = "staff"
	ActorTypeSystem = "system"
)

// AuditLog is one immutable trail entry. Data-change entries carry full
// before and after images of the entity they describe; event entries
// carry metadata only.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	Actor      string            `json:"actor,omitempty"`
	ActorType  string            `gorm:"not null" json:"actor_type"`
	Action     string            `gorm:"not null;index" json:"action"`
	EntityType string            `gorm:"index" json:"entity_type"`
	EntityID   string            `gorm:"index" json:"entity_id,omitempty"`
	Ref        string            `json:"ref,omitempty"`
	Severity   Severity          `gorm:"type:text;not null;default:'INFO'" json:"severity"`
	Before     datatypes.JSON    `gorm:"type:jsonb" json:"before,omitempty"`
	After      datatypes.JSON    `gorm:"type:jsonb" json:"after,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	IPAddress  *string           `json:"ip_address,omitempty"`
	UserAgent  *string           `json:"user_agent,omitempty"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// AuditCursor is a decoded list position.
type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorType  string
	Severity   Severity
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}
