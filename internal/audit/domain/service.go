package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ledgerwell/praxis/pkg/db/pagination"
)

// Event is a plain occurrence worth keeping on the trail.
type Event struct {
	Actor      string
	ActorType  string
	Action     string
	EntityType string
	EntityID   string
	Severity   Severity
	Metadata   map[string]any
}

// Change is a mutation of a stored entity, recorded with its full before
// and after images.
type Change struct {
	Actor      string
	ActorType  string
	Action     string
	EntityType string
	EntityID   string
	Ref        string
	Before     any
	After      any
	Severity   Severity
	Metadata   map[string]any
}

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	EntityType string
	EntityID   string
	ActorType  string
	Severity   string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

// Service writes and reads the audit trail. Writers treat it as
// fire-and-forget: a failed write is logged and must never abort the
// operation being audited.
type Service interface {
	LogEvent(ctx context.Context, event Event) error
	LogDataChange(ctx context.Context, change Change) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}

var (
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidSeverity  = errors.New("invalid_severity")
)
