package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/ledgerwell/praxis/internal/audit/domain"
	"github.com/ledgerwell/praxis/internal/audit/masking"
	"github.com/ledgerwell/praxis/internal/auditcontext"
	"github.com/ledgerwell/praxis/internal/staffcontext"
	"github.com/ledgerwell/praxis/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) LogEvent(ctx context.Context, event auditdomain.Event) error {
	entry, err := s.buildEntry(ctx, event.Actor, event.ActorType, event.Action,
		event.EntityType, event.EntityID, event.Severity, event.Metadata)
	if err != nil {
		return err
	}
	return s.insert(ctx, entry)
}

func (s *Service) LogDataChange(ctx context.Context, change auditdomain.Change) error {
	entry, err := s.buildEntry(ctx, change.Actor, change.ActorType, change.Action,
		change.EntityType, change.EntityID, change.Severity, change.Metadata)
	if err != nil {
		return err
	}
	entry.Ref = strings.TrimSpace(change.Ref)

	if entry.Before, err = marshalImage(change.Before); err != nil {
		s.log.Warn("failed to encode audit before image", zap.String("action", entry.Action), zap.Error(err))
		return err
	}
	if entry.After, err = marshalImage(change.After); err != nil {
		s.log.Warn("failed to encode audit after image", zap.String("action", entry.Action), zap.Error(err))
		return err
	}

	return s.insert(ctx, entry)
}

func (s *Service) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidTimeRange
	}

	severity := auditdomain.Severity(strings.ToUpper(strings.TrimSpace(req.Severity)))
	if severity != "" && !severity.Valid() {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidSeverity
	}

	var cursor *auditdomain.AuditCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.AuditCursor{
			ID:        id,
			CreatedAt: createdAt,
		}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		Action:     req.Action,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		ActorType:  req.ActorType,
		Severity:   severity,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *auditdomain.AuditLog) string {
		return pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
	})

	logs := make([]auditdomain.AuditLog, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		logs = append(logs, *item)
	}

	return auditdomain.ListAuditLogResponse{
		PageInfo:  pageInfo,
		AuditLogs: logs,
	}, nil
}

func (s *Service) buildEntry(ctx context.Context, actor, actorType, action, entityType, entityID string, severity auditdomain.Severity, metadata map[string]any) (*auditdomain.AuditLog, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, auditdomain.ErrInvalidAction
	}

	if severity == "" {
		severity = auditdomain.SeverityInfo
	}
	if !severity.Valid() {
		return nil, auditdomain.ErrInvalidSeverity
	}

	entityType = strings.TrimSpace(entityType)
	if entityType == "" {
		entityType = "unknown"
	}

	actor, actorType = s.resolveActor(ctx, actor, actorType)

	payload := map[string]any{}
	for key, value := range masking.RedactMetadata(metadata) {
		payload[key] = value
	}
	if requestID := auditcontext.RequestIDFromContext(ctx); requestID != "" {
		payload["request_id"] = requestID
	}

	entry := &auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		Actor:      actor,
		ActorType:  actorType,
		Action:     action,
		EntityType: entityType,
		EntityID:   strings.TrimSpace(entityID),
		Severity:   severity,
		Metadata:   datatypes.JSONMap(payload),
		CreatedAt:  time.Now().UTC(),
	}
	if ip := auditcontext.IPAddressFromContext(ctx); ip != "" {
		entry.IPAddress = &ip
	}
	if ua := auditcontext.UserAgentFromContext(ctx); ua != "" {
		entry.UserAgent = &ua
	}
	return entry, nil
}

func (s *Service) insert(ctx context.Context, entry *auditdomain.AuditLog) error {
	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", entry.Action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) resolveActor(ctx context.Context, actor, actorType string) (string, string) {
	actor = strings.TrimSpace(actor)
	actorType = strings.TrimSpace(actorType)

	if actor == "" {
		if staffID, ok := staffcontext.StaffFromContext(ctx); ok {
			actor = staffID
			if actorType == "" {
				actorType = auditdomain.ActorTypeStaff
			}
		}
	}
	if actorType == "" {
		if actor != "" && actor != auditdomain.ActorTypeSystem {
			actorType = auditdomain.ActorTypeStaff
		} else {
			actorType = auditdomain.ActorTypeSystem
		}
	}
	return actor, actorType
}

func marshalImage(value any) (datatypes.JSON, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
