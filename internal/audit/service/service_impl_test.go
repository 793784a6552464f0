package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/ledgerwell/praxis/internal/audit/domain"
	"github.com/ledgerwell/praxis/internal/audit/repository"
	"github.com/ledgerwell/praxis/internal/audit/service"
	"github.com/ledgerwell/praxis/internal/staffcontext"
	"github.com/ledgerwell/praxis/pkg/db/pagination"
)

func paginationOf(size int, token string) pagination.Pagination {
	return pagination.Pagination{PageSize: size, PageToken: token}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:audit_svc_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))
	return db
}

func newTestService(t *testing.T) (auditdomain.Service, *gorm.DB) {
	t.Helper()

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	db := setupTestDB(t)
	svc := service.NewService(service.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, db
}

func TestLogEventWritesEntry(t *testing.T) {
	svc, db := newTestService(t)
	ctx := staffcontext.WithStaff(context.Background(), "staff-42")

	err := svc.LogEvent(ctx, auditdomain.Event{
		Action:     "accounts_document.created",
		EntityType: "accounts_document",
		EntityID:   "123",
		Metadata: map[string]any{
			"framework": "MICRO_FRS105",
			"api_key":   "chk_live_abcdef9876",
		},
	})
	require.NoError(t, err)

	var entry auditdomain.AuditLog
	require.NoError(t, db.First(&entry).Error)

	assert.Equal(t, "accounts_document.created", entry.Action)
	assert.Equal(t, "staff-42", entry.Actor)
	assert.Equal(t, auditdomain.ActorTypeStaff, entry.ActorType)
	assert.Equal(t, auditdomain.SeverityInfo, entry.Severity)
	assert.Equal(t, "accounts_document", entry.EntityType)
	assert.Equal(t, "123", entry.EntityID)
	assert.Equal(t, "MICRO_FRS105", entry.Metadata["framework"])
	assert.Equal(t, "****9876", entry.Metadata["api_key"])
}

func TestLogEventDefaultsToSystemActor(t *testing.T) {
	svc, db := newTestService(t)

	err := svc.LogEvent(context.Background(), auditdomain.Event{
		Action: "outputs.cleanup",
	})
	require.NoError(t, err)

	var entry auditdomain.AuditLog
	require.NoError(t, db.First(&entry).Error)
	assert.Empty(t, entry.Actor)
	assert.Equal(t, auditdomain.ActorTypeSystem, entry.ActorType)
	assert.Equal(t, "unknown", entry.EntityType)
}

func TestLogEventValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.LogEvent(ctx, auditdomain.Event{Action: "   "})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)

	err = svc.LogEvent(ctx, auditdomain.Event{Action: "x", Severity: "LOUD"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidSeverity)
}

func TestLogDataChangeStoresImages(t *testing.T) {
	svc, db := newTestService(t)

	before := map[string]any{"status": "DRAFT"}
	after := map[string]any{"status": "IN_REVIEW"}
	err := svc.LogDataChange(context.Background(), auditdomain.Change{
		Actor:      "staff-7",
		Action:     "accounts_document.section_updated",
		EntityType: "accounts_document",
		EntityID:   "456",
		Ref:        "profitAndLoss",
		Before:     before,
		After:      after,
	})
	require.NoError(t, err)

	var entry auditdomain.AuditLog
	require.NoError(t, db.First(&entry).Error)

	assert.Equal(t, "profitAndLoss", entry.Ref)

	var storedBefore map[string]any
	require.NoError(t, json.Unmarshal(entry.Before, &storedBefore))
	assert.Equal(t, "DRAFT", storedBefore["status"])

	var storedAfter map[string]any
	require.NoError(t, json.Unmarshal(entry.After, &storedAfter))
	assert.Equal(t, "IN_REVIEW", storedAfter["status"])
}

func TestListAuditLogs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.LogEvent(ctx, auditdomain.Event{
			Actor:      "staff-1",
			Action:     "accounts_document.section_updated",
			EntityType: "accounts_document",
			EntityID:   fmt.Sprintf("%d", i),
		}))
		time.Sleep(2 * time.Millisecond)
	}
	require.NoError(t, svc.LogEvent(ctx, auditdomain.Event{
		Actor:      "staff-1",
		Action:     "accounts_document.deleted",
		EntityType: "accounts_document",
		EntityID:   "0",
		Severity:   auditdomain.SeverityWarning,
	}))

	byAction, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Action: "accounts_document.deleted",
	})
	require.NoError(t, err)
	require.Len(t, byAction.AuditLogs, 1)
	assert.Equal(t, auditdomain.SeverityWarning, byAction.AuditLogs[0].Severity)

	bySeverity, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Severity: "warning"})
	require.NoError(t, err)
	assert.Len(t, bySeverity.AuditLogs, 1)

	byEntity, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		EntityType: "accounts_document",
		EntityID:   "0",
	})
	require.NoError(t, err)
	assert.Len(t, byEntity.AuditLogs, 2)
}

func TestListAuditLogsPagination(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.LogEvent(ctx, auditdomain.Event{
			Action:   "accounts_document.created",
			EntityID: fmt.Sprintf("%d", i),
		}))
		time.Sleep(2 * time.Millisecond)
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: paginationOf(2, ""),
	})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: paginationOf(2, first.NextPageToken),
	})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)

	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: paginationOf(2, "not-base64!"),
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}

func TestListAuditLogsRejectsInvertedRange(t *testing.T) {
	svc, _ := newTestService(t)

	start := time.Now()
	end := start.Add(-time.Hour)
	_, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{
		StartAt: &start,
		EndAt:   &end,
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}
