package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ledgerwell/praxis/internal/accounts/domain"
	obsmetrics "github.com/ledgerwell/praxis/internal/observability/metrics"
	"github.com/ledgerwell/praxis/pkg/db/option"
	"github.com/ledgerwell/praxis/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, doc *domain.AccountsDocument) error {
	return db.WithContext(ctx).Create(doc).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.AccountsDocument, error) {
	return findByID(ctx, db, id, false)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.AccountsDocument, error) {
	return findByID(ctx, db, id, true)
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListDocumentsFilter, page pagination.Pagination) ([]*domain.AccountsDocument, error) {
	var docs []*domain.AccountsDocument
	stmt := db.WithContext(ctx).Model(&domain.AccountsDocument{})
	if filter.ClientID != 0 {
		stmt = stmt.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Framework != "" {
		stmt = stmt.Where("framework = ?", filter.Framework)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *repo) CountByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.AccountsDocument{}).
		Where("client_id = ?", clientID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) LatestByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (*domain.AccountsDocument, error) {
	var docs []*domain.AccountsDocument
	err := db.WithContext(ctx).
		Model(&domain.AccountsDocument{}).
		Where("client_id = ?", clientID).
		Order("period_end desc, created_at desc").
		Limit(1).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, doc *domain.AccountsDocument) error {
	return db.WithContext(ctx).Save(doc).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM accounts_documents WHERE id = ?`,
		id,
	).Error
}

func findByID(ctx context.Context, db *gorm.DB, id snowflake.ID, forUpdate bool) (*domain.AccountsDocument, error) {
	var doc domain.AccountsDocument
	query := `SELECT id, client_id, company_number, framework, period_start, period_end, is_first_year,
		status, sections, validation, outputs, created_by, last_edited_by, created_at, updated_at
	 FROM accounts_documents
	 WHERE id = ?
	 LIMIT 1`
	if forUpdate && db.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}

	var err error
	if forUpdate {
		engineMetrics := obsmetrics.Engine()
		lockStart := time.Now()
		err = db.WithContext(ctx).Raw(query, id).Scan(&doc).Error
		engineMetrics.ObserveDBLockWait(obsmetrics.LockResourceDocumentByID, time.Since(lockStart))
	} else {
		err = db.WithContext(ctx).Raw(query, id).Scan(&doc).Error
	}
	if err != nil {
		return nil, err
	}
	if doc.ID == 0 {
		return nil, nil
	}
	return &doc, nil
}
