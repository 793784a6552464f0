package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/ledgerwell/praxis/internal/accounts/domain"
	"gorm.io/gorm"
)

type snapshotRepo struct{}

func ProvideSnapshots() domain.SnapshotRepository {
	return &snapshotRepo{}
}

func (r *snapshotRepo) Append(ctx context.Context, db *gorm.DB, snap *domain.Snapshot) error {
	return db.WithContext(ctx).Create(snap).Error
}

// ListByDocument returns snapshots newest first. ULID primary keys sort
// lexicographically in creation order, so id is the time axis.
func (r *snapshotRepo) ListByDocument(ctx context.Context, db *gorm.DB, docID snowflake.ID, limit int) ([]domain.Snapshot, error) {
	var snaps []domain.Snapshot
	stmt := db.WithContext(ctx).
		Where("document_id = ?", docID).
		Order("id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	err := stmt.Find(&snaps).Error
	if err != nil {
		return nil, err
	}
	return snaps, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, db *gorm.DB, docID snowflake.ID, keep int) (int64, error) {
	// The extra SELECT wrapper is for mysql, which rejects LIMIT inside
	// a NOT IN subquery.
	res := db.WithContext(ctx).Exec(
		`DELETE FROM accounts_document_snapshots
		 WHERE document_id = ?
		   AND id NOT IN (
			SELECT id FROM (
				SELECT id FROM accounts_document_snapshots
				WHERE document_id = ?
				ORDER BY id DESC
				LIMIT ?
			) keepers
		 )`,
		docID,
		docID,
		keep,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *snapshotRepo) DeleteByDocument(ctx context.Context, db *gorm.DB, docID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM accounts_document_snapshots WHERE document_id = ?`,
		docID,
	).Error
}
