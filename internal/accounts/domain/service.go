package domain

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/ledgerwell/praxis/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateDocumentRequest struct {
	ClientID    string    `json:"client_id"`
	Framework   Framework `json:"framework,omitempty"`
	PeriodStart *Date     `json:"period_start,omitempty"`
	PeriodEnd   *Date     `json:"period_end,omitempty"`
	IsFirstYear *bool     `json:"is_first_year,omitempty"`
}

type UpdateSectionRequest struct {
	ID   string
	Key  SectionKey
	Data json.RawMessage
}

type ListDocumentsRequest struct {
	PageToken string
	PageSize  int32
	ClientID  string
	Status    DocumentStatus
	Framework Framework
}

type ListDocumentsFilter struct {
	ClientID  snowflake.ID
	Status    DocumentStatus
	Framework Framework
}

type ListDocumentsResponse struct {
	pagination.PageInfo
	Documents []DocumentView `json:"documents"`
}

type Service interface {
	Create(ctx context.Context, req CreateDocumentRequest) (DocumentView, error)
	Get(ctx context.Context, id string) (DocumentView, error)
	List(ctx context.Context, req ListDocumentsRequest) (ListDocumentsResponse, error)
	ListByClient(ctx context.Context, clientID string) ([]DocumentView, error)
	UpdateSection(ctx context.Context, req UpdateSectionRequest) (DocumentView, error)
	Lock(ctx context.Context, id string) (DocumentView, error)
	Unlock(ctx context.Context, id string) (DocumentView, error)
	Delete(ctx context.Context, id string) error
	GenerateOutputs(ctx context.Context, id string) (DocumentView, error)
	History(ctx context.Context, id string) ([]Snapshot, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, doc *AccountsDocument) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*AccountsDocument, error)
	// FindByIDForUpdate locks the row for the remainder of the enclosing
	// transaction. Mutations re-read through this before deciding.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*AccountsDocument, error)
	List(ctx context.Context, db *gorm.DB, filter ListDocumentsFilter, page pagination.Pagination) ([]*AccountsDocument, error)
	CountByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (int64, error)
	LatestByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) (*AccountsDocument, error)
	Update(ctx context.Context, db *gorm.DB, doc *AccountsDocument) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}

type SnapshotRepository interface {
	Append(ctx context.Context, db *gorm.DB, snap *Snapshot) error
	ListByDocument(ctx context.Context, db *gorm.DB, docID snowflake.ID, limit int) ([]Snapshot, error)
	// Prune deletes all but the keep most recent snapshots for docID and
	// reports how many rows it removed.
	Prune(ctx context.Context, db *gorm.DB, docID snowflake.ID, keep int) (int64, error)
	DeleteByDocument(ctx context.Context, db *gorm.DB, docID snowflake.ID) error
}
