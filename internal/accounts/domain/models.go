package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type DocumentStatus string

const (
	StatusDraft    DocumentStatus = "DRAFT"
	StatusInReview DocumentStatus = "IN_REVIEW"
	StatusReady    DocumentStatus = "READY"
	StatusLocked   DocumentStatus = "LOCKED"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusInReview, StatusReady, StatusLocked:
		return true
	}
	return false
}

type Framework string

const (
	FrameworkMicro      Framework = "MICRO_FRS105"
	FrameworkSmall      Framework = "SMALL_FRS102_1A"
	FrameworkDormant    Framework = "DORMANT"
	FrameworkSoleTrader Framework = "SOLE_TRADER"
	FrameworkIndividual Framework = "INDIVIDUAL"
)

func (f Framework) Valid() bool {
	switch f {
	case FrameworkMicro, FrameworkSmall, FrameworkDormant,
		FrameworkSoleTrader, FrameworkIndividual:
		return true
	}
	return false
}

// Corporate reports whether the framework belongs to an incorporated
// entity. Sole-trader and individual presentations carry no company
// number, directors, or share capital.
func (f Framework) Corporate() bool {
	return f != FrameworkSoleTrader && f != FrameworkIndividual
}

// Period is the financial year the document reports on. IsFirstYear
// drives comparative-figure requirements throughout validation.
type Period struct {
	StartDate   Date `gorm:"column:period_start;type:date;not null" json:"start_date"`
	EndDate     Date `gorm:"column:period_end;type:date;not null" json:"end_date"`
	IsFirstYear bool `gorm:"column:is_first_year;not null;default:false" json:"is_first_year"`
}

type OutputSet struct {
	HTMLURL     string    `json:"html_url"`
	PDFURL      string    `json:"pdf_url"`
	GeneratedAt time.Time `json:"generated_at"`
}

func (o *OutputSet) Complete() bool {
	return o != nil && o.HTMLURL != "" && o.PDFURL != ""
}

// ValidationError is a single schema or business-rule finding. Findings
// are data carried in lists, never raised as Go errors.
type ValidationError struct {
	Field   string     `json:"field"`
	Message string     `json:"message"`
	Code    string     `json:"code"`
	Section SectionKey `json:"section,omitempty"`
}

// ValidationState is the last-computed validation snapshot stored on the
// document. It is a cache recomputed on every write, never a source of
// truth.
type ValidationState struct {
	Errors     []ValidationError `json:"errors"`
	Warnings   []ValidationError `json:"warnings"`
	IsBalanced bool              `json:"is_balanced"`
}

// AccountsDocument is one statutory accounts set for one client period.
type AccountsDocument struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	ClientID      snowflake.ID    `gorm:"not null;index" json:"client_id"`
	CompanyNumber string          `json:"company_number,omitempty"`
	Framework     Framework       `gorm:"type:text;not null" json:"framework"`
	Period        Period          `gorm:"embedded" json:"period"`
	Status        DocumentStatus  `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	Sections      SectionSet      `gorm:"type:jsonb;serializer:json" json:"sections"`
	Validation    ValidationState `gorm:"type:jsonb;serializer:json" json:"validation"`
	Outputs       *OutputSet      `gorm:"type:jsonb;serializer:json" json:"outputs,omitempty"`
	CreatedBy     string          `json:"created_by"`
	LastEditedBy  string          `json:"last_edited_by"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AccountsDocument) TableName() string { return "accounts_documents" }

// Clone returns a deep copy safe to keep after the original mutates.
func (d *AccountsDocument) Clone() *AccountsDocument {
	out := *d
	out.Sections = d.Sections.Clone()
	out.Validation = ValidationState{
		Errors:     append([]ValidationError(nil), d.Validation.Errors...),
		Warnings:   append([]ValidationError(nil), d.Validation.Warnings...),
		IsBalanced: d.Validation.IsBalanced,
	}
	if d.Outputs != nil {
		o := *d.Outputs
		out.Outputs = &o
	}
	return &out
}

// Snapshot is an immutable pre-overwrite copy of a document. Snapshots
// are append-only: written before every overwrite, pruned oldest-first
// beyond the retention limit, removed otherwise only with the document.
// ULID ids keep them lexicographically time-ordered.
type Snapshot struct {
	ID         string           `gorm:"primaryKey" json:"id"`
	DocumentID snowflake.ID     `gorm:"not null;index" json:"document_id"`
	Document   AccountsDocument `gorm:"type:jsonb;serializer:json" json:"document"`
	TakenBy    string           `json:"taken_by"`
	TakenAt    time.Time        `gorm:"not null" json:"taken_at"`
}

func (Snapshot) TableName() string { return "accounts_document_snapshots" }

// SnapshotRetention is how many snapshots are kept per document.
const SnapshotRetention = 10
