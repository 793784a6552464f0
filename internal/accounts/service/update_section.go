package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ledgerwell/praxis/internal/accounts/calc"
	"github.com/ledgerwell/praxis/internal/accounts/domain"
	auditdomain "github.com/ledgerwell/praxis/internal/audit/domain"
	obsmetrics "github.com/ledgerwell/praxis/internal/observability/metrics"
)

func (s *Service) UpdateSection(ctx context.Context, req domain.UpdateSectionRequest) (domain.DocumentView, error) {
	docID, err := parseID(req.ID)
	if err != nil {
		return domain.DocumentView{}, err
	}
	key, err := domain.ParseSectionKey(string(req.Key))
	if err != nil {
		return domain.DocumentView{}, err
	}

	var (
		before       *domain.AccountsDocument
		fromStatus   domain.DocumentStatus
		toStatus     domain.DocumentStatus
		errCount     int
		warnCount    int
		prunedTotal  int64
		storedActive domain.Section
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.repo.FindByIDForUpdate(ctx, tx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if doc.Status == domain.StatusLocked {
			return domain.ErrDocumentLocked
		}
		if field := calculatedFieldIn(key, req.Data); field != "" {
			return fmt.Errorf("%w: %s", domain.ErrCalculatedField, field)
		}

		payload, result := s.validator.Section(key, req.Data, doc)
		if !result.Valid() {
			return &domain.SectionValidationError{Findings: result.Errors}
		}

		before = doc.Clone()
		if err := doc.Sections.Set(payload); err != nil {
			return err
		}
		storedActive = payload

		if key == domain.SectionCompanyPeriod {
			if err := applyCompanyPeriod(doc); err != nil {
				return err
			}
		}

		doc.Validation = s.validator.Document(doc)
		errCount = len(doc.Validation.Errors)
		warnCount = len(doc.Validation.Warnings)

		fromStatus = doc.Status
		doc.Status = nextStatus(doc)
		toStatus = doc.Status

		doc.LastEditedBy = actorFrom(ctx)
		doc.UpdatedAt = s.clock.Now()

		prunedTotal = s.recordSnapshot(ctx, tx, before)

		return s.repo.Update(ctx, tx, doc)
	})
	if err != nil {
		return domain.DocumentView{}, err
	}

	obsmetrics.Engine().AddValidationFindings(errCount, warnCount)
	if fromStatus != toStatus {
		obsmetrics.Engine().IncStatusTransition(string(fromStatus), string(toStatus))
	}
	if prunedTotal > 0 {
		obsmetrics.Engine().AddSnapshotsPruned(prunedTotal)
	}
	s.metrics.RecordSectionUpdate(ctx, string(key))

	_ = s.audit.LogDataChange(ctx, auditdomain.Change{
		Action:     "accounts_document.section_updated",
		EntityType: "accounts_document",
		EntityID:   docID.String(),
		Ref:        string(key),
		Before:     before.Sections.Get(key),
		After:      storedActive,
		Metadata: map[string]any{
			"section": string(key),
			"status":  string(toStatus),
		},
	})

	fresh, err := s.repo.FindByID(ctx, s.db, docID)
	if err != nil {
		return domain.DocumentView{}, err
	}
	if fresh == nil {
		return domain.DocumentView{}, domain.ErrNotFound
	}
	return view(fresh), nil
}

// calculatedFieldIn reports the first derived-figure key found anywhere
// in raw, at any nesting depth. Derived totals are rejected on input no
// matter where the caller tucks them.
func calculatedFieldIn(key domain.SectionKey, raw json.RawMessage) string {
	if len(calc.CalculatedFields(key)) == 0 {
		return ""
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return ""
	}
	return findCalculatedKey(key, decoded)
}

func findCalculatedKey(key domain.SectionKey, node any) string {
	switch v := node.(type) {
	case map[string]any:
		for name, child := range v {
			if calc.IsCalculatedField(key, name) {
				return name
			}
			if hit := findCalculatedKey(key, child); hit != "" {
				return hit
			}
		}
	case []any:
		for _, child := range v {
			if hit := findCalculatedKey(key, child); hit != "" {
				return hit
			}
		}
	}
	return ""
}

// applyCompanyPeriod propagates a companyPeriod write onto the document
// root. The framework cannot change once outputs exist; switching to an
// unincorporated presentation strips the company number and directors;
// flipping isFirstYear creates or deletes the comparative blocks.
func applyCompanyPeriod(doc *domain.AccountsDocument) error {
	section := doc.Sections.CompanyPeriod
	if section == nil {
		return nil
	}

	if section.Framework != doc.Framework && doc.Outputs.Complete() {
		return domain.ErrFrameworkLocked
	}

	wasFirstYear := doc.Period.IsFirstYear
	doc.Framework = section.Framework
	doc.Period.StartDate = section.StartDate
	doc.Period.EndDate = section.EndDate
	doc.Period.IsFirstYear = section.IsFirstYear

	if !section.Framework.Corporate() {
		section.CompanyNumber = ""
		section.Directors = nil
		doc.CompanyNumber = ""
	} else {
		doc.CompanyNumber = section.CompanyNumber
	}

	if wasFirstYear == section.IsFirstYear {
		return nil
	}
	if section.IsFirstYear {
		if doc.Sections.ProfitAndLoss != nil {
			doc.Sections.ProfitAndLoss.Comparatives = nil
		}
		if doc.Sections.BalanceSheet != nil {
			doc.Sections.BalanceSheet.Comparatives = nil
		}
		return nil
	}
	if doc.Sections.ProfitAndLoss != nil && doc.Sections.ProfitAndLoss.Comparatives == nil {
		doc.Sections.ProfitAndLoss.Comparatives = &domain.ProfitAndLossLines{}
	}
	if doc.Sections.BalanceSheet != nil && doc.Sections.BalanceSheet.Comparatives == nil {
		doc.Sections.BalanceSheet.Comparatives = &domain.BalanceSheetFigures{}
	}
	return nil
}

var statusRank = map[domain.DocumentStatus]int{
	domain.StatusDraft:    0,
	domain.StatusInReview: 1,
	domain.StatusReady:    2,
	domain.StatusLocked:   3,
}

// nextStatus auto-advances a document whose sections are complete and
// error-free. The status never regresses here; only unlock moves a
// document backwards, and that is an explicit operation.
func nextStatus(doc *domain.AccountsDocument) domain.DocumentStatus {
	if len(doc.Validation.Errors) > 0 || !doc.Sections.Complete() {
		return doc.Status
	}
	target := domain.StatusInReview
	if doc.Sections.DirectorsApproval != nil && doc.Sections.DirectorsApproval.Approved {
		target = domain.StatusReady
	}
	if statusRank[target] > statusRank[doc.Status] {
		return target
	}
	return doc.Status
}

// recordSnapshot appends the pre-write document image and prunes history
// beyond the retention limit. Snapshots are best effort: the savepoint
// keeps a failed insert from poisoning the enclosing transaction, and a
// failure is logged, never returned.
func (s *Service) recordSnapshot(ctx context.Context, tx *gorm.DB, before *domain.AccountsDocument) int64 {
	now := s.clock.Now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		s.log.Warn("failed to mint snapshot id", zap.Error(err))
		return 0
	}

	var pruned int64
	err = tx.Transaction(func(inner *gorm.DB) error {
		snap := &domain.Snapshot{
			ID:         id.String(),
			DocumentID: before.ID,
			Document:   *before,
			TakenBy:    actorFrom(ctx),
			TakenAt:    now,
		}
		if err := s.snapshots.Append(ctx, inner, snap); err != nil {
			return err
		}
		n, err := s.snapshots.Prune(ctx, inner, before.ID, domain.SnapshotRetention)
		if err != nil {
			return err
		}
		pruned = n
		return nil
	})
	if err != nil {
		s.log.Warn("failed to record document snapshot",
			zap.String("document_id", before.ID.String()),
			zap.Error(err),
		)
		return 0
	}
	return pruned
}
