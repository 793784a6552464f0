package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ledgerwell/praxis/internal/accounts/domain"
	auditdomain "github.com/ledgerwell/praxis/internal/audit/domain"
	obsmetrics "github.com/ledgerwell/praxis/internal/observability/metrics"
)

func (s *Service) Lock(ctx context.Context, id string) (domain.DocumentView, error) {
	doc, err := s.transition(ctx, id, "accounts_document.locked", func(doc *domain.AccountsDocument) error {
		if doc.Status != domain.StatusReady {
			return domain.ErrNotReady
		}
		if !doc.Outputs.Complete() {
			return domain.ErrOutputsMissing
		}
		doc.Status = domain.StatusLocked
		return nil
	})
	if err != nil {
		return domain.DocumentView{}, err
	}
	return view(doc), nil
}

func (s *Service) Unlock(ctx context.Context, id string) (domain.DocumentView, error) {
	doc, err := s.transition(ctx, id, "accounts_document.unlocked", func(doc *domain.AccountsDocument) error {
		if doc.Status != domain.StatusLocked {
			return domain.ErrNotLocked
		}
		doc.Status = domain.StatusReady
		return nil
	})
	if err != nil {
		return domain.DocumentView{}, err
	}
	return view(doc), nil
}

// transition applies one explicit status change under a row lock. The
// mutation runs against the locked row and decides the target status;
// everything else here is shared plumbing.
func (s *Service) transition(ctx context.Context, id, action string, mutate func(*domain.AccountsDocument) error) (*domain.AccountsDocument, error) {
	docID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var (
		updated    *domain.AccountsDocument
		fromStatus domain.DocumentStatus
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.repo.FindByIDForUpdate(ctx, tx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}

		fromStatus = doc.Status
		if err := mutate(doc); err != nil {
			return err
		}
		doc.LastEditedBy = actorFrom(ctx)
		doc.UpdatedAt = s.clock.Now()
		updated = doc

		return s.repo.Update(ctx, tx, doc)
	})
	if err != nil {
		return nil, err
	}

	obsmetrics.Engine().IncStatusTransition(string(fromStatus), string(updated.Status))
	_ = s.audit.LogEvent(ctx, auditdomain.Event{
		Action:     action,
		EntityType: "accounts_document",
		EntityID:   updated.ID.String(),
		Metadata: map[string]any{
			"from_status": string(fromStatus),
			"to_status":   string(updated.Status),
		},
	})

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	docID, err := parseID(id)
	if err != nil {
		return err
	}

	var (
		outputs   *domain.OutputSet
		framework domain.Framework
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

		outputs = doc.Outputs
		framework = doc.Framework

		if err := s.snapshots.DeleteByDocument(ctx, tx, docID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, docID)
	})
	if err != nil {
		return err
	}

	if outputs != nil {
		if err := s.generator.Cleanup(ctx, outputs); err != nil {
			s.log.Warn("failed to clean up outputs for deleted document",
				zap.String("document_id", docID.String()),
				zap.Error(err),
			)
		}
	}

	_ = s.audit.LogEvent(ctx, auditdomain.Event{
		Action:     "accounts_document.deleted",
		EntityType: "accounts_document",
		EntityID:   docID.String(),
		Severity:   auditdomain.SeverityWarning,
		Metadata: map[string]any{
			"framework": string(framework),
		},
	})

	return nil
}

func (s *Service) GenerateOutputs(ctx context.Context, id string) (domain.DocumentView, error) {
	docID, err := parseID(id)
	if err != nil {
		return domain.DocumentView{}, err
	}

	doc, err := s.repo.FindByID(ctx, s.db, docID)
	if err != nil {
		return domain.DocumentView{}, err
	}
	if doc == nil {
		return domain.DocumentView{}, domain.ErrNotFound
	}
	if doc.Status != domain.StatusReady {
		return domain.DocumentView{}, domain.ErrNotReady
	}

	// Rendering happens outside the transaction; holding a row lock
	// through a PDF render would serialize every writer behind it.
	outputs, err := s.generator.Generate(ctx, doc)
	if err != nil {
		s.log.Error("output generation failed",
			zap.String("document_id", docID.String()),
			zap.Error(err),
		)
		return domain.DocumentView{}, err
	}

	var previous *domain.OutputSet
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, docID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if current.Status != domain.StatusReady {
			return domain.ErrNotReady
		}

		previous = current.Outputs
		current.Outputs = outputs
		current.LastEditedBy = actorFrom(ctx)
		current.UpdatedAt = s.clock.Now()
		doc = current

		return s.repo.Update(ctx, tx, current)
	})
	if err != nil {
		// The freshly rendered files are orphans once the document
		// refuses them.
		if cleanupErr := s.generator.Cleanup(ctx, outputs); cleanupErr != nil {
			s.log.Warn("failed to clean up orphaned outputs",
				zap.String("document_id", docID.String()),
				zap.Error(cleanupErr),
			)
		}
		return domain.DocumentView{}, err
	}

	if previous != nil && (previous.HTMLURL != outputs.HTMLURL || previous.PDFURL != outputs.PDFURL) {
		if err := s.generator.Cleanup(ctx, previous); err != nil {
			s.log.Warn("failed to clean up superseded outputs",
				zap.String("document_id", docID.String()),
				zap.Error(err),
			)
		}
	}

	_ = s.audit.LogEvent(ctx, auditdomain.Event{
		Action:     "accounts_document.outputs_generated",
		EntityType: "accounts_document",
		EntityID:   docID.String(),
		Metadata: map[string]any{
			"html_url": outputs.HTMLURL,
			"pdf_url":  outputs.PDFURL,
		},
	})

	return view(doc), nil
}
