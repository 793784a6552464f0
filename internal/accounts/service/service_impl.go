package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ledgerwell/praxis/internal/accounts/calc"
	"github.com/ledgerwell/praxis/internal/accounts/domain"
	"github.com/ledgerwell/praxis/internal/accounts/output"
	"github.com/ledgerwell/praxis/internal/accounts/validate"
	auditdomain "github.com/ledgerwell/praxis/internal/audit/domain"
	clientdomain "github.com/ledgerwell/praxis/internal/client/domain"
	"github.com/ledgerwell/praxis/internal/clock"
	obsmetrics "github.com/ledgerwell/praxis/internal/observability/metrics"
	"github.com/ledgerwell/praxis/internal/providers/companieshouse"
	"github.com/ledgerwell/praxis/internal/staffcontext"
	"github.com/ledgerwell/praxis/pkg/db/pagination"
)

// Documents a client can realistically accumulate; one per financial
// year plus the odd abandoned draft.
const maxClientDocuments = 250

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Snapshots domain.SnapshotRepository
	Clients   clientdomain.Service
	Registry  companieshouse.Registry
	AuditSvc  auditdomain.Service
	Generator output.Generator
	Metrics   *obsmetrics.Metrics
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	snapshots domain.SnapshotRepository
	clients   clientdomain.Service
	registry  companieshouse.Registry
	audit     auditdomain.Service
	generator output.Generator
	metrics   *obsmetrics.Metrics
	validator *validate.Validator
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("accounts.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		snapshots: p.Snapshots,
		clients:   p.Clients,
		registry:  p.Registry,
		audit:     p.AuditSvc,
		generator: p.Generator,
		metrics:   p.Metrics,
		validator: validate.New(),
	}
}

func (s *Service) Get(ctx context.Context, id string) (domain.DocumentView, error) {
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

	return view(doc), nil
}

func (s *Service) List(ctx context.Context, req domain.ListDocumentsRequest) (domain.ListDocumentsResponse, error) {
	filter := domain.ListDocumentsFilter{
		Status:    req.Status,
		Framework: req.Framework,
	}
	if strings.TrimSpace(req.ClientID) != "" {
		clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
		if err != nil || clientID == 0 {
			return domain.ListDocumentsResponse{}, domain.ErrInvalidClientID
		}
		filter.ClientID = clientID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListDocumentsResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, int(pageSize), func(doc *domain.AccountsDocument) string {
		return pagination.EncodeCursor(pagination.Cursor{
			ID:        doc.ID.String(),
			CreatedAt: doc.CreatedAt.Format(time.RFC3339Nano),
		})
	})

	views := make([]domain.DocumentView, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		views = append(views, view(item))
	}

	return domain.ListDocumentsResponse{
		PageInfo:  pageInfo,
		Documents: views,
	}, nil
}

func (s *Service) ListByClient(ctx context.Context, clientID string) ([]domain.DocumentView, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(clientID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidClientID
	}

	items, err := s.repo.List(ctx, s.db, domain.ListDocumentsFilter{ClientID: id}, pagination.Pagination{
		PageSize: maxClientDocuments,
	})
	if err != nil {
		return nil, err
	}
	if len(items) > maxClientDocuments {
		items = items[:maxClientDocuments]
	}

	views := make([]domain.DocumentView, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		views = append(views, view(item))
	}
	return views, nil
}

func (s *Service) History(ctx context.Context, id string) ([]domain.Snapshot, error) {
	docID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	doc, err := s.repo.FindByID(ctx, s.db, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}

	return s.snapshots.ListByDocument(ctx, s.db, docID, domain.SnapshotRetention)
}

// view decorates a document with freshly computed figures. Decorations
// are recomputed on every read and never persisted.
func view(doc *domain.AccountsDocument) domain.DocumentView {
	return domain.DocumentView{
		AccountsDocument:  *doc,
		Calculations:      calc.Totals(&doc.Sections),
		Ratios:            calc.Ratios(&doc.Sections),
		PercentageChanges: calc.Changes(&doc.Sections),
	}
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func actorFrom(ctx context.Context) string {
	if staffID, ok := staffcontext.StaffFromContext(ctx); ok {
		return staffID
	}
	return auditdomain.ActorTypeSystem
}
