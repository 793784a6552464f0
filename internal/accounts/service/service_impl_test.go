package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ledgerwell/praxis/internal/accounts/domain"
	"github.com/ledgerwell/praxis/internal/accounts/repository"
	"github.com/ledgerwell/praxis/internal/accounts/service"
	auditdomain "github.com/ledgerwell/praxis/internal/audit/domain"
	clientdomain "github.com/ledgerwell/praxis/internal/client/domain"
	clientrepo "github.com/ledgerwell/praxis/internal/client/repository"
	clientservice "github.com/ledgerwell/praxis/internal/client/service"
	"github.com/ledgerwell/praxis/internal/clock"
	"github.com/ledgerwell/praxis/internal/providers/companieshouse"
)

type noopAudit struct{}

func (noopAudit) LogEvent(ctx context.Context, event auditdomain.Event) error { return nil }

func (noopAudit) LogDataChange(ctx context.Context, change auditdomain.Change) error { return nil }

func (noopAudit) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

type stubRegistry struct {
	profile  *companieshouse.CompanyProfile
	officers []companieshouse.Officer
	err      error
}

func (r *stubRegistry) CompanyProfile(ctx context.Context, companyNumber string) (*companieshouse.CompanyProfile, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.profile == nil {
		return nil, companieshouse.ErrNotFound
	}
	return r.profile, nil
}

func (r *stubRegistry) CompanyOfficers(ctx context.Context, companyNumber string) ([]companieshouse.Officer, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.officers, nil
}

type stubGenerator struct {
	generated int
	cleaned   []*domain.OutputSet
	err       error
}

func (g *stubGenerator) Generate(ctx context.Context, doc *domain.AccountsDocument) (*domain.OutputSet, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.generated++
	name := "document"
	if doc.Sections.CompanyPeriod != nil && doc.Sections.CompanyPeriod.CompanyName != "" {
		name = doc.Sections.CompanyPeriod.CompanyName
	}
	base := fmt.Sprintf("/files/FS_%s_%s", name, doc.Period.EndDate.String())
	return &domain.OutputSet{
		HTMLURL:     base + ".html",
		PDFURL:      base + ".pdf",
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (g *stubGenerator) Cleanup(ctx context.Context, outputs *domain.OutputSet) error {
	g.cleaned = append(g.cleaned, outputs)
	return nil
}

type harness struct {
	svc      domain.Service
	clients  clientdomain.Service
	db       *gorm.DB
	clock    *clock.FakeClock
	registry *stubRegistry
	gen      *stubGenerator
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:accounts_svc_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&clientdomain.Client{},
		&domain.AccountsDocument{},
		&domain.Snapshot{},
	))
	return db
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	clientSvc := clientservice.New(clientservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  clientrepo.Provide(),
	})

	fake := clock.NewFakeClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	reg := &stubRegistry{}
	gen := &stubGenerator{}

	svc := service.New(service.Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fake,
		Repo:      repository.Provide(),
		Snapshots: repository.ProvideSnapshots(),
		Clients:   clientSvc,
		Registry:  reg,
		AuditSvc:  noopAudit{},
		Generator: gen,
	})

	return &harness{
		svc:      svc,
		clients:  clientSvc,
		db:       db,
		clock:    fake,
		registry: reg,
		gen:      gen,
	}
}

func (h *harness) newCompany(t *testing.T) clientdomain.Client {
	t.Helper()

	client, err := h.clients.Create(context.Background(), clientdomain.CreateClientRequest{
		Name:          "Acme Widgets Ltd",
		Type:          clientdomain.TypeLimitedCompany,
		CompanyNumber: "1234567",
		YearEndDay:    31,
		YearEndMonth:  3,
	})
	require.NoError(t, err)
	return client
}

func (h *harness) newDocument(t *testing.T) domain.DocumentView {
	t.Helper()

	client := h.newCompany(t)
	doc, err := h.svc.Create(context.Background(), domain.CreateDocumentRequest{
		ClientID: client.ID.String(),
	})
	require.NoError(t, err)
	return doc
}

func (h *harness) update(t *testing.T, id string, key domain.SectionKey, payload string) domain.DocumentView {
	t.Helper()

	doc, err := h.svc.UpdateSection(context.Background(), domain.UpdateSectionRequest{
		ID:   id,
		Key:  key,
		Data: json.RawMessage(payload),
	})
	require.NoError(t, err)
	return doc
}

const (
	companyPeriodPayload = `{
		"companyName": "Acme Widgets Ltd",
		"companyNumber": "01234567",
		"startDate": "2025-04-01",
		"endDate": "2026-03-31",
		"isFirstYear": true,
		"framework": "MICRO_FRS105",
		"directors": ["Jane Smith"],
		"tradingStatus": "TRADING"
	}`
	disclosuresPayload = `{
		"framework": "MICRO_FRS105",
		"auditExempt": true,
		"auditExemptionStatement": "The company was entitled to exemption from audit under section 477 of the Companies Act 2006."
	}`
	policiesPayload = `{
		"basisOfPreparation": "These accounts have been prepared under FRS 105 on a going concern basis."
	}`
	profitAndLossPayload = `{
		"lines": {"turnover": 100000, "costOfSales": 40000, "adminExpenses": 20000}
	}`
	balanceSheetPayload = `{
		"figures": {"cashAtBank": 45100, "creditorsWithinOneYear": 5000, "shareCapital": 100, "retainedEarnings": 40000}
	}`
	notesPayload = `{
		"shareCapital": {"shareCount": 100, "nominalValue": 1, "shareClass": "Ordinary"},
		"employees": {"include": false},
		"directorsLoanNote": {"include": false},
		"commitmentsContingencies": {"include": false}
	}`
	approvalPendingPayload = `{"approved": false}`
	approvedPayload        = `{"approved": true, "directorName": "Jane Smith", "approvalDate": "2026-03-31"}`
)

// fillSections writes every section except directorsApproval with
// payloads that validate cleanly against each other.
func (h *harness) fillSections(t *testing.T, id string) domain.DocumentView {
	t.Helper()

	h.update(t, id, domain.SectionCompanyPeriod, companyPeriodPayload)
	h.update(t, id, domain.SectionFrameworkDisclosures, disclosuresPayload)
	h.update(t, id, domain.SectionAccountingPolicies, policiesPayload)
	h.update(t, id, domain.SectionProfitAndLoss, profitAndLossPayload)
	h.update(t, id, domain.SectionBalanceSheet, balanceSheetPayload)
	return h.update(t, id, domain.SectionNotes, notesPayload)
}

func (h *harness) readyDocument(t *testing.T) domain.DocumentView {
	t.Helper()

	doc := h.newDocument(t)
	h.fillSections(t, doc.ID.String())
	doc = h.update(t, doc.ID.String(), domain.SectionDirectorsApproval, approvedPayload)
	require.Equal(t, domain.StatusReady, doc.Status)
	return doc
}

func TestCreateDocumentSeedsFromClient(t *testing.T) {
	h := newHarness(t)
	client := h.newCompany(t)

	doc, err := h.svc.Create(context.Background(), domain.CreateDocumentRequest{
		ClientID: client.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusDraft, doc.Status)
	assert.Equal(t, domain.FrameworkMicro, doc.Framework)
	assert.Equal(t, "01234567", doc.CompanyNumber)
	assert.True(t, doc.Period.IsFirstYear)
	assert.Equal(t, "2026-03-31", doc.Period.EndDate.String())
	assert.Equal(t, "2025-04-01", doc.Period.StartDate.String())

	cp := doc.Sections.CompanyPeriod
	require.NotNil(t, cp)
	assert.Equal(t, "Acme Widgets Ltd", cp.CompanyName)
	assert.Equal(t, "01234567", cp.CompanyNumber)
	assert.Equal(t, "TRADING", cp.TradingStatus)

	require.NotNil(t, doc.Sections.ProfitAndLoss)
	require.NotNil(t, doc.Sections.BalanceSheet)
	assert.Nil(t, doc.Sections.ProfitAndLoss.Comparatives)
	assert.Nil(t, doc.Sections.BalanceSheet.Comparatives)
	assert.Nil(t, doc.Sections.AccountingPolicies)

	// Seeded with no directors, so validation already carries findings.
	assert.NotEmpty(t, doc.Validation.Errors)
}

func TestCreateDocumentForcesUnincorporatedFramework(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	client, err := h.clients.Create(ctx, clientdomain.CreateClientRequest{
		Name:         "Joan Baker",
		Type:         clientdomain.TypeSoleTrader,
		YearEndDay:   5,
		YearEndMonth: 4,
	})
	require.NoError(t, err)

	doc, err := h.svc.Create(ctx, domain.CreateDocumentRequest{
		ClientID:  client.ID.String(),
		Framework: domain.FrameworkMicro,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.FrameworkSoleTrader, doc.Framework)
	assert.Empty(t, doc.CompanyNumber)
	assert.Equal(t, "2026-04-05", doc.Period.EndDate.String())
	require.NotNil(t, doc.Sections.CompanyPeriod)
	assert.Empty(t, doc.Sections.CompanyPeriod.CompanyNumber)
	assert.Empty(t, doc.Sections.CompanyPeriod.Directors)
}

func TestCreateDocumentRejectsUnincorporatedFrameworkForCompany(t *testing.T) {
	h := newHarness(t)
	client := h.newCompany(t)

	_, err := h.svc.Create(context.Background(), domain.CreateDocumentRequest{
		ClientID:  client.ID.String(),
		Framework: domain.FrameworkSoleTrader,
	})
	require.ErrorIs(t, err, domain.ErrInvalidFramework)
}

func TestCreateDocumentUsesRegistry(t *testing.T) {
	h := newHarness(t)
	h.registry.profile = &companieshouse.CompanyProfile{
		CompanyNumber:           "01234567",
		CompanyName:             "Acme Widgets Limited",
		NextAccountsPeriodStart: "2025-01-01",
		NextAccountsPeriodEnd:   "2025-12-31",
	}
	h.registry.officers = []companieshouse.Officer{
		{Name: "Jane Smith", Role: "director"},
		{Name: "John Doe", Role: "secretary"},
		{Name: "Bob Former", Role: "director", ResignedOn: "2020-01-01"},
	}

	client := h.newCompany(t)
	doc, err := h.svc.Create(context.Background(), domain.CreateDocumentRequest{
		ClientID: client.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-01-01", doc.Period.StartDate.String())
	assert.Equal(t, "2025-12-31", doc.Period.EndDate.String())

	cp := doc.Sections.CompanyPeriod
	require.NotNil(t, cp)
	assert.Equal(t, "Acme Widgets Limited", cp.CompanyName)
	assert.Equal(t, []string{"Jane Smith"}, cp.Directors)
}

func TestCreateDocumentRegistryFailureIsNonFatal(t *testing.T) {
	h := newHarness(t)
	h.registry.err = companieshouse.ErrUnavailable

	client := h.newCompany(t)
	doc, err := h.svc.Create(context.Background(), domain.CreateDocumentRequest{
		ClientID: client.ID.String(),
	})
	require.NoError(t, err)

	require.NotNil(t, doc.Sections.CompanyPeriod)
	assert.Equal(t, "Acme Widgets Ltd", doc.Sections.CompanyPeriod.CompanyName)
	assert.Equal(t, "2026-03-31", doc.Period.EndDate.String())
}

func TestCreateDocumentSecondYearMirrorsPrior(t *testing.T) {
	h := newHarness(t)
	client := h.newCompany(t)
	ctx := context.Background()

	first, err := h.svc.Create(ctx, domain.CreateDocumentRequest{
		ClientID: client.ID.String(),
	})
	require.NoError(t, err)
	h.update(t, first.ID.String(), domain.SectionProfitAndLoss, profitAndLossPayload)
	h.update(t, first.ID.String(), domain.SectionAccountingPolicies, policiesPayload)

	start := domain.NewDate(2026, time.April, 1)
	end := domain.NewDate(2027, time.March, 31)
	second, err := h.svc.Create(ctx, domain.CreateDocumentRequest{
		ClientID:    client.ID.String(),
		PeriodStart: &start,
		PeriodEnd:   &end,
	})
	require.NoError(t, err)

	assert.False(t, second.Period.IsFirstYear)

	require.NotNil(t, second.Sections.AccountingPolicies)
	assert.Equal(t,
		"These accounts have been prepared under FRS 105 on a going concern basis.",
		second.Sections.AccountingPolicies.BasisOfPreparation,
	)

	require.NotNil(t, second.Sections.ProfitAndLoss)
	require.NotNil(t, second.Sections.ProfitAndLoss.Comparatives)
	assert.True(t, second.Sections.ProfitAndLoss.Comparatives.Turnover.Equal(decimal.NewFromInt(100000)))
	assert.True(t, second.Sections.ProfitAndLoss.Lines.Turnover.IsZero())

	require.NotNil(t, second.Sections.BalanceSheet)
	require.NotNil(t, second.Sections.BalanceSheet.Comparatives)
	assert.True(t, second.Sections.BalanceSheet.Comparatives.CashAtBank.IsZero())
}

func TestCreateDocumentValidation(t *testing.T) {
	h := newHarness(t)
	client := h.newCompany(t)
	ctx := context.Background()

	_, err := h.svc.Create(ctx, domain.CreateDocumentRequest{ClientID: "not-an-id"})
	require.ErrorIs(t, err, domain.ErrInvalidClientID)

	_, err = h.svc.Create(ctx, domain.CreateDocumentRequest{ClientID: "987654321012345"})
	require.ErrorIs(t, err, domain.ErrClientNotFound)

	start := domain.NewDate(2026, time.March, 31)
	end := domain.NewDate(2025, time.April, 1)
	_, err = h.svc.Create(ctx, domain.CreateDocumentRequest{
		ClientID:    client.ID.String(),
		PeriodStart: &start,
		PeriodEnd:   &end,
	})
	require.ErrorIs(t, err, domain.ErrInvalidPeriod)

	// No explicit dates, no registry data, no year end on the client.
	bare, err := h.clients.Create(ctx, clientdomain.CreateClientRequest{
		Name: "No Dates Ltd",
		Type: clientdomain.TypeLimitedCompany,
	})
	require.NoError(t, err)
	_, err = h.svc.Create(ctx, domain.CreateDocumentRequest{ClientID: bare.ID.String()})
	require.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestGetAttachesCalculations(t *testing.T) {
	h := newHarness(t)
	doc := h.newDocument(t)
	h.update(t, doc.ID.String(), domain.SectionProfitAndLoss, profitAndLossPayload)

	got, err := h.svc.Get(context.Background(), doc.ID.String())
	require.NoError(t, err)

	pl := got.Calculations.ProfitAndLoss
	assert.True(t, pl.GrossProfit.Equal(decimal.NewFromInt(60000)), "gross profit %s", pl.GrossProfit)
	assert.True(t, pl.OperatingProfit.Equal(decimal.NewFromInt(40000)), "operating profit %s", pl.OperatingProfit)
	assert.True(t, pl.ProfitBeforeTax.Equal(decimal.NewFromInt(40000)))
	assert.True(t, pl.ProfitAfterTax.Equal(decimal.NewFromInt(40000)))
	assert.NotEmpty(t, got.Ratios)
}

func TestGetUnknownDocument(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Get(context.Background(), "not-an-id")
	require.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = h.svc.Get(context.Background(), "987654321012345")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateSectionReplacesAndSnapshots(t *testing.T) {
	h := newHarness(t)
	doc := h.newDocument(t)
	id := doc.ID.String()

	updated := h.update(t, id, domain.SectionProfitAndLoss, profitAndLossPayload)
	require.NotNil(t, updated.Sections.ProfitAndLoss)
	assert.True(t, updated.Sections.ProfitAndLoss.Lines.Turnover.Equal(decimal.NewFromInt(100000)))
	assert.Equal(t, "system", updated.LastEditedBy)

	history, err := h.svc.History(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history, 1)

	// The snapshot holds the pre-write image.
	snap := history[0]
	assert.Equal(t, doc.ID, snap.DocumentID)
	require.NotNil(t, snap.Document.Sections.ProfitAndLoss)
	assert.True(t, snap.Document.Sections.ProfitAndLoss.Lines.Turnover.IsZero())
}

func TestUpdateSectionRejectsCalculatedFields(t *testing.T) {
	h := newHarness(t)
	doc := h.newDocument(t)
	id := doc.ID.String()

	tests := []struct {
		name    string
		payload string
	}{
		{
			name:    "top_level",
			payload: `{"lines": {"turnover": 500}, "grossProfit": 1}`,
		},
		{
			name:    "nested_in_lines",
			payload: `{"lines": {"turnover": 500, "operatingProfit": 9}}`,
		},
		{
			name:    "nested_in_comparatives",
			payload: `{"lines": {"turnover": 500}, "comparatives": {"profitAfterTax": 2}}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.UpdateSection(context.Background(), domain.UpdateSectionRequest{
				ID:   id,
				Key:  domain.SectionProfitAndLoss,
				Data: json.RawMessage(tc.payload),
			})
			require.ErrorIs(t, err, domain.ErrCalculatedField)
		})
	}

	got, err := h.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, got.Sections.ProfitAndLoss.Lines.Turnover.IsZero())
}

func TestUpdateSectionRejectsLockedDocument(t *testing.T) {
	h := newHarness(t)
	doc := h.readyDocument(t)
	id := doc.ID.String()

	_, err := h.svc.GenerateOutputs(context.Background(), id)
	require.NoError(t, err)
	_, err = h.svc.Lock(context.Background(), id)
	require.NoError(t, err)

	_, err = h.svc.UpdateSection(context.Background(), domain.UpdateSectionRequest{
		ID:   id,
		Key:  domain.SectionNotes,
		Data: json.RawMessage(notesPayload),
	})
	require.ErrorIs(t, err, domain.ErrDocumentLocked)
}

func TestUpdateSectionSchemaFailureDoesNotPersist(t *testing.T) {
	h := newHarness(t)
	doc := h.newDocument(t)
	id := doc.ID.String()

	_, err := h.svc.UpdateSection(context.Background(), domain.UpdateSectionRequest{
		ID:   id,
		Key:  domain.SectionBalanceSheet,
		Data: json.RawMessage(`{"figures": {"cashAtBank": 100}, "mystery": true}`),
	})
	require.Error(t, err)

	var sectionErr *domain.SectionValidationError
	require.ErrorAs(t, err, &sectionErr)
	require.NotEmpty(t, sectionErr.Findings)
	assert.ErrorIs(t, err, domain.ErrSectionInvalid)

	got, getErr := h.svc.Get(context.Background(), id)
	require.NoError(t, getErr)
	assert.True(t, got.Sections.BalanceSheet.Figures.CashAtBank.IsZero())
}

func TestUpdateSectionBusinessRuleFailureListsEveryFinding(t *testing.T) {
	h := newHarness(t)
	doc := h.newDocument(t)

	// Negative share capital is an error; so is carrying comparatives in
	// a first year. Both findings must come back in one rejection.
	_, err := h.svc.UpdateSection(context.Background(), domain.UpdateSectionRequest{
		ID:  doc.ID.String(),
		Key: domain.SectionBalanceSheet,
		Data: json.RawMessage(`{
			"figures": {"shareCapital": -5},
			"comparatives": {"cashAtBank": 1}
		}`),
	})
	require.Error(t, err)

	var sectionErr *domain.SectionValidationError
	require.ErrorAs(t, err, &sectionErr)
	assert.GreaterOrEqual(t, len(sectionErr.Findings), 2)
}

func TestUpdateSectionCompanyPeriodPropagates(t *testing.T) {
	h := newHarness(t)
	doc := h.newDocument(t)
	id := doc.ID.String()

	updated := h.update(t, id, domain.SectionCompanyPeriod, `{
		"companyName": "Acme Widgets Ltd",
		"companyNumber": "01234567",
		"startDate": "2025-07-01",
		"endDate": "2026-06-30",
		"isFirstYear": true,
		"framework": "SMALL_FRS102_1A",
		"directors": ["Jane Smith"],
		"tradingStatus": "TRADING"
	}`)

	assert.Equal(t, domain.FrameworkSmall, updated.Framework)
	assert.Equal(t, "2025-07-01", updated.Period.StartDate.String())
	assert.Equal(t, "2026-06-30", updated.Period.EndDate.String())
	assert.Equal(t, "01234567", updated.CompanyNumber)
}

func TestUpdateSectionSwitchToSoleTraderClearsCompanyFields(t *testing.T) {
	h := newHarness(t)
	doc := h.newDocument(t)

	updated := h.update(t, doc.ID.String(), domain.SectionCompanyPeriod, `{
		"companyName": "Acme Widgets Ltd",
		"companyNumber": "01234567",
		"startDate": "2025-04-01",
		"endDate": "2026-03-31",
		"isFirstYear": true,
		"framework": "SOLE_TRADER",
		"directors": ["Jane Smith"]
	}`)

	assert.Equal(t, domain.FrameworkSoleTrader, updated.Framework)
	assert.Empty(t, updated.CompanyNumber)
	require.NotNil(t, updated.Sections.CompanyPeriod)
	assert.Empty(t, updated.Sections.CompanyPeriod.CompanyNumber)
	assert.Empty(t, updated.Sections.CompanyPeriod.Directors)
}

func TestUpdateSectionFirstYearFlip(t *testing.T) {
	h := newHarness(t)
	doc := h.newDocument(t)
	id := doc.ID.String()

	require.Nil(t, doc.Sections.ProfitAndLoss.Comparatives)
	require.Nil(t, doc.Sections.BalanceSheet.Comparatives)

	secondYear := h.update(t, id, domain.SectionCompanyPeriod, `{
		"companyName": "Acme Widgets Ltd",
		"companyNumber": "01234567",
		"startDate": "2025-04-01",
		"endDate": "2026-03-31",
		"isFirstYear": false,
		"framework": "MICRO_FRS105",
		"directors": ["Jane Smith"],
		"tradingStatus": "TRADING"
	}`)

	assert.False(t, secondYear.Period.IsFirstYear)
	require.NotNil(t, secondYear.Sections.ProfitAndLoss.Comparatives)
	require.NotNil(t, secondYear.Sections.BalanceSheet.Comparatives)
	assert.True(t, secondYear.Sections.ProfitAndLoss.Comparatives.Turnover.IsZero())

	firstYear := h.update(t, id, domain.SectionCompanyPeriod, companyPeriodPayload)
	assert.True(t, firstYear.Period.IsFirstYear)
	assert.Nil(t, firstYear.Sections.ProfitAndLoss.Comparatives)
	assert.Nil(t, firstYear.Sections.BalanceSheet.Comparatives)
}

func TestUpdateSectionAutoAdvance(t *testing.T) {
	h := newHarness(t)
	doc := h.newDocument(t)
	id := doc.ID.String()

	partial := h.fillSections(t, id)
	assert.Equal(t, domain.StatusDraft, partial.Status)

	inReview := h.update(t, id, domain.SectionDirectorsApproval, approvalPendingPayload)
	assert.Equal(t, domain.StatusInReview, inReview.Status)
	assert.Empty(t, inReview.Validation.Errors)
	assert.True(t, inReview.Validation.IsBalanced)

	ready := h.update(t, id, domain.SectionDirectorsApproval, approvedPayload)
	assert.Equal(t, domain.StatusReady, ready.Status)

	// An edit that reintroduces validation errors must not regress the
	// status.
	broken := h.update(t, id, domain.SectionBalanceSheet, `{"figures": {"cashAtBank": 1}}`)
	assert.NotEmpty(t, broken.Validation.Errors)
	assert.Equal(t, domain.StatusReady, broken.Status)
}

func TestLockLifecycle(t *testing.T) {
	h := newHarness(t)
	doc := h.readyDocument(t)
	id := doc.ID.String()
	ctx := context.Background()

	_, err := h.svc.Lock(ctx, id)
	require.ErrorIs(t, err, domain.ErrOutputsMissing)

	generated, err := h.svc.GenerateOutputs(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, generated.Outputs)
	assert.NotEmpty(t, generated.Outputs.HTMLURL)
	assert.NotEmpty(t, generated.Outputs.PDFURL)

	locked, err := h.svc.Lock(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLocked, locked.Status)

	_, err = h.svc.Lock(ctx, id)
	require.ErrorIs(t, err, domain.ErrNotReady)

	unlocked, err := h.svc.Unlock(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, unlocked.Status)

	_, err = h.svc.Unlock(ctx, id)
	require.ErrorIs(t, err, domain.ErrNotLocked)
}

func TestLockRequiresReady(t *testing.T) {
	h := newHarness(t)
	doc := h.newDocument(t)

	_, err := h.svc.Lock(context.Background(), doc.ID.String())
	require.ErrorIs(t, err, domain.ErrNotReady)
}

func TestGenerateOutputsRequiresReady(t *testing.T) {
	h := newHarness(t)
	doc := h.newDocument(t)

	_, err := h.svc.GenerateOutputs(context.Background(), doc.ID.String())
	require.ErrorIs(t, err, domain.ErrNotReady)
	assert.Zero(t, h.gen.generated)
}

func TestGenerateOutputsSurfacesRenderFailure(t *testing.T) {
	h := newHarness(t)
	doc := h.readyDocument(t)
	h.gen.err = errors.New("wkhtmltopdf exploded")

	_, err := h.svc.GenerateOutputs(context.Background(), doc.ID.String())
	require.Error(t, err)

	got, getErr := h.svc.Get(context.Background(), doc.ID.String())
	require.NoError(t, getErr)
	assert.Nil(t, got.Outputs)
}

func TestGenerateOutputsRegenerates(t *testing.T) {
	h := newHarness(t)
	doc := h.readyDocument(t)
	id := doc.ID.String()
	ctx := context.Background()

	first, err := h.svc.GenerateOutputs(ctx, id)
	require.NoError(t, err)
	second, err := h.svc.GenerateOutputs(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, 2, h.gen.generated)
	assert.Equal(t, first.Outputs.HTMLURL, second.Outputs.HTMLURL)
	// Identical names mean the files were overwritten in place, so
	// nothing was cleaned up.
	assert.Empty(t, h.gen.cleaned)
}

func TestDeleteRemovesDocumentAndHistory(t *testing.T) {
	h := newHarness(t)
	doc := h.readyDocument(t)
	id := doc.ID.String()
	ctx := context.Background()

	_, err := h.svc.GenerateOutputs(ctx, id)
	require.NoError(t, err)

	require.NoError(t, h.svc.Delete(ctx, id))

	_, err = h.svc.Get(ctx, id)
	require.ErrorIs(t, err, domain.ErrNotFound)

	var snapshots int64
	require.NoError(t, h.db.Model(&domain.Snapshot{}).
		Where("document_id = ?", doc.ID).
		Count(&snapshots).Error)
	assert.Zero(t, snapshots)

	require.Len(t, h.gen.cleaned, 1)
}

func TestDeleteRejectsLockedDocument(t *testing.T) {
	h := newHarness(t)
	doc := h.readyDocument(t)
	id := doc.ID.String()
	ctx := context.Background()

	_, err := h.svc.GenerateOutputs(ctx, id)
	require.NoError(t, err)
	_, err = h.svc.Lock(ctx, id)
	require.NoError(t, err)

	err = h.svc.Delete(ctx, id)
	require.ErrorIs(t, err, domain.ErrDocumentLocked)

	_, err = h.svc.Get(ctx, id)
	require.NoError(t, err)
}

func TestHistoryRetention(t *testing.T) {
	h := newHarness(t)
	doc := h.newDocument(t)
	id := doc.ID.String()

	for i := 0; i < domain.SnapshotRetention+3; i++ {
		payload := fmt.Sprintf(`{"lines": {"turnover": %d}}`, (i+1)*1000)
		h.update(t, id, domain.SectionProfitAndLoss, payload)
		h.clock.Advance(time.Second)
	}

	history, err := h.svc.History(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history, domain.SnapshotRetention)

	// Newest first; the most recent snapshot holds the image preceding
	// the final write.
	require.NotNil(t, history[0].Document.Sections.ProfitAndLoss)
	assert.True(t, history[0].Document.Sections.ProfitAndLoss.Lines.Turnover.
		Equal(decimal.NewFromInt(int64(domain.SnapshotRetention+2)*1000)))
}

func TestListDocuments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.readyDocument(t)
	h.clock.Advance(time.Second)

	otherClient, err := h.clients.Create(ctx, clientdomain.CreateClientRequest{
		Name:         "Joan Baker",
		Type:         clientdomain.TypeSoleTrader,
		YearEndDay:   5,
		YearEndMonth: 4,
	})
	require.NoError(t, err)
	_, err = h.svc.Create(ctx, domain.CreateDocumentRequest{ClientID: otherClient.ID.String()})
	require.NoError(t, err)

	all, err := h.svc.List(ctx, domain.ListDocumentsRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Documents, 2)

	ready, err := h.svc.List(ctx, domain.ListDocumentsRequest{Status: domain.StatusReady})
	require.NoError(t, err)
	require.Len(t, ready.Documents, 1)
	assert.Equal(t, first.ID, ready.Documents[0].ID)

	soleTrader, err := h.svc.List(ctx, domain.ListDocumentsRequest{Framework: domain.FrameworkSoleTrader})
	require.NoError(t, err)
	assert.Len(t, soleTrader.Documents, 1)

	byClient, err := h.svc.ListByClient(ctx, first.ClientID.String())
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	assert.Equal(t, first.ID, byClient[0].ID)

	// List decorations are computed per row.
	assert.True(t, ready.Documents[0].Calculations.ProfitAndLoss.GrossProfit.
		Equal(decimal.NewFromInt(60000)))
}
