package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerwell/praxis/internal/accounts/domain"
	auditdomain "github.com/ledgerwell/praxis/internal/audit/domain"
	clientdomain "github.com/ledgerwell/praxis/internal/client/domain"
	"github.com/ledgerwell/praxis/internal/providers/companieshouse"
)

func (s *Service) Create(ctx context.Context, req domain.CreateDocumentRequest) (domain.DocumentView, error) {
	client, err := s.clients.GetByID(ctx, clientdomain.GetClientRequest{ID: req.ClientID})
	if err != nil {
		switch {
		case errors.Is(err, clientdomain.ErrInvalidID):
			return domain.DocumentView{}, domain.ErrInvalidClientID
		case errors.Is(err, clientdomain.ErrNotFound):
			return domain.DocumentView{}, domain.ErrClientNotFound
		}
		return domain.DocumentView{}, err
	}

	framework, err := resolveFramework(client.Type, req.Framework)
	if err != nil {
		return domain.DocumentView{}, err
	}

	prior, err := s.repo.LatestByClient(ctx, s.db, client.ID)
	if err != nil {
		return domain.DocumentView{}, err
	}

	var isFirstYear bool
	if req.IsFirstYear != nil {
		isFirstYear = *req.IsFirstYear
	} else {
		count, err := s.repo.CountByClient(ctx, s.db, client.ID)
		if err != nil {
			return domain.DocumentView{}, err
		}
		isFirstYear = count == 0
	}

	companyNumber := ""
	if framework.Corporate() {
		companyNumber = client.CompanyNumber
	}

	profile, officers := s.lookupRegistry(ctx, framework, companyNumber)

	companyName := client.Name
	if profile != nil && profile.CompanyName != "" {
		companyName = profile.CompanyName
	}

	period := resolvePeriod(req, profile, client, s.clock.Now())
	if period.StartDate.IsZero() || period.EndDate.IsZero() ||
		!period.EndDate.After(period.StartDate.Time) {
		return domain.DocumentView{}, domain.ErrInvalidPeriod
	}
	period.IsFirstYear = isFirstYear

	doc := &domain.AccountsDocument{
		ID:            s.genID.Generate(),
		ClientID:      client.ID,
		CompanyNumber: companyNumber,
		Framework:     framework,
		Period:        period,
		Status:        domain.StatusDraft,
		Sections: seedSections(seedInput{
			companyName:   companyName,
			companyNumber: companyNumber,
			framework:     framework,
			period:        period,
			directors:     directorNames(officers),
			prior:         prior,
		}),
		CreatedBy:    actorFrom(ctx),
		LastEditedBy: actorFrom(ctx),
		CreatedAt:    s.clock.Now(),
		UpdatedAt:    s.clock.Now(),
	}
	doc.Validation = s.validator.Document(doc)

	if err := s.repo.Insert(ctx, s.db, doc); err != nil {
		s.log.Error("failed to store new document", zap.String("client_id", client.ID.String()), zap.Error(err))
		return domain.DocumentView{}, err
	}

	s.metrics.RecordDocumentCreated(ctx, string(framework))
	_ = s.audit.LogEvent(ctx, auditdomain.Event{
		Action:     "accounts_document.created",
		EntityType: "accounts_document",
		EntityID:   doc.ID.String(),
		Metadata: map[string]any{
			"client_id":  client.ID.String(),
			"framework":  string(framework),
			"period_end": doc.Period.EndDate.String(),
		},
	})

	return view(doc), nil
}

// resolveFramework applies the client type's constraints. Unincorporated
// clients always take their own presentation regardless of the request;
// incorporated clients choose among the company frameworks.
func resolveFramework(clientType clientdomain.ClientType, requested domain.Framework) (domain.Framework, error) {
	switch clientType {
	case clientdomain.TypeSoleTrader:
		return domain.FrameworkSoleTrader, nil
	case clientdomain.TypeIndividual:
		return domain.FrameworkIndividual, nil
	}
	if requested == "" {
		return domain.FrameworkMicro, nil
	}
	if !requested.Valid() || !requested.Corporate() {
		return "", domain.ErrInvalidFramework
	}
	return requested, nil
}

// resolvePeriod picks the accounting period: explicit request first, then
// the register's next-accounts period, then the client's year-end date.
// A missing half is derived from the other so the pair stays one year.
func resolvePeriod(req domain.CreateDocumentRequest, profile *companieshouse.CompanyProfile, client clientdomain.Client, now time.Time) domain.Period {
	var start, end domain.Date
	if req.PeriodStart != nil {
		start = *req.PeriodStart
	}
	if req.PeriodEnd != nil {
		end = *req.PeriodEnd
	}

	if start.IsZero() && end.IsZero() && profile != nil {
		if s, err := domain.ParseDate(profile.NextAccountsPeriodStart); err == nil {
			if e, err := domain.ParseDate(profile.NextAccountsPeriodEnd); err == nil {
				start, end = s, e
			}
		}
	}

	if start.IsZero() && end.IsZero() && client.YearEndMonth != 0 {
		end = latestYearEnd(client.YearEndDay, time.Month(client.YearEndMonth), now)
	}

	if start.IsZero() && !end.IsZero() {
		start = domain.DateOf(end.AddDate(-1, 0, 1))
	}
	if end.IsZero() && !start.IsZero() {
		end = domain.DateOf(start.AddDate(1, 0, -1))
	}

	return domain.Period{StartDate: start, EndDate: end}
}

// latestYearEnd is the most recent occurrence of the client's accounting
// reference date on or before now. Accounts are prepared for the period
// that has already closed.
func latestYearEnd(day int, month time.Month, now time.Time) domain.Date {
	end := time.Date(now.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if end.After(now) {
		end = end.AddDate(-1, 0, 0)
	}
	return domain.DateOf(end)
}

func (s *Service) lookupRegistry(ctx context.Context, framework domain.Framework, companyNumber string) (*companieshouse.CompanyProfile, []companieshouse.Officer) {
	if !framework.Corporate() || companyNumber == "" {
		return nil, nil
	}

	profile, err := s.registry.CompanyProfile(ctx, companyNumber)
	if err != nil {
		if errors.Is(err, companieshouse.ErrNotConfigured) {
			s.metrics.RecordRegistryLookup(ctx, "not_configured")
		} else {
			s.metrics.RecordRegistryLookup(ctx, "error")
			s.log.Warn("registry profile lookup failed",
				zap.String("company_number", companyNumber),
				zap.Error(err),
			)
		}
		return nil, nil
	}
	s.metrics.RecordRegistryLookup(ctx, "hit")

	officers, err := s.registry.CompanyOfficers(ctx, companyNumber)
	if err != nil {
		if !errors.Is(err, companieshouse.ErrNotConfigured) {
			s.log.Warn("registry officers lookup failed",
				zap.String("company_number", companyNumber),
				zap.Error(err),
			)
		}
		return profile, nil
	}
	return profile, officers
}

func directorNames(officers []companieshouse.Officer) []string {
	var names []string
	for _, officer := range officers {
		if !officer.Active() {
			continue
		}
		if !strings.Contains(strings.ToLower(officer.Role), "director") {
			continue
		}
		if officer.Name == "" {
			continue
		}
		names = append(names, officer.Name)
	}
	return names
}

type seedInput struct {
	companyName   string
	companyNumber string
	framework     domain.Framework
	period        domain.Period
	directors     []string
	prior         *domain.AccountsDocument
}

// seedSections builds the initial section set: companyPeriod filled in,
// policies and notes carried over from the prior year, and zeroed
// statements with comparatives mirroring the prior year's figures.
func seedSections(in seedInput) domain.SectionSet {
	tradingStatus := "TRADING"
	if in.framework == domain.FrameworkDormant {
		tradingStatus = "DORMANT"
	}

	sections := domain.SectionSet{
		CompanyPeriod: &domain.CompanyPeriodSection{
			CompanyName:   in.companyName,
			CompanyNumber: in.companyNumber,
			StartDate:     in.period.StartDate,
			EndDate:       in.period.EndDate,
			IsFirstYear:   in.period.IsFirstYear,
			Framework:     in.framework,
			Directors:     in.directors,
			TradingStatus: tradingStatus,
		},
		ProfitAndLoss: &domain.ProfitAndLossSection{},
		BalanceSheet:  &domain.BalanceSheetSection{},
	}

	if in.prior != nil {
		carried := in.prior.Sections.Clone()
		sections.AccountingPolicies = carried.AccountingPolicies
		sections.Notes = carried.Notes
	}

	if !in.period.IsFirstYear {
		sections.ProfitAndLoss.Comparatives = &domain.ProfitAndLossLines{}
		sections.BalanceSheet.Comparatives = &domain.BalanceSheetFigures{}
		if in.prior != nil {
			if in.prior.Sections.ProfitAndLoss != nil {
				lines := in.prior.Sections.ProfitAndLoss.Lines
				sections.ProfitAndLoss.Comparatives = &lines
			}
			if in.prior.Sections.BalanceSheet != nil {
				figures := in.prior.Sections.BalanceSheet.Figures
				sections.BalanceSheet.Comparatives = &figures
			}
		}
	}

	return sections
}
