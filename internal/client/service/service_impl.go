package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ledgerwell/praxis/internal/client/domain"
	"github.com/ledgerwell/praxis/internal/providers/companieshouse"
	"github.com/ledgerwell/praxis/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("client.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateClientRequest) (domain.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Client{}, domain.ErrInvalidName
	}
	if !req.Type.Valid() {
		return domain.Client{}, domain.ErrInvalidType
	}

	companyNumber := companieshouse.NormalizeCompanyNumber(req.CompanyNumber)
	if companyNumber != "" && !req.Type.Incorporated() {
		return domain.Client{}, domain.ErrCompanyNumberSet
	}

	if err := validateYearEnd(req.YearEndDay, req.YearEndMonth); err != nil {
		return domain.Client{}, err
	}

	now := time.Now().UTC()
	client := domain.Client{
		ID:            s.genID.Generate(),
		Name:          name,
		Slug:          slug.Make(name),
		Type:          req.Type,
		CompanyNumber: companyNumber,
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		AddressLines:  trimLines(req.AddressLines),
		ServiceLines:  normalizeServiceLines(req.ServiceLines),
		YearEndDay:    req.YearEndDay,
		YearEndMonth:  req.YearEndMonth,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, &client); err != nil {
		return domain.Client{}, err
	}

	return client, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetClientRequest) (domain.Client, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Client{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Client{}, err
	}
	if item == nil {
		return domain.Client{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListClientRequest) (domain.ListClientResponse, error) {
	filter := domain.ListClientFilter{
		Name:            strings.TrimSpace(req.Name),
		Slug:            strings.TrimSpace(req.Slug),
		Type:            domain.ClientType(strings.ToUpper(strings.TrimSpace(req.Type))),
		CompanyNumber:   companieshouse.NormalizeCompanyNumber(req.CompanyNumber),
		IncludeArchived: req.IncludeArchived,
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return domain.ListClientResponse{}, domain.ErrInvalidType
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
		return domain.ListClientResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, int(pageSize), func(client *domain.Client) string {
		return pagination.EncodeCursor(pagination.Cursor{
			ID:        client.ID.String(),
			CreatedAt: client.CreatedAt.Format(time.RFC3339Nano),
		})
	})

	clients := make([]domain.Client, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		clients = append(clients, *item)
	}

	return domain.ListClientResponse{
		PageInfo: pageInfo,
		Clients:  clients,
	}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateClientRequest) (domain.Client, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Client{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Client{}, err
	}
	if item == nil {
		return domain.Client{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Client{}, domain.ErrInvalidName
		}
		item.Name = name
		item.Slug = slug.Make(name)
	}
	if req.CompanyNumber != nil {
		companyNumber := companieshouse.NormalizeCompanyNumber(*req.CompanyNumber)
		if companyNumber != "" && !item.Type.Incorporated() {
			return domain.Client{}, domain.ErrCompanyNumberSet
		}
		item.CompanyNumber = companyNumber
	}
	if req.Email != nil {
		item.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		item.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.AddressLines != nil {
		item.AddressLines = trimLines(*req.AddressLines)
	}
	if req.ServiceLines != nil {
		item.ServiceLines = normalizeServiceLines(*req.ServiceLines)
	}

	yearEndDay := item.YearEndDay
	yearEndMonth := item.YearEndMonth
	if req.YearEndDay != nil {
		yearEndDay = *req.YearEndDay
	}
	if req.YearEndMonth != nil {
		yearEndMonth = *req.YearEndMonth
	}
	if err := validateYearEnd(yearEndDay, yearEndMonth); err != nil {
		return domain.Client{}, err
	}
	item.YearEndDay = yearEndDay
	item.YearEndMonth = yearEndMonth

	if req.Archived != nil {
		item.Archived = *req.Archived
	}

	item.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return domain.Client{}, err
	}

	return *item, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// validateYearEnd accepts either a fully unset reference date or a
// plausible day and month pair. Day bounds are calendar-loose.
func validateYearEnd(day, month int) error {
	if day == 0 && month == 0 {
		return nil
	}
	if month < 1 || month > 12 {
		return domain.ErrInvalidYearEnd
	}
	if day < 1 || day > 31 {
		return domain.ErrInvalidYearEnd
	}
	return nil
}

func trimLines(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeServiceLines uppercases engagement line codes and drops
// blanks and duplicates, keeping first-seen order.
func normalizeServiceLines(lines []string) pq.StringArray {
	if len(lines) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(lines))
	out := make(pq.StringArray, 0, len(lines))
	for _, line := range lines {
		line = strings.ToUpper(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
