package domain

import (
	"context"
	"errors"

	"github.com/ledgerwell/praxis/pkg/db/pagination"
)

type CreateClientRequest struct {
	Name          string     `json:"name"`
	Type          ClientType `json:"type"`
	CompanyNumber string     `json:"company_number"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	AddressLines  []string   `json:"address_lines"`
	ServiceLines  []string   `json:"service_lines"`
	YearEndDay    int        `json:"year_end_day"`
	YearEndMonth  int        `json:"year_end_month"`
}

type UpdateClientRequest struct {
	ID            string    `json:"id"`
	Name          *string   `json:"name,omitempty"`
	CompanyNumber *string   `json:"company_number,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	AddressLines  *[]string `json:"address_lines,omitempty"`
	ServiceLines  *[]string `json:"service_lines,omitempty"`
	YearEndDay    *int      `json:"year_end_day,omitempty"`
	YearEndMonth  *int      `json:"year_end_month,omitempty"`
	Archived      *bool     `json:"archived,omitempty"`
}

type GetClientRequest struct {
	ID string
}

type ListClientRequest struct {
	PageToken       string
	PageSize        int32
	Name            string
	Slug            string
	Type            string
	CompanyNumber   string
	IncludeArchived bool
}

type ListClientFilter struct {
	Name            string
	Slug            string
	Type            ClientType
	CompanyNumber   string
	IncludeArchived bool
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type Service interface {
	Create(ctx context.Context, req CreateClientRequest) (Client, error)
	GetByID(ctx context.Context, req GetClientRequest) (Client, error)
	List(ctx context.Context, req ListClientRequest) (ListClientResponse, error)
	Update(ctx context.Context, req UpdateClientRequest) (Client, error)
}

var (
	ErrInvalidName      = errors.New("invalid_client_name")
	ErrInvalidType      = errors.New("invalid_client_type")
	ErrInvalidID        = errors.New("invalid_client_id")
	ErrInvalidYearEnd   = errors.New("invalid_year_end")
	ErrCompanyNumberSet = errors.New("company_number_requires_limited_company")
	ErrNotFound         = errors.New("client_not_found")
)
