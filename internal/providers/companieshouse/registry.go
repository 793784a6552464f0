package companieshouse

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound      = errors.New("company_not_found")
	ErrNotConfigured = errors.New("registry_not_configured")
	ErrUnavailable   = errors.New("registry_unavailable")
)

// CompanyProfile is the slice of the public register a practice needs
// when opening an accounts engagement.
type CompanyProfile struct {
	CompanyNumber    string   `json:"companyNumber"`
	CompanyName      string   `json:"companyName"`
	Status           string   `json:"status"`
	Type             string   `json:"type"`
	IncorporatedOn   string   `json:"incorporatedOn,omitempty"`
	RegisteredOffice []string `json:"registeredOffice,omitempty"`
	SICCodes         []string `json:"sicCodes,omitempty"`

	NextAccountsPeriodStart string `json:"nextAccountsPeriodStart,omitempty"`
	NextAccountsPeriodEnd   string `json:"nextAccountsPeriodEnd,omitempty"`
	NextAccountsDueOn       string `json:"nextAccountsDueOn,omitempty"`
}

// Officer is one current or former company officer from the register.
// Names are reordered to display form ("Jane Smith", not "SMITH, Jane").
type Officer struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	AppointedOn string `json:"appointedOn,omitempty"`
	ResignedOn  string `json:"resignedOn,omitempty"`
}

// Active reports whether the officer currently holds the appointment.
func (o Officer) Active() bool { return o.ResignedOn == "" }

// Registry looks up company details on the public register.
type Registry interface {
	CompanyProfile(ctx context.Context, companyNumber string) (*CompanyProfile, error)
	CompanyOfficers(ctx context.Context, companyNumber string) ([]Officer, error)
}

// NoOpRegistry is wired in when no API key is configured.
type NoOpRegistry struct{}

func (NoOpRegistry) CompanyProfile(ctx context.Context, companyNumber string) (*CompanyProfile, error) {
	return nil, ErrNotConfigured
}

func (NoOpRegistry) CompanyOfficers(ctx context.Context, companyNumber string) ([]Officer, error) {
	return nil, ErrNotConfigured
}

// NormalizeCompanyNumber uppercases and zero-pads plain numeric company
// numbers to the register's eight characters. Prefixed numbers (SC, NI,
// OC, ...) pass through unchanged.
func NormalizeCompanyNumber(value string) string {
	cleaned := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
	if cleaned == "" {
		return ""
	}
	if len(cleaned) < 8 && isDigits(cleaned) {
		return strings.Repeat("0", 8-len(cleaned)) + cleaned
	}
	return cleaned
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
