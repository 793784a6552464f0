package companieshouse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ledgerwell/praxis/internal/cache"
	obsmetrics "github.com/ledgerwell/praxis/internal/observability/metrics"
)

const DefaultBaseURL = "https://api.company-information.service.gov.uk"

const defaultCacheTTL = time.Hour

// Client calls the Companies House REST API with an in-process cache in
// front of it. The register rate-limits to 600 requests per five minutes
// per key, so cached reads matter.
type Client struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	profiles cache.Cache[string, CompanyProfile]
	officers cache.Cache[string, []Officer]
	ttl      time.Duration
	log      *zap.Logger
	metrics  *obsmetrics.Metrics
}

func NewClient(baseURL, apiKey string, ttl time.Duration, log *zap.Logger, metrics *obsmetrics.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   strings.TrimSpace(apiKey),
		client:   &http.Client{Timeout: 15 * time.Second},
		profiles: cache.NewTTLCache[string, CompanyProfile](),
		officers: cache.NewTTLCache[string, []Officer](),
		ttl:      ttl,
		log:      log.Named("providers.companieshouse"),
		metrics:  metrics,
	}
}

type companyProfileResponse struct {
	CompanyName    string   `json:"company_name"`
	CompanyNumber  string   `json:"company_number"`
	CompanyStatus  string   `json:"company_status"`
	Type           string   `json:"type"`
	DateOfCreation string   `json:"date_of_creation"`
	SICCodes       []string `json:"sic_codes"`

	RegisteredOfficeAddress struct {
		AddressLine1 string `json:"address_line_1"`
		AddressLine2 string `json:"address_line_2"`
		Locality     string `json:"locality"`
		Region       string `json:"region"`
		PostalCode   string `json:"postal_code"`
	} `json:"registered_office_address"`

	Accounts struct {
		NextAccounts struct {
			PeriodStartOn string `json:"period_start_on"`
			PeriodEndOn   string `json:"period_end_on"`
			DueOn         string `json:"due_on"`
		} `json:"next_accounts"`
	} `json:"accounts"`
}

type officerListResponse struct {
	Items []struct {
		Name        string `json:"name"`
		OfficerRole string `json:"officer_role"`
		AppointedOn string `json:"appointed_on"`
		ResignedOn  string `json:"resigned_on"`
	} `json:"items"`
}

func (c *Client) CompanyProfile(ctx context.Context, companyNumber string) (*CompanyProfile, error) {
	number := NormalizeCompanyNumber(companyNumber)
	if number == "" {
		return nil, ErrNotFound
	}

	if cached, ok := c.profiles.Get(number); ok {
		c.metrics.RecordRegistryLookup(ctx, "cache_hit")
		return &cached, nil
	}

	var payload companyProfileResponse
	if err := c.get(ctx, "/company/"+number, number, &payload); err != nil {
		return nil, err
	}

	profile := buildProfile(number, payload)
	c.profiles.Set(number, profile, c.ttl)
	c.metrics.RecordRegistryLookup(ctx, "ok")
	return &profile, nil
}

func (c *Client) CompanyOfficers(ctx context.Context, companyNumber string) ([]Officer, error) {
	number := NormalizeCompanyNumber(companyNumber)
	if number == "" {
		return nil, ErrNotFound
	}

	if cached, ok := c.officers.Get(number); ok {
		c.metrics.RecordRegistryLookup(ctx, "cache_hit")
		return cached, nil
	}

	var payload officerListResponse
	if err := c.get(ctx, "/company/"+number+"/officers", number, &payload); err != nil {
		return nil, err
	}

	officers := make([]Officer, 0, len(payload.Items))
	for _, item := range payload.Items {
		officers = append(officers, Officer{
			Name:        formatOfficerName(item.Name),
			Role:        item.OfficerRole,
			AppointedOn: item.AppointedOn,
			ResignedOn:  item.ResignedOn,
		})
	}

	c.officers.Set(number, officers, c.ttl)
	c.metrics.RecordRegistryLookup(ctx, "ok")
	return officers, nil
}

func (c *Client) get(ctx context.Context, path, number string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	// The register authenticates with the API key as basic-auth username.
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordRegistryLookup(ctx, "error")
		c.log.Warn("registry request failed", zap.String("company_number", number), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.RecordRegistryLookup(ctx, "not_found")
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		c.metrics.RecordRegistryLookup(ctx, "rate_limited")
		c.log.Warn("registry rate limit hit", zap.String("company_number", number))
		return fmt.Errorf("%w: rate limited", ErrUnavailable)
	case resp.StatusCode >= http.StatusBadRequest:
		c.metrics.RecordRegistryLookup(ctx, "error")
		c.log.Warn("registry returned error status",
			zap.String("company_number", number),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.RecordRegistryLookup(ctx, "error")
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}

func buildProfile(number string, payload companyProfileResponse) CompanyProfile {
	profile := CompanyProfile{
		CompanyNumber:  payload.CompanyNumber,
		CompanyName:    payload.CompanyName,
		Status:         payload.CompanyStatus,
		Type:           payload.Type,
		IncorporatedOn: payload.DateOfCreation,
		SICCodes:       payload.SICCodes,

		NextAccountsPeriodStart: payload.Accounts.NextAccounts.PeriodStartOn,
		NextAccountsPeriodEnd:   payload.Accounts.NextAccounts.PeriodEndOn,
		NextAccountsDueOn:       payload.Accounts.NextAccounts.DueOn,
	}
	if profile.CompanyNumber == "" {
		profile.CompanyNumber = number
	}

	addr := payload.RegisteredOfficeAddress
	for _, line := range []string{addr.AddressLine1, addr.AddressLine2, addr.Locality, addr.Region, addr.PostalCode} {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			profile.RegisteredOffice = append(profile.RegisteredOffice, trimmed)
		}
	}
	return profile
}

var nameCaser = cases.Title(language.BritishEnglish)

// formatOfficerName reorders the register's "SURNAME, Forenames" form to
// display order and normalises the shouted surname.
func formatOfficerName(name string) string {
	surname, forenames, found := strings.Cut(name, ",")
	if !found {
		return strings.TrimSpace(name)
	}
	surname = nameCaser.String(strings.ToLower(strings.TrimSpace(surname)))
	forenames = strings.TrimSpace(forenames)
	if forenames == "" {
		return surname
	}
	return forenames + " " + surname
}
