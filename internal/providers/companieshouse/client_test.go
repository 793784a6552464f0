package companieshouse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeCompanyNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234567", "01234567"},
		{"01234567", "01234567"},
		{" 123 ", "00000123"},
		{"sc123456", "SC123456"},
		{"NI038289", "NI038289"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCompanyNumber(tt.in), "input %q", tt.in)
	}
}

func TestCompanyProfileLookup(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/company/01234567", r.URL.Path)

		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "test-key", user)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"company_name": "ACME WIDGETS LIMITED",
			"company_number": "01234567",
			"company_status": "active",
			"type": "ltd",
			"date_of_creation": "2015-06-01",
			"sic_codes": ["62020"],
			"registered_office_address": {
				"address_line_1": "1 King Street",
				"locality": "Manchester",
				"postal_code": "M2 4LQ"
			},
			"accounts": {
				"next_accounts": {
					"period_start_on": "2024-04-01",
					"period_end_on": "2025-03-31",
					"due_on": "2025-12-31"
				}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Minute, zap.NewNop(), nil)

	profile, err := client.CompanyProfile(context.Background(), "1234567")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "ACME WIDGETS LIMITED", profile.CompanyName)
	assert.Equal(t, "01234567", profile.CompanyNumber)
	assert.Equal(t, "active", profile.Status)
	assert.Equal(t, []string{"1 King Street", "Manchester", "M2 4LQ"}, profile.RegisteredOffice)
	assert.Equal(t, "2025-03-31", profile.NextAccountsPeriodEnd)

	// Second lookup is served from cache.
	profile, err = client.CompanyProfile(context.Background(), "01234567")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, 1, requests)
}

func TestCompanyProfileNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Minute, zap.NewNop(), nil)

	_, err := client.CompanyProfile(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompanyProfileServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Minute, zap.NewNop(), nil)

	_, err := client.CompanyProfile(context.Background(), "12345678")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCompanyOfficersLookup(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/company/01234567/officers", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{"name": "SMITH, Jane Ann", "officer_role": "director", "appointed_on": "2015-06-01"},
				{"name": "DOE, John", "officer_role": "director", "resigned_on": "2020-01-15"},
				{"name": "BLOGGS, Fred", "officer_role": "secretary"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Minute, zap.NewNop(), nil)

	officers, err := client.CompanyOfficers(context.Background(), "1234567")
	require.NoError(t, err)
	require.Len(t, officers, 3)

	assert.Equal(t, "Jane Ann Smith", officers[0].Name)
	assert.Equal(t, "director", officers[0].Role)
	assert.True(t, officers[0].Active())

	assert.Equal(t, "John Doe", officers[1].Name)
	assert.False(t, officers[1].Active())

	// Second lookup is served from cache.
	_, err = client.CompanyOfficers(context.Background(), "01234567")
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestFormatOfficerName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SMITH, Jane", "Jane Smith"},
		{"SMITH-JONES, Amy", "Amy Smith-Jones"},
		{"SMITH,", "Smith"},
		{"Jane Smith", "Jane Smith"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatOfficerName(tt.in), "input %q", tt.in)
	}
}

func TestNoOpRegistry(t *testing.T) {
	_, err := NoOpRegistry{}.CompanyProfile(context.Background(), "12345678")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NoOpRegistry{}.CompanyOfficers(context.Background(), "12345678")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
