package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ClientType classifies an engagement for statutory filing purposes.
// Incorporated clients file company accounts; the other kinds take the
// sole-trader or personal presentation.
type ClientType string

const (
	TypeLimitedCompany ClientType = "LIMITED_COMPANY"
	TypeSoleTrader     ClientType = "SOLE_TRADER"
	TypeIndividual     ClientType = "INDIVIDUAL"
)

func (t ClientType) Valid() bool {
	switch t {
	case TypeLimitedCompany, TypeSoleTrader, TypeIndividual:
		return true
	}
	return false
}

// Incorporated reports whether the client is a registered company.
func (t ClientType) Incorporated() bool { return t == TypeLimitedCompany }

// Client is one entry in the practice's client book.
type Client struct {
	ID            snowflake.ID                `gorm:"primaryKey" json:"id"`
	Name          string                      `gorm:"not null" json:"name"`
	Slug          string                      `gorm:"not null;index" json:"slug"`
	Type          ClientType                  `gorm:"type:text;not null" json:"type"`
	CompanyNumber string                      `json:"company_number,omitempty"`
	Email         string                      `json:"email,omitempty"`
	Phone         string                      `json:"phone,omitempty"`
	AddressLines  datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"address_lines,omitempty"`

	// Engagement lines the practice delivers for this client, e.g.
	// ACCOUNTS, PAYROLL, VAT, SELF_ASSESSMENT.
	ServiceLines pq.StringArray `gorm:"type:text[]" json:"service_lines,omitempty"`

	// Accounting reference date, day and month only. Zero means not set.
	YearEndDay   int `json:"year_end_day,omitempty"`
	YearEndMonth int `json:"year_end_month,omitempty"`

	Archived  bool      `gorm:"not null;default:false" json:"archived"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Client) TableName() string { return "clients" }
