package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SectionKey names one of the seven recognized blocks of a statutory
// accounts document. Keys are part of the stored document format and the
// public API; they must not change.
type SectionKey string

const (
	SectionCompanyPeriod        SectionKey = "companyPeriod"
	SectionFrameworkDisclosures SectionKey = "frameworkDisclosures"
	SectionAccountingPolicies   SectionKey = "accountingPolicies"
	SectionProfitAndLoss        SectionKey = "profitAndLoss"
	SectionBalanceSheet         SectionKey = "balanceSheet"
	SectionNotes                SectionKey = "notes"
	SectionDirectorsApproval    SectionKey = "directorsApproval"
)

// SectionKeys lists every recognized key in presentation order.
var SectionKeys = []SectionKey{
	SectionCompanyPeriod,
	SectionFrameworkDisclosures,
	SectionAccountingPolicies,
	SectionProfitAndLoss,
	SectionBalanceSheet,
	SectionNotes,
	SectionDirectorsApproval,
}

func ParseSectionKey(value string) (SectionKey, error) {
	key := SectionKey(value)
	for _, known := range SectionKeys {
		if key == known {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSectionKey, value)
}

// Section is implemented by every section payload type.
type Section interface {
	SectionKey() SectionKey
}

// ProfitAndLossLines is the fixed set of manually-entered profit and loss
// figures. Derived totals (gross profit, operating profit, ...) are never
// stored here; the calculation engine produces them on read.
type ProfitAndLossLines struct {
	Turnover          decimal.Decimal `json:"turnover"`
	CostOfSales       decimal.Decimal `json:"costOfSales"`
	OtherIncome       decimal.Decimal `json:"otherIncome"`
	AdminExpenses     decimal.Decimal `json:"adminExpenses"`
	Wages             decimal.Decimal `json:"wages"`
	Rent              decimal.Decimal `json:"rent"`
	Motor             decimal.Decimal `json:"motor"`
	ProfessionalFees  decimal.Decimal `json:"professionalFees"`
	OtherExpenses     decimal.Decimal `json:"otherExpenses"`
	InterestPayable   decimal.Decimal `json:"interestPayable"`
	TaxCharge         decimal.Decimal `json:"taxCharge"`
	DividendsDeclared decimal.Decimal `json:"dividendsDeclared"`
}

// FieldMap returns the lines keyed by their wire names, for
// period-over-period comparison.
func (l ProfitAndLossLines) FieldMap() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"turnover":          l.Turnover,
		"costOfSales":       l.CostOfSales,
		"otherIncome":       l.OtherIncome,
		"adminExpenses":     l.AdminExpenses,
		"wages":             l.Wages,
		"rent":              l.Rent,
		"motor":             l.Motor,
		"professionalFees":  l.ProfessionalFees,
		"otherExpenses":     l.OtherExpenses,
		"interestPayable":   l.InterestPayable,
		"taxCharge":         l.TaxCharge,
		"dividendsDeclared": l.DividendsDeclared,
	}
}

// BalanceSheetFigures is the fixed set of manually-entered balance sheet
// figures. Creditor amounts are entered as positive numbers.
type BalanceSheetFigures struct {
	TangibleAssets         decimal.Decimal `json:"tangibleAssets"`
	IntangibleAssets       decimal.Decimal `json:"intangibleAssets"`
	Investments            decimal.Decimal `json:"investments"`
	Stock                  decimal.Decimal `json:"stock"`
	Debtors                decimal.Decimal `json:"debtors"`
	CashAtBank             decimal.Decimal `json:"cashAtBank"`
	CreditorsWithinOneYear decimal.Decimal `json:"creditorsWithinOneYear"`
	TaxAndSocialSecurity   decimal.Decimal `json:"taxAndSocialSecurity"`
	CreditorsAfterOneYear  decimal.Decimal `json:"creditorsAfterOneYear"`
	ShareCapital           decimal.Decimal `json:"shareCapital"`
	RetainedEarnings       decimal.Decimal `json:"retainedEarnings"`
	OtherReserves          decimal.Decimal `json:"otherReserves"`
}

func (f BalanceSheetFigures) FieldMap() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"tangibleAssets":         f.TangibleAssets,
		"intangibleAssets":       f.IntangibleAssets,
		"investments":            f.Investments,
		"stock":                  f.Stock,
		"debtors":                f.Debtors,
		"cashAtBank":             f.CashAtBank,
		"creditorsWithinOneYear": f.CreditorsWithinOneYear,
		"taxAndSocialSecurity":   f.TaxAndSocialSecurity,
		"creditorsAfterOneYear":  f.CreditorsAfterOneYear,
		"shareCapital":           f.ShareCapital,
		"retainedEarnings":       f.RetainedEarnings,
		"otherReserves":          f.OtherReserves,
	}
}

type CompanyPeriodSection struct {
	CompanyName   string    `json:"companyName" validate:"required"`
	CompanyNumber string    `json:"companyNumber,omitempty"`
	StartDate     Date      `json:"startDate" validate:"required"`
	EndDate       Date      `json:"endDate" validate:"required"`
	IsFirstYear   bool      `json:"isFirstYear"`
	Framework     Framework `json:"framework" validate:"required,oneof=MICRO_FRS105 SMALL_FRS102_1A DORMANT SOLE_TRADER INDIVIDUAL"`
	Directors     []string  `json:"directors"`
	TradingStatus string    `json:"tradingStatus,omitempty" validate:"omitempty,oneof=TRADING DORMANT CEASED"`
}

func (CompanyPeriodSection) SectionKey() SectionKey { return SectionCompanyPeriod }

type FrameworkDisclosuresSection struct {
	Framework                 Framework `json:"framework" validate:"required,oneof=MICRO_FRS105 SMALL_FRS102_1A DORMANT SOLE_TRADER INDIVIDUAL"`
	AuditExempt               bool      `json:"auditExempt"`
	AuditExemptionStatement   string    `json:"auditExemptionStatement,omitempty"`
	DirectorsResponsibilities string    `json:"directorsResponsibilities,omitempty"`
	SmallCompaniesRegime      string    `json:"smallCompaniesRegime,omitempty"`
}

func (FrameworkDisclosuresSection) SectionKey() SectionKey { return SectionFrameworkDisclosures }

type PolicyNote struct {
	Title string `json:"title" validate:"required"`
	Text  string `json:"text" validate:"required"`
}

type AccountingPoliciesSection struct {
	BasisOfPreparation   string       `json:"basisOfPreparation" validate:"required"`
	TurnoverPolicy       string       `json:"turnoverPolicy,omitempty"`
	TangibleAssetsPolicy string       `json:"tangibleAssetsPolicy,omitempty"`
	AdditionalPolicies   []PolicyNote `json:"additionalPolicies,omitempty" validate:"dive"`
}

func (AccountingPoliciesSection) SectionKey() SectionKey { return SectionAccountingPolicies }

type ProfitAndLossSection struct {
	Lines        ProfitAndLossLines  `json:"lines"`
	Comparatives *ProfitAndLossLines `json:"comparatives,omitempty"`
}

func (ProfitAndLossSection) SectionKey() SectionKey { return SectionProfitAndLoss }

type BalanceSheetSection struct {
	Figures      BalanceSheetFigures  `json:"figures"`
	Comparatives *BalanceSheetFigures `json:"comparatives,omitempty"`
}

func (BalanceSheetSection) SectionKey() SectionKey { return SectionBalanceSheet }

type ShareCapitalNote struct {
	ShareCount   int64           `json:"shareCount"`
	NominalValue decimal.Decimal `json:"nominalValue"`
	ShareClass   string          `json:"shareClass,omitempty"`
}

type EmployeeNote struct {
	Include      bool   `json:"include"`
	AverageCount *int64 `json:"averageCount,omitempty"`
}

type ToggleNote struct {
	Include bool   `json:"include"`
	Text    string `json:"text,omitempty"`
}

type NotesSection struct {
	ShareCapital             *ShareCapitalNote `json:"shareCapital,omitempty"`
	Employees                EmployeeNote      `json:"employees"`
	DirectorsLoanNote        ToggleNote        `json:"directorsLoanNote"`
	CommitmentsContingencies ToggleNote        `json:"commitmentsContingencies"`
	AdditionalNotes          string            `json:"additionalNotes,omitempty"`
}

func (NotesSection) SectionKey() SectionKey { return SectionNotes }

type DirectorsApprovalSection struct {
	Approved          bool   `json:"approved"`
	DirectorName      string `json:"directorName,omitempty"`
	ApprovalDate      *Date  `json:"approvalDate,omitempty"`
	ApprovalStatement string `json:"approvalStatement,omitempty"`
}

func (DirectorsApprovalSection) SectionKey() SectionKey { return SectionDirectorsApproval }

// SectionSet holds one optional slot per recognized section. Only these
// seven kinds can exist on a document; each stays unset until first
// written.
type SectionSet struct {
	CompanyPeriod        *CompanyPeriodSection        `json:"companyPeriod,omitempty"`
	FrameworkDisclosures *FrameworkDisclosuresSection `json:"frameworkDisclosures,omitempty"`
	AccountingPolicies   *AccountingPoliciesSection   `json:"accountingPolicies,omitempty"`
	ProfitAndLoss        *ProfitAndLossSection        `json:"profitAndLoss,omitempty"`
	BalanceSheet         *BalanceSheetSection         `json:"balanceSheet,omitempty"`
	Notes                *NotesSection                `json:"notes,omitempty"`
	DirectorsApproval    *DirectorsApprovalSection    `json:"directorsApproval,omitempty"`
}

// Get returns the stored payload for key, or nil when unset.
func (s *SectionSet) Get(key SectionKey) Section {
	switch key {
	case SectionCompanyPeriod:
		if s.CompanyPeriod != nil {
			return s.CompanyPeriod
		}
	case SectionFrameworkDisclosures:
		if s.FrameworkDisclosures != nil {
			return s.FrameworkDisclosures
		}
	case SectionAccountingPolicies:
		if s.AccountingPolicies != nil {
			return s.AccountingPolicies
		}
	case SectionProfitAndLoss:
		if s.ProfitAndLoss != nil {
			return s.ProfitAndLoss
		}
	case SectionBalanceSheet:
		if s.BalanceSheet != nil {
			return s.BalanceSheet
		}
	case SectionNotes:
		if s.Notes != nil {
			return s.Notes
		}
	case SectionDirectorsApproval:
		if s.DirectorsApproval != nil {
			return s.DirectorsApproval
		}
	}
	return nil
}

// Set stores payload under its own key, replacing any previous value.
func (s *SectionSet) Set(payload Section) error {
	switch v := payload.(type) {
	case *CompanyPeriodSection:
		s.CompanyPeriod = v
	case *FrameworkDisclosuresSection:
		s.FrameworkDisclosures = v
	case *AccountingPoliciesSection:
		s.AccountingPolicies = v
	case *ProfitAndLossSection:
		s.ProfitAndLoss = v
	case *BalanceSheetSection:
		s.BalanceSheet = v
	case *NotesSection:
		s.Notes = v
	case *DirectorsApprovalSection:
		s.DirectorsApproval = v
	default:
		return fmt.Errorf("%w: %T", ErrInvalidSectionKey, payload)
	}
	return nil
}

// Clone returns a deep copy. Snapshots and audit images must not share
// pointers with the live document.
func (s *SectionSet) Clone() SectionSet {
	out := SectionSet{}
	if s.CompanyPeriod != nil {
		v := *s.CompanyPeriod
		v.Directors = append([]string(nil), s.CompanyPeriod.Directors...)
		out.CompanyPeriod = &v
	}
	if s.FrameworkDisclosures != nil {
		v := *s.FrameworkDisclosures
		out.FrameworkDisclosures = &v
	}
	if s.AccountingPolicies != nil {
		v := *s.AccountingPolicies
		v.AdditionalPolicies = append([]PolicyNote(nil), s.AccountingPolicies.AdditionalPolicies...)
		out.AccountingPolicies = &v
	}
	if s.ProfitAndLoss != nil {
		v := *s.ProfitAndLoss
		if s.ProfitAndLoss.Comparatives != nil {
			c := *s.ProfitAndLoss.Comparatives
			v.Comparatives = &c
		}
		out.ProfitAndLoss = &v
	}
	if s.BalanceSheet != nil {
		v := *s.BalanceSheet
		if s.BalanceSheet.Comparatives != nil {
			c := *s.BalanceSheet.Comparatives
			v.Comparatives = &c
		}
		out.BalanceSheet = &v
	}
	if s.Notes != nil {
		v := *s.Notes
		if s.Notes.ShareCapital != nil {
			sc := *s.Notes.ShareCapital
			v.ShareCapital = &sc
		}
		if s.Notes.Employees.AverageCount != nil {
			count := *s.Notes.Employees.AverageCount
			v.Employees.AverageCount = &count
		}
		out.Notes = &v
	}
	if s.DirectorsApproval != nil {
		v := *s.DirectorsApproval
		if s.DirectorsApproval.ApprovalDate != nil {
			d := *s.DirectorsApproval.ApprovalDate
			v.ApprovalDate = &d
		}
		out.DirectorsApproval = &v
	}
	return out
}

// Populated returns the keys of every set section, in presentation order.
func (s *SectionSet) Populated() []SectionKey {
	keys := make([]SectionKey, 0, len(SectionKeys))
	for _, key := range SectionKeys {
		if s.Get(key) != nil {
			keys = append(keys, key)
		}
	}
	return keys
}

// Complete reports whether all seven sections are populated.
func (s *SectionSet) Complete() bool {
	return len(s.Populated()) == len(SectionKeys)
}
