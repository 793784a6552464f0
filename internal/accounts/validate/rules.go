package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerwell/praxis/internal/accounts/domain"
)

// maxPeriodMonths is the longest accounting period accepted without a
// warning. Companies House permits up to 18 months.
const maxPeriodMonths = 18

func rulesFor(key domain.SectionKey, payload domain.Section, doc *domain.AccountsDocument) Result {
	switch section := payload.(type) {
	case *domain.CompanyPeriodSection:
		return companyPeriodRules(section)
	case *domain.ProfitAndLossSection:
		return profitAndLossRules(section, doc)
	case *domain.BalanceSheetSection:
		return balanceSheetRules(section, doc)
	case *domain.NotesSection:
		return notesRules(section, doc)
	case *domain.DirectorsApprovalSection:
		return directorsApprovalRules(section)
	}
	return Result{}
}

func companyPeriodRules(section *domain.CompanyPeriodSection) Result {
	var result Result
	key := domain.SectionCompanyPeriod

	if !section.StartDate.IsZero() && !section.EndDate.IsZero() {
		if !section.StartDate.Time.Before(section.EndDate.Time) {
			result.Errors = append(result.Errors, domain.ValidationError{
				Field:   "endDate",
				Message: "period end must be after period start",
				Code:    CodeInvalidPeriod,
				Section: key,
			})
		} else if section.EndDate.Time.After(section.StartDate.Time.AddDate(0, maxPeriodMonths, 0)) {
			result.Warnings = append(result.Warnings, domain.ValidationError{
				Field:   "endDate",
				Message: fmt.Sprintf("period is longer than %d months", maxPeriodMonths),
				Code:    CodeLongPeriod,
				Section: key,
			})
		}
	}

	if section.Framework.Corporate() && len(section.Directors) == 0 {
		result.Errors = append(result.Errors, domain.ValidationError{
			Field:   "directors",
			Message: "at least one director is required",
			Code:    CodeNoDirectors,
			Section: key,
		})
	}

	return result
}

func profitAndLossRules(section *domain.ProfitAndLossSection, doc *domain.AccountsDocument) Result {
	var result Result
	key := domain.SectionProfitAndLoss

	result.Errors = append(result.Errors, comparativeRules(key, section.Comparatives != nil, doc)...)

	if section.Lines.Turnover.IsNegative() {
		result.Warnings = append(result.Warnings, domain.ValidationError{
			Field:   "lines.turnover",
			Message: "turnover is negative",
			Code:    CodeNegativeTurnover,
			Section: key,
		})
	}

	return result
}

func balanceSheetRules(section *domain.BalanceSheetSection, doc *domain.AccountsDocument) Result {
	var result Result
	key := domain.SectionBalanceSheet

	result.Errors = append(result.Errors, comparativeRules(key, section.Comparatives != nil, doc)...)

	if section.Figures.CashAtBank.IsNegative() {
		result.Warnings = append(result.Warnings, domain.ValidationError{
			Field:   "figures.cashAtBank",
			Message: "cash at bank is negative",
			Code:    CodeNegativeCash,
			Section: key,
		})
	}
	if section.Figures.ShareCapital.IsNegative() {
		result.Errors = append(result.Errors, domain.ValidationError{
			Field:   "figures.shareCapital",
			Message: "share capital cannot be negative",
			Code:    CodeNegativeShareCapital,
			Section: key,
		})
	}

	return result
}

// comparativeRules enforces the first-year symmetry: a first period must
// not carry comparatives, every later period must.
func comparativeRules(key domain.SectionKey, hasComparatives bool, doc *domain.AccountsDocument) []domain.ValidationError {
	if doc == nil {
		return nil
	}
	if doc.Period.IsFirstYear && hasComparatives {
		return []domain.ValidationError{{
			Field:   "comparatives",
			Message: "a first-year document cannot carry comparative figures",
			Code:    CodeFirstYearComparatives,
			Section: key,
		}}
	}
	if !doc.Period.IsFirstYear && !hasComparatives {
		return []domain.ValidationError{{
			Field:   "comparatives",
			Message: "comparative figures are required after the first year",
			Code:    CodeMissingComparatives,
			Section: key,
		}}
	}
	return nil
}

func notesRules(section *domain.NotesSection, doc *domain.AccountsDocument) Result {
	var result Result
	key := domain.SectionNotes

	corporate := doc == nil || doc.Framework.Corporate()
	if corporate && section.ShareCapital == nil {
		result.Errors = append(result.Errors, domain.ValidationError{
			Field:   "shareCapital",
			Message: "a share capital note is required",
			Code:    CodeMissingShareCapital,
			Section: key,
		})
	}
	if sc := section.ShareCapital; sc != nil {
		if sc.ShareCount < 0 {
			result.Errors = append(result.Errors, domain.ValidationError{
				Field:   "shareCapital.shareCount",
				Message: "share count cannot be negative",
				Code:    CodeNegativeShareCount,
				Section: key,
			})
		}
		if sc.NominalValue.IsNegative() {
			result.Errors = append(result.Errors, domain.ValidationError{
				Field:   "shareCapital.nominalValue",
				Message: "nominal value cannot be negative",
				Code:    CodeNegativeNominalValue,
				Section: key,
			})
		}
	}

	if section.Employees.Include && section.Employees.AverageCount == nil {
		result.Errors = append(result.Errors, domain.ValidationError{
			Field:   "employees.averageCount",
			Message: "average employee count is required when the employee note is included",
			Code:    CodeMissingEmployeeCount,
			Section: key,
		})
	}
	if section.DirectorsLoanNote.Include && section.DirectorsLoanNote.Text == "" {
		result.Errors = append(result.Errors, domain.ValidationError{
			Field:   "directorsLoanNote.text",
			Message: "loan note text is required when the note is included",
			Code:    CodeMissingLoanNoteText,
			Section: key,
		})
	}
	if section.CommitmentsContingencies.Include && section.CommitmentsContingencies.Text == "" {
		result.Errors = append(result.Errors, domain.ValidationError{
			Field:   "commitmentsContingencies.text",
			Message: "commitments text is required when the note is included",
			Code:    CodeMissingCommitmentsText,
			Section: key,
		})
	}

	return result
}

func directorsApprovalRules(section *domain.DirectorsApprovalSection) Result {
	var result Result
	key := domain.SectionDirectorsApproval

	if section.Approved {
		if section.DirectorName == "" {
			result.Errors = append(result.Errors, domain.ValidationError{
				Field:   "directorName",
				Message: "an approving director is required",
				Code:    CodeMissingDirectorName,
				Section: key,
			})
		}
		if section.ApprovalDate == nil || section.ApprovalDate.IsZero() {
			result.Errors = append(result.Errors, domain.ValidationError{
				Field:   "approvalDate",
				Message: "an approval date is required",
				Code:    CodeMissingApprovalDate,
				Section: key,
			})
		}
	}

	return result
}

// onePound is the tolerance for the retained-earnings cross-check.
var onePound = decimal.NewFromInt(1)
