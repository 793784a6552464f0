package validate

import (
	"fmt"

	"github.com/ledgerwell/praxis/internal/accounts/calc"
	"github.com/ledgerwell/praxis/internal/accounts/domain"
)

// Document validates every populated section plus the cross-section
// rules and returns the state stored on the document. IsBalanced always
// reflects the calculation engine's check, whether or not an imbalance
// error was appended.
func (v *Validator) Document(doc *domain.AccountsDocument) domain.ValidationState {
	state := domain.ValidationState{
		Errors:   []domain.ValidationError{},
		Warnings: []domain.ValidationError{},
	}
	if doc == nil {
		return state
	}

	for _, key := range doc.Sections.Populated() {
		payload := doc.Sections.Get(key)
		state.Errors = append(state.Errors, v.structErrors(key, payload)...)
		result := rulesFor(key, payload, doc)
		state.Errors = append(state.Errors, result.Errors...)
		state.Warnings = append(state.Warnings, result.Warnings...)
	}

	state.Errors = append(state.Errors, frameworkConsistency(doc)...)
	state.Warnings = append(state.Warnings, retainedEarningsCheck(doc)...)

	state.IsBalanced = calc.IsBalanced(doc.Sections.BalanceSheet)
	if doc.Sections.BalanceSheet != nil && !state.IsBalanced {
		diff := calc.Imbalance(doc.Sections.BalanceSheet)
		state.Errors = append(state.Errors, domain.ValidationError{
			Field:   "figures",
			Message: fmt.Sprintf("balance sheet does not balance: assets differ from liabilities plus equity by £%s", diff.Abs().StringFixed(2)),
			Code:    CodeBalanceSheetImbalance,
			Section: domain.SectionBalanceSheet,
		})
	}

	return state
}

// frameworkConsistency requires the company period and framework
// disclosures to agree on the reporting framework when both are present.
func frameworkConsistency(doc *domain.AccountsDocument) []domain.ValidationError {
	cp := doc.Sections.CompanyPeriod
	fd := doc.Sections.FrameworkDisclosures
	if cp == nil || fd == nil || cp.Framework == fd.Framework {
		return nil
	}
	return []domain.ValidationError{{
		Field:   "framework",
		Message: fmt.Sprintf("framework %s disagrees with company period framework %s", fd.Framework, cp.Framework),
		Code:    CodeInconsistentFramework,
		Section: domain.SectionFrameworkDisclosures,
	}}
}

// retainedEarningsCheck: in a first year with no brought-forward balance,
// retained earnings should equal profit after tax within £1.
func retainedEarningsCheck(doc *domain.AccountsDocument) []domain.ValidationError {
	if !doc.Period.IsFirstYear {
		return nil
	}
	pl := doc.Sections.ProfitAndLoss
	bs := doc.Sections.BalanceSheet
	if pl == nil || bs == nil {
		return nil
	}

	profitAfterTax := calc.Totals(&doc.Sections).ProfitAndLoss.ProfitAfterTax
	retained := bs.Figures.RetainedEarnings
	if profitAfterTax.Sub(retained).Abs().LessThanOrEqual(onePound) {
		return nil
	}
	return []domain.ValidationError{{
		Field:   "figures.retainedEarnings",
		Message: fmt.Sprintf("retained earnings £%s differ from profit after tax £%s", retained.StringFixed(2), profitAfterTax.StringFixed(2)),
		Code:    CodeRetainedEarningsMismatch,
		Section: domain.SectionBalanceSheet,
	}}
}
