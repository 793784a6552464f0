// Package calc derives statutory accounts figures from entered section
// data. Everything here is pure: deterministic functions of their inputs,
// no I/O, no stored state.
package calc

import (
	"github.com/shopspring/decimal"

	"github.com/ledgerwell/praxis/internal/accounts/domain"
)

// Ratio keys as they appear in API responses.
const (
	RatioCurrent        = "currentRatio"
	RatioQuick          = "quickRatio"
	RatioDebtToEquity   = "debtToEquityRatio"
	RatioReturnOnAssets = "returnOnAssets"
	RatioReturnOnEquity = "returnOnEquity"
	RatioGrossMargin    = "grossProfitMargin"
	RatioNetMargin      = "netProfitMargin"
)

var (
	// balanceTolerance is the rounding slack allowed by the balance
	// check: a difference of exactly 0.01 is already out of balance.
	balanceTolerance = decimal.New(1, -2)

	hundred = decimal.NewFromInt(100)
)

// Totals computes the derived figures for the current year. A missing
// section yields zeroed totals, never an error.
func Totals(sections *domain.SectionSet) domain.CalculationResult {
	result := domain.CalculationResult{}
	if sections == nil {
		return result
	}
	if pl := sections.ProfitAndLoss; pl != nil {
		result.ProfitAndLoss = profitAndLossTotals(pl.Lines)
	}
	if bs := sections.BalanceSheet; bs != nil {
		result.BalanceSheet = balanceSheetTotals(bs.Figures)
	}
	return result
}

// ComparativeTotals computes the same derived figures over the
// comparative blocks. Zeroed when comparatives are absent.
func ComparativeTotals(sections *domain.SectionSet) domain.CalculationResult {
	result := domain.CalculationResult{}
	if sections == nil {
		return result
	}
	if pl := sections.ProfitAndLoss; pl != nil && pl.Comparatives != nil {
		result.ProfitAndLoss = profitAndLossTotals(*pl.Comparatives)
	}
	if bs := sections.BalanceSheet; bs != nil && bs.Comparatives != nil {
		result.BalanceSheet = balanceSheetTotals(*bs.Comparatives)
	}
	return result
}

func profitAndLossTotals(l domain.ProfitAndLossLines) domain.ProfitAndLossTotals {
	grossProfit := l.Turnover.Sub(l.CostOfSales)
	totalIncome := grossProfit.Add(l.OtherIncome)
	totalExpenses := l.AdminExpenses.
		Add(l.Wages).
		Add(l.Rent).
		Add(l.Motor).
		Add(l.ProfessionalFees).
		Add(l.OtherExpenses)
	operatingProfit := totalIncome.Sub(totalExpenses)
	profitBeforeTax := operatingProfit.Sub(l.InterestPayable)
	profitAfterTax := profitBeforeTax.Sub(l.TaxCharge)

	return domain.ProfitAndLossTotals{
		GrossProfit:     grossProfit,
		TotalIncome:     totalIncome,
		TotalExpenses:   totalExpenses,
		OperatingProfit: operatingProfit,
		ProfitBeforeTax: profitBeforeTax,
		ProfitAfterTax:  profitAfterTax,
	}
}

func balanceSheetTotals(f domain.BalanceSheetFigures) domain.BalanceSheetTotals {
	fixedAssets := f.TangibleAssets.Add(f.IntangibleAssets).Add(f.Investments)
	currentAssets := f.Stock.Add(f.Debtors).Add(f.CashAtBank)
	currentLiabilities := f.CreditorsWithinOneYear.Add(f.TaxAndSocialSecurity)
	longTermLiabilities := f.CreditorsAfterOneYear
	equity := f.ShareCapital.Add(f.RetainedEarnings).Add(f.OtherReserves)

	totalAssets := fixedAssets.Add(currentAssets)
	totalLiabilities := currentLiabilities.Add(longTermLiabilities)

	return domain.BalanceSheetTotals{
		TotalFixedAssets:         fixedAssets,
		TotalCurrentAssets:       currentAssets,
		TotalAssets:              totalAssets,
		TotalCurrentLiabilities:  currentLiabilities,
		TotalLongTermLiabilities: longTermLiabilities,
		TotalLiabilities:         totalLiabilities,
		TotalEquity:              equity,
		NetAssets:                totalAssets.Sub(totalLiabilities),
	}
}

// Ratios computes the financial ratio set. A ratio is present only when
// its denominator is strictly positive; absence means "not applicable".
// Return-on and margin ratios are percentages.
func Ratios(sections *domain.SectionSet) domain.RatioSet {
	ratios := domain.RatioSet{}
	if sections == nil {
		return ratios
	}

	totals := Totals(sections)
	pl := totals.ProfitAndLoss
	bs := totals.BalanceSheet

	if bs.TotalCurrentLiabilities.IsPositive() {
		ratios[RatioCurrent] = bs.TotalCurrentAssets.Div(bs.TotalCurrentLiabilities)
		quick := bs.TotalCurrentAssets
		if section := sections.BalanceSheet; section != nil {
			quick = quick.Sub(section.Figures.Stock)
		}
		ratios[RatioQuick] = quick.Div(bs.TotalCurrentLiabilities)
	}
	if bs.TotalEquity.IsPositive() {
		ratios[RatioDebtToEquity] = bs.TotalLiabilities.Div(bs.TotalEquity)
		ratios[RatioReturnOnEquity] = pl.ProfitAfterTax.Div(bs.TotalEquity).Mul(hundred)
	}
	if bs.TotalAssets.IsPositive() {
		ratios[RatioReturnOnAssets] = pl.ProfitAfterTax.Div(bs.TotalAssets).Mul(hundred)
	}
	if section := sections.ProfitAndLoss; section != nil && section.Lines.Turnover.IsPositive() {
		turnover := section.Lines.Turnover
		ratios[RatioGrossMargin] = pl.GrossProfit.Div(turnover).Mul(hundred)
		ratios[RatioNetMargin] = pl.ProfitAfterTax.Div(turnover).Mul(hundred)
	}
	return ratios
}

// PercentageChanges compares each field of current against prior.
// A prior of zero with a nonzero current is reported as exactly 100.
func PercentageChanges(current, prior map[string]decimal.Decimal) map[string]decimal.Decimal {
	changes := make(map[string]decimal.Decimal, len(current))
	for field, value := range current {
		previous := prior[field]
		switch {
		case !previous.IsZero():
			changes[field] = value.Sub(previous).Div(previous.Abs()).Mul(hundred)
		case !value.IsZero():
			changes[field] = hundred
		default:
			changes[field] = decimal.Zero
		}
	}
	return changes
}

// Changes builds the period-over-period change set for every statement
// that carries comparatives. Nil when neither statement does.
func Changes(sections *domain.SectionSet) *domain.ChangeSet {
	if sections == nil {
		return nil
	}
	var set domain.ChangeSet
	if pl := sections.ProfitAndLoss; pl != nil && pl.Comparatives != nil {
		set.ProfitAndLoss = PercentageChanges(pl.Lines.FieldMap(), pl.Comparatives.FieldMap())
	}
	if bs := sections.BalanceSheet; bs != nil && bs.Comparatives != nil {
		set.BalanceSheet = PercentageChanges(bs.Figures.FieldMap(), bs.Comparatives.FieldMap())
	}
	if set.ProfitAndLoss == nil && set.BalanceSheet == nil {
		return nil
	}
	return &set
}

// IsBalanced checks the accounting identity assets = liabilities +
// equity within tolerance. False when the balance sheet is absent.
func IsBalanced(section *domain.BalanceSheetSection) bool {
	if section == nil {
		return false
	}
	return Imbalance(section).Abs().LessThan(balanceTolerance)
}

// Imbalance returns the signed difference assets - (liabilities +
// equity). Zero when the balance sheet is absent.
func Imbalance(section *domain.BalanceSheetSection) decimal.Decimal {
	if section == nil {
		return decimal.Zero
	}
	totals := balanceSheetTotals(section.Figures)
	return totals.TotalAssets.Sub(totals.TotalLiabilities.Add(totals.TotalEquity))
}

var calculatedFields = map[domain.SectionKey][]string{
	domain.SectionProfitAndLoss: {
		"grossProfit",
		"operatingProfit",
		"profitBeforeTax",
		"profitAfterTax",
		"totalIncome",
		"totalExpenses",
	},
	domain.SectionBalanceSheet: {
		"totalFixedAssets",
		"totalCurrentAssets",
		"totalAssets",
		"totalCurrentLiabilities",
		"totalLongTermLiabilities",
		"totalLiabilities",
		"totalEquity",
		"netAssets",
	},
}

// CalculatedFields lists the derived field names a caller must reject as
// manual input for the given section. Empty for sections without derived
// figures.
func CalculatedFields(key domain.SectionKey) []string {
	fields := calculatedFields[key]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// IsCalculatedField reports whether field is derived for the section.
func IsCalculatedField(key domain.SectionKey, field string) bool {
	for _, name := range calculatedFields[key] {
		if name == field {
			return true
		}
	}
	return false
}
