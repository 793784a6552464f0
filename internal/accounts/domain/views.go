package domain

import "github.com/shopspring/decimal"

// ProfitAndLossTotals are the derived profit and loss figures. They are
// computed on read and rejected as manual input.
type ProfitAndLossTotals struct {
	GrossProfit     decimal.Decimal `json:"grossProfit"`
	TotalIncome     decimal.Decimal `json:"totalIncome"`
	TotalExpenses   decimal.Decimal `json:"totalExpenses"`
	OperatingProfit decimal.Decimal `json:"operatingProfit"`
	ProfitBeforeTax decimal.Decimal `json:"profitBeforeTax"`
	ProfitAfterTax  decimal.Decimal `json:"profitAfterTax"`
}

// BalanceSheetTotals are the derived balance sheet aggregates.
type BalanceSheetTotals struct {
	TotalFixedAssets         decimal.Decimal `json:"totalFixedAssets"`
	TotalCurrentAssets       decimal.Decimal `json:"totalCurrentAssets"`
	TotalAssets              decimal.Decimal `json:"totalAssets"`
	TotalCurrentLiabilities  decimal.Decimal `json:"totalCurrentLiabilities"`
	TotalLongTermLiabilities decimal.Decimal `json:"totalLongTermLiabilities"`
	TotalLiabilities         decimal.Decimal `json:"totalLiabilities"`
	TotalEquity              decimal.Decimal `json:"totalEquity"`
	NetAssets                decimal.Decimal `json:"netAssets"`
}

type CalculationResult struct {
	ProfitAndLoss ProfitAndLossTotals `json:"profitAndLoss"`
	BalanceSheet  BalanceSheetTotals  `json:"balanceSheet"`
}

// RatioSet maps ratio names to values. A ratio whose denominator is not
// strictly positive is absent, never zero.
type RatioSet map[string]decimal.Decimal

// ChangeSet holds period-over-period percentage changes per field, one
// map per statement. Present only when comparatives exist.
type ChangeSet struct {
	ProfitAndLoss map[string]decimal.Decimal `json:"profitAndLoss,omitempty"`
	BalanceSheet  map[string]decimal.Decimal `json:"balanceSheet,omitempty"`
}

// DocumentView is a document decorated with freshly computed figures.
// Decorations are view-only; they are never persisted.
type DocumentView struct {
	AccountsDocument
	Calculations      CalculationResult `json:"calculations"`
	Ratios            RatioSet          `json:"ratios,omitempty"`
	PercentageChanges *ChangeSet        `json:"percentage_changes,omitempty"`
}
