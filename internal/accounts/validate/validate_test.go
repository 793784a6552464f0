package validate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwell/praxis/internal/accounts/domain"
)

func hasCode(findings []domain.ValidationError, code string) bool {
	for _, f := range findings {
		if f.Code == code {
			return true
		}
	}
	return false
}

func codes(findings []domain.ValidationError) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Code)
	}
	return out
}

func docWithPeriod(firstYear bool, framework domain.Framework) *domain.AccountsDocument {
	return &domain.AccountsDocument{
		Framework: framework,
		Period: domain.Period{
			StartDate:   domain.NewDate(2025, 4, 1),
			EndDate:     domain.NewDate(2026, 3, 31),
			IsFirstYear: firstYear,
		},
	}
}

func TestSection_SchemaUnknownFieldsAllListed(t *testing.T) {
	v := New()
	raw := []byte(`{"lines": {}, "grossProfit": 1, "bogus": true}`)

	payload, result := v.Section(domain.SectionProfitAndLoss, raw, docWithPeriod(true, domain.FrameworkMicro))

	assert.Nil(t, payload)
	require.Len(t, result.Errors, 2)
	for _, finding := range result.Errors {
		assert.Equal(t, CodeSchemaValidation, finding.Code)
		assert.Equal(t, domain.SectionProfitAndLoss, finding.Section)
	}
	assert.Equal(t, "bogus", result.Errors[0].Field)
	assert.Equal(t, "grossProfit", result.Errors[1].Field)
}

func TestSection_SchemaMissingRequired(t *testing.T) {
	v := New()
	raw := []byte(`{"companyNumber": "12345678"}`)

	payload, result := v.Section(domain.SectionCompanyPeriod, raw, docWithPeriod(true, domain.FrameworkMicro))

	assert.Nil(t, payload)
	assert.True(t, hasCode(result.Errors, CodeSchemaValidation))
	fields := make([]string, 0, len(result.Errors))
	for _, f := range result.Errors {
		fields = append(fields, f.Field)
	}
	assert.Contains(t, fields, "companyName")
	assert.Contains(t, fields, "framework")
}

func TestSection_SchemaBadEnum(t *testing.T) {
	v := New()
	raw := []byte(`{"companyName": "Acme Ltd", "startDate": "2025-04-01", "endDate": "2026-03-31", "framework": "FULL_IFRS", "directors": ["A Smith"]}`)

	payload, result := v.Section(domain.SectionCompanyPeriod, raw, docWithPeriod(true, domain.FrameworkMicro))

	assert.Nil(t, payload)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "framework", result.Errors[0].Field)
	assert.Equal(t, CodeSchemaValidation, result.Errors[0].Code)
}

func TestSection_SchemaRejectsNullPayload(t *testing.T) {
	v := New()

	payload, result := v.Section(domain.SectionNotes, []byte(`null`), nil)

	assert.Nil(t, payload)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, CodeSchemaValidation, result.Errors[0].Code)
}

func TestSection_CompanyPeriodRules(t *testing.T) {
	v := New()
	doc := docWithPeriod(true, domain.FrameworkMicro)

	tests := []struct {
		name      string
		raw       string
		wantErrs  []string
		wantWarns []string
	}{
		{
			name:     "end before start",
			raw:      `{"companyName": "Acme Ltd", "startDate": "2026-03-31", "endDate": "2025-04-01", "framework": "MICRO_FRS105", "directors": ["A Smith"]}`,
			wantErrs: []string{CodeInvalidPeriod},
		},
		{
			name:     "start equals end",
			raw:      `{"companyName": "Acme Ltd", "startDate": "2025-04-01", "endDate": "2025-04-01", "framework": "MICRO_FRS105", "directors": ["A Smith"]}`,
			wantErrs: []string{CodeInvalidPeriod},
		},
		{
			name:      "long period",
			raw:       `{"companyName": "Acme Ltd", "startDate": "2024-01-01", "endDate": "2025-12-31", "framework": "MICRO_FRS105", "directors": ["A Smith"]}`,
			wantWarns: []string{CodeLongPeriod},
		},
		{
			name:     "corporate without directors",
			raw:      `{"companyName": "Acme Ltd", "startDate": "2025-04-01", "endDate": "2026-03-31", "framework": "MICRO_FRS105", "directors": []}`,
			wantErrs: []string{CodeNoDirectors},
		},
		{
			name: "sole trader needs no directors",
			raw:  `{"companyName": "J Smith", "startDate": "2025-04-01", "endDate": "2026-03-31", "framework": "SOLE_TRADER", "directors": []}`,
		},
		{
			name: "dormant still needs directors",
			raw:  `{"companyName": "Idle Ltd", "startDate": "2025-04-01", "endDate": "2026-03-31", "framework": "DORMANT", "directors": []}`,
			wantErrs: []string{CodeNoDirectors},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, result := v.Section(domain.SectionCompanyPeriod, []byte(tt.raw), doc)
			if len(tt.wantErrs) == 0 {
				assert.NotNil(t, payload)
			}
			assert.Equal(t, tt.wantErrs, codesOrNil(result.Errors), "errors")
			assert.Equal(t, tt.wantWarns, codesOrNil(result.Warnings), "warnings")
		})
	}
}

func codesOrNil(findings []domain.ValidationError) []string {
	if len(findings) == 0 {
		return nil
	}
	return codes(findings)
}

func TestSection_ProfitAndLossComparativeSymmetry(t *testing.T) {
	v := New()

	withComparatives := []byte(`{"lines": {"turnover": 1000}, "comparatives": {"turnover": 900}}`)
	withoutComparatives := []byte(`{"lines": {"turnover": 1000}}`)

	_, result := v.Section(domain.SectionProfitAndLoss, withComparatives, docWithPeriod(true, domain.FrameworkMicro))
	assert.True(t, hasCode(result.Errors, CodeFirstYearComparatives))

	_, result = v.Section(domain.SectionProfitAndLoss, withoutComparatives, docWithPeriod(false, domain.FrameworkMicro))
	assert.True(t, hasCode(result.Errors, CodeMissingComparatives))

	payload, result := v.Section(domain.SectionProfitAndLoss, withoutComparatives, docWithPeriod(true, domain.FrameworkMicro))
	assert.True(t, result.Valid())
	require.NotNil(t, payload)
	pl := payload.(*domain.ProfitAndLossSection)
	assert.True(t, pl.Lines.Turnover.Equal(decimal.NewFromInt(1000)))
}

func TestSection_NegativeTurnoverIsWarningOnly(t *testing.T) {
	v := New()
	raw := []byte(`{"lines": {"turnover": -500}}`)

	_, result := v.Section(domain.SectionProfitAndLoss, raw, docWithPeriod(true, domain.FrameworkMicro))

	assert.True(t, result.Valid())
	assert.True(t, hasCode(result.Warnings, CodeNegativeTurnover))
}

func TestSection_BalanceSheetRules(t *testing.T) {
	v := New()
	raw := []byte(`{"figures": {"cashAtBank": -100, "shareCapital": -1}}`)

	_, result := v.Section(domain.SectionBalanceSheet, raw, docWithPeriod(true, domain.FrameworkMicro))

	assert.True(t, hasCode(result.Errors, CodeNegativeShareCapital))
	assert.True(t, hasCode(result.Warnings, CodeNegativeCash))
}

func TestSection_NotesRules(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		raw       string
		framework domain.Framework
		want      []string
	}{
		{
			name:      "corporate without share capital note",
			raw:       `{"employees": {"include": false}}`,
			framework: domain.FrameworkMicro,
			want:      []string{CodeMissingShareCapital},
		},
		{
			name:      "sole trader needs no share capital note",
			raw:       `{"employees": {"include": false}}`,
			framework: domain.FrameworkSoleTrader,
		},
		{
			name:      "employee note without count",
			raw:       `{"shareCapital": {"shareCount": 100, "nominalValue": 1}, "employees": {"include": true}}`,
			framework: domain.FrameworkMicro,
			want:      []string{CodeMissingEmployeeCount},
		},
		{
			name:      "included notes without text",
			raw:       `{"shareCapital": {"shareCount": 100, "nominalValue": 1}, "employees": {"include": false}, "directorsLoanNote": {"include": true}, "commitmentsContingencies": {"include": true}}`,
			framework: domain.FrameworkMicro,
			want:      []string{CodeMissingLoanNoteText, CodeMissingCommitmentsText},
		},
		{
			name:      "negative share count and nominal value",
			raw:       `{"shareCapital": {"shareCount": -5, "nominalValue": -0.5}, "employees": {"include": false}}`,
			framework: domain.FrameworkMicro,
			want:      []string{CodeNegativeShareCount, CodeNegativeNominalValue},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, result := v.Section(domain.SectionNotes, []byte(tt.raw), docWithPeriod(true, tt.framework))
			assert.ElementsMatch(t, tt.want, codesOrNil(result.Errors))
		})
	}
}

func TestSection_DirectorsApprovalRules(t *testing.T) {
	v := New()

	_, result := v.Section(domain.SectionDirectorsApproval, []byte(`{"approved": true}`), nil)
	assert.ElementsMatch(t, []string{CodeMissingDirectorName, CodeMissingApprovalDate}, codes(result.Errors))

	_, result = v.Section(domain.SectionDirectorsApproval, []byte(`{"approved": false}`), nil)
	assert.True(t, result.Valid())

	payload, result := v.Section(domain.SectionDirectorsApproval, []byte(`{"approved": true, "directorName": "A Smith", "approvalDate": "2026-04-12"}`), nil)
	assert.True(t, result.Valid())
	approval := payload.(*domain.DirectorsApprovalSection)
	assert.Equal(t, "2026-04-12", approval.ApprovalDate.String())
}

func TestDocument_FrameworkConsistency(t *testing.T) {
	v := New()
	doc := docWithPeriod(true, domain.FrameworkMicro)
	doc.Sections.CompanyPeriod = &domain.CompanyPeriodSection{
		CompanyName: "Acme Ltd",
		StartDate:   domain.NewDate(2025, 4, 1),
		EndDate:     domain.NewDate(2026, 3, 31),
		Framework:   domain.FrameworkMicro,
		Directors:   []string{"A Smith"},
	}
	doc.Sections.FrameworkDisclosures = &domain.FrameworkDisclosuresSection{
		Framework: domain.FrameworkSmall,
	}

	state := v.Document(doc)

	assert.True(t, hasCode(state.Errors, CodeInconsistentFramework))
}

func TestDocument_RetainedEarningsMismatch(t *testing.T) {
	v := New()
	doc := docWithPeriod(true, domain.FrameworkMicro)
	doc.Sections.ProfitAndLoss = &domain.ProfitAndLossSection{
		Lines: domain.ProfitAndLossLines{Turnover: decimal.NewFromInt(50000)},
	}
	doc.Sections.BalanceSheet = &domain.BalanceSheetSection{
		Figures: domain.BalanceSheetFigures{
			CashAtBank:       decimal.NewFromInt(50100),
			ShareCapital:     decimal.NewFromInt(100),
			RetainedEarnings: decimal.NewFromInt(50000),
		},
	}

	state := v.Document(doc)
	assert.False(t, hasCode(state.Warnings, CodeRetainedEarningsMismatch), "within tolerance when equal")

	doc.Sections.BalanceSheet.Figures.RetainedEarnings = decimal.NewFromInt(48000)
	doc.Sections.BalanceSheet.Figures.CashAtBank = decimal.NewFromInt(48100)
	state = v.Document(doc)
	assert.True(t, hasCode(state.Warnings, CodeRetainedEarningsMismatch))

	doc.Period.IsFirstYear = false
	doc.Sections.ProfitAndLoss.Comparatives = &domain.ProfitAndLossLines{}
	doc.Sections.BalanceSheet.Comparatives = &domain.BalanceSheetFigures{}
	state = v.Document(doc)
	assert.False(t, hasCode(state.Warnings, CodeRetainedEarningsMismatch), "first-year check only")
}

func TestDocument_BalanceSheetImbalance(t *testing.T) {
	v := New()
	doc := docWithPeriod(true, domain.FrameworkMicro)
	doc.Sections.BalanceSheet = &domain.BalanceSheetSection{
		Figures: domain.BalanceSheetFigures{
			CashAtBank:             decimal.NewFromInt(100),
			CreditorsWithinOneYear: decimal.NewFromInt(40),
			RetainedEarnings:       decimal.NewFromInt(50),
		},
	}

	state := v.Document(doc)

	assert.False(t, state.IsBalanced)
	require.True(t, hasCode(state.Errors, CodeBalanceSheetImbalance))
	var message string
	for _, f := range state.Errors {
		if f.Code == CodeBalanceSheetImbalance {
			message = f.Message
		}
	}
	assert.Contains(t, message, "£10.00")
}

func TestDocument_IsBalancedReflectsCalcEngine(t *testing.T) {
	v := New()
	doc := docWithPeriod(true, domain.FrameworkMicro)

	state := v.Document(doc)
	assert.False(t, state.IsBalanced, "no balance sheet means not balanced")
	assert.False(t, hasCode(state.Errors, CodeBalanceSheetImbalance), "no imbalance error without a balance sheet")

	doc.Sections.BalanceSheet = &domain.BalanceSheetSection{
		Figures: domain.BalanceSheetFigures{
			CashAtBank:       decimal.NewFromInt(100),
			RetainedEarnings: decimal.NewFromInt(100),
		},
	}
	state = v.Document(doc)
	assert.True(t, state.IsBalanced)
	assert.False(t, hasCode(state.Errors, CodeBalanceSheetImbalance))
}
