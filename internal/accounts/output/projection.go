package output

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerwell/praxis/internal/accounts/calc"
	"github.com/ledgerwell/praxis/internal/accounts/domain"
	"github.com/ledgerwell/praxis/internal/accounts/render"
	"github.com/ledgerwell/praxis/internal/config"
	"github.com/ledgerwell/praxis/internal/providers/pdf"
)

type frameworkHeading struct {
	title string
	note  string
}

var frameworkHeadings = map[domain.Framework]frameworkHeading{
	domain.FrameworkMicro: {
		title: "Micro-entity Accounts",
		note:  "Prepared in accordance with FRS 105, the Financial Reporting Standard applicable to the Micro-entities Regime.",
	},
	domain.FrameworkSmall: {
		title: "Small Company Accounts",
		note:  "Prepared in accordance with Section 1A of FRS 102, the Financial Reporting Standard applicable in the UK and Republic of Ireland.",
	},
	domain.FrameworkDormant: {
		title: "Dormant Company Accounts",
		note:  "Prepared in accordance with the provisions of the Companies Act 2006 applicable to dormant companies.",
	},
	domain.FrameworkSoleTrader: {
		title: "Sole Trader Accounts",
		note:  "Prepared from the books and records of the business.",
	},
	domain.FrameworkIndividual: {
		title: "Personal Accounts",
		note:  "Prepared from the records provided by the individual.",
	},
}

const dormantStatement = "The company was dormant throughout the period within the meaning of section 1169 of the Companies Act 2006."

// BuildRenderInput projects a document onto the statement layout. All
// derived figures come from the calculation engine; nothing here reads
// stored totals.
func BuildRenderInput(doc *domain.AccountsDocument, practice config.PracticeConfig, generatedAt time.Time) render.RenderInput {
	input := render.RenderInput{
		Practice: render.PracticeView{
			Name:         practice.Name,
			AddressLines: practice.AddressLines,
			Phone:        practice.Phone,
			Email:        practice.Email,
			Website:      practice.Website,
		},
		Company:     buildCompanyView(doc),
		GeneratedAt: generatedAt,
	}

	totals := calc.Totals(&doc.Sections)
	priorTotals := calc.ComparativeTotals(&doc.Sections)

	// Dormant accounts are balance sheet and notes only.
	if doc.Framework != domain.FrameworkDormant {
		input.ProfitAndLoss = buildProfitAndLossView(doc.Sections.ProfitAndLoss, totals, priorTotals, input.Company.Corporate)
	}
	input.BalanceSheet = buildBalanceSheetView(doc.Sections.BalanceSheet, totals, priorTotals, input.Company.Corporate)

	input.Policies = buildPolicyViews(doc.Sections.AccountingPolicies)
	input.Notes = buildNoteViews(doc)
	input.Disclosures = buildDisclosures(doc)
	input.Approval = buildApprovalView(doc.Sections.DirectorsApproval)

	return input
}

func buildCompanyView(doc *domain.AccountsDocument) render.CompanyView {
	view := render.CompanyView{
		Number:      doc.CompanyNumber,
		PeriodStart: doc.Period.StartDate.Time,
		PeriodEnd:   doc.Period.EndDate.Time,
		IsFirstYear: doc.Period.IsFirstYear,
		Corporate:   doc.Framework.Corporate(),
	}

	if cp := doc.Sections.CompanyPeriod; cp != nil {
		view.Name = cp.CompanyName
		if cp.CompanyNumber != "" {
			view.Number = cp.CompanyNumber
		}
		view.Directors = cp.Directors
		view.TradingStatus = cp.TradingStatus
	}

	heading := frameworkHeadings[doc.Framework]
	view.FrameworkTitle = heading.title
	view.FrameworkNote = heading.note

	return view
}

// statementBuilder accumulates rows, skipping detail lines that are zero in
// both periods so dormant and sparse documents stay readable.
type statementBuilder struct {
	hasPrior bool
	rows     []render.StatementRow
}

func (b *statementBuilder) shown(current, prior decimal.Decimal) bool {
	if !current.IsZero() {
		return true
	}
	return b.hasPrior && !prior.IsZero()
}

func (b *statementBuilder) append(label string, current, prior decimal.Decimal, negate, total bool) {
	if negate {
		current = current.Neg()
		prior = prior.Neg()
	}
	row := render.StatementRow{Label: label, Current: &current, Total: total}
	if b.hasPrior {
		row.Prior = &prior
	}
	b.rows = append(b.rows, row)
}

// line adds a detail row when it is nonzero in either period.
func (b *statementBuilder) line(label string, current, prior decimal.Decimal, negate bool) {
	if !b.shown(current, prior) {
		return
	}
	b.append(label, current, prior, negate, false)
}

// always adds a detail row regardless of value.
func (b *statementBuilder) always(label string, current, prior decimal.Decimal) {
	b.append(label, current, prior, false, false)
}

// total adds an emphasised derived row.
func (b *statementBuilder) total(label string, current, prior decimal.Decimal) {
	b.append(label, current, prior, false, true)
}

func buildProfitAndLossView(section *domain.ProfitAndLossSection, totals, priorTotals domain.CalculationResult, corporate bool) *render.StatementView {
	if section == nil {
		return nil
	}

	title := "Profit and Loss Account"
	if !corporate {
		title = "Income and Expenditure Account"
	}

	lines := section.Lines
	var prior domain.ProfitAndLossLines
	b := &statementBuilder{hasPrior: section.Comparatives != nil}
	if b.hasPrior {
		prior = *section.Comparatives
	}

	cur := totals.ProfitAndLoss
	pri := priorTotals.ProfitAndLoss

	b.always("Turnover", lines.Turnover, prior.Turnover)
	if b.shown(lines.CostOfSales, prior.CostOfSales) {
		b.line("Cost of sales", lines.CostOfSales, prior.CostOfSales, true)
		b.total("Gross profit", cur.GrossProfit, pri.GrossProfit)
	}
	b.line("Other income", lines.OtherIncome, prior.OtherIncome, false)
	b.line("Administrative expenses", lines.AdminExpenses, prior.AdminExpenses, true)
	b.line("Wages and salaries", lines.Wages, prior.Wages, true)
	b.line("Rent and rates", lines.Rent, prior.Rent, true)
	b.line("Motor and travel expenses", lines.Motor, prior.Motor, true)
	b.line("Professional fees", lines.ProfessionalFees, prior.ProfessionalFees, true)
	b.line("Other expenses", lines.OtherExpenses, prior.OtherExpenses, true)
	b.total("Operating profit", cur.OperatingProfit, pri.OperatingProfit)
	if b.shown(lines.InterestPayable, prior.InterestPayable) {
		b.line("Interest payable", lines.InterestPayable, prior.InterestPayable, true)
		b.total("Profit before taxation", cur.ProfitBeforeTax, pri.ProfitBeforeTax)
	}
	b.line("Tax on profit", lines.TaxCharge, prior.TaxCharge, true)
	b.total("Profit for the financial year", cur.ProfitAfterTax, pri.ProfitAfterTax)

	return &render.StatementView{
		Title:    title,
		HasPrior: b.hasPrior,
		Rows:     b.rows,
	}
}

func buildBalanceSheetView(section *domain.BalanceSheetSection, totals, priorTotals domain.CalculationResult, corporate bool) *render.StatementView {
	if section == nil {
		return nil
	}

	figures := section.Figures
	var prior domain.BalanceSheetFigures
	b := &statementBuilder{hasPrior: section.Comparatives != nil}
	if b.hasPrior {
		prior = *section.Comparatives
	}

	cur := totals.BalanceSheet
	pri := priorTotals.BalanceSheet

	b.line("Intangible assets", figures.IntangibleAssets, prior.IntangibleAssets, false)
	b.line("Tangible assets", figures.TangibleAssets, prior.TangibleAssets, false)
	b.line("Investments", figures.Investments, prior.Investments, false)
	if b.shown(cur.TotalFixedAssets, pri.TotalFixedAssets) {
		b.total("Total fixed assets", cur.TotalFixedAssets, pri.TotalFixedAssets)
	}
	b.line("Stocks", figures.Stock, prior.Stock, false)
	b.line("Debtors", figures.Debtors, prior.Debtors, false)
	b.line("Cash at bank and in hand", figures.CashAtBank, prior.CashAtBank, false)
	if b.shown(cur.TotalCurrentAssets, pri.TotalCurrentAssets) {
		b.total("Total current assets", cur.TotalCurrentAssets, pri.TotalCurrentAssets)
	}
	b.line("Creditors: amounts falling due within one year", figures.CreditorsWithinOneYear, prior.CreditorsWithinOneYear, true)
	b.line("Taxation and social security", figures.TaxAndSocialSecurity, prior.TaxAndSocialSecurity, true)
	b.line("Creditors: amounts falling due after more than one year", figures.CreditorsAfterOneYear, prior.CreditorsAfterOneYear, true)
	b.total("Net assets", cur.NetAssets, pri.NetAssets)
	b.line("Called up share capital", figures.ShareCapital, prior.ShareCapital, false)
	b.line("Profit and loss account", figures.RetainedEarnings, prior.RetainedEarnings, false)
	b.line("Other reserves", figures.OtherReserves, prior.OtherReserves, false)

	equityLabel := "Shareholders' funds"
	if !corporate {
		equityLabel = "Capital account"
	}
	b.total(equityLabel, cur.TotalEquity, pri.TotalEquity)

	return &render.StatementView{
		Title:    "Balance Sheet",
		HasPrior: b.hasPrior,
		Rows:     b.rows,
	}
}

func buildPolicyViews(section *domain.AccountingPoliciesSection) []render.PolicyView {
	if section == nil {
		return nil
	}

	var policies []render.PolicyView
	if section.BasisOfPreparation != "" {
		policies = append(policies, render.PolicyView{Title: "Basis of preparation", Text: section.BasisOfPreparation})
	}
	if section.TurnoverPolicy != "" {
		policies = append(policies, render.PolicyView{Title: "Turnover", Text: section.TurnoverPolicy})
	}
	if section.TangibleAssetsPolicy != "" {
		policies = append(policies, render.PolicyView{Title: "Tangible fixed assets", Text: section.TangibleAssetsPolicy})
	}
	for _, extra := range section.AdditionalPolicies {
		policies = append(policies, render.PolicyView{Title: extra.Title, Text: extra.Text})
	}
	return policies
}

func buildNoteViews(doc *domain.AccountsDocument) []render.NoteView {
	notes := doc.Sections.Notes
	if notes == nil {
		return nil
	}

	var views []render.NoteView

	if emp := notes.Employees; emp.Include {
		var count int64
		if emp.AverageCount != nil {
			count = *emp.AverageCount
		}
		views = append(views, render.NoteView{
			Title: "Employees",
			Lines: []string{fmt.Sprintf("The average number of employees during the period was %d.", count)},
		})
	}

	if sc := notes.ShareCapital; sc != nil && doc.Framework.Corporate() {
		class := sc.ShareClass
		if class == "" {
			class = "ordinary"
		}
		countValue := decimal.NewFromInt(sc.ShareCount)
		views = append(views, render.NoteView{
			Title: "Share capital",
			Lines: []string{fmt.Sprintf(
				"Called up, allotted and fully paid: %s %s shares of %s each.",
				render.FormatAmount(&countValue), class, formatNominalValue(sc.NominalValue),
			)},
		})
	}

	if loans := notes.DirectorsLoanNote; loans.Include && loans.Text != "" {
		views = append(views, render.NoteView{
			Title: "Directors' advances and credits",
			Lines: []string{loans.Text},
		})
	}

	if cc := notes.CommitmentsContingencies; cc.Include && cc.Text != "" {
		views = append(views, render.NoteView{
			Title: "Financial commitments and contingencies",
			Lines: []string{cc.Text},
		})
	}

	if pl := doc.Sections.ProfitAndLoss; pl != nil && !pl.Lines.DividendsDeclared.IsZero() {
		views = append(views, render.NoteView{
			Title: "Dividends",
			Lines: []string{fmt.Sprintf(
				"Dividends of %s were declared during the period.",
				render.FormatGBP(pl.Lines.DividendsDeclared),
			)},
		})
	}

	if notes.AdditionalNotes != "" {
		views = append(views, render.NoteView{
			Title: "Other information",
			Lines: []string{notes.AdditionalNotes},
		})
	}

	return views
}

func buildDisclosures(doc *domain.AccountsDocument) []string {
	var disclosures []string

	if fd := doc.Sections.FrameworkDisclosures; fd != nil {
		if fd.AuditExempt && fd.AuditExemptionStatement != "" {
			disclosures = append(disclosures, fd.AuditExemptionStatement)
		}
		if fd.DirectorsResponsibilities != "" {
			disclosures = append(disclosures, fd.DirectorsResponsibilities)
		}
		if fd.SmallCompaniesRegime != "" {
			disclosures = append(disclosures, fd.SmallCompaniesRegime)
		}
	}

	if doc.Framework == domain.FrameworkDormant {
		disclosures = append(disclosures, dormantStatement)
	}

	return disclosures
}

func buildApprovalView(section *domain.DirectorsApprovalSection) *render.ApprovalView {
	if section == nil || !section.Approved {
		return nil
	}

	view := &render.ApprovalView{
		DirectorName: section.DirectorName,
		Statement:    section.ApprovalStatement,
	}
	if section.ApprovalDate != nil {
		view.ApprovedOn = section.ApprovalDate.Time
	}
	return view
}

// formatNominalValue prints a share nominal value, keeping pence only when
// the value is fractional.
func formatNominalValue(value decimal.Decimal) string {
	if value.IsInteger() {
		return render.FormatGBP(value)
	}
	return "£" + value.StringFixed(2)
}

// BuildStatementData flattens a render input into the preformatted strings
// the PDF builder consumes, so both outputs print identical figures.
func BuildStatementData(input render.RenderInput) pdf.StatementData {
	data := pdf.StatementData{
		PracticeName:   input.Practice.Name,
		PracticeLines:  practiceLines(input.Practice),
		CompanyName:    input.Company.Name,
		FrameworkTitle: input.Company.FrameworkTitle,
		FrameworkNote:  input.Company.FrameworkNote,
		PeriodLabel:    periodLabel(input.Company),
		Disclosures:    input.Disclosures,
		GeneratedOn:    render.FormatLongDate(input.GeneratedAt),
	}

	if input.Company.Corporate {
		data.CompanyNumber = input.Company.Number
		data.Directors = input.Company.Directors
	}

	data.ProfitAndLoss = buildStatementTable(input.ProfitAndLoss, input.Company)
	data.BalanceSheet = buildStatementTable(input.BalanceSheet, input.Company)

	for _, policy := range input.Policies {
		data.Policies = append(data.Policies, pdf.NoteBlock{Title: policy.Title, Lines: []string{policy.Text}})
	}
	for _, note := range input.Notes {
		data.Notes = append(data.Notes, pdf.NoteBlock{Title: note.Title, Lines: note.Lines})
	}

	if approval := input.Approval; approval != nil {
		role := "Director"
		if !input.Company.Corporate {
			role = "Proprietor"
		}
		if approval.Statement != "" {
			data.ApprovalLines = append(data.ApprovalLines, approval.Statement)
		}
		data.ApprovalLines = append(data.ApprovalLines,
			"Approved and authorised for issue on "+render.FormatLongDate(approval.ApprovedOn)+".",
			approval.DirectorName,
			role,
		)
	}

	return data
}

func buildStatementTable(view *render.StatementView, company render.CompanyView) pdf.StatementTable {
	if view == nil {
		return pdf.StatementTable{}
	}

	table := pdf.StatementTable{
		Title:       view.Title,
		HeadCurrent: fmt.Sprintf("%d £", company.PeriodEnd.Year()),
	}
	if view.HasPrior {
		table.HeadPrior = fmt.Sprintf("%d £", company.PeriodEnd.Year()-1)
	}

	for _, row := range view.Rows {
		entry := pdf.TableRow{
			Label:   row.Label,
			Current: render.FormatAmount(row.Current),
			Bold:    row.Total,
		}
		if view.HasPrior {
			entry.Prior = render.FormatAmount(row.Prior)
		}
		table.Rows = append(table.Rows, entry)
	}

	return table
}

func practiceLines(practice render.PracticeView) []string {
	lines := append([]string(nil), practice.AddressLines...)
	if practice.Phone != "" {
		lines = append(lines, practice.Phone)
	}
	if practice.Email != "" {
		lines = append(lines, practice.Email)
	}
	return lines
}

func periodLabel(company render.CompanyView) string {
	word := "year"
	if company.IsFirstYear {
		word = "period"
	}
	return "For the " + word + " ended " + render.FormatLongDate(company.PeriodEnd)
}
