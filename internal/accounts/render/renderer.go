package render

import (
	"time"

	"github.com/shopspring/decimal"
)

// Renderer produces the HTML statement for one accounts document.
type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
}

// PracticeView is the preparing firm's letterhead.
type PracticeView struct {
	Name         string
	AddressLines []string
	Phone        string
	Email        string
	Website      string
}

// CompanyView is the reporting entity header. Corporate is false for
// sole-trader and personal presentations, which hide the registered
// number and directors wording.
type CompanyView struct {
	Name           string
	Number         string
	FrameworkTitle string
	FrameworkNote  string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	IsFirstYear    bool
	Corporate      bool
	Directors      []string
	TradingStatus  string
}

// StatementRow is one line of a financial statement. Nil amounts render
// as a dash. Total rows are ruled and emphasised.
type StatementRow struct {
	Label   string
	Current *decimal.Decimal
	Prior   *decimal.Decimal
	Change  *decimal.Decimal
	Total   bool
}

type StatementView struct {
	Title      string
	HasPrior   bool
	HasChanges bool
	Rows       []StatementRow
}

type PolicyView struct {
	Title string
	Text  string
}

type NoteView struct {
	Title string
	Lines []string
}

type ApprovalView struct {
	DirectorName string
	ApprovedOn   time.Time
	Statement    string
}

type RenderInput struct {
	Practice      PracticeView
	Company       CompanyView
	ProfitAndLoss *StatementView
	BalanceSheet  *StatementView
	Policies      []PolicyView
	Disclosures   []string
	Notes         []NoteView
	Approval      *ApprovalView
	GeneratedAt   time.Time
}
