package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// StatementData carries preformatted strings only. Amount and date
// formatting happens upstream so HTML and PDF outputs agree to the
// character.
type StatementData struct {
	PracticeName  string
	PracticeLines []string

	CompanyName    string
	CompanyNumber  string
	FrameworkTitle string
	FrameworkNote  string
	PeriodLabel    string

	Directors []string

	ProfitAndLoss StatementTable
	BalanceSheet  StatementTable
	Policies      []NoteBlock
	Notes         []NoteBlock
	Disclosures   []string

	ApprovalLines []string
	GeneratedOn   string
}

type StatementTable struct {
	Title       string
	HeadCurrent string
	HeadPrior   string
	Rows        []TableRow
}

func (t StatementTable) Empty() bool { return len(t.Rows) == 0 }

type TableRow struct {
	Label   string
	Current string
	Prior   string
	Bold    bool
}

type NoteBlock struct {
	Title string
	Lines []string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	// Letterhead
	if data.PracticeName != "" {
		m.AddRow(6, text.NewCol(12, data.PracticeName, props.Text{
			Size:  8,
			Align: align.Right,
		}))
		for _, line := range data.PracticeLines {
			m.AddRow(4, text.NewCol(12, line, props.Text{
				Size:  8,
				Align: align.Right,
			}))
		}
	}

	// Cover
	m.AddRow(16, text.NewCol(12, data.CompanyName, props.Text{
		Size:  18,
		Style: fontstyle.Bold,
		Align: align.Center,
		Top:   4,
	}))
	if data.CompanyNumber != "" {
		m.AddRow(6, text.NewCol(12, "Registered number "+data.CompanyNumber, props.Text{
			Size:  9,
			Align: align.Center,
		}))
	}
	m.AddRow(10, text.NewCol(12, data.FrameworkTitle, props.Text{
		Size:  13,
		Align: align.Center,
		Top:   2,
	}))
	m.AddRow(8, text.NewCol(12, data.PeriodLabel, props.Text{
		Size:  10,
		Align: align.Center,
	}))
	if data.FrameworkNote != "" {
		m.AddRow(8, text.NewCol(12, data.FrameworkNote, props.Text{
			Size:  8,
			Align: align.Center,
			Top:   2,
		}))
	}

	if len(data.Directors) > 0 {
		addSectionTitle(m, "Directors")
		for _, name := range data.Directors {
			m.AddRow(5, text.NewCol(12, name, props.Text{Size: 9}))
		}
	}

	if !data.ProfitAndLoss.Empty() {
		addStatementTable(m, data.ProfitAndLoss)
	}
	if !data.BalanceSheet.Empty() {
		addStatementTable(m, data.BalanceSheet)
	}

	if len(data.Policies) > 0 {
		addSectionTitle(m, "Accounting Policies")
		for _, block := range data.Policies {
			addNoteBlock(m, block)
		}
	}

	if len(data.Notes) > 0 {
		addSectionTitle(m, "Notes to the Accounts")
		for _, block := range data.Notes {
			addNoteBlock(m, block)
		}
	}

	if len(data.Disclosures) > 0 {
		addSectionTitle(m, "Statutory Statements")
		for _, paragraph := range data.Disclosures {
			m.AddRow(8, text.NewCol(12, paragraph, props.Text{Size: 9}))
		}
	}

	if len(data.ApprovalLines) > 0 {
		addSectionTitle(m, "Approval")
		for _, line := range data.ApprovalLines {
			m.AddRow(6, text.NewCol(12, line, props.Text{Size: 9}))
		}
	}

	if data.GeneratedOn != "" {
		m.AddRow(12, text.NewCol(12, "Generated "+data.GeneratedOn, props.Text{
			Size:  7,
			Align: align.Right,
			Top:   6,
		}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func addSectionTitle(m core.Maroto, title string) {
	m.AddRow(12, text.NewCol(12, title, props.Text{
		Size:  11,
		Style: fontstyle.Bold,
		Top:   4,
	}))
}

func addStatementTable(m core.Maroto, table StatementTable) {
	addSectionTitle(m, table.Title)

	hasPrior := table.HeadPrior != ""
	if hasPrior {
		m.AddRow(7,
			col.New(6),
			text.NewCol(3, table.HeadCurrent, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
			text.NewCol(3, table.HeadPrior, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
		)
	} else {
		m.AddRow(7,
			col.New(9),
			text.NewCol(3, table.HeadCurrent, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
		)
	}

	for _, row := range table.Rows {
		style := fontstyle.Normal
		if row.Bold {
			style = fontstyle.Bold
		}
		if hasPrior {
			m.AddRow(6,
				text.NewCol(6, row.Label, props.Text{Size: 9, Style: style}),
				text.NewCol(3, row.Current, props.Text{Size: 9, Style: style, Align: align.Right}),
				text.NewCol(3, row.Prior, props.Text{Size: 9, Style: style, Align: align.Right}),
			)
		} else {
			m.AddRow(6,
				text.NewCol(9, row.Label, props.Text{Size: 9, Style: style}),
				text.NewCol(3, row.Current, props.Text{Size: 9, Style: style, Align: align.Right}),
			)
		}
	}
}

func addNoteBlock(m core.Maroto, block NoteBlock) {
	m.AddRow(6, text.NewCol(12, block.Title, props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Top:   2,
	}))
	for _, line := range block.Lines {
		m.AddRow(6, text.NewCol(12, line, props.Text{Size: 9}))
	}
}
