package render

import (
	"bytes"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const statementHTMLTemplate = `<!doctype html>
<html lang="en-GB">
<head>
  <meta charset="utf-8" />
  <title>{{.Company.Name}} - Annual Accounts</title>
  <style>
    :root {
      --ink: #1a1f36;
      --muted: #697386;
      --rule: #d7dce3;
      --font: Georgia, "Times New Roman", serif;
      --font-ui: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 40px;
      font-family: var(--font);
      color: var(--ink);
      background: #ffffff;
      font-size: 14px;
      line-height: 1.5;
    }
    .accounts {
      max-width: 700px;
      margin: 0 auto;
    }
    .letterhead {
      font-family: var(--font-ui);
      font-size: 11px;
      color: var(--muted);
      text-align: right;
      margin-bottom: 48px;
    }
    .cover {
      text-align: center;
      margin-bottom: 56px;
    }
    .cover h1 {
      margin: 0 0 4px;
      font-size: 26px;
      font-weight: 700;
    }
    .cover .company-number {
      font-size: 12px;
      color: var(--muted);
      margin-bottom: 24px;
    }
    .cover h2 {
      margin: 0 0 6px;
      font-size: 18px;
      font-weight: 400;
    }
    .cover .period {
      font-size: 14px;
      color: var(--muted);
    }
    .cover .framework-note {
      margin-top: 20px;
      font-size: 12px;
      color: var(--muted);
      font-style: italic;
    }

    .section {
      margin-bottom: 44px;
      page-break-inside: avoid;
    }
    .section h3 {
      font-size: 15px;
      font-weight: 700;
      text-transform: uppercase;
      letter-spacing: 0.4px;
      border-bottom: 2px solid var(--ink);
      padding-bottom: 6px;
      margin: 0 0 14px;
    }

    table.statement {
      width: 100%;
      border-collapse: collapse;
    }
    table.statement th {
      font-family: var(--font-ui);
      font-size: 11px;
      font-weight: 600;
      color: var(--muted);
      text-align: right;
      padding: 6px 0;
      border-bottom: 1px solid var(--rule);
    }
    table.statement th.label { text-align: left; }
    table.statement td {
      padding: 7px 0;
      font-size: 13px;
      border-bottom: 1px solid #eef1f4;
    }
    td.num {
      text-align: right;
      font-variant-numeric: tabular-nums;
      width: 110px;
    }
    tr.row-total td {
      font-weight: 700;
      border-top: 1px solid var(--ink);
      border-bottom: 1px double var(--ink);
    }

    .prose { white-space: pre-line; }
    .note { margin-bottom: 18px; }
    .note h4 {
      font-size: 13px;
      margin: 0 0 4px;
    }
    .note p { margin: 0; }

    .directors-list { margin: 0; padding-left: 18px; }

    .approval {
      margin-top: 8px;
    }
    .approval .signature {
      margin-top: 28px;
      border-top: 1px solid var(--ink);
      display: inline-block;
      padding-top: 6px;
      min-width: 240px;
    }

    .footer {
      margin-top: 64px;
      padding-top: 16px;
      border-top: 1px solid var(--rule);
      font-family: var(--font-ui);
      font-size: 10px;
      color: var(--muted);
      display: flex;
      justify-content: space-between;
    }
    @media print {
      body { padding: 0; }
    }
  </style>
</head>
<body>
  <div class="accounts">
    <!-- Letterhead -->
    <div class="letterhead">
      {{.Practice.Name}}
      {{- range .Practice.AddressLines}}<br>{{.}}{{end}}
      {{- if .Practice.Phone}}<br>{{.Practice.Phone}}{{end}}
      {{- if .Practice.Email}}<br>{{.Practice.Email}}{{end}}
    </div>

    <!-- Cover -->
    <div class="cover">
      <h1>{{.Company.Name}}</h1>
      {{if and .Company.Corporate .Company.Number}}<div class="company-number">Registered number {{.Company.Number}}</div>{{end}}
      <h2>{{.Company.FrameworkTitle}}</h2>
      <div class="period">For the {{if .Company.IsFirstYear}}period{{else}}year{{end}} ended {{formatLongDate .Company.PeriodEnd}}</div>
      {{if .Company.FrameworkNote}}<div class="framework-note">{{.Company.FrameworkNote}}</div>{{end}}
    </div>

    {{if and .Company.Corporate .Company.Directors}}
    <div class="section">
      <h3>Directors</h3>
      <ul class="directors-list">
        {{range .Company.Directors}}<li>{{.}}</li>{{end}}
      </ul>
    </div>
    {{end}}

    {{with .ProfitAndLoss}}
    <div class="section">
      <h3>{{.Title}}</h3>
      <table class="statement">
        <thead>
          <tr>
            <th class="label"></th>
            <th>{{year $.Company.PeriodEnd}} &pound;</th>
            {{if .HasPrior}}<th>{{priorYear $.Company.PeriodEnd}} &pound;</th>{{end}}
            {{if .HasChanges}}<th>Change</th>{{end}}
          </tr>
        </thead>
        <tbody>
          {{range .Rows}}
          <tr{{if .Total}} class="row-total"{{end}}>
            <td>{{.Label}}</td>
            <td class="num">{{formatAmount .Current}}</td>
            {{if $.ProfitAndLoss.HasPrior}}<td class="num">{{formatAmount .Prior}}</td>{{end}}
            {{if $.ProfitAndLoss.HasChanges}}<td class="num">{{formatChange .Change}}</td>{{end}}
          </tr>
          {{end}}
        </tbody>
      </table>
    </div>
    {{end}}

    {{with .BalanceSheet}}
    <div class="section">
      <h3>{{.Title}}</h3>
      <table class="statement">
        <thead>
          <tr>
            <th class="label"></th>
            <th>{{year $.Company.PeriodEnd}} &pound;</th>
            {{if .HasPrior}}<th>{{priorYear $.Company.PeriodEnd}} &pound;</th>{{end}}
            {{if .HasChanges}}<th>Change</th>{{end}}
          </tr>
        </thead>
        <tbody>
          {{range .Rows}}
          <tr{{if .Total}} class="row-total"{{end}}>
            <td>{{.Label}}</td>
            <td class="num">{{formatAmount .Current}}</td>
            {{if $.BalanceSheet.HasPrior}}<td class="num">{{formatAmount .Prior}}</td>{{end}}
            {{if $.BalanceSheet.HasChanges}}<td class="num">{{formatChange .Change}}</td>{{end}}
          </tr>
          {{end}}
        </tbody>
      </table>
    </div>
    {{end}}

    {{if .Policies}}
    <div class="section">
      <h3>Accounting Policies</h3>
      {{range .Policies}}
      <div class="note">
        <h4>{{.Title}}</h4>
        <p class="prose">{{.Text}}</p>
      </div>
      {{end}}
    </div>
    {{end}}

    {{if .Notes}}
    <div class="section">
      <h3>Notes to the Accounts</h3>
      {{range .Notes}}
      <div class="note">
        <h4>{{.Title}}</h4>
        {{range .Lines}}<p class="prose">{{.}}</p>{{end}}
      </div>
      {{end}}
    </div>
    {{end}}

    {{if .Disclosures}}
    <div class="section">
      <h3>Statutory Statements</h3>
      {{range .Disclosures}}<p class="prose">{{.}}</p>{{end}}
    </div>
    {{end}}

    {{with .Approval}}
    <div class="section approval">
      <h3>Approval</h3>
      {{if .Statement}}<p class="prose">{{.Statement}}</p>{{end}}
      <p>Approved and authorised for issue on {{formatLongDate .ApprovedOn}}.</p>
      <div class="signature">
        {{.DirectorName}}<br>
        {{if $.Company.Corporate}}Director{{else}}Proprietor{{end}}
      </div>
    </div>
    {{end}}

    <!-- Footer -->
    <div class="footer">
      <span>Prepared by {{.Practice.Name}}</span>
      <span>Generated {{formatLongDate .GeneratedAt}}</span>
    </div>
  </div>
</body>
</html>
`

var gbPrinter = message.NewPrinter(language.BritishEnglish)

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	funcs := template.FuncMap{
		"formatAmount":   FormatAmount,
		"formatGBP":      FormatGBP,
		"formatLongDate": FormatLongDate,
		"formatChange":   FormatChange,
		"year":           yearOf,
		"priorYear":      priorYearOf,
	}
	return &HTMLRenderer{
		tpl: template.Must(template.New("statement").Funcs(funcs).Parse(statementHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(input RenderInput) (string, error) {
	if input.Company.Name == "" {
		input.Company.Name = "Unnamed Company"
	}
	if input.Practice.Name == "" {
		input.Practice.Name = "Ledgerwell Accounting"
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, input); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// FormatAmount renders a statement figure in whole pounds, brackets for
// negatives, a dash when absent. The PDF builder reuses it so both outputs
// print identical figures.
func FormatAmount(value *decimal.Decimal) string {
	if value == nil {
		return "-"
	}
	n := value.Round(0).IntPart()
	if n < 0 {
		return "(" + gbPrinter.Sprintf("%d", -n) + ")"
	}
	return gbPrinter.Sprintf("%d", n)
}

func FormatGBP(value decimal.Decimal) string {
	n := value.Round(0).IntPart()
	if n < 0 {
		return "(£" + gbPrinter.Sprintf("%d", -n) + ")"
	}
	return "£" + gbPrinter.Sprintf("%d", n)
}

func FormatLongDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.UTC().Format("2 January 2006")
}

func FormatChange(value *decimal.Decimal) string {
	if value == nil {
		return ""
	}
	if value.IsPositive() {
		return "+" + value.StringFixed(1) + "%"
	}
	return value.StringFixed(1) + "%"
}

func yearOf(value time.Time) int { return value.Year() }

func priorYearOf(value time.Time) int { return value.Year() - 1 }
