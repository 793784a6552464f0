package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ledgerwell/praxis/internal/accounts/domain"
	"github.com/ledgerwell/praxis/internal/accounts/render"
	"github.com/ledgerwell/praxis/internal/clock"
	"github.com/ledgerwell/praxis/internal/config"
	obsmetrics "github.com/ledgerwell/praxis/internal/observability/metrics"
	"github.com/ledgerwell/praxis/internal/providers/filestore"
	"github.com/ledgerwell/praxis/internal/providers/pdf"
)

// Generator produces and removes the stored statement files for a
// document. One call always yields a matched HTML and PDF pair; a failed
// run stores nothing.
type Generator interface {
	Generate(ctx context.Context, doc *domain.AccountsDocument) (*domain.OutputSet, error)
	Cleanup(ctx context.Context, outputs *domain.OutputSet) error
}

type GeneratorParam struct {
	fx.In

	Config   config.Config
	Practice *config.PracticeHolder
	Log      *zap.Logger
	Metrics  *obsmetrics.Metrics
	Clock    clock.Clock
	Renderer render.Renderer
	PDF      pdf.Provider
	Files    filestore.Store
}

type generator struct {
	log        *zap.Logger
	metrics    *obsmetrics.Metrics
	clock      clock.Clock
	practice   *config.PracticeHolder
	renderer   render.Renderer
	pdf        pdf.Provider
	files      filestore.Store
	pdfTimeout time.Duration
}

func NewGenerator(p GeneratorParam) Generator {
	return &generator{
		log:        p.Log.Named("accounts.output"),
		metrics:    p.Metrics,
		clock:      p.Clock,
		practice:   p.Practice,
		renderer:   p.Renderer,
		pdf:        p.PDF,
		files:      p.Files,
		pdfTimeout: p.Config.PDFTimeout,
	}
}

// renderFailure tags renderer errors so the output error counter files
// them under render_failed rather than unknown.
type renderFailure struct {
	err error
}

func (e renderFailure) Error() string { return e.err.Error() }

func (e renderFailure) Unwrap() error { return e.err }

func (e renderFailure) OutputJobReason() string { return obsmetrics.OutputJobReasonRenderFailed }

func (g *generator) Generate(ctx context.Context, doc *domain.AccountsDocument) (*domain.OutputSet, error) {
	engineMetrics := obsmetrics.Engine()
	generatedAt := g.clock.Now()

	input := BuildRenderInput(doc, g.practice.Get(), generatedAt)
	base := BaseName(input.Company.Name, input.Company.PeriodEnd)
	htmlName := base + ".html"
	pdfName := base + ".pdf"

	engineMetrics.IncOutputJob(obsmetrics.OutputStageRenderHTML)
	htmlStart := time.Now()
	html, err := g.renderer.RenderHTML(input)
	engineMetrics.ObserveOutputJobDuration(obsmetrics.OutputStageRenderHTML, time.Since(htmlStart))
	if err != nil {
		err = renderFailure{err: err}
		engineMetrics.IncOutputJobError(obsmetrics.OutputStageRenderHTML, err)
		return nil, fmt.Errorf("render html: %w", err)
	}

	// PDF generation is bounded so a wedged renderer cannot hold the
	// request open indefinitely.
	pdfCtx, cancel := context.WithTimeout(ctx, g.pdfTimeout)
	defer cancel()

	engineMetrics.IncOutputJob(obsmetrics.OutputStageRenderPDF)
	pdfStart := time.Now()
	pdfBody, err := g.pdf.GenerateStatement(pdfCtx, BuildStatementData(input))
	engineMetrics.ObserveOutputJobDuration(obsmetrics.OutputStageRenderPDF, time.Since(pdfStart))
	if err != nil {
		err = renderFailure{err: err}
		engineMetrics.IncOutputJobError(obsmetrics.OutputStageRenderPDF, err)
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	if pdfBody == nil {
		pdfBody = bytes.NewReader(nil)
	}

	engineMetrics.IncOutputJob(obsmetrics.OutputStageStore)
	storeStart := time.Now()
	htmlURL, err := g.files.Save(ctx, htmlName, strings.NewReader(html))
	if err != nil {
		engineMetrics.ObserveOutputJobDuration(obsmetrics.OutputStageStore, time.Since(storeStart))
		engineMetrics.IncOutputJobError(obsmetrics.OutputStageStore, err)
		return nil, fmt.Errorf("store html: %w", err)
	}
	pdfURL, err := g.files.Save(ctx, pdfName, pdfBody)
	engineMetrics.ObserveOutputJobDuration(obsmetrics.OutputStageStore, time.Since(storeStart))
	if err != nil {
		engineMetrics.IncOutputJobError(obsmetrics.OutputStageStore, err)
		if rmErr := g.files.Remove(ctx, htmlName); rmErr != nil {
			g.log.Warn("orphaned html not removed after pdf store failure",
				zap.String("file", htmlName),
				zap.Error(rmErr),
			)
		}
		return nil, fmt.Errorf("store pdf: %w", err)
	}

	g.metrics.RecordOutputGenerated(ctx, "html")
	g.metrics.RecordOutputGenerated(ctx, "pdf")

	g.log.Info("statement outputs generated",
		zap.Int64("document_id", int64(doc.ID)),
		zap.String("html_url", htmlURL),
		zap.String("pdf_url", pdfURL),
	)

	return &domain.OutputSet{
		HTMLURL:     htmlURL,
		PDFURL:      pdfURL,
		GeneratedAt: generatedAt,
	}, nil
}

// Cleanup removes the stored files behind an output set. Missing files are
// not an error; unlock must succeed even when outputs were already swept.
func (g *generator) Cleanup(ctx context.Context, outputs *domain.OutputSet) error {
	if outputs == nil {
		return nil
	}

	var errs []error
	for _, url := range []string{outputs.HTMLURL, outputs.PDFURL} {
		if url == "" {
			continue
		}
		if err := g.files.Remove(ctx, path.Base(url)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
