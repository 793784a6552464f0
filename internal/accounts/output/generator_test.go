package output_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerwell/praxis/internal/accounts/output"
	"github.com/ledgerwell/praxis/internal/accounts/render"
	"github.com/ledgerwell/praxis/internal/clock"
	"github.com/ledgerwell/praxis/internal/config"
	"github.com/ledgerwell/praxis/internal/providers/filestore"
	"github.com/ledgerwell/praxis/internal/providers/pdf"
)

func newTestGenerator(t *testing.T, provider pdf.Provider) (output.Generator, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := filestore.NewLocal(dir, "/files")
	require.NoError(t, err)

	gen := output.NewGenerator(output.GeneratorParam{
		Config:   config.Config{PDFTimeout: 5 * time.Second},
		Practice: config.StaticPracticeHolder(config.PracticeConfig{Name: "Ledgerwell Accounting"}),
		Log:      zap.NewNop(),
		Clock:    clock.NewFakeClock(time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC)),
		Renderer: render.NewRenderer(),
		PDF:      provider,
		Files:    store,
	})
	return gen, dir
}

func TestGeneratorGenerate(t *testing.T) {
	gen, dir := newTestGenerator(t, pdf.New())
	doc := newMicroDocument()

	outputs, err := gen.Generate(context.Background(), doc)
	require.NoError(t, err)
	require.NotNil(t, outputs)

	assert.Equal(t, "/files/FS_Acme_Widgets_Ltd_2025-03-31.html", outputs.HTMLURL)
	assert.Equal(t, "/files/FS_Acme_Widgets_Ltd_2025-03-31.pdf", outputs.PDFURL)
	assert.Equal(t, time.Date(2025, time.June, 12, 9, 0, 0, 0, time.UTC), outputs.GeneratedAt)

	html, err := os.ReadFile(filepath.Join(dir, "FS_Acme_Widgets_Ltd_2025-03-31.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Acme Widgets Ltd")
	assert.Contains(t, string(html), "120,000")

	pdfBytes, err := os.ReadFile(filepath.Join(dir, "FS_Acme_Widgets_Ltd_2025-03-31.pdf"))
	require.NoError(t, err)
	assert.NotEmpty(t, pdfBytes)
}

type failingPDF struct{}

func (failingPDF) GenerateStatement(ctx context.Context, data pdf.StatementData) (io.Reader, error) {
	return nil, errors.New("pdf backend unavailable")
}

func TestGeneratorPDFFailureLeavesNothingStored(t *testing.T) {
	gen, dir := newTestGenerator(t, failingPDF{})
	doc := newMicroDocument()

	outputs, err := gen.Generate(context.Background(), doc)
	require.Error(t, err)
	assert.Nil(t, outputs)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGeneratorCleanup(t *testing.T) {
	gen, dir := newTestGenerator(t, pdf.New())
	doc := newMicroDocument()

	outputs, err := gen.Generate(context.Background(), doc)
	require.NoError(t, err)

	require.NoError(t, gen.Cleanup(context.Background(), outputs))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Removing already-removed outputs stays silent.
	require.NoError(t, gen.Cleanup(context.Background(), outputs))
	require.NoError(t, gen.Cleanup(context.Background(), nil))
}
