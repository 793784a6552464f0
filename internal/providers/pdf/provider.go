package pdf

import (
	"context"
	"io"
)

// Provider renders the PDF statement for one accounts document.
type Provider interface {
	GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error)
}

// NoOpProvider satisfies Provider without producing output. Wired in
// where PDF rendering is switched off, and as a test stand-in.
type NoOpProvider struct{}

func (p *NoOpProvider) GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error) {
	return nil, nil
}
