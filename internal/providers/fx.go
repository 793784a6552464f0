package providers

import (
	"github.com/ledgerwell/praxis/internal/providers/companieshouse"
	"github.com/ledgerwell/praxis/internal/providers/filestore"
	"github.com/ledgerwell/praxis/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	companieshouse.Module,
	filestore.Module,
	pdf.Module,
)
