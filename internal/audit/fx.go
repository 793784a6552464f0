package audit

import (
	"go.uber.org/fx"

	"github.com/ledgerwell/praxis/internal/audit/repository"
	"github.com/ledgerwell/praxis/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
