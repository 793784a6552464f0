package accounts

import (
	"go.uber.org/fx"

	"github.com/ledgerwell/praxis/internal/accounts/output"
	"github.com/ledgerwell/praxis/internal/accounts/render"
	"github.com/ledgerwell/praxis/internal/accounts/repository"
	"github.com/ledgerwell/praxis/internal/accounts/service"
)

var Module = fx.Module("accounts.service",
	fx.Provide(render.NewRenderer),
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideSnapshots),
	fx.Provide(service.New),
	output.Module,
)
