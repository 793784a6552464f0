package client

import (
	"go.uber.org/fx"

	"github.com/ledgerwell/praxis/internal/client/repository"
	"github.com/ledgerwell/praxis/internal/client/service"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
