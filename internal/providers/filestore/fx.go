package filestore

import (
	"github.com/ledgerwell/praxis/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.filestore",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) (Store, error) {
	return NewLocal(cfg.FilesDir, cfg.FilesBaseURL)
}
