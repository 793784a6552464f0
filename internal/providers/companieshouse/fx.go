package companieshouse

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ledgerwell/praxis/internal/audit/masking"
	"github.com/ledgerwell/praxis/internal/config"
	obsmetrics "github.com/ledgerwell/praxis/internal/observability/metrics"
)

var Module = fx.Module("providers.companieshouse",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger, metrics *obsmetrics.Metrics) Registry {
	if cfg.RegistryAPIKey == "" {
		log.Info("companies house lookups disabled, no api key configured")
		return NoOpRegistry{}
	}
	log.Info("companies house registry configured",
		zap.String("base_url", cfg.RegistryBaseURL),
		zap.String("api_key", masking.MaskSecret(cfg.RegistryAPIKey)),
	)
	return NewClient(cfg.RegistryBaseURL, cfg.RegistryAPIKey, cfg.RegistryCacheTTL, log, metrics)
}
