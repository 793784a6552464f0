package migration

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	accountsdomain "github.com/ledgerwell/praxis/internal/accounts/domain"
	auditdomain "github.com/ledgerwell/praxis/internal/audit/domain"
	clientdomain "github.com/ledgerwell/praxis/internal/client/domain"
	"github.com/ledgerwell/praxis/internal/config"
	"github.com/ledgerwell/praxis/internal/seed"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.DBType == "sqlite" {
			// The versioned migrations target postgres; local sqlite
			// installs derive their schema from the models instead.
			if err := conn.AutoMigrate(
				&clientdomain.Client{},
				&accountsdomain.AccountsDocument{},
				&accountsdomain.Snapshot{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		} else {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoClients(conn, log)
		}
		return nil
	}),
)
