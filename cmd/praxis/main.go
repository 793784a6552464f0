package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/ledgerwell/praxis/internal/accounts"
	"github.com/ledgerwell/praxis/internal/audit"
	"github.com/ledgerwell/praxis/internal/client"
	"github.com/ledgerwell/praxis/internal/clock"
	"github.com/ledgerwell/praxis/internal/config"
	"github.com/ledgerwell/praxis/internal/migration"
	"github.com/ledgerwell/praxis/internal/observability"
	"github.com/ledgerwell/praxis/internal/providers"
	"github.com/ledgerwell/praxis/internal/ratelimit"
	"github.com/ledgerwell/praxis/internal/server"
	"github.com/ledgerwell/praxis/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		providers.Module,

		// Functional domains
		client.Module,
		audit.Module,
		accounts.Module,
		ratelimit.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
