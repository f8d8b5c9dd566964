package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/skipscan/skipscan/internal/account"
	"github.com/skipscan/skipscan/internal/auth"
	"github.com/skipscan/skipscan/internal/config"
	"github.com/skipscan/skipscan/internal/creditgate"
	"github.com/skipscan/skipscan/internal/creditpackage"
	"github.com/skipscan/skipscan/internal/enrichment"
	"github.com/skipscan/skipscan/internal/migration"
	"github.com/skipscan/skipscan/internal/observability"
	"github.com/skipscan/skipscan/internal/payment"
	"github.com/skipscan/skipscan/internal/purchase"
	"github.com/skipscan/skipscan/internal/queryresult"
	"github.com/skipscan/skipscan/internal/ratelimit"
	"github.com/skipscan/skipscan/internal/server"
	"github.com/skipscan/skipscan/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Domain services
		auth.Module,
		account.Module,
		creditgate.Module,
		creditpackage.Module,
		queryresult.Module,
		enrichment.Module,
		ratelimit.Module,
		payment.Module,
		purchase.Module,

		// HTTP surface
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
