package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/teamdesk/internal/audit"
	"github.com/smallbiznis/teamdesk/internal/config"
	"github.com/smallbiznis/teamdesk/internal/invoice"
	"github.com/smallbiznis/teamdesk/internal/migration"
	"github.com/smallbiznis/teamdesk/internal/observability/metrics"
	"github.com/smallbiznis/teamdesk/internal/organization"
	"github.com/smallbiznis/teamdesk/internal/project"
	"github.com/smallbiznis/teamdesk/internal/server"
	"github.com/smallbiznis/teamdesk/internal/task"
	"github.com/smallbiznis/teamdesk/internal/user"
	"github.com/smallbiznis/teamdesk/pkg/db"
	"github.com/smallbiznis/teamdesk/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		metrics.Module,
		migration.Module,

		// Domains
		audit.Module,
		user.Module,
		organization.Module,
		project.Module,
		task.Module,
		invoice.Module,

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
