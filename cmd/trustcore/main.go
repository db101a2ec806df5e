package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/vendaria/trustcore/internal/config"
	"github.com/vendaria/trustcore/internal/logger"
	"github.com/vendaria/trustcore/internal/migration"
	"github.com/vendaria/trustcore/internal/server"
	"github.com/vendaria/trustcore/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
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
