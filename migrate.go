package main

import (
	"github.com/cppla/evsign/config"
	"github.com/cppla/evsign/utils"
)

type MigrateCmd struct{}

func (m *MigrateCmd) Run(ctx *Context) error {
	cfg := ctx.Config
	db, err := config.OpenDatabase(cfg.DBDriver, config.DSN(cfg), cfg.LogLevel)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	utils.Sugar.Infow("schema migrated", "driver", cfg.DBDriver)
	return nil
}
