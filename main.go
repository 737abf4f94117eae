package main

import (
	"github.com/alecthomas/kong"

	"github.com/cppla/evsign/config"
	"github.com/cppla/evsign/utils"
)

// Context is handed to every command's Run method.
type Context struct {
	Config config.AppConfig
}

var cli struct {
	Config string `help:"Path to the JSON configuration file." default:"config/config.json"`

	Serve        ServeCmd        `cmd:"" default:"1" help:"Serve the management API and run the scheduler."`
	Tick         TickCmd         `cmd:"" help:"Run one scheduler pass and exit."`
	Signin       SigninCmd       `cmd:"" help:"Check in one account now."`
	Migrate      MigrateCmd      `cmd:"" help:"Create or update the database schema."`
	HashPassword HashPasswordCmd `cmd:"" name:"hash-password" help:"Print a bcrypt hash for ADMIN_PASSWORD."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("evsign"),
		kong.Description("Daily EvCard check-in manager."),
	)

	cfg := config.Load(cli.Config)
	if err := utils.InitLogger(cfg); err != nil {
		ctx.FatalIfErrorf(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	err := ctx.Run(&Context{Config: cfg})
	ctx.FatalIfErrorf(err)
}
