package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/cppla/evsign/routes"
	"github.com/cppla/evsign/utils"
)

type ServeCmd struct {
	Addr        string `help:"Address to listen on; defaults to :<app.port>."`
	NoScheduler bool   `help:"Serve the API only."`
}

func (s *ServeCmd) Run(ctx *Context) error {
	cfg := ctx.Config
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := routes.SetupRouter(cfg, routes.Deps{
		Repo:      a.repo,
		Client:    a.client,
		Window:    a.window,
		Blacklist: utils.NewBlacklist(utils.GetRedis(cfg)),
	})

	addr := s.Addr
	if addr == "" {
		addr = ":" + cfg.AppPort
	}

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		utils.Sugar.Infof("Starting server on %s (graceful)", addr)
		return utils.GraceServer(gctx, addr, router)
	})
	if cfg.SchedulerDisabled || s.NoScheduler {
		utils.Sugar.Info("scheduler disabled")
	} else {
		runner := a.runner()
		g.Go(func() error {
			return runner.Loop(gctx, cfg.SchedulerInterval())
		})
	}
	return g.Wait()
}
