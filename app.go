package main

import (
	"gorm.io/gorm"

	"github.com/cppla/evsign/config"
	"github.com/cppla/evsign/notify"
	"github.com/cppla/evsign/repository"
	"github.com/cppla/evsign/scheduler"
	"github.com/cppla/evsign/signin"
	"github.com/cppla/evsign/utils"
)

// app holds the collaborators shared by the commands.
type app struct {
	cfg    config.AppConfig
	db     *gorm.DB
	repo   *repository.TokenRepository
	client *signin.Client
	window scheduler.Window
}

func newApp(cfg config.AppConfig) (*app, error) {
	client, err := signin.NewClient(signin.Config{
		AppKey:    cfg.EvcardAppKey,
		AppSecret: cfg.EvcardAppSecret,
		TCSKey:    cfg.EvcardTCSKey,
		TCSSecret: cfg.EvcardTCSSecret,
		BaseURL:   cfg.EvcardBaseURL,
		Timeout:   cfg.EvcardTimeout(),
	}, notify.FromConfig(cfg))
	if err != nil {
		return nil, err
	}

	db := config.InitDatabase()
	cache := utils.NewRedisCache(utils.GetRedis(cfg))

	return &app{
		cfg:    cfg,
		db:     db,
		repo:   repository.NewTokenRepository(db, cache),
		client: client,
		window: scheduler.NewWindow(),
	}, nil
}

func (a *app) runner() *scheduler.Runner {
	return scheduler.NewRunner(a.repo, a.client,
		scheduler.WithWindow(a.window),
		scheduler.WithWorkers(a.cfg.SchedulerWorkers),
		scheduler.WithCallTimeout(a.cfg.SchedulerCallTimeout()),
	)
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
