package main

import (
	"context"
	"errors"
	"sync"

	"AspectLock/internal/logger"
	"AspectLock/internal/policy"
	"AspectLock/internal/services"
)

type App struct {
	log *logger.Logger

	mu  sync.Mutex
	svc *services.Services
}

func NewApp(log *logger.Logger) *App {
	return &App{log: log}
}

// Run blocks until the target process exits, the tray asks to exit, or ctx
// is cancelled.
func (a *App) Run(ctx context.Context, cfg *policy.Config) error {
	a.mu.Lock()
	if a.svc != nil {
		a.mu.Unlock()
		return errors.New("app already started")
	}
	svc, err := services.New(cfg, services.Dependencies{
		Logger: a.log,
		EmitEvent: func(name string, data any) {
			a.log.Info(name, "data", data)
		},
	})
	if err != nil {
		a.mu.Unlock()
		return err
	}
	a.svc = svc
	a.mu.Unlock()

	return svc.Run(ctx)
}

func (a *App) GetAutostart() bool {
	return services.IsAutostartEnabled()
}

func (a *App) SetAutostart(enabled bool, args ...string) error {
	return services.SetAutostart(enabled, args...)
}
