package main

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/archon-trading/spotvenue/internal/account"
	"github.com/archon-trading/spotvenue/internal/config"
	"github.com/archon-trading/spotvenue/internal/eventbus"
	"github.com/archon-trading/spotvenue/internal/logging"
	"github.com/archon-trading/spotvenue/internal/matching"
	"github.com/archon-trading/spotvenue/internal/registry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to venue configuration file")
	flag.Parse()

	app := fx.New(
		fx.Supply(*configPath),
		fx.Provide(
			loadConfig,
			newLogger,
			account.NewManager,
			newEventBus,
			newRegistry,
			newEngine,
		),
		fx.Invoke(startEngine),
		fx.NopLogger,
	)

	app.Run()
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewProduction("spotvenue")
}

func newEventBus(cfg *config.Config, logger logging.Logger) (*eventbus.Bus, error) {
	return eventbus.New(eventbus.Config{
		QueueCapacity:     cfg.EventBus.QueueCapacity,
		DispatchPoolSize:  cfg.EventBus.DispatchPoolSize,
		DropOldestLowPrio: cfg.EventBus.DropOldestLowPrio,
		PublishRatePerSec: cfg.EventBus.PublishRateLimit,
	}, logger)
}

func newRegistry(cfg *config.Config) *registry.Registry {
	return registry.New(cfg.APIKeys)
}

func newEngine(cfg *config.Config, accounts *account.Manager, bus *eventbus.Bus, logger logging.Logger) *matching.Engine {
	return matching.New(cfg, accounts, bus, logger)
}

// startEngine wires the matching engine's goroutine population into fx's
// lifecycle via an fx.Hook{OnStart, OnStop} pair, the standard shape for
// starting/stopping a long-running background component under fx.
func startEngine(lc fx.Lifecycle, engine *matching.Engine, bus *eventbus.Bus, logger logging.Logger) {
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			engine.Start(runCtx)
			logger.Info("matching engine started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			engine.Stop()
			if cancel != nil {
				cancel()
			}
			if err := bus.Close(); err != nil {
				logger.Warn("event bus close error", zap.Error(err))
			}
			logger.Info("matching engine stopped")
			return nil
		},
	})
}
