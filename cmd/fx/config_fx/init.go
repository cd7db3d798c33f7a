package config_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"masareefy/internal/config"
	"masareefy/internal/infra"
	"masareefy/pkg/utils"
)

var Module = fx.Provide(
	config.LoadConfig,
	provideLogger,
	provideClock,
)

func provideLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	logger, err := infra.NewLogger(cfg.GinMode, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() {
		_ = logger.Sync()
	}))
	return logger, nil
}

func provideClock() utils.Clock {
	return utils.SystemClock
}
