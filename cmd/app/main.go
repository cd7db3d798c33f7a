package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"masareefy/cmd/fx/account_fx"
	"masareefy/cmd/fx/config_fx"
	"masareefy/cmd/fx/controllers_fx"
	"masareefy/cmd/fx/db_fx"
	"masareefy/cmd/fx/lock_fx"
	"masareefy/cmd/fx/mail_fx"
	"masareefy/cmd/fx/memcache_fx"
	"masareefy/cmd/fx/metrics_fx"
	"masareefy/cmd/fx/plan_fx"
	"masareefy/cmd/fx/scheduler_fx"
	"masareefy/cmd/fx/subscription_fx"
	"masareefy/cmd/fx/trial_fx"
	"masareefy/cmd/fx/usage_fx"
	"masareefy/internal/api"
	"masareefy/internal/api/controllers"
	"masareefy/internal/config"
	"masareefy/internal/infra"
	"masareefy/pkg/middleware"
)

func main() {
	app := fx.New(
		config_fx.Module,
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		db_fx.Module,
		lock_fx.Module,
		metrics_fx.Module,
		memcache_fx.Module,
		mail_fx.Module,
		account_fx.Module,
		plan_fx.Module,
		subscription_fx.Module,
		usage_fx.Module,
		trial_fx.Module,
		scheduler_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg *config.Config, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("Failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

type routerParams struct {
	fx.In

	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *infra.Metrics
	Subscription *controllers.SubscriptionController
	Trial        *controllers.TrialController
	UsageCtl     *controllers.UsageController
	Plan         *controllers.PlanController
	Health       *controllers.HealthController
}

func ProvideRouter(p routerParams) *gin.Engine {
	gin.SetMode(p.Config.GinMode)

	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RecoveryMiddleware(p.Logger))
	r.Use(middleware.RequestLogger(p.Logger))
	r.Use(middleware.HTTPMetrics(p.Metrics.HTTPRequests, p.Metrics.HTTPDuration))
	r.Use(middleware.CORSMiddleware(p.Config.ClientURL))

	api.RegisterRoutes(r, api.Handlers{
		Subscription: p.Subscription,
		Trial:        p.Trial,
		Usage:        p.UsageCtl,
		Plan:         p.Plan,
		Health:       p.Health,
	}, []byte(p.Config.JWTSecret))

	return r
}
