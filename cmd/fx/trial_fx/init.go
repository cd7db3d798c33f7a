package trial_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"masareefy/internal/config"
	"masareefy/internal/infra"
	"masareefy/internal/repositories"
	"masareefy/internal/services"
	"masareefy/pkg/utils"
)

var Module = fx.Provide(
	repositories.NewNotificationRepository,
	provideTrialService,
)

type trialParams struct {
	fx.In

	Tx            infra.Transactor
	Subs          repositories.SubscriptionRepository
	Notifications repositories.NotificationRepository
	Events        repositories.EventRepository
	Accounts      repositories.AccountRepository
	Lifecycle     services.SubscriptionServiceInterface
	Plans         services.PlanServiceInterface
	Mailer        services.IMailService
	Locker        infra.Locker
	Metrics       *infra.Metrics
	Config        *config.Config
	Clock         utils.Clock
	Logger        *zap.Logger
}

func provideTrialService(p trialParams) services.TrialServiceInterface {
	return services.NewTrialService(services.TrialServiceDeps{
		Tx:            p.Tx,
		Subs:          p.Subs,
		Notifications: p.Notifications,
		Events:        p.Events,
		Accounts:      p.Accounts,
		Lifecycle:     p.Lifecycle,
		Plans:         p.Plans,
		Mailer:        p.Mailer,
		Locker:        p.Locker,
		Metrics:       p.Metrics,
		SweepTimeout:  p.Config.SweepTimeout,
		Clock:         p.Clock,
		Logger:        p.Logger,
	})
}
