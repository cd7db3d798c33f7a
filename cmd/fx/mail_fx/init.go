package mail_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"masareefy/internal/config"
	"masareefy/internal/services"
)

var Module = fx.Provide(provideMailService)

func provideMailService(cfg *config.Config, logger *zap.Logger) services.IMailService {
	if !cfg.MailEnabled() {
		logger.Info("SMTP not configured; trial reminders are not mailed")
		return services.NewNoopMailService(logger)
	}

	mailService, err := services.NewSMTPMailService(services.SMTPConfig{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Username:   cfg.SMTPUsername,
		Password:   cfg.SMTPPassword,
		From:       cfg.SMTPFrom,
		FromName:   cfg.AppName,
		RequireTLS: true,
		AppName:    cfg.AppName,
		AppBaseURL: cfg.AppBaseURL,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize SMTP mail service", zap.Error(err))
		return services.NewNoopMailService(logger)
	}
	return mailService
}
