package subscription_fx

import (
	"go.uber.org/fx"
	"masareefy/internal/repositories"
	"masareefy/internal/services"
)

var Module = fx.Provide(
	repositories.NewSubscriptionRepository,
	repositories.NewInvoiceRepository,
	repositories.NewEventRepository,
	services.NewManualPaymentConfirmer,
	services.NewSubscriptionService,
)
