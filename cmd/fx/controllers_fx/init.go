package controllers_fx

import (
	"go.uber.org/fx"
	"masareefy/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewSubscriptionController),
	fx.Provide(controllers.NewTrialController),
	fx.Provide(controllers.NewUsageController),
	fx.Provide(controllers.NewPlanController),
	fx.Provide(controllers.NewHealthController))
