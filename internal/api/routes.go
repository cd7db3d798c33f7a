package api

import (
	"github.com/gin-gonic/gin"
	"masareefy/internal/api/controllers"
	"masareefy/pkg/middleware"
)

type Handlers struct {
	Subscription *controllers.SubscriptionController
	Trial        *controllers.TrialController
	Usage        *controllers.UsageController
	Plan         *controllers.PlanController
	Health       *controllers.HealthController
}

// RegisterRoutes mounts the public plan and ops routes and the JWT-protected
// subscription, trial and usage groups on r.
func RegisterRoutes(r gin.IRouter, h Handlers, jwtSecret []byte) {
	r.GET("/healthz", h.Health.Healthz)
	r.GET("/metrics", h.Health.Metrics)

	plans := r.Group("/plans")
	plans.GET("", h.Plan.ListPlans)
	plans.GET("/:id", h.Plan.GetPlan)

	auth := middleware.JWTAuthMiddleware(jwtSecret)
	admin := middleware.RoleMiddleware(middleware.RoleAdmin)

	subs := r.Group("/subscriptions", auth)
	subs.POST("", h.Subscription.CreateSubscription)
	subs.GET("/current", h.Subscription.GetCurrent)
	subs.PUT("/:id", admin, h.Subscription.UpdateSubscription)
	subs.POST("/:id/cancel", h.Subscription.Cancel)
	subs.POST("/:id/process-payment", admin, h.Subscription.ProcessPayment)

	trial := r.Group("/trial", auth)
	trial.GET("/status", h.Trial.GetStatus)
	trial.GET("/notifications", h.Trial.ListNotifications)
	trial.PATCH("/notifications/:id/read", h.Trial.MarkAsRead)
	trial.POST("/check-expirations", admin, h.Trial.CheckExpirations)
	trial.POST("/:subscriptionId/extend", admin, h.Trial.ExtendTrial)

	usage := r.Group("/usage", auth)
	usage.GET("", h.Usage.GetUsage)
	usage.GET("/:resourceType/check", h.Usage.CheckLimit)
	usage.POST("/sync", h.Usage.Sync)
}
