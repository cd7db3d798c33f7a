package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"masareefy/internal/models/request_models"
	"masareefy/internal/models/response_models"
	"masareefy/internal/services"
	"masareefy/pkg/utils"
)

type SubscriptionController struct {
	subscriptionService services.SubscriptionServiceInterface
}

func NewSubscriptionController(subscriptionService services.SubscriptionServiceInterface) *SubscriptionController {
	return &SubscriptionController{
		subscriptionService: subscriptionService,
	}
}

// CreateSubscription godoc
// @Summary Start a subscription for the caller's tenant
// @Description Starts a trial on the given plan. Fails with 409 when the tenant already has a live subscription.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body request_models.CreateSubscriptionRequest true "Create subscription payload"
// @Success 201 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions [post]
func (s *SubscriptionController) CreateSubscription(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	var req request_models.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	sub, err := s.subscriptionService.CreateSubscription(actorContext(c), tenantID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondCreated(c, response_models.FromSubscription(sub), "Subscription created successfully")
}

// GetCurrent godoc
// @Summary Current subscription with entitlement
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/current [get]
func (s *SubscriptionController) GetCurrent(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	current, err := s.subscriptionService.GetCurrent(actorContext(c), tenantID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, current, "Current subscription retrieved successfully")
}

// UpdateSubscription godoc
// @Summary Partially update a subscription (admin)
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param request body request_models.UpdateSubscriptionRequest true "Fields to change"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id} [put]
func (s *SubscriptionController) UpdateSubscription(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req request_models.UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	sub, err := s.subscriptionService.UpdateSubscription(actorContext(c), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.FromSubscription(sub), "Subscription updated successfully")
}

// Cancel godoc
// @Summary Cancel a subscription now or at period end
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param request body request_models.CancelSubscriptionRequest true "Cancel payload"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id}/cancel [post]
func (s *SubscriptionController) Cancel(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req request_models.CancelSubscriptionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}

	scope := tenantID
	if isAdmin(c) {
		scope = uuid.Nil
	}

	sub, err := s.subscriptionService.Cancel(actorContext(c), id, scope, req.CancelAtPeriodEnd)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.FromSubscription(sub), "Subscription cancelled successfully")
}

// ProcessPayment godoc
// @Summary Record a confirmed payment (admin / payment confirmation)
// @Tags Subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /subscriptions/{id}/process-payment [post]
func (s *SubscriptionController) ProcessPayment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	ctx := services.WithActor(c.Request.Context(), services.ActorPayment)
	sub, invoice, err := s.subscriptionService.RecordPayment(ctx, id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	inv := response_models.FromInvoice(invoice)
	utils.RespondSuccess(c, response_models.PaymentResult{
		Subscription: response_models.FromSubscription(sub),
		Invoice:      &inv,
	}, "Payment recorded successfully")
}
