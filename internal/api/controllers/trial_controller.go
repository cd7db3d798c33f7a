package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"masareefy/internal/models/request_models"
	"masareefy/internal/models/response_models"
	"masareefy/internal/services"
	"masareefy/pkg/utils"
)

type TrialController struct {
	trialService services.TrialServiceInterface
	now          utils.Clock
}

func NewTrialController(trialService services.TrialServiceInterface, clock utils.Clock) *TrialController {
	return &TrialController{
		trialService: trialService,
		now:          clock,
	}
}

// GetStatus godoc
// @Summary Trial countdown for the caller's tenant
// @Tags Trial
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /trial/status [get]
func (t *TrialController) GetStatus(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	status, err := t.trialService.GetTrialStatus(c.Request.Context(), tenantID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, status, "Trial status retrieved successfully")
}

// ListNotifications godoc
// @Summary Trial notifications for the caller's tenant
// @Tags Trial
// @Produce json
// @Param unread query bool false "Only unread notifications"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /trial/notifications [get]
func (t *TrialController) ListNotifications(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	unreadOnly := false
	if raw := c.Query("unread"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, "unread must be a boolean")
			return
		}
		unreadOnly = parsed
	}

	list, err := t.trialService.ListNotifications(c.Request.Context(), tenantID, unreadOnly)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	result := make([]response_models.TrialNotification, 0, len(list))
	for i := range list {
		result = append(result, response_models.FromNotification(&list[i]))
	}
	utils.RespondSuccess(c, result, "Notifications retrieved successfully")
}

// MarkAsRead godoc
// @Summary Mark a trial notification as read
// @Tags Trial
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /trial/notifications/{id}/read [patch]
func (t *TrialController) MarkAsRead(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	n, err := t.trialService.MarkNotificationAsRead(c.Request.Context(), id, tenantID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.FromNotification(n), "Notification marked as read")
}

// CheckExpirations godoc
// @Summary Run the expiry sweep now (admin)
// @Tags Trial
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /trial/check-expirations [post]
func (t *TrialController) CheckExpirations(c *gin.Context) {
	ctx := services.WithActor(c.Request.Context(), services.ActorAdmin)
	report, err := t.trialService.RunExpirySweep(ctx, t.now())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, report.Response(), "Expiry sweep completed")
}

// ExtendTrial godoc
// @Summary Extend a trial (admin)
// @Tags Trial
// @Accept json
// @Produce json
// @Param subscriptionId path string true "Subscription ID"
// @Param request body request_models.ExtendTrialRequest true "Extension"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /trial/{subscriptionId}/extend [post]
func (t *TrialController) ExtendTrial(c *gin.Context) {
	id, ok := uuidParam(c, "subscriptionId")
	if !ok {
		return
	}

	var req request_models.ExtendTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	sub, err := t.trialService.ExtendTrial(actorContext(c), id, req.AdditionalDays)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, response_models.FromSubscription(sub), "Trial extended successfully")
}
