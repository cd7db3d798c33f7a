package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"masareefy/internal/models/db_models"
	"masareefy/internal/models/request_models"
	"masareefy/internal/services"
	"masareefy/pkg/utils"
)

type UsageController struct {
	usageService services.UsageServiceInterface
}

func NewUsageController(usageService services.UsageServiceInterface) *UsageController {
	return &UsageController{
		usageService: usageService,
	}
}

// GetUsage godoc
// @Summary Live resource usage against plan limits
// @Tags Usage
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /usage [get]
func (u *UsageController) GetUsage(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	usage, err := u.usageService.GetUsage(c.Request.Context(), tenantID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, usage, "Usage retrieved successfully")
}

// CheckLimit godoc
// @Summary Whether one more unit of a resource may be added
// @Tags Usage
// @Produce json
// @Param resourceType path string true "inventory | team_members | wallets | transactions"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /usage/{resourceType}/check [get]
func (u *UsageController) CheckLimit(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	check, err := u.usageService.CheckResourceLimit(c.Request.Context(), tenantID, c.Param("resourceType"))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, check, "Limit checked successfully")
}

// Sync godoc
// @Summary Refresh the cached usage records
// @Tags Usage
// @Accept json
// @Produce json
// @Param request body request_models.UsageSyncRequest false "Resource type; all when omitted"
// @Success 202 {object} utils.APIResponse
// @Security BearerAuth
// @Router /usage/sync [post]
func (u *UsageController) Sync(c *gin.Context) {
	tenantID, ok := tenantFromContext(c)
	if !ok {
		return
	}

	var req request_models.UsageSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}

	targets := db_models.AllResourceTypes
	if req.ResourceType != "" {
		rt, ok := db_models.ParseResourceType(req.ResourceType)
		if !ok {
			utils.RespondErrorCode(c, http.StatusBadRequest, utils.CodeInvalidResourceType, "Unknown resource type")
			return
		}
		targets = []db_models.ResourceType{rt}
	}

	for _, rt := range targets {
		u.usageService.SyncUsage(c.Request.Context(), tenantID, rt)
	}

	c.JSON(http.StatusAccepted, utils.APIResponse{
		Status:  "success",
		Code:    http.StatusAccepted,
		Message: "Usage sync requested",
		TraceID: c.GetString("trace_id"),
	})
}
