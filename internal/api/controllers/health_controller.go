package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"masareefy/internal/infra"
	"masareefy/pkg/utils"
)

type HealthController struct {
	db      *gorm.DB
	metrics *infra.Metrics
}

func NewHealthController(db *gorm.DB, metrics *infra.Metrics) *HealthController {
	return &HealthController{db: db, metrics: metrics}
}

// Healthz godoc
// @Summary Liveness and database reachability
// @Tags Ops
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /healthz [get]
func (h *HealthController) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		_ = c.Error(err)
		utils.RespondErrorCode(c, http.StatusServiceUnavailable, utils.CodeDatabase, "Database unreachable")
		return
	}

	utils.RespondSuccess(c, gin.H{"database": "ok"}, "healthy")
}

func (h *HealthController) Metrics(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
