package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"masareefy/internal/services"
	"masareefy/pkg/middleware"
	"masareefy/pkg/utils"
)

// tenantFromContext reads the tenant id set by JWTAuthMiddleware and writes a 401 when absent.
func tenantFromContext(c *gin.Context) (uuid.UUID, bool) {
	tenantID, err := uuid.Parse(c.GetString(middleware.ContextTenantID))
	if err != nil {
		utils.RespondErrorCode(c, http.StatusUnauthorized, "unauthorized", "Tenant identity missing")
		return uuid.Nil, false
	}
	return tenantID, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(middleware.ContextRole) == middleware.RoleAdmin
}

// actorContext tags the request context with the caller's role for the audit trail.
func actorContext(c *gin.Context) context.Context {
	actor := services.ActorTenant
	if isAdmin(c) {
		actor = services.ActorAdmin
	}
	return services.WithActor(c.Request.Context(), actor)
}
