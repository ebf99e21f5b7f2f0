package main

import (
	"github.com/gin-gonic/gin"

	"github.com/meshahzad92/Inbound-Calling/internal/auth"
	"github.com/meshahzad92/Inbound-Calling/internal/httpapi"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/health", h.Health)

	// Provider webhook and agent tool callbacks (public).
	// NOTE: These should be protected by Twilio signature validation in production.
	r.POST("/api/incoming", h.HandleInboundVoice)
	r.POST("/api/transfer", h.HandleTransferTool)
	r.POST("/api/transfer/background", h.HandleTransferBackground)

	r.POST("/auth/login", h.Login)

	// protected admin group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/reports", auth.RequireRole(auth.RoleAdmin, auth.RoleOperator), h.ListReports)
		v1.GET("/transfers/:call_sid", auth.RequireRole(auth.RoleAdmin, auth.RoleOperator), h.GetTransferOutcome)
	}
}
