// Package router registers the HTTP routes.
package router

import (
	"github.com/gin-gonic/gin"

	"evodata/agent"
	"evodata/handler"
)

// RegisterRoutes wires the webhook, export and health endpoints.
func RegisterRoutes(r *gin.Engine, a *agent.Agent, exportsDir string) {
	r.POST("/webhook/evolution", handler.Webhook(a))
	r.GET("/exports", handler.ListExports(exportsDir))
	r.GET("/exports/:filename", handler.DownloadExport(exportsDir))
	r.GET("/health", handler.Health(exportsDir))
}
