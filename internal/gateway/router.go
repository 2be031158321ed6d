package gateway

import (
	"github.com/gin-gonic/gin"

	"github.com/agentrelay/agentrelay/internal/options"
)

// RegisterRoutes mounts the gateway's HTTP surface on engine, per the
// route table pinned in spec.md §6.
func RegisterRoutes(engine *gin.Engine, h *Handler, gwOpts *options.GatewayOptions) {
	engine.Use(gin.Recovery())
	engine.Use(BearerAuth(gwOpts))

	engine.GET("/health", h.Health)
	engine.GET("/healthz", h.Health)
	engine.GET("/stats", h.Stats)

	v1 := engine.Group("/v1")
	v1.GET("/models", h.Models)
	v1.POST("/chat/completions", h.ChatCompletions)
	v1.POST("/sessions/:conversation_id/interrupt", h.Interrupt)
	v1.GET("/conversations", h.ListConversations)
	v1.POST("/conversations", h.CreateConversation)
	v1.GET("/conversations/:id", h.GetConversation)
}
