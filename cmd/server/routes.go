package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/taleloom/server/api/rest/health"
	"codeberg.org/taleloom/server/api/websocket"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	router.Use(CORSMiddleware(server.config))
	router.Use(RateLimitMiddleware())

	router.GET("/health", health.Handler(server.hub))

	v1 := router.Group("/api/v1")

	{
		v1.GET("/ping", health.PingHandler)

		websocket.RegisterRoutes(v1, server.hub)
	}
}
