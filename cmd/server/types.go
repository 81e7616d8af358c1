package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/taleloom/server/internal/config"
	ws "codeberg.org/taleloom/server/internal/websocket"
	"codeberg.org/taleloom/server/taleloom/rooms"
)

// holds all dependencies and state for the collaboration server
type Server struct {
	config   *config.Config
	registry *rooms.Registry
	hub      *ws.Hub
	router   *gin.Engine
}
