package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/taleloom/server/internal/config"
	ws "codeberg.org/taleloom/server/internal/websocket"
	"codeberg.org/taleloom/server/taleloom/rooms"
)

// creates and configures a new server instance with all dependencies.
// The room registry is built here and injected into the hub; nothing
// else holds a reference to collaborative state.
func NewServer(cfg *config.Config) *Server {
	registry := rooms.NewRegistry()
	hub := ws.NewHub(registry)

	hub.RegisterHandler(ws.EventAuthenticate, ws.AuthenticateHandler())
	hub.RegisterHandler(ws.EventJoinRoom, ws.JoinRoomHandler())
	hub.RegisterHandler(ws.EventStoryChange, ws.StoryChangeHandler())
	hub.RegisterHandler(ws.EventCursorUpdate, ws.CursorUpdateHandler())
	hub.RegisterHandler(ws.EventTypingStart, ws.TypingHandler(true))
	hub.RegisterHandler(ws.EventTypingStop, ws.TypingHandler(false))
	hub.RegisterHandler(ws.EventChatMessage, ws.ChatHandler())
	hub.RegisterHandler(ws.EventSaveVersion, ws.SaveVersionHandler())
	hub.RegisterHandler(ws.EventPing, ws.PingHandler())

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	server := &Server{
		config:   cfg,
		registry: registry,
		hub:      hub,
		router:   router,
	}

	RegisterRoutes(router, server)

	return server
}
