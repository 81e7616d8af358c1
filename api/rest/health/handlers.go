package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ws "codeberg.org/taleloom/server/internal/websocket"
)

// returns the server health status with live collaboration counts
func Handler(hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, Response{
			Status:      "ok",
			ActiveUsers: hub.ConnectionCount(),
			ActiveRooms: hub.RoomCount(),
			Timestamp:   time.Now(),
		})
	}
}

// responds with pong for testing
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}
