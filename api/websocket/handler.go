package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/taleloom/server/internal/errors"
	"codeberg.org/taleloom/server/internal/logger"
	ws "codeberg.org/taleloom/server/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     ws.CheckOrigin,
}

// handles websocket connections for real-time collaboration. The
// connection starts unauthenticated; identity and room membership are
// established in-band via authenticate and join-room events.
func Handler(hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		connID, err := ws.GenerateConnectionID()
		if err != nil {
			errors.InternalError(c, "failed to generate connection ID", err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.ErrorErr(err, "failed to upgrade connection",
				"ip", c.ClientIP(),
			)

			return
		}

		client := ws.NewClient(connID, conn, hub)

		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()

		logger.Info("websocket connection established",
			"conn_id", connID,
			"ip", c.ClientIP(),
		)
	}
}
