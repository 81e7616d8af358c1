package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"codeberg.org/taleloom/server/internal/errors"
	"codeberg.org/taleloom/server/internal/logger"
	"codeberg.org/taleloom/server/taleloom/rooms"
)

// creates a new websocket client connection in the unauthenticated state
func NewClient(id string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:          id,
		conn:        conn,
		hub:         hub,
		send:        make(chan []byte, 256),
		state:       StateUnauthenticated,
		editLimiter: rate.NewLimiter(rate.Limit(maxEditsPerSecond), maxEditsPerSecond),
		chatLimiter: rate.NewLimiter(rate.Every(time.Minute/maxChatMessagesPerMinute), maxChatMessagesPerMinute),
	}
}

// returns the current lifecycle state
func (c *Client) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// returns the identity set by authenticate, nil before that
func (c *Client) Identity() *rooms.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.identity
}

// returns the room this connection is in, empty outside a room
func (c *Client) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.roomID
}

// attaches a user identity; moves an unauthenticated connection to the
// authenticated state, a connection already in a room stays there
func (c *Client) SetIdentity(identity *rooms.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.identity = identity

	if c.state == StateUnauthenticated {
		c.state = StateAuthenticated
	}
}

// marks the connection as inside a room
func (c *Client) EnterRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.roomID = roomID
	c.state = StateInRoom
}

// clears room membership, falling back to authenticated or
// unauthenticated depending on whether an identity is attached
func (c *Client) LeaveRoom() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.roomID = ""

	if c.identity != nil {
		c.state = StateAuthenticated
	} else {
		c.state = StateUnauthenticated
	}
}

// reads messages from the websocket connection into the hub
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: websocket setup
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: pong handler
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket error",
					"conn_id", c.ID,
					"error", err,
				)
			}

			break
		}

		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			logger.ErrorErr(err, "failed to unmarshal message",
				"conn_id", c.ID,
			)

			c.SendError(errors.CodeBadRequest, "invalid message format", err)
			continue
		}

		if msg.Event == "" {
			c.SendError(errors.CodeBadRequest, "missing event name", nil)
			continue
		}

		msg.ConnID = c.ID
		msg.Timestamp = time.Now()

		// forward to the hub loop for serialized processing
		c.hub.Inbound <- &msg
	}
}

// writes messages from the hub to the websocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket timing

			if !ok {
				// hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck,gosec // G104: close message
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			w.Write(message) //nolint:errcheck,gosec // G104: websocket write

			// add queued messages to the current websocket message
			n := len(c.send)

			for range n {
				w.Write([]byte{'\n'}) //nolint:errcheck,gosec // G104: websocket write
				w.Write(<-c.send)     //nolint:errcheck,gosec // G104: websocket write
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket ping timing

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sends a message to the client
func (c *Client) Send(msg *Message) (err error) {
	// recover from panic if channel is closed
	defer func() {
		if r := recover(); r != nil {
			err = ErrConnectionClosed
		}
	}()

	c.mu.RLock()

	if c.closed {
		c.mu.RUnlock()
		return ErrConnectionClosed
	}

	c.mu.RUnlock()

	messageBytes, marshalErr := json.Marshal(msg)
	if marshalErr != nil {
		return marshalErr
	}

	select {
	case c.send <- messageBytes:
		return nil
	default:
		// channel is full; a client this far behind is effectively dead
		c.sendBufferOverflowError()
		c.Close()
		return ErrConnectionClosed
	}
}

// sends a buffer overflow error directly to the websocket, bypassing
// the full channel
func (c *Client) sendBufferOverflowError() {
	errorMsg, err := NewMessage(EventError, errors.ErrorResponse{
		Error:   "buffer_overflow",
		Message: "message buffer full, connection will be closed",
		Details: "too many messages queued, please reconnect",
	})
	if err != nil {
		return
	}

	errorBytes, err := json.Marshal(errorMsg)
	if err != nil {
		return
	}

	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck,gosec
	c.conn.WriteMessage(websocket.TextMessage, errorBytes)   //nolint:errcheck,gosec
}

// sends an error event to the client
func (c *Client) SendError(code, message string, cause error) {
	errorMsg, err := NewMessage(EventError, errors.ErrorResponse{
		Error:   code,
		Message: message,
		Details: errors.SanitizeDetails(cause),
	})
	if err != nil {
		logger.ErrorErr(err, "failed to create error message",
			"conn_id", c.ID,
			"error_code", code,
		)
		return
	}

	c.Send(errorMsg) //nolint:errcheck,gosec // G104: best effort error notification
}

// closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// checks if the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.closed
}

// checks if the client may send another story change right now
func (c *Client) allowEdit() bool {
	return c.editLimiter.Allow()
}

// checks if the client may send another chat message right now
func (c *Client) allowChat() bool {
	return c.chatLimiter.Allow()
}
