package websocket

import (
	"time"

	"codeberg.org/taleloom/server/internal/errors"
	"codeberg.org/taleloom/server/internal/logger"
	"codeberg.org/taleloom/server/taleloom/rooms"
)

func NewHub(registry *rooms.Registry) *Hub {
	return &Hub{
		registry:   registry,
		clients:    make(map[string]*Client),
		members:    make(map[string]map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *Message, 256),
		handlers:   make(map[string]EventHandler),
		shutdown:   make(chan struct{}),
	}
}

// registers a handler for a specific event name
func (h *Hub) RegisterHandler(event string, handler EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[event] = handler
}

// returns the injected room registry
func (h *Hub) Registry() *rooms.Registry {
	return h.registry
}

// Run is the hub's event loop. Every register, unregister and inbound
// event is processed here one at a time, run-to-completion, so handlers
// never interleave mid-mutation.
func (h *Hub) Run() {
	h.running = true
	defer func() {
		h.running = false
	}()

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case msg := <-h.Inbound:
			h.dispatch(msg)

		case <-h.shutdown:
			h.closeAllConnections()
			return
		}
	}
}

// adds a freshly upgraded connection to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	logger.Info("client connected",
		"conn_id", client.ID,
		"connections", len(h.clients),
	)
}

// removes a disconnected client, running the same room cleanup as an
// explicit leave
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, exists := h.clients[client.ID]
	h.mu.Unlock()

	if !exists {
		return
	}

	h.leaveCurrentRoom(client)

	h.mu.Lock()
	delete(h.clients, client.ID)
	remaining := len(h.clients)
	h.mu.Unlock()

	client.Close()

	logger.Info("client disconnected",
		"conn_id", client.ID,
		"connections", remaining,
	)
}

// routes an inbound event to its registered handler
func (h *Hub) dispatch(msg *Message) {
	h.mu.RLock()
	sender, senderExists := h.clients[msg.ConnID]
	handler, handlerExists := h.handlers[msg.Event]
	h.mu.RUnlock()

	if !senderExists {
		logger.Warn("event from unknown connection",
			"conn_id", msg.ConnID,
			"event", msg.Event,
		)
		return
	}

	if !handlerExists {
		logger.Warn("unhandled event received",
			"event", msg.Event,
			"conn_id", sender.ID,
		)

		sender.SendError(errors.CodeBadRequest, "unsupported event type", nil)
		return
	}

	// handlers run synchronously on the loop; none of them block
	if err := handler(h, sender, msg); err != nil {
		logger.ErrorErr(err, "handler error",
			"event", msg.Event,
			"conn_id", sender.ID,
		)

		sender.SendError(errors.CodeServerError, "failed to process event", err)
	}
}

// moves a client into a room, creating the room on first join. The
// caller has already torn down any previous room membership.
func (h *Hub) enterRoom(client *Client, roomID, storyID string) rooms.Snapshot {
	h.registry.GetOrCreate(roomID, storyID)
	h.registry.AddParticipant(roomID, client.ID, client.Identity())

	h.mu.Lock()
	if h.members[roomID] == nil {
		h.members[roomID] = make(map[string]*Client)
	}
	h.members[roomID][client.ID] = client
	h.mu.Unlock()

	client.EnterRoom(roomID)

	snapshot, _ := h.registry.Snapshot(roomID)

	return snapshot
}

// removes a client from its current room, if any, and notifies the
// remaining participants. Shared by explicit re-join and disconnect.
func (h *Hub) leaveCurrentRoom(client *Client) {
	roomID := client.RoomID()
	if roomID == "" {
		return
	}

	identity := client.Identity()

	h.registry.RemoveParticipant(roomID, client.ID)

	h.mu.Lock()
	if roomClients, ok := h.members[roomID]; ok {
		delete(roomClients, client.ID)

		if len(roomClients) == 0 {
			delete(h.members, roomID)
		}
	}
	h.mu.Unlock()

	client.LeaveRoom()

	if !h.registry.Has(roomID) {
		logger.Info("room has no more participants, removed",
			"room_id", roomID,
		)
		return
	}

	left := UserLeftPayload{Timestamp: time.Now()}
	removed := CursorRemovedPayload{}

	if identity != nil {
		left.UserID = identity.UserID
		left.Name = identity.Name
		removed.UserID = identity.UserID
	}

	if msg, err := NewMessage(EventUserLeft, left); err == nil {
		h.BroadcastToRoom(roomID, msg, "")
	}

	if msg, err := NewMessage(EventUsersUpdated, h.registry.Users(roomID)); err == nil {
		h.BroadcastToRoom(roomID, msg, "")
	}

	if msg, err := NewMessage(EventCursorRemoved, removed); err == nil {
		h.BroadcastToRoom(roomID, msg, "")
	}
}

// BroadcastToRoom sends a message to every connection in a room. An
// empty excludeConnID means the whole room, including the sender.
func (h *Hub) BroadcastToRoom(roomID string, msg *Message, excludeConnID string) {
	h.mu.RLock()
	roomClients, exists := h.members[roomID]

	targets := make([]*Client, 0, len(roomClients))
	if exists {
		for connID, client := range roomClients {
			if connID == excludeConnID {
				continue
			}
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.Send(msg); err != nil {
			logger.ErrorErr(err, "failed to send message to client",
				"conn_id", client.ID,
				"room_id", roomID,
			)
		}
	}
}

// returns the number of live connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// returns the number of active rooms
func (h *Hub) RoomCount() int {
	return h.registry.RoomCount()
}

// returns all clients currently in a room
func (h *Hub) RoomClients(roomID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	roomClients, exists := h.members[roomID]
	if !exists {
		return []*Client{}
	}

	clients := make([]*Client, 0, len(roomClients))

	for _, client := range roomClients {
		clients = append(clients, client)
	}

	return clients
}

func (h *Hub) Shutdown() {
	if h.running {
		close(h.shutdown)
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()

	logger.Info("notifying clients of server shutdown")

	shutdownMsg, err := NewMessage(EventServerShutdown, ServerShutdownPayload{
		Reason: "server is shutting down",
	})
	if err == nil {
		for _, client := range h.clients {
			if sendErr := client.Send(shutdownMsg); sendErr != nil {
				logger.ErrorErr(sendErr, "failed to send shutdown notification",
					"conn_id", client.ID,
				)
			}
		}
	}

	h.mu.Unlock()

	// give clients time to receive the shutdown message
	time.Sleep(500 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("closing all websocket connections")

	for connID, client := range h.clients {
		client.Close()
		logger.Debug("closed client", "conn_id", connID)
	}

	h.clients = make(map[string]*Client)
	h.members = make(map[string]map[string]*Client)
}
