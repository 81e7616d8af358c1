package websocket

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"codeberg.org/taleloom/server/internal/colors"
	"codeberg.org/taleloom/server/internal/errors"
	"codeberg.org/taleloom/server/internal/logger"
	"codeberg.org/taleloom/server/taleloom/rooms"
)

// Events that require a room or an identity and arrive without one are
// dropped without a reply. A presence layer has to tolerate client
// races (a cursor-update sent just after a room was left) without
// tearing the connection down.

// handles authenticate events; stores the identity on the connection
// as-is, credential verification belongs to the upstream auth service
func AuthenticateHandler() EventHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		var payload AuthenticatePayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(errors.CodeValidationError, "failed to parse authenticate payload", err)
			return nil
		}

		client.SetIdentity(&rooms.Identity{
			UserID: payload.UserID,
			Name:   payload.Name,
			Email:  payload.Email,
		})

		ack, err := NewMessage(EventAuthenticated, AuthenticatedPayload{Success: true})
		if err != nil {
			return err
		}

		if err := client.Send(ack); err != nil {
			return err
		}

		logger.Info("client authenticated",
			"conn_id", client.ID,
			"user_id", payload.UserID,
		)

		return nil
	}
}

// handles join-room events: leaves any previous room, creates the room
// on first join, replies with a full snapshot and announces the joiner
func JoinRoomHandler() EventHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		var payload JoinRoomPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(errors.CodeValidationError, "failed to parse join-room payload", err)
			return nil
		}

		if payload.RoomID == "" {
			client.SendError(errors.CodeBadRequest, "failed to join room", fmt.Errorf("roomId is required"))
			return nil
		}

		// a connection is in at most one room; re-join leaves the old
		// one with the usual departure broadcasts
		hub.leaveCurrentRoom(client)

		snapshot := hub.enterRoom(client, payload.RoomID, payload.StoryID)

		joined, err := NewMessage(EventRoomJoined, RoomJoinedPayload{
			RoomID:  snapshot.RoomID,
			StoryID: snapshot.StoryID,
			Story:   snapshot.Story,
			Users:   snapshot.Users,
			Cursors: snapshot.Cursors,
		})
		if err != nil {
			return err
		}

		if err := client.Send(joined); err != nil {
			return err
		}

		userJoined, err := NewMessage(EventUserJoined, UserJoinedPayload{
			User:      client.Identity(),
			Timestamp: time.Now(),
		})
		if err != nil {
			return err
		}

		hub.BroadcastToRoom(payload.RoomID, userJoined, client.ID)

		usersUpdated, err := NewMessage(EventUsersUpdated, hub.registry.Users(payload.RoomID))
		if err != nil {
			return err
		}

		hub.BroadcastToRoom(payload.RoomID, usersUpdated, "")

		logger.Info("client joined room",
			"conn_id", client.ID,
			"room_id", payload.RoomID,
			"story_id", payload.StoryID,
			"participants", hub.registry.ParticipantCount(payload.RoomID),
		)

		return nil
	}
}

// handles story-change events; last write wins, the edit is broadcast
// to everyone but the author
func StoryChangeHandler() EventHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		roomID := client.RoomID()
		if roomID == "" {
			return nil
		}

		if !client.allowEdit() {
			client.SendError(errors.CodeTooManyRequests,
				fmt.Sprintf("too many story changes. maximum %d per second.", maxEditsPerSecond), nil)
			return nil
		}

		var payload StoryChangePayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(errors.CodeValidationError, "failed to parse story change", err)
			return nil
		}

		if len(payload.Content) > maxContentSize {
			client.SendError(errors.CodeBadRequest, "story content exceeds maximum size. maximum 100 KB allowed.", nil)
			return nil
		}

		author := "Anonymous"
		identity := client.Identity()
		if identity != nil {
			author = identity.Name
		}

		version, ok := hub.registry.ApplyEdit(roomID, payload.Content, payload.Version, author)
		if !ok {
			return nil
		}

		updated, err := NewMessage(EventStoryUpdated, StoryUpdatedPayload{
			Content:   payload.Content,
			Delta:     payload.Delta,
			Version:   version,
			Author:    identity,
			Timestamp: time.Now(),
		})
		if err != nil {
			return err
		}

		// the author already has the authoritative local copy, no echo
		hub.BroadcastToRoom(roomID, updated, client.ID)

		return nil
	}
}

// handles cursor-update events; the color is derived from the user ID
// so every client renders the same cursor color
func CursorUpdateHandler() EventHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		roomID := client.RoomID()
		identity := client.Identity()

		if roomID == "" || identity == nil {
			return nil
		}

		var payload CursorUpdatePayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(errors.CodeValidationError, "failed to parse cursor update", err)
			return nil
		}

		color := colors.UserColor(identity.UserID)

		hub.registry.UpdateCursor(roomID, client.ID, rooms.Cursor{
			UserID:    identity.UserID,
			Name:      identity.Name,
			Position:  payload.Position,
			Selection: payload.Selection,
			Color:     color,
			Timestamp: time.Now(),
		})

		updated, err := NewMessage(EventCursorUpdated, CursorUpdatedPayload{
			UserID:    identity.UserID,
			Name:      identity.Name,
			Position:  payload.Position,
			Selection: payload.Selection,
			Color:     color,
		})
		if err != nil {
			return err
		}

		hub.BroadcastToRoom(roomID, updated, client.ID)

		return nil
	}
}

// handles typing-start and typing-stop events
func TypingHandler(isTyping bool) EventHandler {
	return func(hub *Hub, client *Client, _ *Message) error {
		roomID := client.RoomID()
		identity := client.Identity()

		if roomID == "" || identity == nil {
			return nil
		}

		if !hub.registry.SetTyping(roomID, client.ID, isTyping) {
			return nil
		}

		typing, err := NewMessage(EventUserTyping, UserTypingPayload{
			UserID:   identity.UserID,
			Name:     identity.Name,
			IsTyping: isTyping,
		})
		if err != nil {
			return err
		}

		hub.BroadcastToRoom(roomID, typing, client.ID)

		return nil
	}
}

// handles chat-message events; the whole room gets the message,
// including the sender, who needs the server-assigned id and timestamp
func ChatHandler() EventHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		roomID := client.RoomID()
		identity := client.Identity()

		if roomID == "" || identity == nil {
			return nil
		}

		if !client.allowChat() {
			client.SendError(errors.CodeTooManyRequests,
				fmt.Sprintf("too many chat messages. maximum %d per minute.", maxChatMessagesPerMinute), nil)
			return nil
		}

		var payload ChatMessagePayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(errors.CodeValidationError, "failed to parse chat message", err)
			return nil
		}

		if len([]rune(payload.Message)) > maxChatMessageSize {
			client.SendError(errors.CodeBadRequest, "message exceeds maximum size. maximum 5000 characters allowed.", nil)
			return nil
		}

		trimmed := strings.TrimSpace(payload.Message)
		if trimmed == "" {
			client.SendError(errors.CodeBadRequest, "message cannot be empty", nil)
			return nil
		}

		broadcast, err := NewMessage(EventChatBroadcast, ChatBroadcastPayload{
			ID:        uuid.NewString(),
			Content:   trimmed,
			Author:    identity,
			Timestamp: time.Now(),
			RoomID:    roomID,
		})
		if err != nil {
			return err
		}

		hub.BroadcastToRoom(roomID, broadcast, "")

		return nil
	}
}

// handles save-version events. The record is tagged with the room's
// current document version and fanned out to everyone; writing it to
// durable storage is the data store collaborator's job.
func SaveVersionHandler() EventHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		roomID := client.RoomID()
		identity := client.Identity()

		if roomID == "" || identity == nil {
			return nil
		}

		var payload SaveVersionPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(errors.CodeValidationError, "failed to parse save-version payload", err)
			return nil
		}

		version, ok := hub.registry.Version(roomID)
		if !ok {
			return nil
		}

		description := payload.Description
		if description == "" {
			description = fmt.Sprintf("Version %d", version)
		}

		saved, err := NewMessage(EventVersionSaved, VersionSavedPayload{
			ID:          uuid.NewString(),
			Content:     payload.Content,
			Description: description,
			Version:     version,
			Author:      identity,
			Timestamp:   time.Now(),
		})
		if err != nil {
			return err
		}

		hub.BroadcastToRoom(roomID, saved, "")

		logger.Info("version snapshot announced",
			"conn_id", client.ID,
			"room_id", roomID,
			"version", version,
		)

		return nil
	}
}

// handles ping events (application keep-alive)
func PingHandler() EventHandler {
	return func(_ *Hub, client *Client, _ *Message) error {
		pong, err := NewMessage(EventPong, nil)
		if err != nil {
			return err
		}

		client.Send(pong) //nolint:errcheck,gosec // best-effort pong

		return nil
	}
}
