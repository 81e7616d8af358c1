package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"codeberg.org/taleloom/server/taleloom/rooms"
)

// inbound event names (client -> server)
const (
	// associates a user identity with the connection
	EventAuthenticate = "authenticate"

	// enters a story room, leaving any previous one
	EventJoinRoom = "join-room"

	// replaces the room document content (last write wins)
	EventStoryChange = "story-change"

	// moves the sender's cursor
	EventCursorUpdate = "cursor-update"

	// typing indicator on/off
	EventTypingStart = "typing-start"
	EventTypingStop  = "typing-stop"

	// room-wide chat message
	EventChatMessage = "chat-message"

	// requests a named version snapshot of the document
	EventSaveVersion = "save-version"

	// application-level keep-alive
	EventPing = "ping"
)

// outbound event names (server -> client)
const (
	// acknowledges authenticate
	EventAuthenticated = "authenticated"

	// full room state sent to the joining connection only
	EventRoomJoined = "room-joined"

	// sent to the rest of the room when someone joins
	EventUserJoined = "user-joined"

	// refreshed participant list, sent to the whole room
	EventUsersUpdated = "users-updated"

	// sent to the remaining room when someone leaves
	EventUserLeft = "user-left"

	// document content changed; never echoed to the author
	EventStoryUpdated = "story-updated"

	// cursor moved / removed
	EventCursorUpdated = "cursor-updated"
	EventCursorRemoved = "cursor-removed"

	// typing indicator changed
	EventUserTyping = "user-typing"

	// chat message fan-out, echoed to the sender with server-assigned id
	EventChatBroadcast = "chat-message"

	// version snapshot announcement
	EventVersionSaved = "version-saved"

	// reply to ping
	EventPong = "pong"

	// sent to every client before the process exits
	EventServerShutdown = "server-shutdown"

	// error report to a single connection
	EventError = "error"
)

// client connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512 KB

	// rate limiting constants
	maxEditsPerSecond        = 10 // maximum story changes per second
	maxChatMessagesPerMinute = 20 // maximum chat messages per minute

	// content size limits
	maxContentSize     = 100 * 1024 // 100 KB maximum story content size
	maxChatMessageSize = 5000       // 5000 characters maximum chat message size
)

// errors
var (
	ErrConnectionClosed  = errors.New("connection closed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrContentTooLarge   = errors.New("content too large")
	ErrInvalidMessage    = errors.New("invalid message format")
)

// ConnState is the explicit lifecycle state of a connection. A
// connection may enter a room before authenticating; identity and room
// membership are tracked separately from the state tag.
type ConnState int

const (
	StateUnauthenticated ConnState = iota
	StateAuthenticated
	StateInRoom
)

func (s ConnState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateInRoom:
		return "in-room"
	default:
		return "unauthenticated"
	}
}

// Message is the wire envelope, symmetric in both directions.
type Message struct {
	Event     string          `json:"event"`
	ConnID    string          `json:"-"` // internal only, never sent to clients
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// identity carried by an authenticate event
type AuthenticatePayload struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
}

// acknowledges authentication
type AuthenticatedPayload struct {
	Success bool `json:"success"`
}

// room selection carried by a join-room event
type JoinRoomPayload struct {
	RoomID  string `json:"roomId"`
	StoryID string `json:"storyId"`
}

// full room state sent to the joining connection
type RoomJoinedPayload struct {
	RoomID  string         `json:"roomId"`
	StoryID string         `json:"storyId"`
	Story   rooms.Document `json:"story"`
	Users   []rooms.User   `json:"users"`
	Cursors []rooms.Cursor `json:"cursors"`
}

// announces a new participant to the rest of the room
type UserJoinedPayload struct {
	User      *rooms.Identity `json:"user"`
	Timestamp time.Time       `json:"timestamp"`
}

// announces a departed participant to the remaining room
type UserLeftPayload struct {
	UserID    string    `json:"userId,omitempty"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// document edit carried by a story-change event. Version, when set, is
// taken as authoritative with no conflict detection.
type StoryChangePayload struct {
	Content  string          `json:"content"`
	Delta    json.RawMessage `json:"delta,omitempty"`
	Version  int             `json:"version,omitempty"`
	Position int             `json:"position,omitempty"`
}

// document edit fan-out to the rest of the room
type StoryUpdatedPayload struct {
	Content   string          `json:"content"`
	Delta     json.RawMessage `json:"delta,omitempty"`
	Version   int             `json:"version"`
	Author    *rooms.Identity `json:"author"`
	Timestamp time.Time       `json:"timestamp"`
}

// cursor move carried by a cursor-update event
type CursorUpdatePayload struct {
	Position  int              `json:"position"`
	Selection *rooms.Selection `json:"selection,omitempty"`
}

// cursor fan-out to the rest of the room
type CursorUpdatedPayload struct {
	UserID    string           `json:"userId"`
	Name      string           `json:"name"`
	Position  int              `json:"position"`
	Selection *rooms.Selection `json:"selection,omitempty"`
	Color     string           `json:"color"`
}

// cursor teardown broadcast after a participant leaves
type CursorRemovedPayload struct {
	UserID string `json:"userId"`
}

// typing indicator fan-out
type UserTypingPayload struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	IsTyping bool   `json:"isTyping"`
}

// chat text carried by a chat-message event
type ChatMessagePayload struct {
	Message string `json:"message"`
}

// chat fan-out with the server-assigned id and timestamp
type ChatBroadcastPayload struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Author    *rooms.Identity `json:"author"`
	Timestamp time.Time       `json:"timestamp"`
	RoomID    string          `json:"roomId"`
}

// version snapshot request carried by a save-version event
type SaveVersionPayload struct {
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
}

// version snapshot announcement; durable storage is the data store
// collaborator's job, this core only fans the record out
type VersionSavedPayload struct {
	ID          string          `json:"id"`
	Content     string          `json:"content"`
	Description string          `json:"description"`
	Version     int             `json:"version"`
	Author      *rooms.Identity `json:"author"`
	Timestamp   time.Time       `json:"timestamp"`
}

// announces process shutdown
type ServerShutdownPayload struct {
	Reason string `json:"reason"`
}

// Client is one live websocket connection.
type Client struct {
	// unique identifier, assigned by the transport layer on upgrade
	ID string

	// websocket connection
	conn *websocket.Conn

	// hub reference for inbound event delivery
	hub *Hub

	// buffered channel of outbound messages
	send chan []byte

	// guards state, identity, roomID and closed
	mu sync.RWMutex

	// explicit connection lifecycle state
	state ConnState

	// identity set by authenticate; nil until then
	identity *rooms.Identity

	// room this connection is currently in; empty outside a room
	roomID string

	// flag indicating if client is closed
	closed bool

	// token buckets for story-change and chat-message events
	editLimiter *rate.Limiter
	chatLimiter *rate.Limiter
}

// EventHandler processes a single inbound event. Handlers run one at a
// time on the hub loop and must not block.
type EventHandler func(hub *Hub, client *Client, msg *Message) error

// Hub multiplexes every connection and room. Inbound events from all
// connections funnel through one run loop, so handlers execute
// serially, run-to-completion; room state is never mutated from two
// handlers at once.
type Hub struct {
	// room registry holding documents and presence, injected at startup
	registry *rooms.Registry

	// every live connection by connection ID
	clients map[string]*Client

	// room membership for fan-out: room ID -> connection ID -> client
	members map[string]map[string]*Client

	// register requests from the transport layer
	Register chan *Client

	// unregister requests (transport disconnect)
	Unregister chan *Client

	// inbound events from client read pumps
	Inbound chan *Message

	// event handlers by event name
	handlers map[string]EventHandler

	// guards clients, members and handlers; the health endpoint reads
	// counts from HTTP goroutines
	mu sync.RWMutex

	// flag indicating if the hub loop is running
	running bool

	// channel to signal shutdown
	shutdown chan struct{}
}
