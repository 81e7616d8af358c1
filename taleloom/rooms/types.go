package rooms

import (
	"sync"
	"time"
)

// Identity is the user attached to a connection by the authenticate
// event. It is trusted as-is; credential verification happens upstream.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
}

// Document is the live shared story content of a room.
type Document struct {
	Content        string    `json:"content"`
	Version        int       `json:"version"`
	LastModified   time.Time `json:"lastModified"`
	LastModifiedBy string    `json:"lastModifiedBy,omitempty"`
}

// Selection is a highlighted character range within the document.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Cursor is the live cursor of one connection.
type Cursor struct {
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Position  int        `json:"position"`
	Selection *Selection `json:"selection,omitempty"`
	Color     string     `json:"color"`
	Timestamp time.Time  `json:"timestamp"`
}

// Participant is a connection currently inside a room. Identity is nil
// for connections that joined before authenticating.
type Participant struct {
	Identity       *Identity
	JoinedAt       time.Time
	IsTyping       bool
	CursorPosition int
}

// User is the wire-facing view of an identified participant, as sent in
// users-updated broadcasts and join snapshots.
type User struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
	IsTyping bool      `json:"isTyping"`
}

// Snapshot is the full current state of a room, handed to a connection
// when it joins.
type Snapshot struct {
	RoomID  string
	StoryID string
	Story   Document
	Users   []User
	Cursors []Cursor
}

// Room is one active collaborative editing session scoped to a story.
// All state is in-memory only; the room vanishes with its last
// participant and nothing is persisted here.
type Room struct {
	RoomID  string
	StoryID string

	document     Document
	participants map[string]*Participant
	cursors      map[string]Cursor
}

// Registry owns every active Room. It is constructed once at process
// start and injected wherever room state is needed; all mutation goes
// through its methods.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}
