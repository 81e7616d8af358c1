package rooms

import "time"

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// returns the room for roomID, creating it with an empty version-1
// document if it does not exist yet
func (r *Registry) GetOrCreate(roomID, storyID string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		room = &Room{
			RoomID:  roomID,
			StoryID: storyID,
			document: Document{
				Content: "",
				Version: 1,
			},
			participants: make(map[string]*Participant),
			cursors:      make(map[string]Cursor),
		}
		r.rooms[roomID] = room
	}

	return room
}

// adds a connection to a room; identity may be nil for connections that
// have not authenticated yet
func (r *Registry) AddParticipant(roomID, connID string, identity *Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return
	}

	room.participants[connID] = &Participant{
		Identity: identity,
		JoinedAt: time.Now(),
	}
}

// removes a connection from a room along with its cursor; the room
// itself is deleted the moment its last participant is gone
func (r *Registry) RemoveParticipant(roomID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return
	}

	delete(room.participants, connID)
	delete(room.cursors, connID)

	if len(room.participants) == 0 {
		delete(r.rooms, roomID)
	}
}

// overwrites the room document with new content. An explicit version
// from the client is taken as authoritative with no comparison against
// the current version; otherwise the version increments by one.
// Last write wins; there is no merge.
func (r *Registry) ApplyEdit(roomID, content string, explicitVersion int, author string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return 0, false
	}

	if explicitVersion > 0 {
		room.document.Version = explicitVersion
	} else {
		room.document.Version++
	}

	room.document.Content = content
	room.document.LastModified = time.Now()
	room.document.LastModifiedBy = author

	return room.document.Version, true
}

// upserts the cursor entry for a connection
func (r *Registry) UpdateCursor(roomID, connID string, cursor Cursor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return
	}

	room.cursors[connID] = cursor

	if p, ok := room.participants[connID]; ok {
		p.CursorPosition = cursor.Position
	}
}

// removes the cursor entry for a connection
func (r *Registry) RemoveCursor(roomID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return
	}

	delete(room.cursors, connID)
}

// flags a participant as typing or not; reports whether the
// participant was found
func (r *Registry) SetTyping(roomID, connID string, isTyping bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return false
	}

	p, ok := room.participants[connID]
	if !ok {
		return false
	}

	p.IsTyping = isTyping

	return true
}

// returns the full current room state for a newly joining connection
func (r *Registry) Snapshot(roomID string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return Snapshot{}, false
	}

	return Snapshot{
		RoomID:  room.RoomID,
		StoryID: room.StoryID,
		Story:   room.document,
		Users:   room.userList(),
		Cursors: room.cursorList(),
	}, true
}

// returns the wire-facing list of identified participants
func (r *Registry) Users(roomID string) []User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return []User{}
	}

	return room.userList()
}

// returns the current document version of a room
func (r *Registry) Version(roomID string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return 0, false
	}

	return room.document.Version, true
}

// returns the number of connections inside a room
func (r *Registry) ParticipantCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return 0
	}

	return len(room.participants)
}

// returns the number of active rooms
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

// Has reports whether a room currently exists.
func (r *Registry) Has(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.rooms[roomID]

	return exists
}

// must be called with the registry lock held
func (room *Room) userList() []User {
	users := make([]User, 0, len(room.participants))

	for _, p := range room.participants {
		if p.Identity == nil {
			continue
		}

		users = append(users, User{
			UserID:   p.Identity.UserID,
			Name:     p.Identity.Name,
			Email:    p.Identity.Email,
			JoinedAt: p.JoinedAt,
			IsTyping: p.IsTyping,
		})
	}

	return users
}

// must be called with the registry lock held
func (room *Room) cursorList() []Cursor {
	cursors := make([]Cursor, 0, len(room.cursors))

	for _, c := range room.cursors {
		cursors = append(cursors, c)
	}

	return cursors
}
