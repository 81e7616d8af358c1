package rooms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateStartsWithEmptyDocument(t *testing.T) {
	registry := NewRegistry()

	room := registry.GetOrCreate("r1", "s1")
	require.NotNil(t, room)

	snapshot, ok := registry.Snapshot("r1")
	require.True(t, ok)
	assert.Equal(t, "", snapshot.Story.Content)
	assert.Equal(t, 1, snapshot.Story.Version)
	assert.Equal(t, "s1", snapshot.StoryID)
}

func TestGetOrCreateReturnsExistingRoom(t *testing.T) {
	registry := NewRegistry()

	first := registry.GetOrCreate("r1", "s1")
	second := registry.GetOrCreate("r1", "s1")

	assert.Same(t, first, second)
	assert.Equal(t, 1, registry.RoomCount())
}

func TestAddParticipants(t *testing.T) {
	registry := NewRegistry()
	registry.GetOrCreate("r1", "s1")

	registry.AddParticipant("r1", "conn-1", &Identity{UserID: "u1", Name: "Alice"})
	registry.AddParticipant("r1", "conn-2", &Identity{UserID: "u2", Name: "Bob"})
	registry.AddParticipant("r1", "conn-3", nil) // joined before authenticating

	assert.Equal(t, 3, registry.ParticipantCount("r1"))

	// only identified participants appear in the user list
	assert.Len(t, registry.Users("r1"), 2)
}

func TestRemoveLastParticipantDeletesRoom(t *testing.T) {
	registry := NewRegistry()
	registry.GetOrCreate("r1", "s1")
	registry.AddParticipant("r1", "conn-1", &Identity{UserID: "u1", Name: "Alice"})
	registry.AddParticipant("r1", "conn-2", &Identity{UserID: "u2", Name: "Bob"})

	registry.RemoveParticipant("r1", "conn-1")
	assert.True(t, registry.Has("r1"))

	registry.RemoveParticipant("r1", "conn-2")
	assert.False(t, registry.Has("r1"))
	assert.Equal(t, 0, registry.RoomCount())
}

func TestRejoinAfterTeardownStartsFresh(t *testing.T) {
	registry := NewRegistry()
	registry.GetOrCreate("r1", "s1")
	registry.AddParticipant("r1", "conn-1", &Identity{UserID: "u1", Name: "Alice"})

	_, ok := registry.ApplyEdit("r1", "draft text", 0, "Alice")
	require.True(t, ok)

	registry.RemoveParticipant("r1", "conn-1")
	require.False(t, registry.Has("r1"))

	// same room ID, brand new document
	registry.GetOrCreate("r1", "s1")

	snapshot, ok := registry.Snapshot("r1")
	require.True(t, ok)
	assert.Equal(t, "", snapshot.Story.Content)
	assert.Equal(t, 1, snapshot.Story.Version)
}

func TestApplyEditIncrementsVersion(t *testing.T) {
	registry := NewRegistry()
	registry.GetOrCreate("r1", "s1")

	version, ok := registry.ApplyEdit("r1", "A", 0, "Alice")
	require.True(t, ok)
	assert.Equal(t, 2, version)

	version, ok = registry.ApplyEdit("r1", "B", 0, "Alice")
	require.True(t, ok)
	assert.Equal(t, 3, version)

	snapshot, _ := registry.Snapshot("r1")
	assert.Equal(t, "B", snapshot.Story.Content)
	assert.Equal(t, "Alice", snapshot.Story.LastModifiedBy)
}

func TestApplyEditExplicitVersionIsAuthoritative(t *testing.T) {
	registry := NewRegistry()
	registry.GetOrCreate("r1", "s1")

	registry.ApplyEdit("r1", "first", 0, "Alice")
	registry.ApplyEdit("r1", "second", 0, "Alice")

	// a stale client may roll the version back; last write wins with no
	// comparison, by design
	version, ok := registry.ApplyEdit("r1", "stale", 2, "Bob")
	require.True(t, ok)
	assert.Equal(t, 2, version)

	current, ok := registry.Version("r1")
	require.True(t, ok)
	assert.Equal(t, 2, current)
}

func TestApplyEditUnknownRoomIsNoOp(t *testing.T) {
	registry := NewRegistry()

	_, ok := registry.ApplyEdit("nope", "content", 0, "Alice")
	assert.False(t, ok)
}

func TestCursorLifecycle(t *testing.T) {
	registry := NewRegistry()
	registry.GetOrCreate("r1", "s1")
	registry.AddParticipant("r1", "conn-1", &Identity{UserID: "u1", Name: "Alice"})

	registry.UpdateCursor("r1", "conn-1", Cursor{
		UserID:   "u1",
		Name:     "Alice",
		Position: 42,
		Color:    "#4ECDC4",
	})

	snapshot, _ := registry.Snapshot("r1")
	require.Len(t, snapshot.Cursors, 1)
	assert.Equal(t, 42, snapshot.Cursors[0].Position)

	registry.RemoveCursor("r1", "conn-1")

	snapshot, _ = registry.Snapshot("r1")
	assert.Empty(t, snapshot.Cursors)
}

func TestRemoveParticipantRemovesCursor(t *testing.T) {
	registry := NewRegistry()
	registry.GetOrCreate("r1", "s1")
	registry.AddParticipant("r1", "conn-1", &Identity{UserID: "u1", Name: "Alice"})
	registry.AddParticipant("r1", "conn-2", &Identity{UserID: "u2", Name: "Bob"})
	registry.UpdateCursor("r1", "conn-1", Cursor{UserID: "u1", Position: 5})

	registry.RemoveParticipant("r1", "conn-1")

	snapshot, ok := registry.Snapshot("r1")
	require.True(t, ok)
	assert.Empty(t, snapshot.Cursors)
	assert.Len(t, snapshot.Users, 1)
}

func TestSetTyping(t *testing.T) {
	registry := NewRegistry()
	registry.GetOrCreate("r1", "s1")
	registry.AddParticipant("r1", "conn-1", &Identity{UserID: "u1", Name: "Alice"})

	assert.True(t, registry.SetTyping("r1", "conn-1", true))

	users := registry.Users("r1")
	require.Len(t, users, 1)
	assert.True(t, users[0].IsTyping)

	// unknown participant or room is a guarded no-op
	assert.False(t, registry.SetTyping("r1", "conn-9", true))
	assert.False(t, registry.SetTyping("nope", "conn-1", true))
}

func TestSnapshotUnknownRoom(t *testing.T) {
	registry := NewRegistry()

	_, ok := registry.Snapshot("nope")
	assert.False(t, ok)
	assert.Empty(t, registry.Users("nope"))
	assert.Equal(t, 0, registry.ParticipantCount("nope"))
}
