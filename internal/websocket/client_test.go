package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/taleloom/server/taleloom/rooms"
)

func TestClientStartsUnauthenticated(t *testing.T) {
	client := NewClient("conn-1", nil, nil)

	assert.Equal(t, StateUnauthenticated, client.State())
	assert.Nil(t, client.Identity())
	assert.Empty(t, client.RoomID())
}

func TestClientStateTransitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *Client)
		want ConnState
	}{
		{
			name: "authenticate moves to authenticated",
			run: func(c *Client) {
				c.SetIdentity(&rooms.Identity{UserID: "u1", Name: "Alice"})
			},
			want: StateAuthenticated,
		},
		{
			name: "join moves to in-room",
			run: func(c *Client) {
				c.SetIdentity(&rooms.Identity{UserID: "u1", Name: "Alice"})
				c.EnterRoom("r1")
			},
			want: StateInRoom,
		},
		{
			name: "leave falls back to authenticated",
			run: func(c *Client) {
				c.SetIdentity(&rooms.Identity{UserID: "u1", Name: "Alice"})
				c.EnterRoom("r1")
				c.LeaveRoom()
			},
			want: StateAuthenticated,
		},
		{
			name: "anonymous join stays trackable",
			run: func(c *Client) {
				c.EnterRoom("r1")
			},
			want: StateInRoom,
		},
		{
			name: "anonymous leave falls back to unauthenticated",
			run: func(c *Client) {
				c.EnterRoom("r1")
				c.LeaveRoom()
			},
			want: StateUnauthenticated,
		},
		{
			name: "authenticating inside a room keeps the room",
			run: func(c *Client) {
				c.EnterRoom("r1")
				c.SetIdentity(&rooms.Identity{UserID: "u1", Name: "Alice"})
			},
			want: StateInRoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient("conn-1", nil, nil)

			tt.run(client)

			assert.Equal(t, tt.want, client.State())
		})
	}
}

func TestLeaveRoomClearsRoomID(t *testing.T) {
	client := NewClient("conn-1", nil, nil)

	client.EnterRoom("r1")
	require.Equal(t, "r1", client.RoomID())

	client.LeaveRoom()
	assert.Empty(t, client.RoomID())
}

func TestSendAfterCloseFails(t *testing.T) {
	client := NewClient("conn-1", nil, nil)

	client.Close()
	require.True(t, client.IsClosed())

	msg, err := NewMessage(EventPong, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, client.Send(msg), ErrConnectionClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	client := NewClient("conn-1", nil, nil)

	client.Close()
	client.Close() // must not panic on the already-closed channel

	assert.True(t, client.IsClosed())
}

func TestEditRateLimitBurst(t *testing.T) {
	client := NewClient("conn-1", nil, nil)

	for i := 0; i < maxEditsPerSecond; i++ {
		assert.True(t, client.allowEdit(), "edit %d should be allowed", i+1)
	}

	assert.False(t, client.allowEdit(), "edit beyond the burst should be rejected")
}

func TestChatRateLimitBurst(t *testing.T) {
	client := NewClient("conn-1", nil, nil)

	for i := 0; i < maxChatMessagesPerMinute; i++ {
		assert.True(t, client.allowChat(), "chat message %d should be allowed", i+1)
	}

	assert.False(t, client.allowChat(), "chat message beyond the burst should be rejected")
}

func TestConnStateString(t *testing.T) {
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "in-room", StateInRoom.String())
}
