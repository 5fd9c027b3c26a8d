package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageSet(t *testing.T) {
	t.Run("appends new keys in order", func(t *testing.T) {
		m := NewMessage(TypeGameOver)
		m.Set("winner", "Bob")
		m.Set("reason", "opponent_disconnect")
		m.Set("status", "game_over")

		assert.Equal(t, []Pair{
			{Key: "winner", Value: "Bob"},
			{Key: "reason", Value: "opponent_disconnect"},
			{Key: "status", Value: "game_over"},
		}, m.Data)
	})

	t.Run("replaces an existing key in place", func(t *testing.T) {
		m := NewMessage(TypeError)
		m.Set("error", "first")
		m.Set("disconnect", "true")
		m.Set("error", "second")

		assert.Equal(t, "second", m.Get("error"))
		assert.Equal(t, "error", m.Data[0].Key)
		assert.Len(t, m.Data, 2)
	})
}

func TestMessageGetHas(t *testing.T) {
	m := NewMessage(TypeGameState)
	m.Set("hand", "")

	assert.True(t, m.Has("hand"))
	assert.Empty(t, m.Get("hand"))
	assert.False(t, m.Has("reserves"))
	assert.Empty(t, m.Get("reserves"))
}

func TestMessageTaggedCopy(t *testing.T) {
	original := RoomJoined("Bob", "ROOM_1", []string{"Alice", "Bob"}, true)
	tagged := original.TaggedCopy("joined_player", "Bob")

	assert.Equal(t, "room_notification", tagged.Get("broadcast_type"))
	assert.Equal(t, "Bob", tagged.Get("joined_player"))

	// The original stays untouched.
	assert.False(t, original.Has("broadcast_type"))
	assert.False(t, original.Has("joined_player"))

	// Tags land after the original data keys.
	assert.Equal(t, "broadcast_type", tagged.Data[len(tagged.Data)-2].Key)
	assert.Equal(t, "joined_player", tagged.Data[len(tagged.Data)-1].Key)
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "CONNECT", TypeName(TypeConnect))
	assert.Equal(t, "GAME_OVER", TypeName(TypeGameOver))
	assert.Equal(t, "UNKNOWN", TypeName(42))
}

func TestRouted(t *testing.T) {
	for _, routed := range []int{TypeConnect, TypeJoinRoom, TypeLeaveRoom, TypePing,
		TypeStartGame, TypeReconnect, TypePlayCards, TypePickupPile} {
		assert.True(t, Routed(routed), TypeName(routed))
	}

	for _, unrouted := range []int{TypeDisconnect, TypeConnected, TypeError, TypeGamePaused, 42, 200} {
		assert.False(t, Routed(unrouted), TypeName(unrouted))
	}
}

func TestValidName(t *testing.T) {
	t.Run("accepts the allowed character classes", func(t *testing.T) {
		assert.True(t, ValidName("Alice"))
		assert.True(t, ValidName("player_1"))
		assert.True(t, ValidName("a-b-C-9"))
		assert.True(t, ValidName("x"))
	})

	t.Run("rejects empty and oversized names", func(t *testing.T) {
		assert.False(t, ValidName(""))
		assert.True(t, ValidName("abcdefghijklmnopqrstuvwxyz_01234"))
		assert.False(t, ValidName("abcdefghijklmnopqrstuvwxyz_012345"))
	})

	t.Run("rejects forbidden characters", func(t *testing.T) {
		assert.False(t, ValidName("name with space"))
		assert.False(t, ValidName("pipe|name"))
		assert.False(t, ValidName("semi;colon"))
		assert.False(t, ValidName("акторка"))
	})
}
