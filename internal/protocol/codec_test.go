package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Run("encodes type player room and data in insertion order", func(t *testing.T) {
		m := NewMessage(TypeConnected)
		m.Player = "Alice"
		m.Set("name", "Alice")
		m.Set("status", "success")

		assert.Equal(t, "100|Alice||name=Alice|status=success\n", string(Encode(m)))
	})

	t.Run("encodes message without data as three fields", func(t *testing.T) {
		assert.Equal(t, "104||\n", string(Encode(Pong())))
	})

	t.Run("keeps empty values and values containing equals", func(t *testing.T) {
		m := NewMessage(TypeGameState)
		m.Set("hand", "")
		m.Set("note", "a=b")

		assert.Equal(t, "106|||hand=|note=a=b\n", string(Encode(m)))
	})
}

func TestDecode(t *testing.T) {
	t.Run("decodes a connect frame", func(t *testing.T) {
		m, err := Decode("0|||name=Alice")

		require.NoError(t, err)
		assert.Equal(t, TypeConnect, m.Type)
		assert.Empty(t, m.Player)
		assert.Empty(t, m.Room)
		assert.Equal(t, "Alice", m.Get("name"))
	})

	t.Run("decodes player and room fields", func(t *testing.T) {
		m, err := Decode("7|Alice|ROOM_1|cards=2H,2D")

		require.NoError(t, err)
		assert.Equal(t, "Alice", m.Player)
		assert.Equal(t, "ROOM_1", m.Room)
		assert.Equal(t, "2H,2D", m.Get("cards"))
	})

	t.Run("drops data segments without an equals sign", func(t *testing.T) {
		m, err := Decode("2|||")

		require.NoError(t, err)
		assert.Equal(t, TypeJoinRoom, m.Type)
		assert.Empty(t, m.Data)
	})

	t.Run("splits value on the first equals only", func(t *testing.T) {
		m, err := Decode("0|||name=a=b=c")

		require.NoError(t, err)
		assert.Equal(t, "a=b=c", m.Get("name"))
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := Decode("")
		assert.ErrorIs(t, err, ErrEmptyFrame)
	})

	t.Run("rejects frames without a separator", func(t *testing.T) {
		_, err := Decode("hello")
		assert.ErrorIs(t, err, ErrNoSeparator)
	})

	t.Run("rejects non-numeric type tokens", func(t *testing.T) {
		_, err := Decode("abc|x|y")
		assert.ErrorIs(t, err, ErrBadType)
	})

	t.Run("rejects type tokens outside the range", func(t *testing.T) {
		_, err := Decode("201||")
		assert.ErrorIs(t, err, ErrBadType)

		_, err = Decode("-1||")
		assert.ErrorIs(t, err, ErrBadType)
	})

	t.Run("accepts the range boundaries", func(t *testing.T) {
		m, err := Decode("0|")
		require.NoError(t, err)
		assert.Equal(t, 0, m.Type)

		m, err = Decode("200|")
		require.NoError(t, err)
		assert.Equal(t, 200, m.Type)
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	messages := []*Message{
		Connected("Alice"),
		RoomJoined("Alice", "ROOM_1", []string{"Alice"}, false),
		RoomJoined("Bob", "ROOM_1", []string{"Alice", "Bob"}, true),
		RoomLeft("Bob"),
		ErrorReply("Invalid card play"),
		Pong(),
		GameStarted("ROOM_1"),
		TurnResult("Alice", "play_success"),
		GameOver("Bob", "ROOM_3", "Bob", "opponent_disconnect"),
		PlayerDisconnected("Bob", "ROOM_3", "Alice", StatusTempDisconnected),
		PlayerReconnected("Bob", "ROOM_3", "Alice"),
	}

	for _, original := range messages {
		t.Run(TypeName(original.Type), func(t *testing.T) {
			encoded := Encode(original)
			require.Equal(t, byte('\n'), encoded[len(encoded)-1])

			decoded, err := Decode(string(encoded[:len(encoded)-1]))
			require.NoError(t, err)
			assert.Equal(t, original, decoded)
		})
	}
}
