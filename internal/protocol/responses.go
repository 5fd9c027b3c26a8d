package protocol

import (
	"strconv"
	"strings"
)

// EmptyPileCode is the sentinel card code meaning "discard pile is empty,
// any card plays". It appears only in outbound state frames.
const EmptyPileCode = "1S"

// ReserveToken in the cards field of PLAY_CARDS requests a blind reserve play.
const ReserveToken = "RESERVE"

// Data key carried on replies that must close the connection after dispatch.
const DisconnectKey = "disconnect"

// Statuses carried by PLAYER_DISCONNECTED frames.
const (
	StatusTempDisconnected = "temporarily_disconnected"
	StatusTimedOut         = "timed_out"
)

// Connected builds the CONNECT/RECONNECT success reply.
func Connected(name string) *Message {
	m := NewMessage(TypeConnected)
	m.Player = name
	m.Set("name", name)
	m.Set("status", "success")
	return m
}

// RoomJoined builds the ROOM_JOINED reply for the joining player. players is
// the room's seat list after the join.
func RoomJoined(name, roomID string, players []string, full bool) *Message {
	m := NewMessage(TypeRoomJoined)
	m.Player = name
	m.Room = roomID
	m.Set("player_count", strconv.Itoa(len(players)))
	m.Set("players", strings.Join(players, ","))
	m.Set("room_full", strconv.FormatBool(full))
	m.Set("status", "success")
	return m
}

// RoomLeft builds the ROOM_LEFT frame addressed to one recipient. The room
// field stays empty: the recipient is no longer in any room.
func RoomLeft(recipient string) *Message {
	m := NewMessage(TypeRoomLeft)
	m.Player = recipient
	m.Set("status", "left")
	return m
}

// ErrorReply builds an ERROR frame with the given protocol error text.
func ErrorReply(text string) *Message {
	m := NewMessage(TypeError)
	m.Set("error", text)
	return m
}

// ErrorDisconnect builds an ERROR frame that instructs the session layer to
// close the connection after dispatch.
func ErrorDisconnect(text string) *Message {
	m := ErrorReply(text)
	m.Set(DisconnectKey, "true")
	return m
}

// Pong builds the PING reply. It carries no fields at all.
func Pong() *Message {
	return NewMessage(TypePong)
}

// GameStarted builds the GAME_STARTED frame for a room.
func GameStarted(roomID string) *Message {
	m := NewMessage(TypeGameStarted)
	m.Room = roomID
	m.Set("status", "started")
	return m
}

// GameStateView is the personalized per-seat snapshot rendered into a
// GAME_STATE frame. Hand is the recipient's own cards; the opponent is
// reduced to counts.
type GameStateView struct {
	Hand             string
	Reserves         int
	OpponentHand     int
	OpponentReserves int
	CurrentPlayer    string
	TopCard          string
	DeckSize         int
	MustPlayLow      bool
	YourTurn         bool
}

// GameState builds the GAME_STATE frame for one recipient.
func GameState(recipient, roomID string, v GameStateView) *Message {
	m := NewMessage(TypeGameState)
	m.Player = recipient
	m.Room = roomID
	m.Set("hand", v.Hand)
	m.Set("reserves", strconv.Itoa(v.Reserves))
	m.Set("opponent_hand", strconv.Itoa(v.OpponentHand))
	m.Set("opponent_reserves", strconv.Itoa(v.OpponentReserves))
	m.Set("current_player", v.CurrentPlayer)
	m.Set("top_card", v.TopCard)
	m.Set("deck_size", strconv.Itoa(v.DeckSize))
	m.Set("must_play_low", strconv.FormatBool(v.MustPlayLow))
	m.Set("your_turn", strconv.FormatBool(v.YourTurn))
	return m
}

// PlayerDisconnected builds the PLAYER_DISCONNECTED frame addressed to one
// remaining seat. status is StatusTempDisconnected for socket loss and
// StatusTimedOut for ping expiry.
func PlayerDisconnected(recipient, roomID, who, status string) *Message {
	m := NewMessage(TypePlayerDisconnected)
	m.Player = recipient
	m.Room = roomID
	m.Set("disconnected_player", who)
	m.Set("status", status)
	return m
}

// PlayerReconnected builds the PLAYER_RECONNECTED frame addressed to one
// other seat.
func PlayerReconnected(recipient, roomID, who string) *Message {
	m := NewMessage(TypePlayerReconnected)
	m.Player = recipient
	m.Room = roomID
	m.Set("reconnected_player", who)
	m.Set("status", "reconnected")
	return m
}

// TurnResult builds the direct reply to a successful PLAY_CARDS or
// PICKUP_PILE; result is "play_success" or "pickup_success".
func TurnResult(actor, result string) *Message {
	m := NewMessage(TypeTurnResult)
	m.Player = actor
	m.Set("result", result)
	m.Set("status", "success")
	return m
}

// GameOver builds the GAME_OVER frame for one recipient. A non-empty reason
// (for example "opponent_disconnect") is emitted between winner and status.
func GameOver(recipient, roomID, winner, reason string) *Message {
	m := NewMessage(TypeGameOver)
	m.Player = recipient
	m.Room = roomID
	m.Set("winner", winner)
	if reason != "" {
		m.Set("reason", reason)
	}
	m.Set("status", "game_over")
	return m
}
