package server

import (
	"context"
	"strings"
	"time"

	"github.com/cyberinferno/gamba-server/internal/archive"
	"github.com/cyberinferno/gamba-server/internal/game"
	"github.com/cyberinferno/gamba-server/internal/protocol"
	"github.com/cyberinferno/gamba-server/internal/registry"
	"github.com/cyberinferno/gamba-server/logger"
)

// Protocol error texts for ERROR frames.
const (
	errMustConnect     = "Must connect first"
	errInvalidName     = "Invalid name"
	errNameTaken       = "Connection failed - name already taken"
	errAlreadyConn     = "Already connected"
	errReconnectFailed = "Reconnection failed - player not found or session expired"
	errJoinFailed      = "Error occurred while joining room"
	errLeaveFailed     = "Leave room failed"
	errNotInRoom       = "Not in any room"
	errCannotStart     = "Cannot start game"
	errCannotPickup    = "Cannot pickup pile"
	errInvalidPlay     = "Invalid card play"
	errInternal        = "Internal server error"
)

// handler turns one validated inbound frame into an ordered list of outbound
// deliveries. It consults the registries for authorization and runs every
// game mutation inside WithRoom; it never writes to sockets itself.
type handler struct {
	players *registry.PlayerRegistry
	rooms   *registry.RoomRegistry
	archive *archive.Archive
	logger  logger.Logger
}

// handle routes the frame. A nil or empty result means the frame produced
// nothing to send.
func (h *handler) handle(sess registry.Session, m *protocol.Message) []delivery {
	switch m.Type {
	case protocol.TypeConnect:
		return h.handleConnect(sess, m)
	case protocol.TypeReconnect:
		return h.handleReconnect(sess, m)
	case protocol.TypePing:
		return h.handlePing(sess)
	case protocol.TypeJoinRoom:
		return h.handleJoinRoom(sess)
	case protocol.TypeLeaveRoom:
		return h.handleLeaveRoom(sess)
	case protocol.TypeStartGame:
		return h.handleStartGame(sess)
	case protocol.TypePlayCards:
		return h.handlePlayCards(sess, m)
	case protocol.TypePickupPile:
		return h.handlePickupPile(sess)
	default:
		return nil
	}
}

func (h *handler) handleConnect(sess registry.Session, m *protocol.Message) []delivery {
	name := m.Get("name")
	if !protocol.ValidName(name) {
		return errorReply(errInvalidName)
	}

	switch err := h.players.Attach(name, sess); err {
	case nil:
	case registry.ErrNameTaken:
		return errorReply(errNameTaken)
	case registry.ErrSessionBound:
		return errorReply(errAlreadyConn)
	default:
		return errorReply(errInternal)
	}

	h.logger.Info("player connected",
		logger.Field{Key: "player", Value: name},
		logger.Field{Key: "session_id", Value: sess.ID()})

	return []delivery{direct(protocol.Connected(name))}
}

func (h *handler) handleReconnect(sess registry.Session, m *protocol.Message) []delivery {
	name := m.Get("name")
	if !protocol.ValidName(name) {
		return errorReply(errInvalidName)
	}

	if err := h.players.Reattach(name, sess); err != nil {
		return errorReply(errReconnectFailed)
	}

	h.logger.Info("player reconnected",
		logger.Field{Key: "player", Value: name},
		logger.Field{Key: "session_id", Value: sess.ID()})

	out := []delivery{direct(protocol.Connected(name))}

	roomID := h.players.RoomOf(name)
	if roomID == "" {
		return out
	}

	var seats []string
	h.rooms.WithRoom(roomID, func(room *registry.Room) {
		if room == nil {
			return
		}

		seats = room.Seats()
		if !room.Playing() {
			return
		}

		if view, ok := room.Game().StateFor(name); ok {
			out = append(out, targeted(name, stateFrame(name, roomID, view)))
		}
	})

	for _, seat := range seats {
		if seat != name {
			out = append(out, targeted(seat, protocol.PlayerReconnected(seat, roomID, name)))
		}
	}

	return out
}

func (h *handler) handlePing(sess registry.Session) []delivery {
	name := h.players.BySession(sess.ID())
	if name == "" {
		return errorReply(errMustConnect)
	}

	h.players.UpdatePing(name)
	return []delivery{direct(protocol.Pong())}
}

func (h *handler) handleJoinRoom(sess registry.Session) []delivery {
	name := h.players.BySession(sess.ID())
	if name == "" {
		return errorReply(errMustConnect)
	}

	if h.players.RoomOf(name) != "" {
		return errorReply(errJoinFailed)
	}

	roomID, err := h.rooms.JoinAnyAvailableRoom(name)
	if err != nil {
		h.logger.Warn("join room failed",
			logger.Field{Key: "player", Value: name},
			logger.Field{Key: "error", Value: err})
		return errorReply(errJoinFailed)
	}

	h.players.SetRoom(name, roomID)

	seats := h.rooms.RoomPlayers(roomID)
	full := len(seats) >= registry.RoomSeats

	h.logger.Info("player joined room",
		logger.Field{Key: "player", Value: name},
		logger.Field{Key: "room", Value: roomID},
		logger.Field{Key: "seats", Value: len(seats)})

	joined := protocol.RoomJoined(name, roomID, seats, full)
	return []delivery{broadcast(roomID, joined, "joined_player", name)}
}

func (h *handler) handleLeaveRoom(sess registry.Session) []delivery {
	name := h.players.BySession(sess.ID())
	if name == "" {
		return errorReply(errMustConnect)
	}

	roomID := h.players.RoomOf(name)
	if roomID == "" {
		return errorReply(errNotInRoom)
	}

	// The broadcast goes to the seats the room had before the leave.
	remaining := make([]string, 0, registry.RoomSeats)
	for _, seat := range h.rooms.RoomPlayers(roomID) {
		if seat != name {
			remaining = append(remaining, seat)
		}
	}

	if err := h.rooms.LeaveRoom(name, roomID); err != nil {
		return errorReply(errLeaveFailed)
	}

	h.players.ClearRoom(name)

	h.logger.Info("player left room",
		logger.Field{Key: "player", Value: name},
		logger.Field{Key: "room", Value: roomID})

	out := []delivery{direct(protocol.RoomLeft(name))}
	for _, seat := range remaining {
		left := protocol.RoomLeft(seat)
		left.Set("broadcast_type", "room_notification")
		left.Set("left_player", name)
		out = append(out, targeted(seat, left))
	}

	return out
}

func (h *handler) handleStartGame(sess registry.Session) []delivery {
	name := h.players.BySession(sess.ID())
	if name == "" {
		return errorReply(errMustConnect)
	}

	roomID := h.players.RoomOf(name)
	if roomID == "" {
		return errorReply(errNotInRoom)
	}

	var out []delivery
	failed := ""
	h.rooms.WithRoom(roomID, func(room *registry.Room) {
		if room == nil {
			failed = errNotInRoom
			return
		}

		seats := room.Seats()
		if len(seats) < 2 {
			failed = errCannotStart
			return
		}

		g := room.Game()
		for _, seat := range seats {
			if err := g.AddPlayer(seat); err != nil {
				failed = errCannotStart
				return
			}
		}

		if err := g.Start(); err != nil {
			failed = errCannotStart
			return
		}

		out = append(out, broadcast(roomID, protocol.GameStarted(roomID), "started_by", name))
		for _, seat := range seats {
			if view, ok := g.StateFor(seat); ok {
				out = append(out, targeted(seat, stateFrame(seat, roomID, view)))
			}
		}
	})

	if failed != "" {
		return errorReply(failed)
	}

	h.logger.Info("game started",
		logger.Field{Key: "room", Value: roomID},
		logger.Field{Key: "started_by", Value: name})

	return out
}

func (h *handler) handlePlayCards(sess registry.Session, m *protocol.Message) []delivery {
	name := h.players.BySession(sess.ID())
	if name == "" {
		return errorReply(errMustConnect)
	}

	roomID := h.players.RoomOf(name)
	if roomID == "" {
		return errorReply(errNotInRoom)
	}

	field := m.Get("cards")

	var played []game.Card
	reserve := field == protocol.ReserveToken
	if !reserve {
		cards, err := game.ParseCards(strings.Split(field, ","))
		if err != nil {
			return errorReply(errInvalidPlay)
		}

		played = cards
	}

	var (
		out     []delivery
		failed  string
		summary *archive.MatchSummary
	)

	h.rooms.WithRoom(roomID, func(room *registry.Room) {
		if room == nil {
			failed = errNotInRoom
			return
		}

		g := room.Game()

		var (
			res game.Result
			err error
		)
		if reserve {
			res, err = g.PlayReserve(name)
		} else {
			res, err = g.PlayCards(name, played)
		}

		if err != nil {
			failed = errInvalidPlay
			return
		}

		out = append(out, direct(protocol.TurnResult(name, "play_success")))

		seats := room.Seats()
		if res == game.ResultWin {
			winner := g.Winner()
			for _, seat := range seats {
				out = append(out, targeted(seat, protocol.GameOver(seat, roomID, winner, "")))
			}
			for _, seat := range seats {
				out = append(out, targeted(seat, protocol.RoomLeft(seat)))
			}

			summary = &archive.MatchSummary{
				Room:      roomID,
				Winner:    winner,
				Loser:     otherSeat(seats, winner),
				Reason:    archive.ReasonWin,
				Turns:     g.Turns(),
				StartedAt: g.StartedAt(),
			}
			return
		}

		for _, seat := range seats {
			if view, ok := g.StateFor(seat); ok {
				out = append(out, targeted(seat, stateFrame(seat, roomID, view)))
			}
		}
	})

	if failed != "" {
		return errorReply(failed)
	}

	if summary != nil {
		h.finishRoom(roomID, *summary)
	}

	return out
}

func (h *handler) handlePickupPile(sess registry.Session) []delivery {
	name := h.players.BySession(sess.ID())
	if name == "" {
		return errorReply(errMustConnect)
	}

	roomID := h.players.RoomOf(name)
	if roomID == "" {
		return errorReply(errNotInRoom)
	}

	var (
		out    []delivery
		failed string
	)

	h.rooms.WithRoom(roomID, func(room *registry.Room) {
		if room == nil {
			failed = errNotInRoom
			return
		}

		g := room.Game()
		if err := g.PickupPile(name); err != nil {
			failed = errCannotPickup
			return
		}

		out = append(out, direct(protocol.TurnResult(name, "pickup_success")))
		for _, seat := range room.Seats() {
			if view, ok := g.StateFor(seat); ok {
				out = append(out, targeted(seat, stateFrame(seat, roomID, view)))
			}
		}
	})

	if failed != "" {
		return errorReply(failed)
	}

	return out
}

// finishRoom tears a finished match down: the seats go back to the lobby,
// the room dies and the summary is archived.
func (h *handler) finishRoom(roomID string, summary archive.MatchSummary) {
	for _, seat := range h.rooms.RoomPlayers(roomID) {
		h.players.ClearRoom(seat)
	}

	h.rooms.DeleteRoom(roomID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.archive.Record(ctx, summary)

	h.logger.Info("game over",
		logger.Field{Key: "room", Value: roomID},
		logger.Field{Key: "winner", Value: summary.Winner},
		logger.Field{Key: "reason", Value: summary.Reason})
}

// stateFrame renders a per-seat game view into its GAME_STATE frame.
func stateFrame(recipient, roomID string, v game.View) *protocol.Message {
	top := protocol.EmptyPileCode
	if v.TopPresent {
		top = v.TopCard.String()
	}

	return protocol.GameState(recipient, roomID, protocol.GameStateView{
		Hand:             game.FormatCards(v.Hand),
		Reserves:         v.Reserves,
		OpponentHand:     v.OpponentHand,
		OpponentReserves: v.OpponentReserves,
		CurrentPlayer:    v.CurrentPlayer,
		TopCard:          top,
		DeckSize:         v.DeckSize,
		MustPlayLow:      v.MustPlayLow,
		YourTurn:         v.YourTurn,
	})
}

func errorReply(text string) []delivery {
	return []delivery{direct(protocol.ErrorReply(text))}
}

func otherSeat(seats []string, name string) string {
	for _, seat := range seats {
		if seat != name {
			return seat
		}
	}

	return ""
}
