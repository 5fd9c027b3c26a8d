package server

import (
	"context"
	"time"

	"github.com/cyberinferno/gamba-server/internal/archive"
	"github.com/cyberinferno/gamba-server/internal/protocol"
	"github.com/cyberinferno/gamba-server/internal/registry"
	"github.com/cyberinferno/gamba-server/logger"
)

// Monitor is the liveness sweeper. On every tick it detaches players whose
// pings went stale and cleans up detached players whose reconnection window
// ran out, forfeiting their games to the surviving seat. Frames are queued
// under the registry locks and dispatched after release.
type Monitor struct {
	players    *registry.PlayerRegistry
	rooms      *registry.RoomRegistry
	archive    *archive.Archive
	dispatcher *dispatcher
	logger     logger.Logger

	interval    time.Duration
	pingTimeout time.Duration
	cleanup     time.Duration
}

// NewMonitor wires a monitor over the registries.
func NewMonitor(players *registry.PlayerRegistry, rooms *registry.RoomRegistry,
	arch *archive.Archive, disp *dispatcher, log logger.Logger,
	interval, pingTimeout, cleanup time.Duration) *Monitor {
	return &Monitor{
		players:     players,
		rooms:       rooms,
		archive:     arch,
		dispatcher:  disp,
		logger:      log.With(logger.Field{Key: "component", Value: "monitor"}),
		interval:    interval,
		pingTimeout: pingTimeout,
		cleanup:     cleanup,
	}
}

// Run ticks until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep runs one pass of both scans.
func (m *Monitor) Sweep() {
	m.sweepTimedOut()
	m.sweepExpired()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.logger.Debug("sweep complete",
		logger.Field{Key: "players", Value: m.players.Len()},
		logger.Field{Key: "rooms", Value: m.rooms.RoomCount()},
		logger.Field{Key: "archived_matches", Value: m.archive.Len(ctx)})
}

// sweepTimedOut detaches attached players whose last ping is older than the
// ping timeout. Their sockets are closed, which lets the reconnection window
// start; the room's other seats hear about it with a timed_out status.
func (m *Monitor) sweepTimedOut() {
	for _, name := range m.players.ScanTimedOut(m.pingTimeout) {
		roomID := m.players.RoomOf(name)
		sess := m.players.SessionFor(name)

		// Detach drops the session index first so the read-loop teardown
		// of the closed socket finds no player and stays quiet.
		m.players.Detach(name)

		m.logger.Info("player timed out",
			logger.Field{Key: "player", Value: name},
			logger.Field{Key: "room", Value: roomID})

		if sess != nil {
			_ = sess.Close()
		}

		if roomID == "" {
			continue
		}

		for _, seat := range m.rooms.RoomPlayers(roomID) {
			if seat == name {
				continue
			}

			frame := protocol.PlayerDisconnected(seat, roomID, name, protocol.StatusTimedOut)
			m.dispatcher.sendTo(seat, frame)
		}
	}
}

// sweepExpired removes detached players past the cleanup threshold. A
// victim seated in a live game forfeits it: the survivor gets the win and
// leaves the room, and the room dies. The victim's name becomes free.
func (m *Monitor) sweepExpired() {
	for _, victim := range m.players.ScanExpiredDetached(m.cleanup) {
		roomID := m.players.RoomOf(victim)

		m.logger.Info("cleaning up expired player",
			logger.Field{Key: "player", Value: victim},
			logger.Field{Key: "room", Value: roomID})

		if roomID != "" {
			m.forfeitRoom(roomID, victim)
		}

		m.players.ClearRoom(victim)
		m.players.Remove(victim)
	}
}

// forfeitRoom resolves the victim's room. A playing room awards the
// remaining seat the win; a waiting room just loses the victim's seat.
func (m *Monitor) forfeitRoom(roomID, victim string) {
	var (
		playing   bool
		survivor  string
		turns     int
		startedAt time.Time
	)

	m.rooms.WithRoom(roomID, func(room *registry.Room) {
		if room == nil {
			return
		}

		playing = room.Playing()
		survivor = otherSeat(room.Seats(), victim)
		if playing {
			turns = room.Game().Turns()
			startedAt = room.Game().StartedAt()
		}
	})

	if !playing || survivor == "" {
		// Nothing to award; drop the victim's seat and let an empty room
		// delete itself.
		_ = m.rooms.LeaveRoom(victim, roomID)
		return
	}

	m.dispatcher.sendTo(survivor,
		protocol.GameOver(survivor, roomID, survivor, archive.ReasonForfeit))
	m.dispatcher.sendTo(survivor, protocol.RoomLeft(survivor))

	m.players.ClearRoom(survivor)
	m.rooms.DeleteRoom(roomID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.archive.Record(ctx, archive.MatchSummary{
		Room:      roomID,
		Winner:    survivor,
		Loser:     victim,
		Reason:    archive.ReasonForfeit,
		Turns:     turns,
		StartedAt: startedAt,
	})

	m.logger.Info("game forfeited to survivor",
		logger.Field{Key: "room", Value: roomID},
		logger.Field{Key: "winner", Value: survivor},
		logger.Field{Key: "loser", Value: victim})
}
