// Package server is the Gamba session server: the TCP acceptor, the
// per-connection sessions, the message handler and the liveness monitor,
// wired over the player and room registries.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cyberinferno/gamba-server/idgenerator"
	"github.com/cyberinferno/gamba-server/internal/archive"
	"github.com/cyberinferno/gamba-server/internal/config"
	"github.com/cyberinferno/gamba-server/internal/protocol"
	"github.com/cyberinferno/gamba-server/internal/registry"
	"github.com/cyberinferno/gamba-server/logger"
	"github.com/cyberinferno/gamba-server/safemap"
)

// stopGrace bounds how long Stop waits for session handlers to drain.
const stopGrace = 2 * time.Second

// Server owns the listener, the live sessions, the registries and the
// background monitor.
type Server struct {
	cfg    config.Config
	logger logger.Logger

	listener net.Listener
	sessions *safemap.SafeMap[uint32, *Session]
	ids      *idgenerator.IdGenerator
	running  atomic.Bool
	wg       sync.WaitGroup

	players    *registry.PlayerRegistry
	rooms      *registry.RoomRegistry
	archive    *archive.Archive
	handler    *handler
	dispatcher *dispatcher
	monitor    *Monitor
}

// New assembles a server from its configuration and match archive.
func New(cfg config.Config, arch *archive.Archive, log logger.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   log.With(logger.Field{Key: "component", Value: "server"}),
		sessions: safemap.NewSafeMap[uint32, *Session](),
		ids:      idgenerator.NewIdGenerator(0),
		players:  registry.NewPlayerRegistry(),
		rooms:    registry.NewRoomRegistry(cfg.MaxRooms),
		archive:  arch,
	}

	s.dispatcher = &dispatcher{players: s.players, rooms: s.rooms, logger: s.logger}
	s.handler = &handler{players: s.players, rooms: s.rooms, archive: arch, logger: s.logger}
	s.monitor = NewMonitor(s.players, s.rooms, arch, s.dispatcher, log,
		time.Duration(cfg.HeartbeatCheckInterval)*time.Second,
		time.Duration(cfg.PlayerTimeoutSeconds)*time.Second,
		time.Duration(cfg.CleanupThresholdSec)*time.Second)

	return s
}

// Start binds the listen address. The accept loop runs inside Run.
func (s *Server) Start() error {
	if s.running.Load() {
		return fmt.Errorf("server already running on %s", s.cfg.Addr())
	}

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	s.listener = ln
	s.running.Store(true)
	s.logger.Info("server started", logger.Field{Key: "addr", Value: s.Addr()})
	return nil
}

// Addr returns the bound listen address, useful when the port was 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr()
	}

	return s.listener.Addr().String()
}

// Run drives the accept loop and the liveness monitor until ctx is
// cancelled, then stops the server. Start must have succeeded first.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.acceptLoop()
		return nil
	})

	g.Go(func() error {
		return s.monitor.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		s.Stop()
		return nil
	})

	return g.Wait()
}

// Stop closes the listener, closes every session to unblock its read, and
// waits out a bounded grace for the handlers; stragglers are abandoned.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}

	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.sessions.Range(func(id uint32, sess *Session) bool {
		_ = sess.Close()
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopGrace):
		s.logger.Warn("session handlers did not drain before the grace expired")
	}

	s.logger.Info("server stopped")
}

// acceptLoop accepts until the listener closes. Each connection gets an id,
// a session, and its own handler goroutine.
func (s *Server) acceptLoop() {
	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}

			s.logger.Error("accept error", logger.Field{Key: "error", Value: err})
			continue
		}

		id := s.ids.Id()
		sess := NewSession(id, conn, s)
		s.sessions.Store(id, sess)

		s.logger.Debug("connection accepted",
			logger.Field{Key: "session_id", Value: id},
			logger.Field{Key: "remote", Value: conn.RemoteAddr().String()})

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.Handle()
		}()
	}
}

// teardown is the single exit path of a session's read loop. The player, if
// any, is detached (never removed) so the reconnection window can run; the
// room's other seats hear a temporarily_disconnected notice.
func (s *Server) teardown(sess *Session) {
	s.sessions.Delete(sess.id)

	name := s.players.BySession(sess.id)
	if name != "" {
		roomID := s.players.RoomOf(name)
		s.players.Detach(name)

		s.logger.Info("player disconnected",
			logger.Field{Key: "player", Value: name},
			logger.Field{Key: "room", Value: roomID},
			logger.Field{Key: "session_id", Value: sess.id})

		if roomID != "" {
			for _, seat := range s.rooms.RoomPlayers(roomID) {
				if seat == name {
					continue
				}

				frame := protocol.PlayerDisconnected(seat, roomID, name,
					protocol.StatusTempDisconnected)
				s.dispatcher.sendTo(seat, frame)
			}
		}
	}

	_ = sess.Close()
}

// Players exposes the player registry for the monitor and tests.
func (s *Server) Players() *registry.PlayerRegistry {
	return s.players
}

// Rooms exposes the room registry for tests.
func (s *Server) Rooms() *registry.RoomRegistry {
	return s.rooms
}

// Monitor exposes the liveness monitor so tests can force a sweep.
func (s *Server) Monitor() *Monitor {
	return s.monitor
}
