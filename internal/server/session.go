package server

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/cyberinferno/gamba-server/internal/protocol"
	"github.com/cyberinferno/gamba-server/logger"
)

const readBufferSize = 4096

// Session owns one accepted connection: it reassembles frames from the byte
// stream, routes each through the handler, dispatches the replies, and on
// exit detaches its player and notifies the room. The session is the sole
// reader of its socket; writes serialize on an internal mutex because the
// liveness monitor and other sessions also target it.
type Session struct {
	id     uint32
	conn   net.Conn
	server *Server
	logger logger.Logger

	writeMu sync.Mutex
	closed  atomic.Bool
}

// NewSession wraps an accepted connection.
func NewSession(id uint32, conn net.Conn, srv *Server) *Session {
	return &Session{
		id:     id,
		conn:   conn,
		server: srv,
		logger: srv.logger.With(logger.Field{Key: "session_id", Value: id}),
	}
}

// ID returns the session id assigned by the acceptor.
func (s *Session) ID() uint32 {
	return s.id
}

// Send writes one encoded frame. Safe for concurrent use.
func (s *Session) Send(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.conn.Write(data)
	return err
}

// Close shuts the connection down, unblocking the read loop. Idempotent.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	return s.conn.Close()
}

// Handle runs the session's read loop until the peer disconnects, the frame
// buffer overflows, or the invalid-frame streak closes the connection.
func (s *Session) Handle() {
	defer s.server.teardown(s)

	framer := protocol.NewFramer(protocol.MaxFrameSize)
	buf := make([]byte, readBufferSize)
	invalid := 0

	for {
		n, err := s.conn.Read(buf)
		if err != nil {
			return
		}

		frames, ferr := framer.Push(buf[:n])
		for _, frame := range frames {
			ok, disconnect := s.process(frame)
			if disconnect {
				return
			}

			if ok {
				invalid = 0
				continue
			}

			invalid++
			if invalid >= s.server.cfg.InvalidMessageLimit {
				s.logger.Warn("closing session after repeated invalid frames",
					logger.Field{Key: "count", Value: invalid})
				return
			}
		}

		if ferr != nil {
			s.logger.Warn("frame buffer overflow, closing session")
			return
		}
	}
}

// process handles one complete frame. ok is false for frames that count
// toward the invalid streak; disconnect requests closing the connection
// after any replies have been sent.
func (s *Session) process(frame string) (ok bool, disconnect bool) {
	m, err := protocol.Decode(frame)
	if err != nil {
		s.logger.Debug("dropping malformed frame", logger.Field{Key: "error", Value: err})
		return false, false
	}

	if !protocol.Routed(m.Type) {
		s.logger.Debug("dropping unrouted frame",
			logger.Field{Key: "type", Value: m.Type})
		return false, false
	}

	if text := protocol.MissingRequiredData(m); text != "" {
		s.server.dispatcher.dispatchAll(s, errorReply(text))
		return false, false
	}

	deliveries := s.handleSafely(m)
	s.server.dispatcher.dispatchAll(s, deliveries)

	for _, dv := range deliveries {
		if dv.kind == deliverDirect && dv.msg.Get(protocol.DisconnectKey) == "true" {
			return true, true
		}
	}

	return true, false
}

// handleSafely shields the read loop from handler panics; the peer gets a
// generic error and stays connected.
func (s *Session) handleSafely(m *protocol.Message) (out []delivery) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic",
				logger.Field{Key: "type", Value: protocol.TypeName(m.Type)},
				logger.Field{Key: "panic", Value: r})
			out = errorReply(errInternal)
		}
	}()

	return s.server.handler.handle(s, m)
}
