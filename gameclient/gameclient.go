// Package gameclient is an event-driven TCP client for the Gamba wire
// protocol. It reassembles newline-delimited frames from the stream, decodes
// them, and notifies callers of decoded frames, connection state changes and
// errors via registered handlers. Auto-reconnect redials on connection loss
// and replays RECONNECT with the last name the caller connected under.
package gameclient

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cyberinferno/gamba-server/internal/protocol"
)

// State represents the current state of the client connection.
type State int

const (
	Disconnected State = iota // Not connected and not attempting to connect
	Connecting                // Connection attempt in progress
	Connected                 // Successfully connected
	Reconnecting              // Disconnected and attempting to reconnect (when AutoReconnect is enabled)
	Closed                    // Client has been closed and will not reconnect
)

// String returns a human-readable name for the connection state.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Reconnecting:
		return "Reconnecting"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// StateEvent is emitted when the connection state changes.
type StateEvent struct {
	State     State     // The new connection state
	Address   string    // The remote address (e.g. "host:port")
	Timestamp time.Time // When the state change occurred
	Error     error     // Non-nil if the state change was due to an error
}

// FrameEvent is emitted for every complete, well-formed frame read from the
// connection.
type FrameEvent struct {
	Message   *protocol.Message // The decoded frame
	Timestamp time.Time         // When the frame was received
}

// ErrorEvent is emitted when a read, write, decode or connection error
// occurs.
type ErrorEvent struct {
	Error     error
	Timestamp time.Time
}

// StateHandler is called when the connection state changes. Handlers are
// invoked from goroutines; implementations must be safe for concurrent use.
type StateHandler func(event StateEvent)

// FrameHandler is called with each decoded frame. Handlers are invoked from
// goroutines; implementations must be safe for concurrent use.
type FrameHandler func(event FrameEvent)

// ErrorHandler is called when an error occurs. Handlers are invoked from
// goroutines; implementations must be safe for concurrent use.
type ErrorHandler func(event ErrorEvent)

// Config holds configuration for the game client.
type Config struct {
	// Address is the "host:port" of the game server.
	Address string
	// AutoReconnect enables automatic reconnection when the connection is
	// lost. After a successful redial the client replays RECONNECT with the
	// last name passed to Login.
	AutoReconnect bool
	// ReconnectInterval is the delay between reconnection attempts.
	ReconnectInterval time.Duration
	// ReadBufferSize is the size of the socket read buffer.
	ReadBufferSize int
	// WriteTimeout is the max duration for a single write; 0 means no timeout.
	WriteTimeout time.Duration
	// ConnectionTimeout is the max duration for establishing a new connection.
	ConnectionTimeout time.Duration
}

// DefaultConfig returns a Config with default values for the given address.
// AutoReconnect is false; override fields as needed before passing to New.
func DefaultConfig(address string) Config {
	return Config{
		Address:           address,
		AutoReconnect:     false,
		ReconnectInterval: 5 * time.Second,
		ReadBufferSize:    4096,
		WriteTimeout:      10 * time.Second,
		ConnectionTimeout: 10 * time.Second,
	}
}

// Client is an event-driven client for the game server. Register handlers
// with OnState, OnFrame and OnError, then call Connect to start. It is safe
// for concurrent use.
type Client struct {
	config Config
	conn   net.Conn
	state  State

	onState StateHandler
	onFrame FrameHandler
	onError ErrorHandler

	mu            sync.RWMutex
	stopChan      chan struct{}
	reconnectChan chan struct{}
	wg            sync.WaitGroup
	closed        bool
	reconnecting  bool
	lastName      string
}

// New creates a game client with the given config. The client starts in
// Disconnected state; call Connect to establish a connection and Close when
// done.
func New(config Config) *Client {
	if config.ReadBufferSize <= 0 {
		config.ReadBufferSize = 4096
	}

	c := &Client{
		config:        config,
		state:         Disconnected,
		stopChan:      make(chan struct{}),
		reconnectChan: make(chan struct{}, 1),
	}

	if config.AutoReconnect {
		c.wg.Add(1)
		go c.reconnectHandler()
	}

	return c
}

// OnState registers the handler for connection state changes. Only one
// handler is active; repeated calls replace the previous handler.
func (c *Client) OnState(handler StateHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = handler
}

// OnFrame registers the handler for decoded frames. Only one handler is
// active; repeated calls replace the previous handler.
func (c *Client) OnFrame(handler FrameHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFrame = handler
}

// OnError registers the handler for errors. Only one handler is active;
// repeated calls replace the previous handler.
func (c *Client) OnError(handler ErrorHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = handler
}

// Connect establishes a TCP connection to the configured address. It returns
// an error if the client is closed, already connected or connecting, or if
// the dial fails.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("client is closed")
	}
	if c.state == Connected || c.state == Connecting {
		c.mu.Unlock()
		return fmt.Errorf("already connected or connecting")
	}
	c.mu.Unlock()

	return c.connect()
}

// Disconnect closes the current connection and moves to Disconnected state.
// It does not close the client; Connect may be called again.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.state == Disconnected || c.state == Closed {
		c.mu.Unlock()
		return nil
	}

	err := c.closeConnLocked()
	c.mu.Unlock()

	c.emitState(Disconnected, nil)
	return err
}

// closeConnLocked closes the socket and marks the client Disconnected.
// Caller holds c.mu and emits the state event after unlocking.
func (c *Client) closeConnLocked() error {
	var err error
	if c.conn != nil {
		err = c.conn.Close()
		c.conn = nil
	}

	c.state = Disconnected
	return err
}

// Close shuts the client down, closes the connection, and stops all
// goroutines. Idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	c.closed = true

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	close(c.stopChan)
	c.wg.Wait()

	c.setState(Closed, nil)

	return nil
}

// GetState returns the current connection state.
func (c *Client) GetState() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected returns true if the client is in Connected state.
func (c *Client) IsConnected() bool {
	return c.GetState() == Connected
}

// Send writes one encoded frame to the connection. On write error the error
// handler fires and reconnect is triggered when AutoReconnect is enabled.
func (c *Client) Send(m *protocol.Message) error {
	c.mu.RLock()
	conn := c.conn
	state := c.state
	c.mu.RUnlock()

	if state != Connected {
		return fmt.Errorf("not connected")
	}

	if conn == nil {
		return fmt.Errorf("connection is nil")
	}

	if c.config.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
			return err
		}

		defer func() {
			_ = conn.SetWriteDeadline(time.Time{}) // Best effort to clear deadline
		}()
	}

	_, err := conn.Write(protocol.Encode(m))
	if err != nil {
		c.emitError(err)
		c.triggerReconnect()
	}

	return err
}

// Login sends CONNECT with the given name and remembers it for reconnect
// replay.
func (c *Client) Login(name string) error {
	c.mu.Lock()
	c.lastName = name
	c.mu.Unlock()

	m := protocol.NewMessage(protocol.TypeConnect)
	m.Set("name", name)
	return c.Send(m)
}

// Reconnect sends RECONNECT with the given name, reclaiming a detached seat,
// and remembers the name for reconnect replay.
func (c *Client) Reconnect(name string) error {
	c.mu.Lock()
	c.lastName = name
	c.mu.Unlock()

	m := protocol.NewMessage(protocol.TypeReconnect)
	m.Set("name", name)
	return c.Send(m)
}

// JoinRoom sends JOIN_ROOM; the server picks or creates the room.
func (c *Client) JoinRoom() error {
	return c.Send(protocol.NewMessage(protocol.TypeJoinRoom))
}

// LeaveRoom sends LEAVE_ROOM.
func (c *Client) LeaveRoom() error {
	return c.Send(protocol.NewMessage(protocol.TypeLeaveRoom))
}

// Ping sends PING.
func (c *Client) Ping() error {
	return c.Send(protocol.NewMessage(protocol.TypePing))
}

// StartGame sends START_GAME.
func (c *Client) StartGame() error {
	return c.Send(protocol.NewMessage(protocol.TypeStartGame))
}

// PlayCards sends PLAY_CARDS with the given card codes, comma-joined.
func (c *Client) PlayCards(codes ...string) error {
	m := protocol.NewMessage(protocol.TypePlayCards)
	m.Set("cards", strings.Join(codes, ","))
	return c.Send(m)
}

// PlayReserve sends a blind reserve play.
func (c *Client) PlayReserve() error {
	return c.PlayCards(protocol.ReserveToken)
}

// PickupPile sends PICKUP_PILE.
func (c *Client) PickupPile() error {
	return c.Send(protocol.NewMessage(protocol.TypePickupPile))
}

func (c *Client) connect() error {
	c.setState(Connecting, nil)

	dialer := net.Dialer{
		Timeout: c.config.ConnectionTimeout,
	}

	conn, err := dialer.Dial("tcp", c.config.Address)
	if err != nil {
		c.setState(Disconnected, err)
		c.emitError(err)
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.setState(Connected, nil)

	c.wg.Add(1)
	go c.readLoop(conn)

	return nil
}

// readLoop reassembles frames from the stream and emits one FrameEvent per
// decoded frame. Malformed frames raise the error handler but do not stop
// the loop; a framer overflow or read error ends it.
func (c *Client) readLoop(conn net.Conn) {
	defer c.wg.Done()

	framer := protocol.NewFramer(protocol.MaxFrameSize)
	buffer := make([]byte, c.config.ReadBufferSize)

	for {
		if c.isClosed() {
			return
		}

		n, err := conn.Read(buffer)

		if c.isClosed() {
			return
		}

		if err != nil {
			c.emitError(err)
			c.triggerReconnect()
			return
		}

		frames, ferr := framer.Push(buffer[:n])
		for _, frame := range frames {
			m, derr := protocol.Decode(frame)
			if derr != nil {
				c.emitError(derr)
				continue
			}

			c.emitFrame(m)
		}

		if ferr != nil {
			c.emitError(ferr)
			c.triggerReconnect()
			return
		}
	}
}

func (c *Client) reconnectHandler() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopChan:
			return
		case <-c.reconnectChan:
			c.mu.Lock()
			if c.reconnecting {
				c.mu.Unlock()
				continue
			}
			c.reconnecting = true
			c.mu.Unlock()

			if err := c.Disconnect(); err != nil {
				c.emitError(err)
			}

			c.setState(Reconnecting, nil)

			select {
			case <-c.stopChan:
				c.mu.Lock()
				c.reconnecting = false
				c.mu.Unlock()
				return
			case <-time.After(c.config.ReconnectInterval):
			}

			if c.isClosed() {
				c.mu.Lock()
				c.reconnecting = false
				c.mu.Unlock()
				return
			}

			err := c.connect()

			c.mu.Lock()
			c.reconnecting = false
			name := c.lastName
			c.mu.Unlock()

			if err != nil {
				select {
				case c.reconnectChan <- struct{}{}:
				default:
				}
				continue
			}

			// Reclaim the detached seat under the old name.
			if name != "" {
				m := protocol.NewMessage(protocol.TypeReconnect)
				m.Set("name", name)
				if err := c.Send(m); err != nil {
					c.emitError(err)
				}
			}
		}
	}
}

func (c *Client) triggerReconnect() {
	if !c.config.AutoReconnect || c.isClosed() {
		return
	}

	select {
	case c.reconnectChan <- struct{}{}:
	default:
	}
}

func (c *Client) setState(state State, err error) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.emitState(state, err)
}

func (c *Client) emitState(state State, err error) {
	c.mu.RLock()
	handler := c.onState
	c.mu.RUnlock()

	if handler != nil {
		event := StateEvent{
			State:     state,
			Address:   c.config.Address,
			Timestamp: time.Now(),
			Error:     err,
		}

		go handler(event)
	}
}

func (c *Client) emitFrame(m *protocol.Message) {
	c.mu.RLock()
	handler := c.onFrame
	c.mu.RUnlock()

	if handler != nil {
		event := FrameEvent{
			Message:   m,
			Timestamp: time.Now(),
		}

		go handler(event)
	}
}

func (c *Client) emitError(err error) {
	c.mu.RLock()
	handler := c.onError
	c.mu.RUnlock()

	if handler != nil {
		event := ErrorEvent{
			Error:     err,
			Timestamp: time.Now(),
		}

		go handler(event)
	}
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
