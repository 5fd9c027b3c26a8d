package gameclient

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberinferno/gamba-server/internal/protocol"
)

const waitFor = 2 * time.Second

// fakeServer is a bare listener handing accepted connections to the test.
type fakeServer struct {
	listener net.Listener
	conns    chan net.Conn
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	s := &fakeServer{listener: ln, conns: make(chan net.Conn, 4)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			s.conns <- conn
		}
	}()

	return s
}

func (s *fakeServer) addr() string {
	return s.listener.Addr().String()
}

func (s *fakeServer) accept(t *testing.T) net.Conn {
	t.Helper()

	select {
	case conn := <-s.conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(waitFor):
		t.Fatal("no connection arrived")
		return nil
	}
}

func readLine(t *testing.T, r *bufio.Reader, conn net.Conn) string {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimSuffix(line, "\n")
}

func collectFrames(c *Client) <-chan *protocol.Message {
	frames := make(chan *protocol.Message, 16)
	c.OnFrame(func(ev FrameEvent) {
		frames <- ev.Message
	})

	return frames
}

func nextFrame(t *testing.T, frames <-chan *protocol.Message) *protocol.Message {
	t.Helper()

	select {
	case m := <-frames:
		return m
	case <-time.After(waitFor):
		t.Fatal("no frame arrived")
		return nil
	}
}

func TestClientDecodesInboundFrames(t *testing.T) {
	srv := newFakeServer(t)

	c := New(DefaultConfig(srv.addr()))
	t.Cleanup(func() { _ = c.Close() })
	frames := collectFrames(c)

	require.NoError(t, c.Connect())
	assert.True(t, c.IsConnected())
	conn := srv.accept(t)

	_, err := conn.Write([]byte("104||\n"))
	require.NoError(t, err)

	m := nextFrame(t, frames)
	assert.Equal(t, protocol.TypePong, m.Type)

	_, err = conn.Write([]byte("100|Alice||name=Alice|status=success\n103|||error=nope\n"))
	require.NoError(t, err)

	m = nextFrame(t, frames)
	assert.Equal(t, protocol.TypeConnected, m.Type)
	assert.Equal(t, "Alice", m.Get("name"))

	m = nextFrame(t, frames)
	assert.Equal(t, protocol.TypeError, m.Type)
	assert.Equal(t, "nope", m.Get("error"))
}

func TestClientReassemblesSplitFrames(t *testing.T) {
	srv := newFakeServer(t)

	c := New(DefaultConfig(srv.addr()))
	t.Cleanup(func() { _ = c.Close() })
	frames := collectFrames(c)

	require.NoError(t, c.Connect())
	conn := srv.accept(t)

	// One frame delivered in three writes.
	for _, chunk := range []string{"106|Alice|ROOM_1|ha", "nd=2H,3D,KC|your_t", "urn=true\n"} {
		_, err := conn.Write([]byte(chunk))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	m := nextFrame(t, frames)
	assert.Equal(t, protocol.TypeGameState, m.Type)
	assert.Equal(t, "2H,3D,KC", m.Get("hand"))
	assert.Equal(t, "true", m.Get("your_turn"))
}

func TestClientHelpersEncodeRequests(t *testing.T) {
	srv := newFakeServer(t)

	c := New(DefaultConfig(srv.addr()))
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Connect())
	conn := srv.accept(t)
	reader := bufio.NewReader(conn)

	require.NoError(t, c.Login("Zed"))
	assert.Equal(t, "0|||name=Zed", readLine(t, reader, conn))

	require.NoError(t, c.JoinRoom())
	assert.Equal(t, "2||", readLine(t, reader, conn))

	require.NoError(t, c.Ping())
	assert.Equal(t, "4||", readLine(t, reader, conn))

	require.NoError(t, c.StartGame())
	assert.Equal(t, "5||", readLine(t, reader, conn))

	require.NoError(t, c.PlayCards("AH", "AD"))
	assert.Equal(t, "7|||cards=AH,AD", readLine(t, reader, conn))

	require.NoError(t, c.PlayReserve())
	assert.Equal(t, "7|||cards=RESERVE", readLine(t, reader, conn))

	require.NoError(t, c.PickupPile())
	assert.Equal(t, "8||", readLine(t, reader, conn))

	require.NoError(t, c.LeaveRoom())
	assert.Equal(t, "3||", readLine(t, reader, conn))
}

func TestClientSendRequiresConnection(t *testing.T) {
	c := New(DefaultConfig("127.0.0.1:1"))
	t.Cleanup(func() { _ = c.Close() })

	assert.Error(t, c.Ping())
}

func TestAutoReconnectReplaysName(t *testing.T) {
	srv := newFakeServer(t)

	cfg := DefaultConfig(srv.addr())
	cfg.AutoReconnect = true
	cfg.ReconnectInterval = 20 * time.Millisecond

	c := New(cfg)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Connect())
	first := srv.accept(t)
	reader := bufio.NewReader(first)

	require.NoError(t, c.Login("Bot"))
	assert.Equal(t, "0|||name=Bot", readLine(t, reader, first))

	// Server drops the connection; the client redials and reclaims its seat.
	require.NoError(t, first.Close())

	second := srv.accept(t)
	reader = bufio.NewReader(second)
	assert.Equal(t, "6|||name=Bot", readLine(t, reader, second))

	assert.Eventually(t, c.IsConnected, waitFor, 10*time.Millisecond)
}
