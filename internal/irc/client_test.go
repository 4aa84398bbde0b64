package irc

import (
	"bufio"
	"bytes"
	"context"
	"log"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dalnet/ircc/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer is the far end of a net.Pipe attached to a Client
type testServer struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func (s *testServer) write(data string) {
	require.NoError(s.t, s.conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	_, err := s.conn.Write([]byte(data))
	require.NoError(s.t, err)
}

func (s *testServer) readLine() string {
	require.NoError(s.t, s.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := s.reader.ReadString('\n')
	require.NoError(s.t, err)
	return line
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Server:  "irc.example.org",
		Nick:    "alice",
		IRCName: "Alice Example",
	}
	cfg.SetDefaults()
	cfg.PollInterval = 10 * time.Millisecond
	return cfg
}

func quietLogger() *log.Logger {
	return log.New(&bytes.Buffer{}, "", 0)
}

// startClient attaches a client to a pipe, starts its loop and consumes the
// NICK and USER lines of the handshake
func startClient(t *testing.T, cfg *config.Config, setup func(*Client)) (*Client, *testServer, <-chan error) {
	client, err := NewClient(cfg, quietLogger())
	require.NoError(t, err)
	if setup != nil {
		setup(client)
	}

	local, remote := net.Pipe()
	require.NoError(t, client.Attach(local))

	done := make(chan error, 1)
	go func() { done <- client.Loop(context.Background()) }()

	server := &testServer{t: t, conn: remote, reader: bufio.NewReader(remote)}
	t.Cleanup(func() { _ = remote.Close() })

	if cfg.ServerPass != "" {
		assert.Equal(t, "PASS "+cfg.ServerPass+"\r\n", server.readLine())
	}
	assert.Equal(t, "NICK alice\r\n", server.readLine())
	assert.Equal(t, "USER alice unknown unknown :Alice Example\r\n", server.readLine())

	return client, server, done
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func waitDone(t *testing.T, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for loop to end")
	}
	return nil
}

func TestClientHandshakeWithPassword(t *testing.T) {
	cfg := testConfig()
	cfg.ServerPass = "secret"

	client, _, done := startClient(t, cfg, nil)
	assert.True(t, client.Connected())

	require.NoError(t, client.Disconnect())
	assert.NoError(t, waitDone(t, done))
	assert.False(t, client.Connected())
}

func TestClientPingSplitAcrossReads(t *testing.T) {
	pings := make(chan Event, 4)
	client, server, done := startClient(t, testConfig(), func(c *Client) {
		c.AddCallback(EventPing, func(e Event) { pings <- e })
	})

	server.write("PING :fo")
	time.Sleep(30 * time.Millisecond)
	server.write("o\r\n")

	e := waitEvent(t, pings)
	assert.Equal(t, "foo", e.Message.Param(0))

	select {
	case extra := <-pings:
		t.Fatalf("unexpected second ping: %v", extra.Message)
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, client.Disconnect())
	assert.NoError(t, waitDone(t, done))
}

func TestClientSendsFromCallback(t *testing.T) {
	client, server, done := startClient(t, testConfig(), func(c *Client) {
		c.AddCallback(EventPing, func(e Event) {
			_ = c.Pong(e.Message.Param(0))
		})
	})

	server.write("PING :irc.example.org\r\n")
	assert.Equal(t, "PONG irc.example.org\r\n", server.readLine())

	require.NoError(t, client.Join("#chan"))
	require.NoError(t, client.Privmsg("#chan", "hello there"))
	assert.Equal(t, "JOIN #chan\r\n", server.readLine())
	assert.Equal(t, "PRIVMSG #chan :hello there\r\n", server.readLine())

	require.NoError(t, client.Disconnect())
	assert.NoError(t, waitDone(t, done))
}

func TestClientCTCPAutoReply(t *testing.T) {
	client, server, done := startClient(t, testConfig(), nil)

	server.write(":bob!b@host PRIVMSG alice :\x01PING 12345\x01\r\n")
	assert.Equal(t, "NOTICE bob :\x01PING 12345\x01\r\n", server.readLine())

	server.write(":bob!b@host PRIVMSG alice :\x01VERSION\x01\r\n")
	reply := server.readLine()
	assert.True(t, strings.HasPrefix(reply, "NOTICE bob :\x01VERSION ircc "), reply)

	server.write(":bob!b@host PRIVMSG alice :\x01FINGER\x01\r\n")
	assert.Equal(t, "NOTICE bob :\x01FINGER Alice Example\x01\r\n", server.readLine())

	require.NoError(t, client.Disconnect())
	assert.NoError(t, waitDone(t, done))
}

func TestClientCTCPRepliesDisabled(t *testing.T) {
	cfg := testConfig()
	disabled := false
	cfg.CTCPReplies = &disabled

	requests := make(chan Event, 1)
	client, server, done := startClient(t, cfg, func(c *Client) {
		c.AddCallback(EventCTCPRequest, func(e Event) { requests <- e })
	})

	server.write(":bob!b@host PRIVMSG alice :\x01VERSION\x01\r\n")
	waitEvent(t, requests)

	// Nothing was queued, so the next line out is ours
	require.NoError(t, client.Nick("alice2"))
	assert.Equal(t, "NICK alice2\r\n", server.readLine())

	require.NoError(t, client.Disconnect())
	assert.NoError(t, waitDone(t, done))
}

func TestClientNickTracking(t *testing.T) {
	nicks := make(chan Event, 1)
	client, server, done := startClient(t, testConfig(), func(c *Client) {
		c.AddCallback(EventNick, func(e Event) { nicks <- e })
	})

	require.NoError(t, client.Nick("alice2"))
	assert.Equal(t, "NICK alice2\r\n", server.readLine())
	assert.Equal(t, "alice", client.CurrentNick())

	server.write(":alice!a@host NICK :alice2\r\n")
	waitEvent(t, nicks)
	assert.Equal(t, "alice2", client.CurrentNick())

	require.NoError(t, client.SetMode("+i"))
	assert.Equal(t, "MODE alice2 +i\r\n", server.readLine())

	require.NoError(t, client.Disconnect())
	assert.NoError(t, waitDone(t, done))
}

func TestClientCharsetFallback(t *testing.T) {
	cfg := testConfig()
	cfg.Encoding = "latin1"

	messages := make(chan Event, 1)
	client, server, done := startClient(t, cfg, func(c *Client) {
		c.AddCallback(EventChannelMessage, func(e Event) { messages <- e })
	})

	server.write(":bob!b@host PRIVMSG #chan :caf\xe9\r\n")
	e := waitEvent(t, messages)
	assert.Equal(t, "café", e.Message.Trailing())

	require.NoError(t, client.Disconnect())
	assert.NoError(t, waitDone(t, done))
}

func TestClientDropsMalformedLines(t *testing.T) {
	events := make(chan Event, 4)
	client, server, done := startClient(t, testConfig(), func(c *Client) {
		c.AddCallback(EventUnknown, func(e Event) { events <- e })
		c.AddCallback(EventJoin, func(e Event) { events <- e })
	})

	server.write(":prefixonly\r\n\r\n:bob!b@host JOIN #chan\r\n")
	e := waitEvent(t, events)
	assert.Equal(t, EventJoin, e.Type)

	require.NoError(t, client.Disconnect())
	assert.NoError(t, waitDone(t, done))
}

func TestClientServerClose(t *testing.T) {
	disconnected := make(chan Event, 1)
	client, server, done := startClient(t, testConfig(), func(c *Client) {
		c.AddCallback(EventDisconnected, func(e Event) { disconnected <- e })
	})

	require.NoError(t, server.conn.Close())

	assert.Error(t, waitDone(t, done))
	e := waitEvent(t, disconnected)
	assert.Error(t, e.Err)
	assert.False(t, client.Connected())
}

func TestClientQuit(t *testing.T) {
	disconnected := make(chan Event, 1)
	client, server, done := startClient(t, testConfig(), func(c *Client) {
		c.AddCallback(EventDisconnected, func(e Event) { disconnected <- e })
	})

	require.NoError(t, client.Quit("bye now"))
	assert.Equal(t, "QUIT :bye now\r\n", server.readLine())
	require.NoError(t, server.conn.Close())

	assert.NoError(t, waitDone(t, done))
	e := waitEvent(t, disconnected)
	assert.NoError(t, e.Err)
}

func TestClientNotConnected(t *testing.T) {
	client, err := NewClient(testConfig(), quietLogger())
	require.NoError(t, err)

	assert.ErrorIs(t, client.Join("#chan"), ErrNotConnected)
	assert.ErrorIs(t, client.LastError(), ErrNotConnected)

	err = client.SendRaw("")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, err, client.LastError())

	assert.ErrorIs(t, client.Disconnect(), ErrNotConnected)
	assert.ErrorIs(t, client.Loop(context.Background()), ErrNotConnected)
}

func TestClientRejectsInvalidAction(t *testing.T) {
	client, server, done := startClient(t, testConfig(), nil)

	assert.ErrorIs(t, client.Join(""), ErrInvalidRequest)
	assert.ErrorIs(t, client.SetMode(""), ErrInvalidRequest)
	assert.ErrorIs(t, client.LastError(), ErrInvalidRequest)

	// Neither rejected action reached the wire
	require.NoError(t, client.Part("#chan"))
	assert.Equal(t, "PART #chan\r\n", server.readLine())

	require.NoError(t, client.Disconnect())
	assert.NoError(t, waitDone(t, done))
}

func TestNewClientUnsupportedEncoding(t *testing.T) {
	cfg := testConfig()
	cfg.Encoding = "ebcdic"

	_, err := NewClient(cfg, quietLogger())
	assert.Error(t, err)
}
