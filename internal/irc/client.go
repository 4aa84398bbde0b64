package irc

import (
	"context"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dalnet/ircc/internal/config"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Version information (set at build time or here)
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const (
	dialTimeout  = 30 * time.Second
	writeTimeout = 30 * time.Second
)

var charsets = map[string]*charmap.Charmap{
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"cp1252":       charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"koi8-r":       charmap.KOI8R,
}

// Client is one IRC session
//
// All reads, writes and dispatching happen on the goroutine running Loop.
// Actions such as Join or Privmsg may be called from any goroutine,
// including from callbacks; they queue a line that Loop writes before its
// next read
type Client struct {
	cfg        *config.Config
	logger     *log.Logger
	events     *Events
	session    *Session
	dispatcher *Dispatcher
	charset    encoding.Encoding

	mu        sync.Mutex
	conn      net.Conn
	framer    *Framer
	connected bool
	running   bool
	closing   bool
	quitting  bool
	pending   []string
	lastErr   error
}

// NewClient creates a client for the configured server. It does not
// connect
func NewClient(cfg *config.Config, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default()
	}

	c := &Client{
		cfg:     cfg,
		logger:  logger,
		events:  NewEvents(logger),
		session: NewSession(cfg.Nick, cfg.Username, cfg.IRCName),
	}
	c.dispatcher = NewDispatcher(c.events, c.session)

	if name := strings.ToLower(cfg.Encoding); name != "" && name != "utf-8" && name != "utf8" {
		cm, ok := charsets[name]
		if !ok {
			return nil, errors.Errorf("unsupported encoding %q", cfg.Encoding)
		}
		c.charset = cm
	}

	c.registerHandlers()

	return c, nil
}

// AddCallback registers cb for events of type t
func (c *Client) AddCallback(t EventType, cb Callback) CallbackID {
	return c.events.Add(t, cb)
}

// RemoveCallback unregisters a callback
func (c *Client) RemoveCallback(id CallbackID) bool {
	return c.events.Remove(id)
}

// Session returns the identity tracked for this connection
func (c *Client) Session() *Session {
	return c.session
}

// CurrentNick returns our nickname as last confirmed by the server
func (c *Client) CurrentNick() string {
	return c.session.Nickname()
}

// Connected reports whether the client has a connection
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// LocalAddr returns the local address of the connection, or nil when not
// connected
func (c *Client) LocalAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.LocalAddr()
}

// LastError returns the error recorded by the most recent rejected action
func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Connect dials the configured server and starts registration. Call Loop
// afterwards to run the session
func (c *Client) Connect(ctx context.Context) error {
	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}

	addr := net.JoinHostPort(c.cfg.Server, strconv.Itoa(c.cfg.Port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "error dialing %s", addr)
	}

	return c.Attach(conn)
}

// Attach takes over an established connection, queues the registration
// handshake and raises EventConnected
func (c *Client) Attach(conn net.Conn) error {
	handshake, err := c.handshake()
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return errors.Wrap(ErrInvalidRequest, "already connected")
	}
	c.conn = conn
	c.framer = NewFramer(c.cfg.ReadBuffer, c.cfg.MaxLineLength)
	c.connected = true
	c.closing = false
	c.quitting = false
	c.pending = append(c.pending[:0], handshake...)
	c.mu.Unlock()

	c.events.Emit(Event{Type: EventConnected})
	return nil
}

func (c *Client) handshake() ([]string, error) {
	var lines []string

	if c.cfg.ServerPass != "" {
		pass, err := PassLine(c.cfg.ServerPass)
		if err != nil {
			return nil, err
		}
		lines = append(lines, pass)
	}

	nick, err := NickLine(c.session.Nickname())
	if err != nil {
		return nil, err
	}
	user, err := UserLine(c.session.Username(), c.session.Realname())
	if err != nil {
		return nil, err
	}

	return append(lines, nick, user), nil
}

// Loop runs the session until the connection ends, Disconnect is called or
// ctx is cancelled. Each cycle writes queued lines, reads once, and
// dispatches every complete line read so far
//
// EventDisconnected is raised before Loop returns. A clean shutdown returns
// nil
func (c *Client) Loop(ctx context.Context) error {
	c.mu.Lock()
	conn, framer := c.conn, c.framer
	if conn == nil || c.running {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.running = true
	c.mu.Unlock()

	err := c.cycle(ctx, conn, framer)
	if err != nil {
		c.logger.Printf("Connection lost: %v", err)
	}

	c.teardown(err)
	return err
}

func (c *Client) cycle(ctx context.Context, conn net.Conn, framer *Framer) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.isClosing() {
			return nil
		}

		if err := c.flush(conn); err != nil {
			if c.isClosing() {
				return nil
			}
			return err
		}

		if err := conn.SetReadDeadline(time.Now().Add(c.cfg.PollInterval)); err != nil {
			// Not fatal. Buffered data may still be readable
			c.logger.Printf("Error setting read deadline: %v", err)
		}

		_, readErr := framer.Fill(conn)

		for {
			line, ok := framer.Next()
			if !ok {
				break
			}
			c.handleLine(line)
		}

		if readErr == nil {
			continue
		}
		if ne, ok := readErr.(net.Error); ok && ne.Timeout() {
			continue
		}
		if c.isClosing() || (readErr == io.EOF && c.isQuitting()) {
			return nil
		}
		return errors.Wrap(readErr, "error reading")
	}
}

func (c *Client) flush(conn net.Conn) error {
	c.mu.Lock()
	lines := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, line := range lines {
		if c.cfg.Debug {
			c.logger.Printf("-> %s", strings.TrimRight(line, "\r\n"))
		}

		out := line
		if c.charset != nil {
			encoded, err := encoding.ReplaceUnsupported(c.charset.NewEncoder()).String(line)
			if err == nil {
				out = encoded
			}
		}

		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return errors.Wrap(err, "error setting write deadline")
		}
		if _, err := io.WriteString(conn, out); err != nil {
			return errors.Wrap(err, "error writing")
		}
	}
	return nil
}

func (c *Client) handleLine(line string) {
	if c.charset != nil && !utf8.ValidString(line) {
		if decoded, err := c.charset.NewDecoder().String(line); err == nil {
			line = decoded
		}
	}

	if c.cfg.Debug {
		c.logger.Printf("<- %s", line)
	}

	msg, err := ParseMessage(line)
	if err != nil {
		if c.cfg.Debug {
			c.logger.Printf("Dropping malformed line %q: %v", line, err)
		}
		return
	}

	c.dispatcher.Dispatch(msg)
}

// Disconnect closes the connection without sending QUIT. Loop returns once
// it notices
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if !c.connected {
		c.lastErr = ErrNotConnected
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.closing = true
	conn, running := c.conn, c.running
	c.mu.Unlock()

	err := conn.Close()
	if !running {
		c.teardown(nil)
	}
	if err != nil {
		return errors.Wrap(err, "error closing connection")
	}
	return nil
}

func (c *Client) teardown(cause error) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.connected = false
	c.running = false
	c.conn = nil
	c.framer = nil
	c.pending = nil
	c.mu.Unlock()

	_ = conn.Close()
	c.events.Emit(Event{Type: EventDisconnected, Err: cause})
}

func (c *Client) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}

func (c *Client) isQuitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quitting
}

// send queues a rendered line. A render error or a missing connection is
// recorded as the last error and returned; nothing is queued
func (c *Client) send(line string, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil && !c.connected {
		err = ErrNotConnected
	}
	if err != nil {
		c.lastErr = err
		if c.cfg.Debug {
			c.logger.Printf("Rejected request: %v", err)
		}
		return err
	}

	c.pending = append(c.pending, line)
	return nil
}

// SendRaw sends a raw protocol line
func (c *Client) SendRaw(raw string) error {
	return c.send(RawLine(raw))
}

// Join joins a channel
func (c *Client) Join(channel string) error {
	return c.send(JoinLine(channel))
}

// Part leaves a channel
func (c *Client) Part(channel string) error {
	return c.send(PartLine(channel))
}

// Nick asks the server for a new nickname. The tracked nickname changes
// only once the server confirms it
func (c *Client) Nick(nick string) error {
	return c.send(NickLine(nick))
}

// Quit sends QUIT. An empty reason uses the configured quit message
func (c *Client) Quit(reason string) error {
	if reason == "" {
		reason = c.cfg.QuitMessage
	}
	line, err := QuitLine(reason)
	if err == nil {
		// Set before the line can reach the server so that the EOF
		// answering it counts as a clean shutdown
		c.mu.Lock()
		c.quitting = c.connected
		c.mu.Unlock()
	}
	return c.send(line, err)
}

// Kick removes nick from channel
func (c *Client) Kick(nick, channel, reason string) error {
	return c.send(KickLine(channel, nick, reason))
}

// Invite invites nick to channel
func (c *Client) Invite(nick, channel string) error {
	return c.send(InviteLine(nick, channel))
}

// List requests channel details. An empty channels lists every channel
func (c *Client) List(channels string) error {
	return c.send(ListLine(channels))
}

// Names requests the users on a channel
func (c *Client) Names(channel string) error {
	return c.send(NamesLine(channel))
}

// Notice sends a notice to a user or channel
func (c *Client) Notice(dest, text string) error {
	return c.send(NoticeLine(dest, text))
}

// Privmsg sends a message to a user or channel
func (c *Client) Privmsg(dest, text string) error {
	return c.send(PrivmsgLine(dest, text))
}

// Topic requests or sets a channel topic
func (c *Client) Topic(channel, topic string) error {
	return c.send(TopicLine(channel, topic))
}

// Action sends a CTCP ACTION
func (c *Client) Action(dest, text string) error {
	return c.send(ActionLine(dest, text))
}

// CTCPRequest sends a CTCP query
func (c *Client) CTCPRequest(nick, request string) error {
	return c.send(CTCPRequestLine(nick, request))
}

// CTCPReply sends a CTCP reply
func (c *Client) CTCPReply(nick, reply string) error {
	return c.send(CTCPReplyLine(nick, reply))
}

// SetMode changes our own user modes
func (c *Client) SetMode(modes string) error {
	if modes == "" {
		return c.send("", errors.Wrap(ErrInvalidRequest, "missing modes"))
	}
	return c.send(ModeLine(c.CurrentNick(), modes))
}

// SetChannelMode changes or, with empty modes, queries channel modes
func (c *Client) SetChannelMode(channel, modes string) error {
	return c.send(ModeLine(channel, modes))
}

// Pong answers a server PING
func (c *Client) Pong(target string) error {
	return c.send(PongLine(target))
}

// DCCChat offers nick a chat on our address and port
func (c *Client) DCCChat(nick, address, port string) error {
	return c.send(DCCChatLine(nick, address, port))
}

// DCCSend offers nick a file of size bytes on our address and port
func (c *Client) DCCSend(nick, filename, address, port string, size int64) error {
	return c.send(DCCSendLine(nick, filename, address, port, size))
}
