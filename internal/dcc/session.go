// Package dcc runs direct client-to-client connections negotiated over IRC
// with CTCP DCC offers
//
// A passive session connects to an offer received from a peer. An active
// session listens on a local port that is advertised to the peer in an
// offer of our own
package dcc

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/dalnet/ircc/internal/irc"
	"github.com/pkg/errors"
)

const (
	dialTimeout  = 30 * time.Second
	writeTimeout = 30 * time.Second
)

// ErrWithdrawn is returned by Connect and Listen on an active session whose
// offer was closed before the peer connected
var ErrWithdrawn = errors.Wrap(irc.ErrInvalidRequest, "offer withdrawn")

// Session is one DCC connection
type Session interface {
	// Connect dials the peer, or for active sessions waits for the peer to
	// connect. The session then runs in its own goroutine until it ends or
	// Disconnect is called
	Connect(ctx context.Context) error

	// Disconnect closes the connection, or the listener of an active
	// session that is still waiting
	Disconnect() error

	// Address returns our address for active sessions, the peer's
	// otherwise
	Address() string

	// Port returns our listening port for active sessions, the peer's
	// otherwise
	Port() string

	Type() irc.DCCCommand

	// Active reports whether we made the offer
	Active() bool

	// Peer returns the hostmask of the other side
	Peer() irc.Prefix

	// Done is closed once the session has ended
	Done() <-chan struct{}

	// Err returns why the session ended. It is nil for a clean close
	Err() error
}

// Handlers are the callbacks of a session. Any of them may be nil. They run
// on the session goroutine
type Handlers struct {
	OnConnected    func()
	OnDisconnected func(err error)

	// OnMessage receives each line of a chat
	OnMessage func(text string)

	// OnProgress reports the bytes transferred so far and the file size
	OnProgress func(transferred, size int64)
}

// session holds what every variant shares
type session struct {
	typ      irc.DCCCommand
	peer     irc.Prefix
	address  string
	active   bool
	logger   *log.Logger
	handlers Handlers

	// wmu serializes writers
	wmu sync.Mutex

	mu        sync.Mutex
	port      string
	listener  net.Listener
	conn      net.Conn
	started   bool
	connected bool
	closing   bool
	done      chan struct{}
	err       error
}

func (s *session) init(typ irc.DCCCommand, peer irc.Prefix, address, port string,
	active bool, logger *log.Logger, handlers Handlers) {
	if logger == nil {
		logger = log.Default()
	}
	s.typ = typ
	s.peer = peer
	s.address = address
	s.port = port
	s.active = active
	s.logger = logger
	s.handlers = handlers
	s.done = make(chan struct{})
}

func (s *session) Address() string       { return s.address }
func (s *session) Type() irc.DCCCommand  { return s.typ }
func (s *session) Active() bool          { return s.active }
func (s *session) Peer() irc.Prefix      { return s.peer }
func (s *session) Done() <-chan struct{} { return s.done }

func (s *session) Port() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Connected reports whether the session has a live connection
func (s *session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Listen binds the port of an active session so that it can be advertised
// before Connect is called. Connect listens by itself when needed
func (s *session) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return errors.Wrap(irc.ErrInvalidRequest, "passive sessions do not listen")
	}
	if s.listener != nil {
		return nil
	}
	if s.closing {
		return ErrWithdrawn
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.address, "0"))
	if err != nil {
		return errors.Wrap(err, "error listening")
	}

	_, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		_ = ln.Close()
		return errors.Wrap(err, "error reading listener address")
	}

	s.listener = ln
	s.port = port
	return nil
}

// establish opens the connection and marks the session connected
func (s *session) establish(ctx context.Context) (net.Conn, error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil, errors.Wrap(irc.ErrInvalidRequest, "session already started")
	}
	s.started = true
	s.mu.Unlock()

	var conn net.Conn
	var err error
	if s.active {
		conn, err = s.accept(ctx)
	} else {
		conn, err = s.dial(ctx)
	}
	if err != nil {
		close(s.done)
		if !errors.Is(err, ErrWithdrawn) {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
		return nil, err
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	if s.handlers.OnConnected != nil {
		s.handlers.OnConnected()
	}
	return conn, nil
}

func (s *session) dial(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}

	addr := net.JoinHostPort(s.address, s.Port())
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "error dialing %s", addr)
	}
	return conn, nil
}

func (s *session) accept(ctx context.Context) (net.Conn, error) {
	if err := s.Listen(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return nil, ErrWithdrawn
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()

	// One peer per offer
	conn, err := ln.Accept()
	_ = ln.Close()

	s.mu.Lock()
	s.listener = nil
	withdrawn := s.closing
	s.mu.Unlock()

	if withdrawn {
		if conn != nil {
			_ = conn.Close()
		}
		return nil, ErrWithdrawn
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err, "error accepting")
	}
	return conn, nil
}

// Disconnect closes the session
func (s *session) Disconnect() error {
	s.mu.Lock()
	if !s.connected {
		ln := s.listener
		s.listener = nil
		if ln != nil {
			s.closing = true
		}
		s.mu.Unlock()
		if ln != nil {
			return errors.Wrap(ln.Close(), "error closing listener")
		}
		return irc.ErrNotConnected
	}
	s.closing = true
	conn := s.conn
	s.mu.Unlock()

	if err := conn.Close(); err != nil {
		return errors.Wrap(err, "error closing connection")
	}
	return nil
}

// finish ends a connected session once. An error caused by Disconnect is
// not reported
func (s *session) finish(cause error) {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return
	}
	s.connected = false
	if s.closing {
		cause = nil
	}
	s.err = cause
	conn := s.conn
	s.mu.Unlock()

	_ = conn.Close()

	if cause != nil {
		s.logger.Printf("DCC %s with %s ended: %v", s.typ, s.peer.Nickname, cause)
	}
	if s.handlers.OnDisconnected != nil {
		s.handlers.OnDisconnected(cause)
	}
	close(s.done)
}

func (s *session) write(conn net.Conn, p []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return errors.Wrap(err, "error setting write deadline")
	}
	if _, err := conn.Write(p); err != nil {
		return errors.Wrap(err, "error writing")
	}
	return nil
}

// hostOf returns the dialable host of an offer. Integer IPv4 addresses are
// converted to dotted form
func hostOf(offer irc.DCCRequest) string {
	if ip := offer.IP(); ip != nil {
		return ip.String()
	}
	return offer.Address
}
