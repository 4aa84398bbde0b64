package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dalnet/ircc/internal/dcc"
	"github.com/dalnet/ircc/internal/irc"
	"github.com/pkg/errors"
)

// acceptTimeout bounds how long an offer, ours or theirs, may take to
// connect
const acceptTimeout = 2 * time.Minute

// transfer is a DCC offer received from a peer, or a session once started
type transfer struct {
	id      int
	peer    irc.Prefix
	offer   irc.DCCRequest
	session dcc.Session
}

func (t *transfer) describe() string {
	if t.session == nil {
		return fmt.Sprintf("#%d %s offer from %s: %s at %s", t.id, t.offer.Type,
			t.peer.Nickname, t.offer.Argument, t.offer.HostPort())
	}

	state := "waiting"
	if s, ok := t.session.(interface{ Connected() bool }); ok && s.Connected() {
		state = "connected"
	}
	if t.session.Active() {
		return fmt.Sprintf("#%d %s to %s on port %s (%s)", t.id, t.session.Type(),
			t.peer.Nickname, t.session.Port(), state)
	}
	return fmt.Sprintf("#%d %s from %s (%s)", t.id, t.session.Type(), t.peer.Nickname, state)
}

// transfers tracks the DCC offers and sessions of the console
type transfers struct {
	console *console
	logger  *log.Logger

	mu      sync.Mutex
	nextID  int
	entries map[int]*transfer
}

func newTransfers(c *console) *transfers {
	return &transfers{
		console: c,
		logger:  log.Default(),
		entries: make(map[int]*transfer),
	}
}

func (t *transfers) add(tr *transfer) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	tr.id = t.nextID
	t.entries[tr.id] = tr
	return tr.id
}

// get returns a copy of a transfer
func (t *transfers) get(id int) (transfer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tr, ok := t.entries[id]
	if !ok {
		return transfer{}, false
	}
	return *tr, true
}

func (t *transfers) remove(id int) {
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}

func (t *transfers) onOffer(e irc.Event) {
	if !e.DCC.Valid() {
		t.console.printf("*** Malformed DCC offer from %s: %s", sender(e), e.CTCP.Argument)
		return
	}

	tr := &transfer{peer: e.Source(), offer: e.DCC}
	id := t.add(tr)

	switch e.DCC.Type {
	case irc.DCCChat:
		t.console.printf("*** DCC CHAT offer #%d from %s (%s), /dcc accept %d",
			id, e.Nick(), e.DCC.HostPort(), id)
	case irc.DCCSend:
		size := "unknown size"
		if e.DCC.HasSize {
			size = strconv.FormatInt(e.DCC.Size, 10) + " bytes"
		}
		t.console.printf("*** DCC SEND offer #%d from %s: %s (%s), /dcc accept %d",
			id, e.Nick(), dcc.SafeName(e.DCC.Argument), size, id)
	}
}

func (t *transfers) command(args string) error {
	parts := splitArgs(args, 3)
	if len(parts) == 0 {
		t.list()
		return nil
	}

	switch strings.ToLower(parts[0]) {
	case "list":
		t.list()
		return nil
	case "chat":
		if len(parts) != 2 {
			return usage("dcc")
		}
		return t.offerChat(parts[1])
	case "send":
		if len(parts) != 3 {
			return usage("dcc")
		}
		return t.offerFile(parts[1], parts[2])
	case "accept":
		id, err := t.parseID(parts)
		if err != nil {
			return err
		}
		return t.accept(id)
	case "msg":
		if len(parts) != 3 {
			return usage("dcc")
		}
		id, err := t.parseID(parts[:2])
		if err != nil {
			return err
		}
		return t.chat(id, parts[2])
	case "close":
		id, err := t.parseID(parts)
		if err != nil {
			return err
		}
		return t.close(id)
	}
	return usage("dcc")
}

func (t *transfers) parseID(parts []string) (int, error) {
	if len(parts) != 2 {
		return 0, usage("dcc")
	}
	id, err := strconv.Atoi(strings.TrimPrefix(parts[1], "#"))
	if err != nil {
		return 0, usage("dcc")
	}
	return id, nil
}

func (t *transfers) list() {
	t.mu.Lock()
	var ids []int
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var lines []string
	for _, id := range ids {
		lines = append(lines, t.entries[id].describe())
	}
	t.mu.Unlock()

	if len(lines) == 0 {
		t.console.printf("*** No DCC sessions")
		return
	}
	for _, line := range lines {
		t.console.printf("*** %s", line)
	}
}

// localAddress returns the address to listen on and its form for an offer
func (t *transfers) localAddress() (string, string, error) {
	address := t.console.cfg.DCC.Address
	if address == "" {
		addr := t.console.client.LocalAddr()
		if addr == nil {
			return "", "", irc.ErrNotConnected
		}
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			return "", "", errors.Wrap(err, "unable to determine local address")
		}
		address = host
	}

	if ip := net.ParseIP(address); ip != nil {
		return address, irc.DCCAddress(ip), nil
	}
	return address, address, nil
}

func (t *transfers) handlers(id int, peer string) dcc.Handlers {
	c := t.console
	return dcc.Handlers{
		OnConnected: func() {
			c.printf("*** DCC #%d with %s connected", id, peer)
		},
		OnDisconnected: func(err error) {
			if err != nil {
				c.printf("*** DCC #%d with %s failed: %v", id, peer, err)
			} else {
				c.printf("*** DCC #%d with %s closed", id, peer)
			}
			t.remove(id)
		},
		OnMessage: func(line string) {
			c.record("="+peer, "=%s= %s", peer, text(line))
		},
		OnProgress: func(transferred, size int64) {
			if size > 0 && transferred == size {
				c.printf("*** DCC #%d: %d bytes transferred", id, transferred)
			}
		},
	}
}

// start connects a session in the background
func (t *transfers) start(tr *transfer) {
	go func() {
		ctx, cancel := context.WithTimeout(t.console.ctx, acceptTimeout)
		defer cancel()

		err := tr.session.Connect(ctx)
		switch {
		case err == nil:
		case errors.Is(err, dcc.ErrWithdrawn):
			t.console.printf("*** Withdrew DCC offer #%d to %s", tr.id, tr.peer.Nickname)
			t.remove(tr.id)
		default:
			t.console.printf("*** DCC #%d with %s failed: %v", tr.id, tr.peer.Nickname, err)
			t.remove(tr.id)
		}
	}()
}

func (t *transfers) offerChat(nick string) error {
	address, advertised, err := t.localAddress()
	if err != nil {
		return err
	}

	tr := &transfer{peer: irc.Prefix{Nickname: nick}}
	id := t.add(tr)
	chat := dcc.NewChatServer(tr.peer, address, t.logger, t.handlers(id, nick))
	t.mu.Lock()
	tr.session = chat
	t.mu.Unlock()

	if err := chat.Listen(); err != nil {
		t.remove(id)
		return err
	}
	if err := t.console.client.DCCChat(nick, advertised, chat.Port()); err != nil {
		_ = chat.Disconnect()
		t.remove(id)
		return err
	}

	t.console.printf("*** Offered DCC CHAT #%d to %s", id, nick)
	t.start(tr)
	return nil
}

func (t *transfers) offerFile(nick, path string) error {
	address, advertised, err := t.localAddress()
	if err != nil {
		return err
	}

	tr := &transfer{peer: irc.Prefix{Nickname: nick}}
	id := t.add(tr)
	file, err := dcc.NewFileServer(tr.peer, address, path, t.logger, t.handlers(id, nick))
	if err != nil {
		t.remove(id)
		return err
	}
	t.mu.Lock()
	tr.session = file
	t.mu.Unlock()

	if err := file.Listen(); err != nil {
		t.remove(id)
		return err
	}
	err = t.console.client.DCCSend(nick, file.Name(), advertised, file.Port(), file.Size())
	if err != nil {
		_ = file.Disconnect()
		t.remove(id)
		return err
	}

	t.console.printf("*** Offered %s (%d bytes) to %s as DCC #%d", file.Name(), file.Size(), nick, id)
	t.start(tr)
	return nil
}

func (t *transfers) accept(id int) error {
	tr, ok := t.get(id)
	if !ok {
		return errors.Errorf("no DCC #%d", id)
	}
	if tr.session != nil {
		return errors.Errorf("DCC #%d already started", id)
	}

	nick := tr.peer.Nickname
	var session dcc.Session
	var err error
	switch tr.offer.Type {
	case irc.DCCChat:
		session, err = dcc.NewChatClient(tr.peer, tr.offer, t.logger, t.handlers(id, nick))
	case irc.DCCSend:
		session, err = dcc.NewFileClient(tr.peer, tr.offer, t.console.cfg.DCC.DownloadDir,
			t.logger, t.handlers(id, nick))
	default:
		return errors.Errorf("DCC #%d is not a chat or send offer", id)
	}
	if err != nil {
		return err
	}

	t.mu.Lock()
	entry, ok := t.entries[id]
	if ok {
		entry.session = session
	}
	t.mu.Unlock()
	if !ok {
		return errors.Errorf("no DCC #%d", id)
	}

	t.start(entry)
	return nil
}

func (t *transfers) chat(id int, line string) error {
	tr, ok := t.get(id)
	if !ok {
		return errors.Errorf("no DCC #%d", id)
	}
	chat, ok := tr.session.(*dcc.Chat)
	if !ok {
		return errors.Errorf("DCC #%d is not an open chat", id)
	}
	if err := chat.Write(line); err != nil {
		return err
	}
	t.console.record("="+tr.peer.Nickname, "-> =%s= %s", tr.peer.Nickname, line)
	return nil
}

func (t *transfers) close(id int) error {
	tr, ok := t.get(id)
	if !ok {
		return errors.Errorf("no DCC #%d", id)
	}
	t.remove(id)
	if tr.session == nil {
		t.console.printf("*** Rejected DCC offer #%d", id)
		return nil
	}
	if err := tr.session.Disconnect(); err != nil && !errors.Is(err, irc.ErrNotConnected) {
		return err
	}
	return nil
}

func (t *transfers) closeAll() {
	t.mu.Lock()
	var sessions []dcc.Session
	for _, tr := range t.entries {
		if tr.session != nil {
			sessions = append(sessions, tr.session)
		}
	}
	t.mu.Unlock()

	for _, s := range sessions {
		_ = s.Disconnect()
	}
}
