package irc

import (
	"strings"
	"sync"
)

// Session is the identity of one connection. The dispatcher reads it to tell
// our own messages from others and updates the nickname when the server
// confirms our own NICK change
type Session struct {
	mu       sync.RWMutex
	nickname string
	username string
	realname string
}

// NewSession creates a Session
func NewSession(nickname, username, realname string) *Session {
	return &Session{nickname: nickname, username: username, realname: realname}
}

// Nickname returns the tracked nickname
func (s *Session) Nickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nickname
}

// Username returns the username sent at registration
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Realname returns the real name sent at registration
func (s *Session) Realname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.realname
}

// IsSelf reports whether nick is our own nickname. Nicknames compare
// case-insensitively
func (s *Session) IsSelf(nick string) bool {
	return nick != "" && strings.EqualFold(nick, s.Nickname())
}

func (s *Session) setNickname(nick string) {
	s.mu.Lock()
	s.nickname = nick
	s.mu.Unlock()
}

// Dispatcher routes parsed messages to event callbacks
type Dispatcher struct {
	events  *Events
	session *Session
}

// NewDispatcher creates a Dispatcher raising events on events and tracking
// identity in session
func NewDispatcher(events *Events, session *Session) *Dispatcher {
	return &Dispatcher{events: events, session: session}
}

// Dispatch raises exactly one event for msg. Checks run in this order:
// CTCP/DCC and plain messages for PRIVMSG and NOTICE, numerics, the known
// commands, and finally EventUnknown
func (d *Dispatcher) Dispatch(msg Message) {
	d.events.Emit(d.classify(msg))
}

func (d *Dispatcher) classify(msg Message) Event {
	isMessage := msg.Command == CommandPrivmsg || msg.Command == CommandNotice
	if isMessage && len(msg.Params) >= 2 {
		return d.classifyMessage(msg)
	}

	if msg.Command.IsNumeric() {
		// RPL_WELCOME names the nickname the server registered, which
		// differs from ours if an earlier NICK was refused. This and the
		// NICK self-update below are the only session changes made here
		if msg.Command.Code() == RplWelcome && msg.Param(0) != "" {
			d.session.setNickname(msg.Param(0))
		}
		return Event{Type: EventNumeric, Message: msg}
	}

	switch msg.Command {
	case CommandInvite:
		return Event{Type: EventInvite, Message: msg}
	case CommandJoin:
		return Event{Type: EventJoin, Message: msg}
	case CommandKick:
		return Event{Type: EventKick, Message: msg}
	case CommandNick:
		// Update before any callback runs so they all see the new nick
		if len(msg.Params) > 0 && d.session.IsSelf(msg.Prefix.Nickname) {
			d.session.setNickname(msg.Params[0])
		}
		return Event{Type: EventNick, Message: msg}
	case CommandPart:
		return Event{Type: EventPart, Message: msg}
	case CommandMode:
		if d.session.IsSelf(msg.Param(0)) {
			return Event{Type: EventUserMode, Message: msg}
		}
		return Event{Type: EventChannelMode, Message: msg}
	case CommandPing:
		return Event{Type: EventPing, Message: msg}
	case CommandQuit:
		return Event{Type: EventQuit, Message: msg}
	case CommandTopic:
		return Event{Type: EventTopic, Message: msg}
	}

	return Event{Type: EventUnknown, Message: msg}
}

func (d *Dispatcher) classifyMessage(msg Message) Event {
	isPrivmsg := msg.Command == CommandPrivmsg

	if env, ok := DecodeCTCP(msg.Trailing()); ok {
		switch env.Command {
		case CTCPDCC:
			return Event{Type: EventDCCRequest, Message: msg, CTCP: env,
				DCC: DecodeDCC(env.Argument)}
		case CTCPAction:
			return Event{Type: EventAction, Message: msg, CTCP: env}
		}
		if isPrivmsg {
			return Event{Type: EventCTCPRequest, Message: msg, CTCP: env}
		}
		return Event{Type: EventCTCPReply, Message: msg, CTCP: env}
	}

	toChannel := IsChannel(msg.Params[0])
	switch {
	case isPrivmsg && toChannel:
		return Event{Type: EventChannelMessage, Message: msg}
	case isPrivmsg:
		return Event{Type: EventPrivateMessage, Message: msg}
	case toChannel:
		return Event{Type: EventChannelNotice, Message: msg}
	}
	return Event{Type: EventPrivateNotice, Message: msg}
}
