package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []Event
}

func newTestDispatcher(nick string) (*Dispatcher, *Session, *recorder) {
	rec := &recorder{}
	events := NewEvents(nil)
	for _, t := range []EventType{
		EventChannelMessage, EventPrivateMessage, EventChannelNotice,
		EventPrivateNotice, EventAction, EventChannelMode, EventUserMode,
		EventNumeric, EventInvite, EventJoin, EventKick, EventNick, EventPart,
		EventPing, EventQuit, EventTopic, EventUnknown, EventCTCPRequest,
		EventCTCPReply, EventDCCRequest,
	} {
		events.Add(t, func(e Event) { rec.events = append(rec.events, e) })
	}

	session := NewSession(nick, "user", "Real Name")
	return NewDispatcher(events, session), session, rec
}

func dispatchLine(t *testing.T, d *Dispatcher, line string) {
	msg, err := ParseMessage(line)
	require.NoError(t, err, line)
	d.Dispatch(msg)
}

func TestDispatchCategories(t *testing.T) {
	tests := []struct {
		line string
		want EventType
	}{
		{":bob!b@h PRIVMSG #chan :hello", EventChannelMessage},
		{":bob!b@h PRIVMSG alice :hello", EventPrivateMessage},
		{":bob!b@h NOTICE #chan :hello", EventChannelNotice},
		{":bob!b@h NOTICE alice :hello", EventPrivateNotice},
		{":irc.example.org NOTICE * :*** Checking ident", EventPrivateNotice},
		{":bob!b@h PRIVMSG #chan :\x01ACTION waves\x01", EventAction},
		{":bob!b@h PRIVMSG alice :\x01VERSION\x01", EventCTCPRequest},
		{":bob!b@h NOTICE alice :\x01VERSION ircII 20190117\x01", EventCTCPReply},
		{":bob!b@h PRIVMSG alice :\x01UNKNOWN\x01", EventPrivateMessage},
		{":bob!b@h PRIVMSG alice :\x01DCC CHAT chat 3232235777 6000\x01", EventDCCRequest},
		{":irc.example.org 001 alice :Welcome", EventNumeric},
		{":irc.example.org 433 * alice :Nickname is already in use", EventNumeric},
		{":bob!b@h INVITE alice #chan", EventInvite},
		{":bob!b@h JOIN #chan", EventJoin},
		{":bob!b@h KICK #chan carol :bye", EventKick},
		{":bob!b@h NICK robert", EventNick},
		{":bob!b@h PART #chan", EventPart},
		{":bob!b@h MODE #chan +o carol", EventChannelMode},
		{":alice MODE alice :+i", EventUserMode},
		{":alice MODE ALICE :+i", EventUserMode},
		{"PING :irc.example.org", EventPing},
		{":bob!b@h QUIT :gone", EventQuit},
		{":bob!b@h TOPIC #chan :new topic", EventTopic},
		{":irc.example.org PONG irc.example.org :alice", EventUnknown},
		{"ERROR :Closing link", EventUnknown},
		{":bob!b@h WALLOPS :hi", EventUnknown},
		{":bob!b@h PRIVMSG #chan", EventUnknown},
	}

	for _, test := range tests {
		d, _, rec := newTestDispatcher("alice")
		dispatchLine(t, d, test.line)

		require.Len(t, rec.events, 1, test.line)
		assert.Equal(t, test.want, rec.events[0].Type, test.line)
	}
}

func TestDispatchCTCPNeverRaisesMessage(t *testing.T) {
	d, _, rec := newTestDispatcher("alice")
	dispatchLine(t, d, ":bob!b@h PRIVMSG #chan :\x01VERSION\x01")

	require.Len(t, rec.events, 1)
	e := rec.events[0]
	assert.Equal(t, EventCTCPRequest, e.Type)
	assert.Equal(t, CTCPVersion, e.CTCP.Command)
	assert.Equal(t, "bob", e.Nick())
}

func TestDispatchDCC(t *testing.T) {
	d, _, rec := newTestDispatcher("alice")
	dispatchLine(t, d, ":bob!b@h PRIVMSG alice :\x01DCC SEND file.txt 192.168.1.1 5000 1024\x01")

	require.Len(t, rec.events, 1)
	e := rec.events[0]
	assert.Equal(t, EventDCCRequest, e.Type)
	assert.Equal(t, "bob", e.Source().Nickname)
	assert.Equal(t, DCCRequest{Type: DCCSend, Argument: "file.txt",
		Address: "192.168.1.1", Port: "5000", Size: 1024, HasSize: true}, e.DCC)
}

func TestDispatchMalformedDCC(t *testing.T) {
	d, _, rec := newTestDispatcher("alice")
	dispatchLine(t, d, ":bob!b@h PRIVMSG alice :\x01DCC SEND file.txt\x01")

	require.Len(t, rec.events, 1)
	assert.Equal(t, EventDCCRequest, rec.events[0].Type)
	assert.False(t, rec.events[0].DCC.Valid())
}

func TestDispatchAction(t *testing.T) {
	d, _, rec := newTestDispatcher("alice")
	dispatchLine(t, d, ":bob!b@h PRIVMSG #chan :\x01ACTION waves\x01")

	require.Len(t, rec.events, 1)
	assert.Equal(t, "waves", rec.events[0].CTCP.Argument)
	assert.Equal(t, "#chan", rec.events[0].Message.Param(0))
}

func TestDispatchNickSelf(t *testing.T) {
	d, session, rec := newTestDispatcher("alice")

	var seen string
	d.events.Add(EventNick, func(Event) { seen = session.Nickname() })

	dispatchLine(t, d, ":alice!a@h NICK alice2")

	assert.Equal(t, "alice2", session.Nickname())
	assert.Equal(t, "alice2", seen)
	require.Len(t, rec.events, 1)
	assert.Equal(t, EventNick, rec.events[0].Type)
}

func TestDispatchNickOther(t *testing.T) {
	d, session, rec := newTestDispatcher("alice")

	dispatchLine(t, d, ":bob!b@h NICK alice2")
	assert.Equal(t, "alice", session.Nickname())

	// A nick containing ours is somebody else
	dispatchLine(t, d, ":alic!b@h NICK alice3")
	assert.Equal(t, "alice", session.Nickname())

	require.Len(t, rec.events, 2)
}

func TestDispatchModeAfterRename(t *testing.T) {
	d, _, rec := newTestDispatcher("alice")

	dispatchLine(t, d, ":alice!a@h NICK alice2")
	dispatchLine(t, d, ":alice2 MODE alice2 :+i")
	dispatchLine(t, d, ":alice2 MODE alice :+i")

	require.Len(t, rec.events, 3)
	assert.Equal(t, EventUserMode, rec.events[1].Type)
	assert.Equal(t, EventChannelMode, rec.events[2].Type)
}

func TestDispatchWelcomeSetsNick(t *testing.T) {
	d, session, _ := newTestDispatcher("alice")

	dispatchLine(t, d, ":irc.example.org 433 * alice :Nickname is already in use")
	assert.Equal(t, "alice", session.Nickname())

	dispatchLine(t, d, ":irc.example.org 001 alice_ :Welcome to the network")
	assert.Equal(t, "alice_", session.Nickname())
}

func TestSessionIsSelf(t *testing.T) {
	s := NewSession("alice", "a", "Alice")
	assert.True(t, s.IsSelf("alice"))
	assert.True(t, s.IsSelf("Alice"))
	assert.False(t, s.IsSelf("alice2"))
	assert.False(t, s.IsSelf("alic"))
	assert.False(t, s.IsSelf(""))
	assert.Equal(t, "a", s.Username())
	assert.Equal(t, "Alice", s.Realname())
}
