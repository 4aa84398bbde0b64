package irc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		input   string
		prefix  Prefix
		command Command
		token   string
		params  []string
	}{
		{
			":nick!user@host PRIVMSG #chan :hello world",
			Prefix{"nick", "user", "host"}, CommandPrivmsg, "PRIVMSG",
			[]string{"#chan", "hello world"},
		},
		{
			"PING server1.example.com",
			Prefix{}, CommandPing, "PING",
			[]string{"server1.example.com"},
		},
		{
			"PING :server1.example.com\r\n",
			Prefix{}, CommandPing, "PING",
			[]string{"server1.example.com"},
		},
		{
			":irc.example.org 001 alice :Welcome to the network",
			Prefix{Hostname: "irc.example.org"}, Command(1), "001",
			[]string{"alice", "Welcome to the network"},
		},
		{
			"QUIT",
			Prefix{}, CommandQuit, "QUIT",
			[]string{},
		},
		{
			":irc.example.org NOTICE * :*** Looking up your hostname",
			Prefix{Hostname: "irc.example.org"}, CommandNotice, "NOTICE",
			[]string{"*", "*** Looking up your hostname"},
		},
		{
			":bob!b@h MODE #chan +o   alice",
			Prefix{"bob", "b", "h"}, CommandMode, "MODE",
			[]string{"#chan", "+o", "alice"},
		},
		{
			":bob!b@h TOPIC #chan :",
			Prefix{"bob", "b", "h"}, CommandTopic, "TOPIC",
			[]string{"#chan", ""},
		},
		{
			":bob!b@h PRIVMSG #chan :a :colon inside",
			Prefix{"bob", "b", "h"}, CommandPrivmsg, "PRIVMSG",
			[]string{"#chan", "a :colon inside"},
		},
		{
			":server WALLOPS :hello",
			Prefix{Hostname: "server"}, CommandUnknown, "WALLOPS",
			[]string{"hello"},
		},
		{
			"privmsg #chan :lower case",
			Prefix{}, CommandUnknown, "privmsg",
			[]string{"#chan", "lower case"},
		},
		{
			":nick@host JOIN #chan",
			Prefix{Hostname: "nick@host"}, CommandJoin, "JOIN",
			[]string{"#chan"},
		},
	}

	for _, test := range tests {
		msg, err := ParseMessage(test.input)
		require.NoError(t, err, test.input)

		assert.Equal(t, test.prefix, msg.Prefix, test.input)
		assert.Equal(t, test.command, msg.Command, test.input)
		assert.Equal(t, test.token, msg.Token, test.input)
		assert.Equal(t, test.params, msg.Params, test.input)
	}
}

func TestParseMessageFailures(t *testing.T) {
	tests := []struct {
		input string
		err   error
	}{
		{"", ErrEmptyLine},
		{"\r\n", ErrEmptyLine},
		{":onlyprefix", ErrNoCommand},
		{":prefix ", ErrNoCommand},
		{":prefix    ", ErrNoCommand},
		{"CMD 1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16", ErrTooManyParams},
	}

	for _, test := range tests {
		_, err := ParseMessage(test.input)
		assert.ErrorIs(t, err, test.err, "%q", test.input)
	}

	_, err := ParseMessage(": PRIVMSG")
	assert.Error(t, err)
}

func TestParseMessagePreservesParams(t *testing.T) {
	lines := []string{
		"PRIVMSG #chan :hello   world  ",
		"KICK #chan bob :you know why",
		"MODE #chan +ov alice bob",
		"USER guest 0 * :Real Name",
	}

	for _, line := range lines {
		msg, err := ParseMessage(line)
		require.NoError(t, err)

		params := strings.Join(msg.Params[:len(msg.Params)-1], " ")
		last := msg.Trailing()
		rebuilt := msg.Token + " " + params
		if strings.Contains(line, " :") {
			rebuilt += " :" + last
		} else {
			rebuilt += " " + last
		}
		assert.Equal(t, line, rebuilt)
	}
}

func TestMessageAccessors(t *testing.T) {
	msg, err := ParseMessage(":a!b@c KICK #chan bob :bye")
	require.NoError(t, err)

	assert.Equal(t, "#chan", msg.Param(0))
	assert.Equal(t, "bob", msg.Param(1))
	assert.Equal(t, "", msg.Param(5))
	assert.Equal(t, "bye", msg.Trailing())
	assert.Equal(t, "a!b@c", msg.Prefix.String())
	assert.False(t, msg.Prefix.IsServer())
	assert.Equal(t, ":a!b@c KICK #chan bob :bye", msg.Raw)

	empty := Message{}
	assert.Equal(t, "", empty.Trailing())
	assert.True(t, empty.Prefix.IsServer())
}

func TestIsChannel(t *testing.T) {
	assert.True(t, IsChannel("#go"))
	assert.True(t, IsChannel("&local"))
	assert.True(t, IsChannel("+modeless"))
	assert.True(t, IsChannel("!12345safe"))
	assert.False(t, IsChannel("alice"))
	assert.False(t, IsChannel(""))
}
