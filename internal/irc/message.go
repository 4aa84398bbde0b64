package irc

import (
	"fmt"
	"strings"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/pkg/errors"
)

// Prefix is the origin of a message
//
// Messages from users carry nick!user@host. Messages from servers carry only
// the server name, held in Hostname
type Prefix struct {
	Nickname string
	Username string
	Hostname string
}

// IsServer reports whether the prefix names a server rather than a user
func (p Prefix) IsServer() bool {
	return p.Nickname == ""
}

func (p Prefix) String() string {
	if p.Nickname == "" {
		return p.Hostname
	}
	return p.Nickname + "!" + p.Username + "@" + p.Hostname
}

// Message holds one parsed protocol line. See RFC 2812 section 2.3.1
type Message struct {
	// Prefix is empty when the line had none
	Prefix Prefix

	Command Command

	// Token is the command exactly as it appeared on the wire
	Token string

	// Params holds at most MaxParams entries. Only the last may contain
	// spaces
	Params []string

	// Raw is the line the message was parsed from, without CRLF
	Raw string
}

// Param returns parameter i or an empty string
func (m Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Trailing returns the last parameter or an empty string
func (m Message) Trailing() string {
	if len(m.Params) == 0 {
		return ""
	}
	return m.Params[len(m.Params)-1]
}

func (m Message) String() string {
	return fmt.Sprintf("Prefix [%s] Command [%s] Params%q", m.Prefix, m.Token,
		m.Params)
}

// ParseMessage parses a protocol line. A trailing CRLF or LF is accepted but
// not required
//
// message = [ ":" prefix SPACE ] command [ params ]
// params  = *( SPACE middle ) [ SPACE ":" trailing ]
func ParseMessage(line string) (Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Message{}, ErrEmptyLine
	}

	msg := Message{Raw: line}
	rest := line

	if rest[0] == ':' {
		end := strings.IndexByte(rest, ' ')
		if end == -1 {
			return Message{}, errors.Wrap(ErrNoCommand, "prefix only")
		}
		if end == 1 {
			return Message{}, errors.New("prefix is zero length")
		}
		msg.Prefix = parsePrefix(rest[1:end])
		rest = rest[end+1:]
	}

	rest = strings.TrimLeft(rest, " ")
	end := strings.IndexByte(rest, ' ')
	if end == -1 {
		end = len(rest)
	}
	if end == 0 {
		return Message{}, ErrNoCommand
	}

	msg.Token = rest[:end]
	msg.Command = Classify(msg.Token)
	rest = rest[end:]

	// rest is now empty or starts with a space, so a trailing parameter is
	// always introduced by " :"
	trailing, hasTrailing := "", false
	if idx := strings.Index(rest, " :"); idx != -1 {
		trailing, hasTrailing = rest[idx+2:], true
		rest = rest[:idx]
	}

	params := strings.Fields(rest)
	if hasTrailing {
		params = append(params, trailing)
	}
	if len(params) > MaxParams {
		return Message{}, ErrTooManyParams
	}
	msg.Params = params

	return msg, nil
}

// parsePrefix splits nick!user@host. Anything without both separators in
// that order is a server name
func parsePrefix(raw string) Prefix {
	bang := strings.IndexByte(raw, '!')
	at := strings.IndexByte(raw, '@')
	if bang <= 0 || at < bang+2 || at == len(raw)-1 {
		return Prefix{Hostname: raw}
	}

	nuh, err := ircmsg.ParseNUH(raw)
	if err != nil {
		return Prefix{Hostname: raw}
	}
	return Prefix{Nickname: nuh.Name, Username: nuh.User, Hostname: nuh.Host}
}

// IsChannel reports whether target names a channel. See RFC 2811 section 2.1
func IsChannel(target string) bool {
	if target == "" {
		return false
	}
	switch target[0] {
	case '#', '&', '+', '!':
		return true
	}
	return false
}
