package irc

import (
	"fmt"
	"strings"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/pkg/errors"
)

// The *Line functions render client actions as wire lines terminated by
// CRLF. Each checks its own required arguments and returns an error wrapping
// ErrInvalidRequest instead of a line when one is missing
//
// IRC has no escaping. Arguments placed before the trailing parameter must
// not contain spaces; no argument may contain CR or LF

// PassLine renders PASS <password>
func PassLine(password string) (string, error) {
	if err := required("password", password); err != nil {
		return "", err
	}
	return line("PASS %s", password), nil
}

// NickLine renders NICK <nick>
func NickLine(nick string) (string, error) {
	if err := required("nickname", nick); err != nil {
		return "", err
	}
	return line("NICK %s", nick), nil
}

// UserLine renders the USER registration command
func UserLine(username, realname string) (string, error) {
	if err := required("username", username, "realname", realname); err != nil {
		return "", err
	}
	return line("USER %s unknown unknown :%s", username, realname), nil
}

// JoinLine renders JOIN <channel>
func JoinLine(channel string) (string, error) {
	if err := required("channel", channel); err != nil {
		return "", err
	}
	return line("JOIN %s", channel), nil
}

// PartLine renders PART <channel>
func PartLine(channel string) (string, error) {
	if err := required("channel", channel); err != nil {
		return "", err
	}
	return line("PART %s", channel), nil
}

// QuitLine renders QUIT with an optional reason
func QuitLine(reason string) (string, error) {
	if err := optional(reason); err != nil {
		return "", err
	}
	if reason == "" {
		return line("QUIT"), nil
	}
	return line("QUIT :%s", reason), nil
}

// InviteLine renders INVITE <nick> <channel>
func InviteLine(nick, channel string) (string, error) {
	if err := required("nickname", nick, "channel", channel); err != nil {
		return "", err
	}
	return line("INVITE %s %s", nick, channel), nil
}

// KickLine renders KICK <channel> <nick> with an optional reason
func KickLine(channel, nick, reason string) (string, error) {
	if err := required("channel", channel, "nickname", nick); err != nil {
		return "", err
	}
	if err := optional(reason); err != nil {
		return "", err
	}
	if reason == "" {
		return line("KICK %s %s", channel, nick), nil
	}
	return line("KICK %s %s :%s", channel, nick, reason), nil
}

// ListLine renders LIST, optionally restricted to a comma separated list of
// channels
func ListLine(channels string) (string, error) {
	if err := optional(channels); err != nil {
		return "", err
	}
	if channels == "" {
		return line("LIST"), nil
	}
	return line("LIST %s", channels), nil
}

// NamesLine renders NAMES <channel>
func NamesLine(channel string) (string, error) {
	if err := required("channel", channel); err != nil {
		return "", err
	}
	return line("NAMES %s", channel), nil
}

// NoticeLine renders NOTICE <dest> :<text>
func NoticeLine(dest, text string) (string, error) {
	if err := required("destination", dest, "text", text); err != nil {
		return "", err
	}
	return line("NOTICE %s :%s", dest, text), nil
}

// PrivmsgLine renders PRIVMSG <dest> :<text>
func PrivmsgLine(dest, text string) (string, error) {
	if err := required("destination", dest, "text", text); err != nil {
		return "", err
	}
	return line("PRIVMSG %s :%s", dest, text), nil
}

// TopicLine renders TOPIC <channel>. With a topic it sets it; without, it
// asks for the current one
func TopicLine(channel, topic string) (string, error) {
	if err := required("channel", channel); err != nil {
		return "", err
	}
	if err := optional(topic); err != nil {
		return "", err
	}
	if topic == "" {
		return line("TOPIC %s", channel), nil
	}
	return line("TOPIC %s :%s", channel, topic), nil
}

// ModeLine renders MODE <target> with an optional mode string
func ModeLine(target, modes string) (string, error) {
	if err := required("target", target); err != nil {
		return "", err
	}
	if err := optional(modes); err != nil {
		return "", err
	}
	if modes == "" {
		return line("MODE %s", target), nil
	}
	return line("MODE %s %s", target, modes), nil
}

// PongLine renders PONG <target>
func PongLine(target string) (string, error) {
	if err := required("target", target); err != nil {
		return "", err
	}
	return line("PONG %s", target), nil
}

// ActionLine renders a CTCP ACTION, the /me of most clients
func ActionLine(dest, text string) (string, error) {
	if err := required("destination", dest, "text", text); err != nil {
		return "", err
	}
	return line("PRIVMSG %s :%s", dest, EncodeCTCP("ACTION", text)), nil
}

// CTCPRequestLine renders a CTCP query such as "VERSION" or "PING 123"
func CTCPRequestLine(nick, request string) (string, error) {
	if err := required("nickname", nick, "request", request); err != nil {
		return "", err
	}
	return line("PRIVMSG %s :%c%s%c", nick, ctcpDelim, request, ctcpDelim), nil
}

// CTCPReplyLine renders a CTCP reply
func CTCPReplyLine(nick, reply string) (string, error) {
	if err := required("nickname", nick, "reply", reply); err != nil {
		return "", err
	}
	return line("NOTICE %s :%c%s%c", nick, ctcpDelim, reply, ctcpDelim), nil
}

// DCCChatLine renders a DCC CHAT offer advertising our address and port
func DCCChatLine(nick, address, port string) (string, error) {
	if err := required("nickname", nick, "address", address, "port", port); err != nil {
		return "", err
	}
	return CTCPRequestLine(nick, fmt.Sprintf("DCC CHAT chat %s %s", address, port))
}

// DCCSendLine renders a DCC SEND offer for a file of size bytes
func DCCSendLine(nick, filename, address, port string, size int64) (string, error) {
	if err := required("nickname", nick, "filename", filename, "address",
		address, "port", port); err != nil {
		return "", err
	}
	if strings.ContainsAny(filename, " \t") {
		return "", errors.Wrapf(ErrInvalidRequest, "file name %q contains whitespace", filename)
	}
	if size < 0 {
		return "", errors.Wrapf(ErrInvalidRequest, "negative file size %d", size)
	}
	return CTCPRequestLine(nick, fmt.Sprintf("DCC SEND %s %s %s %d", filename,
		address, port, size))
}

// RawLine terminates a raw protocol line with CRLF after checking that it
// holds a command
func RawLine(raw string) (string, error) {
	raw = strings.TrimRight(raw, "\r\n")
	if strings.TrimSpace(raw) == "" {
		return "", errors.Wrap(ErrInvalidRequest, "empty command")
	}
	if err := optional(raw); err != nil {
		return "", err
	}
	if _, err := ircmsg.ParseLine(raw); err != nil {
		return "", errors.Wrapf(ErrInvalidRequest, "malformed line: %s", err)
	}
	return raw + "\r\n", nil
}

func line(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...) + "\r\n"
}

// required takes name/value pairs and rejects the first empty value
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return errors.Wrapf(ErrInvalidRequest, "missing %s", pairs[i])
		}
		if err := optional(pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func optional(value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return errors.Wrap(ErrInvalidRequest, "line break in argument")
	}
	return nil
}
