package irc

import (
	"strings"
)

// CTCPCommand is a Client-To-Client Protocol query type
type CTCPCommand int

// CTCP commands. CTCPNone means the payload was not a recognised query
const (
	CTCPNone CTCPCommand = iota
	CTCPAction
	CTCPClientInfo
	CTCPDCC
	CTCPErrMsg
	CTCPFinger
	CTCPPing
	CTCPSed
	CTCPSource
	CTCPTime
	CTCPUserInfo
	CTCPVersion
)

var ctcpCommands = map[string]CTCPCommand{
	"ACTION":     CTCPAction,
	"CLIENTINFO": CTCPClientInfo,
	"DCC":        CTCPDCC,
	"ERRMSG":     CTCPErrMsg,
	"FINGER":     CTCPFinger,
	"PING":       CTCPPing,
	"SED":        CTCPSed,
	"SOURCE":     CTCPSource,
	"TIME":       CTCPTime,
	"USERINFO":   CTCPUserInfo,
	"VERSION":    CTCPVersion,
}

var ctcpNames = func() map[CTCPCommand]string {
	names := make(map[CTCPCommand]string, len(ctcpCommands))
	for name, cmd := range ctcpCommands {
		names[cmd] = name
	}
	return names
}()

func (c CTCPCommand) String() string {
	if name, ok := ctcpNames[c]; ok {
		return name
	}
	return "NONE"
}

// CTCPEnvelope is a decoded CTCP payload
type CTCPEnvelope struct {
	Command  CTCPCommand
	Argument string
}

// IsCTCP reports whether s is wrapped in CTCP delimiters
func IsCTCP(s string) bool {
	return len(s) >= 2 && s[0] == ctcpDelim && s[len(s)-1] == ctcpDelim
}

// DecodeCTCP decodes the trailing parameter of a PRIVMSG or NOTICE. It
// reports false when s is not a CTCP payload or names an unknown query
func DecodeCTCP(s string) (CTCPEnvelope, bool) {
	if !IsCTCP(s) {
		return CTCPEnvelope{}, false
	}

	word, arg, _ := strings.Cut(s[1:len(s)-1], " ")
	cmd, ok := ctcpCommands[word]
	if !ok {
		return CTCPEnvelope{}, false
	}
	return CTCPEnvelope{Command: cmd, Argument: strings.TrimLeft(arg, " ")}, true
}

// EncodeCTCP wraps a query and its optional argument in CTCP delimiters
func EncodeCTCP(command, argument string) string {
	if argument == "" {
		return string(ctcpDelim) + command + string(ctcpDelim)
	}
	return string(ctcpDelim) + command + " " + argument + string(ctcpDelim)
}
