package irc

import (
	"fmt"
	"strconv"
)

// Command identifies the command of a protocol message
//
// Values 1-999 are numeric replies and carry their code directly. Textual
// commands live above that range. The zero value is CommandUnknown
type Command int

// CommandUnknown is any token we could not classify
const CommandUnknown Command = 0

// Textual commands
const (
	CommandNick Command = iota + 1000
	CommandJoin
	CommandPart
	CommandPrivmsg
	CommandNotice
	CommandMode
	CommandTopic
	CommandKick
	CommandInvite
	CommandQuit
	CommandPing
	CommandPong
	CommandError
)

const (
	minNumeric = 1
	maxNumeric = 999
)

var textualCommands = map[string]Command{
	"NICK":    CommandNick,
	"JOIN":    CommandJoin,
	"PART":    CommandPart,
	"PRIVMSG": CommandPrivmsg,
	"NOTICE":  CommandNotice,
	"MODE":    CommandMode,
	"TOPIC":   CommandTopic,
	"KICK":    CommandKick,
	"INVITE":  CommandInvite,
	"QUIT":    CommandQuit,
	"PING":    CommandPing,
	"PONG":    CommandPong,
	"ERROR":   CommandError,
}

var commandNames = func() map[Command]string {
	names := make(map[Command]string, len(textualCommands))
	for name, cmd := range textualCommands {
		names[cmd] = name
	}
	return names
}()

// Classify maps a wire command token to a Command. It never fails: anything
// it does not recognise is CommandUnknown
//
// Textual tokens are matched case-sensitively
func Classify(token string) Command {
	if token == "" {
		return CommandUnknown
	}

	if isDigits(token) {
		code, err := strconv.Atoi(token)
		if err != nil || code < minNumeric || code > maxNumeric {
			return CommandUnknown
		}
		return Command(code)
	}

	if cmd, ok := textualCommands[token]; ok {
		return cmd
	}
	return CommandUnknown
}

// NumericCommand returns the Command for a numeric code
func NumericCommand(code int) Command {
	if code < minNumeric || code > maxNumeric {
		return CommandUnknown
	}
	return Command(code)
}

// IsNumeric reports whether c is a numeric reply or error
func (c Command) IsNumeric() bool {
	return c >= minNumeric && c <= maxNumeric
}

// Code returns the numeric code, or 0 for non-numeric commands
func (c Command) Code() int {
	if !c.IsNumeric() {
		return 0
	}
	return int(c)
}

// IsError reports whether c is a numeric in the error partition
func (c Command) IsError() bool {
	return c.IsNumeric() && numericKind(int(c)) == kindError
}

// IsReply reports whether c is a numeric in the reply partition
func (c Command) IsReply() bool {
	return c.IsNumeric() && numericKind(int(c)) == kindReply
}

// Name returns the symbolic name of a numeric (e.g. RPL_WELCOME) or the
// textual command. Unnamed numerics return their zero padded code
func (c Command) Name() string {
	if c.IsNumeric() {
		if info, ok := numerics[int(c)]; ok {
			return info.name
		}
	}
	return c.String()
}

func (c Command) String() string {
	if c.IsNumeric() {
		return fmt.Sprintf("%03d", int(c))
	}
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
