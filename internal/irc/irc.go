// Package irc implements the client side of the IRC protocol (RFC 1459/2812)
// together with the CTCP and DCC negotiation carried inside PRIVMSG and
// NOTICE payloads
//
// Bytes read from the server are split into lines by a Framer, decoded by
// ParseMessage, and routed by a Dispatcher to callbacks registered on a
// Client. Outbound commands are rendered by the *Line functions in
// commands.go
package irc

import (
	"github.com/pkg/errors"
)

const (
	// MaxParams is the RFC 2812 limit on message parameters
	MaxParams = 15

	// ctcpDelim wraps CTCP payloads
	ctcpDelim = '\x01'
)

var (
	// ErrInvalidRequest is recorded when an outbound action is missing a
	// required argument
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotConnected is recorded when an action is attempted without a
	// connection. It wraps ErrInvalidRequest
	ErrNotConnected = errors.Wrap(ErrInvalidRequest, "not connected")

	// ErrEmptyLine is returned when parsing a blank line
	ErrEmptyLine = errors.New("line is empty")

	// ErrNoCommand is returned when a line has no command token
	ErrNoCommand = errors.New("no command found")

	// ErrTooManyParams is returned when a line has more than MaxParams
	// parameters
	ErrTooManyParams = errors.New("too many parameters")

	// ErrLineTooLong is returned when an outgoing DCC chat line exceeds the
	// line bound
	ErrLineTooLong = errors.New("line too long")
)
