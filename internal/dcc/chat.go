package dcc

import (
	"context"
	"io"
	"log"
	"strings"

	"github.com/dalnet/ircc/internal/irc"
	"github.com/pkg/errors"
)

// MaxChatLine bounds one chat line in either direction
const MaxChatLine = 4096

// Chat is a DCC CHAT session. Lines are terminated by LF; a CR before the
// LF is ignored
type Chat struct {
	session
}

// NewChatClient creates a session that connects to a chat offered by peer
func NewChatClient(peer irc.Prefix, offer irc.DCCRequest, logger *log.Logger,
	handlers Handlers) (*Chat, error) {
	if offer.Type != irc.DCCChat {
		return nil, errors.Wrap(irc.ErrInvalidRequest, "not a chat offer")
	}

	c := &Chat{}
	c.init(irc.DCCChat, peer, hostOf(offer), offer.Port, false, logger, handlers)
	return c, nil
}

// NewChatServer creates a session that offers a chat to peer, listening on
// address
func NewChatServer(peer irc.Prefix, address string, logger *log.Logger,
	handlers Handlers) *Chat {
	c := &Chat{}
	c.init(irc.DCCChat, peer, address, "", true, logger, handlers)
	return c
}

// Connect establishes the chat and starts reading lines
func (c *Chat) Connect(ctx context.Context) error {
	conn, err := c.establish(ctx)
	if err != nil {
		return err
	}

	go c.read(conn)
	return nil
}

func (c *Chat) read(conn io.Reader) {
	framer := irc.NewFramer(512, MaxChatLine)

	for {
		_, err := framer.Fill(conn)

		for {
			line, ok := framer.Next()
			if !ok {
				break
			}
			if c.handlers.OnMessage != nil {
				c.handlers.OnMessage(line)
			}
		}

		if err == io.EOF {
			c.finish(nil)
			return
		}
		if err != nil {
			c.finish(errors.Wrap(err, "error reading"))
			return
		}
	}
}

// Write sends one line of text
func (c *Chat) Write(text string) error {
	if strings.ContainsAny(text, "\r\n") {
		return errors.Wrap(irc.ErrInvalidRequest, "line break in message")
	}
	if len(text) > MaxChatLine {
		return irc.ErrLineTooLong
	}

	c.mu.Lock()
	conn, connected := c.conn, c.connected
	c.mu.Unlock()
	if !connected {
		return irc.ErrNotConnected
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.write(conn, []byte(text+"\n"))
}
