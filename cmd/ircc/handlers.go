package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/dalnet/ircc/internal/irc"
	"github.com/ergochat/irc-go/ircfmt"
)

func (c *console) register() {
	cl := c.client

	cl.AddCallback(irc.EventConnected, c.onConnected)
	cl.AddCallback(irc.EventDisconnected, c.onDisconnected)
	cl.AddCallback(irc.EventPing, c.onPing)
	cl.AddCallback(irc.EventNumeric, c.onNumeric)

	cl.AddCallback(irc.EventChannelMessage, c.onChannelMessage)
	cl.AddCallback(irc.EventPrivateMessage, c.onPrivateMessage)
	cl.AddCallback(irc.EventChannelNotice, c.onChannelNotice)
	cl.AddCallback(irc.EventPrivateNotice, c.onPrivateNotice)
	cl.AddCallback(irc.EventAction, c.onAction)

	cl.AddCallback(irc.EventJoin, c.onJoin)
	cl.AddCallback(irc.EventPart, c.onPart)
	cl.AddCallback(irc.EventQuit, c.onQuit)
	cl.AddCallback(irc.EventKick, c.onKick)
	cl.AddCallback(irc.EventNick, c.onNick)
	cl.AddCallback(irc.EventTopic, c.onTopic)
	cl.AddCallback(irc.EventInvite, c.onInvite)
	cl.AddCallback(irc.EventChannelMode, c.onChannelMode)
	cl.AddCallback(irc.EventUserMode, c.onUserMode)

	cl.AddCallback(irc.EventCTCPRequest, c.onCTCPRequest)
	cl.AddCallback(irc.EventCTCPReply, c.onCTCPReply)
	cl.AddCallback(irc.EventDCCRequest, c.transfers.onOffer)
	cl.AddCallback(irc.EventUnknown, c.onUnknown)
}

// text strips mIRC formatting codes for the terminal
func text(s string) string {
	return ircfmt.Strip(s)
}

// sender names the origin of an event, falling back to the server name
func sender(e irc.Event) string {
	if nick := e.Nick(); nick != "" {
		return nick
	}
	return e.Source().String()
}

// paramsFrom joins the parameters of msg starting at i
func paramsFrom(msg irc.Message, i int) string {
	if i >= len(msg.Params) {
		return ""
	}
	return strings.Join(msg.Params[i:], " ")
}

func (c *console) onConnected(e irc.Event) {
	c.printf("*** Connected to %s:%d", c.cfg.Server, c.cfg.Port)
}

func (c *console) onDisconnected(e irc.Event) {
	c.mu.Lock()
	c.registered = false
	c.mu.Unlock()

	if e.Err != nil {
		c.printf("*** Disconnected: %v", e.Err)
		return
	}
	c.printf("*** Disconnected")
}

func (c *console) onPing(e irc.Event) {
	if err := c.client.Pong(e.Message.Param(0)); err != nil {
		c.printf("*** Unable to answer PING: %v", err)
	}
}

func (c *console) onNumeric(e irc.Event) {
	msg := e.Message

	c.mu.Lock()
	tree := c.links
	c.mu.Unlock()
	if tree != nil && tree.Handle(msg) {
		if tree.Complete() {
			c.mu.Lock()
			c.links = nil
			c.mu.Unlock()
			for _, line := range tree.Build() {
				c.printf("%s", line)
			}
			c.printf("*** %d servers", tree.Len())
		}
		return
	}

	switch e.Code() {
	case irc.RplWelcome:
		c.mu.Lock()
		c.registered = true
		c.mu.Unlock()

		for _, channel := range c.cfg.Channels {
			if err := c.client.Join(channel); err != nil {
				c.printf("*** Unable to join %s: %v", channel, err)
			}
		}
		if len(c.cfg.Channels) > 0 && c.currentTarget() == "" {
			c.setTarget(c.cfg.Channels[0])
		}
	case irc.ErrNicknameInUse:
		c.mu.Lock()
		registered := c.registered
		c.mu.Unlock()

		if !registered {
			nick := msg.Param(1) + "_"
			c.printf("*** Nickname %s is in use, trying %s", msg.Param(1), nick)
			if err := c.client.Nick(nick); err != nil {
				c.printf("*** %v", err)
			}
			return
		}
	}

	// The first parameter is our own nickname
	line := text(paramsFrom(msg, 1))

	if msg.Command.IsError() {
		c.printf("*** %s: %s", msg.Command.Name(), line)
		return
	}
	c.printf("[%s] %s", sender(e), line)
}

func (c *console) onChannelMessage(e irc.Event) {
	channel := e.Message.Param(0)
	c.record(channel, "[%s] <%s> %s", channel, e.Nick(), text(e.Message.Trailing()))
}

func (c *console) onPrivateMessage(e irc.Event) {
	c.record(e.Nick(), "*%s* %s", e.Nick(), text(e.Message.Trailing()))
}

func (c *console) onChannelNotice(e irc.Event) {
	c.printf("-%s:%s- %s", sender(e), e.Message.Param(0), text(e.Message.Trailing()))
}

func (c *console) onPrivateNotice(e irc.Event) {
	c.printf("-%s- %s", sender(e), text(e.Message.Trailing()))
}

func (c *console) onAction(e irc.Event) {
	target := e.Message.Param(0)
	if irc.IsChannel(target) {
		c.record(target, "[%s] * %s %s", target, e.Nick(), text(e.CTCP.Argument))
		return
	}
	c.record(e.Nick(), "* %s %s", e.Nick(), text(e.CTCP.Argument))
}

func (c *console) onJoin(e irc.Event) {
	channel := e.Message.Param(0)
	if c.client.Session().IsSelf(e.Nick()) {
		c.printf("*** Now talking in %s", channel)
		if c.currentTarget() == "" {
			c.setTarget(channel)
		}
		return
	}
	c.printf("*** %s (%s@%s) has joined %s", e.Nick(), e.Source().Username,
		e.Source().Hostname, channel)
}

func (c *console) onPart(e irc.Event) {
	reason := ""
	if len(e.Message.Params) > 1 {
		reason = " (" + text(e.Message.Trailing()) + ")"
	}
	c.printf("*** %s has left %s%s", e.Nick(), e.Message.Param(0), reason)
}

func (c *console) onQuit(e irc.Event) {
	c.printf("*** %s has quit (%s)", e.Nick(), text(e.Message.Param(0)))
}

func (c *console) onKick(e irc.Event) {
	c.printf("*** %s was kicked from %s by %s (%s)", e.Message.Param(1),
		e.Message.Param(0), sender(e), text(e.Message.Param(2)))
}

func (c *console) onNick(e irc.Event) {
	newNick := e.Message.Param(0)
	if c.client.Session().IsSelf(newNick) {
		c.printf("*** You are now known as %s", newNick)
		return
	}
	c.printf("*** %s is now known as %s", e.Nick(), newNick)
}

func (c *console) onTopic(e irc.Event) {
	c.printf("*** %s changed the topic of %s to: %s", sender(e), e.Message.Param(0),
		text(e.Message.Param(1)))
}

func (c *console) onInvite(e irc.Event) {
	c.printf("*** %s invites you to %s", sender(e), e.Message.Param(1))
}

func (c *console) onChannelMode(e irc.Event) {
	c.printf("*** %s sets mode %s on %s", sender(e),
		paramsFrom(e.Message, 1), e.Message.Param(0))
}

func (c *console) onUserMode(e irc.Event) {
	c.printf("*** Mode change %s for %s", paramsFrom(e.Message, 1),
		e.Message.Param(0))
}

func (c *console) onCTCPRequest(e irc.Event) {
	c.printf("*** CTCP %s from %s", e.CTCP.Command, sender(e))
}

func (c *console) onCTCPReply(e irc.Event) {
	if e.CTCP.Command == irc.CTCPPing {
		if sent, err := strconv.ParseInt(e.CTCP.Argument, 10, 64); err == nil {
			rtt := time.Since(time.Unix(0, sent))
			c.printf("*** PING reply from %s: %.3fs", sender(e), rtt.Seconds())
			return
		}
	}
	c.printf("*** CTCP %s reply from %s: %s", e.CTCP.Command, sender(e), text(e.CTCP.Argument))
}

func (c *console) onUnknown(e irc.Event) {
	switch e.Message.Token {
	case "PONG":
		return
	case "ERROR":
		c.printf("*** Server error: %s", text(e.Message.Trailing()))
		return
	}
	c.printf("[%s] %s", sender(e), text(e.Message.Raw))
}
