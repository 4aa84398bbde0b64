package irc

import (
	"fmt"
	"time"
)

// clientInfo lists the CTCP queries answered by onCTCPRequest
const clientInfo = "ACTION CLIENTINFO DCC ERRMSG FINGER PING SOURCE TIME USERINFO VERSION"

const defaultSource = "https://github.com/dalnet/ircc"

func (c *Client) registerHandlers() {
	// Automatic replies to CTCP queries. ACTION and DCC never get here; the
	// dispatcher raises their own events
	c.events.Add(EventCTCPRequest, c.onCTCPRequest)
}

func (c *Client) onCTCPRequest(e Event) {
	if !c.cfg.RepliesToCTCP() {
		return
	}

	nick := e.Nick()
	if nick == "" {
		return
	}

	reply := c.ctcpReply(e.CTCP)
	if reply == "" {
		return
	}

	if err := c.CTCPReply(nick, reply); err != nil {
		c.logger.Printf("Unable to answer CTCP %s from %s: %v", e.CTCP.Command, nick, err)
	}
}

// ctcpReply returns the reply payload for a query, or "" when the query is
// not answered automatically
func (c *Client) ctcpReply(env CTCPEnvelope) string {
	switch env.Command {
	case CTCPPing:
		if env.Argument == "" {
			return "PING"
		}
		return "PING " + env.Argument
	case CTCPVersion:
		return "VERSION " + c.versionReply()
	case CTCPTime:
		return "TIME " + time.Now().Format(time.RFC1123)
	case CTCPSource:
		return "SOURCE " + orDefault(c.cfg.Source, defaultSource)
	case CTCPFinger:
		return "FINGER " + orDefault(c.cfg.Finger, c.session.Realname())
	case CTCPUserInfo:
		return "USERINFO " + orDefault(c.cfg.UserInfo, c.session.Realname())
	case CTCPClientInfo:
		return "CLIENTINFO " + clientInfo
	case CTCPErrMsg:
		return fmt.Sprintf("ERRMSG %s :No error", env.Argument)
	}
	return ""
}

func (c *Client) versionReply() string {
	if c.cfg.VersionReply != "" {
		return c.cfg.VersionReply
	}
	return fmt.Sprintf("ircc %s (built %s, commit %s)", Version, BuildDate, GitCommit)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
