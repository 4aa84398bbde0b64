package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dalnet/ircc/internal/config"
	"github.com/dalnet/ircc/internal/irc"
	"github.com/dalnet/ircc/internal/links"
	"github.com/dalnet/ircc/internal/storage"
	"github.com/pkg/errors"
)

const (
	// quitTimeout bounds how long we wait for the server to close the
	// connection after QUIT
	quitTimeout = 5 * time.Second

	defaultLast = 10
)

var errQuit = errors.New("quit")

// console reads commands from the user and prints what the server sends
type console struct {
	ctx         context.Context
	client      *irc.Client
	cfg         *config.Config
	transcripts *storage.Transcripts
	transfers   *transfers

	outMu sync.Mutex
	out   io.Writer

	mu         sync.Mutex
	target     string
	registered bool
	links      *links.Tree
}

func newConsole(ctx context.Context, client *irc.Client, cfg *config.Config, out io.Writer) *console {
	c := &console{
		ctx:         ctx,
		client:      client,
		cfg:         cfg,
		transcripts: storage.NewTranscripts(cfg.DataDir),
		out:         out,
	}
	c.transfers = newTransfers(c)
	return c
}

func (c *console) printf(format string, args ...interface{}) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, "[%s] %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

// record prints a conversation line and appends it to the transcript of
// target
func (c *console) record(target, format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	c.printf("%s", line)

	entry := fmt.Sprintf("[%s] %s", time.Now().Format("2006-01-02 15:04:05"), line)
	if err := c.transcripts.Append(target, entry); err != nil {
		c.printf("*** Unable to save transcript for %s: %v", target, err)
	}
}

func (c *console) currentTarget() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *console) setTarget(target string) {
	c.mu.Lock()
	c.target = target
	c.mu.Unlock()
}

// readInput executes lines from r until /q or end of input
func (c *console) readInput(r io.Reader, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		err := c.execute(scanner.Text())
		if errors.Is(err, errQuit) {
			c.shutdown(cancel)
			return
		}
		if err != nil {
			c.printf("*** %v", err)
		}
	}

	if err := c.client.Quit(""); err != nil {
		c.printf("*** %v", err)
	}
	c.shutdown(cancel)
}

// shutdown gives the server quitTimeout to close the connection after QUIT
func (c *console) shutdown(cancel context.CancelFunc) {
	if !c.client.Connected() {
		cancel()
		return
	}
	time.AfterFunc(quitTimeout, cancel)
}

// command is one slash command of the console
type command struct {
	usage string
	run   func(c *console, args string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"j":      {"/j <#channel>...", (*console).cmdJoin},
		"join":   {"/join <#channel>...", (*console).cmdJoin},
		"part":   {"/part [#channel]", (*console).cmdPart},
		"query":  {"/query <nick|#channel>", (*console).cmdQuery},
		"msg":    {"/msg <target> <text>", (*console).cmdMsg},
		"me":     {"/me <text>", (*console).cmdMe},
		"notice": {"/notice <target> <text>", (*console).cmdNotice},
		"nick":   {"/nick <nickname>", (*console).cmdNick},
		"mode":   {"/mode [#channel] [modes]", (*console).cmdMode},
		"umode":  {"/umode <modes>", (*console).cmdUmode},
		"topic":  {"/topic [#channel] [topic]", (*console).cmdTopic},
		"kick":   {"/kick [#channel] <nick> [reason]", (*console).cmdKick},
		"invite": {"/invite <nick> [#channel]", (*console).cmdInvite},
		"names":  {"/names [#channel]", (*console).cmdNames},
		"list":   {"/list [#channel,...]", (*console).cmdList},
		"links":  {"/links", (*console).cmdLinks},
		"ping":   {"/ping <nick>", (*console).cmdPing},
		"ctcp":   {"/ctcp <nick> <request>", (*console).cmdCTCP},
		"dcc":    {"/dcc [chat <nick>|send <nick> <file>|accept <id>|msg <id> <text>|close <id>]", (*console).cmdDCC},
		"last":   {"/last [n]", (*console).cmdLast},
		"raw":    {"/raw <line>", (*console).cmdRaw},
		"q":      {"/q [reason]", (*console).cmdQuit},
		"quit":   {"/quit [reason]", (*console).cmdQuit},
		"help":   {"/help", (*console).cmdHelp},
	}
}

// execute runs one line of input. Text not starting with a slash is sent to
// the current target; a doubled slash sends a literal one
func (c *console) execute(line string) error {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil
	}

	if !strings.HasPrefix(line, "/") || strings.HasPrefix(line, "//") {
		return c.say(strings.TrimPrefix(line, "/"))
	}

	name, args, _ := strings.Cut(line[1:], " ")
	cmd, ok := commands[strings.ToLower(name)]
	if !ok {
		return errors.Errorf("unknown command /%s, try /help", name)
	}
	return cmd.run(c, strings.TrimSpace(args))
}

func usage(name string) error {
	return errors.Errorf("usage: %s", commands[name].usage)
}

// splitArgs splits s into at most n words, the last holding the remainder
func splitArgs(s string, n int) []string {
	var out []string
	s = strings.TrimSpace(s)
	for len(out) < n-1 && s != "" {
		word, rest, _ := strings.Cut(s, " ")
		out = append(out, word)
		s = strings.TrimLeft(rest, " ")
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

// channelArg takes a leading channel from args, falling back to the current
// target. A leading word starting with + is read as modes or topic text,
// never as a channel
func (c *console) channelArg(args string) (string, string) {
	parts := splitArgs(args, 2)
	if len(parts) > 0 && irc.IsChannel(parts[0]) && parts[0][0] != '+' {
		if len(parts) == 1 {
			return parts[0], ""
		}
		return parts[0], parts[1]
	}
	return c.currentTarget(), args
}

func (c *console) say(text string) error {
	target := c.currentTarget()
	if target == "" {
		return errors.New("no target, /j a channel or /query a nick first")
	}
	return c.sendMessage(target, text)
}

func (c *console) sendMessage(target, text string) error {
	if err := c.client.Privmsg(target, text); err != nil {
		return err
	}
	if irc.IsChannel(target) {
		c.record(target, "[%s] <%s> %s", target, c.client.CurrentNick(), text)
	} else {
		c.record(target, "-> *%s* %s", target, text)
	}
	return nil
}

func (c *console) cmdJoin(args string) error {
	channels := strings.Fields(args)
	if len(channels) == 0 {
		return usage("j")
	}
	for _, channel := range channels {
		if err := c.client.Join(channel); err != nil {
			return err
		}
	}
	c.setTarget(channels[len(channels)-1])
	return nil
}

func (c *console) cmdPart(args string) error {
	channel, _ := c.channelArg(args)
	if channel == "" {
		return usage("part")
	}
	if err := c.client.Part(channel); err != nil {
		return err
	}

	c.mu.Lock()
	if strings.EqualFold(c.target, channel) {
		c.target = ""
	}
	c.mu.Unlock()
	return nil
}

func (c *console) cmdQuery(args string) error {
	if args == "" || strings.Contains(args, " ") {
		return usage("query")
	}
	c.setTarget(args)
	c.printf("*** Talking to %s", args)
	return nil
}

func (c *console) cmdMsg(args string) error {
	parts := splitArgs(args, 2)
	if len(parts) < 2 {
		return usage("msg")
	}
	return c.sendMessage(parts[0], parts[1])
}

func (c *console) cmdMe(args string) error {
	target := c.currentTarget()
	if target == "" || args == "" {
		return usage("me")
	}
	if err := c.client.Action(target, args); err != nil {
		return err
	}
	c.record(target, "* %s %s", c.client.CurrentNick(), args)
	return nil
}

func (c *console) cmdNotice(args string) error {
	parts := splitArgs(args, 2)
	if len(parts) < 2 {
		return usage("notice")
	}
	if err := c.client.Notice(parts[0], parts[1]); err != nil {
		return err
	}
	c.printf("-> -%s- %s", parts[0], parts[1])
	return nil
}

func (c *console) cmdNick(args string) error {
	if args == "" {
		return usage("nick")
	}
	return c.client.Nick(args)
}

func (c *console) cmdMode(args string) error {
	channel, modes := c.channelArg(args)
	if channel == "" {
		return usage("mode")
	}
	return c.client.SetChannelMode(channel, modes)
}

func (c *console) cmdUmode(args string) error {
	if args == "" {
		return usage("umode")
	}
	return c.client.SetMode(args)
}

func (c *console) cmdTopic(args string) error {
	channel, topic := c.channelArg(args)
	if channel == "" {
		return usage("topic")
	}
	return c.client.Topic(channel, topic)
}

func (c *console) cmdKick(args string) error {
	channel, rest := c.channelArg(args)
	parts := splitArgs(rest, 2)
	if channel == "" || len(parts) == 0 {
		return usage("kick")
	}
	reason := ""
	if len(parts) > 1 {
		reason = parts[1]
	}
	return c.client.Kick(parts[0], channel, reason)
}

func (c *console) cmdInvite(args string) error {
	parts := strings.Fields(args)
	if len(parts) == 0 || len(parts) > 2 {
		return usage("invite")
	}
	channel := c.currentTarget()
	if len(parts) == 2 {
		channel = parts[1]
	}
	return c.client.Invite(parts[0], channel)
}

func (c *console) cmdNames(args string) error {
	channel, _ := c.channelArg(args)
	if channel == "" {
		return usage("names")
	}
	return c.client.Names(channel)
}

func (c *console) cmdList(args string) error {
	return c.client.List(args)
}

func (c *console) cmdLinks(args string) error {
	c.mu.Lock()
	c.links = links.NewTree()
	c.mu.Unlock()
	return c.client.SendRaw("LINKS")
}

func (c *console) cmdPing(args string) error {
	if args == "" || strings.Contains(args, " ") {
		return usage("ping")
	}
	return c.client.CTCPRequest(args, "PING "+strconv.FormatInt(time.Now().UnixNano(), 10))
}

func (c *console) cmdCTCP(args string) error {
	parts := splitArgs(args, 2)
	if len(parts) < 2 {
		return usage("ctcp")
	}
	word, rest, _ := strings.Cut(parts[1], " ")
	request := strings.ToUpper(word)
	if rest != "" {
		request += " " + rest
	}
	return c.client.CTCPRequest(parts[0], request)
}

func (c *console) cmdDCC(args string) error {
	return c.transfers.command(args)
}

func (c *console) cmdLast(args string) error {
	n := defaultLast
	if args != "" {
		v, err := strconv.Atoi(args)
		if err != nil || v <= 0 {
			return usage("last")
		}
		n = v
	}

	target := c.currentTarget()
	if target == "" {
		return errors.New("no target, /j a channel or /query a nick first")
	}

	lines, err := c.transcripts.Last(target, n)
	if err != nil {
		return errors.Wrapf(err, "unable to read transcript for %s", target)
	}
	c.printf("*** Last %d lines of %s", len(lines), target)
	for _, line := range lines {
		c.printf("%s", line)
	}
	return nil
}

func (c *console) cmdRaw(args string) error {
	return c.client.SendRaw(args)
}

func (c *console) cmdQuit(args string) error {
	if err := c.client.Quit(args); err != nil {
		c.printf("*** %v", err)
	}
	return errQuit
}

func (c *console) cmdHelp(args string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c.printf("  %s", commands[name].usage)
	}
	return nil
}

// closeSessions ends every DCC session on shutdown
func (c *console) closeSessions() {
	c.transfers.closeAll()
}
