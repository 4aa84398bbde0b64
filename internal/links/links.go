// Package links collects RPL_LINKS replies into a server tree
package links

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dalnet/ircc/internal/irc"
)

// Entry is one server from a LINKS reply
type Entry struct {
	Server      string // Server name
	Hub         string // Server it is linked to
	Hops        int    // Distance from the answering server
	Description string // Server info text
}

// Tree collects a LINKS reply. It is not safe for concurrent use
type Tree struct {
	entries  map[string]*Entry
	order    []string // Order of arrival
	complete bool
}

// NewTree creates an empty collector
func NewTree() *Tree {
	return &Tree{
		entries: make(map[string]*Entry),
	}
}

// Add records one link
func (t *Tree) Add(server, hub string, hops int, description string) {
	if _, ok := t.entries[server]; !ok {
		t.order = append(t.order, server)
	}
	t.entries[server] = &Entry{
		Server:      server,
		Hub:         hub,
		Hops:        hops,
		Description: description,
	}
}

// Handle feeds a numeric into the tree. It reports whether the message was
// part of the LINKS reply
func (t *Tree) Handle(msg irc.Message) bool {
	switch msg.Command.Code() {
	case irc.RplLinks:
		// 364 <me> <server> <hub> :<hops> <description>
		if len(msg.Params) < 4 {
			return true
		}
		parts := strings.SplitN(msg.Params[3], " ", 2)
		hops, _ := strconv.Atoi(parts[0])
		description := ""
		if len(parts) > 1 {
			description = parts[1]
		}
		t.Add(msg.Params[1], msg.Params[2], hops, description)
		return true
	case irc.RplEndOfLinks:
		t.complete = true
		return true
	}
	return false
}

// Complete reports whether RPL_ENDOFLINKS has arrived
func (t *Tree) Complete() bool {
	return t.complete
}

// Len returns the number of servers collected
func (t *Tree) Len() int {
	return len(t.entries)
}

// Servers returns the short names (up to the first dot) of every server,
// sorted
func (t *Tree) Servers() []string {
	servers := make([]string, 0, len(t.entries))
	for server := range t.entries {
		short := server
		if idx := strings.Index(server, "."); idx > 0 {
			short = server[:idx]
		}
		servers = append(servers, short)
	}
	sort.Strings(servers)
	return servers
}

// Build renders the tree depth first, one line per server
func (t *Tree) Build() []string {
	if len(t.entries) == 0 {
		return []string{}
	}

	// The answering server has 0 hops
	var root string
	for _, server := range t.order {
		if t.entries[server].Hops == 0 {
			root = server
			break
		}
	}
	if root == "" {
		return []string{"Error: no root server found"}
	}

	ordered := []string{root}
	t.appendChildren(root, &ordered)

	lines := make([]string, 0, len(ordered))
	for i, server := range ordered {
		lines = append(lines, t.formatLine(t.entries[server], ordered[i+1:]))
	}
	return lines
}

func (t *Tree) appendChildren(parent string, result *[]string) {
	var children []*Entry
	for _, entry := range t.entries {
		if entry.Hub == parent && entry.Server != parent {
			children = append(children, entry)
		}
	}

	sort.Slice(children, func(i, j int) bool {
		return children[i].Server < children[j].Server
	})

	for _, child := range children {
		*result = append(*result, child.Server)
		t.appendChildren(child.Server, result)
	}
}

func (t *Tree) formatLine(entry *Entry, remaining []string) string {
	if entry.Hops == 0 {
		return fmt.Sprintf("%s (%d) %s", entry.Server, entry.Hops, entry.Description)
	}

	var prefix strings.Builder
	for level := 1; level < entry.Hops; level++ {
		// Draw a rail while a later sibling at this depth is still to come
		if t.hasMoreAtLevel(level, remaining) {
			prefix.WriteString("|   ")
		} else {
			prefix.WriteString("    ")
		}
	}
	prefix.WriteString("|_ ")

	return fmt.Sprintf("%s%s (%d) %s", prefix.String(), entry.Server, entry.Hops, entry.Description)
}

func (t *Tree) hasMoreAtLevel(level int, remaining []string) bool {
	for _, server := range remaining {
		hops := t.entries[server].Hops
		if hops < level {
			return false
		}
		if hops == level {
			return true
		}
	}
	return false
}
