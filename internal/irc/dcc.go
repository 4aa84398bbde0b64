package irc

import (
	"encoding/binary"
	"net"
	"strconv"
	"strings"
)

// DCCCommand is the kind of direct connection being negotiated
type DCCCommand int

// DCC commands. DCCNone marks a malformed offer
const (
	DCCNone DCCCommand = iota
	DCCChat
	DCCSend
)

func (c DCCCommand) String() string {
	switch c {
	case DCCChat:
		return "CHAT"
	case DCCSend:
		return "SEND"
	}
	return "NONE"
}

// DCCRequest is a decoded DCC offer:
//
//	<CHAT|SEND> <argument> <address> <port> [<size>]
type DCCRequest struct {
	Type DCCCommand

	// Argument is the nickname for CHAT or the file name for SEND
	Argument string
	Address  string
	Port     string

	// Size is the file size in bytes. HasSize is false when the offer did
	// not include one
	Size    int64
	HasSize bool
}

// Valid reports whether the offer decoded successfully
func (r DCCRequest) Valid() bool {
	return r.Type != DCCNone
}

// IP decodes Address, which is usually an IPv4 address written as a 32-bit
// decimal integer. Dotted and IPv6 forms are accepted too
func (r DCCRequest) IP() net.IP {
	if n, err := strconv.ParseUint(r.Address, 10, 32); err == nil {
		ip := make(net.IP, net.IPv4len)
		binary.BigEndian.PutUint32(ip, uint32(n))
		return ip
	}
	return net.ParseIP(r.Address)
}

// HostPort returns an address suitable for net.Dial
func (r DCCRequest) HostPort() string {
	host := r.Address
	if ip := r.IP(); ip != nil {
		host = ip.String()
	}
	return net.JoinHostPort(host, r.Port)
}

// DecodeDCC decodes the argument of a CTCP DCC query. A payload that does
// not match the grammar yields a request of type DCCNone
func DecodeDCC(argument string) DCCRequest {
	fields := strings.Fields(argument)
	if len(fields) < 4 || len(fields) > 5 {
		return DCCRequest{}
	}

	var typ DCCCommand
	switch fields[0] {
	case "CHAT":
		typ = DCCChat
	case "SEND":
		typ = DCCSend
	default:
		return DCCRequest{}
	}

	req := DCCRequest{
		Type:     typ,
		Argument: fields[1],
		Address:  fields[2],
		Port:     fields[3],
	}

	if len(fields) == 5 {
		size, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil || size < 0 {
			return DCCRequest{}
		}
		req.Size = size
		req.HasSize = true
	}

	return req
}

// DCCAddress renders ip the way DCC offers expect: IPv4 as a decimal
// integer, anything else in its usual text form
func DCCAddress(ip net.IP) string {
	if v4 := ip.To4(); v4 != nil {
		return strconv.FormatUint(uint64(binary.BigEndian.Uint32(v4)), 10)
	}
	return ip.String()
}
