package irc

import (
	"bytes"
	"io"
)

// Framer splits a byte stream into protocol lines
//
// Bytes are appended with Feed or Fill and complete lines are taken with
// Next. A line is complete once its LF has arrived; a CR before the LF is
// stripped. Bytes after the last LF stay buffered until more data arrives,
// so a line split across reads is emitted exactly once
//
// A Framer is not safe for concurrent use
type Framer struct {
	buf     []byte
	readBuf []byte
	max     int

	// discarding is set while skipping the remainder of an oversized line
	discarding bool
	dropped    int
}

// NewFramer creates a Framer. sizeHint sizes each read; maxLine bounds how
// many bytes may accumulate without a terminator. A line longer than maxLine
// is dropped
func NewFramer(sizeHint, maxLine int) *Framer {
	if sizeHint <= 0 {
		sizeHint = 512
	}
	if maxLine < sizeHint {
		maxLine = sizeHint
	}
	return &Framer{
		buf:     make([]byte, 0, sizeHint),
		readBuf: make([]byte, sizeHint),
		max:     maxLine,
	}
}

// Feed appends p to the buffer
func (f *Framer) Feed(p []byte) {
	for len(p) > 0 {
		if f.discarding {
			idx := bytes.IndexByte(p, '\n')
			if idx == -1 {
				return
			}
			f.discarding = false
			p = p[idx+1:]
			continue
		}

		f.buf = append(f.buf, p...)
		p = nil

		if len(f.buf) > f.max && bytes.IndexByte(f.buf, '\n') == -1 {
			f.buf = f.buf[:0]
			f.discarding = true
			f.dropped++
		}
	}
}

// Fill performs a single read from r into the buffer. It returns the
// number of bytes read and any error from r. Bytes read before an error are
// still buffered
func (f *Framer) Fill(r io.Reader) (int, error) {
	n, err := r.Read(f.readBuf)
	if n > 0 {
		f.Feed(f.readBuf[:n])
	}
	return n, err
}

// Next returns the next complete line without its terminator
func (f *Framer) Next() (string, bool) {
	idx := bytes.IndexByte(f.buf, '\n')
	if idx == -1 {
		return "", false
	}

	line := f.buf[:idx]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	s := string(line)

	remaining := copy(f.buf, f.buf[idx+1:])
	f.buf = f.buf[:remaining]

	if len(s) > f.max {
		f.dropped++
		return f.Next()
	}
	return s, true
}

// Buffered returns the number of bytes waiting for a terminator
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Dropped returns how many oversized lines were discarded
func (f *Framer) Dropped() int {
	return f.dropped
}

// Reset discards all buffered bytes
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
	f.discarding = false
}
