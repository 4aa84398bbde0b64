package dcc

import (
	"context"
	"encoding/binary"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/dalnet/ircc/internal/irc"
	"github.com/pkg/errors"
)

const chunkSize = 4096

// File is a DCC SEND session. The server side streams a local file; the
// client side stores it. After every block it receives, the client answers
// with the total number of bytes received so far as a 32-bit big-endian
// integer, wrapping past 4 GiB
type File struct {
	session

	path      string
	name      string
	size      int64
	sizeKnown bool

	transferred int64
}

// NewFileServer creates a session that offers the file at path to peer,
// listening on address
func NewFileServer(peer irc.Prefix, address, path string, logger *log.Logger,
	handlers Handlers) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading file")
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Wrapf(irc.ErrInvalidRequest, "%s is not a regular file", path)
	}

	f := &File{
		path:      path,
		name:      offerName(info.Name()),
		size:      info.Size(),
		sizeKnown: true,
	}
	f.init(irc.DCCSend, peer, address, "", true, logger, handlers)
	return f, nil
}

// NewFileClient creates a session that downloads a file offered by peer
// into dir
func NewFileClient(peer irc.Prefix, offer irc.DCCRequest, dir string,
	logger *log.Logger, handlers Handlers) (*File, error) {
	if offer.Type != irc.DCCSend {
		return nil, errors.Wrap(irc.ErrInvalidRequest, "not a send offer")
	}

	name := SafeName(offer.Argument)
	f := &File{
		path:      filepath.Join(dir, name),
		name:      name,
		size:      offer.Size,
		sizeKnown: offer.HasSize,
	}
	f.init(irc.DCCSend, peer, hostOf(offer), offer.Port, false, logger, handlers)
	return f, nil
}

// Name returns the file name as advertised
func (f *File) Name() string {
	return f.name
}

// Path returns the local path read from or written to
func (f *File) Path() string {
	return f.path
}

// Size returns the file size, or 0 when the offer did not carry one
func (f *File) Size() int64 {
	return f.size
}

// Transferred returns the bytes sent or received so far
func (f *File) Transferred() int64 {
	return atomic.LoadInt64(&f.transferred)
}

// Connect establishes the transfer and runs it in the background
func (f *File) Connect(ctx context.Context) error {
	file, err := f.open()
	if err != nil {
		return err
	}

	conn, err := f.establish(ctx)
	if err != nil {
		_ = file.Close()
		return err
	}

	if f.active {
		go f.send(conn, file)
	} else {
		go f.receive(conn, file)
	}
	return nil
}

func (f *File) open() (*os.File, error) {
	if f.active {
		file, err := os.Open(f.path)
		return file, errors.Wrap(err, "error opening file")
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return nil, errors.Wrap(err, "error creating download directory")
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	return file, errors.Wrap(err, "error creating file")
}

func (f *File) progress(n int64) int64 {
	total := atomic.AddInt64(&f.transferred, n)
	if f.handlers.OnProgress != nil {
		f.handlers.OnProgress(total, f.size)
	}
	return total
}

func (f *File) send(conn net.Conn, file *os.File) {
	defer file.Close()

	acked := make(chan error, 1)
	go func() { acked <- f.readAcks(conn) }()

	buf := make([]byte, chunkSize)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			if werr := f.write(conn, buf[:n]); werr != nil {
				f.finish(werr)
				return
			}
			f.progress(int64(n))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			f.finish(errors.Wrap(err, "error reading file"))
			return
		}
	}

	f.finish(<-acked)
}

// readAcks waits until the peer has acknowledged the whole file
func (f *File) readAcks(conn net.Conn) error {
	var total int64
	var last uint32
	var ack [4]byte

	for total < f.size {
		if _, err := io.ReadFull(conn, ack[:]); err != nil {
			return errors.Wrapf(err, "transfer stopped after %d of %d bytes acknowledged",
				total, f.size)
		}
		v := binary.BigEndian.Uint32(ack[:])
		total += int64(v - last)
		last = v
	}
	return nil
}

func (f *File) receive(conn net.Conn, file *os.File) {
	buf := make([]byte, chunkSize)
	var ack [4]byte

	done := func(cause error) {
		if err := file.Close(); err != nil && cause == nil {
			cause = errors.Wrap(err, "error closing file")
		}
		f.finish(cause)
	}

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				done(errors.Wrap(werr, "error writing file"))
				return
			}

			total := f.progress(int64(n))
			binary.BigEndian.PutUint32(ack[:], uint32(total))
			if werr := f.write(conn, ack[:]); werr != nil {
				done(werr)
				return
			}

			if f.sizeKnown && total >= f.size {
				done(nil)
				return
			}
		}

		if err == io.EOF {
			if f.sizeKnown && f.Transferred() < f.size {
				done(errors.Errorf("transfer incomplete: %d of %d bytes",
					f.Transferred(), f.size))
				return
			}
			done(nil)
			return
		}
		if err != nil {
			done(errors.Wrap(err, "error reading"))
			return
		}
	}
}

// offerName is the name advertised in our own offers. The name is a single
// token of the offer, so whitespace becomes an underscore
func offerName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, SafeName(name))
}

// SafeName reduces an offered file name to a base name that cannot escape
// the download directory
func SafeName(name string) string {
	name = strings.Trim(name, "\"")
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == ".." || name == "/" || name == "" {
		return "download"
	}
	return name
}
