package varserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Link errors
var (
	ErrConnect     = errors.New("variable server connect failed")
	ErrEndOfStream = errors.New("variable server closed the stream")
	ErrRead        = errors.New("variable server read failed")
	ErrWrite       = errors.New("variable server write failed")
)

const readBufferSize = 4096

// Options configures a Link
type Options struct {
	ClientTag string
	VarPath   string
	Cycle     time.Duration

	// DialTimeout bounds the TCP handshake. Zero means no timeout.
	DialTimeout time.Duration
	// ReadTimeout bounds each NextLine call. Zero means wait forever.
	ReadTimeout  time.Duration
	MaxLineBytes int
}

func (o Options) withDefaults() Options {
	if o.ClientTag == "" {
		o.ClientTag = DefaultClientTag
	}
	if o.VarPath == "" {
		o.VarPath = DefaultVarPath
	}
	if o.Cycle <= 0 {
		o.Cycle = DefaultCycle
	}
	if o.MaxLineBytes <= 0 {
		o.MaxLineBytes = 64 * 1024
	}
	return o
}

// Stats holds link traffic counters
type Stats struct {
	LinesRead    uint64
	CommandsSent uint64
	BytesRead    uint64
	BytesWritten uint64
}

// Link is a connection to a Trick variable server
type Link struct {
	conn   net.Conn
	opts   Options
	logger *logrus.Logger

	reader *bufio.Reader

	writeMu sync.Mutex
	writer  *bufio.Writer

	linesRead    atomic.Uint64
	commandsSent atomic.Uint64
	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the variable server at host:port
func Dial(ctx context.Context, host string, port int, opts Options, logger *logrus.Logger) (*Link, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	d := &net.Dialer{Timeout: opts.DialTimeout}

	logger.WithField("addr", addr).Info("Connecting to variable server")
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, addr, err)
	}

	return NewLink(conn, opts, logger), nil
}

// NewLink wraps an established connection
func NewLink(conn net.Conn, opts Options, logger *logrus.Logger) *Link {
	opts = opts.withDefaults()
	return &Link{
		conn:   conn,
		opts:   opts,
		logger: logger,
		reader: bufio.NewReaderSize(conn, min(opts.MaxLineBytes, readBufferSize)),
		writer: bufio.NewWriter(conn),
	}
}

// VarPath returns the simulation variable prefix used by this link
func (l *Link) VarPath() string {
	return l.opts.VarPath
}

// RemoteAddr returns the peer address
func (l *Link) RemoteAddr() string {
	return l.conn.RemoteAddr().String()
}

// SendHandshake subscribes to the telemetry variables and starts the cycle
func (l *Link) SendHandshake() error {
	lines := HandshakeLines(l.opts.ClientTag, l.opts.VarPath, l.opts.Cycle)

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	for _, line := range lines {
		if err := l.writeLine(line); err != nil {
			return err
		}
	}
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("%w: handshake: %w", ErrWrite, err)
	}

	l.logger.WithFields(logrus.Fields{
		"client_tag": l.opts.ClientTag,
		"var_path":   l.opts.VarPath,
		"cycle":      l.opts.Cycle,
		"remote":     l.RemoteAddr(),
	}).Info("Sent variable server handshake")
	return nil
}

// SendCommand writes one command line and flushes it immediately
func (l *Link) SendCommand(text string) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if err := l.writeLine(text); err != nil {
		return err
	}
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	l.commandsSent.Add(1)
	return nil
}

// writeLine must be called with writeMu held
func (l *Link) writeLine(text string) error {
	text = strings.TrimRight(text, "\n")
	n, err := l.writer.WriteString(text + "\n")
	l.bytesWritten.Add(uint64(n))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// NextLine blocks until one newline-terminated record arrives.
// The returned line has its line terminator removed.
func (l *Link) NextLine() (string, error) {
	if l.opts.ReadTimeout > 0 {
		_ = l.conn.SetReadDeadline(time.Now().Add(l.opts.ReadTimeout))
	}

	line, err := l.readLine()
	if err != nil {
		switch {
		case errors.Is(err, io.EOF):
			if len(line) > 0 {
				// Final record without a terminator
				l.linesRead.Add(1)
				return strings.TrimRight(line, "\r"), nil
			}
			return "", ErrEndOfStream
		case errors.Is(err, net.ErrClosed):
			return "", fmt.Errorf("%w: %w", ErrEndOfStream, err)
		case errors.Is(err, os.ErrDeadlineExceeded):
			return "", fmt.Errorf("%w: no data within %s: %w", ErrRead, l.opts.ReadTimeout, err)
		default:
			return "", fmt.Errorf("%w: %w", ErrRead, err)
		}
	}

	l.linesRead.Add(1)
	return strings.TrimRight(line, "\r\n"), nil
}

// readLine collects fragments up to MaxLineBytes so an unterminated flood
// never grows past the limit
func (l *Link) readLine() (string, error) {
	var line []byte
	for {
		frag, err := l.reader.ReadSlice('\n')
		l.bytesRead.Add(uint64(len(frag)))
		if len(line)+len(frag) > l.opts.MaxLineBytes {
			return "", fmt.Errorf("%w: line exceeds %d bytes", ErrRead, l.opts.MaxLineBytes)
		}
		line = append(line, frag...)

		switch {
		case err == nil:
			return string(line), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return string(line), err
		}
	}
}

// Stats returns a snapshot of the traffic counters
func (l *Link) Stats() Stats {
	return Stats{
		LinesRead:    l.linesRead.Load(),
		CommandsSent: l.commandsSent.Load(),
		BytesRead:    l.bytesRead.Load(),
		BytesWritten: l.bytesWritten.Load(),
	}
}

// Close asks the server to end the session and closes the socket.
// Safe to call more than once.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		_ = l.conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := l.SendCommand(ExitCommand()); err != nil {
			l.logger.WithError(err).Debug("Failed to send var_exit")
		}
		l.closeErr = l.conn.Close()

		stats := l.Stats()
		l.logger.WithFields(logrus.Fields{
			"lines_read":    stats.LinesRead,
			"commands_sent": stats.CommandsSent,
			"bytes_read":    stats.BytesRead,
			"bytes_written": stats.BytesWritten,
		}).Info("Variable server link closed")
	})
	return l.closeErr
}
