// Package varservertest provides a loopback stand-in for a Trick variable
// server, for use in tests.
package varservertest

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Timeout bounds every blocking call made by the helpers
const Timeout = 5 * time.Second

// Server accepts variable server clients on a loopback port
type Server struct {
	ln    net.Listener
	conns chan net.Conn
}

// NewServer starts listening and registers cleanup with t
func NewServer(t testing.TB) *Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &Server{ln: ln, conns: make(chan net.Conn, 4)}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				close(s.conns)
				return
			}
			s.conns <- c
		}
	}()

	t.Cleanup(func() { _ = ln.Close() })
	return s
}

// Host returns the listening host
func (s *Server) Host() string {
	return s.ln.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listening port
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Accept waits for the next client
func (s *Server) Accept(t testing.TB) *Conn {
	t.Helper()

	select {
	case c, ok := <-s.conns:
		require.True(t, ok, "listener closed")
		t.Cleanup(func() { _ = c.Close() })
		return &Conn{conn: c, r: bufio.NewReader(c)}
	case <-time.After(Timeout):
		t.Fatal("timed out waiting for client")
		return nil
	}
}

// Conn is the server side of one client session
type Conn struct {
	conn net.Conn
	r    *bufio.Reader
}

// ReadLine reads one line sent by the client, without its terminator
func (c *Conn) ReadLine(t testing.TB) string {
	t.Helper()

	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(Timeout)))
	line, err := c.r.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimRight(line, "\n")
}

// ReadLines reads n lines sent by the client
func (c *Conn) ReadLines(t testing.TB, n int) []string {
	t.Helper()

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, c.ReadLine(t))
	}
	return lines
}

// Send writes one line to the client, appending a newline
func (c *Conn) Send(t testing.TB, line string) {
	t.Helper()

	require.NoError(t, c.conn.SetWriteDeadline(time.Now().Add(Timeout)))
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

// SendRaw writes bytes to the client as is
func (c *Conn) SendRaw(t testing.TB, data string) {
	t.Helper()

	require.NoError(t, c.conn.SetWriteDeadline(time.Now().Add(Timeout)))
	_, err := c.conn.Write([]byte(data))
	require.NoError(t, err)
}

// Close ends the session from the server side
func (c *Conn) Close() error {
	return c.conn.Close()
}
