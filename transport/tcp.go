package transport

import (
	"fmt"
	"io"
	"net"
	"time"
)

// Conn is a console link over a stream connection, typically a serial
// device server or an IP-enabled data logger.
type Conn struct {
	conn net.Conn
}

// Dial connects to a console reachable at addr ("host:port").
//
// Example:
//
//	device, err := transport.Dial("weatherlink.local:22222")
func Dial(addr string) (*Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewConn(conn), nil
}

// NewConn wraps an established connection.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

// Write writes p to the connection.
func (c *Conn) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

// ReadFull reads exactly len(p) bytes, or fails once the timeout has
// passed. Deadline errors satisfy os.IsTimeout.
func (c *Conn) ReadFull(p []byte, timeout time.Duration) (int, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}
	return io.ReadFull(c.conn, p)
}

// Close closes the connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

func (c *Conn) String() string {
	return "tcp:" + c.conn.RemoteAddr().String()
}
