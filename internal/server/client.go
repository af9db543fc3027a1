package server

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/udisondev/chessd/internal/protocol"
)

// Default write queue / timeout constants.
// Overridden by config values when available.
const (
	defaultSendQueueSize = 100
	defaultWriteTimeout  = 5 * time.Second
)

// Client is one player connection. Outbound messages go through a bounded
// queue drained by a dedicated writer goroutine, the connection's only
// writer; handlers never write to the socket directly.
type Client struct {
	conn net.Conn
	addr string

	sendCh    chan protocol.Message
	closeCh   chan struct{}
	closeOnce sync.Once

	writeTimeout time.Duration
}

// NewClient wraps an accepted connection. The writer goroutine is started
// by the connection handler, not here.
func NewClient(conn net.Conn, sendQueueSize int, writeTimeout time.Duration) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Client{
		conn:         conn,
		addr:         conn.RemoteAddr().String(),
		sendCh:       make(chan protocol.Message, sendQueueSize),
		closeCh:      make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

// Addr returns the remote address, the connection's identity pre-login.
func (c *Client) Addr() string {
	return c.addr
}

// Conn returns the underlying network connection.
func (c *Client) Conn() net.Conn {
	return c.conn
}

// Send queues a message for async delivery. Non-blocking: a full queue
// means a slow consumer, and the client is closed rather than letting it
// stall the sender.
func (c *Client) Send(msg protocol.Message) error {
	select {
	case <-c.closeCh:
		return fmt.Errorf("client %s closed", c.addr)
	default:
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		slog.Warn("send queue full, disconnecting slow client", "client", c.addr)
		c.Close()
		return fmt.Errorf("client %s send queue full", c.addr)
	}
}

// Close asks the writer to flush queued messages and close the connection.
// Safe to call multiple times and from any goroutine.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
	})
}

// writePump drains sendCh onto the wire. It exits on Close (after flushing
// whatever is queued, so a farewell queued just before Close still goes
// out) or on the first write error, and always closes the connection on the
// way out, which in turn unblocks the connection's reader.
func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case msg := <-c.sendCh:
			if !c.write(msg) {
				return
			}
		case <-c.closeCh:
			for {
				select {
				case msg := <-c.sendCh:
					if !c.write(msg) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func (c *Client) write(msg protocol.Message) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		slog.Warn("set write deadline failed", "client", c.addr, "error", err)
		return false
	}
	if err := protocol.WriteFrame(c.conn, msg); err != nil {
		slog.Warn("write failed", "client", c.addr, "error", err)
		return false
	}
	return true
}
