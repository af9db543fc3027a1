package testutil

import (
	"fmt"
	"math/rand/v2"
	"net"
	"testing"
	"time"

	"github.com/udisondev/chessd/internal/protocol"
)

// Peer is a scripted protocol client for integration tests. It dials the
// server, frames messages on the way out and decodes them on the way in,
// with a deadline on every operation so a missing message fails the test
// instead of hanging it.
type Peer struct {
	t       testing.TB
	conn    net.Conn
	timeout time.Duration
}

// DialPeer connects to the server at addr. Dialing retries with backoff
// and jitter: under parallel tests the TCP stack may lag releasing ports.
// The connection is closed when the test finishes.
func DialPeer(t testing.TB, addr string) *Peer {
	t.Helper()

	var conn net.Conn
	var err error
	for attempt := range 10 {
		conn, err = net.DialTimeout("tcp", addr, 5*time.Second)
		if err == nil {
			break
		}
		if attempt < 9 {
			base := time.Duration(20<<min(attempt, 6)) * time.Millisecond
			jitter := time.Duration(rand.IntN(int(base/2)+1)) * time.Millisecond
			time.Sleep(base + jitter)
		}
	}
	if err != nil {
		t.Fatalf("dialing server at %s: %v", addr, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		// Immediate RST instead of TIME_WAIT keeps parallel tests from
		// exhausting ephemeral ports.
		if err := tcpConn.SetLinger(0); err != nil {
			_ = conn.Close()
			t.Fatalf("setting linger: %v", err)
		}
	}

	p := &Peer{t: t, conn: conn, timeout: 5 * time.Second}
	t.Cleanup(func() {
		_ = p.conn.Close()
	})
	return p
}

// Send frames and writes one message.
func (p *Peer) Send(msg protocol.Message) {
	p.t.Helper()

	if err := p.conn.SetWriteDeadline(time.Now().Add(p.timeout)); err != nil {
		p.t.Fatalf("setting write deadline: %v", err)
	}
	if err := protocol.WriteFrame(p.conn, msg); err != nil {
		p.t.Fatalf("sending %v: %v", msg, err)
	}
}

// Recv reads the next message, failing the test on error or timeout.
func (p *Peer) Recv() protocol.Message {
	p.t.Helper()

	msg, err := p.TryRecv()
	if err != nil {
		p.t.Fatalf("receiving message: %v", err)
	}
	return msg
}

// TryRecv reads the next message, returning the error instead of failing.
// Used where a test expects the server to drop the connection.
func (p *Peer) TryRecv() (protocol.Message, error) {
	if err := p.conn.SetReadDeadline(time.Now().Add(p.timeout)); err != nil {
		return protocol.Message{}, fmt.Errorf("setting read deadline: %w", err)
	}
	return protocol.ReadFrame(p.conn)
}

// RecvKind reads the next message and requires it to be of the given kind.
func (p *Peer) RecvKind(kind protocol.Kind) protocol.Message {
	p.t.Helper()

	msg := p.Recv()
	if msg.Kind != kind {
		p.t.Fatalf("received %v, want a %v message", msg, kind)
	}
	return msg
}

// LogInAs sends a login command and consumes the greeting.
func (p *Peer) LogInAs(name string) {
	p.t.Helper()

	p.Send(protocol.LogIn(name))
	p.RecvKind(protocol.KindLog)
}

// Close closes the peer's connection early.
func (p *Peer) Close() {
	_ = p.conn.Close()
}
