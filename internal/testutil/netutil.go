package testutil

import (
	"net"
	"testing"
)

// PipeConn returns a connected pair of in-memory net.Conn ends. Both are
// closed when the test finishes.
func PipeConn(t testing.TB) (client, server net.Conn) {
	t.Helper()

	server, client = net.Pipe()

	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})

	return client, server
}

// FakeAddr implements net.Addr for tests.
type FakeAddr struct {
	NetworkName string
	AddrString  string
}

func (f FakeAddr) Network() string { return f.NetworkName }
func (f FakeAddr) String() string  { return f.AddrString }

// TCPAddr builds a fake TCP net.Addr.
func TCPAddr(addr string) FakeAddr {
	return FakeAddr{NetworkName: "tcp", AddrString: addr}
}

// ConnWithAddr overrides a connection's remote address. net.Pipe reports
// "pipe" on both ends, which breaks anything keyed by remote address; this
// wrapper gives each test connection a distinct one.
type ConnWithAddr struct {
	net.Conn
	Remote net.Addr
}

func (c *ConnWithAddr) RemoteAddr() net.Addr { return c.Remote }

// WithAddr wraps conn so it reports addr as its remote address.
func WithAddr(conn net.Conn, addr string) *ConnWithAddr {
	return &ConnWithAddr{Conn: conn, Remote: TCPAddr(addr)}
}

// ListenTCP opens a listener on an ephemeral localhost port and returns it
// with its address. The listener is closed when the test finishes.
func ListenTCP(t testing.TB) (net.Listener, string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening on ephemeral port: %v", err)
	}
	t.Cleanup(func() {
		_ = ln.Close()
	})

	return ln, ln.Addr().String()
}
