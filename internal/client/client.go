package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/chessd/internal/protocol"
)

// Client is one interactive session: a server connection plus the
// terminal streams it reads commands from and renders messages to.
type Client struct {
	conn net.Conn
	in   io.Reader
	out  io.Writer
}

// New wraps an established connection.
func New(conn net.Conn, in io.Reader, out io.Writer) *Client {
	return &Client{conn: conn, in: in, out: out}
}

// Dial connects to the server at addr.
func Dial(ctx context.Context, addr string, in io.Reader, out io.Writer) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	slog.Info("connected to server", "address", addr)
	return New(conn, in, out), nil
}

// Run drives the session until the server closes the connection, the
// input stream ends or ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.readLoop(gctx)
	})
	g.Go(func() error {
		// Closing the connection on the way out unblocks the read loop.
		defer c.conn.Close()
		return c.inputLoop(gctx)
	})

	err := g.Wait()
	switch {
	case err == nil,
		errors.Is(err, io.EOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, context.Canceled):
		return nil
	default:
		return err
	}
}

// readLoop renders every server message as it arrives.
func (c *Client) readLoop(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-done:
		}
	}()

	for {
		msg, err := protocol.ReadFrame(c.conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				slog.Info("server closed the connection")
				return io.EOF
			}
			if errors.Is(err, net.ErrClosed) {
				return net.ErrClosed
			}
			return fmt.Errorf("reading server message: %w", err)
		}

		text, err := RenderMessage(msg)
		if err != nil {
			return fmt.Errorf("rendering server message: %w", err)
		}
		fmt.Fprintln(c.out, text)
	}
}

// inputLoop prompts, classifies each typed line and sends what the server
// should see. The scanner runs in its own goroutine so a cancelled context
// is not stuck behind a blocking terminal read.
func (c *Client) inputLoop(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(c.out, "Please enter your command, chat message, or chess move.")
	for {
		fmt.Fprint(c.out, "> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			input := Classify(line)
			if !input.Send {
				fmt.Fprintln(c.out, input.Local)
				continue
			}
			if err := protocol.WriteFrame(c.conn, input.Msg); err != nil {
				return fmt.Errorf("sending %s: %w", input.Msg.Kind, err)
			}
		}
	}
}
