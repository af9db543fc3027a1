package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/udisondev/chessd/internal/config"
	"github.com/udisondev/chessd/internal/protocol"
	"github.com/udisondev/chessd/internal/store"
)

// Server accepts player connections and runs the chess session layer on
// top of them: login, matchmaking, games and chat.
type Server struct {
	cfg      config.Server
	store    store.Store
	registry *Registry
	handler  *Handler

	listener net.Listener
	mu       sync.Mutex
}

// NewServer creates a server over the given username store.
func NewServer(cfg config.Server, st store.Store) *Server {
	reg := NewRegistry()
	return &Server{
		cfg:      cfg,
		store:    st,
		registry: reg,
		handler:  NewHandler(st, reg),
	}
}

// Registry returns the session registry (used by tests to observe state).
func (s *Server) Registry() *Registry {
	return s.registry
}

// Addr returns the address the server listens on, nil before Run.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close closes the listener and stops accepting connections.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Run starts listening on the configured address and serves until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve accepts connections from a ready listener. Exposed so tests can
// serve on an ephemeral port.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		slog.Info("chess server started", "address", ln.Addr())
		s.acceptLoop(ctx, &wg, ln)
	})

	wg.Wait()

	return nil
}

func (s *Server) acceptLoop(ctx context.Context, wg *sync.WaitGroup, ln net.Listener) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("failed to accept new connection", "error", err)
				continue
			}

			// Enable TCP keepalive (detect dead connections)
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				if err := tcpConn.SetKeepAlive(true); err != nil {
					slog.Warn("set keepalive failed", "error", err)
				}
				if err := tcpConn.SetKeepAlivePeriod(30 * time.Second); err != nil {
					slog.Warn("set keepalive period failed", "error", err)
				}
			}

			wg.Go(func() {
				s.handleConnection(ctx, conn)
			})
		}
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	client := NewClient(conn, s.cfg.SendQueueSize, time.Duration(s.cfg.WriteTimeout)*time.Second)
	s.registry.AddAnon(client)
	slog.Info("new connection", "remote", client.Addr())

	go client.writePump()
	defer s.disconnect(client)

	readTimeout := time.Duration(s.cfg.ReadTimeout) * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if readTimeout > 0 {
				if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
					slog.Warn("set read deadline failed", "client", client.Addr(), "error", err)
					return
				}
			}

			msg, err := protocol.ReadFrame(conn)
			if err != nil {
				switch {
				case err == io.EOF:
					slog.Info("client disconnected", "client", client.Addr())
				case errors.Is(err, net.ErrClosed):
					// Shut down underneath the reader.
				default:
					slog.Warn("read failed, dropping client", "client", client.Addr(), "error", err)
				}
				return
			}

			if err := s.handler.Handle(ctx, client, msg); err != nil {
				slog.Warn("protocol violation, dropping client", "client", client.Addr(), "error", err)
				return
			}
		}
	}
}

// disconnect tears a connection down: the farewell goes to a logged-in
// user while its channel still works, then the connection leaves the
// indexes, then the user's game is resolved — a Pending game is cancelled,
// a running one is forfeited and the final state broadcast to the
// remaining player.
func (s *Server) disconnect(c *Client) {
	name, wasUser := s.registry.UserOf(c)
	if wasUser {
		c.Send(protocol.Log(msgFarewell))
	}
	s.registry.RemoveConn(c)

	if wasUser {
		if g, err := s.registry.GameOf(name); err == nil {
			switch g.Status() {
			case GamePending:
				s.registry.CancelGame(g)
				slog.Info("pending game cancelled", "game_id", g.ID(), "user", name)
			case GameInProgress:
				if err := g.Resign(name); err != nil {
					slog.Error("forfeit on disconnect failed", "game_id", g.ID(), "user", name, "error", err)
				} else {
					s.handler.broadcastGame(g)
					s.registry.FinishGame(g)
					slog.Info("game forfeited on disconnect", "game_id", g.ID(), "user", name, "result", g.Result())
				}
			}
		}
	}

	c.Close()
	slog.Debug("connection closed", "client", c.Addr(), "user", name)
}
