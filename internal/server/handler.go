package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/udisondev/chessd/internal/protocol"
	"github.com/udisondev/chessd/internal/rules"
	"github.com/udisondev/chessd/internal/store"
)

// User-visible replies. The exact wording is part of the protocol surface
// clients display, so it lives in one place.
const (
	msgSuperseded     = "You have been superseded by a new login"
	msgFarewell       = "You have been disconnected. Bye!"
	msgInGame         = "You're in a game now!"
	msgCheck          = "Check!"
	msgAlreadyLogged  = "You are already logged in."
	msgInvalidName    = "Invalid username."
	msgServerError    = "Server error, please try again."
	msgAlreadyInGame  = "You are already in a game."
	msgNoGame         = "You have no active game."
	msgGameNotStarted = "The game hasn't started yet."
	msgGameOver       = "The game is already over."
	msgNotYourTurn    = "It's not your turn."
	msgParseMove      = "Couldn't parse move."
	msgIllegalMove    = "Invalid move."
	msgNoChatPartner  = "You have no opponent to chat with"
	msgStats          = "Stats not yet available"
	msgInconsistency  = "internal inconsistency; please retry"
)

// Handler dispatches decoded client messages against the registry, the
// rule engine and the username store. User mistakes go back as Error
// messages and keep the connection; a non-nil return is a protocol
// violation and the caller closes the connection.
type Handler struct {
	store    store.Store
	registry *Registry
}

// NewHandler creates a dispatcher over the given store and registry.
func NewHandler(st store.Store, reg *Registry) *Handler {
	return &Handler{store: st, registry: reg}
}

// Handle processes one message from c.
func (h *Handler) Handle(ctx context.Context, c *Client, msg protocol.Message) error {
	switch msg.Kind {
	case protocol.KindCommand:
		switch msg.Cmd.Kind {
		case protocol.CmdLogIn:
			return h.handleLogIn(ctx, c, msg.Cmd.Name)
		case protocol.CmdPlay:
			h.handlePlay(c)
		case protocol.CmdConcede:
			h.handleConcede(c)
		case protocol.CmdStats:
			h.send(c, protocol.Log(msgStats))
		default:
			return fmt.Errorf("unknown command kind %v", msg.Cmd.Kind)
		}
	case protocol.KindMove:
		h.handleMove(c, msg.Body)
	case protocol.KindText:
		h.handleText(c, msg.Body)
	default:
		// Board, Error and Log only ever travel server to client.
		return fmt.Errorf("client sent server-only message %s", msg.Kind)
	}
	return nil
}

func (h *Handler) handleLogIn(ctx context.Context, c *Client, name string) error {
	if cur, ok := h.registry.UserOf(c); ok {
		slog.Debug("login attempt on logged-in connection", "client", c.Addr(), "user", cur)
		h.send(c, protocol.Error(msgAlreadyLogged))
		return nil
	}
	if !store.ValidName(name) {
		h.send(c, protocol.Error(msgInvalidName))
		return nil
	}

	known, err := h.store.Exists(ctx, name)
	if err != nil {
		slog.Error("username lookup failed", "user", name, "error", err)
		h.send(c, protocol.Error(msgServerError))
		return nil
	}
	if !known {
		if err := h.store.Register(ctx, name); err != nil {
			slog.Error("username registration failed", "user", name, "error", err)
			h.send(c, protocol.Error(msgServerError))
			return nil
		}
	}

	if evicted := h.registry.Promote(name, c); evicted != nil {
		slog.Info("login superseded", "user", name, "old", evicted.Addr(), "new", c.Addr())
		evicted.Send(protocol.Log(msgSuperseded))
		evicted.Close()
	}

	if known {
		h.send(c, protocol.Log(fmt.Sprintf("Authenticated successfully. Welcome back, %s.", name)))
	} else {
		h.send(c, protocol.Log(fmt.Sprintf(
			"Registered a new user. Welcome, %s! Hope you are going to enjoy our chess server. Use /play to start your first game!", name)))
	}
	slog.Info("user logged in", "user", name, "client", c.Addr(), "registered", !known)
	return nil
}

func (h *Handler) handlePlay(c *Client) {
	name, ok := h.registry.UserOf(c)
	if !ok {
		h.send(c, protocol.Error("Anonymous users cannot play; use /log in"))
		return
	}

	switch _, err := h.registry.GameOf(name); {
	case err == nil:
		h.send(c, protocol.Error(msgAlreadyInGame))
		return
	case errors.Is(err, ErrStaleGame):
		h.send(c, protocol.Error(msgInconsistency))
		return
	}

	if g, ok := h.registry.JoinPending(name); ok {
		slog.Info("game matched", "game_id", g.ID(), "user", name)
		h.broadcastGame(g)
		return
	}

	g := h.registry.CreateGame(name)
	slog.Info("game created", "game_id", g.ID(), "user", name)
	h.send(c, protocol.Log(msgInGame))
}

func (h *Handler) handleMove(c *Client, notation string) {
	name, ok := h.registry.UserOf(c)
	if !ok {
		h.send(c, protocol.Error("Anonymous users cannot move; use /log in"))
		return
	}
	g, err := h.registry.GameOf(name)
	if err != nil {
		h.send(c, protocol.Error(h.gameLookupReply(err)))
		return
	}

	if err := g.MakeMove(name, notation); err != nil {
		h.send(c, protocol.Error(h.moveReply(name, g, err)))
		return
	}
	slog.Debug("move applied", "game_id", g.ID(), "user", name, "move", notation)

	h.broadcastGame(g)
	if g.Status() == GameFinished {
		h.registry.FinishGame(g)
		slog.Info("game finished", "game_id", g.ID(), "result", g.Result())
	}
}

// moveReply maps a MakeMove error to the reply text for the mover.
func (h *Handler) moveReply(name string, g *Game, err error) string {
	switch {
	case errors.Is(err, ErrGamePending):
		return msgGameNotStarted
	case errors.Is(err, ErrGameOver):
		return msgGameOver
	case errors.Is(err, ErrNotYourTurn):
		return msgNotYourTurn
	case errors.Is(err, rules.ErrParseMove):
		return msgParseMove
	case errors.Is(err, rules.ErrIllegalMove):
		return msgIllegalMove
	case errors.Is(err, ErrNotSeated):
		slog.Error("seat mismatch", "game_id", g.ID(), "user", name)
		h.registry.DropUserGame(name)
		return msgInconsistency
	default:
		slog.Error("move failed", "game_id", g.ID(), "user", name, "error", err)
		return msgServerError
	}
}

func (h *Handler) handleConcede(c *Client) {
	name, ok := h.registry.UserOf(c)
	if !ok {
		h.send(c, protocol.Error("Anonymous users cannot concede; use /log in"))
		return
	}
	g, err := h.registry.GameOf(name)
	if err != nil {
		h.send(c, protocol.Error(h.gameLookupReply(err)))
		return
	}

	if err := g.Resign(name); err != nil {
		switch {
		case errors.Is(err, ErrGameOver):
			h.send(c, protocol.Error(msgGameOver))
		case errors.Is(err, ErrNotSeated):
			slog.Error("seat mismatch", "game_id", g.ID(), "user", name)
			h.registry.DropUserGame(name)
			h.send(c, protocol.Error(msgInconsistency))
		default:
			slog.Error("concede failed", "game_id", g.ID(), "user", name, "error", err)
			h.send(c, protocol.Error(msgServerError))
		}
		return
	}

	h.broadcastGame(g)
	h.registry.FinishGame(g)
	slog.Info("game conceded", "game_id", g.ID(), "user", name, "result", g.Result())
}

func (h *Handler) handleText(c *Client, body string) {
	name, ok := h.registry.UserOf(c)
	if !ok {
		h.send(c, protocol.Error("Anonymous users cannot chat; use /log in"))
		return
	}
	g, err := h.registry.GameOf(name)
	if err != nil {
		if errors.Is(err, ErrStaleGame) {
			h.send(c, protocol.Error(msgInconsistency))
			return
		}
		h.send(c, protocol.Error(msgNoChatPartner))
		return
	}

	opponent, ok := g.Opponent(name)
	if !ok {
		h.send(c, protocol.Error(msgNoChatPartner))
		return
	}
	if oc, ok := h.registry.UserConn(opponent); ok {
		oc.Send(protocol.Text(body))
	}
}

func (h *Handler) gameLookupReply(err error) string {
	if errors.Is(err, ErrStaleGame) {
		return msgInconsistency
	}
	return msgNoGame
}

// send delivers a reply, tolerating a send failure: the slow-client path
// has already closed the connection and cleanup follows via its reader.
func (h *Handler) send(c *Client, msg protocol.Message) {
	if err := c.Send(msg); err != nil {
		slog.Debug("reply dropped", "client", c.Addr(), "error", err)
	}
}
