package server

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Registry errors surfaced to the dispatcher.
var (
	// ErrNoGame reports a user with no current game.
	ErrNoGame = errors.New("no active game")
	// ErrStaleGame reports a user_to_game entry whose game is gone. The
	// entry has been dropped by the time the error returns.
	ErrStaleGame = errors.New("stale game entry")
)

// Registry holds the session state: which connections exist, who they are
// logged in as, and which games are live. Connection indexes and game
// indexes sit behind separate locks; game lookups never nest inside
// connection lookups. No channel send happens under either lock — callers
// copy handles out first.
type Registry struct {
	connMu     sync.RWMutex
	anon       map[string]*Client // key: remote addr, pre-login connections
	users      map[string]*Client // key: username
	addrToUser map[string]string  // key: remote addr

	gameMu     sync.RWMutex
	games      map[uint32]*Game // live games, Pending and InProgress
	finished   map[uint32]*Game // terminal games, kept for later stats
	userToGame map[string]uint32
	pending    []uint32 // Pending game ids in creation order

	nextGameID atomic.Uint32
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		anon:       make(map[string]*Client),
		users:      make(map[string]*Client),
		addrToUser: make(map[string]string),
		games:      make(map[uint32]*Game),
		finished:   make(map[uint32]*Game),
		userToGame: make(map[string]uint32),
	}
}

// AddAnon records a freshly accepted connection.
func (r *Registry) AddAnon(c *Client) {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	r.anon[c.Addr()] = c
}

// Promote moves a connection from anonymous to logged-in under name. If the
// name is already bound to another connection, that connection is returned
// for the caller to evict; its address binding is gone by then, so its own
// disconnect cleanup degrades to a no-op and the game seat stays with name.
func (r *Registry) Promote(name string, c *Client) (evicted *Client) {
	r.connMu.Lock()
	defer r.connMu.Unlock()

	delete(r.anon, c.Addr())
	if old := r.users[name]; old != nil && old != c {
		delete(r.addrToUser, old.Addr())
		evicted = old
	}
	r.users[name] = c
	r.addrToUser[c.Addr()] = name
	return evicted
}

// UserOf returns the username a connection is logged in as.
func (r *Registry) UserOf(c *Client) (string, bool) {
	r.connMu.RLock()
	defer r.connMu.RUnlock()
	name, ok := r.addrToUser[c.Addr()]
	return name, ok
}

// UserConn returns the connection logged in as name.
func (r *Registry) UserConn(name string) (*Client, bool) {
	r.connMu.RLock()
	defer r.connMu.RUnlock()
	c, ok := r.users[name]
	return c, ok
}

// RemoveConn clears a connection from all connection indexes. The username
// entry goes only if it still points at this connection, so cleanup of a
// superseded connection cannot evict its successor.
func (r *Registry) RemoveConn(c *Client) {
	r.connMu.Lock()
	defer r.connMu.Unlock()

	addr := c.Addr()
	delete(r.anon, addr)
	if name, ok := r.addrToUser[addr]; ok {
		delete(r.addrToUser, addr)
		if r.users[name] == c {
			delete(r.users, name)
		}
	}
}

// Conns snapshots every tracked connection, anonymous and logged-in.
func (r *Registry) Conns() []*Client {
	r.connMu.RLock()
	defer r.connMu.RUnlock()

	conns := make([]*Client, 0, len(r.anon)+len(r.users))
	for _, c := range r.anon {
		conns = append(conns, c)
	}
	for _, c := range r.users {
		conns = append(conns, c)
	}
	return conns
}

// ConnCount returns the number of tracked connections.
func (r *Registry) ConnCount() int {
	r.connMu.RLock()
	defer r.connMu.RUnlock()
	return len(r.anon) + len(r.users)
}

// CreateGame allocates a game id, seats creator as white in a new Pending
// game and indexes it.
func (r *Registry) CreateGame(creator string) *Game {
	id := r.nextGameID.Add(1)
	g := newGame(id, creator)

	r.gameMu.Lock()
	defer r.gameMu.Unlock()
	r.games[id] = g
	r.userToGame[creator] = id
	r.pending = append(r.pending, id)
	return g
}

// JoinPending seats name in the oldest Pending game with an open seat.
// Returns false if no game is waiting; the caller creates one instead.
// The scan and the seat assignment happen under the game lock, so two
// concurrent Play commands cannot claim the same seat.
func (r *Registry) JoinPending(name string) (*Game, bool) {
	r.gameMu.Lock()
	defer r.gameMu.Unlock()

	for len(r.pending) > 0 {
		id := r.pending[0]
		g, ok := r.games[id]
		if !ok || g.Status() != GamePending {
			// Cancelled or already started; drop the stale queue entry.
			r.pending = r.pending[1:]
			continue
		}
		if _, err := g.join(name); err != nil {
			r.pending = r.pending[1:]
			continue
		}
		r.pending = r.pending[1:]
		r.userToGame[name] = id
		return g, true
	}
	return nil, false
}

// GameOf returns name's current game. A user_to_game entry pointing at a
// missing game is an internal inconsistency: it is logged, dropped, and
// reported as ErrStaleGame.
func (r *Registry) GameOf(name string) (*Game, error) {
	r.gameMu.Lock()
	defer r.gameMu.Unlock()

	id, ok := r.userToGame[name]
	if !ok {
		return nil, ErrNoGame
	}
	g, ok := r.games[id]
	if !ok {
		slog.Error("user mapped to missing game", "user", name, "game_id", id)
		delete(r.userToGame, name)
		return nil, ErrStaleGame
	}
	return g, nil
}

// DropUserGame removes name's game mapping without touching the game.
// Used to repair a detected seat mismatch.
func (r *Registry) DropUserGame(name string) {
	r.gameMu.Lock()
	defer r.gameMu.Unlock()
	delete(r.userToGame, name)
}

// FinishGame moves a terminal game into the finished archive and frees both
// players for matchmaking.
func (r *Registry) FinishGame(g *Game) {
	white, black := g.Players()

	r.gameMu.Lock()
	defer r.gameMu.Unlock()

	id := g.ID()
	if _, ok := r.games[id]; !ok {
		return
	}
	delete(r.games, id)
	r.finished[id] = g
	if white != "" && r.userToGame[white] == id {
		delete(r.userToGame, white)
	}
	if black != "" && r.userToGame[black] == id {
		delete(r.userToGame, black)
	}
}

// CancelGame drops a Pending game whose only player left. Cancelled games
// are not archived.
func (r *Registry) CancelGame(g *Game) {
	g.cancel()
	white, black := g.Players()

	r.gameMu.Lock()
	defer r.gameMu.Unlock()

	id := g.ID()
	delete(r.games, id)
	if white != "" && r.userToGame[white] == id {
		delete(r.userToGame, white)
	}
	if black != "" && r.userToGame[black] == id {
		delete(r.userToGame, black)
	}
}

// GameCount returns the number of live games.
func (r *Registry) GameCount() int {
	r.gameMu.RLock()
	defer r.gameMu.RUnlock()
	return len(r.games)
}

// FinishedCount returns the number of archived games.
func (r *Registry) FinishedCount() int {
	r.gameMu.RLock()
	defer r.gameMu.RUnlock()
	return len(r.finished)
}
