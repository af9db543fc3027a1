package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/udisondev/chessd/internal/rules"
)

// GameStatus tracks a game through its lifecycle.
type GameStatus uint8

const (
	GamePending GameStatus = iota
	GameInProgress
	GameFinished
	GameCancelled
)

func (s GameStatus) String() string {
	switch s {
	case GamePending:
		return "Pending"
	case GameInProgress:
		return "InProgress"
	case GameFinished:
		return "Finished"
	case GameCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("GameStatus(%d)", uint8(s))
	}
}

// GameResult is the outcome of a finished game. The string forms appear
// verbatim in the "Game finished:" message sent to players.
type GameResult uint8

const (
	ResultNone GameResult = iota
	WhiteWinsMate
	BlackWinsMate
	WhiteResigns
	BlackResigns
	ResultDraw
)

func (r GameResult) String() string {
	switch r {
	case WhiteWinsMate:
		return "WhiteWinsMate"
	case BlackWinsMate:
		return "BlackWinsMate"
	case WhiteResigns:
		return "WhiteResigns"
	case BlackResigns:
		return "BlackResigns"
	case ResultDraw:
		return "Draw"
	default:
		return "NoResult"
	}
}

// Game-state errors surfaced to the dispatcher.
var (
	ErrGamePending = errors.New("game has not started")
	ErrGameOver    = errors.New("game is already over")
	ErrNotYourTurn = errors.New("not the caller's turn")
	ErrNotSeated   = errors.New("caller is not seated in this game")
	ErrSeatTaken   = errors.New("no open seat")
)

// Game is one chess game between two seated users. Seats hold usernames,
// not connections, so a seat survives its player reconnecting. All state
// sits behind one mutex; handlers work with Game methods and the State
// snapshot, never with the fields.
type Game struct {
	id uint32

	mu     sync.Mutex
	board  *rules.Board
	white  string
	black  string
	status GameStatus
	result GameResult
}

func newGame(id uint32, creator string) *Game {
	return &Game{
		id:     id,
		board:  rules.NewBoard(),
		white:  creator,
		status: GamePending,
	}
}

// ID returns the game's registry identifier.
func (g *Game) ID() uint32 {
	return g.id
}

// join seats name at the first open seat, white before black. Returns true
// when the second seat fills and the game moves to InProgress.
func (g *Game) join(name string) (started bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != GamePending {
		return false, ErrSeatTaken
	}
	switch {
	case g.white == "":
		g.white = name
	case g.black == "":
		g.black = name
	default:
		return false, ErrSeatTaken
	}
	if g.white != "" && g.black != "" {
		g.status = GameInProgress
		return true, nil
	}
	return false, nil
}

// cancel marks a Pending game Cancelled. InProgress games end through
// MakeMove or Resign instead.
func (g *Game) cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status == GamePending {
		g.status = GameCancelled
	}
}

// Players returns the seated usernames; an empty string is an open seat.
func (g *Game) Players() (white, black string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.white, g.black
}

// Opponent returns the username seated across from name.
func (g *Game) Opponent(name string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch name {
	case g.white:
		return g.black, g.black != ""
	case g.black:
		return g.white, g.white != ""
	default:
		return "", false
	}
}

// Status returns the current lifecycle status.
func (g *Game) Status() GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Result returns the game outcome, ResultNone while unfinished.
func (g *Game) Result() GameResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result
}

// MakeMove validates that the game is running and it is name's turn, then
// applies the move. On success the side to move has toggled and terminal
// positions have set status and result: checkmate wins for the mover,
// stalemate is a draw. Other draw conditions are not claimed.
func (g *Game) MakeMove(name, notation string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.status {
	case GameInProgress:
	case GamePending:
		return ErrGamePending
	default:
		return ErrGameOver
	}

	var seat rules.Color
	switch name {
	case g.white:
		seat = rules.White
	case g.black:
		seat = rules.Black
	default:
		return ErrNotSeated
	}
	if seat != g.board.Turn() {
		return ErrNotYourTurn
	}

	if err := g.board.ApplyMove(notation); err != nil {
		return err
	}

	switch {
	case g.board.IsCheckmate():
		if seat == rules.White {
			g.result = WhiteWinsMate
		} else {
			g.result = BlackWinsMate
		}
		g.status = GameFinished
	case g.board.IsStalemate():
		g.result = ResultDraw
		g.status = GameFinished
	}
	return nil
}

// Resign finishes the game as a resignation by name's side. Resigning a
// Pending game is allowed; the waiting seat simply loses its game.
func (g *Game) Resign(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status == GameFinished || g.status == GameCancelled {
		return ErrGameOver
	}
	switch name {
	case g.white:
		g.result = WhiteResigns
	case g.black:
		g.result = BlackResigns
	default:
		return ErrNotSeated
	}
	g.status = GameFinished
	return nil
}

// GameState is a consistent snapshot of a game taken under its lock, used
// for broadcasting without holding the lock across channel sends.
type GameState struct {
	FEN     string
	White   string
	Black   string
	Turn    rules.Color
	InCheck bool
	Status  GameStatus
	Result  GameResult
}

// TurnName returns the username of the side to move.
func (s GameState) TurnName() string {
	if s.Turn == rules.Black {
		return s.Black
	}
	return s.White
}

// State snapshots the game.
func (g *Game) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GameState{
		FEN:     g.board.FEN(),
		White:   g.white,
		Black:   g.black,
		Turn:    g.board.Turn(),
		InCheck: g.board.InCheck(),
		Status:  g.status,
		Result:  g.result,
	}
}
