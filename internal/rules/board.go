// Package rules wraps the chess rule engine behind a small facade so the
// rest of the server never touches the library's types directly.
package rules

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/brighamskarda/chess"
)

var (
	// ErrParseMove reports notation that is neither long algebraic nor SAN.
	ErrParseMove = errors.New("unparseable move notation")
	// ErrIllegalMove reports well-formed notation naming an illegal move.
	ErrIllegalMove = errors.New("illegal move")
)

// Move shapes accepted from players: long algebraic ("e2e4", "e7e8q") and
// standard algebraic including castling ("Nf3", "exd5", "e8=Q#", "O-O-O").
var (
	longMoveRe = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)
	sanMoveRe  = regexp.MustCompile(`^(?:[RNBQK]?[a-h1-8]?x?[a-h][1-8](?:=[RNBQ])?[+#]?|O-O(?:-O)?[+#]?)$`)
)

// Color identifies a side of the board.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Other returns the opposing side.
func (c Color) Other() Color {
	if c == Black {
		return White
	}
	return Black
}

// Board is a single game of chess from the starting position. It validates
// and applies moves and answers state queries for the side to move. Not safe
// for concurrent use; callers hold their own lock.
type Board struct {
	game *chess.Game
}

// NewBoard returns a board at the standard initial position, white to move.
func NewBoard() *Board {
	return &Board{game: chess.NewGame()}
}

// ApplyMove validates notation, applies the move and toggles the side to
// move. Notation matching neither accepted shape fails with ErrParseMove;
// well-formed notation naming an illegal move fails with ErrIllegalMove.
func (b *Board) ApplyMove(notation string) error {
	switch {
	case longMoveRe.MatchString(notation):
		move, err := chess.ParseUCIMove(notation)
		if err != nil {
			return fmt.Errorf("move %q: %w", notation, ErrIllegalMove)
		}
		if err := b.game.Move(move); err != nil {
			return fmt.Errorf("move %q: %w", notation, ErrIllegalMove)
		}
	case sanMoveRe.MatchString(notation):
		if err := b.game.MoveSan(notation); err != nil {
			return fmt.Errorf("move %q: %w", notation, ErrIllegalMove)
		}
	default:
		return fmt.Errorf("move %q: %w", notation, ErrParseMove)
	}
	return nil
}

// Turn returns the side to move.
func (b *Board) Turn() Color {
	if b.game.Position().Turn == chess.Black {
		return Black
	}
	return White
}

// InCheck reports whether the side to move is in check.
func (b *Board) InCheck() bool {
	return chess.IsCheck(b.game.Position())
}

// IsCheckmate reports whether the side to move is checkmated.
func (b *Board) IsCheckmate() bool {
	return b.game.IsCheckMate()
}

// IsStalemate reports whether the side to move is stalemated.
func (b *Board) IsStalemate() bool {
	return b.game.IsStaleMate()
}

// FEN serializes the current position.
func (b *Board) FEN() string {
	return chess.GenerateFen(b.game.Position())
}

// ValidateFEN reports whether s parses as a FEN position.
func ValidateFEN(s string) error {
	if _, err := chess.ParseFen(s); err != nil {
		return fmt.Errorf("parsing FEN: %w", err)
	}
	return nil
}
