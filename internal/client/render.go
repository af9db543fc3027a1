package client

import (
	"fmt"
	"strings"

	"github.com/udisondev/chessd/internal/protocol"
)

// Display prefixes for the three server message channels.
const (
	serverPrefix = "[SERVER] "
	errorPrefix  = "[SERVER ERROR] "
	chatPrefix   = "[opponent]: "
)

// pieceGlyphs maps FEN piece letters to the unicode chess set.
var pieceGlyphs = map[rune]rune{
	'P': '♙', 'N': '♘', 'B': '♗', 'R': '♖', 'Q': '♕', 'K': '♔',
	'p': '♟', 'n': '♞', 'b': '♝', 'r': '♜', 'q': '♛', 'k': '♚',
}

// RenderMessage formats a server message for the terminal. Command and
// Move frames never travel server to client; receiving one is a protocol
// violation and the caller drops the connection.
func RenderMessage(msg protocol.Message) (string, error) {
	switch msg.Kind {
	case protocol.KindBoard:
		return RenderBoard(msg.Body)
	case protocol.KindText:
		return chatPrefix + msg.Body, nil
	case protocol.KindLog:
		return serverPrefix + msg.Body, nil
	case protocol.KindError:
		return errorPrefix + msg.Body, nil
	default:
		return "", fmt.Errorf("server sent client-only message %s", msg.Kind)
	}
}

// RenderBoard draws the position in a FEN string as a bordered unicode
// board, rank 8 at the top, files labelled A through H.
func RenderBoard(fen string) (string, error) {
	grid, err := parsePlacement(fen)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("     A  B  C  D  E  F  G  H \n")
	b.WriteString("   ┌──┬──┬──┬──┬──┬──┬──┬──┐\n")
	for i, rank := range grid {
		fmt.Fprintf(&b, " %d │", 8-i)
		for _, glyph := range rank {
			fmt.Fprintf(&b, "%c │", glyph)
		}
		if i < len(grid)-1 {
			b.WriteString("\n   ├──┼──┼──┼──┼──┼──┼──┼──┤")
		}
		b.WriteString("\n")
	}
	b.WriteString("   └──┴──┴──┴──┴──┴──┴──┴──┘")
	return b.String(), nil
}

// parsePlacement expands the piece-placement field of a FEN string into an
// 8x8 glyph grid, rank 8 first. Empty squares become spaces.
func parsePlacement(fen string) ([8][8]rune, error) {
	var grid [8][8]rune

	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return grid, fmt.Errorf("empty board string")
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return grid, fmt.Errorf("board has %d ranks, want 8", len(ranks))
	}

	for i, rank := range ranks {
		file := 0
		for _, r := range rank {
			switch {
			case r >= '1' && r <= '8':
				for range int(r - '0') {
					if file > 7 {
						return grid, fmt.Errorf("rank %d overflows", 8-i)
					}
					grid[i][file] = ' '
					file++
				}
			default:
				glyph, ok := pieceGlyphs[r]
				if !ok {
					return grid, fmt.Errorf("unknown piece %q", r)
				}
				if file > 7 {
					return grid, fmt.Errorf("rank %d overflows", 8-i)
				}
				grid[i][file] = glyph
				file++
			}
		}
		if file != 8 {
			return grid, fmt.Errorf("rank %d has %d squares, want 8", 8-i, file)
		}
	}
	return grid, nil
}
