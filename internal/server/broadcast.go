package server

import (
	"fmt"

	"github.com/udisondev/chessd/internal/protocol"
	"github.com/udisondev/chessd/internal/rules"
)

// broadcastGame pushes a game's state to its seated players: the Board to
// both, then whose turn it is to the side to move only, then "Check!" to
// both when the side to move stands in check, then the result when the
// game just finished. One snapshot feeds every message, so both players
// see the same position.
func (h *Handler) broadcastGame(g *Game) {
	st := g.State()

	var white, black *Client
	if st.White != "" {
		white, _ = h.registry.UserConn(st.White)
	}
	if st.Black != "" {
		black, _ = h.registry.UserConn(st.Black)
	}

	h.sendBoth(white, black, protocol.Board(st.FEN))

	if st.Status == GameInProgress {
		turnConn := white
		if st.Turn == rules.Black {
			turnConn = black
		}
		if turnConn != nil {
			h.send(turnConn, protocol.Log(fmt.Sprintf("Your turn, %s player %s!", st.Turn, st.TurnName())))
		}
	}

	if st.InCheck {
		h.sendBoth(white, black, protocol.Log(msgCheck))
	}

	if st.Status == GameFinished {
		h.sendBoth(white, black, protocol.Log(fmt.Sprintf("Game finished: %s", st.Result)))
	}
}

func (h *Handler) sendBoth(white, black *Client, msg protocol.Message) {
	if white != nil {
		h.send(white, msg)
	}
	if black != nil {
		h.send(black, msg)
	}
}
