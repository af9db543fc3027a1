package integration

import (
	"strings"

	"github.com/udisondev/chessd/internal/protocol"
	"github.com/udisondev/chessd/internal/testutil"
)

func (s *ChessSuite) TestMatchmakingPairsWaitingPlayers() {
	pw, pb := s.match("pairwhite", "pairblack")

	// A third player finds no open seat and starts a new waiting game.
	third := s.login("pairthird")
	third.Send(protocol.Play())
	s.expectLog(third, "You're in a game now!")

	// The first pair is really playing: white can move.
	pw.Send(protocol.Move("d2d4"))
	pw.RecvKind(protocol.KindBoard)
	pb.RecvKind(protocol.KindBoard)
	s.expectLog(pb, "Your turn, black player pairblack!")
}

func (s *ChessSuite) TestMovesAlternateAndBroadcast() {
	pw, pb := s.match("altwhite", "altblack")

	pw.Send(protocol.Move("e2e4"))
	msg := pw.RecvKind(protocol.KindBoard)
	s.Require().True(strings.HasPrefix(msg.Body, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b"),
		"unexpected position after e2e4: %s", msg.Body)
	pb.RecvKind(protocol.KindBoard)
	s.expectLog(pb, "Your turn, black player altblack!")

	pb.Send(protocol.Move("e7e5"))
	pw.RecvKind(protocol.KindBoard)
	s.expectLog(pw, "Your turn, white player altwhite!")
	pb.RecvKind(protocol.KindBoard)
}

func (s *ChessSuite) TestMoveRejections() {
	pw, pb := s.match("rejwhite", "rejblack")

	pb.Send(protocol.Move("e7e5"))
	s.expectError(pb, "It's not your turn.")

	pw.Send(protocol.Move("xyzzy"))
	s.expectError(pw, "Couldn't parse move.")

	pw.Send(protocol.Move("e2e5"))
	s.expectError(pw, "Invalid move.")

	// The game is intact after the rejections.
	pw.Send(protocol.Move("e2e4"))
	pw.RecvKind(protocol.KindBoard)
	pb.RecvKind(protocol.KindBoard)
	s.expectLog(pb, "Your turn, black player rejblack!")
}

func (s *ChessSuite) TestMoveWithoutGame() {
	p := s.login("gameless")
	p.Send(protocol.Move("e2e4"))
	s.expectError(p, "You have no active game.")
}

func (s *ChessSuite) TestMoveWhileWaitingForOpponent() {
	p := s.login("waiter")
	p.Send(protocol.Play())
	s.expectLog(p, "You're in a game now!")

	p.Send(protocol.Move("e2e4"))
	s.expectError(p, "The game hasn't started yet.")
}

func (s *ChessSuite) TestCheckAnnouncedToBothPlayers() {
	pw, pb := s.match("chkwhite", "chkblack")

	for _, mv := range []struct {
		p    *testutil.Peer
		move string
	}{
		{pw, "e2e4"}, {pb, "e7e6"}, {pw, "d2d4"},
	} {
		mv.p.Send(protocol.Move(mv.move))
		pw.RecvKind(protocol.KindBoard)
		pb.RecvKind(protocol.KindBoard)
		next := pw
		if mv.p == pw {
			next = pb
		}
		next.RecvKind(protocol.KindLog) // turn notice
	}

	// Bb4 puts the white king in check: the side in check gets its turn
	// notice and both players hear about the check.
	pb.Send(protocol.Move("f8b4"))
	pw.RecvKind(protocol.KindBoard)
	pb.RecvKind(protocol.KindBoard)
	s.expectLog(pw, "Your turn, white player chkwhite!")
	s.expectLog(pw, "Check!")
	s.expectLog(pb, "Check!")
}

func (s *ChessSuite) TestGameToCheckmate() {
	pw, pb := s.match("matewhite", "mateblack")

	for _, mv := range []struct {
		p    *testutil.Peer
		move string
	}{
		{pw, "f2f3"}, {pb, "e7e5"}, {pw, "g2g4"},
	} {
		mv.p.Send(protocol.Move(mv.move))
		pw.RecvKind(protocol.KindBoard)
		pb.RecvKind(protocol.KindBoard)
		next := pw
		if mv.p == pw {
			next = pb
		}
		next.RecvKind(protocol.KindLog) // turn notice
	}

	// Qh4 is mate: final position, check notice, then the result.
	pb.Send(protocol.Move("d8h4"))
	for _, p := range []*testutil.Peer{pw, pb} {
		p.RecvKind(protocol.KindBoard)
		s.expectLog(p, "Check!")
		s.expectLog(p, "Game finished: BlackWinsMate")
	}

	// Finished players can queue again.
	pw.Send(protocol.Play())
	s.expectLog(pw, "You're in a game now!")

	// Moving in the dead game is refused.
	pb.Send(protocol.Move("e5e4"))
	s.expectError(pb, "You have no active game.")
}

func (s *ChessSuite) TestConcedeEndsGame() {
	pw, pb := s.match("conwhite", "conblack")

	pw.Send(protocol.Concede())
	pw.RecvKind(protocol.KindBoard)
	s.expectLog(pw, "Game finished: WhiteResigns")
	pb.RecvKind(protocol.KindBoard)
	s.expectLog(pb, "Game finished: WhiteResigns")

	pw.Send(protocol.Concede())
	s.expectError(pw, "You have no active game.")
}

func (s *ChessSuite) TestDisconnectForfeitsGame() {
	pw, pb := s.match("dscwhite", "dscblack")

	pw.Close()

	pb.RecvKind(protocol.KindBoard)
	s.expectLog(pb, "Game finished: WhiteResigns")

	// The survivor is free for a new game.
	pb.Send(protocol.Play())
	s.expectLog(pb, "You're in a game now!")
}
