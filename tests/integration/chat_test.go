package integration

import (
	"github.com/udisondev/chessd/internal/protocol"
)

func (s *ChessSuite) TestChatRelaysBetweenPlayers() {
	pw, pb := s.match("chatwhite", "chatblack")

	pw.Send(protocol.Text("good luck!"))
	msg := pb.RecvKind(protocol.KindText)
	s.Require().Equal("good luck!", msg.Body)

	pb.Send(protocol.Text("you too"))
	msg = pw.RecvKind(protocol.KindText)
	s.Require().Equal("you too", msg.Body)
}

func (s *ChessSuite) TestChatRequiresOpponent() {
	p := s.login("loner")
	p.Send(protocol.Text("anyone there?"))
	s.expectError(p, "You have no opponent to chat with")

	// Waiting for an opponent is still alone.
	p.Send(protocol.Play())
	s.expectLog(p, "You're in a game now!")
	p.Send(protocol.Text("hello?"))
	s.expectError(p, "You have no opponent to chat with")
}

func (s *ChessSuite) TestChatSurvivesGameEnd() {
	pw, pb := s.match("gonewhite", "goneblack")

	pw.Send(protocol.Concede())
	pw.RecvKind(protocol.KindBoard)
	pw.RecvKind(protocol.KindLog)
	pb.RecvKind(protocol.KindBoard)
	pb.RecvKind(protocol.KindLog)

	// The game is gone, so there is nobody to relay to.
	pw.Send(protocol.Text("rematch?"))
	s.expectError(pw, "You have no opponent to chat with")
}
