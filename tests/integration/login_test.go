package integration

import (
	"errors"
	"io"

	"github.com/udisondev/chessd/internal/protocol"
)

func (s *ChessSuite) TestLoginRegistersNewUser() {
	p := s.dial()
	p.Send(protocol.LogIn("newbie"))
	s.expectLog(p,
		"Registered a new user. Welcome, newbie! Hope you are going to enjoy our chess server. Use /play to start your first game!")
}

func (s *ChessSuite) TestLoginRecognizesReturningUser() {
	p := s.dial()
	p.Send(protocol.LogIn("regular"))
	p.RecvKind(protocol.KindLog)
	p.Close()

	p = s.dial()
	p.Send(protocol.LogIn("regular"))
	s.expectLog(p, "Authenticated successfully. Welcome back, regular.")
}

func (s *ChessSuite) TestLoginRejectsInvalidUsername() {
	p := s.dial()
	p.Send(protocol.LogIn("bad\nname"))
	s.expectError(p, "Invalid username.")

	// The connection survives and can log in properly.
	p.LogInAs("goodname")
}

func (s *ChessSuite) TestLoginSupersedesOldConnection() {
	first := s.login("hopper")
	second := s.login("hopper")

	s.expectLog(first, "You have been superseded by a new login")
	_, err := first.TryRecv()
	s.Require().True(errors.Is(err, io.EOF), "old connection should be closed, got %v", err)

	// The new connection owns the session.
	second.Send(protocol.Stats())
	s.expectLog(second, "Stats not yet available")
}

func (s *ChessSuite) TestAnonymousCommandsRejected() {
	p := s.dial()

	p.Send(protocol.Play())
	s.expectError(p, "Anonymous users cannot play; use /log in")

	p.Send(protocol.Move("e2e4"))
	s.expectError(p, "Anonymous users cannot move; use /log in")

	p.Send(protocol.Text("hello?"))
	s.expectError(p, "Anonymous users cannot chat; use /log in")

	p.Send(protocol.Concede())
	s.expectError(p, "Anonymous users cannot concede; use /log in")
}

func (s *ChessSuite) TestFarewellOnProtocolViolation() {
	p := s.login("rulebreaker")

	// Clients never send Board frames; the server says goodbye and drops.
	p.Send(protocol.Board("spoofed"))
	s.expectLog(p, "You have been disconnected. Bye!")

	_, err := p.TryRecv()
	s.Require().True(errors.Is(err, io.EOF), "connection should be closed, got %v", err)
}
