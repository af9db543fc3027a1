// Package client implements the terminal chess client: it dials the
// server, renders incoming messages and turns typed lines into protocol
// messages.
package client

import (
	"regexp"
	"strings"

	"github.com/udisondev/chessd/internal/protocol"
)

// helpText lists every slash command and input form the client accepts.
const helpText = "Available commands: \n" +
	"`/help` - see this message \n" +
	"`/log in %username%` - attempt to log in with your username (without percent symbols) \n" +
	"`/play` - start a chess game \n" +
	"`/stats` - view your statistics \n" +
	"`/concede` - give up on the game (your opponent wins) \n" +
	"`:` - start your message with a semicolon to send a chat message to your opponent\n" +
	"`e2e4` - send your chess move in long algebraic notation. `O-O` or `O-O-O` for castle."

const (
	logInUsage        = "Please log in with you username like this: /log in your_username."
	unknownCommand    = "Unrecognized command. Please use /help to see the list of available commands."
	invalidMoveNotice = "Please enter a valid chess move in algebraic notation, e.g. `e2e4`"
)

// Move shapes accepted locally before the server validates legality:
// long algebraic ("e2e4", optional promotion piece) and standard algebraic
// ("Nf3", "exd5", "e8=Q+", "O-O").
var (
	longMoveRe = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)
	sanMoveRe  = regexp.MustCompile(`^(?:[RNBQK]?[a-h1-8]?x?[a-h][1-8](?:=[RNBQ])?[+#]?|O-O(?:-O)?[+#]?)$`)
)

// Input is the classification of one typed line: either a message to send
// or a notice to print locally.
type Input struct {
	Msg   protocol.Message
	Send  bool
	Local string
}

func send(msg protocol.Message) Input {
	return Input{Msg: msg, Send: true}
}

func local(text string) Input {
	return Input{Local: text}
}

// Classify decides what one line of user input means. Slash commands and
// chat map directly; anything else must look like a chess move, which the
// server then validates for legality.
func Classify(line string) Input {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "/help") {
		return local(helpText)
	}

	if strings.HasPrefix(trimmed, "/") {
		switch {
		case strings.HasPrefix(trimmed, "/log"):
			parts := strings.Fields(trimmed)
			if len(parts) != 3 {
				return local(logInUsage)
			}
			return send(protocol.LogIn(parts[len(parts)-1]))
		case strings.HasPrefix(trimmed, "/play"):
			return send(protocol.Play())
		case strings.HasPrefix(trimmed, "/stat"):
			return send(protocol.Stats())
		case strings.HasPrefix(trimmed, "/concede"):
			return send(protocol.Concede())
		default:
			return local(unknownCommand)
		}
	}

	if rest, ok := strings.CutPrefix(trimmed, ":"); ok {
		return send(protocol.Text(rest))
	}

	if longMoveRe.MatchString(trimmed) || sanMoveRe.MatchString(trimmed) {
		return send(protocol.Move(trimmed))
	}

	return local(invalidMoveNotice)
}
