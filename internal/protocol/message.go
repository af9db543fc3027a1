package protocol

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Kind identifies the Message variant.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindCommand
	KindMove
	KindText
	KindBoard
	KindError
	KindLog
)

// Wire names of the Message variants. A message is encoded as a one-pair
// CBOR map {<variant name>: <payload>}, matching the externally tagged enum
// layout of the original wire format.
const (
	keyCommand = "Command"
	keyMove    = "Move"
	keyText    = "Text"
	keyBoard   = "Board"
	keyError   = "Error"
	keyLog     = "Log"
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return keyCommand
	case KindMove:
		return keyMove
	case KindText:
		return keyText
	case KindBoard:
		return keyBoard
	case KindError:
		return keyError
	case KindLog:
		return keyLog
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// CmdKind identifies the Command variant nested in a KindCommand message.
type CmdKind uint8

const (
	CmdInvalid CmdKind = iota
	CmdLogIn
	CmdPlay
	CmdConcede
	CmdStats
)

// Wire names of the Command variants. Unit commands encode as a bare CBOR
// text string; LogIn carries the username as {"LogIn": <name>}.
const (
	keyLogIn   = "LogIn"
	keyPlay    = "Play"
	keyConcede = "Concede"
	keyStats   = "Stats"
)

func (k CmdKind) String() string {
	switch k {
	case CmdLogIn:
		return keyLogIn
	case CmdPlay:
		return keyPlay
	case CmdConcede:
		return keyConcede
	case CmdStats:
		return keyStats
	default:
		return fmt.Sprintf("CmdKind(%d)", uint8(k))
	}
}

// Command is a technical client→server request nested in a Message.
type Command struct {
	Kind CmdKind
	Name string // username, set for CmdLogIn only
}

func (c Command) String() string {
	if c.Kind == CmdLogIn {
		return fmt.Sprintf("LogIn(%s)", c.Name)
	}
	return c.Kind.String()
}

// Message is the unit of the wire protocol: a tagged union of client
// commands, moves and chat going up, and board states, errors and log lines
// coming down. Body carries the string payload of every variant except
// KindCommand, which uses Cmd.
type Message struct {
	Kind Kind
	Cmd  Command // set for KindCommand only
	Body string
}

func (m Message) String() string {
	if m.Kind == KindCommand {
		return fmt.Sprintf("Command(%s)", m.Cmd)
	}
	return fmt.Sprintf("%s(%s)", m.Kind, m.Body)
}

// LogIn builds the login command message.
func LogIn(name string) Message {
	return Message{Kind: KindCommand, Cmd: Command{Kind: CmdLogIn, Name: name}}
}

// Play builds the matchmaking request message.
func Play() Message {
	return Message{Kind: KindCommand, Cmd: Command{Kind: CmdPlay}}
}

// Concede builds the concede command message.
func Concede() Message {
	return Message{Kind: KindCommand, Cmd: Command{Kind: CmdConcede}}
}

// Stats builds the statistics request message.
func Stats() Message {
	return Message{Kind: KindCommand, Cmd: Command{Kind: CmdStats}}
}

// Move builds a chess move message in algebraic notation, e.g. "e2e4".
func Move(notation string) Message {
	return Message{Kind: KindMove, Body: notation}
}

// Text builds a chat message relayed verbatim to the opponent.
func Text(s string) Message {
	return Message{Kind: KindText, Body: s}
}

// Board builds a server→client board state message carrying a FEN string.
func Board(fen string) Message {
	return Message{Kind: KindBoard, Body: fen}
}

// Error builds a user-visible server→client error message.
func Error(s string) Message {
	return Message{Kind: KindError, Body: s}
}

// Log builds a user-visible server→client informational message.
func Log(s string) Message {
	return Message{Kind: KindLog, Body: s}
}

// MarshalCBOR encodes the message in the externally tagged union form.
func (m Message) MarshalCBOR() ([]byte, error) {
	switch m.Kind {
	case KindCommand:
		inner, err := m.Cmd.encode()
		if err != nil {
			return nil, err
		}
		return cbor.Marshal(map[string]any{keyCommand: inner})
	case KindMove:
		return cbor.Marshal(map[string]string{keyMove: m.Body})
	case KindText:
		return cbor.Marshal(map[string]string{keyText: m.Body})
	case KindBoard:
		return cbor.Marshal(map[string]string{keyBoard: m.Body})
	case KindError:
		return cbor.Marshal(map[string]string{keyError: m.Body})
	case KindLog:
		return cbor.Marshal(map[string]string{keyLog: m.Body})
	default:
		return nil, fmt.Errorf("cannot encode message of kind %s", m.Kind)
	}
}

func (c Command) encode() (any, error) {
	switch c.Kind {
	case CmdLogIn:
		return map[string]string{keyLogIn: c.Name}, nil
	case CmdPlay:
		return keyPlay, nil
	case CmdConcede:
		return keyConcede, nil
	case CmdStats:
		return keyStats, nil
	default:
		return nil, fmt.Errorf("cannot encode command of kind %s", c.Kind)
	}
}

// UnmarshalCBOR decodes a message, rejecting unknown variants, wrong payload
// types and malformed envelopes.
func (m *Message) UnmarshalCBOR(data []byte) error {
	var envelope map[string]cbor.RawMessage
	if err := cbor.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decoding message envelope: %w", err)
	}
	if len(envelope) != 1 {
		return fmt.Errorf("message envelope holds %d variants, want exactly 1", len(envelope))
	}

	for key, raw := range envelope {
		switch key {
		case keyCommand:
			cmd, err := decodeCommand(raw)
			if err != nil {
				return err
			}
			*m = Message{Kind: KindCommand, Cmd: cmd}
		case keyMove, keyText, keyBoard, keyError, keyLog:
			var body string
			if err := cbor.Unmarshal(raw, &body); err != nil {
				return fmt.Errorf("decoding %s payload: %w", key, err)
			}
			*m = Message{Kind: kindByKey(key), Body: body}
		default:
			return fmt.Errorf("unknown message variant %q", key)
		}
	}
	return nil
}

func kindByKey(key string) Kind {
	switch key {
	case keyCommand:
		return KindCommand
	case keyMove:
		return KindMove
	case keyText:
		return KindText
	case keyBoard:
		return KindBoard
	case keyError:
		return KindError
	case keyLog:
		return KindLog
	default:
		return KindInvalid
	}
}

func decodeCommand(raw cbor.RawMessage) (Command, error) {
	// Unit commands are bare text strings.
	var unit string
	if err := cbor.Unmarshal(raw, &unit); err == nil {
		switch unit {
		case keyPlay:
			return Command{Kind: CmdPlay}, nil
		case keyConcede:
			return Command{Kind: CmdConcede}, nil
		case keyStats:
			return Command{Kind: CmdStats}, nil
		default:
			return Command{}, fmt.Errorf("unknown command variant %q", unit)
		}
	}

	var tagged map[string]string
	if err := cbor.Unmarshal(raw, &tagged); err != nil {
		return Command{}, fmt.Errorf("decoding command payload: %w", err)
	}
	if len(tagged) != 1 {
		return Command{}, fmt.Errorf("command envelope holds %d variants, want exactly 1", len(tagged))
	}
	for key, name := range tagged {
		if key == keyLogIn {
			return Command{Kind: CmdLogIn, Name: name}, nil
		}
		return Command{}, fmt.Errorf("unknown command variant %q", key)
	}
	return Command{}, fmt.Errorf("empty command envelope")
}
