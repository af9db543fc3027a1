package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// MaxFrameSize bounds a single frame payload. Oversized frames are rejected
// before the payload buffer is allocated.
const MaxFrameSize = 10 << 20 // 10 MiB

const frameHeaderSize = 4

// ErrFrameTooLarge reports a frame whose declared length exceeds MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// ReadFrame reads one frame from r: a 4-byte big-endian payload length
// followed by that many bytes of CBOR, decoded into a Message.
// A stream ending cleanly between frames returns io.EOF unwrapped; an EOF
// mid-frame surfaces as a wrapped io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader) (Message, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return Message{}, io.EOF
		}
		return Message{}, fmt.Errorf("reading frame header: %w", err)
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return Message{}, fmt.Errorf("frame of %d bytes: %w", size, ErrFrameTooLarge)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Message{}, fmt.Errorf("reading frame payload: %w", err)
	}

	var msg Message
	if err := cbor.Unmarshal(payload, &msg); err != nil {
		return Message{}, fmt.Errorf("decoding frame: %w", err)
	}
	return msg, nil
}

// WriteFrame encodes msg and writes it as one length-prefixed frame.
// Header and payload go out in a single Write, so frames issued by a
// connection's writer are never interleaved on the stream.
func WriteFrame(w io.Writer, msg Message) error {
	payload, err := cbor.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("frame of %d bytes: %w", len(payload), ErrFrameTooLarge)
	}

	buf := make([]byte, frameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[:frameHeaderSize], uint32(len(payload)))
	copy(buf[frameHeaderSize:], payload)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}
