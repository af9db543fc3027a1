package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	sent := []Message{
		LogIn("carol"),
		Play(),
		Move("d2d4"),
		Text("hello there"),
		Board("8/8/8/8/8/8/8/8 w - - 0 1"),
	}
	for _, msg := range sent {
		if err := WriteFrame(&buf, msg); err != nil {
			t.Fatalf("write %v: %v", msg, err)
		}
	}

	for _, want := range sent {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("read, want %v: %v", want, err)
		}
		if got != want {
			t.Errorf("read %#v, want %#v", got, want)
		}
	}

	if _, err := ReadFrame(&buf); err != io.EOF {
		t.Errorf("read on drained stream returned %v, want io.EOF", err)
	}
}

func TestFrameLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Move("e2e4")); err != nil {
		t.Fatalf("write: %v", err)
	}

	data := buf.Bytes()
	if len(data) < frameHeaderSize {
		t.Fatalf("frame is %d bytes, shorter than its own header", len(data))
	}
	size := binary.BigEndian.Uint32(data[:frameHeaderSize])
	if int(size) != len(data)-frameHeaderSize {
		t.Errorf("header declares %d payload bytes, frame carries %d", size, len(data)-frameHeaderSize)
	}
}

func TestReadFrameTooLarge(t *testing.T) {
	// Header declaring an 11 MiB payload, no payload behind it. The size
	// check must fire before any payload read is attempted.
	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[:], 11<<20)

	_, err := ReadFrame(bytes.NewReader(header[:]))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("read returned %v, want ErrFrameTooLarge", err)
	}
}

func TestReadFrameAcceptsMaxSize(t *testing.T) {
	// A declared length of exactly MaxFrameSize passes the size check and
	// proceeds to the payload read.
	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[:], MaxFrameSize)

	_, err := ReadFrame(bytes.NewReader(header[:]))
	if errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("read of max-size frame rejected: %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("read returned %v, want io.ErrUnexpectedEOF for missing payload", err)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Text("truncate me")); err != nil {
		t.Fatalf("write: %v", err)
	}
	full := buf.Bytes()

	for _, cut := range []int{1, frameHeaderSize - 1, frameHeaderSize, len(full) - 1} {
		_, err := ReadFrame(bytes.NewReader(full[:cut]))
		if err == nil {
			t.Errorf("read of %d/%d bytes succeeded, want error", cut, len(full))
			continue
		}
		if err == io.EOF {
			t.Errorf("read of %d/%d bytes returned bare io.EOF, want mid-frame error", cut, len(full))
		}
	}
}

func TestReadFrameGarbagePayload(t *testing.T) {
	payload := []byte{0xff, 0xff, 0xff}
	var buf bytes.Buffer
	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	buf.Write(header[:])
	buf.Write(payload)

	if _, err := ReadFrame(&buf); err == nil {
		t.Error("read of garbage payload succeeded, want decode error")
	}
}

func TestWriteFrameRejectsUnencodable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Message{}); err == nil {
		t.Error("write of zero-value message succeeded, want error")
	}
	if buf.Len() != 0 {
		t.Errorf("failed write left %d bytes on the stream", buf.Len())
	}
}
