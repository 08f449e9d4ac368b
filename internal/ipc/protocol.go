package ipc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
)

// MaxFrameSize bounds a single payload in either direction.
const MaxFrameSize = 1 << 20

const frameHeaderSize = 4

var (
	// ErrTruncatedFrame reports a stream that ended inside a frame.
	ErrTruncatedFrame = errors.New("truncated frame")
	// ErrFrameTooLarge reports a frame header above MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame too large")
)

// Phase is the step of an exchange an error occurred in.
type Phase int

const (
	PhaseConnecting Phase = iota + 1
	PhaseSending
	PhaseAwaitingReply
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseSending:
		return "sending"
	case PhaseAwaitingReply:
		return "awaiting reply"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// PhaseError ties a transport failure to the phase it happened in.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	switch e.Phase {
	case PhaseConnecting:
		return fmt.Sprintf("connecting to daemon: %v", e.Err)
	case PhaseSending:
		return fmt.Sprintf("sending request: %v", e.Err)
	default:
		return fmt.Sprintf("reading response: %v", e.Err)
	}
}

func (e *PhaseError) Unwrap() error { return e.Err }

// IsTimeout reports whether err comes from an expired deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// WriteFrame writes payload behind its big-endian length.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	buf := make([]byte, frameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[frameHeaderSize:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one frame. A stream that ends before the header is
// complete returns io.EOF only when no header byte was read.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [frameHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: short header", ErrTruncatedFrame)
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: want %d bytes", ErrTruncatedFrame, n)
		}
		return nil, err
	}
	return payload, nil
}
