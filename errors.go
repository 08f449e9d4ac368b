package getmyid

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by errors.Is against any *Error.
var (
	ErrConnection = errors.New("getmyid: connection error")
	ErrTimeout    = errors.New("getmyid: timeout")
	ErrProtocol   = errors.New("getmyid: protocol error")
	ErrEncoding   = errors.New("getmyid: encoding error")
	ErrCanceled   = errors.New("getmyid: canceled")
)

// Kind classifies a failed call.
type Kind int

const (
	// KindConnection: the socket could not be opened, or failed mid-exchange.
	KindConnection Kind = iota + 1
	// KindTimeout: the exchange deadline elapsed.
	KindTimeout
	// KindProtocol: the reply is truncated, malformed or of the wrong shape.
	KindProtocol
	// KindEncoding: the request could not be serialized.
	KindEncoding
	// KindCanceled: the caller's context was cancelled (AsyncClient only).
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindProtocol:
		return "protocol"
	case KindEncoding:
		return "encoding"
	case KindCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindConnection:
		return ErrConnection
	case KindTimeout:
		return ErrTimeout
	case KindProtocol:
		return ErrProtocol
	case KindEncoding:
		return ErrEncoding
	case KindCanceled:
		return ErrCanceled
	default:
		return nil
	}
}

// State is the step of a call. A failed call reports the step it failed in.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateSending
	StateAwaitingReply
	StateDecoding
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateSending:
		return "sending"
	case StateAwaitingReply:
		return "awaiting reply"
	case StateDecoding:
		return "decoding"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Error is returned by every failed retrieval.
type Error struct {
	Kind  Kind
	State State
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("getmyid: %s error while %s", e.Kind, e.State)
	}
	return fmt.Sprintf("getmyid: %s error while %s: %v", e.Kind, e.State, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
