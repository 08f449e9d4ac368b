package ipc

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// Exchange performs one blocking request/response round trip with the daemon
// listening on socketPath. A single deadline, computed before dialing, covers
// connect, write and read; the connection is closed before returning.
func Exchange(socketPath string, timeout time.Duration, payload []byte) ([]byte, error) {
	deadline := time.Now().Add(timeout)

	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseConnecting, Err: err}
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, &PhaseError{Phase: PhaseConnecting, Err: err}
	}
	return roundTrip(conn, payload)
}

func roundTrip(conn net.Conn, payload []byte) ([]byte, error) {
	if err := WriteFrame(conn, payload); err != nil {
		return nil, &PhaseError{Phase: PhaseSending, Err: err}
	}

	reply, err := ReadFrame(conn)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("%w: daemon closed the connection without replying", ErrTruncatedFrame)
		}
		return nil, &PhaseError{Phase: PhaseAwaitingReply, Err: err}
	}
	return reply, nil
}
