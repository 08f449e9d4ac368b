package ipc

import (
	"context"
	"errors"
	"net"
)

// ExchangeContext performs one request/response round trip bound to ctx.
// The connection is closed as soon as ctx is done, whichever of connect,
// write or read is in progress, and the returned error then wraps ctx.Err().
func ExchangeContext(ctx context.Context, socketPath string, payload []byte) ([]byte, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseConnecting, Err: contextCause(ctx, err)}
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.Close() //nolint:errcheck
	})
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, &PhaseError{Phase: PhaseConnecting, Err: contextCause(ctx, err)}
		}
	}

	reply, err := roundTrip(conn, payload)
	if err != nil {
		var pe *PhaseError
		if errors.As(err, &pe) {
			pe.Err = contextCause(ctx, pe.Err)
		}
		return nil, err
	}
	return reply, nil
}

// contextCause prefers the context error once ctx is done, since closing the
// connection from AfterFunc surfaces as a generic closed-connection error.
func contextCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return errors.Join(ctxErr, err)
	}
	return err
}
