package getmyid

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lydakis/getmyid/internal/ipc"
	"github.com/lydakis/getmyid/internal/wire"
)

// The helpers below are shared by Client and AsyncClient; only the transport
// call between encodeRequest and decodeReply differs.

func encodeRequest(cfg Config, codec wire.Codec, req *RunnerRequest) ([]byte, error) {
	if req == nil || req.IsEmpty() {
		return nil, nil
	}
	if cfg.protocol == ProtocolFlat {
		return nil, &Error{
			Kind:  KindEncoding,
			State: StateIdle,
			Err:   errors.New("runner context cannot be sent with the flat protocol"),
		}
	}
	data, err := wire.EncodeRequest(codec, req.toWire())
	if err != nil {
		return nil, &Error{Kind: KindEncoding, State: StateIdle, Err: err}
	}
	if len(data) > ipc.MaxFrameSize {
		return nil, &Error{Kind: KindEncoding, State: StateIdle, Err: ipc.ErrFrameTooLarge}
	}
	return data, nil
}

func decodeReply(cfg Config, codec wire.Codec, data []byte) (*Identity, error) {
	resp, err := wire.DecodeResponse(codec, data)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, State: StateDecoding, Err: err}
	}

	shape := resp.Shape()
	switch {
	case cfg.protocol == ProtocolFlat && shape == wire.ShapeNested:
		return nil, &Error{Kind: KindProtocol, State: StateDecoding, Err: errors.New("nested reply from a daemon configured as flat")}
	case cfg.protocol == ProtocolNested && shape == wire.ShapeFlat:
		return nil, &Error{Kind: KindProtocol, State: StateDecoding, Err: errors.New("flat reply from a daemon configured as nested")}
	}
	return identityFromWire(resp), nil
}

func transportError(err error) *Error {
	state := StateConnecting
	var pe *ipc.PhaseError
	if errors.As(err, &pe) {
		switch pe.Phase {
		case ipc.PhaseSending:
			state = StateSending
		case ipc.PhaseAwaitingReply:
			state = StateAwaitingReply
		}
	}

	kind := KindConnection
	switch {
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	case ipc.IsTimeout(err):
		kind = KindTimeout
	case errors.Is(err, ipc.ErrTruncatedFrame):
		kind = KindProtocol
	case errors.Is(err, ipc.ErrFrameTooLarge):
		kind = KindProtocol
		if state == StateSending {
			kind = KindEncoding
		}
	}
	return &Error{Kind: kind, State: state, Err: err}
}

type exchangeLog struct {
	logger *slog.Logger
	start  time.Time
}

func startExchange(cfg Config, req *RunnerRequest, async bool) exchangeLog {
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("exchange_id", uuid.NewString(), "socket", cfg.socketPath)
	logger.Debug("identity exchange started",
		"async", async,
		"protocol", cfg.protocol.String(),
		"encoding", string(cfg.encoding),
		"runner_context", req != nil && !req.IsEmpty(),
	)
	return exchangeLog{logger: logger, start: time.Now()}
}

func (l exchangeLog) finish(id *Identity, err error) {
	elapsed := time.Since(l.start)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			l.logger.Debug("identity exchange failed",
				"kind", e.Kind.String(),
				"state", e.State.String(),
				"error", e.Err,
				"elapsed", elapsed,
			)
			return
		}
		l.logger.Debug("identity exchange failed", "error", err, "elapsed", elapsed)
		return
	}
	l.logger.Debug("identity exchange succeeded",
		"identity", id.Identity,
		"nested", id.HasRunner(),
		"elapsed", elapsed,
	)
}
