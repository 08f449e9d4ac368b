// Package whoamitest runs an in-process whoami daemon on a temporary Unix
// socket for tests. The daemon answers with the caller's kernel-reported
// pid/uid/gid and echoes runner context back in a nested reply.
package whoamitest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lydakis/getmyid/internal/ipc"
	"github.com/lydakis/getmyid/internal/wire"
)

// Responder builds the reply for a decoded request. req is nil when the
// client sent no runner context.
type Responder func(req *wire.Request, peer ipc.PeerCred) *wire.Response

// Daemon is a running test daemon.
type Daemon struct {
	srv       *ipc.Server
	codec     wire.Codec
	responder Responder
	delay     time.Duration
	hold      bool
	raw       []byte
	logger    *slog.Logger

	mu       sync.Mutex
	requests []*wire.Request
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithResponder replaces the default echo responder.
func WithResponder(r Responder) Option {
	return func(d *Daemon) { d.responder = r }
}

// WithResponse makes the daemon answer every request with resp.
func WithResponse(resp wire.Response) Option {
	return WithResponder(func(*wire.Request, ipc.PeerCred) *wire.Response {
		out := resp
		return &out
	})
}

// WithCodec sets the payload encoding the daemon speaks.
func WithCodec(c wire.Codec) Option {
	return func(d *Daemon) { d.codec = c }
}

// WithDelay delays every reply by delay, or until the client goes away.
func WithDelay(delay time.Duration) Option {
	return func(d *Daemon) { d.delay = delay }
}

// WithHold never replies; the handler returns once the client disconnects.
func WithHold() Option {
	return func(d *Daemon) { d.hold = true }
}

// WithRawReply writes b verbatim instead of a framed reply.
func WithRawReply(b []byte) Option {
	return func(d *Daemon) { d.raw = b }
}

// WithLogger routes daemon logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(d *Daemon) { d.logger = l }
}

// Start launches a daemon and stops it when the test ends.
func Start(t testing.TB, opts ...Option) *Daemon {
	t.Helper()

	d := &Daemon{
		codec:     wire.JSON,
		responder: EchoResponder(DefaultIdentity()),
	}
	for _, opt := range opts {
		opt(d)
	}

	// t.TempDir paths can exceed the sun_path limit on macOS.
	dir, err := os.MkdirTemp("", "whoami")
	if err != nil {
		t.Fatalf("creating socket dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	d.srv = ipc.NewServer(filepath.Join(dir, "whoami.sock"), d.handle, d.logger)
	if err := d.srv.Start(); err != nil {
		t.Fatalf("starting daemon: %v", err)
	}
	t.Cleanup(d.srv.Stop)
	return d
}

// SocketPath returns the daemon's socket path.
func (d *Daemon) SocketPath() string {
	return d.srv.SocketPath()
}

// OpenConns returns the number of connections the daemon still holds open.
func (d *Daemon) OpenConns() int64 {
	return d.srv.ActiveConns()
}

// AcceptedConns returns the number of connections accepted so far.
func (d *Daemon) AcceptedConns() int64 {
	return d.srv.AcceptedConns()
}

// Requests returns the decoded requests received so far, in arrival order.
func (d *Daemon) Requests() []*wire.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*wire.Request(nil), d.requests...)
}

func (d *Daemon) handle(ctx context.Context, call *ipc.Call) *ipc.Reply {
	req, err := wire.DecodeRequest(d.codec, call.Payload)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("rejecting request", "error", err)
		}
		return nil
	}
	d.mu.Lock()
	d.requests = append(d.requests, req)
	d.mu.Unlock()

	if d.hold {
		<-ctx.Done()
		return nil
	}
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return nil
		}
	}
	if d.raw != nil {
		return &ipc.Reply{Payload: d.raw, Raw: true}
	}

	data, err := wire.EncodeResponse(d.codec, d.responder(req, call.Peer))
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("encoding reply", "error", err)
		}
		return nil
	}
	return &ipc.Reply{Payload: data}
}

// DefaultIdentity is the identity part used by EchoResponder in Start.
func DefaultIdentity() wire.Response {
	return wire.Response{
		Identity:  "svc-test",
		IDMURL:    "https://idm.test",
		ConfigURL: "https://config.test",
		Token:     "token-test",
	}
}

// EchoResponder answers like a runner-context daemon: a flat reply when no
// context was sent, otherwise a nested reply echoing the request fields.
// Process credentials come from the socket peer.
func EchoResponder(base wire.Response) Responder {
	hostname, _ := os.Hostname()
	process := filepath.Base(os.Args[0])
	return func(req *wire.Request, peer ipc.PeerCred) *wire.Response {
		resp := base
		resp.Runner = nil
		pid := uint32(peer.PID)
		if req == nil {
			resp.Process = process
			resp.PID = wire.Uint32(pid)
			resp.UID = wire.Uint32(peer.UID)
			resp.GID = wire.Uint32(peer.GID)
			return &resp
		}
		resp.Process = ""
		resp.PID, resp.UID, resp.GID = nil, nil, nil
		resp.Runner = &wire.Runner{
			Hostname:   hostname,
			Process:    process,
			PID:        wire.Uint32(pid),
			UID:        wire.Uint32(peer.UID),
			GID:        wire.Uint32(peer.GID),
			InstanceID: req.InstanceID,
			Timestamp:  req.Timestamp,
		}
		return &resp
	}
}
