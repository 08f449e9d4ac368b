package getmyid

import (
	"context"

	"github.com/lydakis/getmyid/internal/ipc"
	"github.com/lydakis/getmyid/internal/wire"
)

// AsyncClient retrieves identities without blocking the caller. The request
// is encoded before the call returns; connect, send and receive run on a
// separate goroutine bound to the caller's context. Cancelling that context
// closes the connection.
type AsyncClient struct {
	cfg   Config
	codec wire.Codec
}

// NewAsyncClient returns a non-blocking client with the default configuration.
func NewAsyncClient() *AsyncClient {
	c, err := NewBuilder().BuildAsync()
	if err != nil {
		panic(err) // defaults are always valid
	}
	return c
}

// Config returns the client's configuration.
func (c *AsyncClient) Config() Config {
	return c.cfg
}

// GetIdentity starts a retrieval without runner context.
func (c *AsyncClient) GetIdentity(ctx context.Context) *Pending {
	return c.GetIdentityWithRunner(ctx, nil)
}

// GetIdentityWithRunner starts a retrieval attaching req as runner context.
// A nil or empty req sends no context.
//
// The returned Pending holds the only copy of the result, including any
// error. A caller that never calls Wait or Await loses it silently; the
// connection is still closed when the exchange ends or ctx is done.
func (c *AsyncClient) GetIdentityWithRunner(ctx context.Context, req *RunnerRequest) *Pending {
	p := &Pending{done: make(chan struct{})}
	log := startExchange(c.cfg, req, true)

	payload, err := encodeRequest(c.cfg, c.codec, req)
	if err != nil {
		log.finish(nil, err)
		p.resolve(nil, err)
		return p
	}

	go func() {
		id, err := c.exchange(ctx, payload)
		log.finish(id, err)
		p.resolve(id, err)
	}()
	return p
}

func (c *AsyncClient) exchange(ctx context.Context, payload []byte) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	reply, err := ipc.ExchangeContext(ctx, c.cfg.socketPath, payload)
	if err != nil {
		return nil, transportError(err)
	}
	return decodeReply(c.cfg, c.codec, reply)
}

// Pending is the result of an AsyncClient call. Callers who prefer a plain
// blocking call can run Client.GetIdentityWithRunner in their own goroutine.
type Pending struct {
	done chan struct{}
	id   *Identity
	err  error
}

func (p *Pending) resolve(id *Identity, err error) {
	p.id, p.err = id, err
	close(p.done)
}

// Done is closed once the call has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the call finishes and returns its result.
func (p *Pending) Wait() (*Identity, error) {
	<-p.done
	return p.id, p.err
}

// Await is Wait bounded by ctx. If ctx is done first it returns a
// KindCanceled error; the call itself keeps running under the context it
// was started with, and its result stays available through Wait.
func (p *Pending) Await(ctx context.Context) (*Identity, error) {
	select {
	case <-p.done:
		return p.id, p.err
	default:
	}
	select {
	case <-p.done:
		return p.id, p.err
	case <-ctx.Done():
		return nil, &Error{Kind: KindCanceled, State: StateAwaitingReply, Err: context.Cause(ctx)}
	}
}
