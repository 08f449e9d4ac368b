package getmyid

import (
	"github.com/lydakis/getmyid/internal/ipc"
	"github.com/lydakis/getmyid/internal/wire"
)

// Client retrieves identities with blocking calls. It holds only read-only
// configuration and is safe for concurrent use; each call owns its own
// connection. Create clients with NewClient or Builder.Build; the zero value
// has no socket path or codec.
type Client struct {
	cfg   Config
	codec wire.Codec
}

// NewClient returns a blocking client with the default configuration.
func NewClient() *Client {
	c, err := NewBuilder().Build()
	if err != nil {
		panic(err) // defaults are always valid
	}
	return c
}

// Config returns the client's configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// GetIdentity asks the daemon for the caller's identity without runner context.
func (c *Client) GetIdentity() (*Identity, error) {
	return c.GetIdentityWithRunner(nil)
}

// GetIdentityWithRunner asks the daemon for the caller's identity, attaching
// req as runner context. A nil or empty req sends no context. The call blocks for at
// most the configured timeout and makes exactly one round trip.
func (c *Client) GetIdentityWithRunner(req *RunnerRequest) (*Identity, error) {
	log := startExchange(c.cfg, req, false)
	id, err := c.exchange(req)
	log.finish(id, err)
	return id, err
}

func (c *Client) exchange(req *RunnerRequest) (*Identity, error) {
	payload, err := encodeRequest(c.cfg, c.codec, req)
	if err != nil {
		return nil, err
	}
	reply, err := ipc.Exchange(c.cfg.socketPath, c.cfg.timeout, payload)
	if err != nil {
		return nil, transportError(err)
	}
	return decodeReply(c.cfg, c.codec, reply)
}
