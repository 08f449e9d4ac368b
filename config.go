package getmyid

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lydakis/getmyid/internal/wire"
)

// Defaults used by NewBuilder.
const (
	DefaultSocketPath = "/var/run/whoami.sock"
	DefaultTimeout    = 5 * time.Second
)

// ErrInvalidConfig is wrapped by Build and BuildAsync when the configuration
// cannot produce a working client.
var ErrInvalidConfig = errors.New("getmyid: invalid configuration")

// Protocol selects which reply shapes a client accepts.
type Protocol int

const (
	// ProtocolAuto accepts flat and nested replies.
	ProtocolAuto Protocol = iota
	// ProtocolFlat talks to identity-only daemons: runner context cannot be
	// sent and nested replies are rejected.
	ProtocolFlat
	// ProtocolNested requires replies carrying a runner record.
	ProtocolNested
)

func (p Protocol) String() string {
	switch p {
	case ProtocolAuto:
		return "auto"
	case ProtocolFlat:
		return "flat"
	case ProtocolNested:
		return "nested"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// ParseProtocol maps "auto", "flat" and "nested" to a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ProtocolAuto, nil
	case "flat":
		return ProtocolFlat, nil
	case "nested":
		return ProtocolNested, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q (want auto, flat or nested)", s)
	}
}

// Encoding is the payload encoding spoken on the socket.
type Encoding string

const (
	EncodingJSON    Encoding = wire.NameJSON
	EncodingMsgPack Encoding = wire.NameMsgPack
)

// Config is the read-only configuration shared by every call of a client.
type Config struct {
	socketPath string
	timeout    time.Duration
	protocol   Protocol
	encoding   Encoding
	logger     *slog.Logger
}

func (c Config) SocketPath() string     { return c.socketPath }
func (c Config) Timeout() time.Duration { return c.timeout }
func (c Config) Protocol() Protocol     { return c.protocol }
func (c Config) Encoding() Encoding     { return c.encoding }

// Builder assembles a Config. Every method returns a new Builder and leaves
// the receiver untouched, so a Builder can be shared and branched freely.
type Builder struct {
	cfg Config
}

// NewBuilder returns a Builder holding the defaults.
func NewBuilder() Builder {
	return Builder{cfg: Config{
		socketPath: DefaultSocketPath,
		timeout:    DefaultTimeout,
		protocol:   ProtocolAuto,
		encoding:   EncodingJSON,
	}}
}

// SocketPath sets the daemon socket. A unix:// prefix is accepted.
func (b Builder) SocketPath(path string) Builder {
	b.cfg.socketPath = strings.TrimPrefix(path, "unix://")
	return b
}

// Timeout sets the deadline for a whole exchange (connect, send, receive).
func (b Builder) Timeout(d time.Duration) Builder {
	b.cfg.timeout = d
	return b
}

func (b Builder) Protocol(p Protocol) Builder {
	b.cfg.protocol = p
	return b
}

func (b Builder) Encoding(e Encoding) Builder {
	b.cfg.encoding = e
	return b
}

// Logger sets the logger used for per-exchange debug records.
func (b Builder) Logger(l *slog.Logger) Builder {
	b.cfg.logger = l
	return b
}

// Config validates the accumulated settings and returns them.
func (b Builder) Config() (Config, error) {
	cfg := b.cfg
	var errs []error
	if strings.TrimSpace(cfg.socketPath) == "" {
		errs = append(errs, errors.New("socket path is empty"))
	}
	if cfg.timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be > 0, got %s", cfg.timeout))
	}
	if cfg.protocol < ProtocolAuto || cfg.protocol > ProtocolNested {
		errs = append(errs, fmt.Errorf("unknown protocol %s", cfg.protocol))
	}
	if _, err := wire.CodecByName(string(cfg.encoding)); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if cfg.encoding == "" {
		cfg.encoding = EncodingJSON
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return cfg, nil
}

// Build returns a blocking client.
func (b Builder) Build() (*Client, error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, codec: codecFor(cfg)}, nil
}

// BuildAsync returns a non-blocking client.
func (b Builder) BuildAsync() (*AsyncClient, error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return &AsyncClient{cfg: cfg, codec: codecFor(cfg)}, nil
}

func codecFor(cfg Config) wire.Codec {
	c, _ := wire.CodecByName(string(cfg.encoding)) // validated in Config
	return c
}
