package ipc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Call is one request received by a Server.
type Call struct {
	Peer    PeerCred
	Payload []byte
}

// Reply is what a Handler sends back. Raw replies are written without a
// frame header, which lets tests emit broken streams.
type Reply struct {
	Payload []byte
	Raw     bool
}

// Handler answers a call. A nil reply closes the connection without writing.
// ctx is cancelled if the peer disconnects while the handler runs.
type Handler func(ctx context.Context, call *Call) *Reply

// PeerCred holds the kernel-reported credentials of the connected process.
type PeerCred struct {
	PID int32
	UID uint32
	GID uint32
}

var peerCredentialsFn = peerCredentials

const requestReadTimeout = 5 * time.Second

// Server is the daemon side of the protocol: it accepts connections on a
// Unix socket and answers exactly one framed request per connection.
type Server struct {
	socketPath string
	handler    Handler
	logger     *slog.Logger
	listener   net.Listener
	wg         sync.WaitGroup

	active   atomic.Int64
	accepted atomic.Int64
}

// NewServer creates a new daemon-side server. A nil logger discards output.
func NewServer(socketPath string, handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		socketPath: socketPath,
		handler:    handler,
		logger:     logger,
	}
}

// Start begins listening for connections. It removes any stale socket file first.
func (s *Server) Start() error {
	// Remove stale socket
	os.Remove(s.socketPath)

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		ln.Close()
		os.Remove(s.socketPath)
		return fmt.Errorf("setting socket permissions: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()
	return nil
}

// Stop closes the listener and waits for in-flight connections.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// ActiveConns returns the number of connections not yet closed by the server.
func (s *Server) ActiveConns() int64 {
	return s.active.Load()
}

// AcceptedConns returns the number of connections accepted since Start.
func (s *Server) AcceptedConns() int64 {
	return s.accepted.Load()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // listener closed
		}
		s.accepted.Add(1)
		s.active.Add(1)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.active.Add(-1)
			defer conn.Close()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	peer, err := peerCredentialsFn(conn)
	if err != nil {
		s.logger.Warn("peer credential lookup failed", "error", err)
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))
	payload, err := ReadFrame(conn)
	if err != nil {
		s.logger.Warn("invalid request frame", "pid", peer.PID, "error", err)
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The client sends nothing after its request, so any read result means
	// it went away (or the deadline below fired after the handler returned).
	done := make(chan struct{})
	go func() {
		defer close(done)
		var buf [1]byte
		conn.Read(buf[:]) //nolint:errcheck
		cancel()
	}()

	reply := s.handler(ctx, &Call{Peer: peer, Payload: payload})
	_ = conn.SetReadDeadline(time.Now())
	<-done
	_ = conn.SetReadDeadline(time.Time{})

	if reply == nil {
		return
	}
	if reply.Raw {
		_, err = conn.Write(reply.Payload)
	} else {
		err = WriteFrame(conn, reply.Payload)
	}
	if err != nil {
		s.logger.Debug("writing reply failed", "pid", peer.PID, "error", err)
	}
}
