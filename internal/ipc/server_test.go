package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func socketPath(t *testing.T) string {
	t.Helper()
	// t.TempDir paths can exceed the sun_path limit on macOS.
	dir, err := os.MkdirTemp("", "ipc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "d.sock")
}

func stubPeerCredentials(t *testing.T) {
	t.Helper()
	restore := peerCredentialsFn
	peerCredentialsFn = func(net.Conn) (PeerCred, error) { return PeerCred{PID: 42, UID: 1000, GID: 1000}, nil }
	t.Cleanup(func() { peerCredentialsFn = restore })
}

func TestHandleConnCancelsContextWhenClientDisconnects(t *testing.T) {
	stubPeerCredentials(t)

	started := make(chan struct{})
	canceled := make(chan struct{})

	s := NewServer("", func(ctx context.Context, call *Call) *Reply {
		close(started)
		<-ctx.Done()
		close(canceled)
		return &Reply{}
	}, nil)

	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()

	go s.handleConn(serverConn)

	require.NoError(t, WriteFrame(clientConn, []byte(`{}`)))

	select {
	case <-started:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("handler did not start")
	}

	require.NoError(t, clientConn.Close())

	select {
	case <-canceled:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("handler context was not canceled after client disconnect")
	}
}

func TestHandleConnPassesPeerAndPayload(t *testing.T) {
	stubPeerCredentials(t)

	calls := make(chan *Call, 1)
	s := NewServer("", func(ctx context.Context, call *Call) *Reply {
		calls <- call
		return &Reply{Payload: []byte("pong")}
	}, nil)

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	go func() {
		defer serverConn.Close()
		s.handleConn(serverConn)
	}()

	require.NoError(t, WriteFrame(clientConn, []byte("ping")))
	reply, err := ReadFrame(clientConn)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(reply))

	call := <-calls
	assert.Equal(t, "ping", string(call.Payload))
	assert.Equal(t, PeerCred{PID: 42, UID: 1000, GID: 1000}, call.Peer)
}

func TestStartSetsSocketMode0600(t *testing.T) {
	path := socketPath(t)
	s := NewServer(path, func(ctx context.Context, call *Call) *Reply {
		return &Reply{}
	}, nil)

	require.NoError(t, s.Start())
	defer s.Stop()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStopRemovesSocketAndTracksConnections(t *testing.T) {
	stubPeerCredentials(t)

	path := socketPath(t)
	s := NewServer(path, func(ctx context.Context, call *Call) *Reply {
		return &Reply{Payload: call.Payload}
	}, nil)
	require.NoError(t, s.Start())

	reply, err := Exchange(path, time.Second, []byte("echo"))
	require.NoError(t, err)
	assert.Equal(t, "echo", string(reply))

	require.Eventually(t, func() bool { return s.ActiveConns() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), s.AcceptedConns())

	s.Stop()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
