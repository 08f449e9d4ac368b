package getmyid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	cfg, err := NewBuilder().Config()
	require.NoError(t, err)
	assert.Equal(t, "/var/run/whoami.sock", cfg.SocketPath())
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, ProtocolAuto, cfg.Protocol())
	assert.Equal(t, EncodingJSON, cfg.Encoding())
}

func TestBuilderBranchesWithoutSharing(t *testing.T) {
	base := NewBuilder().Timeout(time.Second)
	a := base.SocketPath("/tmp/a.sock")
	b := base.SocketPath("unix:///tmp/b.sock")

	ca, err := a.Config()
	require.NoError(t, err)
	cb, err := b.Config()
	require.NoError(t, err)
	cbase, err := base.Config()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/a.sock", ca.SocketPath())
	assert.Equal(t, "/tmp/b.sock", cb.SocketPath())
	assert.Equal(t, DefaultSocketPath, cbase.SocketPath())
	assert.Equal(t, time.Second, ca.Timeout())
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	_, err := NewBuilder().SocketPath("").Timeout(0).Protocol(Protocol(9)).Encoding("xml").Build()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "socket path is empty")
	assert.Contains(t, err.Error(), "timeout must be > 0")
	assert.Contains(t, err.Error(), "unknown protocol")
	assert.Contains(t, err.Error(), "unknown encoding")

	_, err = NewBuilder().Timeout(-time.Second).BuildAsync()
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseProtocol(t *testing.T) {
	for in, want := range map[string]Protocol{"": ProtocolAuto, "auto": ProtocolAuto, "Flat": ProtocolFlat, " nested ": ProtocolNested} {
		got, err := ParseProtocol(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseProtocol("v3")
	require.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	assert.Equal(t, DefaultSocketPath, NewClient().Config().SocketPath())
	assert.Equal(t, DefaultTimeout, NewAsyncClient().Config().Timeout())
}
