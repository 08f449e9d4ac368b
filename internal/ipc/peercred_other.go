//go:build !linux && !darwin

package ipc

import (
	"errors"
	"net"
)

func peerCredentials(conn net.Conn) (PeerCred, error) {
	return PeerCred{}, errors.New("peer credentials are not supported on this platform")
}
