//go:build linux

package ipc

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

func peerCredentials(conn net.Conn) (PeerCred, error) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return PeerCred{}, fmt.Errorf("connection is not unix")
	}

	raw, err := unixConn.SyscallConn()
	if err != nil {
		return PeerCred{}, err
	}

	var cred PeerCred
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		ucred, err := unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
		if err != nil {
			sockErr = err
			return
		}
		cred = PeerCred{PID: ucred.Pid, UID: ucred.Uid, GID: ucred.Gid}
	}); err != nil {
		return PeerCred{}, err
	}
	if sockErr != nil {
		return PeerCred{}, sockErr
	}
	return cred, nil
}
