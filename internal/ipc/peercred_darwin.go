//go:build darwin

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
		xucred, err := unix.GetsockoptXucred(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERCRED)
		if err != nil {
			sockErr = err
			return
		}
		pid, err := unix.GetsockoptInt(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERPID)
		if err != nil {
			sockErr = err
			return
		}
		cred = PeerCred{PID: int32(pid), UID: xucred.Uid}
		if xucred.Ngroups > 0 {
			cred.GID = xucred.Groups[0]
		}
	}); err != nil {
		return PeerCred{}, err
	}
	if sockErr != nil {
		return PeerCred{}, sockErr
	}
	return cred, nil
}
