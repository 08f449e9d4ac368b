// Package getmyid retrieves the identity of the calling process from the
// local whoami daemon over a Unix domain socket.
//
// Every call opens a fresh connection, sends one request, reads one reply
// and closes the connection. Client blocks the calling goroutine; AsyncClient
// runs the exchange in the background and can be cancelled through its
// context. Both decode replies the same way.
//
//	client, err := getmyid.NewBuilder().
//		SocketPath("/var/run/whoami.sock").
//		Timeout(2 * time.Second).
//		Build()
//	if err != nil {
//		return err
//	}
//	req := getmyid.NewRunnerRequest().WithInstanceID(7).WithCurrentTimestamp()
//	id, err := client.GetIdentityWithRunner(&req)
//	if errors.Is(err, getmyid.ErrTimeout) {
//		// the daemon did not answer in time
//	}
package getmyid
