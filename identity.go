package getmyid

import "github.com/lydakis/getmyid/internal/wire"

// Identity is the daemon's answer for the calling process.
//
// Process, PID, UID and GID are set for both reply shapes; for a nested
// reply they mirror the runner record. Runner is nil for a flat reply.
type Identity struct {
	Identity  string
	IDMURL    string
	ConfigURL string
	Token     string

	Process string
	PID     uint32
	UID     uint32
	GID     uint32

	Runner *RunnerInfo
}

// RunnerInfo describes the runner the daemon resolved, echoing the runner
// context of the request. InstanceID and Timestamp are nil when absent.
type RunnerInfo struct {
	Hostname   string
	Process    string
	PID        uint32
	UID        uint32
	GID        uint32
	InstanceID *uint64
	Timestamp  *uint64
}

// HasRunner reports whether the reply was nested.
func (id *Identity) HasRunner() bool {
	return id != nil && id.Runner != nil
}

// identityFromWire normalizes a validated wire response.
func identityFromWire(resp *wire.Response) *Identity {
	id := &Identity{
		Identity:  resp.Identity,
		IDMURL:    resp.IDMURL,
		ConfigURL: resp.ConfigURL,
		Token:     resp.Token,
	}
	if r := resp.Runner; r != nil {
		id.Runner = &RunnerInfo{
			Hostname:   r.Hostname,
			Process:    r.Process,
			PID:        *r.PID,
			UID:        *r.UID,
			GID:        *r.GID,
			InstanceID: copyUint64(r.InstanceID),
			Timestamp:  copyUint64(r.Timestamp),
		}
		id.Process = r.Process
		id.PID, id.UID, id.GID = *r.PID, *r.UID, *r.GID
		return id
	}
	id.Process = resp.Process
	id.PID, id.UID, id.GID = *resp.PID, *resp.UID, *resp.GID
	return id
}

func copyUint64(p *uint64) *uint64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
