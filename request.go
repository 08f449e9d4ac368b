package getmyid

import (
	"time"

	"github.com/lydakis/getmyid/internal/wire"
)

var nowFn = time.Now

// RunnerRequest is the optional runner context attached to an identity
// request. It is a value: the With methods return a modified copy.
type RunnerRequest struct {
	instanceID    uint64
	hasInstanceID bool
	timestamp     uint64
	hasTimestamp  bool
}

// NewRunnerRequest returns a request with no runner fields set.
func NewRunnerRequest() RunnerRequest {
	return RunnerRequest{}
}

// WithInstanceID returns a copy of r carrying id.
func (r RunnerRequest) WithInstanceID(id uint64) RunnerRequest {
	r.instanceID = id
	r.hasInstanceID = true
	return r
}

// WithCurrentTimestamp returns a copy of r stamped with the current time.
// The clock is read here, not when the request is sent.
func (r RunnerRequest) WithCurrentTimestamp() RunnerRequest {
	return r.WithTimestamp(nowFn())
}

// WithTimestamp returns a copy of r stamped with t, in seconds since epoch.
// Times before the epoch are clamped to zero.
func (r RunnerRequest) WithTimestamp(t time.Time) RunnerRequest {
	secs := t.Unix()
	if secs < 0 {
		secs = 0
	}
	r.timestamp = uint64(secs)
	r.hasTimestamp = true
	return r
}

func (r RunnerRequest) InstanceID() (uint64, bool) { return r.instanceID, r.hasInstanceID }
func (r RunnerRequest) Timestamp() (uint64, bool)  { return r.timestamp, r.hasTimestamp }

// IsEmpty reports whether no runner field is set.
func (r RunnerRequest) IsEmpty() bool {
	return !r.hasInstanceID && !r.hasTimestamp
}

func (r RunnerRequest) toWire() *wire.Request {
	req := &wire.Request{}
	if r.hasInstanceID {
		req.InstanceID = wire.Uint64(r.instanceID)
	}
	if r.hasTimestamp {
		req.Timestamp = wire.Uint64(r.timestamp)
	}
	return req
}
