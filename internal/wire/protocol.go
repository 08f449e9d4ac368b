// Package wire defines the payloads exchanged with the whoami daemon and the
// codecs that serialize them.
//
// A request payload is either empty (no runner context) or a structure with
// the optional instance_id and timestamp fields. Absent fields are omitted,
// never encoded as sentinel values, so daemons that predate runner context
// keep parsing requests.
//
// A response payload comes in two shapes. The flat shape carries process,
// pid, uid and gid next to the identity fields. The nested shape moves them
// into a runner record that also echoes the runner context:
//
//	{"identity":"svc-a","idm_url":"https://idm","config_url":"https://cfg","token":"tok123",
//	 "runner":{"hostname":"h1","process":"worker","pid":42,"uid":1000,"gid":1000,"instance_id":7}}
package wire

import (
	"errors"
	"fmt"
)

// ErrMalformed is wrapped by every decode failure caused by the payload bytes.
var ErrMalformed = errors.New("malformed payload")

// Request is the runner context sent to the daemon.
type Request struct {
	InstanceID *uint64 `json:"instance_id,omitempty" msgpack:"instance_id,omitempty"`
	Timestamp  *uint64 `json:"timestamp,omitempty" msgpack:"timestamp,omitempty"`
}

// Response is the daemon reply in either shape.
type Response struct {
	Identity  string `json:"identity" msgpack:"identity"`
	IDMURL    string `json:"idm_url" msgpack:"idm_url"`
	ConfigURL string `json:"config_url" msgpack:"config_url"`
	Token     string `json:"token" msgpack:"token"`

	// Flat shape
	Process string  `json:"process,omitempty" msgpack:"process,omitempty"`
	PID     *uint32 `json:"pid,omitempty" msgpack:"pid,omitempty"`
	UID     *uint32 `json:"uid,omitempty" msgpack:"uid,omitempty"`
	GID     *uint32 `json:"gid,omitempty" msgpack:"gid,omitempty"`

	// Nested shape
	Runner *Runner `json:"runner,omitempty" msgpack:"runner,omitempty"`
}

// Runner is the nested runner record of a response.
type Runner struct {
	Hostname   string  `json:"hostname" msgpack:"hostname"`
	Process    string  `json:"process" msgpack:"process"`
	PID        *uint32 `json:"pid,omitempty" msgpack:"pid,omitempty"`
	UID        *uint32 `json:"uid,omitempty" msgpack:"uid,omitempty"`
	GID        *uint32 `json:"gid,omitempty" msgpack:"gid,omitempty"`
	InstanceID *uint64 `json:"instance_id,omitempty" msgpack:"instance_id,omitempty"`
	Timestamp  *uint64 `json:"timestamp,omitempty" msgpack:"timestamp,omitempty"`
}

// Shape tells the two response layouts apart.
type Shape int

const (
	ShapeFlat Shape = iota
	ShapeNested
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeNested:
		return "nested"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Shape reports the layout of r. A runner record makes a response nested.
func (r *Response) Shape() Shape {
	if r.Runner != nil {
		return ShapeNested
	}
	return ShapeFlat
}

// Validate checks the fields every successful reply must carry.
func (r *Response) Validate() error {
	var errs []error
	for _, f := range []struct{ name, val string }{
		{"identity", r.Identity},
		{"idm_url", r.IDMURL},
		{"config_url", r.ConfigURL},
		{"token", r.Token},
	} {
		if f.val == "" {
			errs = append(errs, fmt.Errorf("missing %s", f.name))
		}
	}

	prefix := ""
	pid, uid, gid := r.PID, r.UID, r.GID
	if r.Runner != nil {
		prefix = "runner."
		pid, uid, gid = r.Runner.PID, r.Runner.UID, r.Runner.GID
	}
	if pid == nil {
		errs = append(errs, fmt.Errorf("missing %spid", prefix))
	}
	if uid == nil {
		errs = append(errs, fmt.Errorf("missing %suid", prefix))
	}
	if gid == nil {
		errs = append(errs, fmt.Errorf("missing %sgid", prefix))
	}
	return errors.Join(errs...)
}

// EncodeRequest serializes req. A nil request encodes to an empty payload.
func EncodeRequest(c Codec, req *Request) ([]byte, error) {
	if req == nil {
		return nil, nil
	}
	data, err := c.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", c.Name(), err)
	}
	return data, nil
}

// DecodeRequest parses a request payload. An empty payload decodes to nil.
func DecodeRequest(c Codec, data []byte) (*Request, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var req Request
	if err := c.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %s request: %v", ErrMalformed, c.Name(), err)
	}
	return &req, nil
}

// EncodeResponse serializes resp as the daemon would.
func EncodeResponse(c Codec, resp *Response) ([]byte, error) {
	if resp == nil {
		return nil, errors.New("encoding response: nil response")
	}
	data, err := c.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encoding %s response: %w", c.Name(), err)
	}
	return data, nil
}

// DecodeResponse parses and validates a response payload of either shape.
func DecodeResponse(c Codec, data []byte) (*Response, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrMalformed)
	}
	var resp Response
	if err := c.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s response: %v", ErrMalformed, c.Name(), err)
	}
	if err := resp.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s response: %v", ErrMalformed, resp.Shape(), err)
	}
	return &resp, nil
}

// Uint32 returns a pointer to v.
func Uint32(v uint32) *uint32 { return &v }

// Uint64 returns a pointer to v.
func Uint64(v uint64) *uint64 { return &v }
