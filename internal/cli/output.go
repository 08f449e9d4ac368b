package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lydakis/getmyid"
	"github.com/lydakis/getmyid/internal/config"
	"gopkg.in/yaml.v3"
)

// identityView mirrors the daemon reply layout: process fields at the top
// level for a flat reply, inside runner for a nested one.
type identityView struct {
	Identity  string      `json:"identity" yaml:"identity"`
	IDMURL    string      `json:"idm_url" yaml:"idm_url"`
	ConfigURL string      `json:"config_url" yaml:"config_url"`
	Token     string      `json:"token" yaml:"token"`
	Process   string      `json:"process,omitempty" yaml:"process,omitempty"`
	PID       *uint32     `json:"pid,omitempty" yaml:"pid,omitempty"`
	UID       *uint32     `json:"uid,omitempty" yaml:"uid,omitempty"`
	GID       *uint32     `json:"gid,omitempty" yaml:"gid,omitempty"`
	Runner    *runnerView `json:"runner,omitempty" yaml:"runner,omitempty"`
}

type runnerView struct {
	Hostname   string  `json:"hostname" yaml:"hostname"`
	Process    string  `json:"process" yaml:"process"`
	PID        uint32  `json:"pid" yaml:"pid"`
	UID        uint32  `json:"uid" yaml:"uid"`
	GID        uint32  `json:"gid" yaml:"gid"`
	InstanceID *uint64 `json:"instance_id,omitempty" yaml:"instance_id,omitempty"`
	Timestamp  *uint64 `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

func newIdentityView(id *getmyid.Identity) identityView {
	v := identityView{
		Identity:  id.Identity,
		IDMURL:    id.IDMURL,
		ConfigURL: id.ConfigURL,
		Token:     id.Token,
	}
	if r := id.Runner; r != nil {
		v.Runner = &runnerView{
			Hostname:   r.Hostname,
			Process:    r.Process,
			PID:        r.PID,
			UID:        r.UID,
			GID:        r.GID,
			InstanceID: r.InstanceID,
			Timestamp:  r.Timestamp,
		}
		return v
	}
	pid, uid, gid := id.PID, id.UID, id.GID
	v.Process = id.Process
	v.PID, v.UID, v.GID = &pid, &uid, &gid
	return v
}

func renderIdentity(w io.Writer, format string, id *getmyid.Identity, async bool) error {
	switch format {
	case config.FormatJSON:
		data, err := json.MarshalIndent(newIdentityView(id), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding json output: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newIdentityView(id)); err != nil {
			return fmt.Errorf("encoding yaml output: %w", err)
		}
		return enc.Close()
	default:
		return renderText(w, id, async)
	}
}

func renderText(w io.Writer, id *getmyid.Identity, async bool) error {
	header := "Identity retrieved successfully!"
	if async {
		header = "Identity retrieved successfully (async)!"
	}

	var p printer
	p.w = w
	p.line(header)
	p.line("")
	p.line("  Identity:   %s", id.Identity)
	p.line("  IDM URL:    %s", id.IDMURL)
	p.line("  Config URL: %s", id.ConfigURL)
	p.line("  Token:      %s", id.Token)
	p.line("")

	r := id.Runner
	if r == nil {
		p.line("  Process:    %s", id.Process)
		p.line("  PID:        %d", id.PID)
		p.line("  UID:        %d", id.UID)
		p.line("  GID:        %d", id.GID)
		return p.err
	}
	p.line("  Runner:")
	p.line("    Hostname:    %s", r.Hostname)
	p.line("    Process:     %s", r.Process)
	p.line("    PID:         %d", r.PID)
	p.line("    UID:         %d", r.UID)
	p.line("    GID:         %d", r.GID)
	if r.InstanceID != nil {
		p.line("    Instance ID: %d", *r.InstanceID)
	}
	if r.Timestamp != nil {
		p.line("    Timestamp:   %d", *r.Timestamp)
	}
	return p.err
}

// printer keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}
