package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFromParsesAllSettings(t *testing.T) {
	path := writeConfig(t, `
socket_path = "/run/whoami.sock"
timeout = "750ms"
protocol = "nested"
encoding = "msgpack"
format = "yaml"

[runner]
instance_id = 42
with_timestamp = true
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.SocketPath != "/run/whoami.sock" {
		t.Fatalf("socket_path = %q", cfg.SocketPath)
	}
	d, err := cfg.TimeoutDuration()
	if err != nil || d != 750*time.Millisecond {
		t.Fatalf("TimeoutDuration() = %v, %v; want 750ms", d, err)
	}
	if cfg.Protocol != "nested" || cfg.Encoding != "msgpack" || cfg.Format != "yaml" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Runner.InstanceID == nil || *cfg.Runner.InstanceID != 42 {
		t.Fatalf("runner.instance_id = %v, want 42", cfg.Runner.InstanceID)
	}
	if !cfg.Runner.WithTimestamp || !cfg.Runner.HasContext() {
		t.Fatalf("runner = %+v, want timestamp context", cfg.Runner)
	}
}

func TestLoadFromMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if *cfg != (Config{}) {
		t.Fatalf("config = %+v, want zero value", cfg)
	}
	if cfg.Runner.HasContext() {
		t.Fatal("empty config should not request runner context")
	}
}

func TestLoadFromExpandsEnvValuesAfterParsing(t *testing.T) {
	t.Setenv("WHOAMI_DIR", `/srv/who"ami`)

	cfg, err := LoadFrom(writeConfig(t, `socket_path = "${WHOAMI_DIR}/whoami.sock"`))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	want := `/srv/who"ami/whoami.sock`
	if cfg.SocketPath != want {
		t.Fatalf("socket_path = %q, want %q", cfg.SocketPath, want)
	}
}

func TestLoadFromLeavesUnresolvedEnvVars(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, `socket_path = "${GETMYID_TEST_UNSET_VAR}/s.sock"`))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.SocketPath != "${GETMYID_TEST_UNSET_VAR}/s.sock" {
		t.Fatalf("socket_path = %q, want placeholder kept", cfg.SocketPath)
	}
}

func TestLoadFromRejectsUnknownKeys(t *testing.T) {
	_, err := LoadFrom(writeConfig(t, `sockt_path = "/tmp/x.sock"`))
	if err == nil {
		t.Fatal("LoadFrom() error = nil, want unknown key error")
	}
}

func TestLoadFromRejectsInvalidTOML(t *testing.T) {
	_, err := LoadFrom(writeConfig(t, `timeout = `))
	if err == nil {
		t.Fatal("LoadFrom() error = nil, want parse error")
	}
}

func TestLoadUsesXDGConfigHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	dir := filepath.Join(home, "getmyid")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`format = "json"`), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Format != "json" {
		t.Fatalf("format = %q, want json", cfg.Format)
	}
}

func TestSaveToRoundTripsAndIsPrivate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	in := Default()
	id := uint64(9)
	in.Runner.InstanceID = &id

	if err := SaveTo(path, in); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("mode = %o, want 600", perm)
	}

	out, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if out.SocketPath != in.SocketPath || out.Timeout != in.Timeout || out.Format != in.Format {
		t.Fatalf("round trip = %+v, want %+v", out, in)
	}
	if out.Runner.InstanceID == nil || *out.Runner.InstanceID != 9 {
		t.Fatalf("runner.instance_id = %v, want 9", out.Runner.InstanceID)
	}
	if err := Validate(out); err != nil {
		t.Fatalf("Validate(saved default) error = %v", err)
	}
}
