package config

// Config is the getmyid CLI configuration file. Empty fields leave the
// library defaults in place.
type Config struct {
	SocketPath string       `toml:"socket_path,omitempty"`
	Timeout    string       `toml:"timeout,omitempty"`
	Protocol   string       `toml:"protocol,omitempty"`
	Encoding   string       `toml:"encoding,omitempty"`
	Format     string       `toml:"format,omitempty"`
	Runner     RunnerConfig `toml:"runner"`
}

// RunnerConfig is the runner context sent when the command line gives none.
type RunnerConfig struct {
	InstanceID    *uint64 `toml:"instance_id,omitempty"`
	WithTimestamp bool    `toml:"with_timestamp,omitempty"`
}

// HasContext reports whether the file asks for runner context.
func (r RunnerConfig) HasContext() bool {
	return r.InstanceID != nil || r.WithTimestamp
}

// Output formats accepted by the format setting.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)
