package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lydakis/getmyid"
	"github.com/lydakis/getmyid/internal/paths"
)

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the config file and returns the parsed Config.
// If the config file does not exist, it returns an empty Config (no error).
func Load() (*Config, error) {
	return LoadFrom(paths.ConfigFile())
}

// LoadFrom reads and parses a config file at the given path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing config %s: unknown key %q", path, undecoded[0].String())
	}
	expandConfigEnvVars(&cfg)
	return &cfg, nil
}

// Default returns the settings a fresh config file is seeded with.
func Default() *Config {
	return &Config{
		SocketPath: getmyid.DefaultSocketPath,
		Timeout:    getmyid.DefaultTimeout.String(),
		Protocol:   getmyid.ProtocolAuto.String(),
		Encoding:   string(getmyid.EncodingJSON),
		Format:     FormatText,
	}
}

// TimeoutDuration parses Timeout. Zero means unset.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c == nil || c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

func expandConfigEnvVars(cfg *Config) {
	cfg.SocketPath = expandEnvVars(cfg.SocketPath)
	cfg.Timeout = expandEnvVars(cfg.Timeout)
	cfg.Protocol = expandEnvVars(cfg.Protocol)
	cfg.Encoding = expandEnvVars(cfg.Encoding)
	cfg.Format = expandEnvVars(cfg.Format)
}

// expandEnvVars replaces ${VAR_NAME} with the value of the environment variable.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match // leave unresolved vars as-is
	})
}
