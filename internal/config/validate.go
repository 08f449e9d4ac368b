package config

import (
	"errors"
	"fmt"

	"github.com/lydakis/getmyid"
	"github.com/lydakis/getmyid/internal/wire"
)

// Validate checks configuration invariants and returns actionable errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var errs []error
	if d, err := cfg.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	} else if cfg.Timeout != "" && d <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be > 0, got %q", cfg.Timeout))
	}
	if _, err := getmyid.ParseProtocol(cfg.Protocol); err != nil {
		errs = append(errs, err)
	}
	if _, err := wire.CodecByName(cfg.Encoding); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateFormat(cfg.Format); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateFormat accepts the output formats the CLI can render. Empty means
// the default.
func ValidateFormat(format string) error {
	switch format {
	case "", FormatText, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatText, FormatJSON, FormatYAML)
	}
}
