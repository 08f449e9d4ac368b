package config

import (
	"strings"
	"testing"
)

func TestValidateAcceptsEmptyAndDefaultConfig(t *testing.T) {
	if err := Validate(&Config{}); err != nil {
		t.Fatalf("Validate(empty) error = %v, want nil", err)
	}
	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()) error = %v, want nil", err)
	}
	if err := Validate(nil); err != nil {
		t.Fatalf("Validate(nil) error = %v, want nil", err)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		Timeout:  "-1s",
		Protocol: "sideways",
		Encoding: "xml",
		Format:   "csv",
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() error = nil, want errors")
	}
	msg := err.Error()
	for _, want := range []string{"timeout", "sideways", "xml", "csv"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("Validate() error = %q, want mention of %q", msg, want)
		}
	}
}

func TestValidateRejectsUnparseableTimeout(t *testing.T) {
	err := Validate(&Config{Timeout: "soon"})
	if err == nil || !strings.Contains(err.Error(), "soon") {
		t.Fatalf("Validate() error = %v, want invalid timeout", err)
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"", FormatText, FormatJSON, FormatYAML} {
		if err := ValidateFormat(f); err != nil {
			t.Fatalf("ValidateFormat(%q) error = %v", f, err)
		}
	}
	if err := ValidateFormat("table"); err == nil {
		t.Fatal("ValidateFormat(table) error = nil, want error")
	}
}
