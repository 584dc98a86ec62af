// Package report renders a harness.Report as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kylerisse/smokecheck/pkg/harness"
	"gopkg.in/yaml.v3"
)

// Format selects a report renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (supported: text, json, yaml)", s)
	}
}

// Options tunes the text report.
type Options struct {
	// ShowPassed lists passed results after the failed ones.
	ShowPassed bool

	// Width is the length of horizontal rules. Defaults to 60.
	Width int
}

// Write renders rep in the given format.
func Write(w io.Writer, f Format, rep harness.Report, opts Options) error {
	switch f {
	case FormatJSON:
		return JSON(w, rep)
	case FormatYAML:
		return YAML(w, rep)
	case FormatText, "":
		return Text(w, rep, opts)
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

// JSON writes rep as indented JSON.
func JSON(w io.Writer, rep harness.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding json report: %w", err)
	}
	return nil
}

// YAML writes rep as YAML.
func YAML(w io.Writer, rep harness.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encoding yaml report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding yaml report: %w", err)
	}
	return nil
}
