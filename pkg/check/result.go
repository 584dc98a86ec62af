package check

import (
	"time"
)

// Result captures the logged outcome of a single check execution.
// Results are created by the harness and never modified afterwards.
type Result struct {
	// Name identifies the check that produced this result.
	Name string `json:"name" yaml:"name"`

	// Category is an optional grouping label. Empty means ungrouped.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Success indicates whether the check passed.
	Success bool `json:"success" yaml:"success"`

	// Details is a free-text explanation, possibly embedding raw
	// response snippets.
	Details string `json:"details,omitempty" yaml:"details,omitempty"`

	// Timestamp is when the result was logged.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// ResponseData is the payload attached for failure diagnosis, if any.
	ResponseData *Body `json:"response_data,omitempty" yaml:"response_data,omitempty"`

	// Reach is the status classification reported by HTTP probes.
	Reach Reach `json:"reach,omitempty" yaml:"reach,omitempty"`
}
