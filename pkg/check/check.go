// Package check defines the core interfaces and types for smoke checks.
//
// A Check represents a single independent probe run against a target
// application. Each check performs one or more external calls (HTTP
// requests or browser actions) and reduces what it observed to an
// Outcome: success/failure, a human-readable detail string, and an
// optional response body kept for failure diagnosis.
//
// Checks never decide how results are stored or printed. The harness
// turns each Outcome into exactly one Result record.
package check

import (
	"context"
	"fmt"
)

// Check is the interface that all smoke checks must implement.
type Check interface {
	// Name identifies the check in reports (e.g. "CORS Headers").
	Name() string

	// Category is an optional grouping label. Empty means ungrouped.
	Category() string

	// Run executes the check. Transport faults and unexpected statuses
	// are part of the Outcome; a non-nil error means the check itself
	// is broken and is recorded by the harness as a failure.
	Run(ctx context.Context) (Outcome, error)
}

// Outcome is what a check observed, reduced to a verdict and a reason.
type Outcome struct {
	Success bool
	Details string

	// Response is attached when the raw payload helps explain a failure.
	Response *Body

	// Reach classifies the HTTP status the check accepted or rejected.
	// Zero for checks that are not HTTP probes.
	Reach Reach
}

// Pass returns a successful Outcome.
func Pass(details string) Outcome {
	return Outcome{Success: true, Details: details}
}

// Fail returns a failed Outcome.
func Fail(details string) Outcome {
	return Outcome{Success: false, Details: details}
}

// Passf is Pass with fmt.Sprintf formatting.
func Passf(format string, args ...any) Outcome {
	return Pass(fmt.Sprintf(format, args...))
}

// Failf is Fail with fmt.Sprintf formatting.
func Failf(format string, args ...any) Outcome {
	return Fail(fmt.Sprintf(format, args...))
}

// Errored returns the failed Outcome used for transport faults.
func Errored(err error) Outcome {
	return Fail(fmt.Sprintf("Error: %v", err))
}

// WithResponse returns a copy of o carrying the given body.
func (o Outcome) WithResponse(b Body) Outcome {
	o.Response = &b
	return o
}

// WithReach returns a copy of o carrying the given reach classification.
func (o Outcome) WithReach(r Reach) Outcome {
	o.Reach = r
	return o
}

// RunFunc is the body of a Func check.
type RunFunc func(ctx context.Context) (Outcome, error)

// Func adapts a plain function to the Check interface.
type Func struct {
	name     string
	category string
	run      RunFunc
}

// New creates an ungrouped Check from a function.
func New(name string, run RunFunc) *Func {
	return &Func{name: name, run: run}
}

// NewInCategory creates a Check from a function under the given category.
func NewInCategory(category, name string, run RunFunc) *Func {
	return &Func{name: name, category: category, run: run}
}

// Name returns the check name.
func (f *Func) Name() string {
	return f.name
}

// Category returns the check category.
func (f *Func) Category() string {
	return f.category
}

// Run calls the wrapped function.
func (f *Func) Run(ctx context.Context) (Outcome, error) {
	if f.run == nil {
		return Outcome{}, fmt.Errorf("check %q has no run function", f.name)
	}
	return f.run(ctx)
}
