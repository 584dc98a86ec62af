// Package harness runs an ordered list of smoke checks, records one result
// per check, and derives run summaries and a pass/fail verdict.
package harness

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kylerisse/smokecheck/pkg/check"
	"github.com/sirupsen/logrus"
)

const (
	passMarker = "✅ PASS"
	failMarker = "❌ FAIL"

	// responseSnippet bounds the response text echoed under a failure.
	responseSnippet = 200
)

// Harness executes checks sequentially and logs their results.
type Harness struct {
	out    io.Writer
	logger *logrus.Logger
	now    func() time.Time
	ledger ledger
}

// Option is a functional option for configuring a Harness.
type Option func(*Harness)

// WithOutput sets where result lines are written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(h *Harness) {
		h.out = w
	}
}

// WithLogger sets the logger for operational messages.
func WithLogger(l *logrus.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithClock overrides the time source used for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(h *Harness) {
		h.now = now
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		out:    os.Stdout,
		logger: logrus.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// LogOption sets optional fields on a logged result.
type LogOption func(*check.Result)

// WithCategory groups the result under category.
func WithCategory(category string) LogOption {
	return func(r *check.Result) {
		r.Category = category
	}
}

// WithResponse attaches a response body for failure diagnosis.
func WithResponse(b *check.Body) LogOption {
	return func(r *check.Result) {
		r.ResponseData = b
	}
}

// WithReach attaches the HTTP reach classification.
func WithReach(reach check.Reach) LogOption {
	return func(r *check.Result) {
		r.Reach = reach
	}
}

// Log appends a result stamped with the current time and immediately
// writes its formatted line to the output.
func (h *Harness) Log(name string, success bool, details string, opts ...LogOption) check.Result {
	r := check.Result{
		Name:      name,
		Success:   success,
		Details:   details,
		Timestamp: h.now(),
	}
	for _, opt := range opts {
		opt(&r)
	}

	h.ledger.append(r)
	h.print(r)
	return r
}

func (h *Harness) print(r check.Result) {
	marker := passMarker
	if !r.Success {
		marker = failMarker
	}
	if r.Category != "" {
		fmt.Fprintf(h.out, "%s - [%s] %s\n", marker, r.Category, r.Name)
	} else {
		fmt.Fprintf(h.out, "%s - %s\n", marker, r.Name)
	}
	if r.Details != "" {
		fmt.Fprintf(h.out, "    Details: %s\n", r.Details)
	}
	if !r.Success && r.ResponseData != nil {
		if snippet := r.ResponseData.Snippet(responseSnippet); snippet != "" {
			fmt.Fprintf(h.out, "    Response: %s\n", snippet)
		}
	}
	fmt.Fprintln(h.out)
}

// Results returns a copy of every result logged so far, in order.
func (h *Harness) Results() []check.Result {
	return h.ledger.snapshot()
}

// Report is the complete outcome of a run.
type Report struct {
	Title           string            `json:"title,omitempty" yaml:"title,omitempty"`
	BaseURL         string            `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Started         time.Time         `json:"started" yaml:"started"`
	Results         []check.Result    `json:"results" yaml:"results"`
	Summary         Summary           `json:"summary" yaml:"summary"`
	Categories      []CategorySummary `json:"categories,omitempty" yaml:"categories,omitempty"`
	Threshold       float64           `json:"threshold" yaml:"threshold"`
	Pass            bool              `json:"pass" yaml:"pass"`
	Recommendations []string          `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// Run executes checks in order, one at a time. A check that returns an
// error or panics is recorded as a failure and the run continues; no
// check can abort the run. Every check produces exactly one result.
func (h *Harness) Run(ctx context.Context, checks ...check.Check) Report {
	started := h.now()
	first := h.ledger.len()

	for i, c := range checks {
		log := h.logger.WithFields(logrus.Fields{
			"check":    c.Name(),
			"category": c.Category(),
			"index":    i,
		})
		log.Debug("Running check")
		checkStart := h.now()

		out, fault := check.Guard(ctx, c)
		if fault != nil {
			log.WithError(fault.Err).Warn("Check faulted")
			h.Log(c.Name(), false, fmt.Sprintf("Unexpected error: %v", fault.Err), WithCategory(c.Category()))
			continue
		}

		details := out.Details
		if !out.Success && details == "" {
			details = "check failed without details"
		}
		h.Log(c.Name(), out.Success, details,
			WithCategory(c.Category()),
			WithResponse(out.Response),
			WithReach(out.Reach),
		)
		log.WithField("success", out.Success).Debugf("Check finished in %v", h.now().Sub(checkStart))
	}

	results := h.ledger.snapshot()[first:]
	rep := Report{
		Started:    started,
		Results:    results,
		Summary:    Summarize(results, h.now().Sub(started)),
		Categories: SummarizeCategories(results),
	}
	rep.Decide(DefaultThreshold)
	return rep
}

// Decide sets the threshold and verdict on the report.
func (r *Report) Decide(threshold float64) bool {
	r.Threshold = threshold
	r.Pass = Verdict(r.Summary.SuccessRate, threshold)
	return r.Pass
}
