package harness

import (
	"time"

	"github.com/kylerisse/smokecheck/pkg/check"
)

// Summary holds aggregate counts over a set of results.
type Summary struct {
	Total       int           `json:"total" yaml:"total"`
	Passed      int           `json:"passed" yaml:"passed"`
	Failed      int           `json:"failed" yaml:"failed"`
	SuccessRate float64       `json:"success_rate" yaml:"success_rate"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration"`
}

// CategorySummary is a Summary for one category.
type CategorySummary struct {
	Category string `json:"category" yaml:"category"`
	Summary  `yaml:",inline"`
}

// Percent returns the success rate as a percentage.
func (s Summary) Percent() float64 {
	return s.SuccessRate * 100
}

// Summarize counts results. The success rate is 0 when there are none.
func Summarize(results []check.Result, duration time.Duration) Summary {
	s := Summary{Duration: duration}
	for _, r := range results {
		s.Total++
		if r.Success {
			s.Passed++
		}
	}
	s.Failed = s.Total - s.Passed
	if s.Total > 0 {
		s.SuccessRate = float64(s.Passed) / float64(s.Total)
	}
	return s
}

// Categorized reports whether any result carries a category.
func Categorized(results []check.Result) bool {
	for _, r := range results {
		if r.Category != "" {
			return true
		}
	}
	return false
}

// SummarizeCategories groups results by category in first-seen order.
// Uncategorized results are grouped under the empty category, which is
// only present when at least one result has no category. Returns nil if
// no result carries a category.
func SummarizeCategories(results []check.Result) []CategorySummary {
	if !Categorized(results) {
		return nil
	}

	var order []string
	groups := make(map[string][]check.Result)
	for _, r := range results {
		if _, seen := groups[r.Category]; !seen {
			order = append(order, r.Category)
		}
		groups[r.Category] = append(groups[r.Category], r)
	}

	out := make([]CategorySummary, 0, len(order))
	for _, cat := range order {
		out = append(out, CategorySummary{
			Category: cat,
			Summary:  Summarize(groups[cat], 0),
		})
	}
	return out
}

// Failed returns the failed results in order.
func Failed(results []check.Result) []check.Result {
	return filter(results, false)
}

// Passed returns the passed results in order.
func Passed(results []check.Result) []check.Result {
	return filter(results, true)
}

func filter(results []check.Result, success bool) []check.Result {
	var out []check.Result
	for _, r := range results {
		if r.Success == success {
			out = append(out, r)
		}
	}
	return out
}
