package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kylerisse/smokecheck/pkg/check"
	"github.com/kylerisse/smokecheck/pkg/harness"
)

const (
	defaultWidth = 60
	overallLabel = "OVERALL"
	otherLabel   = "Other"
)

// Text writes the human-readable summary of rep.
//
// Categorized runs get one line per category followed by an OVERALL line.
// Every run gets the counts block, the failed results, optionally the
// passed results, and any recommendations.
func Text(w io.Writer, rep harness.Report, opts Options) error {
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	heavy := strings.Repeat("=", width)
	light := strings.Repeat("-", width)

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, heavy)
	title := "Test Summary"
	if rep.Title != "" {
		title = rep.Title + " Summary"
	}
	fmt.Fprintf(bw, "📊 %s\n", title)
	fmt.Fprintln(bw, heavy)

	if len(rep.Categories) > 0 {
		for _, c := range rep.Categories {
			label := c.Category
			if label == "" {
				label = otherLabel
			}
			fmt.Fprintln(bw, tallyLine(label, c.Summary))
		}
		fmt.Fprintln(bw, light)
		fmt.Fprintln(bw, tallyLine(overallLabel, rep.Summary))
		fmt.Fprintln(bw)
	}

	s := rep.Summary
	fmt.Fprintf(bw, "Tests Run: %d\n", s.Total)
	fmt.Fprintf(bw, "Tests Passed: %d\n", s.Passed)
	fmt.Fprintf(bw, "Tests Failed: %d\n", s.Failed)
	fmt.Fprintf(bw, "Success Rate: %.1f%%\n", s.Percent())
	fmt.Fprintf(bw, "Duration: %.2f seconds\n", s.Duration.Seconds())

	failed := harness.Failed(rep.Results)
	if len(failed) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "❌ Failed Tests:")
		for _, r := range failed {
			fmt.Fprintf(bw, "  - %s: %s\n", label(r), r.Details)
		}
	}

	if opts.ShowPassed {
		passed := harness.Passed(rep.Results)
		if len(passed) > 0 {
			fmt.Fprintln(bw)
			fmt.Fprintf(bw, "✅ Passed Tests (%d):\n", len(passed))
			for _, r := range passed {
				fmt.Fprintf(bw, "  - %s\n", label(r))
			}
		}
	}

	if len(rep.Recommendations) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "🔧 Recommendations:")
		fmt.Fprintln(bw, light)
		for _, rec := range rep.Recommendations {
			fmt.Fprintf(bw, "• %s\n", rec)
		}
	}

	fmt.Fprintln(bw)
	verdict := "FAILED"
	if rep.Pass {
		verdict = "PASSED"
	}
	fmt.Fprintf(bw, "Verdict: %s (threshold %.1f%%)\n", verdict, rep.Threshold*100)

	return bw.Flush()
}

// tallyLine formats "Frontend        |  2/ 3 tests passed ( 66.7%)".
func tallyLine(label string, s harness.Summary) string {
	return fmt.Sprintf("%-15s | %2d/%2d tests passed (%5.1f%%)", label, s.Passed, s.Total, s.Percent())
}

func label(r check.Result) string {
	if r.Category == "" {
		return r.Name
	}
	return fmt.Sprintf("[%s] %s", r.Category, r.Name)
}
