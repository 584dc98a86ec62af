package harness

import "fmt"

// DefaultThreshold is the minimum success rate for a run to pass.
const DefaultThreshold = 0.70

// Verdict reports whether a run with the given success rate passes.
// The threshold is inclusive.
func Verdict(successRate, threshold float64) bool {
	return successRate >= threshold
}

// ValidateThreshold rejects thresholds outside [0, 1].
func ValidateThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1, got %v", threshold)
	}
	return nil
}

// ExitCode maps a verdict to a process exit status.
func ExitCode(pass bool) int {
	if pass {
		return 0
	}
	return 1
}
