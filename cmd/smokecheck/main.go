// smokecheck runs post-deployment smoke suites against an AI Diligence Pro
// instance and exits non-zero when the pass rate is below the threshold.
//
// Usage:
//
//	smokecheck run [base_url] [--suite backend|comprehensive|frontend]
//	smokecheck suites
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit status.
func execute(args []string, stdout, stderr io.Writer) int {
	reg, err := newRegistry()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	root := newRootCmd(reg)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		if !errors.Is(err, errVerdictFailed) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}
