package main

import (
	"errors"

	"github.com/kylerisse/smokecheck/pkg/suite"
	"github.com/kylerisse/smokecheck/pkg/suite/backend"
	"github.com/kylerisse/smokecheck/pkg/suite/comprehensive"
	"github.com/kylerisse/smokecheck/pkg/suite/frontend"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

// errVerdictFailed is returned when a run completes below its threshold.
// The report already explains the failure, so nothing more is printed.
var errVerdictFailed = errors.New("smoke test verdict: failed")

func newRegistry() (*suite.Registry, error) {
	reg := suite.NewRegistry()
	for _, register := range []func(*suite.Registry) error{
		backend.Register,
		comprehensive.Register,
		frontend.Register,
	} {
		if err := register(reg); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func newRootCmd(reg *suite.Registry) *cobra.Command {
	root := &cobra.Command{
		Use:   "smokecheck",
		Short: "Post-deployment smoke tests for AI Diligence Pro",
		Long: "smokecheck probes a deployed AI Diligence Pro instance with ordered\n" +
			"HTTP and browser checks, prints a summary report and exits non-zero\n" +
			"when the pass rate is below the suite threshold.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.AddCommand(newRunCmd(reg))
	root.AddCommand(newSuitesCmd(reg))
	return root
}
