package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kylerisse/smokecheck/pkg/check/browser"
	"github.com/kylerisse/smokecheck/pkg/harness"
	"github.com/kylerisse/smokecheck/pkg/report"
	"github.com/kylerisse/smokecheck/pkg/suite"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type runFlags struct {
	suite      string
	threshold  float64
	format     string
	showPassed bool
	logLevel   string
	logFile    string
	dnsServer  string
	chromePath string
}

func newRunCmd(reg *suite.Registry) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [base_url]",
		Short: "Run a smoke suite against a deployment",
		Long: `Run the checks of one suite in order against base_url, print one line
per check and a summary report, and exit 1 when the success rate is
below the threshold.

Examples:
  smokecheck run                                   # backend suite on http://localhost:3000
  smokecheck run https://app.example.com --suite comprehensive
  smokecheck run --suite frontend --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("threshold") {
				flags.threshold = -1
			}
			return runSuite(cmd.Context(), reg, flags, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.suite, "suite", "s", "backend", "Suite to run ("+strings.Join(reg.Names(), ", ")+")")
	f.Float64Var(&flags.threshold, "threshold", harness.DefaultThreshold, "Minimum success rate in [0, 1] (default: the suite's)")
	f.StringVarP(&flags.format, "format", "f", "text", "Report format: text, json or yaml")
	f.BoolVar(&flags.showPassed, "show-passed", false, "List passed checks in the text report")
	f.StringVar(&flags.logLevel, "log-level", "warn", "Operational log level (debug, info, warn, error)")
	f.StringVar(&flags.logFile, "log-file", "", "Write operational logs to a rotated file instead of stderr")
	f.StringVar(&flags.dnsServer, "dns-server", "", "DNS server for name checks (default: system resolver)")
	f.StringVar(&flags.chromePath, "chrome", "", "Chrome binary for browser suites (default: autodetect)")

	return cmd
}

// runSuite executes one suite. A negative flags.threshold means the
// suite's own threshold.
func runSuite(ctx context.Context, reg *suite.Registry, flags runFlags, args []string, stdout, stderr io.Writer) error {
	desc, err := reg.Describe(flags.suite)
	if err != nil {
		return err
	}

	threshold := desc.Threshold
	if flags.threshold >= 0 {
		threshold = flags.threshold
	}
	if err := harness.ValidateThreshold(threshold); err != nil {
		return err
	}

	format, err := report.ParseFormat(flags.format)
	if err != nil {
		return err
	}

	logger, closer, err := setupLogging(flags.logLevel, flags.logFile, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	baseURL := desc.DefaultBaseURL
	if len(args) > 0 {
		baseURL = args[0]
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Result lines would corrupt machine-readable output on stdout.
	progress := stdout
	if format != report.FormatText {
		progress = stderr
	}

	fmt.Fprintf(progress, "Testing %s at: %s\n", desc.Title, baseURL)
	fmt.Fprintf(progress, "Test started at: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	env := suite.Env{
		BaseURL:   baseURL,
		Logger:    logger,
		DNSServer: flags.dnsServer,
	}

	if desc.NeedsBrowser {
		session, err := acquireBrowser(ctx, flags.chromePath, logger)
		if err != nil {
			fmt.Fprintf(progress, "❌ Failed to initialize Chrome driver: %v\n", err)
			return err
		}
		defer func() {
			if err := session.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close browser")
			}
		}()
		fmt.Fprintln(progress, "✅ Chrome driver initialized successfully")
		env.Browser = session
	}

	checks, err := reg.Create(desc.Name, env)
	if err != nil {
		return err
	}

	fmt.Fprintf(progress, "🚀 Starting %s\n", desc.Title)
	fmt.Fprintln(progress, strings.Repeat("=", 50))

	h := harness.New(harness.WithOutput(progress), harness.WithLogger(logger))
	rep := h.Run(ctx, checks...)
	rep.Title = desc.Title
	rep.BaseURL = baseURL
	if desc.Advise != nil {
		rep.Recommendations = desc.Advise(rep)
	}
	pass := rep.Decide(threshold)

	logger.WithFields(logrus.Fields{
		"suite":     desc.Name,
		"passed":    rep.Summary.Passed,
		"total":     rep.Summary.Total,
		"threshold": threshold,
		"pass":      pass,
	}).Info("Run finished")

	if err := report.Write(stdout, format, rep, report.Options{ShowPassed: flags.showPassed}); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if !pass {
		return errVerdictFailed
	}
	return nil
}

// acquireBrowser is replaced in tests.
var acquireBrowser = func(ctx context.Context, chromePath string, logger *logrus.Logger) (closableDriver, error) {
	return browser.Acquire(ctx, browser.WithExecPath(chromePath), browser.WithLogger(logger))
}

type closableDriver interface {
	browser.Driver
	Close() error
}
