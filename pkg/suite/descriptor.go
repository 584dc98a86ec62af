package suite

import (
	"github.com/kylerisse/smokecheck/pkg/check/browser"
	"github.com/kylerisse/smokecheck/pkg/harness"
	"github.com/sirupsen/logrus"
)

// DefaultDescriptorThreshold is used when a Descriptor leaves Threshold unset.
const DefaultDescriptorThreshold = harness.DefaultThreshold

// Function endpoints of the target deployment.
const (
	ProxyPath        = "/api/proxy"
	DueDiligencePath = "/api/generateDueDiligence"
)

// Descriptor declares metadata about a suite.
type Descriptor struct {
	// Name is the registry key (e.g. "backend").
	Name string

	// Title is used for the banner and report heading
	// (e.g. "AI Diligence Pro Backend Tests").
	Title string

	// Summary is a one-line description for listings.
	Summary string

	// DefaultBaseURL is used when no base URL is given.
	DefaultBaseURL string

	// Threshold is the minimum success rate for the suite to pass.
	Threshold float64

	// NeedsBrowser means Env.Browser must be set before Create.
	NeedsBrowser bool

	// Advise derives recommendations from a finished report. Optional.
	Advise func(rep harness.Report) []string
}

// Env is everything a suite factory may depend on.
type Env struct {
	// BaseURL is the target application root.
	BaseURL string

	// Logger receives operational messages.
	Logger *logrus.Logger

	// DNSServer is the resolver used for name checks (host:port).
	// Empty means the system resolver configuration.
	DNSServer string

	// Browser is set for suites whose Descriptor.NeedsBrowser is true.
	Browser browser.Driver
}

// Log returns env.Logger or the standard logger.
func (env Env) Log() *logrus.Logger {
	if env.Logger != nil {
		return env.Logger
	}
	return logrus.StandardLogger()
}
