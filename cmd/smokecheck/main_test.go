package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kylerisse/smokecheck/internal/fakeapp"
	"github.com/kylerisse/smokecheck/pkg/check/browser"
	"github.com/kylerisse/smokecheck/pkg/harness"
	"github.com/sirupsen/logrus"
)

func startApp(t *testing.T, cfg fakeapp.Config) string {
	t.Helper()
	srv := httptest.NewServer(fakeapp.New(cfg).Router())
	t.Cleanup(srv.Close)
	return srv.URL
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestSuites_ListsAll(t *testing.T) {
	code, out, _ := runCLI("suites")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"backend", "comprehensive", "frontend", "http://localhost:3000", "100%"} {
		if !strings.Contains(out, want) {
			t.Errorf("suite listing missing %q:\n%s", want, out)
		}
	}
}

func TestRun_BackendPasses(t *testing.T) {
	url := startApp(t, fakeapp.Config{})

	code, out, _ := runCLI("run", url)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d:\n%s", code, out)
	}
	for _, want := range []string{
		"Testing AI Diligence Pro Backend Tests at: " + url,
		"✅ PASS - API Proxy Endpoint\n    Details: Status: 401 (Authentication required - expected)",
		"Tests Run: 8",
		"Success Rate: 100.0%",
		"Verdict: PASSED (threshold 70.0%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_UnreachableTargetExitsNonZero(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	code, out, errOut := runCLI("run", url)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(out, "❌ FAIL - Application Health Check") || !strings.Contains(out, "Verdict: FAILED") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(errOut, "Error:") {
		t.Errorf("a failed verdict must not print an error:\n%s", errOut)
	}
}

func TestRun_ComprehensiveJSON(t *testing.T) {
	url := startApp(t, fakeapp.Config{FunctionStatus: http.StatusNotImplemented})

	code, out, errOut := runCLI("run", url, "--suite", "comprehensive", "--format", "json")
	if code != 0 {
		t.Fatalf("expected exit 0 at 87.5%%, got %d:\n%s", code, errOut)
	}
	if !strings.Contains(errOut, "[Configuration] API Keys") {
		t.Errorf("progress lines belong on stderr for json output:\n%s", errOut)
	}

	var rep harness.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, out)
	}
	if rep.Summary.Total != 8 || rep.Summary.Passed != 7 {
		t.Errorf("unexpected summary %+v", rep.Summary)
	}
	if len(rep.Categories) != 5 {
		t.Errorf("expected 5 categories, got %d", len(rep.Categories))
	}
	if len(rep.Recommendations) != 2 || rep.Recommendations[1] != "Application is mostly ready but needs minor fixes" {
		t.Errorf("unexpected recommendations %v", rep.Recommendations)
	}
}

func TestRun_ThresholdOverride(t *testing.T) {
	url := startApp(t, fakeapp.Config{FunctionStatus: http.StatusNotImplemented})

	code, out, _ := runCLI("run", url, "--suite", "comprehensive", "--threshold", "1")
	if code != 1 {
		t.Fatalf("expected exit 1 with threshold 1, got %d", code)
	}
	if !strings.Contains(out, "Verdict: FAILED (threshold 100.0%)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRun_InvalidArguments(t *testing.T) {
	tests := map[string][]string{
		"unknown suite":   {"run", "--suite", "nope"},
		"bad threshold":   {"run", "--threshold", "1.5"},
		"bad format":      {"run", "--format", "xml"},
		"bad log level":   {"run", "--log-level", "loud"},
		"bad base URL":    {"run", "localhost:3000"},
		"too many args":   {"run", "http://a", "http://b"},
		"unknown command": {"deploy"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			code, _, errOut := runCLI(args...)
			if code != 1 {
				t.Errorf("expected exit 1, got %d", code)
			}
			if !strings.Contains(errOut, "Error:") {
				t.Errorf("expected an error message, got %q", errOut)
			}
		})
	}
}

type stubDriver struct {
	closed bool
}

func (d *stubDriver) Navigate(context.Context, string) error                   { return nil }
func (d *stubDriver) Title(context.Context) (string, error)                    { return "AI Diligence Pro", nil }
func (d *stubDriver) WaitForText(context.Context, string, time.Duration) error { return nil }
func (d *stubDriver) HasText(context.Context, string) (bool, error)            { return true, nil }
func (d *stubDriver) ClickText(context.Context, string) error                  { return nil }
func (d *stubDriver) HasElement(context.Context, string) (bool, error)         { return true, nil }
func (d *stubDriver) SelectValue(context.Context, string, string) error        { return nil }
func (d *stubDriver) ConsoleErrors() ([]browser.ConsoleEntry, error)           { return nil, nil }
func (d *stubDriver) Pause(context.Context, time.Duration) error               { return nil }
func (d *stubDriver) Close() error {
	d.closed = true
	return nil
}

func stubBrowser(t *testing.T, d closableDriver, err error) {
	t.Helper()
	old := acquireBrowser
	acquireBrowser = func(context.Context, string, *logrus.Logger) (closableDriver, error) {
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	t.Cleanup(func() { acquireBrowser = old })
}

func TestRun_FrontendWithBrowser(t *testing.T) {
	d := &stubDriver{}
	stubBrowser(t, d, nil)

	code, out, _ := runCLI("run", "http://localhost:3001", "--suite", "frontend")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d:\n%s", code, out)
	}
	if !strings.Contains(out, "✅ Chrome driver initialized successfully") || !strings.Contains(out, "Tests Run: 4") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !d.closed {
		t.Error("browser session was not closed")
	}
}

func TestRun_BrowserUnavailableRunsNothing(t *testing.T) {
	stubBrowser(t, nil, errors.New("chrome not found"))

	code, out, errOut := runCLI("run", "--suite", "frontend")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if strings.Contains(out, "PASS") || strings.Contains(out, "FAIL -") || strings.Contains(out, "Starting") {
		t.Errorf("no checks may run without a browser:\n%s", out)
	}
	if !strings.Contains(errOut, "chrome not found") {
		t.Errorf("expected browser error on stderr, got %q", errOut)
	}
}

func TestSetupLogging_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "smokecheck.log")
	logger, closer, err := setupLogging("info", path, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}
	logger.Info("hello from test")
	if err := closer.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file missing message: %s", data)
	}
}

func TestSetupLogging_Stderr(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := setupLogging("warn", "", &buf)
	if err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected log output %q", buf.String())
	}
}
