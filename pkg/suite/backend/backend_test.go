package backend

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kylerisse/smokecheck/internal/fakeapp"
	"github.com/kylerisse/smokecheck/pkg/check"
	"github.com/kylerisse/smokecheck/pkg/harness"
	"github.com/kylerisse/smokecheck/pkg/suite"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func startApp(t *testing.T, cfg fakeapp.Config) (*fakeapp.App, string) {
	t.Helper()
	app := fakeapp.New(cfg)
	srv := httptest.NewServer(app.Router())
	t.Cleanup(srv.Close)
	return app, srv.URL
}

func checksFor(t *testing.T, baseURL string) []check.Check {
	t.Helper()
	checks, err := Checks(suite.Env{BaseURL: baseURL, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Checks failed: %v", err)
	}
	return checks
}

func runSuite(t *testing.T, baseURL string) harness.Report {
	t.Helper()
	h := harness.New(harness.WithOutput(&bytes.Buffer{}), harness.WithLogger(quietLogger()))
	return h.Run(context.Background(), checksFor(t, baseURL)...)
}

func byName(t *testing.T, rep harness.Report, name string) check.Result {
	t.Helper()
	for _, r := range rep.Results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no result named %q", name)
	return check.Result{}
}

func runOne(t *testing.T, baseURL, name string) check.Outcome {
	t.Helper()
	for _, c := range checksFor(t, baseURL) {
		if c.Name() == name {
			out, err := c.Run(context.Background())
			if err != nil {
				t.Fatalf("%s returned error: %v", name, err)
			}
			return out
		}
	}
	t.Fatalf("no check named %q", name)
	return check.Outcome{}
}

func TestChecks_Order(t *testing.T) {
	var names []string
	for _, c := range checksFor(t, "http://localhost:3000") {
		names = append(names, c.Name())
		if c.Category() != "" {
			t.Errorf("%s: backend checks are uncategorized, got %q", c.Name(), c.Category())
		}
	}
	want := []string{
		"Application Health Check",
		"Firebase Functions Structure",
		"API Proxy Endpoint",
		"Due Diligence Endpoint",
		"Invalid Endpoint Handling",
		"CORS Headers",
		"Request Validation",
		"Rate Limiting",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("check order mismatch (-want +got):\n%s", diff)
	}
}

func TestChecks_InvalidBaseURL(t *testing.T) {
	if _, err := Checks(suite.Env{BaseURL: "localhost:3000"}); err == nil {
		t.Error("expected error for base URL without scheme")
	}
}

func TestSuite_UnauthenticatedDeploymentPasses(t *testing.T) {
	app, url := startApp(t, fakeapp.Config{})
	rep := runSuite(t, url)

	if rep.Summary.Total != 8 || rep.Summary.Failed != 0 {
		for _, r := range harness.Failed(rep.Results) {
			t.Logf("failed: %s: %s", r.Name, r.Details)
		}
		t.Fatalf("expected 8 passing checks, got %+v", rep.Summary)
	}
	if !rep.Pass {
		t.Error("expected verdict to pass")
	}

	proxy := byName(t, rep, "API Proxy Endpoint")
	if proxy.Details != "Status: 401 (Authentication required - expected)" {
		t.Errorf("unexpected proxy details %q", proxy.Details)
	}
	if proxy.Reach != check.ReachAuth {
		t.Errorf("expected auth reach, got %q", proxy.Reach)
	}
	if proxy.ResponseData == nil || !proxy.ResponseData.Structured() {
		t.Errorf("expected structured response data, got %+v", proxy.ResponseData)
	}

	if got := byName(t, rep, "Application Health Check").Details; !strings.HasPrefix(got, "Status: 200, Content length: ") {
		t.Errorf("unexpected health details %q", got)
	}
	if got := byName(t, rep, "Firebase Functions Structure").Details; got != "Endpoints: [/api/generateDueDiligence: 401, /api/proxy: 401]" {
		t.Errorf("unexpected structure details %q", got)
	}
	if got := byName(t, rep, "Invalid Endpoint Handling").Details; got != "Status: 404" {
		t.Errorf("unexpected invalid endpoint details %q", got)
	}
	if got := byName(t, rep, "CORS Headers").Details; got != "Status: 405, No CORS headers (may be handled differently)" {
		t.Errorf("unexpected CORS details %q", got)
	}
	if got := byName(t, rep, "Request Validation").Details; got != "Status: 401 (Auth check before validation - acceptable)" {
		t.Errorf("unexpected validation details %q", got)
	}
	if got := byName(t, rep, "Rate Limiting").Details; got != "Response codes: [401, 401, 401, 401, 401] (Auth required - expected)" {
		t.Errorf("unexpected rate limiting details %q", got)
	}

	// 2 structure + proxy + due diligence + validation + 5 burst.
	if app.Calls() != 10 {
		t.Errorf("expected 10 function calls, got %d", app.Calls())
	}
}

func TestSuite_UnreachableTargetFailsEverything(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rep := runSuite(t, url)
	if rep.Summary.Total != 8 || rep.Summary.Passed != 0 {
		t.Fatalf("expected 8 failures, got %+v", rep.Summary)
	}
	for _, r := range rep.Results {
		if !strings.HasPrefix(r.Details, "Error: ") && !strings.HasPrefix(r.Details, "Endpoints: ") {
			t.Errorf("%s: expected transport error details, got %q", r.Name, r.Details)
		}
	}
	if rep.Pass || harness.ExitCode(rep.Pass) != 1 {
		t.Error("expected failing verdict and exit code 1")
	}
}

func TestDueDiligence_SuccessShape(t *testing.T) {
	_, url := startApp(t, fakeapp.Config{FunctionStatus: http.StatusOK})
	out := runOne(t, url, "Due Diligence Endpoint")
	want := "Status: 200 (Success - Due diligence generation working), Has data: true, Cached response"
	if !out.Success || out.Details != want {
		t.Errorf("expected %q, got %+v", want, out)
	}
	if out.Reach != check.ReachOK {
		t.Errorf("expected ok reach, got %q", out.Reach)
	}
}

func TestDueDiligence_EmptyData(t *testing.T) {
	_, url := startApp(t, fakeapp.Config{FunctionStatus: http.StatusOK, FunctionBody: `{"data":{},"cached":false}`})
	out := runOne(t, url, "Due Diligence Endpoint")
	if !strings.HasSuffix(out.Details, ", Has data: false") {
		t.Errorf("unexpected details %q", out.Details)
	}
}

func TestDueDiligence_ServerErrorAccepted(t *testing.T) {
	_, url := startApp(t, fakeapp.Config{FunctionStatus: http.StatusInternalServerError})
	out := runOne(t, url, "Due Diligence Endpoint")
	if !out.Success || out.Details != "Status: 500 (Server error - may indicate configuration issues)" {
		t.Errorf("unexpected outcome %+v", out)
	}
	if out.Reach != check.ReachServerError {
		t.Errorf("expected server error reach, got %q", out.Reach)
	}
}

func TestAPIProxy_RawBodyFailure(t *testing.T) {
	_, url := startApp(t, fakeapp.Config{
		FunctionStatus: http.StatusBadGateway,
		FunctionBody:   "<html>" + strings.Repeat("x", 200) + "</html>",
	})
	out := runOne(t, url, "API Proxy Endpoint")
	if out.Success {
		t.Fatal("expected 502 to fail")
	}
	want := "Status: 502, Response: <html>" + strings.Repeat("x", 94)
	if out.Details != want {
		t.Errorf("expected 100-char snippet, got %q", out.Details)
	}
	if out.Response == nil || out.Response.Structured() {
		t.Errorf("expected raw response attached, got %+v", out.Response)
	}
}

func TestCORS_HeadersPresent(t *testing.T) {
	_, url := startApp(t, fakeapp.Config{CORS: true})
	out := runOne(t, url, "CORS Headers")
	if !out.Success || !strings.HasSuffix(out.Details, ", CORS headers present") {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestCORS_NoHeadersNo405Fails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	out := runOne(t, srv.URL, "CORS Headers")
	if out.Success {
		t.Errorf("expected failure, got %+v", out)
	}
}

func TestRequestValidation_Rejected(t *testing.T) {
	_, url := startApp(t, fakeapp.Config{ValidateJSON: true})
	out := runOne(t, url, "Request Validation")
	if !out.Success || out.Details != "Status: 400 (Proper validation - invalid JSON rejected)" {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestRequestValidation_AcceptedFails(t *testing.T) {
	_, url := startApp(t, fakeapp.Config{FunctionStatus: http.StatusOK})
	out := runOne(t, url, "Request Validation")
	if out.Success || out.Details != "Status: 200" {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestRateLimiting_ActiveLimiter(t *testing.T) {
	_, url := startApp(t, fakeapp.Config{FunctionStatus: http.StatusOK, RateLimitAfter: 2})
	out := runOne(t, url, "Rate Limiting")
	want := "Response codes: [200, 200, 429, 429, 429] (Rate limiting active)"
	if !out.Success || out.Details != want {
		t.Errorf("expected %q, got %+v", want, out)
	}
}

func TestBurstOutcome(t *testing.T) {
	tests := []struct {
		name    string
		codes   []int
		success bool
		details string
	}{
		{"throttled", []int{200, 200, 429, 429, 429}, true, "Response codes: [200, 200, 429, 429, 429] (Rate limiting active)"},
		{"auth", []int{401, 401, 401, 401, 401}, true, "Response codes: [401, 401, 401, 401, 401] (Auth required - expected)"},
		{"none", []int{200, 200, 200, 200, 200}, true, "Response codes: [200, 200, 200, 200, 200] (No rate limiting detected in test)"},
		{"inconsistent", []int{200, 401, 500, 500, 500}, false, "Response codes: [200, 401, 500, 500, 500] (Auth required - expected)"},
		{"throttle wins", []int{401, 429, 503, 401, 401}, false, "Response codes: [401, 429, 503, 401, 401] (Rate limiting active)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := BurstOutcome(tt.codes)
			if out.Success != tt.success || out.Details != tt.details {
				t.Errorf("got %+v, want success=%v details=%q", out, tt.success, tt.details)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	reg := suite.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	desc, err := reg.Describe(Name)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if desc.DefaultBaseURL != DefaultBaseURL || desc.Threshold != harness.DefaultThreshold || desc.NeedsBrowser {
		t.Errorf("unexpected descriptor %+v", desc)
	}
}
