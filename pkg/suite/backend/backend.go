// Package backend is the function-endpoint suite: it probes the deployed
// API proxy and due diligence functions of an AI Diligence Pro instance and
// accepts auth and throttling responses as proof the endpoints exist.
package backend

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kylerisse/smokecheck/pkg/check"
	chttp "github.com/kylerisse/smokecheck/pkg/check/http"
	"github.com/kylerisse/smokecheck/pkg/suite"
	"golang.org/x/time/rate"
)

const (
	// Name is the registry key of the suite.
	Name = "backend"

	// DefaultBaseURL is the local function emulator address.
	DefaultBaseURL = "http://localhost:3000"

	// BurstSize is the number of requests sent by the rate limiting probe.
	BurstSize = 5

	// BurstInterval is the pause between burst requests.
	BurstInterval = 100 * time.Millisecond
)

// Descriptor describes the backend suite.
var Descriptor = suite.Descriptor{
	Name:           Name,
	Title:          "AI Diligence Pro Backend Tests",
	Summary:        "Function endpoints, CORS, request validation and rate limiting",
	DefaultBaseURL: DefaultBaseURL,
	Threshold:      0.70,
}

// Register adds the backend suite to reg.
func Register(reg *suite.Registry) error {
	return reg.Register(Descriptor, Checks)
}

// Checks builds the backend checks in execution order.
func Checks(env suite.Env) ([]check.Check, error) {
	s, err := chttp.New(env.BaseURL, chttp.WithLogger(env.Log()))
	if err != nil {
		return nil, fmt.Errorf("backend: %w", err)
	}
	p := &probes{session: s, interval: BurstInterval}

	return []check.Check{
		check.New("Application Health Check", p.health),
		check.New("Firebase Functions Structure", p.functionsStructure),
		check.New("API Proxy Endpoint", p.apiProxy),
		check.New("Due Diligence Endpoint", p.dueDiligence),
		check.New("Invalid Endpoint Handling", p.invalidEndpoint),
		check.New("CORS Headers", p.cors),
		check.New("Request Validation", p.requestValidation),
		check.New("Rate Limiting", p.rateLimiting),
	}, nil
}

type probes struct {
	session  *chttp.Session
	interval time.Duration
}

var (
	proxyAccept        = chttp.Accept(200, 401, 403, 429)
	dueDiligenceAccept = chttp.Accept(200, 401, 403, 429, 500)
	invalidAccept      = chttp.Accept(404, 200)
	validationAccept   = chttp.Accept(400, 401, 403)

	proxyNotes = chttp.AuthNotes.With(chttp.Notes{
		200: "Success - API proxy working",
	})
	dueDiligenceNotes = chttp.AuthNotes.With(chttp.Notes{
		200: "Success - Due diligence generation working",
		500: "Server error - may indicate configuration issues",
	})
	validationNotes = chttp.Notes{
		400: "Proper validation - invalid JSON rejected",
		401: "Auth check before validation - acceptable",
		403: "Auth check before validation - acceptable",
	}
)

func (p *probes) health(ctx context.Context) (check.Outcome, error) {
	resp, err := p.session.Get(ctx, "/", 0)
	if err != nil {
		return check.Errored(err), nil
	}
	reach := check.Classify(resp.StatusCode)
	if resp.StatusCode != 200 {
		return check.Failf("Status: %d", resp.StatusCode).WithReach(reach), nil
	}
	return check.Passf("Status: %d, Content length: %d", resp.StatusCode, utf8.RuneCountInString(resp.Text())).WithReach(reach), nil
}

// functionsStructure passes when both function endpoints answer with any
// status at all.
func (p *probes) functionsStructure(ctx context.Context) (check.Outcome, error) {
	parts := make([]string, 0, 2)
	ok := true
	for _, path := range []string{suite.DueDiligencePath, suite.ProxyPath} {
		resp, err := p.session.PostJSON(ctx, path, map[string]any{}, 10*time.Second)
		if err != nil {
			ok = false
			parts = append(parts, fmt.Sprintf("%s: Error: %v", path, err))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d", path, resp.StatusCode))
	}
	details := "Endpoints: [" + strings.Join(parts, ", ") + "]"
	if !ok {
		return check.Fail(details), nil
	}
	return check.Pass(details), nil
}

func (p *probes) apiProxy(ctx context.Context) (check.Outcome, error) {
	payload := map[string]any{
		"model":      "gpt-4",
		"messages":   []map[string]string{{"role": "user", "content": "Hello, this is a test"}},
		"max_tokens": 50,
	}
	resp, err := p.session.PostJSON(ctx, suite.ProxyPath, payload, 30*time.Second)
	if err != nil {
		return check.Errored(err), nil
	}
	return judge(resp, proxyAccept, proxyNotes, 100, nil), nil
}

func (p *probes) dueDiligence(ctx context.Context) (check.Outcome, error) {
	payload := map[string]any{
		"companyName": "Apple Inc.",
		"ticker":      "AAPL",
		"allowCached": true,
	}
	resp, err := p.session.PostJSON(ctx, suite.DueDiligencePath, payload, 60*time.Second)
	if err != nil {
		return check.Errored(err), nil
	}
	return judge(resp, dueDiligenceAccept, dueDiligenceNotes, 200, reportShape), nil
}

// reportShape describes a successful due diligence payload.
func reportShape(resp *chttp.Response) string {
	if resp.StatusCode != 200 {
		return ""
	}
	data, ok := resp.Body.Field("data")
	if !ok {
		return ""
	}
	extra := fmt.Sprintf(", Has data: %t", check.Truthy(data))
	if cached, _ := resp.Body.Field("cached"); check.Truthy(cached) {
		extra += ", Cached response"
	}
	return extra
}

// judge turns a function response into an Outcome. Structured bodies get
// the status remark and are attached as the response; raw bodies get a
// snippet of their text instead of the remark.
func judge(resp *chttp.Response, accept chttp.StatusSet, notes chttp.Notes, snippet int, shape func(*chttp.Response) string) check.Outcome {
	var details string
	if resp.Body.Structured() {
		details = notes.Describe(resp.StatusCode)
		if shape != nil {
			details += shape(resp)
		}
	} else {
		details = fmt.Sprintf("Status: %d, Response: %s", resp.StatusCode, resp.Body.Snippet(snippet))
	}

	out := check.Fail(details)
	if accept.Contains(resp.StatusCode) {
		out = check.Pass(details)
	}
	return out.WithResponse(resp.Body).WithReach(check.Classify(resp.StatusCode))
}

func (p *probes) invalidEndpoint(ctx context.Context) (check.Outcome, error) {
	resp, err := p.session.Get(ctx, "/api/nonexistent", 0)
	if err != nil {
		return check.Errored(err), nil
	}
	out := check.Failf("Status: %d", resp.StatusCode)
	if invalidAccept.Contains(resp.StatusCode) {
		out = check.Passf("Status: %d", resp.StatusCode)
	}
	return out.WithReach(check.Classify(resp.StatusCode)), nil
}

// cors sends a preflight for a POST to the proxy. Any Access-Control-*
// header passes, and so does 405 from a server without OPTIONS routes.
func (p *probes) cors(ctx context.Context) (check.Outcome, error) {
	header := map[string][]string{
		"Origin":                        {p.session.BaseURL()},
		"Access-Control-Request-Method": {"POST"},
	}
	resp, err := p.session.Options(ctx, suite.ProxyPath, header, 0)
	if err != nil {
		return check.Errored(err), nil
	}

	hasCORS := resp.HasHeaderPrefix("access-control")
	details := fmt.Sprintf("Status: %d", resp.StatusCode)
	if hasCORS {
		details += ", CORS headers present"
	} else {
		details += ", No CORS headers (may be handled differently)"
	}
	if hasCORS || resp.StatusCode == 405 {
		return check.Pass(details), nil
	}
	return check.Fail(details), nil
}

func (p *probes) requestValidation(ctx context.Context) (check.Outcome, error) {
	resp, err := p.session.PostRaw(ctx, suite.DueDiligencePath, "invalid json", 10*time.Second)
	if err != nil {
		return check.Errored(err), nil
	}
	details := validationNotes.Describe(resp.StatusCode)
	out := check.Fail(details)
	if validationAccept.Contains(resp.StatusCode) {
		out = check.Pass(details)
	}
	return out.WithReach(check.Classify(resp.StatusCode)), nil
}

// rateLimiting sends a short paced burst and passes when the endpoint
// answered consistently, i.e. with at most two distinct status codes.
func (p *probes) rateLimiting(ctx context.Context) (check.Outcome, error) {
	limiter := rate.NewLimiter(rate.Every(p.interval), 1)
	codes := make([]int, 0, BurstSize)

	for i := 0; i < BurstSize; i++ {
		if err := limiter.Wait(ctx); err != nil {
			return check.Errored(err), nil
		}
		resp, err := p.session.PostJSON(ctx, suite.DueDiligencePath, map[string]any{
			"companyName": fmt.Sprintf("Test Company %d", i),
		}, 5*time.Second)
		if err != nil {
			return check.Errored(err), nil
		}
		codes = append(codes, resp.StatusCode)
	}

	return BurstOutcome(codes), nil
}

// BurstOutcome judges the status codes of a burst in the order received.
func BurstOutcome(codes []int) check.Outcome {
	distinct := make(map[int]struct{}, len(codes))
	var throttled, auth bool
	for _, c := range codes {
		distinct[c] = struct{}{}
		switch c {
		case 429:
			throttled = true
		case 401, 403:
			auth = true
		}
	}

	details := "Response codes: " + chttp.FormatCodes(codes)
	reach := check.ReachNone
	switch {
	case throttled:
		details += " (Rate limiting active)"
		reach = check.ReachThrottled
	case auth:
		details += " (Auth required - expected)"
		reach = check.ReachAuth
	default:
		details += " (No rate limiting detected in test)"
		if len(codes) > 0 {
			reach = check.Classify(codes[0])
		}
	}

	if len(distinct) <= 2 {
		return check.Pass(details).WithReach(reach)
	}
	return check.Fail(details).WithReach(reach)
}
