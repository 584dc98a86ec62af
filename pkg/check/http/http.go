// Package http is the HTTP boundary used by smoke checks. A Session holds
// the target base URL, default headers and timeouts, and turns every
// exchange into a Response whose body is decoded once as either structured
// JSON or raw text.
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kylerisse/smokecheck/pkg/check"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout is the per-call timeout used when a call passes zero.
	DefaultTimeout = 10 * time.Second

	// UserAgent identifies smoke-test traffic in the target's logs.
	UserAgent = "AI-Diligence-Test-Client/1.0"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 4 << 20
)

// Session issues requests against a single base URL.
type Session struct {
	baseURL    *url.URL
	timeout    time.Duration
	skipVerify bool
	header     http.Header
	client     *http.Client
	logger     *logrus.Logger
}

// Option is a functional option for configuring a Session.
type Option func(*Session) error

// WithTimeout sets the default per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		s.timeout = d
		return nil
	}
}

// WithSkipVerify sets whether to skip TLS certificate verification.
func WithSkipVerify(skip bool) Option {
	return func(s *Session) error {
		s.skipVerify = skip
		return nil
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(s *Session) error {
		if key == "" {
			return fmt.Errorf("header name must not be empty")
		}
		s.header.Set(key, value)
		return nil
	}
}

// WithClient replaces the underlying HTTP client.
func WithClient(c *http.Client) Option {
	return func(s *Session) error {
		if c == nil {
			return fmt.Errorf("client must not be nil")
		}
		s.client = c
		return nil
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Session) error {
		if l == nil {
			return fmt.Errorf("logger must not be nil")
		}
		s.logger = l
		return nil
	}
}

// New creates a Session for the given base URL. JSON content type and the
// smoke-test user agent are sent by default.
func New(baseURL string, opts ...Option) (*Session, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}

	s := &Session{
		baseURL:    u,
		timeout:    DefaultTimeout,
		skipVerify: true,
		header:     make(http.Header),
		logger:     logrus.StandardLogger(),
	}
	s.header.Set("Content-Type", "application/json")
	s.header.Set("User-Agent", UserAgent)

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("http: %w", err)
		}
	}

	if s.client == nil {
		s.client = &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: s.skipVerify},
			},
		}
	}

	return s, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("base URL must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", raw)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}

// BaseURL returns the base URL without a trailing slash.
func (s *Session) BaseURL() string {
	return s.baseURL.String()
}

// Host returns the hostname of the base URL, without port.
func (s *Session) Host() string {
	return s.baseURL.Hostname()
}

// URL joins path onto the base URL.
func (s *Session) URL(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.baseURL.String() + path
}

// Request describes a single call. Zero Timeout means the session default.
type Request struct {
	Method  string
	Path    string
	Body    []byte
	Header  http.Header
	Timeout time.Duration
}

// Response is the observed result of a call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       check.Body
	Elapsed    time.Duration

	// Truncated is set when the body exceeded maxBodyBytes and was cut.
	Truncated bool
}

// Text returns the body as received.
func (r *Response) Text() string {
	return r.Body.Text
}

// HasHeaderPrefix reports whether any response header name starts with
// prefix, compared case-insensitively.
func (r *Response) HasHeaderPrefix(prefix string) bool {
	prefix = strings.ToLower(prefix)
	for name := range r.Header {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			return true
		}
	}
	return false
}

// Do executes req. Any transport failure, including the per-call timeout,
// is returned as an error; every received status is a Response.
func (s *Session) Do(ctx context.Context, req Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := s.URL(req.Path)
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", target, err)
	}
	for k, v := range s.header {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	for k, v := range req.Header {
		httpReq.Header[k] = append([]string(nil), v...)
	}

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"method": req.Method,
			"url":    target,
		}).Debugf("Request failed after %v: %v", time.Since(start), err)
		return nil, fmt.Errorf("request to %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s failed: %w", target, err)
	}
	truncated := len(raw) > maxBodyBytes
	if truncated {
		raw = raw[:maxBodyBytes]
		s.logger.WithFields(logrus.Fields{
			"method": req.Method,
			"url":    target,
		}).Warnf("Response body truncated at %d bytes, decoding it as text", maxBodyBytes)
	}

	s.logger.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    target,
		"status": resp.StatusCode,
	}).Debugf("Request completed in %v (%d bytes)", elapsed, len(raw))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       check.DecodeBody(raw),
		Elapsed:    elapsed,
		Truncated:  truncated,
	}, nil
}

// Get issues a GET request.
func (s *Session) Get(ctx context.Context, path string, timeout time.Duration) (*Response, error) {
	return s.Do(ctx, Request{Method: http.MethodGet, Path: path, Timeout: timeout})
}

// Options issues an OPTIONS request with extra headers.
func (s *Session) Options(ctx context.Context, path string, header http.Header, timeout time.Duration) (*Response, error) {
	return s.Do(ctx, Request{Method: http.MethodOptions, Path: path, Header: header, Timeout: timeout})
}

// PostJSON encodes v as JSON and posts it.
func (s *Session) PostJSON(ctx context.Context, path string, v any, timeout time.Duration) (*Response, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding payload for %s: %w", path, err)
	}
	return s.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: payload, Timeout: timeout})
}

// PostRaw posts body verbatim with the session's content type.
func (s *Session) PostRaw(ctx context.Context, path string, body string, timeout time.Duration) (*Response, error) {
	return s.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: []byte(body), Timeout: timeout})
}
