// Package fakeapp serves an in-process stand-in for the AI Diligence Pro
// deployment: an HTML shell at "/" and the two function endpoints behind
// "/api". Suite tests point the checks at it through httptest.
package fakeapp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Title is the application name embedded in the default page.
const Title = "AI Diligence Pro"

// Config shapes how the fake deployment behaves.
type Config struct {
	// Page is served at "/". Empty means DefaultPage().
	Page string

	// PageStatus is the status of "/". Zero means 200.
	PageStatus int

	// FunctionStatus is returned by the function endpoints for well-formed
	// requests. Zero means 401, as a deployment without credentials does.
	FunctionStatus int

	// FunctionBody is written with FunctionStatus. Empty means a JSON error
	// object, or a due diligence payload for 200.
	FunctionBody string

	// ValidateJSON rejects malformed JSON with 400 before the auth check.
	ValidateJSON bool

	// RateLimitAfter makes every call beyond the first n return 429.
	// Zero disables limiting.
	RateLimitAfter int

	// CORS enables the CORS middleware on every route.
	CORS bool

	// SPAFallback serves the page with 200 for unknown paths instead of 404.
	SPAFallback bool
}

// App is a configured fake deployment.
type App struct {
	cfg Config

	mu    sync.Mutex
	calls int
	paths []string
}

// New creates an App.
func New(cfg Config) *App {
	if cfg.Page == "" {
		cfg.Page = DefaultPage()
	}
	if cfg.PageStatus == 0 {
		cfg.PageStatus = http.StatusOK
	}
	if cfg.FunctionStatus == 0 {
		cfg.FunctionStatus = http.StatusUnauthorized
	}
	return &App{cfg: cfg}
}

// Router returns the HTTP handler for the app.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	if a.cfg.CORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         300,
		}))
	}

	r.Get("/", a.handlePage)
	r.Post("/api/proxy", a.handleFunction)
	r.Post("/api/generateDueDiligence", a.handleFunction)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if a.cfg.SPAFallback && req.Method == http.MethodGet {
			a.handlePage(w, req)
			return
		}
		http.Error(w, "not found", http.StatusNotFound)
	})

	return r
}

// Calls returns how many function requests were served.
func (a *App) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Paths returns the function paths in the order they were called.
func (a *App) Paths() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.paths...)
}

func (a *App) handlePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(a.cfg.PageStatus)
	_, _ = io.WriteString(w, a.cfg.Page)
}

func (a *App) handleFunction(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.calls++
	n := a.calls
	a.paths = append(a.paths, r.URL.Path)
	a.mu.Unlock()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unreadable body"})
		return
	}

	if a.cfg.RateLimitAfter > 0 && n > a.cfg.RateLimitAfter {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"error": "Too many requests"})
		return
	}
	if a.cfg.ValidateJSON && !json.Valid(body) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid JSON"})
		return
	}

	status := a.cfg.FunctionStatus
	if a.cfg.FunctionBody != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, a.cfg.FunctionBody)
		return
	}

	switch status {
	case http.StatusOK:
		writeJSON(w, status, map[string]any{
			"data":   map[string]any{"company": "Apple Inc.", "summary": "Stable outlook"},
			"cached": true,
		})
	case http.StatusUnauthorized:
		writeJSON(w, status, map[string]any{"error": "Unauthorized"})
	default:
		writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DefaultPage returns an index page that carries every marker the
// comprehensive suite looks for.
func DefaultPage() string {
	return Page(Title)
}

// Page returns an index page with the given title.
func Page(title string) string {
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <link rel="icon" type="image/svg+xml" href="/favicon.svg" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>%s</title>
    <script type="module" crossorigin src="/assets/index-4f2a9c1b.js"></script>
    <link rel="stylesheet" href="/assets/index-8d1e0a3f.css">
  </head>
  <body>
    <div id="root" data-framework="react"></div>
    <noscript>MCP dashboard for due diligence with Alpha Vantage, SEC API, AIML and ESG data.</noscript>
    <a href="https://docs.example.com/errors">error reference</a>
  </body>
</html>
`, title)
}
