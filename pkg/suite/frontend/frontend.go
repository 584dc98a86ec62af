// Package frontend is the browser suite: it loads the single-page app in
// headless Chrome, enters the demo dashboard, exercises its main controls
// and finally inspects the console for severe errors.
package frontend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kylerisse/smokecheck/pkg/check"
	"github.com/kylerisse/smokecheck/pkg/check/browser"
	"github.com/kylerisse/smokecheck/pkg/suite"
)

const (
	// Name is the registry key of the suite.
	Name = "frontend"

	// DefaultBaseURL is the local hosting emulator address.
	DefaultBaseURL = "http://localhost:3001"

	// AppTitle must appear in the document title and the login heading.
	AppTitle = "AI Diligence Pro"
)

// UI labels the checks interact with.
const (
	LabelEnterDemo   = "Enter Demo Platform"
	LabelDashboard   = "MCP Dashboard"
	LabelESG         = "Get ESG Data"
	LabelReport      = "Generate Comprehensive Report"
	LabelIntegration = "MCP Integration Status"
	StockSelector    = "select"
	StockSymbol      = "MSFT"
)

const (
	headingTimeout   = 5 * time.Second
	dashboardTimeout = 10 * time.Second

	// Settle times give the dashboard room to render after an action.
	settleAfterLogin     = 3 * time.Second
	settleAfterSelection = 2 * time.Second
	settleAfterESG       = 3 * time.Second
	settleAfterReport    = 5 * time.Second
)

// Descriptor describes the frontend suite. Every check must pass.
var Descriptor = suite.Descriptor{
	Name:           Name,
	Title:          "AI Diligence Pro Frontend Tests",
	Summary:        "Headless browser walk through login, dashboard and console",
	DefaultBaseURL: DefaultBaseURL,
	Threshold:      1.0,
	NeedsBrowser:   true,
}

// Register adds the frontend suite to reg.
func Register(reg *suite.Registry) error {
	return reg.Register(Descriptor, Checks)
}

// Checks builds the frontend checks in execution order. They share one
// browser session and depend on its state: each check continues on the
// page the previous one left behind.
func Checks(env suite.Env) ([]check.Check, error) {
	if env.Browser == nil {
		return nil, fmt.Errorf("frontend: a browser session is required")
	}
	if env.BaseURL == "" {
		return nil, fmt.Errorf("frontend: base URL must not be empty")
	}
	w := &walk{driver: env.Browser, baseURL: env.BaseURL}

	return []check.Check{
		check.New("Application Load", w.load),
		check.New("Authentication Screen", w.authenticate),
		check.New("Dashboard Features", w.dashboard),
		check.New("Console Errors", w.console),
	}, nil
}

type walk struct {
	driver  browser.Driver
	baseURL string
}

func (w *walk) load(ctx context.Context) (check.Outcome, error) {
	if err := w.driver.Navigate(ctx, w.baseURL); err != nil {
		return check.Failf("Application failed to load: %v", err), nil
	}
	title, err := w.driver.Title(ctx)
	if err != nil {
		return check.Errored(err), nil
	}
	if !strings.Contains(title, AppTitle) {
		return check.Failf("Page title: %q (expected %q)", title, AppTitle), nil
	}
	return check.Passf("Page title: %q", title), nil
}

func (w *walk) authenticate(ctx context.Context) (check.Outcome, error) {
	if err := w.driver.WaitForText(ctx, AppTitle, headingTimeout); err != nil {
		return check.Failf("Authentication screen element not found: %v", err), nil
	}
	found, err := w.driver.HasText(ctx, LabelEnterDemo)
	if err != nil {
		return check.Errored(err), nil
	}
	if !found {
		return check.Failf("Authentication screen element not found: %q button", LabelEnterDemo), nil
	}
	if err := w.driver.ClickText(ctx, LabelEnterDemo); err != nil {
		return check.Errored(err), nil
	}
	if err := w.driver.Pause(ctx, settleAfterLogin); err != nil {
		return check.Errored(err), nil
	}
	if err := w.driver.WaitForText(ctx, LabelDashboard, dashboardTimeout); err != nil {
		return check.Fail("Dashboard did not load after authentication"), nil
	}
	return check.Passf("Found %q heading, clicked %q, entered %s", AppTitle, LabelEnterDemo, LabelDashboard), nil
}

// dashboard exercises the dashboard controls. Missing controls are noted
// in the details but do not fail the check; only driver errors do.
func (w *walk) dashboard(ctx context.Context) (check.Outcome, error) {
	var notes []string

	hasSelect, err := w.driver.HasElement(ctx, StockSelector)
	if err != nil {
		return check.Errored(err), nil
	}
	switch {
	case !hasSelect:
		notes = append(notes, "stock selector not found")
	case w.driver.SelectValue(ctx, StockSelector, StockSymbol) != nil:
		notes = append(notes, fmt.Sprintf("stock selector found but %s could not be selected", StockSymbol))
	default:
		notes = append(notes, "selected "+StockSymbol)
		if err := w.driver.Pause(ctx, settleAfterSelection); err != nil {
			return check.Errored(err), nil
		}
	}

	for _, b := range []struct {
		label  string
		settle time.Duration
	}{
		{LabelESG, settleAfterESG},
		{LabelReport, settleAfterReport},
	} {
		found, err := w.driver.HasText(ctx, b.label)
		if err != nil {
			return check.Errored(err), nil
		}
		if !found {
			notes = append(notes, fmt.Sprintf("%q button not found", b.label))
			continue
		}
		if err := w.driver.ClickText(ctx, b.label); err != nil {
			return check.Errored(err), nil
		}
		notes = append(notes, fmt.Sprintf("clicked %q", b.label))
		if err := w.driver.Pause(ctx, b.settle); err != nil {
			return check.Errored(err), nil
		}
	}

	found, err := w.driver.HasText(ctx, LabelIntegration)
	if err != nil {
		return check.Errored(err), nil
	}
	if found {
		notes = append(notes, fmt.Sprintf("found %q section", LabelIntegration))
	} else {
		notes = append(notes, fmt.Sprintf("%q section not found", LabelIntegration))
	}

	return check.Pass(strings.Join(notes, "; ")), nil
}

// console fails on severe console entries. If the console cannot be read
// the check passes with a note.
func (w *walk) console(context.Context) (check.Outcome, error) {
	entries, err := w.driver.ConsoleErrors()
	if err != nil {
		return check.Passf("Could not check browser console: %v", err), nil
	}

	var severe []string
	for _, e := range entries {
		if e.Level == browser.LevelSevere {
			severe = append(severe, e.Message)
		}
	}
	if len(severe) > 0 {
		return check.Failf("Browser console errors found: %s", strings.Join(severe, "; ")), nil
	}
	return check.Pass("No severe browser console errors found"), nil
}
