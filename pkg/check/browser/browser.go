// Package browser drives a headless Chrome session for UI smoke checks.
//
// Checks depend on the Driver interface; Session is the chromedp-backed
// implementation. A Session is acquired once before a suite runs and must
// be released with Close, which also stops the Chrome process.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultActionTimeout bounds a single browser action.
	DefaultActionTimeout = 10 * time.Second

	// LevelSevere marks console entries that indicate page errors.
	LevelSevere = "SEVERE"
)

// ConsoleEntry is a browser console message.
type ConsoleEntry struct {
	Level   string
	Message string
}

// Driver is the browser capability set used by checks.
type Driver interface {
	// Navigate loads url and waits for the document body.
	Navigate(ctx context.Context, url string) error

	// Title returns the current document title.
	Title(ctx context.Context) (string, error)

	// WaitForText waits until an element whose text contains text is present.
	WaitForText(ctx context.Context, text string, timeout time.Duration) error

	// HasText reports whether an element whose text contains text is present now.
	HasText(ctx context.Context, text string) (bool, error)

	// ClickText clicks the first element whose text contains text.
	ClickText(ctx context.Context, text string) error

	// HasElement reports whether a CSS selector matches now.
	HasElement(ctx context.Context, selector string) (bool, error)

	// SelectValue sets the value of a <select> matched by a CSS selector.
	SelectValue(ctx context.Context, selector, value string) error

	// ConsoleErrors returns the severe console entries seen so far.
	ConsoleErrors() ([]ConsoleEntry, error)

	// Pause waits for d or until ctx is done.
	Pause(ctx context.Context, d time.Duration) error
}

// Session is a chromedp-backed Driver.
type Session struct {
	headless      bool
	width, height int
	execPath      string
	actionTimeout time.Duration
	logger        *logrus.Logger

	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	mu      sync.Mutex
	console []ConsoleEntry
	closed  bool
}

// Option is a functional option for configuring a Session.
type Option func(*Session) error

// WithHeadless toggles headless mode. Defaults to true.
func WithHeadless(headless bool) Option {
	return func(s *Session) error {
		s.headless = headless
		return nil
	}
}

// WithWindowSize sets the browser window size. Defaults to 1920x1080.
func WithWindowSize(width, height int) Option {
	return func(s *Session) error {
		if width <= 0 || height <= 0 {
			return fmt.Errorf("window size must be positive, got %dx%d", width, height)
		}
		s.width, s.height = width, height
		return nil
	}
}

// WithExecPath sets the Chrome binary. Empty means autodetect.
func WithExecPath(path string) Option {
	return func(s *Session) error {
		s.execPath = path
		return nil
	}
}

// WithActionTimeout sets the default timeout of a single action.
func WithActionTimeout(d time.Duration) Option {
	return func(s *Session) error {
		if d <= 0 {
			return fmt.Errorf("action timeout must be positive, got %v", d)
		}
		s.actionTimeout = d
		return nil
	}
}

// WithLogger sets the logger used for browser diagnostics.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Session) error {
		if l == nil {
			return fmt.Errorf("logger must not be nil")
		}
		s.logger = l
		return nil
	}
}

// Acquire starts Chrome and returns a ready Session. Failure to start the
// browser is returned as an error; callers must not run browser checks then.
func Acquire(ctx context.Context, opts ...Option) (*Session, error) {
	s := &Session{
		headless:      true,
		width:         1920,
		height:        1080,
		actionTimeout: DefaultActionTimeout,
		logger:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("browser: %w", err)
		}
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.WindowSize(s.width, s.height),
	)
	if s.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(s.execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(s.logger.Debugf))
	s.ctx, s.cancel, s.allocCancel = browserCtx, cancel, allocCancel

	chromedp.ListenTarget(browserCtx, s.onEvent)

	if err := chromedp.Run(browserCtx, runtime.Enable(), cdplog.Enable()); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("browser: starting chrome: %w", err)
	}
	s.logger.Debugf("Chrome session started (headless=%v, %dx%d)", s.headless, s.width, s.height)
	return s, nil
}

// Close stops the browser. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("browser: closing chrome: %w", err)
	}
	s.logger.Debug("Chrome session closed")
	return nil
}

// onEvent records console errors, uncaught exceptions and error log entries.
func (s *Session) onEvent(ev any) {
	var entry *ConsoleEntry
	switch ev := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		if ev.Type != runtime.APITypeError {
			return
		}
		parts := make([]string, 0, len(ev.Args))
		for _, arg := range ev.Args {
			parts = append(parts, remoteText(arg))
		}
		entry = &ConsoleEntry{Level: LevelSevere, Message: strings.Join(parts, " ")}
	case *runtime.EventExceptionThrown:
		if ev.ExceptionDetails == nil {
			return
		}
		msg := ev.ExceptionDetails.Text
		if ev.ExceptionDetails.Exception != nil && ev.ExceptionDetails.Exception.Description != "" {
			msg = ev.ExceptionDetails.Exception.Description
		}
		entry = &ConsoleEntry{Level: LevelSevere, Message: msg}
	case *cdplog.EventEntryAdded:
		if ev.Entry == nil || ev.Entry.Level != cdplog.LevelError {
			return
		}
		entry = &ConsoleEntry{Level: LevelSevere, Message: ev.Entry.Text}
	default:
		return
	}

	s.mu.Lock()
	s.console = append(s.console, *entry)
	s.mu.Unlock()
}

func remoteText(o *runtime.RemoteObject) string {
	if o == nil {
		return ""
	}
	if len(o.Value) > 0 {
		return strings.Trim(string(o.Value), `"`)
	}
	return o.Description
}

// run executes actions with a timeout, stopping early if ctx is done.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = s.actionTimeout
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	actx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(actx, actions...)
}

// Navigate loads url and waits for the body element.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, 0, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// Title returns the document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, 0, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	return title, nil
}

// WaitForText waits for an element containing text.
func (s *Session) WaitForText(ctx context.Context, text string, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.WaitReady(TextXPath(text), chromedp.BySearch)); err != nil {
		return fmt.Errorf("wait for %q: %w", text, err)
	}
	return nil
}

// HasText checks for an element containing text without waiting.
func (s *Session) HasText(ctx context.Context, text string) (bool, error) {
	return s.present(ctx, TextXPath(text), chromedp.BySearch)
}

// HasElement checks a CSS selector without waiting.
func (s *Session) HasElement(ctx context.Context, selector string) (bool, error) {
	return s.present(ctx, selector, chromedp.ByQuery)
}

func (s *Session) present(ctx context.Context, sel string, by chromedp.QueryOption) (bool, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, 0, chromedp.Nodes(sel, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return false, fmt.Errorf("query %q: %w", sel, err)
	}
	return len(nodes) > 0, nil
}

// ClickText clicks the first element containing text.
func (s *Session) ClickText(ctx context.Context, text string) error {
	if err := s.run(ctx, 0, chromedp.Click(TextXPath(text), chromedp.BySearch)); err != nil {
		return fmt.Errorf("click %q: %w", text, err)
	}
	return nil
}

// SelectValue sets a select element's value and fires its change event.
// It fails when the element has no option with that value.
func (s *Session) SelectValue(ctx context.Context, selector, value string) error {
	var problem string
	err := s.run(ctx, 0,
		chromedp.SetValue(selector, value, chromedp.ByQuery),
		chromedp.Evaluate(selectScript(selector, value), &problem),
	)
	if err != nil {
		return fmt.Errorf("select %q in %q: %w", value, selector, err)
	}
	if problem != "" {
		return fmt.Errorf("select %q in %q: %s", value, selector, problem)
	}
	return nil
}

// selectScript confirms a select took value and dispatches change. It
// evaluates to an empty string on success. Assigning a value no option
// carries leaves a select empty instead of raising.
func selectScript(selector, value string) string {
	return fmt.Sprintf(`(function(){`+
		`var el=document.querySelector(%q);`+
		`if(!el){return "element disappeared";}`+
		`if(el.value!==%q){return "no such option";}`+
		`el.dispatchEvent(new Event('change',{bubbles:true}));`+
		`return "";})()`, selector, value)
}

// ConsoleErrors returns a copy of the severe console entries seen so far.
func (s *Session) ConsoleErrors() ([]ConsoleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConsoleEntry, len(s.console))
	copy(out, s.console)
	return out, nil
}

// Pause waits for d or until ctx is done.
func (s *Session) Pause(ctx context.Context, d time.Duration) error {
	return Pause(ctx, d)
}

// Pause waits for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TextXPath returns an XPath matching elements whose own text contains text.
func TextXPath(text string) string {
	return fmt.Sprintf("//*[contains(text(), %s)]", xpathLiteral(text))
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = "'" + p + "'"
	}
	return "concat(" + strings.Join(quoted, `, "'", `) + ")"
}
