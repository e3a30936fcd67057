package rod

import (
	"fmt"
	"sync"

	"github.com/fwojciec/carnet"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the default number of card renders served by one
// Chrome process.
const DefaultMaxPages = 75

// session is one launched Chrome process and the renders it has served.
type session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	renders  int64
}

func (s *session) close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	return err
}

// BrowserManager hands out the Chrome process used to render card pages and
// starts a new one once the current process has served maxPages renders.
// A scan can render thousands of cards and Chrome does not give memory back.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu        sync.Mutex
	current   *session
	maxPages  int64
	noSandbox bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets how many renders one Chrome process serves.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithNoSandbox disables the Chrome sandbox, which Chrome refuses to run
// without when started as root in a container.
func WithNoSandbox(v bool) ManagerOption {
	return func(bm *BrowserManager) {
		bm.noSandbox = v
	}
}

// NewBrowserManager starts the first Chrome process.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(bm)
	}

	s, err := bm.start()
	if err != nil {
		return nil, err
	}
	bm.current = s
	return bm, nil
}

// Browser returns the browser to render the next card with. Callers report
// each finished render with RenderDone. Returns EINVALID after Close.
func (bm *BrowserManager) Browser() (*rod.Browser, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.current == nil {
		return nil, carnet.Errorf(carnet.EINVALID, "browser manager closed")
	}
	if bm.current.renders >= bm.maxPages {
		// A failed restart keeps the worn process; renders still work.
		if s, err := bm.start(); err == nil {
			_ = bm.current.close()
			bm.current = s
		}
	}
	return bm.current.browser, nil
}

// RenderDone counts one render against the current Chrome process.
func (bm *BrowserManager) RenderDone() {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.current != nil {
		bm.current.renders++
	}
}

// Close stops Chrome. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.current == nil {
		return nil
	}
	err := bm.current.close()
	bm.current = nil
	return err
}

// LauncherPID returns the process ID of the Chrome launcher, or 0 after
// Close.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.current == nil {
		return 0
	}
	return bm.current.launcher.PID()
}

func (bm *BrowserManager) start() (*session, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)
	if bm.noSandbox {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching chrome: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to chrome: %w", err)
	}
	return &session{browser: browser, launcher: l}, nil
}
