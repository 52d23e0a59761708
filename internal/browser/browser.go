package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Options control how Chromium is launched.
type Options struct {
	Headless       bool
	SlowMo         time.Duration
	InstallDrivers bool
	WindowWidth    int
	WindowHeight   int
}

// Manager owns the playwright driver and one Chromium process. Every test
// gets its own isolated context through NewSession.
type Manager struct {
	pw      *playwright.Playwright
	Browser playwright.Browser
}

func NewManager(opts Options) (*Manager, error) {
	if opts.InstallDrivers {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("install pw failed: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start pw failed: %w", err)
	}

	args := []string{
		// hide navigator.webdriver from the target site
		"--disable-blink-features=AutomationControlled",
		"--disable-features=IsolateOrigins,site-per-process",
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		args = append(args, fmt.Sprintf("--window-size=%d,%d", opts.WindowWidth, opts.WindowHeight))
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(opts.SlowMo.Milliseconds())),
		Args:     args,
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium failed: %w", err)
	}

	return &Manager{
		pw:      pw,
		Browser: b,
	}, nil
}

func (m *Manager) Close() {
	if m.Browser != nil {
		_ = m.Browser.Close()
	}
	if m.pw != nil {
		_ = m.pw.Stop()
	}
}
