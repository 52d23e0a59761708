package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// SessionOptions describe the isolated browser context of a single test.
type SessionOptions struct {
	BaseURL        string
	UserAgent      string
	AcceptLanguage string
	ViewportWidth  int
	ViewportHeight int
	VideoDir       string
	DefaultTimeout time.Duration
}

// Session is one browser context with its first page.
type Session struct {
	Context playwright.BrowserContext
	Page    playwright.Page
}

func (m *Manager) NewSession(opts SessionOptions) (*Session, error) {
	if m == nil || m.Browser == nil {
		return nil, fmt.Errorf("browser is not initialized")
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if opts.BaseURL != "" {
		ctxOpts.BaseURL = playwright.String(opts.BaseURL)
	}
	if opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		ctxOpts.Viewport = &playwright.Size{Width: opts.ViewportWidth, Height: opts.ViewportHeight}
	}
	if opts.AcceptLanguage != "" {
		ctxOpts.ExtraHttpHeaders = map[string]string{"Accept-Language": opts.AcceptLanguage}
	}
	if opts.VideoDir != "" {
		ctxOpts.RecordVideo = &playwright.RecordVideo{Dir: opts.VideoDir}
	}

	bctx, err := m.Browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("new context failed: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	timeout := opts.DefaultTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	page.SetDefaultTimeout(float64(timeout.Milliseconds()))
	page.SetDefaultNavigationTimeout(float64(timeout.Milliseconds()))

	return &Session{Context: bctx, Page: page}, nil
}

// VideoPath returns where the page video is being recorded, or "" when
// recording is off.
func (s *Session) VideoPath() string {
	if s == nil || s.Page == nil {
		return ""
	}
	video := s.Page.Video()
	if video == nil {
		return ""
	}
	path, err := video.Path()
	if err != nil {
		return ""
	}
	return path
}

// Close closes the context. The video file is complete only after this.
func (s *Session) Close() {
	if s != nil && s.Context != nil {
		_ = s.Context.Close()
	}
}
