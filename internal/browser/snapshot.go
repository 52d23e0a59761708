package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// PageSnapshot is what we attach to reports when a step needs evidence.
type PageSnapshot struct {
	URL        string
	Title      string
	HTML       string
	Screenshot []byte
}

// Snapshot captures a full-page PNG and the page HTML. A failed screenshot
// is not fatal, the HTML alone is still useful for diagnosis.
func Snapshot(page playwright.Page) (*PageSnapshot, error) {
	if page == nil {
		return nil, fmt.Errorf("page is not initialized")
	}

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("read page content failed: %w", err)
	}

	title, _ := page.Title()

	shot, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypePng,
	})
	if err != nil {
		shot = nil
	}

	return &PageSnapshot{
		URL:        page.URL(),
		Title:      title,
		HTML:       html,
		Screenshot: shot,
	}, nil
}

// Screenshot takes a full-page PNG.
func Screenshot(page playwright.Page) ([]byte, error) {
	buf, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}
