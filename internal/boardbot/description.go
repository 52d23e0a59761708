package boardbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/nbenliogludev/boardbot-e2e/internal/browser"
)

// DetailSource is one place an in-page product description may live.
type DetailSource struct {
	Name     string
	Selector string
	MinChars int
}

const (
	dialogMinChars  = 100
	sectionMinChars = 50
)

// DetailSources is the order in which in-page detail views are searched.
var DetailSources = []DetailSource{
	{Name: "dialog", Selector: `div[role="dialog"]`, MinChars: dialogMinChars},
	{Name: "modal content", Selector: ".modal-content", MinChars: dialogMinChars},
	{Name: "modal body", Selector: ".modal-body", MinChars: dialogMinChars},
	{Name: "popup content", Selector: ".popup-content", MinChars: dialogMinChars},
	{Name: "modal class", Selector: `[class*="modal"]`, MinChars: dialogMinChars},
	{Name: "dialog class", Selector: `[class*="dialog"]`, MinChars: dialogMinChars},
	{Name: "popup class", Selector: `[class*="popup"]`, MinChars: dialogMinChars},
	{Name: "Modal class", Selector: `div[class*="Modal"]`, MinChars: dialogMinChars},
	{Name: "Dialog class", Selector: `div[class*="Dialog"]`, MinChars: dialogMinChars},
	{Name: "expanded row", Selector: `tr.expanded, tr[class*="expand"], td[colspan]`, MinChars: sectionMinChars},
	{Name: "Description section", Selector: "text=Description >> xpath=ancestor::div[1]", MinChars: sectionMinChars},
	{Name: "Specifications section", Selector: "text=Specifications >> xpath=ancestor::div[1]", MinChars: sectionMinChars},
	{Name: "Features section", Selector: "text=Features >> xpath=ancestor::div[1]", MinChars: sectionMinChars},
	{Name: "Product Details section", Selector: "text=Product Details >> xpath=ancestor::div[1]", MinChars: sectionMinChars},
	{Name: "Overview section", Selector: "text=Overview >> xpath=ancestor::div[1]", MinChars: sectionMinChars},
}

var closeSelectors = []string{
	`button:has-text("Close")`,
	`button[aria-label="Close"]`,
	".close-button",
	"button.close",
	`[class*="close"]`,
}

// TextProbe returns the text of the first visible match of selector.
type TextProbe interface {
	VisibleText(selector string) (string, bool)
	BodyText() string
}

// FindDescription walks sources in order and returns the first text longer
// than its source threshold, falling back to the page body. The second
// return value names where the text came from.
func FindDescription(probe TextProbe, sources []DetailSource) (string, string) {
	for _, src := range sources {
		text, ok := probe.VisibleText(src.Selector)
		if !ok {
			continue
		}
		if len([]rune(text)) > src.MinChars {
			return text, src.Name
		}
	}
	return probe.BodyText(), "page body"
}

type pageProbe struct {
	page playwright.Page
}

func (pp pageProbe) VisibleText(selector string) (string, bool) {
	loc := pp.page.Locator(selector).First()
	visible, err := loc.IsVisible()
	if err != nil || !visible {
		return "", false
	}
	text, err := loc.TextContent()
	if err != nil {
		return "", false
	}
	return text, true
}

func (pp pageProbe) BodyText() string {
	text, err := pp.page.Locator("body").TextContent()
	if err != nil {
		return ""
	}
	return text
}

// ErrRowOutOfRange is returned for a product index past the last row.
var ErrRowOutOfRange = errors.New("product row out of range")

// ProductDescription opens the More Info view of the row at index (0-based)
// and returns its text. A new tab yields its body text; otherwise the page
// is searched for an in-page detail view. An empty string with a nil error
// means the row has no More Info control.
func (p *Page) ProductDescription(ctx context.Context, index int) (string, error) {
	p.logger.Info().Msgf("Getting description for Product %d", index+1)

	table, err := p.ReadTable()
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(table.Rows) {
		return "", fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, index, len(table.Rows))
	}

	row := table.Rows[index]
	if row.MoreInfoCell < 0 {
		p.logger.Warn().Int("row", index+1).Msg("More Info button not found")
		return "", nil
	}

	btn := p.moreInfoButton(row)
	if err := btn.ScrollIntoViewIfNeeded(); err != nil {
		p.logger.Debug().Err(err).Msg("Scroll to More Info failed")
	}
	if err := browser.Pause(ctx, p.timing.PreClickPause); err != nil {
		return "", err
	}

	tab, err := p.openInNewTab(btn)
	switch {
	case err == nil:
		defer func() { _ = tab.Close() }()
		if err := browser.Pause(ctx, p.timing.TabSettleDelay); err != nil {
			return "", err
		}
		text, err := tab.Locator("body").TextContent()
		if err != nil {
			return "", fmt.Errorf("failed to read product tab: %w", err)
		}
		p.logger.Info().Int("chars", len(text)).Msg("Description extracted from new tab")
		return text, nil

	case errors.Is(err, errNoNewTab):
		if err := browser.Pause(ctx, p.timing.TabSettleDelay); err != nil {
			return "", err
		}
		text, source := FindDescription(pageProbe{page: p.page}, DetailSources)
		if source == "page body" {
			p.logger.Warn().Msg("Using fallback: getting all page text")
		} else {
			p.logger.Info().Str("source", source).Int("chars", len(text)).Msg("Found in-page product details")
		}
		return text, nil

	default:
		return "", err
	}
}

// CloseProductDetails dismisses an in-page detail view. Nothing to close is fine.
func (p *Page) CloseProductDetails(ctx context.Context) error {
	if err := p.page.Keyboard().Press("Escape"); err != nil {
		p.logger.Debug().Err(err).Msg("Escape key press failed")
	}
	if err := browser.Pause(ctx, p.timing.PostClickPause); err != nil {
		return err
	}

	for _, sel := range closeSelectors {
		btn := p.page.Locator(sel).First()
		visible, err := btn.IsVisible()
		if err != nil || !visible {
			continue
		}
		if err := btn.Click(playwright.LocatorClickOptions{
			Timeout: browser.Millis(shortClickTimeout),
		}); err != nil {
			continue
		}
		p.logger.Debug().Str("selector", sel).Msg("Closed product details")
		break
	}

	return browser.Pause(ctx, p.timing.PostClickPause)
}

// CollapseDescription trims and squeezes whitespace for logs and prompts.
func CollapseDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
