package boardbot

import (
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/nbenliogludev/boardbot-e2e/internal/browser"
)

// ExtractProducts reads up to max rows of the results table in row order.
// For rows with a More Info button the URL of the tab it opens is recorded;
// any per-row failure keeps the N/A placeholder. Only context cancellation
// and an unreadable table are returned as errors.
func (p *Page) ExtractProducts(ctx context.Context, max int) ([]ProductInfo, error) {
	p.logger.Info().Msg("Extracting product information from results table")

	table, err := p.ReadTable()
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		p.logger.Warn().Msg("Results table is empty or missing")
		return nil, nil
	}

	for f, ok := range table.Columns.Resolved {
		if ok {
			p.logger.Debug().Str("field", f.String()).Int("column", table.Columns.Index[f]).Msg("Column resolved from header")
		}
	}

	n := len(table.Rows)
	if max > 0 && n > max {
		n = max
	}
	p.logger.Info().Int("rows", len(table.Rows)).Int("extracting", n).Msg("Found products in table")

	products := make([]ProductInfo, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return products, err
		}

		row := table.Rows[i]
		info := productFromRow(row, table.Columns)
		p.logger.Info().Msgf("Product %d: %s", i+1, info.ProductName)

		if row.MoreInfoCell < 0 {
			p.logger.Warn().Int("row", i+1).Msg("More Info button not found")
		} else {
			url, err := p.captureNewTabURL(ctx, p.moreInfoButton(row))
			if err != nil {
				if ctx.Err() != nil {
					return products, ctx.Err()
				}
				p.logger.Warn().Int("row", i+1).Err(err).Msg("Error extracting URL")
			} else {
				info.MoreInfoURL = url
				p.logger.Info().Str("url", url).Msg("URL extracted from new tab")
			}
		}

		products = append(products, info)
	}

	p.logger.Info().Int("count", len(products)).Msg("Product extraction complete")
	return products, nil
}

// captureNewTabURL arms the new-page listener, clicks btn, and returns the
// URL of the tab that opened. The tab is always closed.
func (p *Page) captureNewTabURL(ctx context.Context, btn playwright.Locator) (string, error) {
	tab, err := p.openInNewTab(btn)
	if err != nil {
		return "", err
	}
	defer func() { _ = tab.Close() }()

	if err := browser.Pause(ctx, p.timing.TabSettleDelay); err != nil {
		return "", err
	}
	return tab.URL(), nil
}

// errNoNewTab means the click worked but nothing opened in the window.
var errNoNewTab = errors.New("no new tab opened")

func (p *Page) openInNewTab(btn playwright.Locator) (playwright.Page, error) {
	clicked := false
	tab, err := p.page.Context().ExpectPage(func() error {
		if err := btn.Click(); err != nil {
			return err
		}
		clicked = true
		return nil
	}, playwright.BrowserContextExpectPageOptions{
		Timeout: browser.Millis(p.timing.NewTabTimeout),
	})
	if err != nil {
		if clicked {
			return nil, errNoNewTab
		}
		return nil, fmt.Errorf("failed to click More Info: %w", err)
	}

	if err := tab.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: browser.Millis(p.timing.NewTabTimeout),
	}); err != nil {
		p.logger.Debug().Err(err).Msg("New tab did not reach domcontentloaded")
	}
	return tab, nil
}
