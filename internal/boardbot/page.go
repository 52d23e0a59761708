package boardbot

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/ternarybob/arbor"

	"github.com/nbenliogludev/boardbot-e2e/internal/browser"
	"github.com/nbenliogludev/boardbot-e2e/internal/common"
	"github.com/nbenliogludev/boardbot-e2e/internal/config"
)

const shortClickTimeout = 2 * time.Second

var chatInputName = regexp.MustCompile(`(?i)Ask about products`)

// Page is the BoardBot widget on the PICMG site.
type Page struct {
	page   playwright.Page
	timing config.TimingConfig
	logger arbor.ILogger

	memberProductsLink   playwright.Locator
	acceptCookiesButton  playwright.Locator
	chatInput            playwright.Locator
	askButton            playwright.Locator
	minimizeChatButton   playwright.Locator
	loadingIndicator     playwright.Locator
	resultsTable         playwright.Locator
	primaryResultsTab    playwright.Locator
	secondaryResultsTab  playwright.Locator
	clearSearchButton    playwright.Locator
	restartSessionButton playwright.Locator
}

func NewPage(page playwright.Page, timing config.TimingConfig, logger arbor.ILogger) *Page {
	if logger == nil {
		logger = common.NopLogger()
	}
	return &Page{
		page:   page,
		timing: timing,
		logger: logger,

		memberProductsLink: page.GetByRole(*playwright.AriaRoleLink, playwright.PageGetByRoleOptions{
			Name: "Member Products",
		}),
		acceptCookiesButton: page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
			Name: "Accept All",
		}),
		chatInput: page.GetByRole(*playwright.AriaRoleTextbox, playwright.PageGetByRoleOptions{
			Name: chatInputName,
		}),
		askButton: page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
			Name:  "Ask",
			Exact: playwright.Bool(true),
		}),
		minimizeChatButton: page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
			Name: "Minimize chat",
		}),
		loadingIndicator:     page.Locator(`img[alt="Loading"]`),
		resultsTable:         page.Locator("table").First(),
		primaryResultsTab:    page.GetByText("Primary Results"),
		secondaryResultsTab:  page.GetByText("Secondary Results"),
		clearSearchButton:    page.Locator("text=Clear search parameters"),
		restartSessionButton: page.Locator("text=Restart session"),
	}
}

func (p *Page) URL() string { return p.page.URL() }

// Title returns the document title, or "" when it cannot be read.
func (p *Page) Title() string {
	title, err := p.page.Title()
	if err != nil {
		return ""
	}
	return title
}

// Screenshot captures the full page as PNG.
func (p *Page) Screenshot() ([]byte, error) {
	return browser.Screenshot(p.page)
}

// Snapshot captures screenshot, HTML and location for failure diagnostics.
func (p *Page) Snapshot() (*browser.PageSnapshot, error) {
	return browser.Snapshot(p.page)
}

// Goto opens url and waits for the DOM to be ready.
func (p *Page) Goto(ctx context.Context, url string) error {
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return browser.Pause(ctx, p.timing.SettleDelay)
}

// AcceptCookies dismisses the consent banner. A missing banner is not an error.
func (p *Page) AcceptCookies(ctx context.Context) error {
	if err := browser.Pause(ctx, 2*p.timing.PreClickPause); err != nil {
		return err
	}

	err := p.acceptCookiesButton.Click(playwright.LocatorClickOptions{
		Timeout: browser.Millis(p.timing.CookieTimeout),
	})
	if err != nil {
		p.logger.Info().Msg("Cookies already accepted or dialog not shown")
		return nil
	}

	p.logger.Debug().Msg("Cookie banner accepted")
	return browser.Pause(ctx, p.timing.PreClickPause)
}

// NavigateToMemberProducts opens the Member Products page that hosts the chat.
func (p *Page) NavigateToMemberProducts(ctx context.Context) error {
	if err := p.memberProductsLink.Click(); err != nil {
		return fmt.Errorf("failed to open Member Products: %w", err)
	}
	return browser.Pause(ctx, p.timing.NavigationPause)
}

// Ask types query into the chat box at human speed and submits it.
func (p *Page) Ask(ctx context.Context, query string) error {
	if err := browser.Pause(ctx, p.timing.PreClickPause); err != nil {
		return err
	}
	if err := p.chatInput.Click(); err != nil {
		return fmt.Errorf("failed to focus chat input: %w", err)
	}
	if err := browser.Pause(ctx, p.timing.PostClickPause); err != nil {
		return err
	}

	if err := p.chatInput.Fill(""); err != nil {
		p.logger.Debug().Err(err).Msg("Could not clear chat input")
	}
	if err := p.chatInput.PressSequentially(query, playwright.LocatorPressSequentiallyOptions{
		Delay: browser.Millis(p.timing.KeystrokeDelay),
	}); err != nil {
		return fmt.Errorf("failed to type query: %w", err)
	}

	if err := browser.Pause(ctx, p.timing.PreSubmitPause); err != nil {
		return err
	}
	if err := p.askButton.Click(); err != nil {
		return fmt.Errorf("failed to click Ask: %w", err)
	}

	p.logger.Info().Str("query", query).Msg("Query submitted to BoardBot")
	return nil
}

// ResultsWait tells what WaitForResults actually observed.
type ResultsWait struct {
	LoadingHidden bool
	TableVisible  bool
	Elapsed       time.Duration
}

// WaitForResults waits for the loading indicator to go away and then for the
// results table, each with its own budget. Misses are logged, not returned.
func (p *Page) WaitForResults(ctx context.Context) (ResultsWait, error) {
	start := time.Now()
	var res ResultsWait

	p.logger.Info().Msgf("Waiting up to %.0f seconds for results", p.timing.ResultsTimeout.Seconds())

	if err := p.loadingIndicator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateHidden,
		Timeout: browser.Millis(p.timing.ResultsTimeout),
	}); err != nil {
		p.logger.Info().Msg("Loading indicator not found or still visible")
	} else {
		res.LoadingHidden = true
		p.logger.Info().Msgf("Loading indicator disappeared (%.2fs)", time.Since(start).Seconds())
	}

	if err := p.resultsTable.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: browser.Millis(p.timing.TableTimeout),
	}); err != nil {
		p.logger.Warn().Msg("Results table did not appear")
	} else {
		res.TableVisible = true
		p.logger.Info().Msgf("Results table appeared (%.2fs)", time.Since(start).Seconds())
	}

	if err := browser.Pause(ctx, p.timing.SettleDelay); err != nil {
		return res, err
	}

	res.Elapsed = time.Since(start)
	p.logger.Info().Msgf("Wait complete (total: %.2fs)", res.Elapsed.Seconds())
	return res, nil
}

func (p *Page) MinimizeChat() {
	if err := p.minimizeChatButton.Click(playwright.LocatorClickOptions{
		Timeout: browser.Millis(shortClickTimeout),
	}); err != nil {
		p.logger.Info().Msg("Chat minimize button not found or already minimized")
		return
	}
	p.logger.Info().Msg("Chat minimized")
}

func (p *Page) ClickPrimaryResults() {
	if err := p.primaryResultsTab.Click(playwright.LocatorClickOptions{
		Timeout: browser.Millis(shortClickTimeout),
	}); err != nil {
		p.logger.Info().Msg("Primary Results tab not found or already active")
		return
	}
	p.logger.Info().Msg("Clicked Primary Results tab")
}

func (p *Page) ClickSecondaryResults() {
	if err := p.secondaryResultsTab.Click(playwright.LocatorClickOptions{
		Timeout: browser.Millis(shortClickTimeout),
	}); err != nil {
		p.logger.Info().Msg("Secondary Results tab not found")
		return
	}
	p.logger.Info().Msg("Clicked Secondary Results tab")
}

// ClearSearch resets the search parameters of the current conversation.
func (p *Page) ClearSearch() error {
	if err := p.clearSearchButton.Click(); err != nil {
		return fmt.Errorf("failed to clear search: %w", err)
	}
	return nil
}

// RestartSession starts a fresh BoardBot conversation.
func (p *Page) RestartSession(ctx context.Context) error {
	p.logger.Info().Msg("Restarting session")
	if err := p.restartSessionButton.Click(); err != nil {
		return fmt.Errorf("failed to restart session: %w", err)
	}
	return browser.Pause(ctx, p.timing.NavigationPause)
}

// ProductCount returns the number of body rows with data cells, or 0 when
// the table is absent.
func (p *Page) ProductCount() int {
	n, err := p.resultsTable.Locator("tbody tr:has(td)").Count()
	if err != nil {
		return 0
	}
	return n
}

// ReadTable parses the current results table.
func (p *Page) ReadTable() (*ResultsTable, error) {
	n, err := p.resultsTable.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to locate results table: %w", err)
	}
	if n == 0 {
		return &ResultsTable{Columns: ResolveColumns(nil)}, nil
	}

	inner, err := p.resultsTable.InnerHTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read results table: %w", err)
	}
	return ParseResultsTable("<table>" + inner + "</table>")
}

func (p *Page) moreInfoButton(row Row) playwright.Locator {
	return p.resultsTable.Locator("tbody tr").Nth(row.DOMIndex).
		Locator("td").Nth(row.MoreInfoCell).
		Locator("button").First()
}
