package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/nbenliogludev/boardbot-e2e/internal/allure"
	"github.com/nbenliogludev/boardbot-e2e/internal/boardbot"
	"github.com/nbenliogludev/boardbot-e2e/internal/browser"
	"github.com/nbenliogludev/boardbot-e2e/internal/common"
	"github.com/nbenliogludev/boardbot-e2e/internal/judge"
	"github.com/nbenliogludev/boardbot-e2e/internal/report"
	"github.com/nbenliogludev/boardbot-e2e/internal/scenario"
)

// SearchPage is the page-object surface a run drives. *boardbot.Page
// implements it.
type SearchPage interface {
	Goto(ctx context.Context, url string) error
	AcceptCookies(ctx context.Context) error
	NavigateToMemberProducts(ctx context.Context) error
	Ask(ctx context.Context, query string) error
	WaitForResults(ctx context.Context) (boardbot.ResultsWait, error)
	ExtractProducts(ctx context.Context, max int) ([]boardbot.ProductInfo, error)
	ProductDescription(ctx context.Context, index int) (string, error)
	CloseProductDetails(ctx context.Context) error
	Screenshot() ([]byte, error)
	Snapshot() (*browser.PageSnapshot, error)
	URL() string
	Title() string
}

var _ SearchPage = (*boardbot.Page)(nil)

// Options tune a Runner.
type Options struct {
	BaseURL string
	// ValidateCount caps how many top products go through relevance validation.
	ValidateCount int
	// HTMLDir receives an HTML rendering of each report when set.
	HTMLDir string
	// Out receives the console table and execution trace. Defaults to stdout.
	Out io.Writer
}

// Result is everything a run produced. Allure is left open so the caller
// can attach the video once the browser context is closed.
type Result struct {
	Scenario   scenario.Scenario
	Products   []boardbot.ProductInfo
	Wait       boardbot.ResultsWait
	Latency    time.Duration
	Report     report.TestReport
	ReportPath string
	Validation *Validation
	Allure     *allure.Test
}

// Finish attaches the recorded video, if any, and writes the Allure result.
func (res *Result) Finish(runErr error, videoPath string) (string, error) {
	if videoPath != "" {
		if _, err := os.Stat(videoPath); err == nil {
			_ = res.Allure.Step("Attach test execution video", func() error {
				return res.Allure.AttachFile("Test Execution Video", allure.TypeWebM, videoPath)
			})
		}
	}
	return res.Allure.Finish(runErr)
}

// Runner executes scenarios against one page.
type Runner struct {
	page    SearchPage
	store   *report.Store
	results *allure.Writer
	judges  JudgeFunc
	opts    Options
	logger  arbor.ILogger
	now     func() time.Time
}

func NewRunner(page SearchPage, store *report.Store, results *allure.Writer, judges JudgeFunc, opts Options, logger arbor.ILogger) *Runner {
	if logger == nil {
		logger = common.NopLogger()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ValidateCount <= 0 {
		opts.ValidateCount = 5
	}
	return &Runner{
		page:    page,
		store:   store,
		results: results,
		judges:  judges,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

func (r *Runner) judgeFor(s scenario.Scenario) judge.Judge {
	if r.judges == nil {
		return nil
	}
	return r.judges(s)
}

// Run executes one scenario end to end. The report is persisted before any
// assertion failure is returned. The returned Result is never nil.
func (r *Runner) Run(ctx context.Context, s scenario.Scenario) (res *Result, err error) {
	start := r.now()
	t := r.results.Start(s.Title, s.FullName())
	res = &Result{Scenario: s, Allure: t}
	r.describeTest(t, s)

	trace := newTrace(r.opts.Out, s.ID)
	n := 0
	step := func(name string, fn func() error) error {
		n++
		stepStart := time.Now()
		stepErr := t.Step(name, fn)
		trace.step(n, name, time.Since(stepStart), stepErr)
		return stepErr
	}

	defer func() {
		if err != nil {
			r.attachFailure(t)
		}
		trace.print(start, err)
	}()

	if err := step("Navigate to PICMG homepage", func() error {
		if err := r.page.Goto(ctx, r.opts.BaseURL); err != nil {
			return err
		}
		if title := r.page.Title(); isChallengeTitle(title) {
			return botDetectedFailure(title)
		}
		return t.AttachText("Homepage URL", allure.TypeText, r.page.URL())
	}); err != nil {
		return res, err
	}

	if err := step("Accept cookies", func() error {
		return r.page.AcceptCookies(ctx)
	}); err != nil {
		return res, err
	}

	if err := step("Click on Member Products", func() error {
		return r.page.NavigateToMemberProducts(ctx)
	}); err != nil {
		return res, err
	}

	var submitted time.Time
	if err := step(fmt.Sprintf("Submitting query: %q", cutPrompt(s.Prompt, 50)), func() error {
		if err := r.page.Ask(ctx, s.Prompt); err != nil {
			return err
		}
		submitted = time.Now()
		return nil
	}); err != nil {
		return res, err
	}

	if err := step("Wait for search results and measure latency", func() error {
		wait, err := r.page.WaitForResults(ctx)
		res.Wait = wait
		res.Latency = time.Since(submitted)
		if err != nil {
			return err
		}
		r.logger.Info().Msgf("Response Latency: %.2f seconds", res.Latency.Seconds())
		t.Parameter("Response Latency", fmt.Sprintf("%.2fs", res.Latency.Seconds()))
		t.Label("response_speed", report.LatencyClass(res.Latency))
		return nil
	}); err != nil {
		return res, err
	}

	if err := step("Capture results screenshot", func() error {
		shot, err := r.page.Screenshot()
		if err != nil {
			r.logger.Warn().Err(err).Msg("Results screenshot failed")
			return nil
		}
		return t.Attach("Search Results Page (Full)", allure.TypePNG, shot)
	}); err != nil {
		return res, err
	}

	if err := step("Extract product information", func() error {
		products, err := r.page.ExtractProducts(ctx, s.MaxProducts)
		if err != nil {
			return err
		}
		res.Products = products
		t.Parameter("Products Found", fmt.Sprint(len(products)))
		if len(products) == 0 {
			r.logger.Warn().Msg("No products extracted")
		} else {
			r.logger.Info().Msgf("Extracted %d products", len(products))
		}
		return nil
	}); err != nil {
		return res, err
	}

	if err := step("AI Product Validation", func() error {
		v, err := r.validate(ctx, t, s, res.Products)
		res.Validation = v
		return err
	}); err != nil {
		return res, err
	}

	if err := step("Validate categories and generate report", func() error {
		return r.buildReport(t, s, res)
	}); err != nil {
		return res, err
	}

	_ = step("Verify product data completeness", func() error {
		for i, p := range res.Products {
			_ = t.Step(fmt.Sprintf("Product %d: %s", i+1, p.ProductName), func() error {
				return t.AttachText(fmt.Sprintf("Product %d Details", i+1), allure.TypeText, productDetails(p))
			})
		}
		return nil
	})

	if s.Exploratory {
		_ = step("Analyze cross-category results", func() error {
			counts := categoryCounts(res.Products)
			for _, c := range counts {
				t.Parameter("Category: "+c.category, fmt.Sprintf("%d products", c.count))
			}
			t.Parameter("Categories Found", fmt.Sprint(len(counts)))
			r.logger.Info().Msgf("Found products from %d different categories", len(counts))
			return nil
		})
	}

	return res, r.assert(s, res)
}

// assert applies the terminal failure conditions in order.
func (r *Runner) assert(s scenario.Scenario, res *Result) error {
	if len(res.Products) == 0 {
		return noProductsFailure()
	}
	if !s.Exploratory && res.Report.SuitableProducts == 0 {
		return noSuitableFailure(res.Products, s.ExpectedCategory)
	}
	if res.Validation.Failed() {
		return noRelevantFailure(res.Validation)
	}
	return nil
}

type textAttachment struct{ name, kind, body string }

func (r *Runner) buildReport(t *allure.Test, s scenario.Scenario, res *Result) error {
	rep := report.Generate(s.Prompt, res.Products, s.ExpectedCategory, s.ReferenceSlug)
	res.Report = rep

	if i := rep.OriginalProduct; i >= 0 {
		p := rep.Products[i]
		match := "(Match!)"
		status := "✅ SUITABLE"
		if !rep.IsSuitable(i) {
			match = fmt.Sprintf("(Expected: %s)", s.ExpectedCategory)
			status = "❌ UNSUITABLE"
		}
		t.Parameter("⭐ ORIGINAL PRODUCT", fmt.Sprintf("%s | %s | Category: %s %s | %s", p.ProductName, status, p.Category, match, p.MoreInfoURL))
	}
	for i, p := range rep.Products {
		label := fmt.Sprintf("Product %d", i+1)
		if i == rep.OriginalProduct {
			label += " ⭐ ORIGINAL"
		}
		t.Parameter(label, report.ProductLine(rep, i))
		if p.HasURL() {
			t.Parameter(fmt.Sprintf("  └─ URL %d", i+1), p.MoreInfoURL)
		}
	}

	markdown := report.FormatMarkdown(rep)
	table := report.FormatTable(rep)
	fmt.Fprintln(r.opts.Out, table)

	attachments := []textAttachment{
		{"Test Report (Markdown)", allure.TypeMarkdown, markdown},
		{"Test Report (Table)", allure.TypeText, table},
		{"📊 Test Results Summary", allure.TypeMarkdown, report.FormatSummary(rep, s.ID, res.Latency)},
	}
	if js, err := report.FormatJSON(rep); err == nil {
		attachments = append(attachments, textAttachment{"Test Report (JSON)", allure.TypeJSON, js})
	}
	for _, a := range attachments {
		if err := t.AttachText(a.name, a.kind, a.body); err != nil {
			r.logger.Warn().Err(err).Str("attachment", a.name).Msg("Attach failed")
		}
	}

	now := r.now()
	path, err := r.store.Save(s.ID, rep, now)
	if err != nil {
		return err
	}
	res.ReportPath = path

	if r.opts.HTMLDir != "" {
		if err := r.saveHTML(s, rep, now); err != nil {
			r.logger.Warn().Err(err).Msg("HTML report not written")
		}
	}

	t.Parameter("Total Products", fmt.Sprint(rep.TotalResults))
	t.Parameter("Suitable Products", fmt.Sprint(rep.SuitableProducts))
	t.Parameter("Unsuitable Products", fmt.Sprint(rep.UnsuitableProducts))
	t.Parameter("Original Product Found", rep.OriginalFound())

	if rep.TotalResults > 0 {
		r.logger.Info().Msgf("Found %d total products", rep.TotalResults)
		r.logger.Info().Msgf("Suitable (%s): %d", s.ExpectedCategory, rep.SuitableProducts)
	}
	if rep.UnsuitableProducts > 0 {
		r.logger.Warn().Msgf("Unsuitable products: %d", rep.UnsuitableProducts)
		w := 0
		for i, p := range rep.Products {
			if rep.IsSuitable(i) {
				continue
			}
			if w < len(rep.Warnings) {
				t.Issue(rep.Warnings[w], p.MoreInfoURL)
			}
			w++
		}
	}
	return nil
}

func (r *Runner) saveHTML(s scenario.Scenario, rep report.TestReport, now time.Time) error {
	doc, err := report.FormatHTML(rep, s.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.opts.HTMLDir, 0o755); err != nil {
		return fmt.Errorf("create html dir: %w", err)
	}
	name := strings.TrimSuffix(report.FileName(s.ID, now), ".md") + ".html"
	return os.WriteFile(filepath.Join(r.opts.HTMLDir, name), []byte(doc), 0o644)
}

// attachFailure adds the page state at failure time to the Allure result.
func (r *Runner) attachFailure(t *allure.Test) {
	snap, err := r.page.Snapshot()
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to capture failure snapshot")
		return
	}
	if len(snap.Screenshot) > 0 {
		if err := t.Attach("💥 Failure Screenshot", allure.TypePNG, snap.Screenshot); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to attach failure screenshot")
		}
	}
	if err := t.AttachText("💥 Failure Page HTML", allure.TypeHTML, snap.HTML); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to attach failure HTML")
	}
	r.logger.Info().Str("url", snap.URL).Msg("Failure snapshot captured")
}

func (r *Runner) describeTest(t *allure.Test, s scenario.Scenario) {
	epic := "Product Search"
	if s.Exploratory {
		epic = "Exploratory Testing"
	}
	t.Epic(epic)
	t.Feature(s.Group)
	if s.Story != "" {
		t.Story(s.Story)
	}
	t.Severity(severity(s.Severity))
	for _, tag := range s.Tags {
		t.Tag(tag)
	}
	if s.Owner != "" {
		t.Owner(s.Owner)
	}
	t.Suite(s.Group)
	t.Description(s.Description())

	t.Parameter("Search Query (Short)", cutPrompt(s.Prompt, 100))
	t.Parameter("Max Products", fmt.Sprint(s.MaxProducts))
	if s.ExpectedCategory != "" {
		t.Parameter("Expected Category", s.ExpectedCategory)
	}
	if err := t.AttachText("Full Search Query", allure.TypeText, s.Prompt); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to attach query")
	}
}

func severity(s string) allure.Severity {
	switch allure.Severity(strings.ToLower(s)) {
	case allure.SeverityBlocker, allure.SeverityCritical, allure.SeverityMinor, allure.SeverityTrivial:
		return allure.Severity(strings.ToLower(s))
	default:
		return allure.SeverityNormal
	}
}

var challengeMarkers = []string{"just a moment", "attention required", "access denied", "are you a robot", "captcha"}

func isChallengeTitle(title string) bool {
	title = strings.ToLower(title)
	for _, m := range challengeMarkers {
		if strings.Contains(title, m) {
			return true
		}
	}
	return false
}

func cutPrompt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func productDetails(p boardbot.ProductInfo) string {
	return fmt.Sprintf("Product: %s\nManufacturer: %s\nCategory: %s\nSubcategory: %s\nMore Info: %s",
		p.ProductName, p.Manufacturer, p.Category, p.Subcategory, p.MoreInfoURL)
}

type categoryCount struct {
	category string
	count    int
}

// categoryCounts tallies products per category, largest first.
func categoryCounts(products []boardbot.ProductInfo) []categoryCount {
	m := make(map[string]int)
	for _, p := range products {
		m[p.Category]++
	}
	out := make([]categoryCount, 0, len(m))
	for c, n := range m {
		out = append(out, categoryCount{c, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].category < out[j].category
	})
	return out
}

// IsFailure reports whether err is one of the terminal assertion failures
// rather than an infrastructure error.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}
