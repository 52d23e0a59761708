package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// PreflightOptions configure the reachability probe.
type PreflightOptions struct {
	URL            string
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
}

// PreflightResult is what the probe saw on the landing page.
type PreflightResult struct {
	URL     string
	Title   string
	Elapsed time.Duration
}

// Preflight opens the target site in a throwaway headless Chrome over CDP and
// reads the page title. It is cheaper than booting playwright and tells the
// suite early whether the site is reachable at all.
func Preflight(ctx context.Context, opts PreflightOptions) (*PreflightResult, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("preflight url is empty")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	start := time.Now()
	var title, location string

	actions := []chromedp.Action{network.Enable()}
	if opts.AcceptLanguage != "" {
		actions = append(actions,
			network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": opts.AcceptLanguage}),
		)
		if opts.UserAgent != "" {
			actions = append(actions,
				emulation.SetUserAgentOverride(opts.UserAgent).WithAcceptLanguage(opts.AcceptLanguage),
			)
		}
	}
	actions = append(actions,
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.Title(&title),
		chromedp.Location(&location),
	)

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return nil, fmt.Errorf("site %s failed to load in browser: %w", opts.URL, err)
	}

	return &PreflightResult{
		URL:     location,
		Title:   title,
		Elapsed: time.Since(start),
	}, nil
}
