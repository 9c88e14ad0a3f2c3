package scraper

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/jgoulah/campusscraper/internal/errkind"
	"github.com/sirupsen/logrus"
)

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BrowserFetcher renders dining pages in a headless Chrome instance. One
// browser is shared by every day of a run; each day gets its own tab.
type BrowserFetcher struct {
	baseURL     string
	waitTimeout time.Duration
	navTimeout  time.Duration
	headers     network.Headers

	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

// BrowserOptions configures NewBrowserFetcher
type BrowserOptions struct {
	BaseURL           string
	WaitTimeout       time.Duration // how long to wait for the table to appear
	NavigationTimeout time.Duration
	Visible           bool              // show the browser window (for debugging)
	Headers           map[string]string // extra request headers
}

// NewBrowserFetcher starts the browser. Close must be called when done.
func NewBrowserFetcher(ctx context.Context, opts BrowserOptions) (*BrowserFetcher, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !opts.Visible),
		chromedp.Flag("no-sandbox", true),            // Required for running as root on Linux
		chromedp.Flag("disable-gpu", true),           // Recommended for headless Linux
		chromedp.Flag("disable-dev-shm-usage", true), // Avoid /dev/shm issues on Linux
		chromedp.UserAgent(browserUserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Start the browser now so a missing Chrome fails before any page work
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, errkind.Wrap(errkind.ErrNetwork, err, "starting browser")
	}

	headers := make(network.Headers, len(opts.Headers))
	for k, v := range opts.Headers {
		headers[k] = v
	}

	return &BrowserFetcher{
		baseURL:       opts.BaseURL,
		waitTimeout:   opts.WaitTimeout,
		navTimeout:    opts.NavigationTimeout,
		headers:       headers,
		browserCtx:    browserCtx,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
	}, nil
}

// URL returns the page address for a weekday slug
func (f *BrowserFetcher) URL(day string) string {
	return f.baseURL + day
}

// FetchDay loads the page for day, waits for the hours table to become
// visible and returns the rendered document
func (f *BrowserFetcher) FetchDay(ctx context.Context, day string) (string, error) {
	url := f.URL(day)
	log := logrus.WithFields(logrus.Fields{"day": day, "url": url})

	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()

	// Allocate the tab on a context without a deadline; a timed-out first
	// Run would close the tab underneath the later actions.
	if err := chromedp.Run(tabCtx); err != nil {
		return "", errkind.Wrap(errkind.ErrNetwork, err, "opening tab for %s", day)
	}

	// Stop early if the caller gives up
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	if len(f.headers) > 0 {
		if err := chromedp.Run(tabCtx, network.SetExtraHTTPHeaders(f.headers)); err != nil {
			return "", errkind.Wrap(errkind.ErrNetwork, err, "setting headers for %s", day)
		}
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, f.navTimeout)
	defer cancelNav()

	log.Info("Navigating to dining page")
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		log.WithError(err).Error("Navigation failed")
		return "", errkind.Wrap(errkind.ErrNetwork, err, "navigating to %s", url)
	}

	waitCtx, cancelWait := context.WithTimeout(tabCtx, f.waitTimeout)
	defer cancelWait()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible("table", chromedp.ByQuery)); err != nil {
		log.WithError(err).WithField("timeout", f.waitTimeout).Error("Hours table did not appear")
		return "", errkind.Wrap(errkind.ErrParse, err, "waiting for table on %s", url)
	}

	var page string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &page, chromedp.ByQuery)); err != nil {
		return "", errkind.Wrap(errkind.ErrNetwork, err, "reading rendered page for %s", day)
	}

	return page, nil
}

// Close shuts the browser down
func (f *BrowserFetcher) Close() error {
	f.cancelBrowser()
	f.cancelAlloc()
	return nil
}

// ensure the fetcher satisfies the dining pipeline's collaborator
var _ PageFetcher = (*BrowserFetcher)(nil)
