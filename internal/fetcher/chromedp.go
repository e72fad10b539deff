package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/metrics"
)

const (
	defaultNavTimeout  = 30 * time.Second
	defaultSettleDelay = 2 * time.Second
)

// Config controls the headless browser session.
type Config struct {
	UserAgent string
	// Delay is the fixed inter-request spacing applied before every fetch.
	Delay time.Duration
	// NavTimeout bounds navigation until DOM-ready.
	NavTimeout time.Duration
	// SettleDelay is the extra wait after DOM-ready so script-rendered
	// content can populate.
	SettleDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.NavTimeout <= 0 {
		c.NavTimeout = defaultNavTimeout
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	return c
}

// Chromedp fetches pages through one long-lived headless Chrome session.
// The browser launches lazily on the first fetch and is reused until Close;
// every fetch runs in its own tab that is always torn down afterwards, since
// a leaked tab eventually wedges the whole session.
type Chromedp struct {
	cfg     Config
	logger  *zap.Logger
	limiter *rate.Limiter

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	closed        bool
}

// NewChromedp builds a fetcher; the browser itself starts on first use.
func NewChromedp(cfg Config, logger *zap.Logger) *Chromedp {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	var limiter *rate.Limiter
	if cfg.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Delay), 1)
	}
	return &Chromedp{cfg: cfg, logger: logger, limiter: limiter}
}

// Fetch navigates to url in a fresh tab and returns the rendered HTML.
func (f *Chromedp) Fetch(ctx context.Context, url string) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", &FetchError{URL: url, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	browserCtx, err := f.ensureBrowser()
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, f.cfg.NavTimeout+f.cfg.SettleDelay)
	defer cancelTask()

	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	start := time.Now()
	var html string
	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(f.cfg.UserAgent),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.cfg.SettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		metrics.PagesFetched.WithLabelValues("error").Inc()
		return "", &FetchError{URL: url, Err: err}
	}

	metrics.PagesFetched.WithLabelValues("ok").Inc()
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	f.logger.Debug("page fetched",
		zap.String("url", url),
		zap.Int("bytes", len(html)),
		zap.Duration("took", time.Since(start)),
	)
	return html, nil
}

// Close tears down the browser and its allocator, in that order. It is safe
// to call when the browser never started, and more than once.
func (f *Chromedp) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.browserCancel != nil {
		f.browserCancel()
	}
	if f.allocCancel != nil {
		f.allocCancel()
	}
	return nil
}

func (f *Chromedp) ensureBrowser() (context.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, fmt.Errorf("fetcher is closed")
	}
	if f.browserCtx != nil {
		return f.browserCtx, nil
	}

	f.logger.Info("launching headless browser", zap.String("user_agent", f.cfg.UserAgent))
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(f.cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	f.browserCtx = browserCtx
	f.browserCancel = browserCancel
	f.allocCancel = allocCancel
	f.logger.Info("browser ready")
	return browserCtx, nil
}

// forwardCancel propagates cancellation of the caller's context into the
// chromedp task context.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
