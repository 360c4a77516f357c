// Package browser wraps a single chromedp-controlled Chrome window and exposes
// the small set of element actions the bookmarking loop needs.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"naver-map-bookmarker/utils"
)

const (
	navigateTimeout = 60 * time.Second
	actionTimeout   = 15 * time.Second
)

// Options control how Chrome is launched.
type Options struct {
	Headless        bool
	ChromeBin       string
	UserDataDir     string // reuse a profile, e.g. to keep the Naver login
	NavigateRetries int
}

// Session owns one browser window. It is not safe for concurrent use.
type Session struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc

	logger *utils.Logger
	retry  *utils.RetryConfig

	quitOnce sync.Once
	quitErr  error
}

// New launches a maximized Chrome window and returns a Session bound to its
// first tab.
func New(opts Options, logger *utils.Logger) (*Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	chromeBin := findChromeBinary(opts.ChromeBin)
	if chromeBin != "" {
		logger.Info("[browser] Using browser binary: %s", chromeBin)
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}
	if opts.UserDataDir != "" {
		logger.Info("[browser] Using profile dir: %s", opts.UserDataDir)
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	// Suppress chromedp log noise
	ctx, cancelCtx := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}),
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			logger.Debug("[chromedp] "+format, args...)
		}),
	)

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(ctx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	return &Session{
		ctx:         ctx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		logger:      logger,
		retry: &utils.RetryConfig{
			MaxAttempts: opts.NavigateRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}, nil
}

// Navigate loads url and waits for the document body, retrying with back-off.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.retry.Do(ctx, "navigate "+url, func() error {
		return s.run(ctx, navigateTimeout,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
		)
	})
}

// Find polls until an element matching sel is visible and enabled, or until
// timeout expires. Expiry returns an error wrapping context.DeadlineExceeded.
func (s *Session) Find(ctx context.Context, sel Selector, timeout time.Duration) (*Element, error) {
	if err := sel.validate(); err != nil {
		return nil, err
	}

	el := &Element{Selector: sel}
	runCtx, cancel := s.derive(ctx, timeout)
	defer cancel()

	if sel.Frame != "" {
		var frames []*cdp.Node
		if err := chromedp.Run(runCtx, chromedp.Nodes(sel.Frame, &frames, chromedp.ByQuery)); err != nil {
			return nil, fmt.Errorf("browser: wait for frame %s: %w", sel.Frame, err)
		}
		el.frame = frames[0]
	}

	err := chromedp.Run(runCtx,
		chromedp.WaitVisible(sel.Query, el.queryOptions()...),
		chromedp.WaitEnabled(sel.Query, el.queryOptions()...),
	)
	if err != nil {
		return nil, fmt.Errorf("browser: wait for %s: %w", sel, err)
	}
	return el, nil
}

// Click scrolls el into view and clicks its centre.
func (s *Session) Click(ctx context.Context, el *Element) error {
	if err := s.run(ctx, actionTimeout, chromedp.Click(el.Selector.Query, el.queryOptions(chromedp.NodeVisible)...)); err != nil {
		return fmt.Errorf("browser: click %s: %w", el, err)
	}
	return nil
}

// Clear empties an input element.
func (s *Session) Clear(ctx context.Context, el *Element) error {
	if err := s.run(ctx, actionTimeout, chromedp.Clear(el.Selector.Query, el.queryOptions()...)); err != nil {
		return fmt.Errorf("browser: clear %s: %w", el, err)
	}
	return nil
}

// SendText types text into el.
func (s *Session) SendText(ctx context.Context, el *Element, text string) error {
	if err := s.run(ctx, actionTimeout, chromedp.SendKeys(el.Selector.Query, text, el.queryOptions()...)); err != nil {
		return fmt.Errorf("browser: type into %s: %w", el, err)
	}
	return nil
}

// SendEnter presses Enter on el.
func (s *Session) SendEnter(ctx context.Context, el *Element) error {
	if err := s.run(ctx, actionTimeout, chromedp.SendKeys(el.Selector.Query, kb.Enter, el.queryOptions()...)); err != nil {
		return fmt.Errorf("browser: press enter on %s: %w", el, err)
	}
	return nil
}

// Quit closes the browser. Only the first call has any effect; later calls
// return the first call's result.
func (s *Session) Quit() error {
	s.quitOnce.Do(func() {
		s.logger.Info("[browser] Closing browser")
		if err := chromedp.Cancel(s.ctx); err != nil {
			s.quitErr = fmt.Errorf("browser: close: %w", err)
		}
		s.cancelCtx()
		s.cancelAlloc()
	})
	return s.quitErr
}

func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := s.derive(ctx, timeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// derive returns a context on the browser tab that is bounded by timeout and
// also cancelled when the caller's ctx is.
func (s *Session) derive(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
