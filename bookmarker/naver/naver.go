// Package naver drives Naver Map to bookmark a list of places, one row at a
// time, through an opaque browser Driver.
package naver

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"naver-map-bookmarker/browser"
	"naver-map-bookmarker/config"
	"naver-map-bookmarker/metrics"
	"naver-map-bookmarker/models"
	"naver-map-bookmarker/storage"
	"naver-map-bookmarker/utils"
)

const (
	loginPrompt = "\n🔐 Log in to Naver in the browser window, then press Enter to continue..."
	closePrompt = "\nProcessing finished. Press Enter to close the browser..."
)

// Driver is the browser capability set the bookmarking loop consumes.
// *browser.Session implements it.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, sel browser.Selector, timeout time.Duration) (*browser.Element, error)
	Click(ctx context.Context, el *browser.Element) error
	Clear(ctx context.Context, el *browser.Element) error
	SendText(ctx context.Context, el *browser.Element, text string) error
	SendEnter(ctx context.Context, el *browser.Element) error
	Quit() error
}

// Prompter blocks until the operator confirms.
type Prompter interface {
	Wait(message string) error
}

// SummaryPrinter prints the final counters.
type SummaryPrinter interface {
	PrintSummary(s *models.Summary)
}

// Bookmarker runs the login → map → per-row loop against a single browser.
type Bookmarker struct {
	cfg      *config.Config
	logger   *utils.Logger
	driver   Driver
	prompter Prompter
	printer  SummaryPrinter
	throttle *utils.Throttle

	metrics *metrics.Metrics
	results storage.ResultWriter
}

// New creates a ready-to-use Bookmarker.
func New(cfg *config.Config, logger *utils.Logger, driver Driver, prompter Prompter, printer SummaryPrinter) *Bookmarker {
	return &Bookmarker{
		cfg:      cfg,
		logger:   logger,
		driver:   driver,
		prompter: prompter,
		printer:  printer,
		throttle: utils.NewThrottle(cfg.RowDelay()),
	}
}

// SetMetrics enables metric collection.
func (b *Bookmarker) SetMetrics(m *metrics.Metrics) { b.metrics = m }

// SetResultWriter records every row outcome to w.
func (b *Bookmarker) SetResultWriter(w storage.ResultWriter) { b.results = w }

// Run opens the login page, waits for the operator, opens the map and
// bookmarks every place in order. Whatever happens, it prints the summary,
// waits for a second confirmation and closes the browser exactly once.
// A non-nil error is always a *TopLevelFault.
func (b *Bookmarker) Run(ctx context.Context, places []*models.Place) (summary *models.Summary, err error) {
	summary = &models.Summary{Total: len(places)}
	defer b.finish(summary, &err)

	if err := b.openMap(ctx); err != nil {
		return summary, &TopLevelFault{Err: err, Stack: debug.Stack()}
	}

	b.processAll(ctx, places, summary)
	return summary, nil
}

func (b *Bookmarker) openMap(ctx context.Context) error {
	b.logger.Info("[naver] Opening login page %s", b.cfg.LoginURL)
	if err := b.driver.Navigate(ctx, b.cfg.LoginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}

	if err := b.prompter.Wait(loginPrompt); err != nil {
		return fmt.Errorf("login confirmation: %w", err)
	}

	b.logger.Info("[naver] Opening map %s", b.cfg.MapURL)
	if err := b.driver.Navigate(ctx, b.cfg.MapURL); err != nil {
		return fmt.Errorf("open map: %w", err)
	}
	if err := utils.Sleep(ctx, b.cfg.PageLoadDelay()); err != nil {
		return fmt.Errorf("wait for map to render: %w", err)
	}
	return nil
}

func (b *Bookmarker) processAll(ctx context.Context, places []*models.Place, summary *models.Summary) {
	for i, p := range places {
		if err := b.throttle.Wait(ctx); err != nil {
			summary.Interrupted = true
			break
		}

		b.logger.Info("[naver] Processing (%d/%d) row %d: %s - %s", i+1, len(places), p.Row, p.Name, p.Address)
		res := b.ProcessRow(ctx, p)
		b.throttle.Mark()

		if !res.OK() && ctx.Err() != nil {
			// cancelled mid-row: the row was neither done nor genuinely failed
			summary.Interrupted = true
			break
		}
		b.record(res, summary)
	}
}

// ProcessRow runs SEARCH → SELECT_RESULT → BOOKMARK for one place. It never
// panics; failures are reported in the result.
func (b *Bookmarker) ProcessRow(ctx context.Context, p *models.Place) (res *models.RowResult) {
	start := time.Now()
	res = &models.RowResult{Place: p, Stage: models.StageSearch}

	defer func() {
		if r := recover(); r != nil {
			res.Err = &RowFault{Row: p.Row, Value: r, Stack: debug.Stack()}
		}
		res.Duration = time.Since(start)
	}()

	if err := b.bookmark(ctx, p, res); err != nil {
		res.Err = err
		return res
	}
	res.Stage = models.StageDone
	return res
}

func (b *Bookmarker) bookmark(ctx context.Context, p *models.Place, res *models.RowResult) error {
	query := p.Query()
	if query == "" {
		return errEmptyQuery
	}

	searchBox, err := b.locate(ctx, models.StageSearch, searchInputSelectors)
	if err != nil {
		return err
	}
	if err := b.driver.Clear(ctx, searchBox); err != nil {
		return fmt.Errorf("clear search box: %w", err)
	}
	if err := b.driver.SendText(ctx, searchBox, query); err != nil {
		return fmt.Errorf("type query: %w", err)
	}
	if err := b.driver.SendEnter(ctx, searchBox); err != nil {
		return fmt.Errorf("submit query: %w", err)
	}
	b.logger.Debug("[naver] Searched: %s", query)

	res.Stage = models.StageSelectResult
	if err := utils.Sleep(ctx, b.cfg.SettleDelay()); err != nil {
		return err
	}
	result, err := b.locate(ctx, models.StageSelectResult, firstResultSelectors)
	if err != nil {
		return err
	}
	if err := b.driver.Click(ctx, result); err != nil {
		return fmt.Errorf("click first result: %w", err)
	}
	b.logger.Debug("[naver] Clicked first result")

	res.Stage = models.StageBookmark
	if err := utils.Sleep(ctx, b.cfg.SettleDelay()); err != nil {
		return err
	}
	button, err := b.locate(ctx, models.StageBookmark, bookmarkSelectors)
	if err != nil {
		return err
	}
	if err := b.driver.Click(ctx, button); err != nil {
		return fmt.Errorf("click bookmark: %w", err)
	}
	b.logger.Debug("[naver] Clicked bookmark")
	return nil
}

// locate tries each selector in order, each bounded by the element timeout,
// and returns the first match.
func (b *Bookmarker) locate(ctx context.Context, stage models.Stage, chain []browser.Selector) (*browser.Element, error) {
	tried := make([]string, 0, len(chain))
	var lastErr error

	for i, sel := range chain {
		el, err := b.driver.Find(ctx, sel, b.cfg.ElementTimeout())
		if err == nil {
			b.metrics.ObserveSelector(stage, sel.String(), true)
			if i > 0 {
				b.logger.Debug("[naver] %s matched fallback selector %s", stage, sel)
			}
			return el, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		b.metrics.ObserveSelector(stage, sel.String(), false)
		b.logger.Debug("[naver] %s: %s not found: %v", stage, sel, err)
		tried = append(tried, sel.String())
		lastErr = err
	}

	return nil, &ElementNotFoundError{Stage: stage, Tried: tried, Err: lastErr}
}

func (b *Bookmarker) record(res *models.RowResult, summary *models.Summary) {
	if res.OK() {
		summary.Success++
		b.logger.Info("[naver] ✅ Success: %s (%v)", res.Place.Name, res.Duration.Round(time.Millisecond))
	} else {
		summary.Failure++
		var fault *RowFault
		var notFound *ElementNotFoundError
		switch {
		case errors.As(res.Err, &fault):
			b.logger.Trace(fmt.Sprintf("[naver] ❌ Failed: %s - %v", res.Place.Name, fault), fault.Stack)
		case errors.As(res.Err, &notFound):
			b.logger.Warn("[naver] ❌ Failed: %s - %v", res.Place.Name, notFound)
		default:
			b.logger.Error("[naver] ❌ Failed: %s at %s - %v", res.Place.Name, res.Stage, res.Err)
		}
	}

	b.metrics.ObserveRow(res)
	if b.results != nil {
		if err := b.results.WriteResult(res); err != nil {
			b.logger.Warn("[naver] Could not record row %d: %v", res.Place.Row, err)
		}
	}
}

// finish converts a panic into a TopLevelFault, prints the summary, waits for
// the operator and closes the browser.
func (b *Bookmarker) finish(summary *models.Summary, errp *error) {
	if r := recover(); r != nil {
		*errp = &TopLevelFault{Err: fmt.Errorf("panic: %v", r), Stack: debug.Stack()}
	}

	if *errp != nil {
		var fault *TopLevelFault
		if errors.As(*errp, &fault) && fault.Stack != nil {
			b.logger.Trace(fault.Error(), fault.Stack)
		} else {
			b.logger.Error("[naver] %v", *errp)
		}
	}

	b.metrics.MarkFinished()
	b.printer.PrintSummary(summary)

	if err := b.prompter.Wait(closePrompt); err != nil {
		b.logger.Warn("[naver] Close confirmation failed: %v", err)
	}
	if err := b.driver.Quit(); err != nil {
		b.logger.Warn("[naver] %v", err)
	}
}
