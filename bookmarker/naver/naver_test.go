package naver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"naver-map-bookmarker/browser"
	"naver-map-bookmarker/config"
	"naver-map-bookmarker/metrics"
	"naver-map-bookmarker/models"
	"naver-map-bookmarker/utils"
)

// call is one driver action, attributed to the row being processed.
type call struct {
	row int
	op  string
}

// fakeDriver counts a new row every time the first search candidate is looked
// up, which happens exactly once per non-empty row.
type fakeDriver struct {
	row int

	missing   map[int]map[models.Stage]bool // row → stages where every candidate fails
	skipFirst map[models.Stage]bool         // first candidate of a stage always fails
	panicAt   map[int]models.Stage
	navErr    map[string]error
	navPanic  bool
	onRowDone func(row int)

	calls []call
	typed []string
	quits int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		missing:   map[int]map[models.Stage]bool{},
		skipFirst: map[models.Stage]bool{},
		panicAt:   map[int]models.Stage{},
		navErr:    map[string]error{},
	}
}

func (f *fakeDriver) failRow(row int, stage models.Stage) {
	if f.missing[row] == nil {
		f.missing[row] = map[models.Stage]bool{}
	}
	f.missing[row][stage] = true
}

func stageOf(sel browser.Selector) (models.Stage, int) {
	chains := map[models.Stage][]browser.Selector{
		models.StageSearch:       searchInputSelectors,
		models.StageSelectResult: firstResultSelectors,
		models.StageBookmark:     bookmarkSelectors,
	}
	for stage, chain := range chains {
		for i, s := range chain {
			if s == sel {
				return stage, i
			}
		}
	}
	panic("unknown selector " + sel.String())
}

func (f *fakeDriver) record(op string) {
	f.calls = append(f.calls, call{row: f.row, op: op})
}

func (f *fakeDriver) Navigate(_ context.Context, url string) error {
	if f.navPanic {
		panic("devtools connection lost")
	}
	f.record("navigate " + url)
	return f.navErr[url]
}

func (f *fakeDriver) Find(_ context.Context, sel browser.Selector, _ time.Duration) (*browser.Element, error) {
	stage, idx := stageOf(sel)
	if stage == models.StageSearch && idx == 0 {
		f.row++
	}
	f.record("find " + string(stage))

	if f.panicAt[f.row] == stage {
		panic("nil node")
	}
	if f.missing[f.row][stage] || (idx == 0 && f.skipFirst[stage]) {
		return nil, fmt.Errorf("waiting for %s: %w", sel, context.DeadlineExceeded)
	}
	return &browser.Element{Selector: sel}, nil
}

func (f *fakeDriver) Click(_ context.Context, el *browser.Element) error {
	stage, _ := stageOf(el.Selector)
	f.record("click " + string(stage))
	if stage == models.StageBookmark && f.onRowDone != nil {
		f.onRowDone(f.row)
	}
	return nil
}

func (f *fakeDriver) Clear(context.Context, *browser.Element) error {
	f.record("clear")
	return nil
}

func (f *fakeDriver) SendText(_ context.Context, _ *browser.Element, text string) error {
	f.record("type")
	f.typed = append(f.typed, text)
	return nil
}

func (f *fakeDriver) SendEnter(context.Context, *browser.Element) error {
	f.record("enter")
	return nil
}

func (f *fakeDriver) Quit() error {
	f.quits++
	return nil
}

func (f *fakeDriver) opsFor(row int) []string {
	var ops []string
	for _, c := range f.calls {
		if c.row == row {
			ops = append(ops, c.op)
		}
	}
	return ops
}

func (f *fakeDriver) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if len(c.op) >= len(prefix) && c.op[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

type fakePrompter struct{ prompts []string }

func (p *fakePrompter) Wait(message string) error {
	p.prompts = append(p.prompts, message)
	return nil
}

type fakePrinter struct{ printed []*models.Summary }

func (p *fakePrinter) PrintSummary(s *models.Summary) {
	cp := *s
	p.printed = append(p.printed, &cp)
}

type memResults struct{ results []*models.RowResult }

func (m *memResults) WriteResult(r *models.RowResult) error {
	m.results = append(m.results, r)
	return nil
}

func (m *memResults) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		LoginURL:         "https://nid.example/login",
		MapURL:           "https://map.example",
		ElementTimeoutMs: 1,
	}
}

type harness struct {
	driver   *fakeDriver
	prompter *fakePrompter
	printer  *fakePrinter
	bm       *Bookmarker
}

func newHarness() *harness {
	h := &harness{driver: newFakeDriver(), prompter: &fakePrompter{}, printer: &fakePrinter{}}
	h.bm = New(testConfig(), utils.Discard(), h.driver, h.prompter, h.printer)
	return h
}

func places(n int) []*models.Place {
	out := make([]*models.Place, n)
	for i := range out {
		out[i] = &models.Place{Row: i + 2, Name: fmt.Sprintf("가게%d", i+1), Address: fmt.Sprintf("성남시 %d", i+1)}
	}
	return out
}

var fullSequence = []string{
	"find search", "clear", "type", "enter",
	"find select_result", "click select_result",
	"find bookmark", "click bookmark",
}

func TestRunZeroRows(t *testing.T) {
	h := newHarness()

	summary, err := h.bm.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, &models.Summary{}, summary)
	assert.Equal(t, []string{"navigate https://nid.example/login", "navigate https://map.example"}, h.driver.opsFor(0))
	assert.Zero(t, h.driver.count("find"))
	assert.Zero(t, h.driver.count("click"))
	assert.Equal(t, 1, h.driver.quits)
	assert.Len(t, h.prompter.prompts, 2)
	require.Len(t, h.printer.printed, 1)
}

func TestRunSecondRowSearchBoxMissing(t *testing.T) {
	h := newHarness()
	h.driver.failRow(2, models.StageSearch)

	summary, err := h.bm.Run(context.Background(), places(3))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Success)
	assert.Equal(t, 1, summary.Failure)

	assert.Equal(t, fullSequence, h.driver.opsFor(1))
	assert.Equal(t, []string{"find search", "find search", "find search"}, h.driver.opsFor(2))
	assert.Equal(t, fullSequence, h.driver.opsFor(3))
	assert.Equal(t, []string{"가게1 성남시 1", "가게3 성남시 3"}, h.driver.typed)
	assert.Equal(t, 1, h.driver.quits)
}

func TestRunBlankRowCountsAsFailure(t *testing.T) {
	h := newHarness()
	results := &memResults{}
	h.bm.SetResultWriter(results)
	rows := []*models.Place{
		{Row: 2, Name: "A", Address: "addr a"},
		{Row: 3},
		{Row: 4, Name: "C", Address: "addr c"},
	}

	summary, err := h.bm.Run(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Success)
	assert.Equal(t, 1, summary.Failure)
	assert.Zero(t, summary.Remaining())

	require.Len(t, results.results, 3)
	assert.Equal(t, 3, results.results[1].Place.Row)
	assert.ErrorIs(t, results.results[1].Err, errEmptyQuery)

	// the blank row reaches no driver action, so the fake sees two rows
	assert.Equal(t, fullSequence, h.driver.opsFor(1))
	assert.Equal(t, fullSequence, h.driver.opsFor(2))
	assert.Equal(t, []string{"A addr a", "C addr c"}, h.driver.typed)
}

func TestProcessRowAllCandidatesFail(t *testing.T) {
	h := newHarness()
	h.driver.failRow(1, models.StageBookmark)

	res := h.bm.ProcessRow(context.Background(), places(1)[0])

	assert.False(t, res.OK())
	assert.Equal(t, models.StageBookmark, res.Stage)

	var notFound *ElementNotFoundError
	require.True(t, errors.As(res.Err, &notFound))
	assert.Equal(t, models.StageBookmark, notFound.Stage)
	assert.Len(t, notFound.Tried, len(bookmarkSelectors))
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestProcessRowUsesFallbackSelector(t *testing.T) {
	h := newHarness()
	h.driver.skipFirst[models.StageSearch] = true
	h.driver.skipFirst[models.StageSelectResult] = true

	res := h.bm.ProcessRow(context.Background(), places(1)[0])

	require.NoError(t, res.Err)
	assert.Equal(t, models.StageDone, res.Stage)
	assert.Equal(t, 2, h.driver.count("find search"))
	assert.Equal(t, 2, h.driver.count("find select_result"))
	assert.Equal(t, 1, h.driver.count("find bookmark"))
}

func TestProcessRowEmptyQuery(t *testing.T) {
	h := newHarness()

	res := h.bm.ProcessRow(context.Background(), &models.Place{Row: 9})

	assert.ErrorIs(t, res.Err, errEmptyQuery)
	assert.Empty(t, h.driver.calls)
}

func TestRowPanicIsContained(t *testing.T) {
	h := newHarness()
	h.driver.panicAt[1] = models.StageSelectResult
	results := &memResults{}
	h.bm.SetResultWriter(results)

	summary, err := h.bm.Run(context.Background(), places(2))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 1, summary.Failure)

	require.Len(t, results.results, 2)
	var fault *RowFault
	require.True(t, errors.As(results.results[0].Err, &fault))
	assert.Equal(t, 2, fault.Row)
	assert.NotEmpty(t, fault.Stack)
	assert.Equal(t, fullSequence, h.driver.opsFor(2))
}

func TestRunMapNavigationFailure(t *testing.T) {
	h := newHarness()
	var stdout, stderr bytes.Buffer
	h.bm.logger = utils.NewLoggerTo(&stdout, &stderr)
	h.driver.navErr["https://map.example"] = errors.New("net::ERR_NAME_NOT_RESOLVED")

	summary, err := h.bm.Run(context.Background(), places(3))

	var fault *TopLevelFault
	require.True(t, errors.As(err, &fault))
	assert.Contains(t, err.Error(), "open map")
	assert.NotEmpty(t, fault.Stack)
	assert.Contains(t, stderr.String(), "ERR_NAME_NOT_RESOLVED")
	assert.Contains(t, stderr.String(), "goroutine ")
	assert.Equal(t, 3, summary.Total)
	assert.Zero(t, summary.Success+summary.Failure)
	assert.Zero(t, h.driver.count("find"))
	assert.Equal(t, 1, h.driver.quits)
	assert.Len(t, h.prompter.prompts, 2)
	assert.Len(t, h.printer.printed, 1)
}

func TestRunPanicOutsideRowsStillTearsDown(t *testing.T) {
	h := newHarness()
	h.driver.navPanic = true

	_, err := h.bm.Run(context.Background(), places(2))

	var fault *TopLevelFault
	require.True(t, errors.As(err, &fault))
	assert.NotEmpty(t, fault.Stack)
	assert.Equal(t, 1, h.driver.quits)
	assert.Len(t, h.prompter.prompts, 1, "only the close prompt runs after a panic in the first navigation")
	assert.Len(t, h.printer.printed, 1)
}

func TestRunCancelledMidway(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	h.driver.onRowDone = func(row int) {
		if row == 2 {
			cancel()
		}
	}

	summary, err := h.bm.Run(ctx, places(5))
	require.NoError(t, err)

	assert.True(t, summary.Interrupted)
	assert.Equal(t, 2, summary.Success)
	assert.Equal(t, 0, summary.Failure)
	assert.Equal(t, 3, summary.Remaining())
	assert.Equal(t, 1, h.driver.quits)
}

func TestRunRecordsMetrics(t *testing.T) {
	h := newHarness()
	h.driver.failRow(1, models.StageSelectResult)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	h.bm.SetMetrics(m)

	_, err := h.bm.Run(context.Background(), places(2))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rows.WithLabelValues("success", "done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rows.WithLabelValues("failure", "select_result")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SelectorMisses.WithLabelValues("select_result", firstResultSelectors[2].String())))
}
