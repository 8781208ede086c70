package governor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/decisions-tracker/constants"
	"github.com/joseph-ayodele/decisions-tracker/internal/common"
	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
	"github.com/joseph-ayodele/decisions-tracker/internal/extract"
)

const teslaPage = "Tesla will begin ramping Megafactory Shanghai in Q1 2025 and expand production capacity."

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recordingPages is a PageSource that remembers which pages were read.
type recordingPages struct {
	pages     []string
	requested []int
	failAt    int
	onPage    func(n int)
}

func (r *recordingPages) PageCount(context.Context) (int, error) {
	return len(r.pages), nil
}

func (r *recordingPages) Page(_ context.Context, n int) (string, error) {
	r.requested = append(r.requested, n)
	if r.onPage != nil {
		r.onPage(n)
	}
	if n == r.failAt {
		return "", errors.New("corrupt xref table")
	}
	return r.pages[n-1], nil
}

func reportPages() []string {
	bodies := []string{
		"We will open a distribution hub in Ohio in Q1 2026.",
		"Management will hire two hundred engineers by the end of the year.",
		"Revenue grew on strong demand across every region.",
		"The board approved a plan to launch the Atlas app next quarter.",
		"We will reduce logistics costs before the holiday season.",
	}
	pages := make([]string, len(bodies))
	for i, b := range bodies {
		pages[i] = fmt.Sprintf("ACME QUARTERLY UPDATE\n\n%s\n\nPage %d of %d", b, i+1, len(bodies))
	}
	return pages
}

func newTestGovernor(t *testing.T, clock *fakeClock, opts ...Option) *Governor {
	t.Helper()
	base := []Option{
		WithClock(clock.Now),
		WithMemoryProbe(func() float64 { return 0 }),
		WithYield(func(context.Context) error { return nil }),
	}
	return New(nil, nil, append(base, opts...)...)
}

func mustEnqueue(t *testing.T, g *Governor, srcs ...extract.Source) []entity.Document {
	t.Helper()
	docs, err := g.Enqueue(srcs...)
	require.NoError(t, err)
	return docs
}

func TestGovernor_EndToEndTesla(t *testing.T) {
	g := newTestGovernor(t, newFakeClock())
	docs := mustEnqueue(t, g, extract.FromPages("tesla-update.pdf", teslaPage))

	require.NoError(t, g.Run(context.Background()))

	doc, err := g.Document(docs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocumentDone, doc.Status)
	assert.Equal(t, 1, doc.ProcessedPages)
	assert.Equal(t, 1, doc.TotalPages)
	assert.Equal(t, constants.TierC, doc.QualityTier)
	assert.Equal(t, 1, doc.CandidateCount)

	cands := g.Candidates(ListOptions{})
	require.Len(t, cands, 1)
	c := cands[0]
	assert.Equal(t, constants.Commitment, c.CandidateType)
	assert.Equal(t, []string{"q1 2025"}, c.TimeAnchors)
	assert.GreaterOrEqual(t, c.DecisionScore, 60)
	assert.Equal(t, constants.Capex, c.Category)
	assert.Equal(t, "tesla-update.pdf", c.DocLabel)
	assert.Equal(t, 1, c.PageNumber)
	assert.Equal(t, 100, g.Progress())
}

const disclaimer = "This presentation contains forward-looking statements, including statements regarding our future " +
	"financial position, expected cost reductions, planned capacity expansion, and the timing of new product " +
	"launches, which involve risks and uncertainties. Actual results may differ materially from those expressed " +
	"or implied, and readers should not place undue reliance on these statements. We undertake no obligation " +
	"to update any forward-looking statements, whether as a result of new information, future events, or otherwise."

func TestGovernor_TableAndBoilerplateYieldNothing(t *testing.T) {
	g := newTestGovernor(t, newFakeClock())
	mustEnqueue(t, g,
		extract.FromPages("table.pdf", "CASH FLOWS (in millions of USD) 2024 2025 2026 2027 2028"),
		extract.FromText("disclaimer", disclaimer),
	)
	require.NoError(t, g.Run(context.Background()))

	assert.Empty(t, g.Candidates(ListOptions{IncludeSignals: true}))
	for _, d := range g.Documents() {
		assert.Equal(t, constants.DocumentDone, d.Status)
		assert.Zero(t, d.CandidateCount)
	}
}

func TestGovernor_TimePauseAndResumeContinuity(t *testing.T) {
	clock := newFakeClock()
	src := &recordingPages{pages: reportPages()}
	g := newTestGovernor(t, clock, WithYield(func(context.Context) error {
		clock.Advance(15 * time.Second)
		return nil
	}))
	docs := mustEnqueue(t, g, extract.Source{Label: "acme-q4.pdf", Pages: src})
	id := docs[0].ID

	require.NoError(t, g.Run(context.Background()))

	doc, err := g.Document(id)
	require.NoError(t, err)
	assert.Equal(t, constants.DocumentPaused, doc.Status)
	assert.Equal(t, 3, doc.ProcessedPages)
	assert.Equal(t, 5, doc.TotalPages)
	assert.Contains(t, doc.PauseMessage, "page 3 of 5")
	assert.Contains(t, doc.PauseMessage, "page 4")
	assert.Equal(t, []int{1, 2, 3}, src.requested)
	assert.Equal(t, 60, g.Progress())

	st := g.docs[id]
	cacheBefore := st.cache.Snapshot()
	pagesBefore := st.cache.Pages()
	candidatesBefore := doc.CandidateCount

	var cacheAtResume map[string]int
	src.onPage = func(n int) {
		if n == 4 {
			cacheAtResume = st.cache.Snapshot()
		}
	}

	assert.Equal(t, 1, g.Resume())
	doc, _ = g.Document(id)
	assert.Equal(t, constants.DocumentPending, doc.Status)
	assert.Empty(t, doc.PauseMessage)

	require.NoError(t, g.Run(context.Background()))

	assert.Equal(t, []int{1, 2, 3, 4, 5}, src.requested)
	assert.Equal(t, cacheBefore, cacheAtResume)
	assert.Equal(t, 3, pagesBefore)
	assert.Equal(t, 5, st.cache.Pages())

	doc, _ = g.Document(id)
	assert.Equal(t, constants.DocumentDone, doc.Status)
	assert.Equal(t, 5, doc.ProcessedPages)
	assert.Greater(t, doc.CandidateCount, candidatesBefore)
	assert.Equal(t, 100, g.Progress())

	for _, c := range g.Candidates(ListOptions{}) {
		assert.NotContains(t, c.DecisionText, "ACME QUARTERLY UPDATE")
	}
}

func TestGovernor_TimePauseMovesToNextDocument(t *testing.T) {
	clock := newFakeClock()
	g := newTestGovernor(t, clock,
		WithMaxDocumentTime(10*time.Second),
		WithYield(func(context.Context) error {
			clock.Advance(11 * time.Second)
			return nil
		}),
	)
	docs := mustEnqueue(t, g,
		extract.FromPages("long.pdf", reportPages()...),
		extract.FromPages("short.pdf", teslaPage),
	)
	require.NoError(t, g.Run(context.Background()))

	first, _ := g.Document(docs[0].ID)
	second, _ := g.Document(docs[1].ID)
	assert.Equal(t, constants.DocumentPaused, first.Status)
	assert.Equal(t, 1, first.ProcessedPages)
	assert.Equal(t, constants.DocumentDone, second.Status)
}

func TestGovernor_MemoryPressureHaltsRun(t *testing.T) {
	g := newTestGovernor(t, newFakeClock(), WithMemoryProbe(func() float64 { return 0.9 }))
	docs := mustEnqueue(t, g,
		extract.FromPages("big.pdf", reportPages()...),
		extract.FromPages("next.pdf", teslaPage),
	)
	require.NoError(t, g.Run(context.Background()))

	first, _ := g.Document(docs[0].ID)
	second, _ := g.Document(docs[1].ID)
	assert.Equal(t, constants.DocumentPaused, first.Status)
	assert.Equal(t, 1, first.ProcessedPages)
	assert.Contains(t, first.PauseMessage, "memory pressure")
	assert.Equal(t, constants.DocumentPending, second.Status)
}

func TestGovernor_UserPause(t *testing.T) {
	var g *Governor
	g = newTestGovernor(t, newFakeClock(), WithYield(func(context.Context) error {
		g.Pause()
		return nil
	}))
	docs := mustEnqueue(t, g, extract.FromPages("memo.pdf", reportPages()...))
	require.NoError(t, g.Run(context.Background()))

	doc, _ := g.Document(docs[0].ID)
	assert.Equal(t, constants.DocumentPaused, doc.Status)
	assert.Equal(t, 1, doc.ProcessedPages)
	assert.Contains(t, doc.PauseMessage, "Paused by user")

	g.yield = func(context.Context) error { return nil }
	g.Resume(doc.ID)
	require.NoError(t, g.Run(context.Background()))
	doc, _ = g.Document(docs[0].ID)
	assert.Equal(t, constants.DocumentDone, doc.Status)
}

func TestGovernor_ResumeAutoPausedLeavesUserPauses(t *testing.T) {
	clock := newFakeClock()
	var g *Governor
	g = newTestGovernor(t, clock,
		WithMaxDocumentTime(10*time.Second),
		WithYield(func(context.Context) error {
			g.Pause()
			return nil
		}),
	)
	docs := mustEnqueue(t, g,
		extract.FromPages("held.pdf", reportPages()...),
		extract.FromPages("slow.pdf", reportPages()...),
	)
	require.NoError(t, g.Run(context.Background()))

	g.yield = func(context.Context) error {
		clock.Advance(11 * time.Second)
		return nil
	}
	require.NoError(t, g.Run(context.Background()))

	held, _ := g.Document(docs[0].ID)
	slow, _ := g.Document(docs[1].ID)
	require.Equal(t, constants.DocumentPaused, held.Status)
	require.Equal(t, constants.DocumentPaused, slow.Status)
	assert.Contains(t, held.PauseMessage, "Paused by user")
	assert.Contains(t, slow.PauseMessage, "took longer than")

	assert.Equal(t, 1, g.ResumeAutoPaused())
	held, _ = g.Document(docs[0].ID)
	slow, _ = g.Document(docs[1].ID)
	assert.Equal(t, constants.DocumentPaused, held.Status)
	assert.Equal(t, constants.DocumentPending, slow.Status)
	assert.Zero(t, g.ResumeAutoPaused())

	assert.Equal(t, 1, g.Resume())
	held, _ = g.Document(docs[0].ID)
	assert.Equal(t, constants.DocumentPending, held.Status)
}

func TestCancelCause(t *testing.T) {
	assert.ErrorIs(t, cancelCause(context.Background(), nil), common.ErrCancelled)

	hostGone := errors.New("host window closed")
	err := cancelCause(context.Background(), hostGone)
	assert.ErrorIs(t, err, common.ErrCancelled)
	assert.ErrorIs(t, err, hostGone)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = cancelCause(ctx, nil)
	assert.ErrorIs(t, err, common.ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGovernor_CancelKeepsCommittedPages(t *testing.T) {
	src := &recordingPages{pages: reportPages()}
	var g *Governor
	g = newTestGovernor(t, newFakeClock())
	src.onPage = func(n int) {
		if n == 3 {
			g.Cancel()
		}
	}
	docs := mustEnqueue(t, g, extract.Source{Label: "acme.pdf", Pages: src})
	require.NoError(t, g.Run(context.Background()))

	doc, _ := g.Document(docs[0].ID)
	assert.Equal(t, constants.DocumentPending, doc.Status)
	assert.Equal(t, 3, doc.ProcessedPages, "page 3 was read before the check point and is committed whole")

	src.onPage = nil
	require.NoError(t, g.Run(context.Background()))
	doc, _ = g.Document(docs[0].ID)
	assert.Equal(t, constants.DocumentDone, doc.Status)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, src.requested)
}

func TestGovernor_ContextCancelStopsBeforeDequeue(t *testing.T) {
	g := newTestGovernor(t, newFakeClock())
	docs := mustEnqueue(t, g, extract.FromPages("a.pdf", teslaPage))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, g.Run(ctx))
	doc, _ := g.Document(docs[0].ID)
	assert.Equal(t, constants.DocumentPending, doc.Status)
	assert.Zero(t, doc.ProcessedPages)
}

func TestGovernor_ErrorDoesNotBlockQueue(t *testing.T) {
	broken := &recordingPages{pages: reportPages(), failAt: 2}
	g := newTestGovernor(t, newFakeClock())
	docs := mustEnqueue(t, g,
		extract.Source{Label: "broken.pdf", Pages: broken},
		extract.FromPages("tesla.pdf", teslaPage),
	)
	require.NoError(t, g.Run(context.Background()))

	first, _ := g.Document(docs[0].ID)
	assert.Equal(t, constants.DocumentError, first.Status)
	assert.Contains(t, first.Error, "broken.pdf")
	assert.Contains(t, first.Error, "corrupt xref table")
	assert.Equal(t, 1, first.ProcessedPages)

	second, _ := g.Document(docs[1].ID)
	assert.Equal(t, constants.DocumentDone, second.Status)
}

func TestGovernor_FIFOOrder(t *testing.T) {
	var order []string
	g := newTestGovernor(t, newFakeClock())
	var srcs []extract.Source
	for _, label := range []string{"c.pdf", "a.pdf", "b.pdf"} {
		label := label
		srcs = append(srcs, extract.Source{Label: label, Pages: &recordingPages{
			pages:  []string{teslaPage},
			onPage: func(int) { order = append(order, label) },
		}})
	}
	mustEnqueue(t, g, srcs...)
	require.NoError(t, g.Run(context.Background()))
	assert.Equal(t, []string{"c.pdf", "a.pdf", "b.pdf"}, order)
}

func TestGovernor_FlatText(t *testing.T) {
	g := newTestGovernor(t, newFakeClock())
	memo := "Team,\n\nWe will launch the Atlas app in Q3 2026, expand the fleet next year, and reduce churn by the end of 2026.\n\nWe believe demand may soften."
	docs := mustEnqueue(t, g, extract.FromText("memo", memo))
	require.NoError(t, g.Run(context.Background()))

	doc, _ := g.Document(docs[0].ID)
	assert.Equal(t, constants.DocumentDone, doc.Status)
	assert.Equal(t, constants.SourceFlatText, doc.SourceType)
	assert.Equal(t, 1, doc.TotalPages)
	assert.Equal(t, 1, doc.SignalCount)

	cands := g.Candidates(ListOptions{})
	require.Len(t, cands, 3)
	for i := 1; i < len(cands); i++ {
		assert.GreaterOrEqual(t, cands[i-1].DecisionScore, cands[i].DecisionScore)
	}

	withSignals := g.Candidates(ListOptions{IncludeSignals: true})
	assert.Len(t, withSignals, 4)
}

func TestGovernor_CrossDocumentMerge(t *testing.T) {
	for _, merge := range []bool{false, true} {
		t.Run(fmt.Sprintf("merge=%v", merge), func(t *testing.T) {
			g := newTestGovernor(t, newFakeClock(), WithCrossDocumentMerge(merge))
			mustEnqueue(t, g,
				extract.FromPages("q3.pdf", teslaPage),
				extract.FromPages("q4.pdf", teslaPage),
			)
			require.NoError(t, g.Run(context.Background()))

			cands := g.Candidates(ListOptions{})
			if merge {
				require.Len(t, cands, 1)
				assert.Equal(t, 2, cands[0].SupportingCount)
			} else {
				assert.Len(t, cands, 2)
			}
		})
	}
}

func TestGovernor_Review(t *testing.T) {
	g := newTestGovernor(t, newFakeClock())
	mustEnqueue(t, g, extract.FromPages("tesla.pdf", teslaPage))
	require.NoError(t, g.Run(context.Background()))
	id := g.Candidates(ListOptions{})[0].ID

	kept := true
	category := "operations"
	got, err := g.Review(id, ReviewEdit{
		Kept:     &kept,
		Category: &category,
		Metrics:  &entity.ReviewMetrics{Impact: 8, Cost: 6, Risk: 4, Urgency: 7, Confidence: 5},
	})
	require.NoError(t, err)
	assert.True(t, got.Kept)
	assert.Equal(t, constants.Ops, got.Category)
	assert.Equal(t, 8, got.Metrics.Impact)

	assert.Len(t, g.Candidates(ListOptions{KeptOnly: true}), 1)

	_, err = g.Review(id, ReviewEdit{Metrics: &entity.ReviewMetrics{Impact: 11}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	bogus := "marketing"
	_, err = g.Review(id, ReviewEdit{Category: &bogus})
	assert.Error(t, err)

	_, err = g.Review("missing", ReviewEdit{Kept: &kept})
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestGovernor_EnqueueValidation(t *testing.T) {
	g := newTestGovernor(t, newFakeClock())

	_, err := g.Enqueue(extract.Source{Label: "", Pages: extract.StaticPages{"x"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidInput))

	_, err = g.Enqueue(extract.Source{Label: "both", Pages: extract.StaticPages{"x"}, Text: extract.StaticText("y")})
	require.Error(t, err)

	_, err = g.Enqueue(extract.FromPages("ok.pdf", "x"), extract.Source{Label: "none"})
	require.Error(t, err)
	assert.Empty(t, g.Documents(), "nothing is queued when one source is invalid")
}

func TestGovernor_RunIsExclusive(t *testing.T) {
	var inner error
	var g *Governor
	g = newTestGovernor(t, newFakeClock(), WithYield(func(ctx context.Context) error {
		inner = g.Run(ctx)
		return nil
	}))
	mustEnqueue(t, g, extract.FromPages("a.pdf", teslaPage))
	require.NoError(t, g.Run(context.Background()))
	assert.ErrorIs(t, inner, ErrAlreadyRunning)
	assert.False(t, g.Running())
}

func TestGovernor_StatusAndClear(t *testing.T) {
	g := newTestGovernor(t, newFakeClock())
	assert.Equal(t, "No documents queued.", g.Status())
	assert.Equal(t, 0, g.Progress())

	var during string
	g.yield = func(context.Context) error {
		during = g.Status()
		return nil
	}
	mustEnqueue(t, g, extract.FromPages("a.pdf", teslaPage, teslaPage))
	require.NoError(t, g.Run(context.Background()))

	assert.Contains(t, during, "Processing a.pdf: page 2 of 2")
	assert.Equal(t, "Idle (0 pending, 0 paused, 1 done, 0 failed; 1 candidates)", g.Status())

	g.Clear()
	assert.Empty(t, g.Documents())
	assert.Empty(t, g.Candidates(ListOptions{}))
	assert.Equal(t, "No documents queued.", g.Status())
}

func TestGovernor_ClearDuringRunIsNotPersisted(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
	}{
		{name: "mid document", pages: reportPages()},
		{name: "last page", pages: []string{teslaPage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &memorySink{}
			var g *Governor
			g = newTestGovernor(t, newFakeClock(), WithSink(sink), WithYield(func(context.Context) error {
				g.Clear()
				return nil
			}))
			mustEnqueue(t, g, extract.FromPages("cleared.pdf", tt.pages...))
			require.NoError(t, g.Run(context.Background()))

			assert.Empty(t, sink.snaps)
			assert.Empty(t, g.Documents())
			assert.Empty(t, g.Candidates(ListOptions{IncludeSignals: true}))
			assert.Equal(t, "No documents queued.", g.Status())
		})
	}
}

type memorySink struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (s *memorySink) SaveSnapshot(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return nil
}

func TestGovernor_SinkReceivesSnapshots(t *testing.T) {
	sink := &memorySink{}
	g := newTestGovernor(t, newFakeClock(), WithSink(sink))
	mustEnqueue(t, g, extract.FromPages("tesla.pdf", teslaPage))
	require.NoError(t, g.Run(context.Background()))

	require.Len(t, sink.snaps, 1)
	assert.Equal(t, constants.DocumentDone, sink.snaps[0].Document.Status)
	assert.Len(t, sink.snaps[0].Candidates, 1)
}
