// Package governor runs queued documents through the page pipeline one at a
// time, and pauses or stops them on time, memory and host requests.
package governor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/decisions-tracker/constants"
	"github.com/joseph-ayodele/decisions-tracker/internal/common"
	"github.com/joseph-ayodele/decisions-tracker/internal/dedup"
	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
	"github.com/joseph-ayodele/decisions-tracker/internal/extract"
	"github.com/joseph-ayodele/decisions-tracker/internal/metrics"
	"github.com/joseph-ayodele/decisions-tracker/internal/pipeline"
	"github.com/joseph-ayodele/decisions-tracker/internal/quality"
	"github.com/joseph-ayodele/decisions-tracker/internal/textnorm"
)

var ErrAlreadyRunning = errors.New("governor is already running")

const maxLabelLength = 512

// Pause reasons, also used as the metrics label.
const (
	reasonTime   = "time"
	reasonMemory = "memory"
	reasonUser   = "user"
)

// Snapshot is a document plus everything it has produced so far.
type Snapshot struct {
	Document   entity.Document
	Candidates []entity.DecisionCandidate
	Signals    []entity.DecisionCandidate
}

// docState is the explicit per-document pipeline state. It survives pause
// and resume so a resumed document continues rather than restarts.
type docState struct {
	doc   entity.Document
	seq   int64
	src   extract.Source
	cache *textnorm.LineCache
	cands *dedup.Set
	sigs  *dedup.Set
	stats quality.Stats
	// pauseReason is set while the document is paused.
	pauseReason string
}

type Governor struct {
	stage   *pipeline.PageStage
	logger  *slog.Logger
	metrics *metrics.Metrics
	sink    Sink

	now          func() time.Time
	yield        YieldFunc
	memory       MemoryProbe
	maxDocTime   time.Duration
	memThreshold float64
	crossMerge   bool

	mu     sync.Mutex
	docs   map[string]*docState
	seq    int64
	active *docState

	running   atomic.Bool
	cancelled atomic.Bool
	userPause atomic.Bool
}

func New(stage *pipeline.PageStage, logger *slog.Logger, opts ...Option) *Governor {
	if logger == nil {
		logger = slog.Default()
	}
	if stage == nil {
		stage = pipeline.NewPageStage(nil, logger)
	}
	g := &Governor{
		stage:        stage,
		logger:       logger,
		metrics:      metrics.NewUnregistered(),
		now:          time.Now,
		yield:        gosched,
		memory:       RuntimeMemoryProbe(0),
		maxDocTime:   DefaultMaxDocumentTime,
		memThreshold: DefaultMemoryThreshold,
		docs:         make(map[string]*docState),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Enqueue validates and queues sources in order. Nothing is queued if any
// source is invalid.
func (g *Governor) Enqueue(sources ...extract.Source) ([]entity.Document, error) {
	v := common.NewValidator()
	for i, s := range sources {
		v.Field(fmt.Sprintf("sources[%d].label", i), s.Label, common.Required, common.MaxLength(maxLabelLength))
		v.Field(fmt.Sprintf("sources[%d]", i), s, exactlyOneInput)
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	out := make([]entity.Document, 0, len(sources))
	for _, s := range sources {
		g.seq++
		st := &docState{
			doc: entity.Document{
				ID:          uuid.NewString(),
				Label:       s.Label,
				SourceType:  s.Type(),
				SourcePath:  s.Path,
				ContentHash: s.Hash,
				Status:      constants.DocumentPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
			seq:   g.seq,
			src:   s,
			cache: textnorm.NewLineCache(),
			cands: dedup.NewSet(),
			sigs:  dedup.NewSet(),
		}
		g.docs[st.doc.ID] = st
		out = append(out, st.doc)
		g.logger.Info("governor.document.queued", "doc_id", st.doc.ID, "label", s.Label, "source_type", st.doc.SourceType)
	}
	g.updateQueueDepthLocked()
	return out, nil
}

func exactlyOneInput(field string, value interface{}) *common.ValidationError {
	s, _ := value.(extract.Source)
	if (s.Pages == nil) == (s.Text == nil) {
		return &common.ValidationError{Field: field, Value: s.Label, Message: "needs exactly one of pages or text"}
	}
	return nil
}

// Run processes pending documents in FIFO order on the calling goroutine
// until the queue is empty, the host pauses or cancels, or memory pressure
// halts the run. Cancellation is not an error.
func (g *Governor) Run(ctx context.Context) error {
	if !g.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer g.running.Store(false)
	g.cancelled.Store(false)
	g.userPause.Store(false)

	ctx = common.WithRunID(ctx, uuid.NewString())
	g.logger.Info("governor.run.start", common.LogAttrs(ctx)...)

	for {
		if g.stopRequested(ctx) {
			g.logger.Info("governor.run.cancelled", common.LogAttrs(ctx)...)
			return nil
		}
		if g.userPause.Load() {
			g.logger.Info("governor.run.paused", common.LogAttrs(ctx)...)
			return nil
		}
		st := g.dequeue()
		if st == nil {
			g.logger.Info("governor.run.idle", append(common.LogAttrs(ctx), "status", g.Status())...)
			return nil
		}
		if halt := g.process(ctx, st); halt {
			return nil
		}
	}
}

func (g *Governor) stopRequested(ctx context.Context) bool {
	return g.cancelled.Load() || ctx.Err() != nil
}

// dequeue marks the oldest pending document as processing.
func (g *Governor) dequeue() *docState {
	g.mu.Lock()
	defer g.mu.Unlock()

	var next *docState
	for _, st := range g.docs {
		if st.doc.Status != constants.DocumentPending {
			continue
		}
		if next == nil || st.seq < next.seq {
			next = st
		}
	}
	if next == nil {
		return nil
	}
	next.doc.Status = constants.DocumentProcessing
	next.doc.PauseMessage = ""
	next.pauseReason = ""
	next.doc.UpdatedAt = g.now()
	g.active = next
	g.updateQueueDepthLocked()
	return next
}

// process runs one document and reports whether the whole run must halt.
func (g *Governor) process(ctx context.Context, st *docState) bool {
	ctx = common.WithDocumentID(ctx, st.doc.ID)
	if st.src.Pages == nil {
		return g.processFlat(ctx, st)
	}

	started := g.now()
	total := st.doc.TotalPages
	if total == 0 {
		n, err := st.src.Pages.PageCount(ctx)
		if err != nil {
			if g.stopRequested(ctx) {
				g.requeue(ctx, st, nil)
				return true
			}
			g.fail(ctx, st, fmt.Errorf("count pages: %w", err))
			return false
		}
		total = n
		g.mu.Lock()
		st.doc.TotalPages = n
		g.mu.Unlock()
	}

	for page := st.doc.ProcessedPages + 1; page <= total; page++ {
		if g.stopRequested(ctx) {
			g.requeue(ctx, st, nil)
			return true
		}

		pageStart := g.now()
		raw, err := st.src.Pages.Page(ctx, page)
		if err != nil {
			if g.stopRequested(ctx) {
				g.requeue(ctx, st, nil)
				return true
			}
			g.fail(ctx, st, fmt.Errorf("page %d: %w", page, err))
			return false
		}

		res := g.stage.Process(pipeline.PageInput{
			DocID:    st.doc.ID,
			DocLabel: st.doc.Label,
			Page:     page,
			Raw:      raw,
		}, st.cache)
		g.commit(ctx, st, page, res)
		g.metrics.PageDuration.Observe(g.now().Sub(pageStart).Seconds())

		yieldErr := g.yield(ctx)
		if page == total {
			break
		}
		if yieldErr != nil || g.stopRequested(ctx) {
			g.requeue(ctx, st, yieldErr)
			return true
		}
		if g.userPause.Load() {
			g.pause(ctx, st, reasonUser, fmt.Sprintf("Paused by user after page %d of %d.", page, total))
			return true
		}
		if elapsed := g.now().Sub(started); elapsed > g.maxDocTime {
			g.pause(ctx, st, reasonTime, fmt.Sprintf(
				"Paused after page %d of %d: processing took longer than %s. Resume to continue from page %d.",
				page, total, g.maxDocTime, page+1))
			return false
		}
		if ratio := g.memory(); ratio > g.memThreshold {
			g.pause(ctx, st, reasonMemory, fmt.Sprintf(
				"Paused after page %d of %d: memory pressure at %.0f%% (limit %.0f%%). Resume to continue from page %d.",
				page, total, ratio*100, g.memThreshold*100, page+1))
			return true
		}
	}

	g.finish(ctx, st)
	return false
}

// processFlat handles a pasted blob as a single page-equivalent unit.
func (g *Governor) processFlat(ctx context.Context, st *docState) bool {
	body, err := st.src.Text.Text(ctx)
	if err != nil {
		if g.stopRequested(ctx) {
			g.requeue(ctx, st, nil)
			return true
		}
		g.fail(ctx, st, fmt.Errorf("read text: %w", err))
		return false
	}

	g.mu.Lock()
	st.doc.TotalPages = 1
	g.mu.Unlock()

	res := g.stage.Process(pipeline.PageInput{
		DocID:    st.doc.ID,
		DocLabel: st.doc.Label,
		Page:     1,
		Raw:      body,
	}, nil)
	g.commit(ctx, st, 1, res)
	_ = g.yield(ctx)
	g.finish(ctx, st)
	return false
}

// commit merges one page's results into the document's running sets. It is
// the only place candidates become visible.
func (g *Governor) commit(ctx context.Context, st *docState, page int, res pipeline.PageResult) {
	g.mu.Lock()
	merges := st.cands.AddAll(res.Candidates)
	merges += st.sigs.AddAll(res.Signals)
	st.stats.Add(res.Normalized.Text, res.Normalized.Lines)
	a := st.stats.Assess()
	st.doc.ProcessedPages = page
	st.doc.QualityTier = a.Tier
	st.doc.QualityReason = a.Reason
	st.doc.CandidateCount = st.cands.Len()
	st.doc.SignalCount = st.sigs.Len()
	st.doc.UpdatedAt = g.now()
	total := st.doc.TotalPages
	g.mu.Unlock()

	g.metrics.PagesTotal.Inc()
	g.metrics.MergesTotal.Add(float64(merges))
	g.metrics.ChunksTotal.WithLabelValues("accept").Add(float64(len(res.Candidates)))
	g.metrics.ChunksTotal.WithLabelValues("signal").Add(float64(len(res.Signals)))
	g.metrics.ChunksTotal.WithLabelValues("reject").Add(float64(res.Rejected))

	g.logger.Info("governor.page.ok", append(common.LogAttrs(ctx),
		"page", page,
		"total_pages", total,
		"page_tier", res.Quality.Tier,
		"candidates", len(res.Candidates),
		"signals", len(res.Signals),
		"merged", merges,
	)...)
}

func (g *Governor) finish(ctx context.Context, st *docState) {
	g.transition(st, constants.DocumentDone, "", "")
	closeSource(st)
	g.metrics.DocumentsTotal.WithLabelValues(string(constants.DocumentDone)).Inc()
	g.logger.Info("governor.document.done", append(common.LogAttrs(ctx),
		"label", st.doc.Label,
		"pages", st.doc.ProcessedPages,
		"quality_tier", st.doc.QualityTier,
		"candidates", st.doc.CandidateCount,
		"signals", st.doc.SignalCount,
	)...)
	g.save(ctx, st)
}

func (g *Governor) fail(ctx context.Context, st *docState, err error) {
	appErr := common.ExtractionError(st.doc.Label, err)
	g.transition(st, constants.DocumentError, "", appErr.Error())
	closeSource(st)
	g.metrics.DocumentsTotal.WithLabelValues(string(constants.DocumentError)).Inc()
	g.logger.Error("governor.document.failed", append(common.LogAttrs(ctx), "label", st.doc.Label, "error", err)...)
	g.save(ctx, st)
}

func (g *Governor) pause(ctx context.Context, st *docState, reason, msg string) {
	g.transition(st, constants.DocumentPaused, msg, "")
	g.mu.Lock()
	st.pauseReason = reason
	g.mu.Unlock()
	g.metrics.PausesTotal.WithLabelValues(reason).Inc()
	g.logger.Warn("governor.document.paused", append(common.LogAttrs(ctx), "reason", reason, "pages", st.doc.ProcessedPages, "message", msg)...)
	g.save(ctx, st)
}

// requeue returns an interrupted document to pending. Committed pages and
// the line cache are kept.
func (g *Governor) requeue(ctx context.Context, st *docState, yieldErr error) {
	g.transition(st, constants.DocumentPending, "", "")
	g.logger.Info("governor.document.requeued", append(common.LogAttrs(ctx),
		"pages", st.doc.ProcessedPages,
		"cause", cancelCause(ctx, yieldErr),
	)...)
	g.save(ctx, st)
}

// cancelCause explains why a document stopped mid-run. The result always
// matches common.ErrCancelled.
func cancelCause(ctx context.Context, yieldErr error) error {
	switch {
	case yieldErr != nil:
		return common.WrapError(errors.Join(common.ErrCancelled, yieldErr), "yield")
	case ctx.Err() != nil:
		return common.WrapError(errors.Join(common.ErrCancelled, context.Cause(ctx)), "context")
	default:
		return common.WrapError(common.ErrCancelled, "host request")
	}
}

func (g *Governor) transition(st *docState, status constants.DocumentStatus, pauseMsg, errMsg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st.doc.Status = status
	st.doc.PauseMessage = pauseMsg
	st.doc.Error = errMsg
	st.doc.UpdatedAt = g.now()
	if g.active == st {
		g.active = nil
	}
	g.updateQueueDepthLocked()
}

func (g *Governor) save(ctx context.Context, st *docState) {
	g.mu.Lock()
	if g.docs[st.doc.ID] != st {
		// Cleared while it was the active document.
		g.mu.Unlock()
		closeSource(st)
		g.logger.Debug("governor.snapshot.skipped", append(common.LogAttrs(ctx), "reason", "cleared")...)
		return
	}
	if g.sink == nil {
		g.mu.Unlock()
		return
	}
	snap := snapshotLocked(st)
	g.mu.Unlock()
	// Persist even when the run itself was cancelled.
	if err := g.sink.SaveSnapshot(context.WithoutCancel(ctx), snap); err != nil {
		g.logger.Error("governor.snapshot.failed", append(common.LogAttrs(ctx), "error", err)...)
	}
}

func snapshotLocked(st *docState) Snapshot {
	return Snapshot{
		Document:   st.doc,
		Candidates: st.cands.Items(),
		Signals:    st.sigs.Items(),
	}
}

func closeSource(st *docState) {
	if c, ok := st.src.Pages.(io.Closer); ok {
		_ = c.Close()
	}
}

func (g *Governor) updateQueueDepthLocked() {
	n := 0
	for _, st := range g.docs {
		if st.doc.Status == constants.DocumentPending {
			n++
		}
	}
	g.metrics.QueueDepth.Set(float64(n))
}

// ordered returns the document states by enqueue sequence. Callers hold mu.
func (g *Governor) ordered() []*docState {
	out := make([]*docState, 0, len(g.docs))
	for _, st := range g.docs {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
