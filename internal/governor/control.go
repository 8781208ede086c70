package governor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joseph-ayodele/decisions-tracker/constants"
	"github.com/joseph-ayodele/decisions-tracker/internal/common"
	"github.com/joseph-ayodele/decisions-tracker/internal/dedup"
	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
)

// Pause asks the running governor to pause the active document after its
// current page and stop the run.
func (g *Governor) Pause() {
	g.userPause.Store(true)
}

// Resume moves paused documents back to pending, all of them when no ids
// are given. The host calls Run again to continue. It returns how many
// documents were resumed.
func (g *Governor) Resume(ids ...string) int {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return g.resume(func(st *docState) bool {
		_, ok := want[st.doc.ID]
		return len(ids) == 0 || ok
	})
}

// ResumeAutoPaused resumes only documents the governor paused on its own,
// for time or memory. Documents paused by the user stay paused.
func (g *Governor) ResumeAutoPaused() int {
	return g.resume(func(st *docState) bool {
		return st.pauseReason == reasonTime || st.pauseReason == reasonMemory
	})
}

func (g *Governor) resume(match func(*docState) bool) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, st := range g.ordered() {
		if st.doc.Status != constants.DocumentPaused || !match(st) {
			continue
		}
		st.doc.Status = constants.DocumentPending
		st.doc.PauseMessage = ""
		st.pauseReason = ""
		st.doc.UpdatedAt = g.now()
		n++
		g.logger.Info("governor.document.resumed", "doc_id", st.doc.ID, "next_page", st.doc.ProcessedPages+1)
	}
	g.updateQueueDepthLocked()
	return n
}

// Cancel stops the current run at the next check point. In-flight work
// since the last committed page is discarded.
func (g *Governor) Cancel() {
	g.cancelled.Store(true)
}

// Clear drops every document and candidate. A running governor is
// cancelled first.
func (g *Governor) Clear() {
	if g.running.Load() {
		g.cancelled.Store(true)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, st := range g.docs {
		if st != g.active {
			closeSource(st)
		}
	}
	g.docs = make(map[string]*docState)
	g.active = nil
	g.updateQueueDepthLocked()
	g.logger.Info("governor.cleared")
}

// Running reports whether Run is in progress.
func (g *Governor) Running() bool {
	return g.running.Load()
}

// Status is a one-line summary for the host UI.
func (g *Governor) Status() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.docs) == 0 {
		return "No documents queued."
	}

	counts := make(map[constants.DocumentStatus]int)
	candidates := 0
	for _, st := range g.docs {
		counts[st.doc.Status]++
		candidates += st.cands.Len()
	}
	summary := fmt.Sprintf("%d pending, %d paused, %d done, %d failed; %d candidates",
		counts[constants.DocumentPending], counts[constants.DocumentPaused],
		counts[constants.DocumentDone], counts[constants.DocumentError], candidates)

	if st := g.active; st != nil {
		if st.doc.TotalPages > 0 {
			return fmt.Sprintf("Processing %s: page %d of %d (%s)", st.doc.Label, st.doc.ProcessedPages, st.doc.TotalPages, summary)
		}
		return fmt.Sprintf("Processing %s (%s)", st.doc.Label, summary)
	}
	return "Idle (" + summary + ")"
}

// Progress is processed pages over total pages, 0-100, across documents
// whose page count is known.
func (g *Governor) Progress() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	processed, total := 0, 0
	for _, st := range g.docs {
		if st.doc.TotalPages <= 0 {
			continue
		}
		processed += st.doc.ProcessedPages
		total += st.doc.TotalPages
	}
	if total == 0 {
		return 0
	}
	return processed * 100 / total
}

// Documents returns every document in enqueue order.
func (g *Governor) Documents() []entity.Document {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]entity.Document, 0, len(g.docs))
	for _, st := range g.ordered() {
		out = append(out, st.doc)
	}
	return out
}

func (g *Governor) Document(id string) (entity.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.docs[id]
	if !ok {
		return entity.Document{}, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	return st.doc, nil
}

// Snapshots returns each document with its candidates, in enqueue order.
func (g *Governor) Snapshots() []Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Snapshot, 0, len(g.docs))
	for _, st := range g.ordered() {
		out = append(out, snapshotLocked(st))
	}
	return out
}

// ListOptions filters Candidates.
type ListOptions struct {
	IncludeSignals bool
	DocID          string
	KeptOnly       bool
	Category       constants.Category
	Limit          int
}

// Candidates returns candidates sorted by score, highest first. Signals
// stay hidden unless asked for. With cross-document merge on, candidates
// from all documents are merged through one set, in enqueue order.
func (g *Governor) Candidates(opts ListOptions) []entity.DecisionCandidate {
	g.mu.Lock()
	var cands, sigs []entity.DecisionCandidate
	for _, st := range g.ordered() {
		if !g.crossMerge && opts.DocID != "" && st.doc.ID != opts.DocID {
			continue
		}
		cands = append(cands, st.cands.Items()...)
		if opts.IncludeSignals {
			sigs = append(sigs, st.sigs.Items()...)
		}
	}
	g.mu.Unlock()

	if g.crossMerge {
		cands = dedup.Merge(cands)
		sigs = dedup.Merge(sigs)
	}

	all := append(cands, sigs...)
	out := all[:0]
	for _, c := range all {
		if opts.DocID != "" && c.DocID != opts.DocID {
			continue
		}
		if opts.KeptOnly && !c.Kept {
			continue
		}
		if opts.Category != "" && c.Category != opts.Category {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DecisionScore > out[j].DecisionScore })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// ReviewEdit carries the reviewer's changes; nil fields are left alone.
type ReviewEdit struct {
	Kept     *bool
	Category *string
	Metrics  *entity.ReviewMetrics
}

// Review applies a reviewer edit to one candidate or signal.
func (g *Governor) Review(id string, edit ReviewEdit) (entity.DecisionCandidate, error) {
	if err := ValidateReview(edit); err != nil {
		return entity.DecisionCandidate{}, err
	}

	var category constants.Category
	if edit.Category != nil {
		category, _ = constants.Canonicalize(*edit.Category)
	}

	apply := func(c *entity.DecisionCandidate) {
		if edit.Kept != nil {
			c.Kept = *edit.Kept
		}
		if edit.Category != nil {
			c.Category = category
		}
		if edit.Metrics != nil {
			c.Metrics = *edit.Metrics
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, st := range g.ordered() {
		for _, set := range []*dedup.Set{st.cands, st.sigs} {
			if !set.Update(id, apply) {
				continue
			}
			for _, c := range set.Items() {
				if c.ID == id {
					return c, nil
				}
			}
		}
	}
	return entity.DecisionCandidate{}, fmt.Errorf("candidate %s: %w", id, common.ErrNotFound)
}

// ValidateReview checks slider ranges and the category label.
func ValidateReview(edit ReviewEdit) error {
	v := common.NewValidator()
	if edit.Category != nil {
		v.Field("category", *edit.Category, common.Required, categoryRule)
	}
	if m := edit.Metrics; m != nil {
		r := common.IntRange(0, 10)
		v.Field("impact", m.Impact, r)
		v.Field("cost", m.Cost, r)
		v.Field("risk", m.Risk, r)
		v.Field("urgency", m.Urgency, r)
		v.Field("confidence", m.Confidence, r)
	}
	return common.ValidateAndReturnError(v)
}

func categoryRule(field string, value interface{}) *common.ValidationError {
	s, _ := value.(string)
	if _, ok := constants.Canonicalize(s); ok {
		return nil
	}
	return &common.ValidationError{
		Field:   field,
		Value:   value,
		Message: "must be one of " + strings.Join(constants.AsStringSlice(), ", "),
	}
}
