// Package pipeline runs one page of text through normalization,
// segmentation, quality grading and signal scoring.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/decisions-tracker/internal/dedup"
	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
	"github.com/joseph-ayodele/decisions-tracker/internal/quality"
	"github.com/joseph-ayodele/decisions-tracker/internal/segment"
	"github.com/joseph-ayodele/decisions-tracker/internal/signals"
	"github.com/joseph-ayodele/decisions-tracker/internal/textnorm"
)

// PageInput is one unit of raw text handed over by a page source.
type PageInput struct {
	DocID    string
	DocLabel string
	Page     int
	Raw      string
}

// PageResult is everything one page produced. Nothing in it has been merged
// into a running set yet.
type PageResult struct {
	Normalized textnorm.Result
	Quality    quality.Assessment
	Candidates []entity.DecisionCandidate
	Signals    []entity.DecisionCandidate
	Chunks     int
	Rejected   int
}

type PageStage struct {
	Scorer *signals.Scorer
	Logger *slog.Logger
}

func NewPageStage(scorer *signals.Scorer, logger *slog.Logger) *PageStage {
	if logger == nil {
		logger = slog.Default()
	}
	if scorer == nil {
		scorer = signals.NewScorer(quality.DefaultFloors())
	}
	return &PageStage{Scorer: scorer, Logger: logger}
}

// Process scores every chunk on the page. cache is the document's
// repeated-line state; pass nil for flat text.
func (s *PageStage) Process(in PageInput, cache *textnorm.LineCache) PageResult {
	norm := textnorm.Normalize(in.Raw, cache)
	res := PageResult{
		Normalized: norm,
		Quality:    quality.Classify(norm.Text, norm.Lines),
	}

	chunks := segment.Split(norm.Text)
	res.Chunks = len(chunks)
	for idx, chunk := range chunks {
		sc := s.Scorer.Evaluate(chunk, res.Quality.Tier)
		if sc.Verdict == signals.VerdictReject {
			res.Rejected++
			continue
		}

		c := entity.DecisionCandidate{
			ID:              CandidateID(in.DocID, in.Page, idx),
			DocID:           in.DocID,
			DocLabel:        in.DocLabel,
			PageNumber:      in.Page,
			DecisionText:    chunk,
			Triggers:        sc.Triggers,
			DecisionScore:   sc.Value,
			CandidateType:   sc.Type,
			Category:        sc.Category,
			TimeAnchors:     sc.TimeAnchors,
			Signature:       dedup.Signature(chunk, sc.TimeAnchors),
			SupportingCount: 1,
		}
		if sc.Verdict == signals.VerdictSignal {
			res.Signals = append(res.Signals, c)
		} else {
			res.Candidates = append(res.Candidates, c)
		}
	}

	s.Logger.Debug("pipeline.page.scored",
		"doc_id", in.DocID,
		"page", in.Page,
		"tier", res.Quality.Tier,
		"chunks", res.Chunks,
		"candidates", len(res.Candidates),
		"signals", len(res.Signals),
		"suppressed_lines", len(norm.Suppressed),
	)
	return res
}

// CandidateID is unique per document, page and chunk index.
func CandidateID(docID string, page, chunk int) string {
	return fmt.Sprintf("%s:p%d:c%d", docID, page, chunk)
}
