package repository

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/decisions-tracker/constants"
	"github.com/joseph-ayodele/decisions-tracker/internal/common"
	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
	"github.com/joseph-ayodele/decisions-tracker/internal/governor"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, common.DatabaseConfig{Driver: DriverSQLite, DSN: "file::memory:"}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(slog.Default()) })
	require.NoError(t, db.Migrate(ctx))
	return NewStore(db, slog.Default())
}

func testSnapshot() governor.Snapshot {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := entity.Document{
		ID:             "doc-1",
		Label:          "acme-q4.pdf",
		SourceType:     constants.SourcePaginated,
		ContentHash:    "abc123",
		Status:         constants.DocumentProcessing,
		ProcessedPages: 1,
		TotalPages:     3,
		QualityTier:    constants.TierA,
		CandidateCount: 2,
		SignalCount:    1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return governor.Snapshot{
		Document: doc,
		Candidates: []entity.DecisionCandidate{
			{
				ID: "doc-1:p1:c0", DocID: doc.ID, DocLabel: doc.Label, PageNumber: 1,
				DecisionText:  "We will open a distribution hub in Ohio in Q1 2026.",
				Triggers:      []string{"commitment:will", "time:q1 2026"},
				DecisionScore: 55, CandidateType: constants.Commitment, Category: constants.Ops,
				TimeAnchors: []string{"q1 2026"}, SupportingCount: 1,
			},
			{
				ID: "doc-1:p1:c1", DocID: doc.ID, DocLabel: doc.Label, PageNumber: 1,
				DecisionText:  "We plan to launch the Atlas app next quarter.",
				Triggers:      []string{"commitment:plan to"},
				DecisionScore: 70, CandidateType: constants.Commitment, Category: constants.Product,
				TimeAnchors: []string{"next quarter"}, SupportingCount: 2,
			},
		},
		Signals: []entity.DecisionCandidate{
			{
				ID: "doc-1:p1:c2", DocID: doc.ID, DocLabel: doc.Label, PageNumber: 1,
				DecisionText:  "We believe demand will remain strong.",
				Triggers:      []string{"belief:we believe"},
				DecisionScore: 10, CandidateType: constants.BeliefOutlook, Category: constants.Other,
				SupportingCount: 1,
			},
		},
	}
}

func TestSaveSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveSnapshot(ctx, testSnapshot()))

	doc, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "acme-q4.pdf", doc.Label)
	assert.Equal(t, constants.DocumentProcessing, doc.Status)
	assert.Equal(t, constants.TierA, doc.QualityTier)
	assert.Equal(t, 3, doc.TotalPages)

	cands, err := s.ListCandidates(ctx, CandidateFilter{})
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "doc-1:p1:c1", cands[0].ID, "highest score first")
	assert.Equal(t, []string{"next quarter"}, cands[0].TimeAnchors)
	assert.Equal(t, 2, cands[0].SupportingCount)
	assert.Equal(t, []string{"commitment:will", "time:q1 2026"}, cands[1].Triggers)

	all, err := s.ListCandidates(ctx, CandidateFilter{IncludeSignals: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := s.ListCandidates(ctx, CandidateFilter{IncludeSignals: true, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSaveSnapshotKeepsReviewerEdits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	snap := testSnapshot()
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	require.NoError(t, s.SetKept(ctx, "doc-1:p1:c0", true))
	require.NoError(t, s.SetCategory(ctx, "doc-1:p1:c0", constants.Capex))
	require.NoError(t, s.SetMetrics(ctx, "doc-1:p1:c0", entity.ReviewMetrics{Impact: 8, Risk: 3}))

	// the governor saves again after the next page
	snap.Document.ProcessedPages = 2
	snap.Document.Status = constants.DocumentDone
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	kept, err := s.ListCandidates(ctx, CandidateFilter{KeptOnly: true})
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, constants.Capex, kept[0].Category)
	assert.Equal(t, entity.ReviewMetrics{Impact: 8, Risk: 3}, kept[0].Metrics)

	doc, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.ProcessedPages)
	assert.Equal(t, constants.DocumentDone, doc.Status)
}

func TestSaveSnapshotDropsMergedCandidates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	snap := testSnapshot()
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	snap.Candidates = snap.Candidates[1:]
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	cands, err := s.ListCandidates(ctx, CandidateFilter{DocID: "doc-1"})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "doc-1:p1:c1", cands[0].ID)
}

func TestUpdateUnknownCandidate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	assert.ErrorIs(t, s.SetKept(ctx, "missing", true), common.ErrNotFound)
	assert.ErrorIs(t, s.SetCategory(ctx, "missing", constants.Ops), common.ErrNotFound)
	assert.ErrorIs(t, s.SetMetrics(ctx, "missing", entity.ReviewMetrics{}), common.ErrNotFound)

	_, err := s.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFindByHashAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveSnapshot(ctx, testSnapshot()))

	doc, ok, err := s.FindByHash(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "doc-1", doc.ID)

	_, ok, err = s.FindByHash(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.DeleteAll(ctx))
	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
	cands, err := s.ListCandidates(ctx, CandidateFilter{IncludeSignals: true})
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestRebind(t *testing.T) {
	pg := &DB{Driver: DriverPgx}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))
	lite := &DB{Driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), common.DatabaseConfig{Driver: "mysql", DSN: "x"}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
