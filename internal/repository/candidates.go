package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joseph-ayodele/decisions-tracker/constants"
	"github.com/joseph-ayodele/decisions-tracker/internal/common"
	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
)

const candidateColumns = `id, doc_id, doc_label, page_number, decision_text, triggers, decision_score, candidate_type,
	category, category_overridden, time_anchors, signature, supporting_count, kept, impact, cost, risk, urgency, confidence`

// CandidateFilter narrows ListCandidates.
type CandidateFilter struct {
	DocID          string
	KeptOnly       bool
	IncludeSignals bool
	Limit          int
}

// reviewerState is what a reviewer may have changed on a stored candidate.
type reviewerState struct {
	kept               bool
	category           constants.Category
	categoryOverridden bool
	metrics            entity.ReviewMetrics
}

func (r reviewerState) applyTo(c entity.DecisionCandidate) entity.DecisionCandidate {
	c.Kept = c.Kept || r.kept
	if r.categoryOverridden {
		c.Category = r.category
	}
	if c.Metrics == (entity.ReviewMetrics{}) {
		c.Metrics = r.metrics
	}
	return c
}

func (s *Store) reviewState(ctx context.Context, tx *sql.Tx, docID string) (map[string]reviewerState, error) {
	rows, err := tx.QueryContext(ctx, s.db.rebind(
		`SELECT id, kept, category, category_overridden, impact, cost, risk, urgency, confidence
		FROM candidates WHERE doc_id = ?`), docID)
	if err != nil {
		return nil, common.NewAppError(common.CodeStorage, "read reviewer state", err)
	}
	defer rows.Close()

	out := make(map[string]reviewerState)
	for rows.Next() {
		var (
			id       string
			category string
			st       reviewerState
		)
		m := &st.metrics
		if err := rows.Scan(&id, &st.kept, &category, &st.categoryOverridden,
			&m.Impact, &m.Cost, &m.Risk, &m.Urgency, &m.Confidence); err != nil {
			return nil, common.NewAppError(common.CodeStorage, "scan reviewer state", err)
		}
		st.category = constants.Category(category)
		out[id] = st
	}
	return out, rows.Err()
}

func (s *Store) insertCandidate(ctx context.Context, tx *sql.Tx, c entity.DecisionCandidate, overridden bool) error {
	triggers, err := marshalList(c.Triggers)
	if err != nil {
		return err
	}
	anchors, err := marshalList(c.TimeAnchors)
	if err != nil {
		return err
	}
	q := `INSERT INTO candidates (` + candidateColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, s.db.rebind(q),
		c.ID, c.DocID, c.DocLabel, c.PageNumber, c.DecisionText, triggers, c.DecisionScore, string(c.CandidateType),
		string(c.Category), overridden, anchors, c.Signature, c.SupportingCount, c.Kept,
		c.Metrics.Impact, c.Metrics.Cost, c.Metrics.Risk, c.Metrics.Urgency, c.Metrics.Confidence,
		time.Now().UTC(),
	)
	if err != nil {
		return common.NewAppError(common.CodeStorage, "insert candidate", err)
	}
	return nil
}

// ListCandidates returns stored candidates by descending score.
func (s *Store) ListCandidates(ctx context.Context, f CandidateFilter) ([]entity.DecisionCandidate, error) {
	q := `SELECT ` + candidateColumns + ` FROM candidates WHERE 1 = 1`
	var args []any
	if f.DocID != "" {
		q += ` AND doc_id = ?`
		args = append(args, f.DocID)
	}
	if f.KeptOnly {
		q += ` AND kept = ?`
		args = append(args, true)
	}
	if !f.IncludeSignals {
		q += ` AND candidate_type <> ?`
		args = append(args, string(constants.BeliefOutlook))
	}
	q += ` ORDER BY decision_score DESC, doc_id, page_number, id`
	if f.Limit > 0 {
		q += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.SQL.QueryContext(ctx, s.db.rebind(q), args...)
	if err != nil {
		return nil, common.NewAppError(common.CodeStorage, "list candidates", err)
	}
	defer rows.Close()

	var out []entity.DecisionCandidate
	for rows.Next() {
		var (
			c                 entity.DecisionCandidate
			triggers, anchors string
			ctype, category   string
			overridden        bool
		)
		m := &c.Metrics
		if err := rows.Scan(&c.ID, &c.DocID, &c.DocLabel, &c.PageNumber, &c.DecisionText, &triggers,
			&c.DecisionScore, &ctype, &category, &overridden, &anchors, &c.Signature, &c.SupportingCount,
			&c.Kept, &m.Impact, &m.Cost, &m.Risk, &m.Urgency, &m.Confidence); err != nil {
			return nil, common.NewAppError(common.CodeStorage, "scan candidate", err)
		}
		c.CandidateType = constants.CandidateType(ctype)
		c.Category = constants.Category(category)
		if c.Triggers, err = unmarshalList(triggers); err != nil {
			return nil, err
		}
		if c.TimeAnchors, err = unmarshalList(anchors); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SetKept(ctx context.Context, id string, kept bool) error {
	return s.update(ctx, id, `UPDATE candidates SET kept = ?, updated_at = ? WHERE id = ?`, kept, time.Now().UTC(), id)
}

// SetCategory records a reviewer override that later snapshots keep.
func (s *Store) SetCategory(ctx context.Context, id string, category constants.Category) error {
	return s.update(ctx, id,
		`UPDATE candidates SET category = ?, category_overridden = ?, updated_at = ? WHERE id = ?`,
		string(category), true, time.Now().UTC(), id)
}

func (s *Store) SetMetrics(ctx context.Context, id string, m entity.ReviewMetrics) error {
	return s.update(ctx, id,
		`UPDATE candidates SET impact = ?, cost = ?, risk = ?, urgency = ?, confidence = ?, updated_at = ? WHERE id = ?`,
		m.Impact, m.Cost, m.Risk, m.Urgency, m.Confidence, time.Now().UTC(), id)
}

func (s *Store) update(ctx context.Context, id, q string, args ...any) error {
	res, err := s.db.SQL.ExecContext(ctx, s.db.rebind(q), args...)
	if err != nil {
		return common.NewAppError(common.CodeStorage, "update candidate", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.NewAppError(common.CodeStorage, "update candidate", err)
	}
	if n == 0 {
		return fmt.Errorf("candidate %s: %w", id, common.ErrNotFound)
	}
	s.logger.Debug("repository.candidate.updated", "candidate_id", id)
	return nil
}

func marshalList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", common.NewAppError(common.CodeStorage, "encode list", err)
	}
	return string(b), nil
}

func unmarshalList(s string) ([]string, error) {
	var out []string
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, common.NewAppError(common.CodeStorage, "decode list", err)
	}
	return out, nil
}
