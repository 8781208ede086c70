package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/decisions-tracker/constants"
	"github.com/joseph-ayodele/decisions-tracker/internal/common"
	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
	"github.com/joseph-ayodele/decisions-tracker/internal/governor"
)

// Store persists governor snapshots and reviewer edits.
type Store struct {
	db     *DB
	logger *slog.Logger
}

func NewStore(db *DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

const documentColumns = `id, label, source_type, source_path, content_hash, status, processed_pages, total_pages,
	quality_tier, quality_reason, pause_message, error, candidate_count, signal_count, created_at, updated_at`

// SaveSnapshot replaces a document's candidates with the snapshot while
// keeping reviewer edits made on earlier saves.
func (s *Store) SaveSnapshot(ctx context.Context, snap governor.Snapshot) error {
	tx, err := s.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError(common.CodeStorage, "begin snapshot", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.upsertDocument(ctx, tx, snap.Document); err != nil {
		s.logger.Error("failed to save document", "doc_id", snap.Document.ID, "error", err)
		return err
	}

	prev, err := s.reviewState(ctx, tx, snap.Document.ID)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM candidates WHERE doc_id = ?`), snap.Document.ID); err != nil {
		return common.NewAppError(common.CodeStorage, "clear candidates", err)
	}

	all := append(append([]entity.DecisionCandidate(nil), snap.Candidates...), snap.Signals...)
	for _, c := range all {
		if p, ok := prev[c.ID]; ok {
			c = p.applyTo(c)
		}
		if err := s.insertCandidate(ctx, tx, c, prev[c.ID].categoryOverridden); err != nil {
			s.logger.Error("failed to save candidate", "candidate_id", c.ID, "error", err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return common.NewAppError(common.CodeStorage, "commit snapshot", err)
	}
	s.logger.Debug("repository.snapshot.saved", "doc_id", snap.Document.ID, "candidates", len(all))
	return nil
}

func (s *Store) upsertDocument(ctx context.Context, tx *sql.Tx, d entity.Document) error {
	q := `INSERT INTO documents (` + documentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			processed_pages = excluded.processed_pages,
			total_pages = excluded.total_pages,
			quality_tier = excluded.quality_tier,
			quality_reason = excluded.quality_reason,
			pause_message = excluded.pause_message,
			error = excluded.error,
			candidate_count = excluded.candidate_count,
			signal_count = excluded.signal_count,
			updated_at = excluded.updated_at`
	_, err := tx.ExecContext(ctx, s.db.rebind(q),
		d.ID, d.Label, string(d.SourceType), d.SourcePath, d.ContentHash, string(d.Status),
		d.ProcessedPages, d.TotalPages, string(d.QualityTier), d.QualityReason, d.PauseMessage, d.Error,
		d.CandidateCount, d.SignalCount, d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
	)
	if err != nil {
		return common.NewAppError(common.CodeStorage, "upsert document", err)
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]entity.Document, error) {
	rows, err := s.db.SQL.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY created_at, id`)
	if err != nil {
		return nil, common.NewAppError(common.CodeStorage, "list documents", err)
	}
	defer rows.Close()

	var out []entity.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDocument(ctx context.Context, id string) (entity.Document, error) {
	row := s.db.SQL.QueryRowContext(ctx, s.db.rebind(`SELECT `+documentColumns+` FROM documents WHERE id = ?`), id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Document{}, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	return d, err
}

// FindByHash returns the most recent document ingested from identical
// content.
func (s *Store) FindByHash(ctx context.Context, hash string) (entity.Document, bool, error) {
	if hash == "" {
		return entity.Document{}, false, nil
	}
	row := s.db.SQL.QueryRowContext(ctx,
		s.db.rebind(`SELECT `+documentColumns+` FROM documents WHERE content_hash = ? ORDER BY created_at DESC LIMIT 1`), hash)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Document{}, false, nil
	}
	if err != nil {
		return entity.Document{}, false, err
	}
	return d, true, nil
}

// DeleteAll removes every document and, through the foreign key, every
// candidate.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.SQL.ExecContext(ctx, `DELETE FROM candidates`); err != nil {
		return common.NewAppError(common.CodeStorage, "delete candidates", err)
	}
	if _, err := s.db.SQL.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return common.NewAppError(common.CodeStorage, "delete documents", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(r rowScanner) (entity.Document, error) {
	var (
		d                        entity.Document
		sourceType, status, tier string
	)
	err := r.Scan(&d.ID, &d.Label, &sourceType, &d.SourcePath, &d.ContentHash, &status,
		&d.ProcessedPages, &d.TotalPages, &tier, &d.QualityReason, &d.PauseMessage, &d.Error,
		&d.CandidateCount, &d.SignalCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return d, err
		}
		return d, common.NewAppError(common.CodeStorage, "scan document", err)
	}
	d.SourceType = constants.SourceType(sourceType)
	d.Status = constants.DocumentStatus(status)
	d.QualityTier = constants.QualityTier(tier)
	return d, nil
}
