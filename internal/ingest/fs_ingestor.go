package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joseph-ayodele/decisions-tracker/constants"
	"github.com/joseph-ayodele/decisions-tracker/internal/common"
	"github.com/joseph-ayodele/decisions-tracker/internal/extract"
)

// FSIngestor queues files from the local filesystem, skipping content it
// has already seen.
type FSIngestor struct {
	Queue  Queue
	Index  HashIndex // optional; consulted after the in-process set
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]string // hash -> doc id
}

func NewFSIngestor(q Queue, index HashIndex, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{Queue: q, Index: index, logger: logger, seen: make(map[string]string)}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("abs path error", "path", path, "error", err)
		return out, err
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	out.FileExt = ext
	if ext == "" || !AllowedExt(ext) {
		i.logger.Warn("unsupported or missing extension", "path", abs, "ext", ext)
		return out, common.NewAppError(common.CodeInvalid, fmt.Sprintf("unsupported or missing extension %q", ext), common.ErrUnsupported)
	}

	sum, err := HashFile(abs)
	if err != nil {
		i.logger.Error("hash error", "path", abs, "error", err)
		return out, err
	}
	out.HashHex = sum

	if id, ok, err := i.lookup(ctx, sum); err != nil {
		return out, err
	} else if ok {
		out.DocID = id
		out.Deduplicated = true
		i.logger.Info("ingest.file.duplicate", "path", abs, "doc_id", id)
		return out, nil
	}

	src, err := extract.OpenFile(abs)
	if err != nil {
		return out, err
	}
	src.Hash = sum

	docs, err := i.Queue.Enqueue(src)
	if err != nil {
		return out, err
	}
	out.DocID = docs[0].ID

	i.mu.Lock()
	i.seen[sum] = out.DocID
	i.mu.Unlock()

	i.logger.Info("ingest.file.queued", "path", abs, "doc_id", out.DocID, "hash", sum)
	return out, nil
}

func (i *FSIngestor) lookup(ctx context.Context, sum string) (string, bool, error) {
	i.mu.Lock()
	id, ok := i.seen[sum]
	i.mu.Unlock()
	if ok {
		return id, true, nil
	}
	if i.Index == nil {
		return "", false, nil
	}
	doc, ok, err := i.Index.FindByHash(ctx, sum)
	if err != nil {
		return "", false, err
	}
	// Documents left unfinished by an earlier process are queued again.
	if !ok || doc.Status != constants.DocumentDone {
		return "", false, nil
	}
	return doc.ID, true, nil
}

// IngestDirectory walks root, skips hidden if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if !AllowedExt(ext) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	i.logger.Info("ingest.directory.ok", "root", root, "matched", stats.Matched, "queued", stats.Succeeded-stats.Deduplicated, "failed", stats.Failed)
	return results, stats, nil
}
