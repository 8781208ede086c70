package ingest

import (
	"context"

	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
	"github.com/joseph-ayodele/decisions-tracker/internal/extract"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	DocID        string
	Deduplicated bool
	HashHex      string
	FileExt      string
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Queue accepts sources for processing. *governor.Governor satisfies it.
type Queue interface {
	Enqueue(sources ...extract.Source) ([]entity.Document, error)
}

// HashIndex reports whether identical content was already ingested.
// *repository.Store satisfies it.
type HashIndex interface {
	FindByHash(ctx context.Context, hash string) (entity.Document, bool, error)
}

// Ingestor is the behavior the commands depend on.
type Ingestor interface {
	// IngestPath queues a single file.
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	// IngestDirectory queues all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
