package async

import (
	"context"
	"time"
)

// Job is one file handed over by the watcher. An empty Path only asks for
// a governor run, e.g. to resume documents paused for time or memory.
type Job struct {
	Path        string
	Force       bool // ingest even if identical content was seen
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
