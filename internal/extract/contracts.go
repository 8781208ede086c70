package extract

import (
	"context"

	"github.com/joseph-ayodele/decisions-tracker/constants"
)

// PageSource hands the pipeline one page of raw text at a time.
// Page numbers start at 1.
type PageSource interface {
	PageCount(ctx context.Context) (int, error)
	Page(ctx context.Context, n int) (string, error)
}

// TextSource is a single pasted blob, processed as one unit.
type TextSource interface {
	Text(ctx context.Context) (string, error)
}

// Source is one document to enqueue. Exactly one of Pages or Text is set.
type Source struct {
	Label string
	Path  string
	Hash  string
	Pages PageSource
	Text  TextSource
}

// Type reports how the source feeds the pipeline.
func (s Source) Type() constants.SourceType {
	if s.Pages != nil {
		return constants.SourcePaginated
	}
	if s.Text != nil {
		return constants.SourceFlatText
	}
	return ""
}
