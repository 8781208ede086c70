package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// StaticPages serves pages from memory.
type StaticPages []string

func (p StaticPages) PageCount(ctx context.Context) (int, error) {
	return len(p), ctx.Err()
}

func (p StaticPages) Page(ctx context.Context, n int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if n < 1 || n > len(p) {
		return "", fmt.Errorf("page %d out of range 1..%d", n, len(p))
	}
	return p[n-1], nil
}

// StaticText serves one in-memory blob.
type StaticText string

func (t StaticText) Text(ctx context.Context) (string, error) {
	return string(t), ctx.Err()
}

// TextFileSource pages a plain-text file on form feeds, the way text
// exports of paginated reports mark page breaks.
type TextFileSource struct {
	path string

	once  sync.Once
	pages StaticPages
	err   error
}

func NewTextFileSource(path string) *TextFileSource {
	return &TextFileSource{path: path}
}

func (s *TextFileSource) load() (StaticPages, error) {
	s.once.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			s.err = fmt.Errorf("read %s: %w", s.path, err)
			return
		}
		s.pages = SplitFormFeeds(string(b))
	})
	return s.pages, s.err
}

func (s *TextFileSource) PageCount(ctx context.Context) (int, error) {
	pages, err := s.load()
	if err != nil {
		return 0, err
	}
	return pages.PageCount(ctx)
}

func (s *TextFileSource) Page(ctx context.Context, n int) (string, error) {
	pages, err := s.load()
	if err != nil {
		return "", err
	}
	return pages.Page(ctx, n)
}

// SplitFormFeeds splits text into pages on \f. A trailing empty page is
// dropped; text without form feeds is one page.
func SplitFormFeeds(text string) StaticPages {
	pages := strings.Split(text, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}

// FileText reads a whole file as one flat-text blob.
type FileText struct {
	Path string
}

func (f FileText) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Path, err)
	}
	return string(b), nil
}
