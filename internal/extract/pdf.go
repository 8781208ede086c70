package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
)

// PDFSource reads page text from a PDF file. The file is opened on first
// use and stays open until Close.
type PDFSource struct {
	path string

	mu     sync.Mutex
	file   *os.File
	reader *pdf.Reader
}

func NewPDFSource(path string) *PDFSource {
	return &PDFSource{path: path}
}

func (s *PDFSource) open() (*pdf.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader != nil {
		return s.reader, nil
	}
	f, r, err := pdf.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", s.path, err)
	}
	s.file, s.reader = f, r
	return r, nil
}

func (s *PDFSource) PageCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r, err := s.open()
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

// Page returns the plain text of page n. Pages without a content stream
// come back empty.
func (s *PDFSource) Page(ctx context.Context, n int) (text string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r, err := s.open()
	if err != nil {
		return "", err
	}
	if n < 1 || n > r.NumPage() {
		return "", fmt.Errorf("page %d out of range 1..%d", n, r.NumPage())
	}

	// The pdf reader panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("read page %d: %v", n, rec)
		}
	}()

	p := r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	raw, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("read page %d: %w", n, err)
	}
	return strings.TrimSpace(raw), nil
}

func (s *PDFSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file, s.reader = nil, nil
	return err
}
