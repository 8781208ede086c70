package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/decisions-tracker/constants"
	"github.com/joseph-ayodele/decisions-tracker/internal/common"
)

// OpenFile picks a source for path by extension. Nothing is read until the
// governor asks for pages.
func OpenFile(path string) (Source, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	src := Source{Label: filepath.Base(path), Path: path}

	switch constants.MapExtToSourceType(ext) {
	case constants.SourcePaginated:
		if ext == "pdf" {
			src.Pages = NewPDFSource(path)
		} else {
			src.Pages = NewTextFileSource(path)
		}
	case constants.SourceFlatText:
		src.Text = FileText{Path: path}
	default:
		return Source{}, common.NewAppError(common.CodeInvalid,
			fmt.Sprintf("unsupported file type %q", strings.TrimPrefix(filepath.Ext(path), ".")),
			common.ErrUnsupported)
	}
	return src, nil
}

// FromText wraps a pasted memo.
func FromText(label, body string) Source {
	return Source{Label: label, Text: StaticText(body)}
}

// FromPages wraps already-extracted pages.
func FromPages(label string, pages ...string) Source {
	return Source{Label: label, Pages: StaticPages(pages)}
}
