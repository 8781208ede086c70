package constants

import "strings"

// SourceType says how a document's text reaches the pipeline.
type SourceType string

const (
	SourcePaginated SourceType = "paginated" // ordered (pageNumber, text) pairs
	SourceFlatText  SourceType = "flatText"  // one pasted blob, processed as a single unit
)

// AllowedExtensions holds the default allowed file extensions for document ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"txt":  {},
	"md":   {},
	"text": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToSourceType returns the source type for an extension, or "" if unsupported.
// PDFs and plain-text files are paginated (text files page on form feeds);
// markdown memos are read as one flat blob.
func MapExtToSourceType(ext string) SourceType {
	switch NormalizeExt(ext) {
	case "pdf", "txt", "text":
		return SourcePaginated
	case "md":
		return SourceFlatText
	default:
		return ""
	}
}
