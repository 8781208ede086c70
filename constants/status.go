package constants

// DocumentStatus is the lifecycle state of a queued document.
type DocumentStatus string

// Stable values (stored as-is in the documents table).
const (
	DocumentPending    DocumentStatus = "pending"    // queued, waiting for the governor
	DocumentProcessing DocumentStatus = "processing" // the single active document
	DocumentPaused     DocumentStatus = "paused"     // resumable from the next unprocessed page
	DocumentDone       DocumentStatus = "done"       // terminal
	DocumentError      DocumentStatus = "error"      // terminal, queue continues
)

// IsTerminal reports whether a document stays put until it is re-added.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentDone || s == DocumentError
}
