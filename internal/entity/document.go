package entity

import (
	"time"

	"github.com/joseph-ayodele/decisions-tracker/constants"
)

// Document is a queued source and its processing progress.
type Document struct {
	ID             string                   `json:"id"`
	Label          string                   `json:"label"`
	SourceType     constants.SourceType     `json:"source_type"`
	SourcePath     string                   `json:"source_path,omitempty"`
	ContentHash    string                   `json:"content_hash,omitempty"` // sha256 of the source file
	Status         constants.DocumentStatus `json:"status"`
	ProcessedPages int                      `json:"processed_pages"`
	TotalPages     int                      `json:"total_pages"` // 0 until known
	QualityTier    constants.QualityTier    `json:"quality_tier,omitempty"`
	QualityReason  string                   `json:"quality_reason,omitempty"`
	PauseMessage   string                   `json:"pause_message,omitempty"`
	Error          string                   `json:"error,omitempty"`
	CandidateCount int                      `json:"candidate_count"`
	SignalCount    int                      `json:"signal_count"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

