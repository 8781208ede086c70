package entity

import (
	"github.com/joseph-ayodele/decisions-tracker/constants"
)

// ReviewMetrics holds the reviewer's slider values. The pipeline never fills them.
type ReviewMetrics struct {
	Impact     int `json:"impact"`
	Cost       int `json:"cost"`
	Risk       int `json:"risk"`
	Urgency    int `json:"urgency"`
	Confidence int `json:"confidence"`
}

// DecisionCandidate is a chunk of document text provisionally identified as a decision.
type DecisionCandidate struct {
	ID              string                  `json:"id"`
	DocID           string                  `json:"doc_id"`
	DocLabel        string                  `json:"doc_label"`
	PageNumber      int                     `json:"page_number"`
	DecisionText    string                  `json:"decision_text"`
	Triggers        []string                `json:"triggers"`
	DecisionScore   int                     `json:"decision_score"`
	CandidateType   constants.CandidateType `json:"candidate_type"`
	Category        constants.Category      `json:"category"`
	TimeAnchors     []string                `json:"time_anchors"`
	Signature       string                  `json:"signature"`
	SupportingCount int                     `json:"supporting_count"`
	Kept            bool                    `json:"kept"`
	Metrics         ReviewMetrics           `json:"metrics"`
}

// IsSignal reports whether the candidate belongs to the belief/outlook bucket.
func (c DecisionCandidate) IsSignal() bool {
	return c.CandidateType == constants.BeliefOutlook
}
