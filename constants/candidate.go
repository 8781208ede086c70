package constants

// CandidateType is the inferred shape of a scored chunk.
type CandidateType string

const (
	Commitment    CandidateType = "Commitment"
	Conditional   CandidateType = "Conditional"
	Status        CandidateType = "Status"
	BeliefOutlook CandidateType = "BeliefOutlook" // signal bucket, hidden by default
)

// QualityTier grades how cleanly a page or document extracted.
type QualityTier string

const (
	TierA QualityTier = "A" // clean continuous text
	TierB QualityTier = "B" // layout-heavy
	TierC QualityTier = "C" // likely image-based or unextractable
)

// Rank orders tiers from best (0) to worst (2).
func (t QualityTier) Rank() int {
	switch t {
	case TierA:
		return 0
	case TierB:
		return 1
	default:
		return 2
	}
}
