// Package signals scores text chunks against lexical decision signals and
// decides whether each one is a candidate, an outlook signal or noise.
package signals

import (
	"strings"
	"unicode"

	"github.com/joseph-ayodele/decisions-tracker/constants"
	"github.com/joseph-ayodele/decisions-tracker/internal/quality"
)

// Score weights.
const (
	weightCommitment   = 35
	weightTime         = 15
	weightResource     = 12
	weightTradeoff     = 8
	weightConditional  = 8
	bonusVerbTime      = 10
	bonusVerbTradeoff  = 8
	penaltyNoise       = 30
	penaltyTable       = 45
	penaltyHeading     = 35
	penaltyBelief      = 25
	tableDigitRatio    = 0.35
	tableYearTokens    = 3
	headingCapsRatio   = 0.6
	headingMaxWords    = 12
	allUpperMaxWords   = 8
	minWords           = 2
	minScore           = 0
	maxScore           = 100
)

// Verdict is the scorer's explicit three-way decision.
type Verdict string

const (
	VerdictAccept Verdict = "accept" // decision candidate
	VerdictSignal Verdict = "signal" // outlook/belief, kept apart from candidates
	VerdictReject Verdict = "reject"
)

// Structure holds the layout statistics used to spot tables and headings.
type Structure struct {
	Words      int
	DigitRatio float64
	YearTokens int
	CapsRatio  float64
	AllUpper   bool
}

func (s Structure) TableLike() bool {
	return s.DigitRatio > tableDigitRatio || s.YearTokens >= tableYearTokens
}

func (s Structure) HeadingLike() bool {
	return (s.CapsRatio > headingCapsRatio && s.Words <= headingMaxWords) ||
		(s.AllUpper && s.Words <= allUpperMaxWords)
}

// Score is the transient evaluation of one chunk.
type Score struct {
	Commitment  bool
	Direction   bool
	Constraint  bool
	Time        bool
	Resource    bool
	Tradeoff    bool
	Conditional bool
	Belief      bool
	Noise       bool
	Boilerplate bool

	Structure     Structure
	BeliefPenalty bool

	Value       int
	Triggers    []string
	TimeAnchors []string
	Type        constants.CandidateType
	Category    constants.Category
	Verdict     Verdict
}

// HasRequiredVerb reports commitment, direction or constraint language.
func (s Score) HasRequiredVerb() bool {
	return s.Commitment || s.Direction || s.Constraint
}

// Scorer evaluates chunks against the tier floors it was built with.
type Scorer struct {
	floors quality.Floors
}

func NewScorer(floors quality.Floors) *Scorer {
	return &Scorer{floors: floors}
}

// Floors returns the acceptance floors in use.
func (s *Scorer) Floors() quality.Floors { return s.floors }

// Evaluate scores text for a page graded tier.
func (s *Scorer) Evaluate(text string, tier constants.QualityTier) Score {
	var sc Score
	hits := make(map[Family][]string, len(Tables))
	for _, tbl := range Tables {
		hits[tbl.Family] = match(tbl.Terms, text)
	}
	sc.Commitment = len(hits[FamilyCommitment]) > 0
	sc.Direction = len(hits[FamilyDirection]) > 0
	sc.Constraint = len(hits[FamilyConstraint]) > 0
	sc.Resource = len(hits[FamilyResource]) > 0
	sc.Tradeoff = len(hits[FamilyTradeoff]) > 0
	sc.Conditional = len(hits[FamilyConditional]) > 0
	sc.Belief = len(hits[FamilyBelief]) > 0
	sc.Noise = len(hits[FamilyNoise]) > 0
	sc.Boilerplate = len(hits[FamilyBoilerplate]) > 0

	sc.TimeAnchors = TimeAnchors(text)
	sc.Time = len(sc.TimeAnchors) > 0
	sc.Structure = structure(text)

	for _, tbl := range Tables {
		for _, name := range hits[tbl.Family] {
			sc.Triggers = append(sc.Triggers, string(tbl.Family)+":"+name)
		}
	}
	for _, a := range sc.TimeAnchors {
		sc.Triggers = append(sc.Triggers, string(FamilyTime)+":"+a)
	}

	sc.BeliefPenalty = sc.Belief && !sc.Commitment && !sc.Resource && !sc.Time
	sc.Value = value(sc)
	sc.Verdict = s.verdict(sc, tier)
	sc.Type = candidateType(sc)
	sc.Category = Categorize(text)
	return sc
}

func value(sc Score) int {
	v := 0
	if sc.Commitment {
		v += weightCommitment
	}
	if sc.Time {
		v += weightTime
	}
	if sc.Resource {
		v += weightResource
	}
	if sc.Tradeoff {
		v += weightTradeoff
	}
	if sc.Conditional {
		v += weightConditional
	}
	if sc.HasRequiredVerb() && sc.Time {
		v += bonusVerbTime
	}
	if sc.HasRequiredVerb() && sc.Tradeoff {
		v += bonusVerbTradeoff
	}
	if sc.Noise && !sc.HasRequiredVerb() {
		v -= penaltyNoise
	}
	if sc.Structure.TableLike() {
		v -= penaltyTable
	}
	if sc.Structure.HeadingLike() {
		v -= penaltyHeading
	}
	if sc.BeliefPenalty {
		v -= penaltyBelief
	}
	return min(max(v, minScore), maxScore)
}

func (s *Scorer) verdict(sc Score, tier constants.QualityTier) Verdict {
	if sc.Boilerplate || sc.Structure.Words < minWords {
		return VerdictReject
	}
	if sc.BeliefPenalty && !sc.Structure.TableLike() && !sc.Structure.HeadingLike() {
		return VerdictSignal
	}
	if sc.HasRequiredVerb() {
		if sc.Value >= s.floors.For(tier) {
			return VerdictAccept
		}
		lenient := tier == constants.TierA || tier == constants.TierB
		if lenient && (sc.Commitment || sc.Resource) {
			return VerdictAccept
		}
	}
	return VerdictReject
}

func candidateType(sc Score) constants.CandidateType {
	switch {
	case sc.Verdict == VerdictSignal:
		return constants.BeliefOutlook
	case sc.Conditional:
		return constants.Conditional
	case sc.Commitment || sc.Resource:
		return constants.Commitment
	default:
		return constants.Status
	}
}

func structure(text string) Structure {
	words := strings.Fields(text)
	st := Structure{Words: len(words), YearTokens: len(reYearToken.FindAllString(text, -1))}

	var digits, letters, upper, lower int
	for _, r := range text {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				upper++
			} else if unicode.IsLower(r) {
				lower++
			}
		}
	}
	if digits+letters > 0 {
		st.DigitRatio = float64(digits) / float64(digits+letters)
	}
	st.AllUpper = letters > 0 && lower == 0

	var lettered, caps int
	for _, w := range words {
		wl, wu := 0, 0
		for _, r := range w {
			if unicode.IsLetter(r) {
				wl++
				if unicode.IsUpper(r) {
					wu++
				}
			}
		}
		if wl == 0 {
			continue
		}
		lettered++
		if wl >= 2 && wu == wl {
			caps++
		}
	}
	if lettered > 0 {
		st.CapsRatio = float64(caps) / float64(lettered)
	}
	return st
}
