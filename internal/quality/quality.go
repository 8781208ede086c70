// Package quality grades how cleanly a page extracted. The tier decides how
// strict the signal scorer is with that page.
package quality

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/decisions-tracker/constants"
)

const (
	minNonSpaceChars = 200
	minTokens        = 40
	minAvgLineLength = 42
	maxLineDensity   = 0.06
)

// Assessment is a tier plus the human-readable reason shown on the document.
type Assessment struct {
	Tier   constants.QualityTier
	Reason string
}

// Classify grades one page (or one flat-text document).
func Classify(text string, lines []string) Assessment {
	var s Stats
	s.Add(text, lines)
	return s.Assess()
}

// Stats accumulates the raw counts behind an Assessment so a paginated
// document can be graded as a whole.
type Stats struct {
	Chars     int
	NonSpace  int
	Tokens    int
	Lines     int
	LineChars int
}

func (s *Stats) Add(text string, lines []string) {
	s.Chars += utf8.RuneCountInString(text)
	s.Tokens += len(strings.Fields(text))
	for _, r := range text {
		if !unicode.IsSpace(r) {
			s.NonSpace++
		}
	}
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		s.Lines++
		s.LineChars += utf8.RuneCountInString(l)
	}
}

// Assess applies the tier rules in order: sparse text is C, layout-heavy
// text is B, everything else is A.
func (s Stats) Assess() Assessment {
	if s.NonSpace < minNonSpaceChars || s.Tokens < minTokens {
		return Assessment{
			Tier:   constants.TierC,
			Reason: fmt.Sprintf("sparse text (%d chars, %d tokens); likely image-based", s.NonSpace, s.Tokens),
		}
	}
	if s.Lines > 0 {
		avg := float64(s.LineChars) / float64(s.Lines)
		if avg < minAvgLineLength {
			return Assessment{
				Tier:   constants.TierB,
				Reason: fmt.Sprintf("short lines (avg %.0f chars); layout-heavy", avg),
			}
		}
	}
	if s.Chars > 0 && float64(s.Lines)/float64(s.Chars) > maxLineDensity {
		return Assessment{Tier: constants.TierB, Reason: "dense line breaks; layout-heavy"}
	}
	return Assessment{Tier: constants.TierA, Reason: "clean text"}
}

// Floors are the minimum decision scores a chunk needs per tier.
type Floors struct {
	A int
	B int
	C int
}

func DefaultFloors() Floors {
	return Floors{A: 20, B: 28, C: 45}
}

// For returns the floor for tier; unknown tiers get the strictest one.
func (f Floors) For(tier constants.QualityTier) int {
	switch tier {
	case constants.TierA:
		return f.A
	case constants.TierB:
		return f.B
	default:
		return f.C
	}
}
