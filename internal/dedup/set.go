// Package dedup merges near-duplicate decision candidates, within one
// document or across documents.
package dedup

import (
	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
)

// JaccardThreshold is the overlap above which two chunks are duplicates.
const JaccardThreshold = 0.85

// Set is the running, deduplicated candidate list for one scope. It is not
// safe for concurrent use.
type Set struct {
	items  []entity.DecisionCandidate
	merges int
}

func NewSet() *Set {
	return &Set{}
}

// Mergeable reports whether a and b describe the same decision.
func Mergeable(a, b entity.DecisionCandidate) bool {
	if a.Signature != "" && a.Signature == b.Signature {
		return true
	}
	return Jaccard(a.DecisionText, b.DecisionText) > JaccardThreshold
}

// Add inserts c, merging it into an existing entry when one matches. It
// reports whether a merge happened.
func (s *Set) Add(c entity.DecisionCandidate) bool {
	if c.Signature == "" {
		c.Signature = Signature(c.DecisionText, c.TimeAnchors)
	}
	if c.SupportingCount < 1 {
		c.SupportingCount = 1
	}

	for i := range s.items {
		existing := s.items[i]
		if !Mergeable(existing, c) {
			continue
		}
		s.merges++
		survivor := combine(existing, c)
		if survivor.DecisionText == existing.DecisionText {
			s.items[i] = survivor
			return true
		}
		// The survivor changed shape, so it may now match another entry.
		s.items = append(s.items[:i], s.items[i+1:]...)
		s.Add(survivor)
		return true
	}

	s.items = append(s.items, c)
	return false
}

// AddAll adds every candidate in order and returns the number of merges.
func (s *Set) AddAll(cands []entity.DecisionCandidate) int {
	n := 0
	for _, c := range cands {
		if s.Add(c) {
			n++
		}
	}
	return n
}

// Items returns a copy of the current entries in insertion order.
func (s *Set) Items() []entity.DecisionCandidate {
	out := make([]entity.DecisionCandidate, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Set) Len() int { return len(s.items) }

// Merges is the number of merges performed so far.
func (s *Set) Merges() int { return s.merges }

// Reset empties the set.
func (s *Set) Reset() {
	s.items = nil
	s.merges = 0
}

// Merge deduplicates cands in a fresh Set.
func Merge(cands []entity.DecisionCandidate) []entity.DecisionCandidate {
	s := NewSet()
	s.AddAll(cands)
	return s.Items()
}

// combine keeps the higher-scoring entry; ties keep existing. Each merge
// adds one supporting mention on top of the better-supported side, and Kept
// sticks once any side was kept.
func combine(existing, incoming entity.DecisionCandidate) entity.DecisionCandidate {
	winner, loser := existing, incoming
	if incoming.DecisionScore > existing.DecisionScore {
		winner, loser = incoming, existing
	}
	out := winner
	out.Triggers = append([]string(nil), winner.Triggers...)
	out.TimeAnchors = append([]string(nil), winner.TimeAnchors...)
	out.SupportingCount = max(existing.SupportingCount, incoming.SupportingCount) + 1
	out.Kept = existing.Kept || incoming.Kept
	if out.Metrics == (entity.ReviewMetrics{}) {
		out.Metrics = loser.Metrics
	}
	return out
}

// Update applies fn to the entry with id and reports whether it was found.
func (s *Set) Update(id string, fn func(*entity.DecisionCandidate)) bool {
	for i := range s.items {
		if s.items[i].ID == id {
			fn(&s.items[i])
			return true
		}
	}
	return false
}
