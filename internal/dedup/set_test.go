package dedup

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
)

func cand(id, text string, score int, anchors ...string) entity.DecisionCandidate {
	return entity.DecisionCandidate{
		ID:            id,
		DocID:         "doc-1",
		DecisionText:  text,
		DecisionScore: score,
		TimeAnchors:   anchors,
	}
}

func TestSignature(t *testing.T) {
	sig := Signature("Tesla will begin ramping Megafactory Shanghai in Q1 2025 and expand production capacity.", []string{"q1 2025"})
	assert.Equal(t, "megafactory shanghai|q1 2025|tesla-begin-ramping-megafactory-shanghai-q1", sig)

	assert.Equal(t, "usd||open-plant-usd", Signature("We open a plant in USD.", nil))
}

func TestJaccard(t *testing.T) {
	assert.InDelta(t, 1.0, Jaccard("We will open a plant", "we WILL open a plant."), 1e-9)
	assert.InDelta(t, 0.0, Jaccard("", ""), 1e-9)
	assert.InDelta(t, 0.5, Jaccard("plant ohio", "plant texas ohio lines"), 1e-9)
	assert.InDelta(t, 1.0, Jaccard("We will expand the Ohio plant", "expand Ohio plant"), 1e-9)
	assert.InDelta(t, 0.0, Jaccard("we will the", "this is that"), 1e-9)
}

func TestSet_MergesOnOverlapAlone(t *testing.T) {
	a := withSig(cand("a", "We will expand the Ohio plant and the Texas plant this summer with new lines", 55))
	b := withSig(cand("b", "Texas plant and Ohio plant expand summer new lines", 40))
	require.NotEqual(t, a.Signature, b.Signature)

	s := NewSet()
	s.Add(a)
	assert.True(t, s.Add(b))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, 2, items[0].SupportingCount)
	assert.Len(t, Merge([]entity.DecisionCandidate{a, b}), 1)
}

func TestSet_MergeKeepsHigherScore(t *testing.T) {
	s := NewSet()
	assert.False(t, s.Add(cand("a", "We will build the Austin plant in 2025.", 50, "2025")))
	assert.True(t, s.Add(cand("b", "We will build the Austin plant in 2025!", 70, "2025")))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, 70, items[0].DecisionScore)
	assert.Equal(t, 2, items[0].SupportingCount)
	assert.Equal(t, 1, s.Merges())
}

func TestSet_TieKeepsExisting(t *testing.T) {
	s := NewSet()
	s.Add(cand("a", "We will build the Austin plant in 2025.", 60, "2025"))
	s.Add(cand("b", "We will build the Austin plant in 2025!", 60, "2025"))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, 2, items[0].SupportingCount)
}

func TestSet_KeptIsSticky(t *testing.T) {
	s := NewSet()
	kept := cand("a", "We will hire fifty engineers next year.", 40, "next year")
	kept.Kept = true
	kept.Metrics = entity.ReviewMetrics{Impact: 7}
	s.Add(kept)
	s.Add(cand("b", "We will hire fifty engineers next year.", 80, "next year"))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)
	assert.True(t, items[0].Kept)
	assert.Equal(t, 7, items[0].Metrics.Impact)
}

func TestSet_DistinctStay(t *testing.T) {
	s := NewSet()
	s.Add(cand("a", "We will open a plant in Texas.", 50))
	s.Add(cand("b", "We will reduce headcount in support.", 50))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 0, s.Merges())
}

func TestSet_Monotonic(t *testing.T) {
	s := NewSet()
	scores := []int{40, 90, 30, 60}
	for i, sc := range scores {
		s.Add(cand(string(rune('a'+i)), "Acme will expand Factory Nine capacity in Q3 2026.", sc, "q3 2026"))
	}
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 90, items[0].DecisionScore)
	assert.Equal(t, len(scores), items[0].SupportingCount)
}

func TestMerge_Idempotent(t *testing.T) {
	in := []entity.DecisionCandidate{
		cand("a", "We will open a plant in Texas.", 50),
		cand("b", "We will open a plant in Texas!", 60),
		cand("c", "We will reduce headcount in support.", 45),
		cand("d", "Acme will expand Factory Nine capacity in Q3 2026.", 70, "q3 2026"),
		cand("e", "Acme will expand Factory Nine capacity in Q3 2026 quickly.", 75, "q3 2026"),
		cand("f", "We will reduce headcount in support.", 45),
	}
	once := Merge(in)
	twice := Merge(once)
	assert.Equal(t, once, twice)
	assert.Len(t, once, 3)

	for i := range once {
		for j := i + 1; j < len(once); j++ {
			assert.False(t, Mergeable(once[i], once[j]), "%s vs %s", once[i].ID, once[j].ID)
		}
	}
}

func TestSet_CascadeMergesChain(t *testing.T) {
	words := func(from, to int, extra string) string {
		var parts []string
		for i := from; i <= to; i++ {
			parts = append(parts, fmt.Sprintf("t%02d", i))
		}
		return strings.Join(append(parts, extra), " ")
	}
	// a~b and b~c overlap enough to merge, a~c does not.
	a := cand("a", words(1, 19, "xa"), 10)
	c := cand("c", words(2, 20, "yc"), 10)
	b := cand("b", words(1, 20, ""), 20)
	require.False(t, Mergeable(withSig(a), withSig(c)))

	s := NewSet()
	s.Add(a)
	s.Add(c)
	require.Equal(t, 2, s.Len())

	s.Add(b)
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, 3, items[0].SupportingCount)
	assert.Equal(t, 2, s.Merges())
}

func withSig(c entity.DecisionCandidate) entity.DecisionCandidate {
	c.Signature = Signature(c.DecisionText, c.TimeAnchors)
	return c
}
