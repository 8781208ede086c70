package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/decisions-tracker/constants"
	"github.com/joseph-ayodele/decisions-tracker/internal/quality"
)

const teslaSentence = "Tesla will begin ramping Megafactory Shanghai in Q1 2025 and expand production capacity."

func newScorer() *Scorer { return NewScorer(quality.DefaultFloors()) }

func TestEvaluate_CommitmentWithAnchorAndResource(t *testing.T) {
	sc := newScorer().Evaluate(teslaSentence, constants.TierC)

	assert.True(t, sc.Commitment)
	assert.True(t, sc.Time)
	assert.True(t, sc.Resource)
	assert.Equal(t, 72, sc.Value)
	assert.Equal(t, VerdictAccept, sc.Verdict)
	assert.Equal(t, constants.Commitment, sc.Type)
	assert.Equal(t, constants.Capex, sc.Category)
	assert.Equal(t, []string{"q1 2025"}, sc.TimeAnchors)
	assert.Contains(t, sc.Triggers, "commitment:will")
	assert.Contains(t, sc.Triggers, "resource:capacity")
	assert.Contains(t, sc.Triggers, "time:q1 2025")
}

func TestEvaluate_Verdicts(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		tier    constants.QualityTier
		verdict Verdict
		typ     constants.CandidateType
	}{
		{
			name:    "table row",
			text:    "CASH FLOWS (in millions of USD) 2024 2025 2026 2027 2028",
			tier:    constants.TierA,
			verdict: VerdictReject,
		},
		{
			name:    "boilerplate",
			text:    "These forward-looking statements are subject to risks and we will not update them.",
			tier:    constants.TierA,
			verdict: VerdictReject,
		},
		{
			name:    "single word",
			text:    "Expand.",
			tier:    constants.TierA,
			verdict: VerdictReject,
		},
		{
			name:    "no verb never accepted",
			text:    "Revenue grew 12% year over year on strong demand.",
			tier:    constants.TierA,
			verdict: VerdictReject,
		},
		{
			name:    "belief only is a signal",
			text:    "We believe demand may soften across the industry.",
			tier:    constants.TierA,
			verdict: VerdictSignal,
			typ:     constants.BeliefOutlook,
		},
		{
			name:    "plain commitment on clean page",
			text:    "We will hire engineers for the platform team.",
			tier:    constants.TierA,
			verdict: VerdictAccept,
			typ:     constants.Commitment,
		},
		{
			name:    "plain commitment on degraded page",
			text:    "We will hire engineers for the platform team.",
			tier:    constants.TierC,
			verdict: VerdictReject,
		},
		{
			name:    "conditional",
			text:    "If demand holds we will open a second plant next year.",
			tier:    constants.TierB,
			verdict: VerdictAccept,
			typ:     constants.Conditional,
		},
		{
			name:    "direction only",
			text:    "Management continues to focus on the enterprise segment.",
			tier:    constants.TierA,
			verdict: VerdictReject,
		},
		{
			name:    "direction with anchor",
			text:    "Management will focus on the enterprise segment by the end of the year.",
			tier:    constants.TierA,
			verdict: VerdictAccept,
			typ:     constants.Commitment,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newScorer().Evaluate(tt.text, tt.tier)
			assert.Equal(t, tt.verdict, sc.Verdict, "value=%d triggers=%v", sc.Value, sc.Triggers)
			if tt.typ != "" {
				assert.Equal(t, tt.typ, sc.Type)
			}
		})
	}
}

func TestEvaluate_ScoreClamped(t *testing.T) {
	sc := newScorer().Evaluate("2024 2025 2026 2027 2028 2029", constants.TierA)
	assert.Equal(t, 0, sc.Value)
	assert.True(t, sc.Structure.TableLike())

	sc = newScorer().Evaluate("If needed we will invest in capacity by the end of 2025 rather than lease, at the cost of margin.", constants.TierA)
	assert.LessOrEqual(t, sc.Value, 100)
	assert.Equal(t, 35+15+12+8+8+10+8, sc.Value)
}

func TestHeadingLike(t *testing.T) {
	sc := newScorer().Evaluate("OPERATING HIGHLIGHTS", constants.TierA)
	assert.True(t, sc.Structure.HeadingLike())
	assert.Equal(t, VerdictReject, sc.Verdict)
}

func TestTimeAnchors(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"We launch in Q1 2025.", []string{"q1 2025"}},
		{"Ramp in  H2   2026 and FY2027.", []string{"h2 2026", "fy2027"}},
		{"Complete by the end of the year, then expand in March 2026.", []string{"by the end of the year", "march 2026"}},
		{"Later this year and within 18 months we start.", []string{"later this year", "within 18 months"}},
		{"Targets for 2025 and 2025 again.", []string{"2025"}},
		{"We start next quarter, then Q3.", []string{"next quarter", "q3"}},
		{"No anchors at all.", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeAnchors(tt.in))
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		in   string
		want constants.Category
	}{
		{"We will launch the new product line.", constants.Product},
		{"Expand production capacity in Texas.", constants.Capex},
		{"Migrate billing to the cloud platform.", constants.Platform},
		{"Reduce headcount in support.", constants.Ops},
		{"Return cash to shareholders.", constants.Other},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.in))
		})
	}
}

func TestTablesAreNamed(t *testing.T) {
	require.NotEmpty(t, Tables)
	for _, tbl := range Tables {
		for _, term := range tbl.Terms {
			assert.NotEmpty(t, term.Name, "family %s", tbl.Family)
			assert.NotNil(t, term.Pattern)
		}
	}
}

func TestHasCommitment(t *testing.T) {
	assert.True(t, HasCommitment("we will ship"))
	assert.True(t, HasCommitment("Plans to expand"))
	assert.False(t, HasCommitment("revenue grew"))
	assert.False(t, HasCommitment("goodwill impairment"))
}
