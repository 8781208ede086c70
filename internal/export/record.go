package export

import (
	"sort"
	"time"

	"github.com/joseph-ayodele/decisions-tracker/internal/entity"
)

// Record is one exported decision. Field names are the stable export contract.
type Record struct {
	DocLabel      string   `json:"docLabel" yaml:"docLabel"`
	DocID         string   `json:"docId" yaml:"docId"`
	PageNumber    int      `json:"pageNumber" yaml:"pageNumber"`
	DecisionText  string   `json:"decisionText" yaml:"decisionText"`
	Category      string   `json:"category" yaml:"category"`
	Impact        int      `json:"impact" yaml:"impact"`
	Cost          int      `json:"cost" yaml:"cost"`
	Risk          int      `json:"risk" yaml:"risk"`
	Urgency       int      `json:"urgency" yaml:"urgency"`
	Confidence    int      `json:"confidence" yaml:"confidence"`
	DecisionScore int      `json:"decisionScore" yaml:"decisionScore"`
	Triggers      []string `json:"triggers" yaml:"triggers"`
	Timestamp     string   `json:"timestamp" yaml:"timestamp"`
}

// Records keeps only reviewer-kept candidates, ordered by document, page
// and descending score, stamped with at.
func Records(cands []entity.DecisionCandidate, at time.Time) []Record {
	kept := make([]entity.DecisionCandidate, 0, len(cands))
	for _, c := range cands {
		if c.Kept {
			kept = append(kept, c)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.DocLabel != b.DocLabel {
			return a.DocLabel < b.DocLabel
		}
		if a.PageNumber != b.PageNumber {
			return a.PageNumber < b.PageNumber
		}
		return a.DecisionScore > b.DecisionScore
	})

	ts := at.UTC().Format(time.RFC3339)
	out := make([]Record, 0, len(kept))
	for _, c := range kept {
		triggers := c.Triggers
		if triggers == nil {
			triggers = []string{}
		}
		out = append(out, Record{
			DocLabel:      c.DocLabel,
			DocID:         c.DocID,
			PageNumber:    c.PageNumber,
			DecisionText:  c.DecisionText,
			Category:      string(c.Category),
			Impact:        c.Metrics.Impact,
			Cost:          c.Metrics.Cost,
			Risk:          c.Metrics.Risk,
			Urgency:       c.Metrics.Urgency,
			Confidence:    c.Metrics.Confidence,
			DecisionScore: c.DecisionScore,
			Triggers:      triggers,
			Timestamp:     ts,
		})
	}
	return out
}
