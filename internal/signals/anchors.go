package signals

import (
	"regexp"
	"sort"
	"strings"
)

const (
	monthNames = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`
	countWords = `\d+|one|two|three|four|five|six|seven|eight|nine|ten|twelve|eighteen|twenty-four|several|few`
	fullYear   = `(?:19|20)\d{2}`
)

// anchorPatterns run most specific first; each match is masked out of the
// text before the next pattern runs so "Q1 2025" never also yields "2025".
var anchorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:q[1-4]|h[12])\s*(?:fy\s*)?(?:` + fullYear + `|'\d{2})\b`),
	regexp.MustCompile(`\bfy\s*'?(?:` + fullYear + `|\d{2})\b`),
	regexp.MustCompile(`\b(?:` + monthNames + `)\.?\s+(?:\d{1,2},?\s+)?` + fullYear + `\b`),
	regexp.MustCompile(`\bby\s+(?:the\s+)?end\s+of\s+(?:(?:the|this|next)\s+)?(?:year|quarter|month|decade|` + fullYear + `)\b`),
	regexp.MustCompile(`\bby\s+year[- ]end\b`),
	regexp.MustCompile(`\b(?:later|earlier)\s+this\s+(?:year|quarter|month)\b`),
	regexp.MustCompile(`\b(?:within|over)\s+the\s+next\s+(?:(?:` + countWords + `)\s+)?(?:weeks?|months?|quarters?|years?)\b`),
	regexp.MustCompile(`\bwithin\s+(?:` + countWords + `)\s+(?:weeks?|months?|quarters?|years?)\b`),
	regexp.MustCompile(`\b(?:next|this|coming)\s+(?:fiscal\s+)?(?:year|quarter|month)\b`),
	regexp.MustCompile(`\b(?:q[1-4]|h[12])\b`),
	regexp.MustCompile(`\b` + fullYear + `\b`),
}

var (
	reYearToken = regexp.MustCompile(`\b` + fullYear + `\b`)
	reSpaces    = regexp.MustCompile(`\s+`)
)

type anchorHit struct {
	pos   int
	token string
}

// TimeAnchors extracts lowercase, whitespace-normalized time references in
// the order they appear. Duplicates are dropped.
func TimeAnchors(text string) []string {
	work := []byte(strings.ToLower(text))
	var hits []anchorHit
	for _, re := range anchorPatterns {
		for _, loc := range re.FindAllIndex(work, -1) {
			token := reSpaces.ReplaceAllString(strings.TrimSpace(string(work[loc[0]:loc[1]])), " ")
			hits = append(hits, anchorHit{pos: loc[0], token: token})
			for i := loc[0]; i < loc[1]; i++ {
				work[i] = ' '
			}
		}
	}
	if len(hits) == 0 {
		return nil
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	seen := make(map[string]struct{}, len(hits))
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		if _, dup := seen[h.token]; dup {
			continue
		}
		seen[h.token] = struct{}{}
		out = append(out, h.token)
	}
	return out
}
