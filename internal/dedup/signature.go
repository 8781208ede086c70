package dedup

import (
	"regexp"
	"strings"
	"unicode"
)

const prefixTokens = 6

var reEntity = regexp.MustCompile(`\b(?:[A-Z][a-z0-9]+(?:\s+[A-Z][a-z0-9]+)+|[A-Z]{2,}[0-9]*)\b`)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "of": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "by": {}, "with": {}, "from": {}, "as": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "it": {}, "its": {}, "we": {}, "our": {}, "us": {}, "will": {},
	"shall": {}, "would": {}, "also": {}, "into": {}, "than": {}, "then": {},
}

// Signature keys a chunk as entity|anchor|prefix, e.g.
// "megafactory shanghai|q1 2025|tesla-begin-ramping-megafactory-shanghai-q1".
func Signature(text string, anchors []string) string {
	entity := strings.ToLower(reEntity.FindString(text))
	anchor := ""
	if len(anchors) > 0 {
		anchor = anchors[0]
	}

	prefix := contentTokens(text)
	if len(prefix) > prefixTokens {
		prefix = prefix[:prefixTokens]
	}
	return entity + "|" + anchor + "|" + strings.Join(prefix, "-")
}

// Jaccard is the overlap of the stop-word-filtered token sets of two chunks.
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	intersection := 0
	union := make(map[string]struct{}, len(setA)+len(setB))
	for tok := range setA {
		union[tok] = struct{}{}
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	for tok := range setB {
		union[tok] = struct{}{}
	}

	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// contentTokens lowercases and tokenizes text, dropping stop words.
func contentTokens(text string) []string {
	var out []string
	for _, tok := range tokens(text) {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func tokenSet(text string) map[string]struct{} {
	toks := contentTokens(text)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[t] = struct{}{}
	}
	return set
}
