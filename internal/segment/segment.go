// Package segment cuts normalized paragraphs into sentence and clause chunks.
package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/decisions-tracker/internal/signals"
)

var (
	reInlineBullet  = regexp.MustCompile(`\s*[•▪◦●‣]\s+`)
	reLeadingMarker = regexp.MustCompile(`^(?:[•▪◦●‣*-]|\d{1,2}[.)])\s+`)
	reLeadingConj   = regexp.MustCompile(`(?i)^(?:and|or|but|then)\s+`)
)

// abbreviations never end a sentence. Keys are lowercase without the
// trailing period.
var abbreviations = map[string]struct{}{
	"inc": {}, "corp": {}, "co": {}, "ltd": {}, "llc": {}, "plc": {},
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "sr": {}, "jr": {}, "st": {},
	"vs": {}, "no": {}, "approx": {}, "est": {}, "fig": {}, "dept": {},
	"e.g": {}, "i.e": {}, "u.s": {}, "u.k": {}, "a.m": {}, "p.m": {},
	"jan": {}, "feb": {}, "mar": {}, "apr": {}, "jun": {}, "jul": {}, "aug": {},
	"sep": {}, "sept": {}, "oct": {}, "nov": {}, "dec": {},
}

// Split turns newline-separated paragraphs into chunks. It is pure and
// keeps input order; empty pieces are dropped.
func Split(paragraphs string) []string {
	var out []string
	for _, para := range strings.Split(paragraphs, "\n") {
		for _, item := range bullets(para) {
			for _, sent := range sentences(item) {
				out = append(out, clauses(sent)...)
			}
		}
	}
	return out
}

// bullets flattens bullet markers into separate sentence starts.
func bullets(para string) []string {
	var out []string
	for _, piece := range reInlineBullet.Split(para, -1) {
		piece = strings.TrimSpace(reLeadingMarker.ReplaceAllString(strings.TrimSpace(piece), ""))
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// sentences splits on . ! ? followed by whitespace and an uppercase letter
// or digit, unless the period closes a known abbreviation or an initial.
func sentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		end := i + 1
		for end < len(text) && strings.IndexByte(`"')]`, text[end]) >= 0 {
			end++
		}
		next := end
		for next < len(text) && (text[next] == ' ' || text[next] == '\t') {
			next++
		}
		if next == end || next >= len(text) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(text[next:])
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			continue
		}
		if c == '.' && isAbbreviation(text[start:i]) {
			continue
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = next
		i = next - 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// isAbbreviation inspects the word right before a period.
func isAbbreviation(before string) bool {
	word := before
	if idx := strings.LastIndexAny(before, " \t("); idx >= 0 {
		word = before[idx+1:]
	}
	if word == "" {
		return false
	}
	if utf8.RuneCountInString(word) == 1 {
		r, _ := utf8.DecodeRuneInString(word)
		return unicode.IsUpper(r)
	}
	_, ok := abbreviations[strings.ToLower(word)]
	return ok
}

// clauses splits a multi-clause commitment sentence on ", ". Disclaimer
// sentences stay whole so their clauses are judged with the disclaimer.
func clauses(sentence string) []string {
	if !strings.Contains(sentence, ",") || !signals.HasCommitment(sentence) || signals.IsBoilerplate(sentence) {
		return []string{sentence}
	}
	var out []string
	for _, part := range strings.Split(sentence, ", ") {
		part = strings.TrimSpace(reLeadingConj.ReplaceAllString(strings.TrimSpace(part), ""))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
