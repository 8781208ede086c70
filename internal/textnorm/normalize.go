// Package textnorm cleans raw page text before segmentation: whitespace,
// hyphenation, repeated headers/footers and column-wrapped paragraphs.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reHSpace     = regexp.MustCompile(`[ \t\f\v]+`)
	reHyphenEnd  = regexp.MustCompile(`\p{L}-$`)
	reLowerStart = regexp.MustCompile(`^\p{Ll}`)
	reBulletLead = regexp.MustCompile(`^(?:[•▪◦●‣*-]|\d{1,2}[.)])\s`)
)

// Result is the normalized text of one page or one pasted document.
type Result struct {
	// Text holds reconstructed paragraphs, one per line.
	Text string
	// Lines are the cleaned source lines that survived suppression.
	Lines []string
	// Suppressed are the lines dropped as repeated headers/footers.
	Suppressed []string
}

// Paragraphs returns Text split back into paragraphs.
func (r Result) Paragraphs() []string {
	if r.Text == "" {
		return nil
	}
	return strings.Split(r.Text, "\n")
}

// Normalize runs the cleanup steps in order. cache carries the per-document
// repeated-line state for paginated sources and is nil for flat text.
func Normalize(raw string, cache *LineCache) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{}
	}

	lines := cleanLines(raw)
	lines = dehyphenate(lines)

	var suppressed []string
	if cache != nil {
		lines, suppressed = cache.filter(lines)
	}

	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}

	return Result{
		Text:       strings.Join(paragraphs(lines), "\n"),
		Lines:      kept,
		Suppressed: suppressed,
	}
}

// cleanLines applies NFKC, drops control characters and collapses horizontal
// whitespace per line. Blank lines are kept as "" paragraph boundaries.
func cleanLines(raw string) []string {
	s := norm.NFKC.String(raw)
	s = reCRLF.ReplaceAllString(s, "\n")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\f' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(reHSpace.ReplaceAllString(lines[i], " "))
	}
	return lines
}

// dehyphenate joins "manu-" + "facturing" across a line break. Only a letter
// followed by a trailing hyphen, continued by a lowercase start, is joined.
func dehyphenate(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		for i+1 < len(lines) && reHyphenEnd.MatchString(line) && reLowerStart.MatchString(lines[i+1]) {
			line = line[:len(line)-1] + lines[i+1]
			i++
		}
		out = append(out, line)
	}
	return out
}

// paragraphs merges wrapped lines until one ends in terminal punctuation.
// Blank lines and bullet-led lines always start a new paragraph.
func paragraphs(lines []string) []string {
	var paras []string
	var cur []string

	flush := func() {
		if len(cur) == 0 {
			return
		}
		paras = append(paras, strings.Join(cur, " "))
		cur = cur[:0]
	}

	for _, line := range lines {
		if line == "" {
			flush()
			continue
		}
		if reBulletLead.MatchString(line) {
			flush()
		}
		cur = append(cur, line)
		if endsTerminal(line) {
			flush()
		}
	}
	flush()
	return paras
}

func endsTerminal(line string) bool {
	if line == "" {
		return false
	}
	switch line[len(line)-1] {
	case '.', '!', '?', ';':
		return true
	}
	return false
}
