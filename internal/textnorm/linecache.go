package textnorm

import (
	"regexp"
	"strings"
)

const (
	// RepeatedLineRatio is the share of processed pages a line must appear
	// on before it is treated as a running header or footer.
	RepeatedLineRatio = 0.30
	// minRepeats keeps the first pages from suppressing everything.
	minRepeats = 2
)

var reDigits = regexp.MustCompile(`\d+`)

// LineCache is the per-document repeated-line frequency state. It lives as
// long as the document does, across pause and resume.
type LineCache struct {
	counts map[string]int
	pages  int
}

func NewLineCache() *LineCache {
	return &LineCache{counts: make(map[string]int)}
}

// Pages is the number of pages observed so far.
func (c *LineCache) Pages() int { return c.pages }

// Count returns how many pages the line has been seen on.
func (c *LineCache) Count(line string) int { return c.counts[lineKey(line)] }

// Snapshot copies the frequency map.
func (c *LineCache) Snapshot() map[string]int {
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// filter records this page's lines and drops the ones that recur on more
// than RepeatedLineRatio of the pages seen so far, this page included.
func (c *LineCache) filter(lines []string) ([]string, []string) {
	c.pages++
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l == "" {
			continue
		}
		k := lineKey(l)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		c.counts[k]++
	}

	kept := make([]string, 0, len(lines))
	var dropped []string
	for _, l := range lines {
		if l != "" && c.repeated(lineKey(l)) {
			dropped = append(dropped, l)
			continue
		}
		kept = append(kept, l)
	}
	return kept, dropped
}

func (c *LineCache) repeated(key string) bool {
	n := c.counts[key]
	return n >= minRepeats && float64(n)/float64(c.pages) > RepeatedLineRatio
}

// lineKey folds case and digit runs so "Page 3 of 12" and "Page 4 of 12"
// count as the same footer.
func lineKey(line string) string {
	return reDigits.ReplaceAllString(strings.ToLower(line), "#")
}
