package signals

import "regexp"

// Family names one group of lexical signals.
type Family string

const (
	FamilyCommitment  Family = "commitment"
	FamilyDirection   Family = "direction"
	FamilyConstraint  Family = "constraint"
	FamilyTime        Family = "time"
	FamilyResource    Family = "resource"
	FamilyTradeoff    Family = "tradeoff"
	FamilyConditional Family = "conditional"
	FamilyBelief      Family = "belief"
	FamilyNoise       Family = "noise"
	FamilyBoilerplate Family = "boilerplate"
)

// Term is one named pattern in a family table.
type Term struct {
	Name    string
	Pattern *regexp.Regexp
}

// term compiles a case-insensitive, word-bounded pattern.
func term(name, pattern string) Term {
	return Term{Name: name, Pattern: regexp.MustCompile(`(?i)\b(?:` + pattern + `)\b`)}
}

// Table pairs a family with its terms.
type Table struct {
	Family Family
	Terms  []Term
}

var commitmentTerms = []Term{
	term("will", `will`),
	term("plan", `plans? to|planned|planning to`),
	term("intend", `intends?|intended|intending`),
	term("commit", `commits?|committed|committing`),
	term("launch", `launch(?:es|ing)?`),
	term("invest", `invest(?:s|ing)?`),
	term("deploy", `deploy(?:s|ing)?`),
	term("expand", `expand(?:s|ing)?`),
	term("build", `build(?:s|ing)?`),
	term("begin", `begin(?:s|ning)?`),
	term("start", `start(?:s|ing)?`),
	term("allocate", `allocat(?:e|es|ed|ing)`),
	term("hire", `hir(?:e|es|ing)`),
	term("acquire", `acquir(?:e|es|ing)`),
	term("open", `open(?:s|ing)?`),
	term("reduce", `reduc(?:e|es|ing)`),
	term("cut", `cut(?:s|ting)?`),
	term("increase", `increas(?:e|es|ing)`),
	term("ramp", `ramp(?:s|ing)?`),
	term("introduce", `introduc(?:e|es|ing)`),
	term("shift", `shift(?:s|ing)?`),
	term("complete", `complet(?:e|es|ing)`),
	term("deliver", `deliver(?:s|ing)?`),
	term("target", `target(?:s|ed|ing)?`),
	term("aim", `aims? to`),
	term("roll out", `roll(?:s|ing)? out`),
}

var directionTerms = []Term{
	term("prioritize", `(?:re)?prioriti[sz](?:e|es|ed|ing)`),
	term("deprioritize", `de-?prioriti[sz](?:e|es|ed|ing)`),
	term("focus", `(?:re)?focus(?:es|ed|ing)? on`),
	term("pursue", `pursu(?:e|es|ed|ing)`),
	term("exit", `exit(?:s|ed|ing)?`),
	term("discontinue", `discontinu(?:e|es|ed|ing)`),
	term("wind down", `wind(?:s|ing)? down`),
	term("phase out", `phas(?:e|es|ed|ing) out`),
	term("pivot", `pivot(?:s|ed|ing)?`),
	term("double down", `doubl(?:e|es|ed|ing) down`),
}

var constraintTerms = []Term{
	term("must", `must`),
	term("before", `before`),
	term("after", `after`),
	term("depends on", `depends? on|dependent (?:on|upon)`),
	term("requires", `requires?|required`),
	term("contingent on", `contingent (?:on|upon)`),
	term("subject to", `subject to`),
}

var resourceTerms = []Term{
	term("capex", `capex|capital expenditures?|capital spending`),
	term("capacity", `capacity|capacities`),
	term("factory", `\w*factor(?:y|ies)`),
	term("plant", `plants?`),
	term("facility", `facilit(?:y|ies)`),
	term("manufacturing", `manufacturing`),
	term("production line", `production lines?`),
	term("headcount", `headcount|head count`),
	term("compute", `compute`),
	term("data center", `data cent(?:er|re)s?|datacent(?:er|re)s?`),
	term("gpu", `gpus?`),
	term("fleet", `fleets?`),
	term("warehouse", `warehouses?`),
	term("budget", `budgets?`),
	{Name: "dollars", Pattern: regexp.MustCompile(`(?i)\$\s?\d[\d,.]*\s*(?:billion|million|bn|mm|[bm])\b`)},
}

var tradeoffTerms = []Term{
	term("at the cost of", `at the cost of`),
	term("at the expense of", `at the expense of`),
	term("in order to", `in order to`),
	term("instead of", `instead of`),
	term("rather than", `rather than`),
	term("in exchange for", `in exchange for`),
	term("trade-off", `trade-?offs?|tradeoffs?`),
}

var conditionalTerms = []Term{
	term("if", `if`),
	term("when", `when`),
	term("assuming", `assuming`),
	term("unless", `unless`),
	term("provided that", `provided that`),
}

var beliefTerms = []Term{
	term("expect", `expect(?:s|ed|ing)?|expectations?`),
	term("believe", `believ(?:e|es|ed|ing)`),
	term("anticipate", `anticipat(?:e|es|ed|ing)`),
	term("may", `may`),
	term("might", `might`),
	term("could", `could`),
	term("uncertain", `uncertain(?:ty|ties)?`),
	term("likely", `(?:un)?likely`),
	term("potential", `potential(?:ly)?`),
	term("outlook", `outlook`),
	term("forecast", `forecast(?:s|ed|ing)?`),
	term("estimate", `estimat(?:e|es|ed|ing)`),
}

var noiseTerms = []Term{
	term("yoy", `yoy|y/y|year[- ]over[- ]year`),
	term("qoq", `qoq|q/q|quarter[- ]over[- ]quarter`),
	term("ytd", `ytd|year[- ]to[- ]date`),
	term("installed", `installed`),
	term("production rate", `production rates?`),
	term("utilization", `utili[sz]ation`),
	term("in millions", `in (?:millions|thousands|billions)`),
	term("unaudited", `unaudited`),
	term("gaap", `(?:non-)?gaap`),
	term("per share", `per share`),
	term("basis points", `basis points|bps`),
}

var boilerplateTerms = []Term{
	term("forward-looking statements", `forward[- ]looking statements?`),
	term("safe harbor", `safe harbou?r`),
	term("undue reliance", `undue reliance`),
	term("no obligation to update", `(?:undertakes?|assumes?) no obligation|no obligation to (?:update|revise)`),
	term("differ materially", `differ materially`),
	term("risks and uncertainties", `risks and uncertainties`),
	term("securities litigation", `private securities litigation reform act`),
	term("future performance", `not guarantees? of future performance`),
	term("all rights reserved", `all rights reserved`),
}

// Tables lists every family in trigger order. Time anchors are matched by
// the ordered anchor patterns instead.
var Tables = []Table{
	{Family: FamilyCommitment, Terms: commitmentTerms},
	{Family: FamilyDirection, Terms: directionTerms},
	{Family: FamilyConstraint, Terms: constraintTerms},
	{Family: FamilyResource, Terms: resourceTerms},
	{Family: FamilyTradeoff, Terms: tradeoffTerms},
	{Family: FamilyConditional, Terms: conditionalTerms},
	{Family: FamilyBelief, Terms: beliefTerms},
	{Family: FamilyNoise, Terms: noiseTerms},
	{Family: FamilyBoilerplate, Terms: boilerplateTerms},
}

// match returns the names of the terms that occur in text.
func match(terms []Term, text string) []string {
	var hits []string
	for _, t := range terms {
		if t.Pattern.MatchString(text) {
			hits = append(hits, t.Name)
		}
	}
	return hits
}

// HasCommitment reports whether text carries any commitment verb.
// IsBoilerplate reports whether text carries disclaimer or legal language.
func IsBoilerplate(text string) bool {
	for _, t := range boilerplateTerms {
		if t.Pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func HasCommitment(text string) bool {
	for _, t := range commitmentTerms {
		if t.Pattern.MatchString(text) {
			return true
		}
	}
	return false
}
