package signals

import (
	"regexp"

	"github.com/joseph-ayodele/decisions-tracker/constants"
)

// CategoryRule buckets a chunk when Pattern matches. Rules are checked in
// order and the first match wins.
type CategoryRule struct {
	Category constants.Category
	Pattern  *regexp.Regexp
}

var categoryRules = []CategoryRule{
	{
		Category: constants.Product,
		Pattern:  regexp.MustCompile(`(?i)\b(?:products?|launch(?:es|ed|ing)?|features?|apps?|releases?|models?|vehicles?|devices?|pricing|customers?|roadmap|sku|skus|offerings?)\b`),
	},
	{
		Category: constants.Capex,
		Pattern:  regexp.MustCompile(`(?i)\b(?:capex|capital expenditures?|capital spending|capacity|\w*factor(?:y|ies)|plants?|facilit(?:y|ies)|manufacturing|production lines?|data cent(?:er|re)s?|construction|equipment|build-?outs?)\b`),
	},
	{
		Category: constants.Platform,
		Pattern:  regexp.MustCompile(`(?i)\b(?:platforms?|infrastructure|software|cloud|ai|api|apis|architecture|migrat(?:e|ion|ing)|systems?|technology|compute|gpus?|data)\b`),
	},
	{
		Category: constants.Ops,
		Pattern:  regexp.MustCompile(`(?i)\b(?:hir(?:e|es|ing)|headcount|workforce|staff(?:ing)?|costs?|efficienc(?:y|ies)|supply chain|logistics|restructur(?:e|ing)|operations?|operational|process(?:es)?|fleet|warehouses?|opex)\b`),
	},
}

// Categorize returns the first matching category, or Other.
func Categorize(text string) constants.Category {
	for _, r := range categoryRules {
		if r.Pattern.MatchString(text) {
			return r.Category
		}
	}
	return constants.Other
}
