package constants

import (
	"strings"
)

type Category string

const (
	Product  Category = "Product"
	Capex    Category = "Capex"
	Platform Category = "Platform"
	Ops      Category = "Ops"
	Other    Category = "Other"
)

// allCategories is also the bucketing priority order: first match wins.
var allCategories = []Category{
	Product,
	Capex,
	Platform,
	Ops,
	Other,
}

func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a reviewer-supplied label onto a known category.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"products":       Product,
		"launch":         Product,
		"capital":        Capex,
		"capital spend":  Capex,
		"capex spend":    Capex,
		"infrastructure": Platform,
		"tech":           Platform,
		"technology":     Platform,
		"operations":     Ops,
		"operational":    Ops,
		"opex":           Ops,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}
