package analytics

import (
	"strings"
)

// CategoryOther is the fallback category for items no rule recognises
const CategoryOther = "Other"

// CategoryRule maps a set of case-insensitive keywords to a category
type CategoryRule struct {
	Category string
	Keywords []string
}

// DefaultCategoryRules is the built-in rule set in priority order.
// Bedding precedes Mattresses so that "mattress protector" is bedding.
var DefaultCategoryRules = []CategoryRule{
	{Category: "Bedding", Keywords: []string{"duvet", "pillow", "quilt", "comforter", "sheet", "blanket", "protector", "topper"}},
	{Category: "Mattresses", Keywords: []string{"mattress"}},
	{Category: "Bath", Keywords: []string{"towel", "bathrobe", "bath mat"}},
	{Category: "Furniture", Keywords: []string{"bed frame", "headboard", "sofa", "chair", "table"}},
	{Category: "Home Decor", Keywords: []string{"cushion", "curtain", "rug", "throw"}},
}

// Classifier assigns items to categories using ordered keyword rules
type Classifier struct {
	rules []CategoryRule
}

// NewClassifier builds a classifier; keywords are folded to lower case
func NewClassifier(rules []CategoryRule) *Classifier {
	folded := make([]CategoryRule, 0, len(rules))
	for _, r := range rules {
		keywords := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		folded = append(folded, CategoryRule{Category: r.Category, Keywords: keywords})
	}
	return &Classifier{rules: folded}
}

var defaultClassifier = NewClassifier(DefaultCategoryRules)

// Classify maps an item to a category with the default rules
func Classify(name, alias string) string {
	return defaultClassifier.Classify(name, alias)
}

// Categories returns the default category set including the fallback
func Categories() []string {
	return defaultClassifier.Categories()
}

// Classify returns the category of the first rule with a keyword contained in
// name or alias, or CategoryOther
func (c *Classifier) Classify(name, alias string) string {
	name = strings.ToLower(name)
	alias = strings.ToLower(alias)
	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(name, keyword) || strings.Contains(alias, keyword) {
				return rule.Category
			}
		}
	}
	return CategoryOther
}

// Categories lists the categories in priority order followed by the fallback
func (c *Classifier) Categories() []string {
	seen := make(map[string]bool, len(c.rules)+1)
	out := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	if !seen[CategoryOther] {
		out = append(out, CategoryOther)
	}
	return out
}
