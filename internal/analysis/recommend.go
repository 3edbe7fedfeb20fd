package analysis

import (
	"strings"

	"github.com/abcode/codelens/internal/parser"
)

const maxRecommendations = 5

type recommendRule struct {
	keywords []string
	advice   string
}

var recommendRules = []recommendRule{
	{[]string{"indent"}, "Review indentation rules - consistent spacing is crucial in Python"},
	{[]string{"syntax"}, "Study basic syntax rules for your programming language"},
	{[]string{"undefined", "variable"}, "Always declare variables before using them"},
	{[]string{"type"}, "Pay attention to data types and use appropriate type conversions"},
	{[]string{"logic"}, "Test your code with different inputs to catch logic errors early"},
	{[]string{"colon"}, "Remember to add colons after control structures (if, for, while, def)"},
	{[]string{"bracket", "parenthesis"}, "Use an IDE with bracket matching to avoid mismatched brackets"},
}

var generalAdvice = []string{
	"Write code incrementally and test frequently",
	"Use descriptive variable names to make code more readable",
	"Add comments to explain complex logic",
	"Read error messages carefully - they often point to the exact problem",
}

// Recommend generates rule-based learning recommendations from the error
// list, used when the upstream response carried no recommendations of its
// own. At most five entries, always ending with an encouragement scaled to
// the error count.
func Recommend(errors []parser.ErrorEntry) []string {
	types := make([]string, 0, len(errors))
	for _, entry := range errors {
		types = append(types, strings.ToLower(entry.Type))
	}

	matches := func(keywords []string) bool {
		for _, errorType := range types {
			for _, keyword := range keywords {
				if strings.Contains(errorType, keyword) {
					return true
				}
			}
		}
		return false
	}

	recommendations := []string{}
	for _, rule := range recommendRules {
		if matches(rule.keywords) {
			recommendations = append(recommendations, rule.advice)
		}
	}

	if len(recommendations) < 3 {
		recommendations = append(recommendations, generalAdvice[:3-len(recommendations)]...)
	}

	switch {
	case len(errors) <= 2:
		recommendations = append(recommendations, "Great job! You're making good progress.")
	case len(errors) <= 5:
		recommendations = append(recommendations, "Keep practicing - you're improving!")
	default:
		recommendations = append(recommendations, "Don't worry - even experienced programmers make mistakes. Keep learning!")
	}

	if len(recommendations) > maxRecommendations {
		recommendations = recommendations[:maxRecommendations]
	}
	return recommendations
}
