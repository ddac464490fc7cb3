package handler

import "strings"

// categoryRule pairs a genre with the keywords that suggest it.
type categoryRule struct {
	category string
	keywords []string
}

// categoryRules is scanned in order and the first matching rule wins, so
// the ordering is the tie-break when an input mentions keywords from
// several genres.
var categoryRules = []categoryRule{
	{"Sci-Fi", []string{"space", "alien", "robot"}},
	{"Romance", []string{"love", "romance", "heart"}},
	{"Action", []string{"war", "battle", "soldier"}},
	{"Comedy", []string{"funny", "laugh", "joke"}},
	{"Horror", []string{"ghost", "haunted", "scary"}},
}

// SuggestCategory lower-cases the input and returns the genre of the first
// rule whose keyword appears in it, or "General" when nothing matches.
func SuggestCategory(input string) string {
	input = strings.ToLower(input)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(input, kw) {
				return rule.category
			}
		}
	}
	return "General"
}
