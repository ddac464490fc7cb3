package handler

import "testing"

func TestSuggestCategory(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"a scary ghost story", "Horror"},
		{"falling in love", "Romance"},
		{"random text", "General"},
		{"robots in space", "Sci-Fi"},
		{"the great battle of a soldier", "Action"},
		{"a funny joke", "Comedy"},
		{"GHOST", "Horror"}, // matching is case-insensitive
		{"", "General"},
	}
	for _, tc := range cases {
		if got := SuggestCategory(tc.input); got != tc.want {
			t.Errorf("SuggestCategory(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

// The rule list is ordered and the first matching set wins, so an input
// touching several genres resolves to the earliest rule.
func TestSuggestCategoryFirstMatchWins(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"alien love story", "Sci-Fi"},          // Sci-Fi before Romance
		{"a love battle", "Romance"},            // Romance before Action
		{"funny ghost", "Comedy"},               // Comedy before Horror
		{"scary war robots in space", "Sci-Fi"}, // first rule dominates all
	}
	for _, tc := range cases {
		if got := SuggestCategory(tc.input); got != tc.want {
			t.Errorf("SuggestCategory(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
