package categorization

import (
	"slices"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggest ranks known categories by closeness to input: subsequence hits
// first (e.g. "food" for "food_dining"), then typos within two edits.
func Suggest(input string, categories []string, limit int) []string {
	input = NormalizeCategory(input)
	if input == "" {
		return nil
	}

	type candidate struct {
		name string
		dist int
	}
	var found []candidate
	seen := map[string]bool{}

	for _, r := range fuzzy.RankFindFold(input, categories) {
		found = append(found, candidate{r.Target, r.Distance})
		seen[r.Target] = true
	}
	for _, c := range categories {
		if seen[c] {
			continue
		}
		if d := fuzzy.LevenshteinDistance(input, c); d <= 2 {
			found = append(found, candidate{c, d})
		}
	}

	slices.SortStableFunc(found, func(a, b candidate) int {
		if a.dist != b.dist {
			return a.dist - b.dist
		}
		if a.name < b.name {
			return -1
		}
		if a.name > b.name {
			return 1
		}
		return 0
	})

	out := make([]string, 0, len(found))
	for _, c := range found {
		out = append(out, c.name)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
