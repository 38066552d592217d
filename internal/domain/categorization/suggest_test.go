package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	categories := []string{"education", "entertainment", "food_dining", "others", "shopping", "transport", "travel"}

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"prefix", "food", []string{"food_dining"}},
		{"typo", "travle", []string{"travel"}},
		{"case folded", "SHOPPING", []string{"shopping"}},
		{"nothing close", "qqqqqq", []string{}},
		{"empty", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Suggest(tt.input, categories, 3))
		})
	}

	t.Run("limit", func(t *testing.T) {
		assert.Len(t, Suggest("t", categories, 2), 2)
	})
}
