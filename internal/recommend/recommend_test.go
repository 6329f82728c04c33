package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/book"
)

func TestNormalize(t *testing.T) {
	in := []Suggestion{
		{Title: " Hyperion ", Author: "Dan Simmons", Confidence: 14},
		{Title: "", Author: "Nobody", Confidence: 5},
		{Title: "Untitled", Author: " ", Confidence: 5},
		{Title: "Dune", Author: "Frank Herbert", Confidence: 9},
		{Title: "hyperion", Author: "Dan Simmons", Confidence: 3},
		{Title: "Solaris", Author: "Stanislaw Lem", Confidence: -2},
		{Title: "Ubik", Author: "Philip K. Dick", Confidence: 6},
		{Title: "Neuromancer", Author: "William Gibson", Confidence: 7},
		{Title: "Foundation", Author: "Isaac Asimov", Confidence: 7},
	}
	owned := []BookSummary{{Title: "DUNE"}}

	got := normalize(in, owned)

	require.Len(t, got, MaxSuggestions)
	titles := []string{}
	for _, s := range got {
		titles = append(titles, s.Title)
		assert.GreaterOrEqual(t, s.Confidence, 1)
		assert.LessOrEqual(t, s.Confidence, 10)
	}
	assert.Equal(t, []string{"Hyperion", "Solaris", "Ubik", "Neuromancer"}, titles)
	assert.Equal(t, 10, got[0].Confidence)
	assert.Equal(t, 1, got[1].Confidence)
}

func TestSummaries(t *testing.T) {
	got := Summaries([]book.Book{{Title: "Dune", Author: "Herbert", Category: "Sci-Fi", ReadingStatus: book.StatusReading, ProgressPercentage: 30}})
	assert.Equal(t, []BookSummary{{Title: "Dune", Author: "Herbert", Category: "Sci-Fi", Status: book.StatusReading, Progress: 30}}, got)
}
