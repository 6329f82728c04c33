package shelf

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/book"
)

func ptr[T any](v T) *T { return &v }

func sample() []book.Book {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []book.Book{
		{ID: "3", Title: "JavaScript Guide", Author: "Flanagan", Category: "Programming", ReadingStatus: book.StatusReading, ProgressPercentage: 40, DateStarted: ptr("2025-01-02"), CreatedAt: created.Add(2 * time.Hour)},
		{ID: "2", Title: "Test Book", Author: "Someone", Category: "Programming", ReadingStatus: book.StatusToRead, CreatedAt: created.Add(time.Hour)},
		{ID: "1", Title: "Dune", Author: "Frank Herbert", Category: "Sci-Fi", ReadingStatus: book.StatusFinished, ProgressPercentage: 100, CreatedAt: created},
	}
}

func ids(books []book.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestNew_Defaults(t *testing.T) {
	s := New()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, ViewGrid, s.ViewMode())
	assert.False(t, s.Filters().Active())
	assert.Empty(t, s.FilteredBooks())
	assert.Empty(t, s.Categories())
	assert.False(t, s.AddModal())
	assert.Equal(t, Modal{}, s.EditModal())
	assert.Equal(t, Modal{}, s.DeleteModal())
}

func TestReplaceAll_CopiesInput(t *testing.T) {
	in := sample()
	s := New()
	s.ReplaceAll(in)

	in[0].Title = "mutated"
	got, ok := s.Get("3")
	require.True(t, ok)
	assert.Equal(t, "JavaScript Guide", got.Title)
	assert.Equal(t, []string{"3", "2", "1"}, ids(s.Books()))

	s.ReplaceAll(nil)
	assert.Equal(t, 0, s.Len())
}

func TestAdd_PrependsWithoutSorting(t *testing.T) {
	s := New()
	s.ReplaceAll(sample())

	old := book.Book{ID: "0", Title: "Ancient", Category: "History", CreatedAt: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.Add(old)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []string{"0", "3", "2", "1"}, ids(s.Books()))
}

func TestUpdate_ChangesOnlyNamedFields(t *testing.T) {
	s := New()
	s.ReplaceAll(sample())
	before := s.Books()

	ok := s.Update("2", book.Patch{Title: ptr("B")})
	require.True(t, ok)

	after := s.Books()
	want := before[1]
	want.Title = "B"
	assert.Equal(t, want, after[1])
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[2], after[2])
}

func TestUpdate_MissingIDIsReportedAndHarmless(t *testing.T) {
	s := New()
	s.ReplaceAll(sample())
	before := s.Books()

	assert.False(t, s.Update("nope", book.Patch{Title: ptr("B")}))
	assert.Equal(t, before, s.Books())
}

func TestUpdate_KeepsNamedReadingFieldsAsGiven(t *testing.T) {
	s := New()
	s.ReplaceAll(sample())

	progress := 40
	require.True(t, s.Update("2", book.Patch{ProgressPercentage: &progress}))
	got, _ := s.Get("2")
	assert.Equal(t, book.StatusToRead, got.ReadingStatus)
	assert.Equal(t, 40, got.ProgressPercentage)
	assert.Nil(t, got.DateStarted)

	reading := book.StatusReading
	require.True(t, s.Update("2", book.Patch{ReadingStatus: &reading}))
	got, _ = s.Get("2")
	assert.Equal(t, book.StatusReading, got.ReadingStatus)
	assert.Equal(t, 40, got.ProgressPercentage)
	assert.Nil(t, got.DateStarted)
	assert.Nil(t, got.DateFinished)

	require.True(t, s.Update("3", book.Patch{DateFinished: ptr("2025-03-01")}))
	got, _ = s.Get("3")
	assert.Equal(t, book.StatusReading, got.ReadingStatus)
	assert.Equal(t, "2025-03-01", *got.DateFinished)
	assert.Equal(t, "2025-01-02", *got.DateStarted)
}

func TestReplace(t *testing.T) {
	s := New()
	s.ReplaceAll(sample())

	b, _ := s.Get("1")
	b.ReadingNotes = ptr("great")
	assert.True(t, s.Replace(b))
	got, _ := s.Get("1")
	assert.Equal(t, "great", *got.ReadingNotes)

	assert.False(t, s.Replace(book.Book{ID: "x"}))
	assert.Equal(t, 3, s.Len())
}

func TestRemove(t *testing.T) {
	s := New()
	s.ReplaceAll(sample())

	assert.True(t, s.Remove("2"))
	assert.Equal(t, []string{"3", "1"}, ids(s.Books()))

	assert.False(t, s.Remove("2"))
	assert.Equal(t, []string{"3", "1"}, ids(s.Books()))
}

func TestFilteredBooks(t *testing.T) {
	tests := []struct {
		name     string
		filters  Filters
		expected []string
	}{
		{"no filters keeps order", Filters{}, []string{"3", "2", "1"}},
		{"search is case-insensitive on title", Filters{Search: "javascript"}, []string{"3"}},
		{"search matches author", Filters{Search: "HERBERT"}, []string{"1"}},
		{"search matches nothing", Filters{Search: "tolkien"}, []string{}},
		{"category exact", Filters{Category: "Programming"}, []string{"3", "2"}},
		{"category is case-sensitive", Filters{Category: "programming"}, []string{}},
		{"status", Filters{Status: book.StatusToRead}, []string{"2"}},
		{"category and search", Filters{Category: "Programming", Search: "book"}, []string{"2"}},
		{"all three must hold", Filters{Category: "Programming", Search: "guide", Status: book.StatusToRead}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.ReplaceAll(sample())
			s.SetSearchQuery(tt.filters.Search)
			s.SetCategoryFilter(tt.filters.Category)
			s.SetStatusFilter(tt.filters.Status)

			assert.Equal(t, tt.expected, ids(s.FilteredBooks()))
			assert.Equal(t, tt.filters, s.Filters())
		})
	}
}

func TestClearFilters(t *testing.T) {
	s := New()
	s.ReplaceAll(sample())
	s.SetSearchQuery("dune")
	s.SetCategoryFilter("Sci-Fi")
	s.SetStatusFilter(book.StatusFinished)
	require.True(t, s.Filters().Active())

	s.ClearFilters()
	assert.False(t, s.Filters().Active())
	assert.Len(t, s.FilteredBooks(), 3)
}

func TestCategories_Distinct(t *testing.T) {
	s := New()
	s.ReplaceAll(sample())
	assert.Equal(t, []string{"Programming", "Sci-Fi"}, s.Categories())
}

func TestViewMode(t *testing.T) {
	s := New()
	s.SetViewMode(ViewList)
	assert.Equal(t, ViewList, s.ViewMode())

	m, ok := ParseViewMode(" LIST ")
	assert.True(t, ok)
	assert.Equal(t, ViewList, m)

	m, ok = ParseViewMode("table")
	assert.False(t, ok)
	assert.Equal(t, ViewGrid, m)
}

func TestModals(t *testing.T) {
	s := New()
	books := sample()

	t.Run("add", func(t *testing.T) {
		s.OpenAddModal()
		assert.True(t, s.AddModal())
		s.CloseAddModal()
		s.CloseAddModal()
		assert.False(t, s.AddModal())
	})

	t.Run("edit close is idempotent", func(t *testing.T) {
		s.CloseEditModal()
		assert.Equal(t, Modal{}, s.EditModal())
	})

	t.Run("edit open overwrites target", func(t *testing.T) {
		s.OpenEditModal(books[0])
		s.OpenEditModal(books[1])
		m := s.EditModal()
		assert.True(t, m.Open)
		require.NotNil(t, m.Target)
		assert.Equal(t, books[1], *m.Target)

		s.CloseEditModal()
		assert.Equal(t, Modal{}, s.EditModal())
	})

	t.Run("delete", func(t *testing.T) {
		s.OpenDeleteModal(books[2])
		m := s.DeleteModal()
		require.NotNil(t, m.Target)
		assert.Equal(t, "1", m.Target.ID)

		m.Target.Title = "mutated"
		assert.Equal(t, "Dune", s.DeleteModal().Target.Title)

		s.CloseDeleteModal()
		assert.Equal(t, Modal{}, s.DeleteModal())
	})

	t.Run("target is a copy of the argument", func(t *testing.T) {
		b := books[0]
		s.OpenEditModal(b)
		b.Title = "changed later"
		assert.Equal(t, "JavaScript Guide", s.EditModal().Target.Title)
	})
}

func TestScenario_DuneThenFantasyFilter(t *testing.T) {
	s := New()
	dune := book.Book{ID: "1", Title: "Dune", Author: "Herbert", Category: "Sci-Fi", ReadingStatus: book.StatusToRead}

	s.Add(dune)
	assert.Equal(t, []book.Book{dune}, s.FilteredBooks())

	s.SetCategoryFilter("Fantasy")
	assert.Empty(t, s.FilteredBooks())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Add(book.Book{ID: string(rune('a' + i)), Category: "c"})
			s.SetSearchQuery("")
		}(i)
		go func() {
			defer wg.Done()
			_ = s.FilteredBooks()
			_ = s.Categories()
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, s.Len())
}
