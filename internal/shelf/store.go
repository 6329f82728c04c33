// Package shelf holds the in-memory view of a user's book collection along
// with the transient state of the screen showing it: filters, display mode
// and which modal is open.
//
// A Store only mirrors writes that already succeeded elsewhere. It performs
// no I/O, never fails and never validates what it is given.
package shelf

import (
	"slices"
	"strings"
	"sync"

	"bookshelf/internal/book"
)

// ViewMode selects how the collection is laid out.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// ParseViewMode maps any casing of "grid" or "list" to a ViewMode. Anything
// else yields ViewGrid and false.
func ParseViewMode(s string) (ViewMode, bool) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case ViewGrid:
		return ViewGrid, true
	case ViewList:
		return ViewList, true
	default:
		return ViewGrid, false
	}
}

// Filters is the active filter state. Empty fields do not filter.
type Filters struct {
	Search   string
	Category string
	Status   book.Status
}

// Active reports whether any filter narrows the collection.
func (f Filters) Active() bool {
	return f.Search != "" || f.Category != "" || f.Status != ""
}

// Match reports whether b passes every active filter.
func (f Filters) Match(b book.Book) bool {
	if f.Category != "" && b.Category != f.Category {
		return false
	}
	if f.Status != "" && b.ReadingStatus != f.Status {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(b.Title), q) ||
		strings.Contains(strings.ToLower(b.Author), q)
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	books   []book.Book
	filters Filters
	view    ViewMode
	modals  modals
}

// New returns an empty Store in grid view with no filters.
func New() *Store {
	return &Store{view: ViewGrid}
}

// ReplaceAll swaps in a new collection, kept in the given order.
func (s *Store) ReplaceAll(books []book.Book) {
	cp := slices.Clone(books)
	s.mu.Lock()
	s.books = cp
	s.mu.Unlock()
}

// Add puts b at the front of the collection whatever its creation time.
func (s *Store) Add(b book.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books = slices.Insert(s.books, 0, b)
}

// Update merges p into the book with the given id and reports whether such
// a book was held. Only the named fields change; status and progress are not
// reconciled here. Other books are left exactly as they were. Callers that
// hold the record a remote update returned should use Replace instead.
func (s *Store) Update(id string, p book.Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.books[i] = s.books[i].Merge(p)
	return true
}

// Replace swaps in b for the held book with the same id, typically the
// record a remote update returned. It reports whether such a book was held.
func (s *Store) Replace(b book.Book) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(b.ID)
	if i < 0 {
		return false
	}
	s.books[i] = b
	return true
}

// Remove drops the book with the given id. Removing an absent id is a no-op
// that returns false.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.books = slices.Delete(s.books, i, i+1)
	return true
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.books, func(b book.Book) bool { return b.ID == id })
}

func (s *Store) SetSearchQuery(q string) {
	s.mu.Lock()
	s.filters.Search = q
	s.mu.Unlock()
}

// SetCategoryFilter narrows to one category; "" clears the filter.
func (s *Store) SetCategoryFilter(c string) {
	s.mu.Lock()
	s.filters.Category = c
	s.mu.Unlock()
}

// SetStatusFilter narrows to one reading status; "" clears the filter.
func (s *Store) SetStatusFilter(st book.Status) {
	s.mu.Lock()
	s.filters.Status = st
	s.mu.Unlock()
}

func (s *Store) SetViewMode(m ViewMode) {
	s.mu.Lock()
	s.view = m
	s.mu.Unlock()
}

// ClearFilters resets search, category and status.
func (s *Store) ClearFilters() {
	s.mu.Lock()
	s.filters = Filters{}
	s.mu.Unlock()
}

func (s *Store) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

func (s *Store) ViewMode() ViewMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// FilteredBooks returns the books passing every active filter, in
// collection order. It is recomputed on each call.
func (s *Store) FilteredBooks() []book.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]book.Book, 0, len(s.books))
	for _, b := range s.books {
		if s.filters.Match(b) {
			out = append(out, b)
		}
	}
	return out
}

// Categories returns the distinct categories held, sorted.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{}, len(s.books))
	out := []string{}
	for _, b := range s.books {
		if _, ok := seen[b.Category]; ok {
			continue
		}
		seen[b.Category] = struct{}{}
		out = append(out, b.Category)
	}
	slices.Sort(out)
	return out
}

// Books returns a copy of the whole collection.
func (s *Store) Books() []book.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.books)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Get returns the book with the given id.
func (s *Store) Get(id string) (book.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.books[i], true
	}
	return book.Book{}, false
}
