package shelf

import "bookshelf/internal/book"

// Modal is a snapshot of an edit or delete dialog. Target is nil whenever
// Open is false.
type Modal struct {
	Open   bool
	Target *book.Book
}

type modals struct {
	add    bool
	edit   Modal
	delete Modal
}

func target(b book.Book) Modal {
	return Modal{Open: true, Target: &b}
}

func (s *Store) OpenAddModal() {
	s.mu.Lock()
	s.modals.add = true
	s.mu.Unlock()
}

func (s *Store) CloseAddModal() {
	s.mu.Lock()
	s.modals.add = false
	s.mu.Unlock()
}

// OpenEditModal opens the edit dialog on b, replacing any earlier target.
func (s *Store) OpenEditModal(b book.Book) {
	s.mu.Lock()
	s.modals.edit = target(b)
	s.mu.Unlock()
}

// CloseEditModal hides the edit dialog and forgets its target.
func (s *Store) CloseEditModal() {
	s.mu.Lock()
	s.modals.edit = Modal{}
	s.mu.Unlock()
}

// OpenDeleteModal opens the delete confirmation on b, replacing any earlier
// target.
func (s *Store) OpenDeleteModal(b book.Book) {
	s.mu.Lock()
	s.modals.delete = target(b)
	s.mu.Unlock()
}

// CloseDeleteModal hides the delete confirmation and forgets its target.
func (s *Store) CloseDeleteModal() {
	s.mu.Lock()
	s.modals.delete = Modal{}
	s.mu.Unlock()
}

func (s *Store) AddModal() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modals.add
}

// EditModal returns a snapshot; the target is a copy.
func (s *Store) EditModal() Modal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot(s.modals.edit)
}

// DeleteModal returns a snapshot; the target is a copy.
func (s *Store) DeleteModal() Modal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot(s.modals.delete)
}

func snapshot(m Modal) Modal {
	if m.Target == nil {
		return m
	}
	b := *m.Target
	return Modal{Open: m.Open, Target: &b}
}
