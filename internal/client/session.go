package client

import (
	"context"
	"errors"
	"sync/atomic"

	"bookshelf/internal/book"
	"bookshelf/internal/shelf"
)

// ErrBusy is returned when a session is asked to act while an earlier
// request is still in flight.
var ErrBusy = errors.New("another request is in progress")

// API is the part of Client a Session needs.
type API interface {
	List(ctx context.Context, opts ListOptions) ([]book.Book, string, error)
	Create(ctx context.Context, d book.Draft) (book.Book, error)
	Update(ctx context.Context, id string, p book.Patch) (book.Book, error)
	Delete(ctx context.Context, id string) error
}

// Session keeps a shelf.Store in step with the API. Every write goes to the
// API first; the store changes only after the API accepted it.
type Session struct {
	api   API
	store *shelf.Store
	busy  atomic.Bool
}

func NewSession(api API, store *shelf.Store) *Session {
	return &Session{api: api, store: store}
}

func (s *Session) Store() *shelf.Store { return s.store }

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool { return s.busy.Load() }

func (s *Session) acquire() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (s *Session) release() { s.busy.Store(false) }

// Sync replaces the store's collection with every book the API holds.
func (s *Session) Sync(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	books, _, err := s.api.List(ctx, ListOptions{})
	if err != nil {
		return err
	}
	s.store.ReplaceAll(books)
	return nil
}

// Add creates the book remotely, then puts the stored copy at the front of
// the collection and closes the add modal.
func (s *Session) Add(ctx context.Context, d book.Draft) (book.Book, error) {
	if err := s.acquire(); err != nil {
		return book.Book{}, err
	}
	defer s.release()

	b, err := s.api.Create(ctx, d)
	if err != nil {
		return book.Book{}, err
	}
	s.store.Add(b)
	s.store.CloseAddModal()
	return b, nil
}

// Edit updates the book remotely. The server's copy replaces the local one
// so both agree on reconciled fields and timestamps; a book missing locally
// stays missing until the next Sync. Store.Update is not used here because
// it merges the patch verbatim and would miss what the server reconciled.
func (s *Session) Edit(ctx context.Context, id string, p book.Patch) (book.Book, error) {
	if err := s.acquire(); err != nil {
		return book.Book{}, err
	}
	defer s.release()

	b, err := s.api.Update(ctx, id, p)
	if err != nil {
		return book.Book{}, err
	}
	s.store.Replace(b)
	s.store.CloseEditModal()
	return b, nil
}

// Delete removes the book remotely, then locally. A book the API no longer
// has is dropped from the store as well, and ErrNotFound is still returned.
func (s *Session) Delete(ctx context.Context, id string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	err := s.api.Delete(ctx, id)
	if err != nil && !errors.Is(err, book.ErrNotFound) {
		return err
	}
	s.store.Remove(id)
	s.store.CloseDeleteModal()
	return err
}
