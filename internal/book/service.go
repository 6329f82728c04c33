package book

import (
	"context"
	"time"
)

// Service provides book-related business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns the books matching the query, newest first.
func (s *Service) List(ctx context.Context, q Query) ([]Book, error) {
	return s.repo.List(ctx, q)
}

// Get returns a book by its ID.
func (s *Service) Get(ctx context.Context, owner, id string) (Book, error) {
	return s.repo.Get(ctx, owner, id)
}

// Create validates the draft before storing it.
func (s *Service) Create(ctx context.Context, owner string, d Draft) (Book, error) {
	normalized, err := d.Normalize(s.now())
	if err != nil {
		return Book{}, err
	}
	return s.repo.Create(ctx, owner, normalized)
}

// Update validates the patch and merges it into the stored book.
func (s *Service) Update(ctx context.Context, owner, id string, p Patch) (Book, error) {
	if p.IsEmpty() {
		return Book{}, invalid("", "at least one field must be provided")
	}
	p, err := p.Validate()
	if err != nil {
		return Book{}, err
	}
	now := s.now()
	return s.repo.Update(ctx, owner, id, func(current Book) (Book, error) {
		return current.Apply(p, now), nil
	})
}

// Delete removes a book.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	return s.repo.Delete(ctx, owner, id)
}

// Stats summarises every book the owner has.
func (s *Service) Stats(ctx context.Context, owner string) (Stats, error) {
	books, err := s.repo.List(ctx, Query{Owner: owner})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(books, s.now()), nil
}
