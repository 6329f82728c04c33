package book

import (
	"context"
)

//go:generate mockgen -destination=mock_repository.go -package=book bookshelf/internal/book Repository

// Repository defines the contract for book data storage. An empty owner
// means the caller is not scoped to a user.
type Repository interface {
	List(ctx context.Context, q Query) ([]Book, error)
	Get(ctx context.Context, owner, id string) (Book, error)
	Create(ctx context.Context, owner string, d Draft) (Book, error)
	// Update loads the book, passes it to mutate and stores the result, all
	// while holding the row. An error from mutate aborts the update.
	Update(ctx context.Context, owner, id string, mutate func(Book) (Book, error)) (Book, error)
	Delete(ctx context.Context, owner, id string) error
}
