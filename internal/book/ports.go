package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the contract for book data storage.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Book, error)
	GetByID(ctx context.Context, id int64) (Book, error)
	Insert(ctx context.Context, b Book) (int64, error)
	Update(ctx context.Context, id int64, changes []Change) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (Stats, error)
	AuthorExists(ctx context.Context, author string) (bool, error)
	GenreExists(ctx context.Context, genre string) (bool, error)
	AuthorInfo(ctx context.Context, author string) (*AuthorInfo, error)
}
