package book

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"libraryapi/internal/apperr"
)

// updatableFields lists the columns an update may touch, in SET order.
var updatableFields = []string{"title", "author", "isbn", "genre", "publication_year", "available"}

// Service provides the catalog operations and translates storage failures
// into apperr values.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new book service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// storeFailure reports an unreachable database as a connection error and
// anything else as the operation's own failure.
func storeFailure(err error, opErr *apperr.Error) error {
	if errors.Is(err, ErrConnection) {
		return apperr.DatabaseConnection(err)
	}
	return opErr
}

// ParseID accepts only positive base-10 integers.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidID()
	}
	return id, nil
}

// List returns the books matching f ordered by title.
func (s *Service) List(ctx context.Context, f Filter) ([]Book, error) {
	books, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, storeFailure(err, apperr.DatabaseQuery("Error retrieving books", err))
	}
	return books, nil
}

// Get returns a book by its raw path identifier.
func (s *Service) Get(ctx context.Context, rawID string) (Book, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return Book{}, err
	}
	return s.get(ctx, id)
}

func (s *Service) get(ctx context.Context, id int64) (Book, error) {
	b, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Book{}, apperr.BookNotFound(id)
	}
	if err != nil {
		return Book{}, storeFailure(err, apperr.DatabaseQuery("Error retrieving the book", err))
	}
	return b, nil
}

// Create validates p, inserts it and returns the stored row.
func (s *Service) Create(ctx context.Context, p Payload) (Book, error) {
	if err := ValidateRequiredFields(p, RequiredFields); err != nil {
		return Book{}, err
	}
	if err := ValidateBookData(p); err != nil {
		return Book{}, err
	}

	b := Book{Available: true}
	b.Title, _ = p.String("title")
	b.Author, _ = p.String("author")
	b.Genre, _ = p.String("genre")
	isbn, _ := p.String("isbn")
	b.ISBN = NormalizeISBN(isbn)
	b.PublicationYear, _ = p.Int("publication_year")
	if p.Has("available") {
		avail, ok := p.Bool("available")
		if !ok {
			return Book{}, apperr.InvalidJSON(nil).With("field", "available")
		}
		b.Available = avail
	}

	id, err := s.repo.Insert(ctx, b)
	switch {
	case errors.Is(err, ErrDuplicateISBN):
		return Book{}, apperr.DuplicateISBN("A book with this ISBN already exists")
	case errors.Is(err, ErrValueTooLong):
		return Book{}, apperr.FieldTooLong("", 0)
	case err != nil:
		return Book{}, storeFailure(err, apperr.DatabaseInsert(err))
	}

	s.logger.InfoContext(ctx, "book created", slog.Int64("id", id), slog.String("isbn", b.ISBN))
	return s.get(ctx, id)
}

// Update applies the allowed fields present in p to an existing book.
func (s *Service) Update(ctx context.Context, rawID string, p Payload) (Book, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return Book{}, err
	}
	if _, err := s.get(ctx, id); err != nil {
		return Book{}, err
	}

	if p.Has("isbn") || p.Has("publication_year") {
		if err := ValidateBookData(p); err != nil {
			return Book{}, err
		}
	}

	changes, err := buildChanges(p)
	if err != nil {
		return Book{}, err
	}
	if len(changes) == 0 {
		return Book{}, apperr.NoFieldsToUpdate()
	}

	err = s.repo.Update(ctx, id, changes)
	switch {
	case errors.Is(err, ErrNotFound):
		return Book{}, apperr.BookNotFound(id)
	case errors.Is(err, ErrDuplicateISBN):
		return Book{}, apperr.DuplicateISBN("Another book with this ISBN already exists")
	case errors.Is(err, ErrValueTooLong):
		return Book{}, apperr.FieldTooLong("", 0)
	case err != nil:
		return Book{}, storeFailure(err, apperr.DatabaseUpdate(err))
	}

	s.logger.InfoContext(ctx, "book updated", slog.Int64("id", id), slog.Int("fields", len(changes)))
	return s.get(ctx, id)
}

func buildChanges(p Payload) ([]Change, error) {
	var changes []Change
	for _, field := range updatableFields {
		if !p.Has(field) {
			continue
		}
		var (
			value any
			ok    bool
		)
		switch field {
		case "publication_year":
			value, ok = p.Int(field)
			if !ok {
				return nil, apperr.InvalidYear(CurrentYear())
			}
		case "available":
			value, ok = p.Bool(field)
		case "isbn":
			var isbn string
			isbn, ok = p.String(field)
			value = NormalizeISBN(isbn)
		default:
			value, ok = p.String(field)
		}
		if !ok {
			return nil, apperr.InvalidJSON(nil).With("field", field)
		}
		changes = append(changes, Change{Column: field, Value: value})
	}
	return changes, nil
}

// Delete removes a book and returns its last state.
func (s *Service) Delete(ctx context.Context, rawID string) (Book, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return Book{}, err
	}
	b, err := s.get(ctx, id)
	if err != nil {
		return Book{}, err
	}

	err = s.repo.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Book{}, apperr.BookNotFound(id)
	}
	if err != nil {
		return Book{}, storeFailure(err, apperr.DatabaseDelete(err))
	}

	s.logger.InfoContext(ctx, "book deleted", slog.Int64("id", id))
	return b, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, storeFailure(err, apperr.DatabaseQuery("Error retrieving statistics", err))
	}
	return st, nil
}

// AuthorExists reports false when the lookup fails.
func (s *Service) AuthorExists(ctx context.Context, author string) bool {
	ok, err := s.repo.AuthorExists(ctx, author)
	if err != nil {
		s.logger.WarnContext(ctx, "author lookup failed", slog.String("author", author), slog.Any("error", err))
		return false
	}
	return ok
}

// GenreExists reports false when the lookup fails.
func (s *Service) GenreExists(ctx context.Context, genre string) bool {
	ok, err := s.repo.GenreExists(ctx, genre)
	if err != nil {
		s.logger.WarnContext(ctx, "genre lookup failed", slog.String("genre", genre), slog.Any("error", err))
		return false
	}
	return ok
}

// AuthorInfo returns nil when the author has no books or the query fails.
func (s *Service) AuthorInfo(ctx context.Context, author string) *AuthorInfo {
	info, err := s.repo.AuthorInfo(ctx, author)
	if err != nil {
		s.logger.WarnContext(ctx, "author info failed", slog.String("author", author), slog.Any("error", err))
		return nil
	}
	return info
}
