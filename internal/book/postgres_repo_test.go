package book

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exact(sql string) string {
	return "^" + regexp.QuoteMeta(sql) + "$"
}

func newMockRepo(t *testing.T, concurrency int) (*PostgresRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresRepo(mock, RepoOptions{StatsConcurrency: concurrency}), mock
}

func bookRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "title", "author", "isbn", "genre", "publication_year", "available"})
}

func TestPostgresRepo_List(t *testing.T) {
	yes := true
	from, to := 1990, 2000

	tests := []struct {
		name   string
		filter Filter
		sql    string
		args   []any
	}{
		{
			name:   "no filters",
			filter: Filter{},
			sql:    "SELECT id, title, author, isbn, genre, publication_year, available FROM books WHERE 1=1 ORDER BY title ASC",
		},
		{
			name:   "genre and availability",
			filter: Filter{Genre: "fic", Available: &yes},
			sql:    "SELECT id, title, author, isbn, genre, publication_year, available FROM books WHERE 1=1 AND genre ILIKE $1 AND available = $2 ORDER BY title ASC",
			args:   []any{"%fic%", true},
		},
		{
			name:   "every filter in order",
			filter: Filter{Genre: "g", Author: "a", Available: &yes, YearFrom: &from, YearTo: &to},
			sql: "SELECT id, title, author, isbn, genre, publication_year, available FROM books WHERE 1=1 " +
				"AND genre ILIKE $1 AND author ILIKE $2 AND available = $3 AND publication_year >= $4 AND publication_year <= $5 ORDER BY title ASC",
			args: []any{"%g%", "%a%", true, 1990, 2000},
		},
		{
			name:   "like metacharacters are escaped",
			filter: Filter{Author: "100%_"},
			sql:    "SELECT id, title, author, isbn, genre, publication_year, available FROM books WHERE 1=1 AND author ILIKE $1 ORDER BY title ASC",
			args:   []any{`%100\%\_%`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t, 1)
			mock.ExpectQuery(exact(tt.sql)).
				WithArgs(tt.args...).
				WillReturnRows(bookRows().AddRow(int64(1), "Dune", "Frank Herbert", "9780441013593", "Fiction", 1965, true))

			books, err := repo.List(context.Background(), tt.filter)

			require.NoError(t, err)
			require.Len(t, books, 1)
			assert.Equal(t, "Dune", books[0].Title)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresRepo_List_EmptyIsNotNil(t *testing.T) {
	repo, mock := newMockRepo(t, 1)
	mock.ExpectQuery(`^SELECT .+ FROM books WHERE 1=1`).WillReturnRows(bookRows())

	books, err := repo.List(context.Background(), Filter{})

	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestPostgresRepo_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t, 1)
		mock.ExpectQuery(exact("SELECT id, title, author, isbn, genre, publication_year, available FROM books WHERE id = $1")).
			WithArgs(int64(5)).
			WillReturnRows(bookRows().AddRow(int64(5), "Emma", "Jane Austen", "9780141439587", "Classic", 1815, false))

		b, err := repo.GetByID(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, Book{ID: 5, Title: "Emma", Author: "Jane Austen", ISBN: "9780141439587", Genre: "Classic", PublicationYear: 1815}, b)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t, 1)
		mock.ExpectQuery(`^SELECT .+ FROM books WHERE id = \$1$`).
			WithArgs(int64(5)).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(context.Background(), 5)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresRepo_Insert(t *testing.T) {
	b := Book{Title: "Foo", Author: "Bar", ISBN: "1234567890", Genre: "X", PublicationYear: 2000, Available: true}

	t.Run("returns id", func(t *testing.T) {
		repo, mock := newMockRepo(t, 1)
		mock.ExpectQuery(`^INSERT INTO books \(title,\s?author,\s?isbn,\s?genre,\s?publication_year,\s?available\) VALUES .+ RETURNING id$`).
			WithArgs("Foo", "Bar", "1234567890", "X", 2000, true).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))

		id, err := repo.Insert(context.Background(), b)

		require.NoError(t, err)
		assert.Equal(t, int64(11), id)
	})

	t.Run("unique violation", func(t *testing.T) {
		repo, mock := newMockRepo(t, 1)
		mock.ExpectQuery(`^INSERT INTO books`).
			WithArgs("Foo", "Bar", "1234567890", "X", 2000, true).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "books_isbn_key"})

		_, err := repo.Insert(context.Background(), b)

		assert.ErrorIs(t, err, ErrDuplicateISBN)
	})

	t.Run("string too long", func(t *testing.T) {
		repo, mock := newMockRepo(t, 1)
		mock.ExpectQuery(`^INSERT INTO books`).
			WithArgs("Foo", "Bar", "1234567890", "X", 2000, true).
			WillReturnError(&pgconn.PgError{Code: "22001"})

		_, err := repo.Insert(context.Background(), b)

		assert.ErrorIs(t, err, ErrValueTooLong)
	})
}

func TestPostgresRepo_Update(t *testing.T) {
	changes := []Change{{Column: "title", Value: "New"}, {Column: "genre", Value: "Drama"}}

	t.Run("keeps change order", func(t *testing.T) {
		repo, mock := newMockRepo(t, 1)
		mock.ExpectExec(exact("UPDATE books SET title = $1, genre = $2 WHERE id = $3")).
			WithArgs("New", "Drama", int64(3)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.Update(context.Background(), 3, changes))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows affected", func(t *testing.T) {
		repo, mock := newMockRepo(t, 1)
		mock.ExpectExec(`^UPDATE books`).
			WithArgs("New", "Drama", int64(3)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, repo.Update(context.Background(), 3, changes), ErrNotFound)
	})

	t.Run("driver error passes through", func(t *testing.T) {
		repo, mock := newMockRepo(t, 1)
		boom := errors.New("conn reset")
		mock.ExpectExec(`^UPDATE books`).
			WithArgs("New", "Drama", int64(3)).
			WillReturnError(boom)

		assert.ErrorIs(t, repo.Update(context.Background(), 3, changes), boom)
	})
}

func TestPostgresRepo_Delete(t *testing.T) {
	repo, mock := newMockRepo(t, 1)
	mock.ExpectExec(exact("DELETE FROM books WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(exact("DELETE FROM books WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, repo.Delete(context.Background(), 4))
	assert.ErrorIs(t, repo.Delete(context.Background(), 4), ErrNotFound)
}

func TestPostgresRepo_Exists(t *testing.T) {
	repo, mock := newMockRepo(t, 1)
	mock.ExpectQuery(`^SELECT EXISTS \(\s*SELECT 1 FROM books WHERE author = \$1\s*\)$`).
		WithArgs("Jane Austen").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`^SELECT EXISTS \(\s*SELECT 1 FROM books WHERE genre = \$1\s*\)$`).
		WithArgs("Poetry").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	found, err := repo.AuthorExists(context.Background(), "Jane Austen")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.GenreExists(context.Background(), "Poetry")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPostgresRepo_AuthorInfo(t *testing.T) {
	cols := []string{"count", "available", "first", "last", "genres"}

	t.Run("aggregates", func(t *testing.T) {
		repo, mock := newMockRepo(t, 1)
		mock.ExpectQuery(`^SELECT COUNT\(\*\), COUNT\(\*\) FILTER \(WHERE available\), .+ FROM books WHERE author = \$1$`).
			WithArgs("Jane Austen").
			WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(3), int64(2), 1811, 1817, []string{"Classic", "Romance"}))

		info, err := repo.AuthorInfo(context.Background(), "Jane Austen")

		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, AuthorInfo{TotalBooks: 3, AvailableBooks: 2, FirstBookYear: 1811, LastBookYear: 1817, Genres: []string{"Classic", "Romance"}}, *info)
	})

	t.Run("no books", func(t *testing.T) {
		repo, mock := newMockRepo(t, 1)
		mock.ExpectQuery(`^SELECT COUNT`).
			WithArgs("Nobody").
			WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(0), int64(0), 0, 0, []string(nil)))

		info, err := repo.AuthorInfo(context.Background(), "Nobody")

		require.NoError(t, err)
		assert.Nil(t, info)
	})
}

func expectStats(mock pgxmock.PgxPoolIface) {
	count := func(n int64) *pgxmock.Rows { return pgxmock.NewRows([]string{"count"}).AddRow(n) }

	mock.ExpectQuery(exact("SELECT COUNT(*) FROM books")).WillReturnRows(count(5))
	mock.ExpectQuery(exact("SELECT COUNT(*) FROM books WHERE available")).WillReturnRows(count(3))
	mock.ExpectQuery(exact("SELECT COUNT(*) FROM books WHERE NOT available")).WillReturnRows(count(2))
	mock.ExpectQuery(exact("SELECT COUNT(DISTINCT genre) FROM books")).WillReturnRows(count(2))
	mock.ExpectQuery(exact("SELECT COUNT(DISTINCT author) FROM books")).WillReturnRows(count(4))
	mock.ExpectQuery(exact("SELECT genre, COUNT(*) AS count FROM books GROUP BY genre ORDER BY count DESC")).
		WillReturnRows(pgxmock.NewRows([]string{"genre", "count"}).AddRow("Fiction", int64(3)).AddRow("Poetry", int64(2)))
	mock.ExpectQuery(exact("SELECT author, COUNT(*) AS count FROM books GROUP BY author ORDER BY count DESC LIMIT 10")).
		WillReturnRows(pgxmock.NewRows([]string{"author", "count"}).AddRow("Austen", int64(2)))
	mock.ExpectQuery(exact("SELECT DISTINCT author FROM books ORDER BY author ASC")).
		WillReturnRows(pgxmock.NewRows([]string{"author"}).AddRow("Austen").AddRow("Borges"))
	mock.ExpectQuery(exact("SELECT DISTINCT genre FROM books ORDER BY genre ASC")).
		WillReturnRows(pgxmock.NewRows([]string{"genre"}).AddRow("Fiction").AddRow("Poetry"))
	mock.ExpectQuery(exact("SELECT (publication_year / 10) * 10 AS decade, COUNT(*) AS count FROM books GROUP BY decade ORDER BY decade DESC")).
		WillReturnRows(pgxmock.NewRows([]string{"decade", "count"}).AddRow(1990, int64(4)).AddRow(1810, int64(1)))
}

func TestPostgresRepo_Stats(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		repo, mock := newMockRepo(t, concurrency)
		mock.MatchExpectationsInOrder(false)
		expectStats(mock)

		s, err := repo.Stats(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(5), s.TotalBooks)
		assert.Equal(t, int64(3), s.AvailableBooks)
		assert.Equal(t, int64(2), s.UnavailableBooks)
		assert.Equal(t, int64(2), s.TotalGenres)
		assert.Equal(t, int64(4), s.TotalAuthors)
		assert.Equal(t, []GenreCount{{"Fiction", 3}, {"Poetry", 2}}, s.BooksByGenre)
		assert.Equal(t, []AuthorCount{{"Austen", 2}}, s.TopAuthors)
		assert.Equal(t, []string{"Austen", "Borges"}, s.AllAuthors)
		assert.Equal(t, []string{"Fiction", "Poetry"}, s.AllGenres)
		assert.Equal(t, []DecadeCount{{1990, 4}, {1810, 1}}, s.BooksByDecade)
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}

func TestPostgresRepo_Stats_Error(t *testing.T) {
	repo, mock := newMockRepo(t, 1)
	mock.ExpectQuery(exact("SELECT COUNT(*) FROM books")).WillReturnError(errors.New("relation does not exist"))

	_, err := repo.Stats(context.Background())

	assert.Error(t, err)
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil))
	assert.ErrorIs(t, mapError(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "23505"}), ErrDuplicateISBN)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "22001"}), ErrValueTooLong)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "08006"}), ErrConnection)

	other := &pgconn.PgError{Code: "42P01"}
	assert.Equal(t, other, mapError(other))
}

func TestPostgresRepo_UnreachableDatabase(t *testing.T) {
	pool, err := pgxpool.New(context.Background(), "postgres://library@127.0.0.1:1/library?sslmode=disable&connect_timeout=2")
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	repo := NewPostgresRepo(pool, RepoOptions{StatsConcurrency: 2})
	ctx := context.Background()

	_, err = repo.List(ctx, Filter{})
	assert.ErrorIs(t, err, ErrConnection)

	_, err = repo.GetByID(ctx, 1)
	assert.ErrorIs(t, err, ErrConnection)

	_, err = repo.Stats(ctx)
	assert.ErrorIs(t, err, ErrConnection)

	_, err = repo.AuthorExists(ctx, "Julio Cortázar")
	assert.ErrorIs(t, err, ErrConnection)
}
