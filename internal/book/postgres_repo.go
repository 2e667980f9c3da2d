package book

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of *pgxpool.Pool the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RepoOptions struct {
	// QueryTimeout bounds every statement. Zero disables the bound.
	QueryTimeout time.Duration
	// StatsConcurrency caps the aggregate queries run in parallel by Stats.
	StatsConcurrency int
}

type PostgresRepo struct {
	db   Querier
	opts RepoOptions
}

var (
	psql        = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	bookColumns = []string{"id", "title", "author", "isbn", "genre", "publication_year", "available"}
	likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
)

func NewPostgresRepo(db Querier, opts RepoOptions) *PostgresRepo {
	if opts.StatsConcurrency <= 0 {
		opts.StatsConcurrency = 4
	}
	return &PostgresRepo{db: db, opts: opts}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opts.QueryTimeout)
}

// listPredicates are applied in order; each contributes nothing when its
// filter is unset.
var listPredicates = []func(Filter) sq.Sqlizer{
	func(f Filter) sq.Sqlizer {
		if f.Genre == "" {
			return nil
		}
		return sq.ILike{"genre": containsPattern(f.Genre)}
	},
	func(f Filter) sq.Sqlizer {
		if f.Author == "" {
			return nil
		}
		return sq.ILike{"author": containsPattern(f.Author)}
	},
	func(f Filter) sq.Sqlizer {
		if f.Available == nil {
			return nil
		}
		return sq.Eq{"available": *f.Available}
	},
	func(f Filter) sq.Sqlizer {
		if f.YearFrom == nil {
			return nil
		}
		return sq.GtOrEq{"publication_year": *f.YearFrom}
	},
	func(f Filter) sq.Sqlizer {
		if f.YearTo == nil {
			return nil
		}
		return sq.LtOrEq{"publication_year": *f.YearTo}
	},
}

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Book, error) {
	qb := psql.Select(bookColumns...).From("books").Where("1=1")
	for _, pred := range listPredicates {
		if cond := pred(f); cond != nil {
			qb = qb.Where(cond)
		}
	}
	query, args, err := qb.OrderBy("title ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]Book, 0)
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Genre, &b.PublicationYear, &b.Available); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, mapError(rows.Err())
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	query, args, err := psql.Select(bookColumns...).From("books").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return Book{}, fmt.Errorf("build get query: %w", err)
	}

	var b Book
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err = r.db.QueryRow(timeoutCtx, query, args...).Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Genre, &b.PublicationYear, &b.Available,
	)
	if err != nil {
		return Book{}, mapError(err)
	}
	return b, nil
}

func (r *PostgresRepo) Insert(ctx context.Context, b Book) (int64, error) {
	query, args, err := psql.Insert("books").
		Columns("title", "author", "isbn", "genre", "publication_year", "available").
		Values(b.Title, b.Author, b.ISBN, b.Genre, b.PublicationYear, b.Available).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, query, args...).Scan(&id); err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (r *PostgresRepo) Update(ctx context.Context, id int64, changes []Change) error {
	if len(changes) == 0 {
		return nil
	}
	ub := psql.Update("books")
	for _, c := range changes {
		ub = ub.Set(c.Column, c.Value)
	}
	query, args, err := ub.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("books").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) AuthorExists(ctx context.Context, author string) (bool, error) {
	return r.exists(ctx, sq.Eq{"author": author})
}

func (r *PostgresRepo) GenreExists(ctx context.Context, genre string) (bool, error) {
	return r.exists(ctx, sq.Eq{"genre": genre})
}

func (r *PostgresRepo) exists(ctx context.Context, cond sq.Eq) (bool, error) {
	query, args, err := psql.Select("1").From("books").Where(cond).
		Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var found bool
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, query, args...).Scan(&found); err != nil {
		return false, mapError(err)
	}
	return found, nil
}

// AuthorInfo returns nil when the author has no books.
func (r *PostgresRepo) AuthorInfo(ctx context.Context, author string) (*AuthorInfo, error) {
	query, args, err := psql.Select(
		"COUNT(*)",
		"COUNT(*) FILTER (WHERE available)",
		"COALESCE(MIN(publication_year), 0)",
		"COALESCE(MAX(publication_year), 0)",
		"ARRAY_AGG(DISTINCT genre ORDER BY genre)",
	).From("books").Where(sq.Eq{"author": author}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build author info query: %w", err)
	}

	var info AuthorInfo
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err = r.db.QueryRow(timeoutCtx, query, args...).Scan(
		&info.TotalBooks, &info.AvailableBooks, &info.FirstBookYear, &info.LastBookYear, &info.Genres,
	)
	if err != nil {
		return nil, mapError(err)
	}
	if info.TotalBooks == 0 {
		return nil, nil
	}
	return &info, nil
}
