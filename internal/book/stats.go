package book

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/sync/errgroup"
)

// Stats runs the aggregate battery concurrently, bounded by
// RepoOptions.StatsConcurrency. Each query fills a distinct field of the
// result. The queries do not share a snapshot, so counts taken during
// concurrent writes may disagree with each other. Ties in the top-authors
// ranking follow the store's row order.
func (r *PostgresRepo) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	books := psql.Select().From("books")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.StatsConcurrency)

	counts := []struct {
		qb  sq.SelectBuilder
		dst *int64
	}{
		{books.Columns("COUNT(*)"), &s.TotalBooks},
		{books.Columns("COUNT(*)").Where("available"), &s.AvailableBooks},
		{books.Columns("COUNT(*)").Where("NOT available"), &s.UnavailableBooks},
		{books.Columns("COUNT(DISTINCT genre)"), &s.TotalGenres},
		{books.Columns("COUNT(DISTINCT author)"), &s.TotalAuthors},
	}
	for _, c := range counts {
		g.Go(func() error { return r.scalar(gctx, c.qb, c.dst) })
	}

	g.Go(func() error {
		qb := books.Columns("genre", "COUNT(*) AS count").GroupBy("genre").OrderBy("count DESC")
		return r.collect(gctx, qb, func(scan func(...any) error) error {
			var gc GenreCount
			if err := scan(&gc.Genre, &gc.Count); err != nil {
				return err
			}
			s.BooksByGenre = append(s.BooksByGenre, gc)
			return nil
		})
	})
	g.Go(func() error {
		qb := books.Columns("author", "COUNT(*) AS count").GroupBy("author").OrderBy("count DESC").Limit(10)
		return r.collect(gctx, qb, func(scan func(...any) error) error {
			var ac AuthorCount
			if err := scan(&ac.Author, &ac.Count); err != nil {
				return err
			}
			s.TopAuthors = append(s.TopAuthors, ac)
			return nil
		})
	})
	g.Go(func() error {
		qb := books.Columns("DISTINCT author").OrderBy("author ASC")
		return r.collect(gctx, qb, func(scan func(...any) error) error {
			var a string
			if err := scan(&a); err != nil {
				return err
			}
			s.AllAuthors = append(s.AllAuthors, a)
			return nil
		})
	})
	g.Go(func() error {
		qb := books.Columns("DISTINCT genre").OrderBy("genre ASC")
		return r.collect(gctx, qb, func(scan func(...any) error) error {
			var genre string
			if err := scan(&genre); err != nil {
				return err
			}
			s.AllGenres = append(s.AllGenres, genre)
			return nil
		})
	})
	g.Go(func() error {
		qb := books.Columns("(publication_year / 10) * 10 AS decade", "COUNT(*) AS count").
			GroupBy("decade").OrderBy("decade DESC")
		return r.collect(gctx, qb, func(scan func(...any) error) error {
			var dc DecadeCount
			if err := scan(&dc.Decade, &dc.Count); err != nil {
				return err
			}
			s.BooksByDecade = append(s.BooksByDecade, dc)
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	s.ensureSlices()
	return s, nil
}

func (s *Stats) ensureSlices() {
	if s.BooksByGenre == nil {
		s.BooksByGenre = []GenreCount{}
	}
	if s.TopAuthors == nil {
		s.TopAuthors = []AuthorCount{}
	}
	if s.AllAuthors == nil {
		s.AllAuthors = []string{}
	}
	if s.AllGenres == nil {
		s.AllGenres = []string{}
	}
	if s.BooksByDecade == nil {
		s.BooksByDecade = []DecadeCount{}
	}
}

func (r *PostgresRepo) scalar(ctx context.Context, qb sq.SelectBuilder, dst *int64) error {
	query, args, err := qb.ToSql()
	if err != nil {
		return fmt.Errorf("build stats query: %w", err)
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, query, args...).Scan(dst); err != nil {
		return fmt.Errorf("stats %q: %w", query, mapError(err))
	}
	return nil
}

func (r *PostgresRepo) collect(ctx context.Context, qb sq.SelectBuilder, row func(scan func(...any) error) error) error {
	query, args, err := qb.ToSql()
	if err != nil {
		return fmt.Errorf("build stats query: %w", err)
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return fmt.Errorf("stats %q: %w", query, mapError(err))
	}
	defer rows.Close()
	for rows.Next() {
		if err := row(rows.Scan); err != nil {
			return err
		}
	}
	return mapError(rows.Err())
}
