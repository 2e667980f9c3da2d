package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"libraryapi/internal/apperr"
	"libraryapi/internal/book"
	"libraryapi/internal/config"
	"libraryapi/internal/platform/logging"
	"libraryapi/internal/store"
)

type seedBook struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	Genre           string `json:"genre"`
	PublicationYear int    `json:"publication_year"`
	Available       bool   `json:"available"`
}

var sampleCatalog = []seedBook{
	{"Cien años de soledad", "Gabriel García Márquez", "978-0307474728", "Magical Realism", 1967, true},
	{"El amor en los tiempos del cólera", "Gabriel García Márquez", "978-0307387264", "Novel", 1985, true},
	{"Ficciones", "Jorge Luis Borges", "978-0802130303", "Short Stories", 1944, true},
	{"El Aleph", "Jorge Luis Borges", "978-8420633121", "Short Stories", 1949, false},
	{"Pedro Páramo", "Juan Rulfo", "978-0802133908", "Novel", 1955, true},
	{"Rayuela", "Julio Cortázar", "978-8437604572", "Novel", 1963, true},
	{"La casa de los espíritus", "Isabel Allende", "978-1501117015", "Magical Realism", 1982, false},
	{"Don Quijote de la Mancha", "Miguel de Cervantes", "978-8424922580", "Novel", 1605, true},
	{"Nineteen Eighty-Four", "George Orwell", "978-0451524935", "Dystopian", 1949, true},
	{"Brave New World", "Aldous Huxley", "978-0060850524", "Dystopian", 1932, true},
	{"To Kill a Mockingbird", "Harper Lee", "978-0061120084", "Novel", 1960, true},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "978-0441478125", "Science Fiction", 1969, true},
}

var genres = []string{"Novel", "Poetry", "History", "Science Fiction", "Mystery", "Biography", "Philosophy", "Essay"}

// generate returns n synthetic books with unique ISBNs.
func generate(n int, rng *rand.Rand) []seedBook {
	out := make([]seedBook, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, seedBook{
			Title:           fmt.Sprintf("Generated Title %d", i+1),
			Author:          fmt.Sprintf("Author %d", rng.Intn(n/4+1)+1),
			ISBN:            fmt.Sprintf("979%010d", i+1),
			Genre:           genres[rng.Intn(len(genres))],
			PublicationYear: 1900 + rng.Intn(125),
			Available:       rng.Intn(4) != 0,
		})
	}
	return out
}

// creator is satisfied by *book.Service.
type creator interface {
	Create(ctx context.Context, p book.Payload) (book.Book, error)
}

// seed inserts every entry through the catalog so the same validation
// applies as for API requests. Books whose ISBN already exists are skipped.
func seed(ctx context.Context, c creator, entries []seedBook, logger *slog.Logger) (created, skipped int, err error) {
	for _, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return created, skipped, err
		}
		p, err := book.ParsePayload(raw)
		if err != nil {
			return created, skipped, err
		}

		if _, err := c.Create(ctx, p); err != nil {
			if apperr.Is(err, apperr.CodeDuplicateISBN) {
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("seed %q: %w", e.Title, err)
		}
		created++
		if created%500 == 0 {
			logger.Info("seeding", slog.Int("created", created), slog.Int("total", len(entries)))
		}
	}
	return created, skipped, nil
}

func main() {
	count := flag.Int("count", 0, "Additional synthetic books to generate")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	ctx := context.Background()
	pool, err := store.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	repo := book.NewPostgresRepo(pool, book.RepoOptions{QueryTimeout: cfg.Database.QueryTimeout})
	svc := book.NewService(repo, logger)

	entries := append([]seedBook{}, sampleCatalog...)
	if *count > 0 {
		entries = append(entries, generate(*count, rand.New(rand.NewSource(1)))...)
	}

	created, skipped, err := seed(ctx, svc, entries, logger)
	if err != nil {
		logger.Error("seed failed", slog.Int("created", created), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed complete", slog.Int("created", created), slog.Int("skipped", skipped))
}
