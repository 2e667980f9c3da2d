package book

// Book represents a catalog record.
type Book struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	Genre           string `json:"genre"`
	PublicationYear int    `json:"publication_year"`
	Available       bool   `json:"available"`
}

// Filter holds the optional predicates of a list request. Nil or empty
// fields impose no predicate.
type Filter struct {
	Genre     string
	Author    string
	Available *bool
	YearFrom  *int
	YearTo    *int
}

// Applied returns the filters that were actually set, keyed by their query
// parameter names.
func (f Filter) Applied() map[string]any {
	applied := make(map[string]any)
	if f.Genre != "" {
		applied["genre"] = f.Genre
	}
	if f.Author != "" {
		applied["author"] = f.Author
	}
	if f.Available != nil {
		applied["available"] = *f.Available
	}
	if f.YearFrom != nil {
		applied["year_from"] = *f.YearFrom
	}
	if f.YearTo != nil {
		applied["year_to"] = *f.YearTo
	}
	return applied
}

// IsZero reports whether no filter is set.
func (f Filter) IsZero() bool {
	return len(f.Applied()) == 0
}

// Change is a single column assignment of an update.
type Change struct {
	Column string
	Value  any
}

type GenreCount struct {
	Genre string `json:"genre"`
	Count int64  `json:"count"`
}

type AuthorCount struct {
	Author string `json:"author"`
	Count  int64  `json:"count"`
}

type DecadeCount struct {
	Decade int   `json:"decade"`
	Count  int64 `json:"count"`
}

// Stats is an aggregate snapshot of the catalog.
type Stats struct {
	TotalBooks       int64         `json:"total_books"`
	AvailableBooks   int64         `json:"available_books"`
	UnavailableBooks int64         `json:"unavailable_books"`
	TotalGenres      int64         `json:"total_genres"`
	TotalAuthors     int64         `json:"total_authors"`
	BooksByGenre     []GenreCount  `json:"books_by_genre"`
	TopAuthors       []AuthorCount `json:"top_authors"`
	AllAuthors       []string      `json:"all_authors"`
	AllGenres        []string      `json:"all_genres"`
	BooksByDecade    []DecadeCount `json:"books_by_decade"`
}

// AuthorInfo aggregates the books of one author.
type AuthorInfo struct {
	TotalBooks     int64    `json:"total_books"`
	AvailableBooks int64    `json:"available_books"`
	FirstBookYear  int      `json:"first_book_year"`
	LastBookYear   int      `json:"last_book_year"`
	Genres         []string `json:"genres"`
}
