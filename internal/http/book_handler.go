package http

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"libraryapi/internal/apperr"
	"libraryapi/internal/book"
	"libraryapi/internal/httpx"
)

type BookHandler struct {
	catalog      Catalog
	rs           *httpx.Responder
	maxBodyBytes int64
}

func NewBookHandler(catalog Catalog, rs *httpx.Responder, maxBodyBytes int64) *BookHandler {
	return &BookHandler{catalog: catalog, rs: rs, maxBodyBytes: maxBodyBytes}
}

// List serves GET /books with the optional genre, author, available,
// year_from and year_to filters.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)

	books, err := h.catalog.List(r.Context(), f)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	message := "Books retrieved successfully"
	if !f.IsZero() {
		message = "Filtered books retrieved successfully"
	}
	h.rs.JSON(w, http.StatusOK, message, map[string]any{
		"total":           len(books),
		"filters_applied": f.Applied(),
		"books":           books,
	})
}

// filterFromQuery ignores year bounds that are not integers.
func filterFromQuery(r *http.Request) book.Filter {
	q := r.URL.Query()
	f := book.Filter{
		Genre:  q.Get("genre"),
		Author: q.Get("author"),
	}

	for _, key := range []string{"available", "disponible"} {
		if q.Has(key) {
			v := book.ParseFlag(q.Get(key))
			f.Available = &v
			break
		}
	}
	if v, err := strconv.Atoi(strings.TrimSpace(q.Get("year_from"))); err == nil {
		f.YearFrom = &v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(q.Get("year_to"))); err == nil {
		f.YearTo = &v
	}
	return f
}

func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request, rawID string) {
	b, err := h.catalog.Get(r.Context(), rawID)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, "Book retrieved successfully", b)
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := h.readPayload(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	b, err := h.catalog.Create(r.Context(), p)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusCreated, "Book created successfully", b)
}

func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request, rawID string) {
	p, err := h.readPayload(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}

	b, err := h.catalog.Update(r.Context(), rawID, p)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, "Book updated successfully", b)
}

func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request, rawID string) {
	b, err := h.catalog.Delete(r.Context(), rawID)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, "Book deleted successfully", map[string]any{
		"deleted_book": b,
		"message":      "The book has been permanently deleted",
	})
}

func (h *BookHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, "Library statistics retrieved successfully", stats)
}

func (h *BookHandler) CheckAuthor(w http.ResponseWriter, r *http.Request, author string) {
	exists := h.catalog.AuthorExists(r.Context(), author)
	message := "The author does not exist in the database"
	if exists {
		message = "The author exists in the database"
	}
	h.rs.JSON(w, http.StatusOK, "Author verification completed", map[string]any{
		"author":  author,
		"exists":  exists,
		"message": message,
	})
}

func (h *BookHandler) CheckGenre(w http.ResponseWriter, r *http.Request, genre string) {
	exists := h.catalog.GenreExists(r.Context(), genre)
	message := "The genre does not exist in the database"
	if exists {
		message = "The genre exists in the database"
	}
	h.rs.JSON(w, http.StatusOK, "Genre verification completed", map[string]any{
		"genre":   genre,
		"exists":  exists,
		"message": message,
	})
}

func (h *BookHandler) AuthorInfo(w http.ResponseWriter, r *http.Request, author string) {
	info := h.catalog.AuthorInfo(r.Context(), author)
	if info == nil {
		h.rs.Error(w, r, apperr.AuthorNotFound(author))
		return
	}
	h.rs.JSON(w, http.StatusOK, "Author information retrieved", map[string]any{
		"author":  author,
		"info":    info,
		"message": "Author information retrieved successfully",
	})
}

func (h *BookHandler) readPayload(r *http.Request) (book.Payload, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		if httpx.IsBodyTooLarge(err) {
			return nil, apperr.PayloadTooLarge(h.maxBodyBytes)
		}
		return nil, apperr.InvalidJSON(err)
	}
	return book.ParsePayload(body)
}
