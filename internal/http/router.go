// Package http maps request method and path segments onto catalog
// operations.
package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"libraryapi/internal/apperr"
	"libraryapi/internal/book"
	"libraryapi/internal/httpx"
)

// Catalog is the set of operations the router dispatches to. *book.Service
// satisfies it.
type Catalog interface {
	List(ctx context.Context, f book.Filter) ([]book.Book, error)
	Get(ctx context.Context, rawID string) (book.Book, error)
	Create(ctx context.Context, p book.Payload) (book.Book, error)
	Update(ctx context.Context, rawID string, p book.Payload) (book.Book, error)
	Delete(ctx context.Context, rawID string) (book.Book, error)
	Stats(ctx context.Context) (book.Stats, error)
	AuthorExists(ctx context.Context, author string) bool
	GenreExists(ctx context.Context, genre string) bool
	AuthorInfo(ctx context.Context, author string) *book.AuthorInfo
}

// RouterOptions configures a Router.
type RouterOptions struct {
	BasePath    string
	APIName     string
	Environment string
	// MaxBodyBytes is reported back in PAYLOAD_TOO_LARGE errors.
	MaxBodyBytes int64
}

var allowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// Router is an http.Handler serving the whole API below the base path.
type Router struct {
	books *BookHandler
	docs  *DocsHandler
	rs    *httpx.Responder
	base  string
}

func NewRouter(catalog Catalog, rs *httpx.Responder, opts RouterOptions) *Router {
	base := strings.TrimRight(opts.BasePath, "/")
	return &Router{
		books: NewBookHandler(catalog, rs, opts.MaxBodyBytes),
		docs:  NewDocsHandler(rs, base, opts.APIName, opts.Environment),
		rs:    rs,
		base:  base,
	}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segs := rt.segments(r)

	switch r.Method {
	case http.MethodGet:
		rt.routeGet(w, r, segs)
	case http.MethodPost:
		rt.routePost(w, r, segs)
	case http.MethodPut:
		if len(segs) < 2 || segs[0] != "books" {
			rt.rs.Error(w, r, apperr.InvalidPutEndpoint())
			return
		}
		rt.books.Update(w, r, segs[1])
	case http.MethodDelete:
		if len(segs) < 2 || segs[0] != "books" {
			rt.rs.Error(w, r, apperr.InvalidDeleteEndpoint())
			return
		}
		rt.books.Delete(w, r, segs[1])
	default:
		w.Header().Set("Allow", strings.Join(allowedMethods, ", "))
		rt.rs.Error(w, r, apperr.MethodNotAllowed(allowedMethods))
	}
}

func (rt *Router) routeGet(w http.ResponseWriter, r *http.Request, segs []string) {
	if len(segs) == 0 {
		rt.docs.Root(w, r)
		return
	}

	switch {
	case segs[0] == "error":
		code := ""
		if len(segs) > 1 {
			code = segs[1]
		}
		rt.docs.ErrorExample(w, r, code)
	case segs[0] == "stats":
		rt.books.Stats(w, r)
	case segs[0] == "check-author" && len(segs) > 1:
		rt.books.CheckAuthor(w, r, segs[1])
	case segs[0] == "check-genre" && len(segs) > 1:
		rt.books.CheckGenre(w, r, segs[1])
	case segs[0] == "author-info" && len(segs) > 1:
		rt.books.AuthorInfo(w, r, segs[1])
	case segs[0] == "books" && len(segs) > 1 && isNumeric(segs[1]):
		rt.books.Get(w, r, segs[1])
	case segs[0] == "books":
		rt.books.List(w, r)
	default:
		rt.rs.Error(w, r, apperr.EndpointNotFound(
			"The requested endpoint does not exist",
			"/"+strings.Join(segs, "/"),
		))
	}
}

func (rt *Router) routePost(w http.ResponseWriter, r *http.Request, segs []string) {
	if len(segs) == 0 || segs[0] != "books" {
		rt.rs.Error(w, r, apperr.EndpointNotFound("Invalid POST endpoint", ""))
		return
	}
	if len(segs) > 1 {
		rt.rs.Error(w, r, apperr.InvalidPostEndpoint())
		return
	}
	rt.books.Create(w, r)
}

// segments returns the decoded path segments below the base path. An empty
// path falls back to the endpoint and id query parameters.
func (rt *Router) segments(r *http.Request) []string {
	path := r.URL.EscapedPath()
	if rt.base != "" {
		if path == rt.base {
			path = ""
		} else if strings.HasPrefix(path, rt.base+"/") {
			path = path[len(rt.base):]
		}
	}
	path = strings.ReplaceAll(path, "/index.php", "")
	path = strings.Trim(path, "/")

	if path == "" {
		q := r.URL.Query()
		endpoint := strings.Trim(q.Get("endpoint"), "/")
		if endpoint == "" {
			return nil
		}
		segs := strings.Split(endpoint, "/")
		if id := q.Get("id"); id != "" {
			segs = append(segs, id)
		}
		return segs
	}

	raw := strings.Split(path, "/")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		if dec, err := url.PathUnescape(s); err == nil {
			s = dec
		}
		segs = append(segs, s)
	}
	return segs
}

// isNumeric accepts the numeric strings a route treats as an ID candidate,
// including signs and decimals so that ParseID can reject them as INVALID_ID.
func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	digits, dot := 0, false
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}
