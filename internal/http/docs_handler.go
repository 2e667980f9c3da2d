package http

import (
	"net/http"
	"strings"

	"libraryapi/internal/apperr"
	"libraryapi/internal/httpx"
)

// DocsHandler serves the self-describing root document and the synthetic
// error examples.
type DocsHandler struct {
	rs      *httpx.Responder
	base    string
	apiName string
	env     string
}

func NewDocsHandler(rs *httpx.Responder, base, apiName, env string) *DocsHandler {
	if apiName == "" {
		apiName = "Library API"
	}
	return &DocsHandler{rs: rs, base: base, apiName: apiName, env: env}
}

type errorExample struct {
	code    string
	status  int
	message string
	causes  []string
}

var errorExamples = map[string]errorExample{
	"400": {"BAD_REQUEST_EXAMPLE", http.StatusBadRequest, "Bad request", []string{
		"Malformed JSON",
		"Missing required fields",
		"Wrong data types",
		"Values out of range",
	}},
	"401": {"UNAUTHORIZED_EXAMPLE", http.StatusUnauthorized, "Unauthorized", []string{
		"Missing authentication token",
		"Expired token",
		"Invalid credentials",
	}},
	"403": {"FORBIDDEN_EXAMPLE", http.StatusForbidden, "Forbidden", []string{
		"Insufficient permissions",
		"Access to the resource denied",
		"Operation not permitted",
	}},
	"404": {"NOT_FOUND_EXAMPLE", http.StatusNotFound, "Resource not found", []string{
		"Resource does not exist",
		"Wrong URL",
		"Nonexistent ID",
	}},
	"500": {"INTERNAL_SERVER_ERROR_EXAMPLE", http.StatusInternalServerError, "Internal server error", []string{
		"Database error",
		"Connection error",
		"Internal server error",
	}},
}

var exampleCodes = []string{"400", "401", "403", "404", "500"}

// ErrorExample renders the canned error for an HTTP status code.
func (h *DocsHandler) ErrorExample(w http.ResponseWriter, r *http.Request, code string) {
	ex, ok := errorExamples[code]
	if !ok {
		h.rs.Error(w, r, apperr.InvalidErrorCode(exampleCodes))
		return
	}
	h.rs.Error(w, r, (&apperr.Error{
		Code:    ex.code,
		Status:  ex.status,
		Message: ex.message,
		Details: "This is an example of a " + code + " " + http.StatusText(ex.status) + " error",
	}).With("common_causes", ex.causes))
}

func (h *DocsHandler) Root(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	scheme := requestScheme(r)
	baseURL := scheme + "://" + host + h.base

	h.rs.JSON(w, http.StatusOK, "", map[string]any{
		"api_name":    h.apiName,
		"version":     httpx.APIVersion,
		"description": "REST API for managing a library catalog",
		"base_url":    baseURL,
		"current_environment": map[string]any{
			"detected_host": host,
			"is_localhost":  strings.Contains(host, "localhost") || strings.HasPrefix(host, "127.0.0.1"),
			"protocol":      scheme,
			"environment":   h.env,
		},
		"documentation": map[string]string{
			"info": "Every URL below can be called directly from an HTTP client",
			"note": "URLs are generated from the host and base path of this request",
		},
		"quick_test_urls": map[string]string{
			"List all books":         baseURL + "/books",
			"Get a specific book":    baseURL + "/books/1",
			"Create a book (POST)":   baseURL + "/books",
			"Update a book (PUT)":    baseURL + "/books/1",
			"Delete a book (DELETE)": baseURL + "/books/1",
			"Statistics":             baseURL + "/stats",
			"Check author":           baseURL + "/check-author/Gabriel%20Garc%C3%ADa%20M%C3%A1rquez",
			"Check genre":            baseURL + "/check-genre/Magical%20Realism",
			"Author info":            baseURL + "/author-info/Gabriel%20Garc%C3%ADa%20M%C3%A1rquez",
		},
		"filter_examples": map[string]string{
			"Filter by genre":  baseURL + "/books?genre=Magical%20Realism",
			"Filter by author": baseURL + "/books?author=Garc%C3%ADa",
			"Available books":  baseURL + "/books?available=true",
			"Books by year":    baseURL + "/books?year_from=1950&year_to=2000",
			"Combined filters": baseURL + "/books?genre=Novel&available=true",
		},
		"error_test_urls": map[string]string{
			"Error 400 - Bad Request":  baseURL + "/error/400",
			"Error 401 - Unauthorized": baseURL + "/error/401",
			"Error 403 - Forbidden":    baseURL + "/error/403",
			"Error 404 - Not Found":    baseURL + "/error/404",
			"Error 500 - Server Error": baseURL + "/error/500",
			"Nonexistent book":         baseURL + "/books/999",
		},
		"endpoints_reference": map[string]string{
			"GET /":                    "API information",
			"GET /books":               "List all books (accepts filters)",
			"GET /books/{id}":          "Get a specific book",
			"POST /books":              "Create a book",
			"PUT /books/{id}":          "Update a book",
			"DELETE /books/{id}":       "Delete a book",
			"GET /stats":               "Library statistics",
			"GET /check-author/{name}": "Check whether an author exists",
			"GET /check-genre/{name}":  "Check whether a genre exists",
			"GET /author-info/{name}":  "Detailed author information",
			"GET /error/{code}":        "Error examples",
		},
		"available_filters": map[string]string{
			"genre":     "Filter by literary genre (partial, case-insensitive)",
			"author":    "Filter by author name (partial, case-insensitive)",
			"available": "Filter by availability (true/false)",
			"year_from": "Minimum publication year",
			"year_to":   "Maximum publication year",
		},
	})
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
