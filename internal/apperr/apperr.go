// Package apperr defines the error taxonomy shared by the catalog and the
// HTTP layer. Every failure a client can observe is an *Error carrying a
// stable code string and the HTTP status it maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error codes exposed to clients.
const (
	CodeMissingFields           = "MISSING_FIELDS"
	CodeInvalidJSON             = "INVALID_JSON"
	CodeInvalidID               = "INVALID_ID"
	CodeInvalidYear             = "INVALID_YEAR"
	CodeInvalidISBN             = "INVALID_ISBN"
	CodeFieldTooLong            = "FIELD_TOO_LONG"
	CodeNoFieldsToUpdate        = "NO_FIELDS_TO_UPDATE"
	CodeInvalidPostEndpoint     = "INVALID_POST_ENDPOINT"
	CodeInvalidPutEndpoint      = "INVALID_PUT_ENDPOINT"
	CodeInvalidDeleteEndpoint   = "INVALID_DELETE_ENDPOINT"
	CodeInvalidErrorCode        = "INVALID_ERROR_CODE"
	CodeBookNotFound            = "BOOK_NOT_FOUND"
	CodeEndpointNotFound        = "ENDPOINT_NOT_FOUND"
	CodeAuthorNotFound          = "AUTHOR_NOT_FOUND"
	CodeMethodNotAllowed        = "METHOD_NOT_ALLOWED"
	CodeDuplicateISBN           = "DUPLICATE_ISBN"
	CodeDatabaseConnectionError = "DATABASE_CONNECTION_ERROR"
	CodeDatabaseQueryError      = "DATABASE_QUERY_ERROR"
	CodeDatabaseInsertError     = "DATABASE_INSERT_ERROR"
	CodeDatabaseUpdateError     = "DATABASE_UPDATE_ERROR"
	CodeDatabaseDeleteError     = "DATABASE_DELETE_ERROR"
	CodeRateLimitExceeded       = "RATE_LIMIT_EXCEEDED"
	CodePayloadTooLarge         = "PAYLOAD_TOO_LARGE"
	CodeInternal                = "INTERNAL_ERROR"
)

// Error is a client-visible failure.
type Error struct {
	Code    string
	Status  int
	Message string
	Details string
	Extra   map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Details)
}

func (e *Error) Unwrap() error { return e.Err }

// With returns a copy of e with an extra field added to the error body.
func (e *Error) With(key string, value any) *Error {
	cp := *e
	cp.Extra = make(map[string]any, len(e.Extra)+1)
	for k, v := range e.Extra {
		cp.Extra[k] = v
	}
	cp.Extra[key] = value
	return &cp
}

// Body returns the "error" object of the envelope. Diagnostic fields are
// included only when debug is set and the error is server-side.
func (e *Error) Body(debug bool) map[string]any {
	body := make(map[string]any, len(e.Extra)+3)
	for k, v := range e.Extra {
		body[k] = v
	}
	body["code"] = e.Code
	body["details"] = e.Details
	if debug && e.Status >= http.StatusInternalServerError && e.Err != nil {
		body["debug_info"] = diagnostics(e.Err)
	}
	return body
}

func diagnostics(err error) map[string]any {
	info := map[string]any{"error_message": err.Error()}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		info["error_code"] = pgErr.Code
		info["sql_state"] = pgErr.SQLState()
	} else {
		info["error_code"] = ""
	}
	return info
}

// From converts any error into an *Error. Errors that are not already part
// of the taxonomy become INTERNAL_ERROR.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{
		Code:    CodeInternal,
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
		Details: "An internal error occurred",
		Err:     err,
	}
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code string) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

func MissingFields(fields []string) *Error {
	return (&Error{
		Code:    CodeMissingFields,
		Status:  http.StatusBadRequest,
		Message: "Missing required fields",
		Details: "The following fields are required: " + strings.Join(fields, ", "),
	}).With("missing_fields", fields)
}

func InvalidJSON(err error) *Error {
	details := "The submitted JSON is not valid"
	if err != nil {
		details += ": " + err.Error()
	}
	return &Error{
		Code:    CodeInvalidJSON,
		Status:  http.StatusBadRequest,
		Message: "Malformed JSON",
		Details: details,
	}
}

func InvalidID() *Error {
	return &Error{
		Code:    CodeInvalidID,
		Status:  http.StatusBadRequest,
		Message: "Invalid ID",
		Details: "The ID must be a positive integer",
	}
}

func InvalidYear(currentYear int) *Error {
	return &Error{
		Code:    CodeInvalidYear,
		Status:  http.StatusBadRequest,
		Message: "Invalid publication year",
		Details: fmt.Sprintf("The publication year must be between 1000 and %d", currentYear),
	}
}

func InvalidISBN() *Error {
	return &Error{
		Code:    CodeInvalidISBN,
		Status:  http.StatusBadRequest,
		Message: "Invalid ISBN",
		Details: "The ISBN must have 10 or 13 digits",
	}
}

func FieldTooLong(field string, max int) *Error {
	details := "A text field exceeds its maximum length"
	if field != "" {
		details = fmt.Sprintf("The field '%s' cannot be longer than %d characters", field, max)
	}
	return &Error{
		Code:    CodeFieldTooLong,
		Status:  http.StatusBadRequest,
		Message: "Field too long",
		Details: details,
	}
}

func NoFieldsToUpdate() *Error {
	return &Error{
		Code:    CodeNoFieldsToUpdate,
		Status:  http.StatusBadRequest,
		Message: "Insufficient data",
		Details: "No valid fields were provided to update",
	}
}

func InvalidPostEndpoint() *Error {
	return &Error{
		Code:    CodeInvalidPostEndpoint,
		Status:  http.StatusBadRequest,
		Message: "Invalid POST endpoint",
		Details: "To create a book use POST /books (without an ID)",
	}
}

func InvalidPutEndpoint() *Error {
	return &Error{
		Code:    CodeInvalidPutEndpoint,
		Status:  http.StatusBadRequest,
		Message: "Invalid PUT endpoint",
		Details: "To update a book use PUT /books/{id}",
	}
}

func InvalidDeleteEndpoint() *Error {
	return &Error{
		Code:    CodeInvalidDeleteEndpoint,
		Status:  http.StatusBadRequest,
		Message: "Invalid DELETE endpoint",
		Details: "To delete a book use DELETE /books/{id}",
	}
}

func InvalidErrorCode(available []string) *Error {
	return (&Error{
		Code:    CodeInvalidErrorCode,
		Status:  http.StatusBadRequest,
		Message: "Invalid error code",
		Details: "Error code not available as an example",
	}).With("available_codes", available)
}

func BookNotFound(id int64) *Error {
	return &Error{
		Code:    CodeBookNotFound,
		Status:  http.StatusNotFound,
		Message: "Book not found",
		Details: fmt.Sprintf("No book found with ID: %d", id),
	}
}

func EndpointNotFound(details, path string) *Error {
	e := &Error{
		Code:    CodeEndpointNotFound,
		Status:  http.StatusNotFound,
		Message: "Endpoint not found",
		Details: details,
	}
	if path != "" {
		return e.With("path", path)
	}
	return e
}

func AuthorNotFound(author string) *Error {
	return (&Error{
		Code:    CodeAuthorNotFound,
		Status:  http.StatusNotFound,
		Message: "Author not found",
		Details: "No information found for the author",
	}).With("author", author)
}

func MethodNotAllowed(allowed []string) *Error {
	return (&Error{
		Code:    CodeMethodNotAllowed,
		Status:  http.StatusMethodNotAllowed,
		Message: "Method not allowed",
		Details: "HTTP method not allowed",
	}).With("allowed_methods", allowed)
}

func DuplicateISBN(details string) *Error {
	return &Error{
		Code:    CodeDuplicateISBN,
		Status:  http.StatusConflict,
		Message: "Conflict - duplicate ISBN",
		Details: details,
	}
}

func DatabaseConnection(err error) *Error {
	return internal(CodeDatabaseConnectionError, "Could not connect to the database", err)
}

func DatabaseQuery(details string, err error) *Error {
	return internal(CodeDatabaseQueryError, details, err)
}

func DatabaseInsert(err error) *Error {
	return internal(CodeDatabaseInsertError, "Error creating the book", err)
}

func DatabaseUpdate(err error) *Error {
	return internal(CodeDatabaseUpdateError, "Error updating the book", err)
}

func DatabaseDelete(err error) *Error {
	return internal(CodeDatabaseDeleteError, "Error deleting the book", err)
}

func RateLimitExceeded() *Error {
	return &Error{
		Code:    CodeRateLimitExceeded,
		Status:  http.StatusTooManyRequests,
		Message: "Too many requests",
		Details: "Request rate limit exceeded, retry later",
	}
}

func PayloadTooLarge(limit int64) *Error {
	return &Error{
		Code:    CodePayloadTooLarge,
		Status:  http.StatusRequestEntityTooLarge,
		Message: "Payload too large",
		Details: fmt.Sprintf("Request body must not exceed %d bytes", limit),
	}
}

func internal(code, details string, err error) *Error {
	return &Error{
		Code:    code,
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
		Details: details,
		Err:     err,
	}
}
