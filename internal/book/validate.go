package book

import (
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"libraryapi/internal/apperr"
)

const (
	MinPublicationYear = 1000
	maxTitleLen        = 255
	maxAuthorLen       = 255
	maxGenreLen        = 100
)

// RequiredFields must be present and non-blank on create.
var RequiredFields = []string{"title", "author", "isbn", "genre", "publication_year"}

var (
	validate   *validator.Validate
	isbnStrip  = regexp.MustCompile(`[^0-9X]`)
	isbn10     = regexp.MustCompile(`^\d{9}[\dX]$`)
	isbn13     = regexp.MustCompile(`^\d{13}$`)
	now        = time.Now
	textLimits = []struct {
		field string
		max   int
	}{
		{"title", maxTitleLen},
		{"author", maxAuthorLen},
		{"genre", maxGenreLen},
	}
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("isbn_len", validateISBNLength)
}

// validateISBNLength accepts a normalized ISBN-10 (X only as the check
// character) or an all-digit ISBN-13.
func validateISBNLength(fl validator.FieldLevel) bool {
	isbn := fl.Field().String()
	switch len(isbn) {
	case 10:
		return isbn10.MatchString(isbn)
	case 13:
		return isbn13.MatchString(isbn)
	}
	return false
}

// NormalizeISBN strips every character except digits and the X check digit.
func NormalizeISBN(isbn string) string {
	return isbnStrip.ReplaceAllString(isbn, "")
}

// CurrentYear is the upper bound for publication_year, evaluated per call.
func CurrentYear() int {
	return now().Year()
}

// ValidateRequiredFields reports every key of keys that is absent or blank.
func ValidateRequiredFields(p Payload, keys []string) error {
	var missing []string
	for _, key := range keys {
		if p.blank(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return apperr.MissingFields(missing)
	}
	return nil
}

// ValidateBookData checks the fields present in p, in order: publication
// year, ISBN, then text lengths. It stops at the first failure.
func ValidateBookData(p Payload) error {
	if p.Has("publication_year") {
		if err := validateYear(p); err != nil {
			return err
		}
	}
	if p.Has("isbn") {
		isbn, ok := p.String("isbn")
		if !ok || validate.Var(NormalizeISBN(isbn), "isbn_len") != nil {
			return apperr.InvalidISBN()
		}
	}
	for _, lim := range textLimits {
		if !p.Has(lim.field) {
			continue
		}
		s, ok := p.String(lim.field)
		if !ok {
			return apperr.InvalidJSON(nil).With("field", lim.field)
		}
		if validate.Var(s, "max="+strconv.Itoa(lim.max)) != nil {
			return apperr.FieldTooLong(lim.field, lim.max)
		}
	}
	return nil
}

func validateYear(p Payload) error {
	current := CurrentYear()
	year, ok := p.Int("publication_year")
	if !ok {
		return apperr.InvalidYear(current)
	}
	rule := "gte=" + strconv.Itoa(MinPublicationYear) + ",lte=" + strconv.Itoa(current)
	if validate.Var(year, rule) != nil {
		return apperr.InvalidYear(current)
	}
	return nil
}
