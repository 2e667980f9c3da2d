package book

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"libraryapi/internal/apperr"
)

// Payload is a decoded JSON request body. Numbers are kept as json.Number
// so integer checks are exact.
type Payload map[string]any

// ParsePayload decodes a request body that must be a single JSON object.
// A literal null is treated as an empty object.
func ParsePayload(body []byte) (Payload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, apperr.InvalidJSON(errors.New("empty body"))
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, apperr.InvalidJSON(err)
	}
	if dec.More() {
		return nil, apperr.InvalidJSON(errors.New("unexpected data after JSON value"))
	}
	switch v := raw.(type) {
	case nil:
		return Payload{}, nil
	case map[string]any:
		return Payload(v), nil
	default:
		return nil, apperr.InvalidJSON(errors.New("body must be a JSON object"))
	}
}

// Has reports whether key is present with a non-null value.
func (p Payload) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// String returns the scalar value of key rendered as text.
func (p Payload) String(key string) (string, bool) {
	switch v := p[key].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// Int returns key as an integer. Integer-valued numeric strings are accepted;
// fractions are not.
func (p Payload) Int(key string) (int, bool) {
	var s string
	switch v := p[key].(type) {
	case json.Number:
		s = v.String()
	case string:
		s = strings.TrimSpace(v)
	default:
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool returns key as a boolean. Numbers are true when non-zero and strings
// follow ParseFlag.
func (p Payload) Bool(key string) (bool, bool) {
	switch v := p[key].(type) {
	case bool:
		return v, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return false, false
		}
		return f != 0, true
	case string:
		return ParseFlag(v), true
	default:
		return false, false
	}
}

// blank reports whether key is absent, null or an all-whitespace string.
func (p Payload) blank(key string) bool {
	v, ok := p[key]
	if !ok || v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// ParseFlag interprets "1", "true", "on" and "yes" (any case) as true and
// everything else as false.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}
