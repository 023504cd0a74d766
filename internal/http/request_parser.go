// Request parsing: JSON bodies, filter query strings and path values.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"revtrack/internal/core"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// decodeJSON reads a single JSON object from the request body into v.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxBodyBytes)
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
			return fmt.Errorf("%w: malformed JSON: %v", errBadRequest, err)
		case errors.Is(err, core.ErrValidation):
			return err
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: body must hold a single JSON object", errBadRequest)
	}
	return nil
}

// ParseEntryFilter reads from, to, category (repeatable or comma
// separated), min, max and q from the query string.
func ParseEntryFilter(q url.Values) (core.EntryFilter, error) {
	var f core.EntryFilter
	var err error
	if f.From, err = optionalDate(q, "from"); err != nil {
		return f, err
	}
	if f.To, err = optionalDate(q, "to"); err != nil {
		return f, err
	}
	for _, v := range q["category"] {
		for _, c := range strings.Split(v, ",") {
			if c = sanitizeInput(c); c != "" {
				f.Categories = append(f.Categories, c)
			}
		}
	}
	if f.MinAmount, err = optionalAmount(q, "min"); err != nil {
		return f, err
	}
	if f.MaxAmount, err = optionalAmount(q, "max"); err != nil {
		return f, err
	}
	f.Search = sanitizeInput(q.Get("q"))
	return f, nil
}

// ParseCallFilter reads the from and to query parameters.
func ParseCallFilter(q url.Values) (core.CallFilter, error) {
	var f core.CallFilter
	var err error
	if f.From, err = optionalDate(q, "from"); err != nil {
		return f, err
	}
	f.To, err = optionalDate(q, "to")
	return f, err
}

func optionalDate(q url.Values, key string) (*core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &d, nil
}

func optionalAmount(q url.Values, key string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseAmount(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &d, nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
