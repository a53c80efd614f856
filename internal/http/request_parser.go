// This file implements utilities for parsing and validating request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"asesor/internal/core"
)

const (
	// maxBodyBytes bounds JSON request bodies.
	maxBodyBytes = 1 << 16

	defaultRecentLimit = 20
	maxRecentLimit     = 500
)

// errBadRequest marks malformed input that maps to 400.
var errBadRequest = errors.New("bad request")

// DecodeJSON reads a single JSON object from the body into dst, rejecting
// unknown fields and trailing data.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxErr.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		case errors.Is(err, core.ErrInvalidAmount):
			// Money decoding failures are validation errors, not syntax errors.
			return err
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", errBadRequest)
	}
	return nil
}

// ParseAsOf reads the as_of query parameter, defaulting to today.
func ParseAsOf(r *http.Request, today core.Date) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get("as_of"))
	if v == "" {
		return today, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: as_of must be YYYY-MM-DD", errBadRequest)
	}
	return d, nil
}

// ParseLimit reads the limit query parameter for listings.
func ParseLimit(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return defaultRecentLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxRecentLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", errBadRequest, maxRecentLimit)
	}
	return n, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
