// Package pagination parses page/per_page query parameters with bounds so
// handlers never pass unbounded limits to a repository.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns the first page with the default page size.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: defaultPerPage}
}

// FromRequest extracts pagination parameters from an HTTP request. Malformed
// or out-of-range values fall back to the defaults rather than erroring; a
// bad page number is not worth a 400.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	p.Page = positiveParam(r, "page", p.Page, 0)
	p.PerPage = positiveParam(r, "per_page", p.PerPage, maxPerPage)

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// positiveParam reads a positive integer query parameter, enforcing an upper
// bound when max is nonzero.
func positiveParam(r *http.Request, name string, fallback, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	if max > 0 && v > max {
		return fallback
	}
	return v
}
