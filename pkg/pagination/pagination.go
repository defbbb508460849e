package pagination

import (
	"net/http"
	"net/url"
	"strconv"
)

// MaxPageSize caps the page_size a client may ask the upstream for.
const MaxPageSize = 100

// Params holds page-number pagination parameters. A zero PageSize leaves the
// upstream default in place.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size,omitempty"`
}

// DefaultParams returns the first page with the upstream page size.
func DefaultParams() Params {
	return Params{Page: 1}
}

// FromRequest reads page and page_size from the query string. Invalid values
// fall back to defaults; page_size above MaxPageSize is ignored.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v > 0 && v <= MaxPageSize {
		p.PageSize = v
	}
	return p
}

// Apply writes the parameters into q, omitting defaults.
func (p Params) Apply(q url.Values) {
	if p.Page > 1 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.PageSize))
	}
}

// Page is a page-number paginated result in the catalog API's envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether another page follows.
func (p Page[T]) HasNext() bool { return p.Next != nil && *p.Next != "" }

// HasPrev reports whether a page precedes this one.
func (p Page[T]) HasPrev() bool { return p.Previous != nil && *p.Previous != "" }

// Map converts the results of a page, keeping its links.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := Page[U]{
		Count:    p.Count,
		Next:     p.Next,
		Previous: p.Previous,
		Results:  make([]U, 0, len(p.Results)),
	}
	for _, item := range p.Results {
		out.Results = append(out.Results, fn(item))
	}
	return out
}
