// Package navigation tracks the current location of the host and its history.
package navigation

import (
	"net/url"
	"strings"
)

// Navigator exposes the current location to view models.
type Navigator interface {
	URI() string
	Query(name string) (string, bool)
	NavigateTo(uri string)
	// Replace swaps the current location without adding to the history.
	Replace(uri string)
	Back() bool
}

// History is a Navigator backed by a stack of visited locations.
type History struct {
	items []string
}

// NewHistory starts at uri.
func NewHistory(uri string) *History {
	h := &History{}
	h.NavigateTo(uri)
	return h
}

func (h *History) URI() string {
	if len(h.items) == 0 {
		return "/"
	}
	return h.items[len(h.items)-1]
}

func (h *History) NavigateTo(uri string) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return
	}
	if len(h.items) > 0 && h.items[len(h.items)-1] == uri {
		return
	}
	h.items = append(h.items, uri)
}

func (h *History) Replace(uri string) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return
	}
	if len(h.items) == 0 {
		h.items = append(h.items, uri)
		return
	}
	h.items[len(h.items)-1] = uri
}

// StripQuery removes the named query parameters from uri.
func StripQuery(uri string, names ...string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	q := u.Query()
	for _, n := range names {
		q.Del(n)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Back pops the current location. The first location is never popped.
func (h *History) Back() bool {
	if len(h.items) <= 1 {
		return false
	}
	h.items = h.items[:len(h.items)-1]
	return true
}

func (h *History) Len() int { return len(h.items) }

func (h *History) Query(name string) (string, bool) {
	u, err := url.Parse(h.URI())
	if err != nil {
		return "", false
	}
	q := u.Query()
	if !q.Has(name) {
		return "", false
	}
	return q.Get(name), true
}

// Path returns the current location without its query string.
func (h *History) Path() string {
	u, err := url.Parse(h.URI())
	if err != nil {
		return h.URI()
	}
	return u.Path
}

// Segments splits the current path, e.g. "/accounts/<id>" -> ["accounts", "<id>"].
func (h *History) Segments() []string {
	return strings.FieldsFunc(h.Path(), func(r rune) bool { return r == '/' })
}

// Build joins path segments and query parameters into a location.
func Build(query map[string]string, segments ...string) string {
	p := "/" + strings.Join(segments, "/")
	if len(query) == 0 {
		return p
	}
	q := url.Values{}
	for k, v := range query {
		q.Set(k, v)
	}
	return p + "?" + q.Encode()
}
