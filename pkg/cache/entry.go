package cache

import (
	"net/http"
	"time"
)

// Entry represents a stored response snapshot.
type Entry struct {
	// URL is the absolute URL the response was fetched from
	URL string `json:"url"`

	// Data is the response body
	Data []byte `json:"data"`

	// StatusCode is the HTTP status code of the stored response
	StatusCode int `json:"status_code"`

	// Headers are the response headers
	Headers http.Header `json:"headers"`

	// CachedAt is when the response was stored
	CachedAt time.Time `json:"cached_at"`
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age() time.Duration {
	if e.CachedAt.IsZero() {
		return 0
	}
	return time.Since(e.CachedAt)
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	c.Data = append([]byte(nil), e.Data...)
	c.Headers = e.Headers.Clone()
	return &c
}
