package cache

import (
	"net/http"
	"net/url"
	"strings"
)

// RequestKey identifies a stored response by request method and URL.
type RequestKey struct {
	// Method is the upper-cased HTTP method (GET when empty)
	Method string

	// URL is the normalized absolute URL (see NormalizeURL)
	URL string
}

// NewRequestKey builds a key for method and u.
func NewRequestKey(method string, u *url.URL) RequestKey {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	return RequestKey{
		Method: method,
		URL:    NormalizeURL(u),
	}
}

// KeyForRequest builds the key for an outbound request.
// The request URL is expected to be absolute.
func KeyForRequest(req *http.Request) RequestKey {
	if req == nil || req.URL == nil {
		return RequestKey{Method: http.MethodGet}
	}
	return NewRequestKey(req.Method, req.URL)
}

// NormalizeURL renders u in the form used for request identity.
// Scheme and host are lower-cased, the path is percent-decoded and the
// fragment is dropped, so "/a%20(1).png" and "/a (1).png" are the same
// resource. The raw query is kept as-is.
//
// Example:
//
//	https://example.com/images/Map (1).png?v=2
func NormalizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	var b strings.Builder
	if u.Scheme != "" {
		b.WriteString(strings.ToLower(u.Scheme))
		b.WriteString("://")
	}
	b.WriteString(strings.ToLower(u.Host))

	path := u.Path
	if path == "" && u.Host != "" {
		path = "/"
	}
	b.WriteString(path)

	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	return b.String()
}

// String generates a deterministic key string.
// Format: METHOD url
//
// Example:
//
//	GET https://example.com/style.css
func (k RequestKey) String() string {
	return k.Method + " " + k.URL
}
