package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/Sternrassler/northwest-bus-cache/pkg/cache"
)

// StubResponse is a canned result for StubNetwork.
type StubResponse struct {
	StatusCode int
	Body       string
	Err        error
}

// StubNetwork is an in-process network.Fetcher. URLs are matched in their
// normalized form (see cache.NormalizeURL); unknown URLs answer 200 with a
// body naming the URL unless Strict is set, in which case they answer 404.
type StubNetwork struct {
	mu        sync.Mutex
	responses map[string]StubResponse
	calls     map[string]int

	Strict bool
}

// NewStubNetwork creates an empty stub.
func NewStubNetwork() *StubNetwork {
	return &StubNetwork{
		responses: make(map[string]StubResponse),
		calls:     make(map[string]int),
	}
}

// Set configures the result for rawURL.
func (s *StubNetwork) Set(rawURL string, resp StubResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[normalize(rawURL)] = resp
}

// Calls returns how many times rawURL was fetched.
func (s *StubNetwork) Calls(rawURL string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[normalize(rawURL)]
}

// TotalCalls returns the number of fetches made.
func (s *StubNetwork) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int
	for _, n := range s.calls {
		total += n
	}
	return total
}

// Fetch implements network.Fetcher.
func (s *StubNetwork) Fetch(req *http.Request) (*http.Response, error) {
	key := cache.NormalizeURL(req.URL)

	s.mu.Lock()
	s.calls[key]++
	resp, ok := s.responses[key]
	s.mu.Unlock()

	if !ok {
		if s.Strict {
			resp = StubResponse{StatusCode: http.StatusNotFound, Body: "not found"}
		} else {
			resp = StubResponse{StatusCode: http.StatusOK, Body: "asset " + key}
		}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}

	return &http.Response{
		Status:     http.StatusText(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Header:     http.Header{"Content-Type": []string{"text/plain"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(resp.Body))),
		Request:    req,
	}, nil
}

func normalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return cache.NormalizeURL(u)
}
