package network

import (
	"fmt"
	"net/http"
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport errors (DNS, connect, reset, timeout).
	ErrorClassNetwork ErrorClass = "network"
)

// FetchError reports a fetch that did not yield a usable response.
type FetchError struct {
	URL        string
	StatusCode int
	ErrorClass ErrorClass
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s error: %v", e.URL, e.ErrorClass, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s error (status %d)", e.URL, e.ErrorClass, e.StatusCode)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Classify categorizes a fetch outcome. It returns "" for a 1xx-3xx response.
func Classify(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}
	if resp == nil {
		return ""
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// IsOK reports whether resp has a 2xx status.
func IsOK(resp *http.Response) bool {
	return resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300
}

// CheckResponse turns a failed fetch or a non-2xx response into a *FetchError.
// It returns nil for a 2xx response.
func CheckResponse(rawURL string, resp *http.Response, err error) error {
	if err != nil {
		return &FetchError{URL: rawURL, ErrorClass: ErrorClassNetwork, Err: err}
	}
	if IsOK(resp) {
		return nil
	}

	fe := &FetchError{URL: rawURL, ErrorClass: Classify(resp, nil)}
	if resp != nil {
		fe.StatusCode = resp.StatusCode
	}
	if fe.ErrorClass == "" {
		// 1xx/3xx reaching us unresolved is still not a usable response
		fe.ErrorClass = ErrorClassClient
	}
	return fe
}
