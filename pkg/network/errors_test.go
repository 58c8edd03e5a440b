package network

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
		err  error
		want ErrorClass
	}{
		{"transport error", nil, errors.New("connection refused"), ErrorClassNetwork},
		{"200", &http.Response{StatusCode: 200}, nil, ""},
		{"304", &http.Response{StatusCode: 304}, nil, ""},
		{"404", &http.Response{StatusCode: 404}, nil, ErrorClassClient},
		{"500", &http.Response{StatusCode: 500}, nil, ErrorClassServer},
		{"503", &http.Response{StatusCode: 503}, nil, ErrorClassServer},
		{"nil response", nil, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.resp, tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckResponse(t *testing.T) {
	transportErr := errors.New("dial tcp: connection refused")

	tests := []struct {
		name       string
		resp       *http.Response
		err        error
		wantNil    bool
		wantClass  ErrorClass
		wantStatus int
	}{
		{
			name:    "ok",
			resp:    &http.Response{StatusCode: 200},
			wantNil: true,
		},
		{
			name:    "no content is ok",
			resp:    &http.Response{StatusCode: 204},
			wantNil: true,
		},
		{
			name:       "not found",
			resp:       &http.Response{StatusCode: 404},
			wantClass:  ErrorClassClient,
			wantStatus: 404,
		},
		{
			name:       "server error",
			resp:       &http.Response{StatusCode: 502},
			wantClass:  ErrorClassServer,
			wantStatus: 502,
		},
		{
			name:      "transport error",
			err:       transportErr,
			wantClass: ErrorClassNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckResponse("/style.css", tt.resp, tt.err)
			if tt.wantNil {
				if err != nil {
					t.Errorf("CheckResponse() = %v, want nil", err)
				}
				return
			}

			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("CheckResponse() = %v, want *FetchError", err)
			}
			if fe.ErrorClass != tt.wantClass {
				t.Errorf("ErrorClass = %q, want %q", fe.ErrorClass, tt.wantClass)
			}
			if fe.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", fe.StatusCode, tt.wantStatus)
			}
			if fe.URL != "/style.css" {
				t.Errorf("URL = %q", fe.URL)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Error("FetchError does not unwrap to the transport error")
			}
		})
	}
}

func TestFetchError_Error(t *testing.T) {
	withStatus := &FetchError{URL: "/a", StatusCode: 404, ErrorClass: ErrorClassClient}
	if got := withStatus.Error(); !strings.Contains(got, "status 404") {
		t.Errorf("Error() = %q, want status in message", got)
	}

	wrapped := &FetchError{URL: "/a", ErrorClass: ErrorClassNetwork, Err: errors.New("reset")}
	if got := wrapped.Error(); !strings.Contains(got, "reset") {
		t.Errorf("Error() = %q, want wrapped error in message", got)
	}
}
