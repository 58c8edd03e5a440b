package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Sternrassler/northwest-bus-cache/pkg/logging"
	"github.com/Sternrassler/northwest-bus-cache/pkg/metrics"
	"github.com/Sternrassler/northwest-bus-cache/pkg/sw"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// maxMessageBytes bounds the body of a control message.
const maxMessageBytes = 64 << 10

// readinessCheck reports whether the cache backend is reachable.
type readinessCheck func(ctx context.Context) error

func alwaysReady(context.Context) error { return nil }

// newRouter wires the control endpoints and the catch-all site handler.
func newRouter(origin *url.URL, reg *sw.Registration, ready readinessCheck) http.Handler {
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)

	router.Get("/health", healthHandler)
	router.Get("/ready", readyHandler(ready))
	router.Handle("/metrics", metrics.Handler())

	router.Route("/sw", func(r chi.Router) {
		r.Post("/message", messageHandler(reg))
		r.Get("/status", statusHandler(reg))
	})

	router.HandleFunc("/*", siteHandler(origin, reg))
	return router
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func readyHandler(ready readinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := ready(ctx); err != nil {
			http.Error(w, fmt.Sprintf("cache storage unavailable: %v", err), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

func messageHandler(reg *sw.Registration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBytes))
		if err != nil {
			http.Error(w, fmt.Sprintf("read message: %v", err), http.StatusBadRequest)
			return
		}
		msg, err := sw.ParseMessage(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		handled, err := reg.PostMessage(r.Context(), msg)
		switch {
		case errors.Is(err, sw.ErrNoController):
			http.Error(w, err.Error(), http.StatusConflict)
			return
		case err != nil:
			// The message was applied; only activation cleanup failed.
			logger := logging.NewLogger("proxy")
			logger.Error().Err(err).Str("type", msg.Type).Msg("Message handling failed")
		}

		writeJSON(w, http.StatusOK, map[string]bool{"handled": handled})
	}
}

func statusHandler(reg *sw.Registration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, reg.Status())
	}
}

// siteHandler serves site traffic through the registration. Each request
// holds the active controller as a client for its duration.
func siteHandler(origin *url.URL, reg *sw.Registration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logging.NewLogger("proxy")

		client := reg.Acquire()
		defer func() {
			if err := client.Release(context.WithoutCancel(r.Context())); err != nil {
				logger.Error().Err(err).Msg("Activation after client release failed")
			}
		}()

		target := origin.ResolveReference(&url.URL{
			Path:     r.URL.Path,
			RawPath:  r.URL.RawPath,
			RawQuery: r.URL.RawQuery,
		})
		outReq, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		outReq.Header = r.Header.Clone()

		resp, err := reg.Fetch(outReq)
		if err != nil {
			logger.Warn().Err(err).Str("method", r.Method).Str("url", target.String()).Msg("Fetch failed")
			http.Error(w, fmt.Sprintf("fetch failed: %v", err), http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		for key, values := range resp.Header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		w.WriteHeader(resp.StatusCode)

		if _, err := io.Copy(w, resp.Body); err != nil {
			logger.Debug().Err(err).Str("url", target.String()).Msg("Failed to write response")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := logging.NewLogger("proxy")
		logger.Debug().Err(err).Msg("Failed to write JSON response")
	}
}
