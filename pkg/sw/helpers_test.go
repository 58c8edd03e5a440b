package sw

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/Sternrassler/northwest-bus-cache/internal/testutil"
	"github.com/Sternrassler/northwest-bus-cache/pkg/cache"
	"github.com/Sternrassler/northwest-bus-cache/pkg/manifest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://northwestbus.test"

func testOriginURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse(testOrigin)
	require.NoError(t, err)
	return u
}

func newTestController(t *testing.T, name string, m manifest.Manifest, storage cache.Storage, net *testutil.StubNetwork) *Controller {
	t.Helper()

	logger := zerolog.Nop()
	cfg := DefaultConfig(name, testOriginURL(t), storage, net)
	cfg.Manifest = m
	cfg.Logger = &logger

	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func newRequest(t *testing.T, method, rawURL string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, rawURL, nil)
	require.NoError(t, err)
	return req
}

// entryURL resolves a manifest entry against the test origin.
func entryURL(t *testing.T, entry string) *url.URL {
	t.Helper()
	u, err := manifest.Resolve(testOriginURL(t), entry)
	require.NoError(t, err)
	return u
}

// faultyStorage injects errors into a real storage.
type faultyStorage struct {
	cache.Storage

	keysErr   error
	deleteErr error
	matchErr  error
}

func (f *faultyStorage) Keys(ctx context.Context) ([]string, error) {
	if f.keysErr != nil {
		return nil, f.keysErr
	}
	return f.Storage.Keys(ctx)
}

func (f *faultyStorage) Delete(ctx context.Context, name string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	return f.Storage.Delete(ctx, name)
}

func (f *faultyStorage) Match(ctx context.Context, key cache.RequestKey) (*cache.Entry, error) {
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	return f.Storage.Match(ctx, key)
}
