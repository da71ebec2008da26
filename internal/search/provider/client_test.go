package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/logs/api", opts...)
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
	_, err = NewClient("ftp://example.com")
	require.Error(t, err)
	_, err = NewClient("https://provider.example/api")
	require.NoError(t, err)
}

func TestClientFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("sends the provider term", func(t *testing.T) {
		var gotPath, gotTerm string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotTerm = r.URL.Query().Get("url")
			_, _ = w.Write([]byte(`[]`))
		})

		_, err := c.Fetch(ctx, "*.gov.br")
		require.NoError(t, err)
		assert.Equal(t, "/logs/api", gotPath)
		assert.Equal(t, "gov.br", gotTerm)
	})

	t.Run("json array body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`["b@netflix.com:pw2", " ", "c@netflix.com:pw3"]`))
		})

		lines, err := c.Fetch(ctx, "netflix.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"b@netflix.com:pw2", "c@netflix.com:pw3"}, lines)
	})

	t.Run("event stream body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = w.Write([]byte(": keepalive\nevent: result\ndata: a@x.com:1\n\ndata: [\"b@x.com:2\",\"c@x.com:3\"]\n\ndata: [DONE]\n"))
		})

		lines, err := c.Fetch(ctx, "x.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"a@x.com:1", "b@x.com:2", "c@x.com:3"}, lines)
	})

	t.Run("plain text body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("a@x.com:1\r\nb@x.com:2\n"))
		})

		lines, err := c.Fetch(ctx, "x.com")
		require.NoError(t, err)
		assert.Equal(t, []string{"a@x.com:1", "b@x.com:2"}, lines)
	})

	t.Run("empty body is an empty success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {})

		lines, err := c.Fetch(ctx, "x.com")
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("malformed json is bad data", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`["unterminated`))
		})

		_, err := c.Fetch(ctx, "x.com")
		assert.Equal(t, ErrorBadData, GetCategory(err))
		assert.False(t, IsRetryable(err))
	})
}

func TestClientStatusCategories(t *testing.T) {
	tests := []struct {
		status    int
		category  ErrorCategory
		retryable bool
	}{
		{http.StatusTooManyRequests, ErrorRateLimited, true},
		{http.StatusInternalServerError, ErrorProviderOutage, true},
		{http.StatusBadGateway, ErrorProviderOutage, true},
		{http.StatusGatewayTimeout, ErrorTimeout, true},
		{http.StatusUnauthorized, ErrorAuthentication, false},
		{http.StatusForbidden, ErrorAuthentication, false},
		{http.StatusNotFound, ErrorNotFound, false},
		{http.StatusTeapot, ErrorBadData, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := c.Fetch(context.Background(), "x.com")
			var pe *ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.category, pe.Category)
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(20*time.Millisecond))
	defer close(release)

	_, err := c.Fetch(context.Background(), "x.com")
	assert.Equal(t, ErrorTimeout, GetCategory(err))
}

func TestClientCancelled(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Fetch(ctx, "x.com")
	assert.True(t, errors.Is(err, context.Canceled))
}
