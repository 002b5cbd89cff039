package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynamicqr/dynamicqr/internal/service"
	"github.com/dynamicqr/dynamicqr/internal/store"
)

// stubRedirectStore drives the real Resolver in handler tests.
type stubRedirectStore struct {
	target string
	err    error
	panics bool
	calls  atomic.Int64

	lastSlug  string
	lastVisit store.RedirectVisit
}

func (s *stubRedirectStore) HandleRedirect(ctx context.Context, slug string, visit store.RedirectVisit) (string, bool, error) {
	s.calls.Add(1)
	s.lastSlug = slug
	s.lastVisit = visit
	if s.panics {
		panic("store blew up")
	}
	if s.err != nil {
		return "", false, s.err
	}
	if s.target == "" {
		return "", false, nil
	}
	return s.target, true, nil
}

func newRedirectServer(t *testing.T, st *stubRedirectStore) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := service.NewResolver(st, 500*time.Millisecond, logger, nil)
	h := NewRedirectHandler(resolver, logger, nil)

	r := chi.NewRouter()
	r.Get("/r/{slug}", h.Redirect)
	// Bare /r/ must behave like any other unresolvable scan.
	r.Get("/r/", h.Redirect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// get performs a request without following redirects.
func get(t *testing.T, srv *httptest.Server, path string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRedirectMatch(t *testing.T) {
	st := &stubRedirectStore{target: "https://example.com/menu"}
	srv := newRedirectServer(t, st)

	resp := get(t, srv, "/r/abc1234", nil)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/menu", resp.Header.Get("Location"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Equal(t, int64(1), st.calls.Load())
}

func TestRedirectNoMatchRendersFallback(t *testing.T) {
	st := &stubRedirectStore{}
	srv := newRedirectServer(t, st)

	resp := get(t, srv, "/r/missing", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Link Not Found")
	assert.Contains(t, string(body), "/r/missing")
	assert.Equal(t, int64(1), st.calls.Load(), "a clean miss still records the scan")
}

func TestRedirectStoreErrorStillAnswers200(t *testing.T) {
	st := &stubRedirectStore{err: errors.New("connection refused")}
	srv := newRedirectServer(t, st)

	resp := get(t, srv, "/r/abc1234", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Link Not Found")
}

func TestRedirectPanicStillAnswers200(t *testing.T) {
	st := &stubRedirectStore{panics: true}
	srv := newRedirectServer(t, st)

	resp := get(t, srv, "/r/abc1234", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Link Not Found")
}

func TestRedirectEmptySlugSkipsStore(t *testing.T) {
	st := &stubRedirectStore{target: "https://example.com"}
	srv := newRedirectServer(t, st)

	resp := get(t, srv, "/r/", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), st.calls.Load(), "empty slug must not reach the store")
}

func TestRedirectDecodesEncodedSlug(t *testing.T) {
	st := &stubRedirectStore{target: "https://example.com/menu"}
	srv := newRedirectServer(t, st)

	resp := get(t, srv, "/r/hello%20world", nil)

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, int64(1), st.calls.Load())
	assert.Equal(t, "hello world", st.lastSlug, "lookup must use the decoded path segment")
}

func TestRedirectSlugRenderedInert(t *testing.T) {
	st := &stubRedirectStore{}
	srv := newRedirectServer(t, st)

	hostile := `<script>alert(1)</script>`
	resp := get(t, srv, "/r/"+url.PathEscape(hostile), nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "<script>alert", "slug must never reach the page as markup")
	assert.Contains(t, string(body), "&lt;script&gt;")
}

func TestRedirectForwardsVisitorMetadata(t *testing.T) {
	st := &stubRedirectStore{target: "https://example.com"}
	srv := newRedirectServer(t, st)

	get(t, srv, "/r/abc1234", map[string]string{
		"CF-Connecting-IP": "203.0.113.7",
		"User-Agent":       "test-agent/1.0",
		"Referer":          "https://news.example.org/story",
		"CF-IPCountry":     "DE",
	})

	require.Equal(t, int64(1), st.calls.Load())
	assert.Equal(t, "203.0.113.7", st.lastVisit.IP)
	assert.Equal(t, "test-agent/1.0", st.lastVisit.UserAgent)
	assert.Equal(t, "https://news.example.org/story", st.lastVisit.Referrer)
	assert.Equal(t, "DE", st.lastVisit.Country)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "cloudflare header wins",
			headers: map[string]string{"CF-Connecting-IP": "1.1.1.1", "X-Forwarded-For": "2.2.2.2"},
			want:    "1.1.1.1",
		},
		{
			name:    "first forwarded ip",
			headers: map[string]string{"X-Forwarded-For": "3.3.3.3, 4.4.4.4"},
			want:    "3.3.3.3",
		},
		{
			name:    "real ip",
			headers: map[string]string{"X-Real-IP": "5.5.5.5"},
			want:    "5.5.5.5",
		},
		{
			name:   "remote addr fallback",
			remote: "6.6.6.6:1234",
			want:   "6.6.6.6:1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/r/abc", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if tt.remote != "" {
				req.RemoteAddr = tt.remote
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
