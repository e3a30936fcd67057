package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/carnet"
	carnethttp "github.com/fwojciec/carnet/http"
	"github.com/fwojciec/carnet/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardURL = "https://academico.ucb.edu.bo/carnet?id=abc"

func newTestServer(t *testing.T, resolver carnet.Resolver, opts ...carnethttp.ServerOption) *httptest.Server {
	t.Helper()
	allowlist, err := carnethttp.NewAllowlist(carnethttp.DefaultAllowedHosts)
	require.NoError(t, err)

	opts = append([]carnethttp.ServerOption{
		carnethttp.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	srv := httptest.NewServer(carnethttp.NewServer(resolver, allowlist, opts...))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, target string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func fetchURL(srv *httptest.Server, target string) string {
	return srv.URL + "/fetch?url=" + url.QueryEscape(target)
}

func cardResolver(calls *atomic.Int64) *mock.Resolver {
	return &mock.Resolver{
		ResolveFn: func(_ context.Context, payload carnet.Payload) (*carnet.Resolution, error) {
			if calls != nil {
				calls.Add(1)
			}
			u, _ := payload.URL()
			return &carnet.Resolution{
				Text: string(payload),
				URL:  u,
				Record: carnet.Record{
					Name:     "JUAN PEREZ GOMEZ",
					Document: "1234567",
					Phone:    "70012345",
				},
				Diagnostics: carnet.Diagnostics{
					HTML:        "<html><body>" + strings.Repeat("x", 5000) + "</body></html>",
					BodyText:    strings.Repeat("x", 5000),
					TriedRender: true,
					RenderError: "headless renderer not configured",
				},
			}, nil
		},
	}
}

func TestServer_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("missing url param", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &mock.Resolver{})

		status, body := getJSON(t, srv.URL+"/fetch")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, map[string]any{"error": "missing url param"}, body)
	})

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &mock.Resolver{})

		status, body := getJSON(t, fetchURL(srv, "not a url"))

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, map[string]any{"error": "invalid url"}, body)
	})

	t.Run("host not allowed", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &mock.Resolver{})

		status, body := getJSON(t, fetchURL(srv, "https://evil.example/x"))

		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, map[string]any{"error": "host not allowed", "host": "evil.example"}, body)
	})

	t.Run("returns record with meta", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, cardResolver(nil))

		status, body := getJSON(t, fetchURL(srv, cardURL))

		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "JUAN PEREZ GOMEZ", body["name"])
		assert.Equal(t, "1234567", body["document"])
		assert.Equal(t, "70012345", body["phone"])
		assert.Equal(t, "", body["career"])
		assert.Equal(t, map[string]any{"fetchedFrom": cardURL, "status": float64(200)}, body["_meta"])
		assert.NotContains(t, body, "_debug")
	})

	t.Run("debug includes truncated snippets", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, cardResolver(nil))

		status, body := getJSON(t, fetchURL(srv, cardURL)+"&debug=1")

		require.Equal(t, http.StatusOK, status)
		debug, ok := body["_debug"].(map[string]any)
		require.True(t, ok)
		assert.Len(t, debug["htmlSnippet"], 4000)
		assert.Len(t, debug["bodyTextSnippet"], 4000)
		assert.Equal(t, float64(5000), debug["bodyTextLength"])
		assert.Equal(t, true, debug["triedRender"])
		assert.Equal(t, "headless renderer not configured", debug["renderError"])
	})

	t.Run("upstream failure returns 500 with note", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &mock.Resolver{
			ResolveFn: func(_ context.Context, _ carnet.Payload) (*carnet.Resolution, error) {
				return nil, errors.New("dial tcp: lookup academico.ucb.edu.bo: no such host")
			},
		})

		status, body := getJSON(t, fetchURL(srv, cardURL))

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Contains(t, body["error"], "no such host")
		assert.Equal(t, "proxy fetch failed. Check network/DNS or TLS.", body["note"])
	})

	t.Run("application error maps to status", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &mock.Resolver{
			ResolveFn: func(_ context.Context, _ carnet.Payload) (*carnet.Resolution, error) {
				return nil, carnet.Errorf(carnet.ENOTFOUND, "page not found: %s", cardURL)
			},
		})

		status, body := getJSON(t, fetchURL(srv, cardURL))

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "page not found: "+cardURL, body["error"])
		assert.NotContains(t, body, "note")
	})

	t.Run("collapses concurrent requests for the same url", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		release := make(chan struct{})
		srv := newTestServer(t, &mock.Resolver{
			ResolveFn: func(ctx context.Context, payload carnet.Payload) (*carnet.Resolution, error) {
				calls.Add(1)
				<-release
				u, _ := payload.URL()
				return &carnet.Resolution{URL: u, Record: carnet.Record{Name: "JUAN PEREZ"}}, nil
			},
		})

		const clients = 5
		var wg sync.WaitGroup
		statuses := make([]int, clients)
		for i := 0; i < clients; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				resp, err := http.Get(fetchURL(srv, cardURL))
				if err != nil {
					return
				}
				resp.Body.Close()
				statuses[i] = resp.StatusCode
			}(i)
		}

		// Give every client time to join the in-flight resolution.
		time.Sleep(100 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int64(1), calls.Load())
		for _, s := range statuses {
			assert.Equal(t, http.StatusOK, s)
		}
	})

	t.Run("allows cross-origin requests", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, cardResolver(nil))

		req, err := http.NewRequest(http.MethodGet, fetchURL(srv, cardURL), nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:5173")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	srv := newTestServer(t, &mock.Resolver{}, carnethttp.WithClock(func() time.Time { return now }))

	status, body := getJSON(t, srv.URL+"/health")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{
		"ok":           true,
		"time":         "2025-03-14T09:26:53.589Z",
		"allowedHosts": []any{"academico.ucb.edu.bo"},
	}, body)
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	t.Run("served when configured", func(t *testing.T) {
		t.Parallel()

		metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("carnet_resolutions_total 1\n"))
		})
		srv := newTestServer(t, &mock.Resolver{}, carnethttp.WithMetricsHandler(metrics))

		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(b), "carnet_resolutions_total")
	})

	t.Run("absent by default", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &mock.Resolver{})

		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestServer_Middleware(t *testing.T) {
	t.Parallel()

	var seen atomic.Int64
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen.Add(1)
			next.ServeHTTP(w, r)
		})
	}
	srv := newTestServer(t, &mock.Resolver{}, carnethttp.WithMiddleware(mw))

	status, _ := getJSON(t, srv.URL+"/health")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), seen.Load())
}

func TestErrorStatusCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, carnethttp.ErrorStatusCode(carnet.EINVALID))
	assert.Equal(t, http.StatusForbidden, carnethttp.ErrorStatusCode(carnet.EFORBIDDEN))
	assert.Equal(t, http.StatusNotFound, carnethttp.ErrorStatusCode(carnet.ENOTFOUND))
	assert.Equal(t, http.StatusInternalServerError, carnethttp.ErrorStatusCode(carnet.EINTERNAL))
	assert.Equal(t, http.StatusInternalServerError, carnethttp.ErrorStatusCode("unknown"))
}
