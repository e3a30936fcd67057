package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/carnet"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Server defaults.
const (
	DefaultResolveTimeout  = 60 * time.Second
	DefaultShutdownTimeout = 5 * time.Second

	// snippetLength is the number of characters of HTML and text included
	// in debug output.
	snippetLength = 4000

	fetchFailedNote = "proxy fetch failed. Check network/DNS or TLS."
)

// Server exposes the resolver to browser clients.
//
//	GET /fetch?url=...[&debug=1]  resolve a card URL on the allowlist
//	GET /health                   liveness and configured hosts
//	GET /metrics                  Prometheus metrics, when configured
type Server struct {
	resolver  carnet.Resolver
	allowlist *Allowlist
	logger    *slog.Logger
	metrics   http.Handler
	extra     []func(http.Handler) http.Handler
	timeout   time.Duration
	now       func() time.Time

	group  singleflight.Group
	router chi.Router
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMiddleware appends middleware run for every request.
func WithMiddleware(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(s *Server) {
		s.extra = append(s.extra, mw...)
	}
}

// WithResolveTimeout bounds a single resolution.
func WithResolveTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithClock sets the time source reported by /health.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a Server resolving hosts on allowlist with resolver.
func NewServer(resolver carnet.Resolver, allowlist *Allowlist, opts ...ServerOption) *Server {
	s := &Server{
		resolver:  resolver,
		allowlist: allowlist,
		logger:    slog.Default(),
		timeout:   DefaultResolveTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxAge:         300,
	}))
	r.Use(s.extra...)

	r.Get("/fetch", s.handleFetch)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	s.logger.Info("listening", "addr", addr, "allowedHosts", s.allowlist.Hosts())
	return g.Wait()
}

type errorResponse struct {
	Error string `json:"error"`
	Host  string `json:"host,omitempty"`
	Note  string `json:"note,omitempty"`
}

type fetchResponse struct {
	carnet.Record
	Meta  fetchMeta   `json:"_meta"`
	Debug *fetchDebug `json:"_debug,omitempty"`
}

type fetchMeta struct {
	FetchedFrom string `json:"fetchedFrom"`
	Status      int    `json:"status"`
}

type fetchDebug struct {
	HTMLSnippet             string `json:"htmlSnippet"`
	BodyTextSnippet         string `json:"bodyTextSnippet"`
	BodyTextLength          int    `json:"bodyTextLength"`
	TriedRender             bool   `json:"triedRender"`
	RenderError             string `json:"renderError,omitempty"`
	RenderedHTMLSnippet     string `json:"renderedHtmlSnippet,omitempty"`
	RenderedBodyTextSnippet string `json:"renderedBodyTextSnippet,omitempty"`
	RenderedBodyTextLength  int    `json:"renderedBodyTextLength"`
	RenderedMerged          bool   `json:"renderedMerged"`
}

type healthResponse struct {
	OK           bool     `json:"ok"`
	Time         string   `json:"time"`
	AllowedHosts []string `json:"allowedHosts"`
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing url param"})
		return
	}

	target, ok := carnet.Payload(raw).URL()
	if !ok {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid url"})
		return
	}
	u, err := url.Parse(target)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid url"})
		return
	}
	if host := u.Hostname(); !s.allowlist.Allowed(host) {
		s.writeJSON(w, http.StatusForbidden, errorResponse{Error: "host not allowed", Host: host})
		return
	}

	res, err := s.resolve(r.Context(), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := fetchResponse{
		Record: res.Record,
		Meta:   fetchMeta{FetchedFrom: res.URL, Status: http.StatusOK},
	}
	if r.URL.Query().Get("debug") == "1" {
		resp.Debug = newFetchDebug(res.Diagnostics)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		OK:           true,
		Time:         s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		AllowedHosts: s.allowlist.Hosts(),
	})
}

// resolve collapses concurrent requests for the same URL into one
// resolution. The shared resolution runs detached from any single request
// so one client disconnecting does not fail the others.
func (s *Server) resolve(ctx context.Context, target string) (*carnet.Resolution, error) {
	ch := s.group.DoChan(target, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.resolver.Resolve(ctx, carnet.Payload(target))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*carnet.Resolution), nil
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := carnet.ErrorCode(err)
	s.logger.Error("resolve failed",
		"url", r.URL.Query().Get("url"),
		"code", code,
		"err", err,
	)

	if code == carnet.EINTERNAL {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Note: fetchFailedNote})
		return
	}
	s.writeJSON(w, ErrorStatusCode(code), errorResponse{Error: carnet.ErrorMessage(err)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", "err", err)
	}
}

// logRequests logs one line per request after it completes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func(begin time.Time) {
			s.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(begin),
				"requestID", middleware.GetReqID(r.Context()),
			)
		}(time.Now())
		next.ServeHTTP(ww, r)
	})
}

func newFetchDebug(d carnet.Diagnostics) *fetchDebug {
	return &fetchDebug{
		HTMLSnippet:             snippet(d.HTML),
		BodyTextSnippet:         snippet(d.BodyText),
		BodyTextLength:          utf8.RuneCountInString(d.BodyText),
		TriedRender:             d.TriedRender,
		RenderError:             d.RenderError,
		RenderedHTMLSnippet:     snippet(d.RenderedHTML),
		RenderedBodyTextSnippet: snippet(d.RenderedText),
		RenderedBodyTextLength:  utf8.RuneCountInString(d.RenderedText),
		RenderedMerged:          d.RenderedMerged,
	}
}

// snippet returns the first snippetLength characters of s.
func snippet(s string) string {
	if utf8.RuneCountInString(s) <= snippetLength {
		return s
	}
	return string([]rune(s)[:snippetLength])
}
