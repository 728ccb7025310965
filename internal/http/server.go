package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"betledger/internal/auth"
	"betledger/internal/cache"
	"betledger/internal/core"
	applog "betledger/internal/log"
	"betledger/internal/services"
	appweb "betledger/web"
)

// localOwner is the implicit account used when no user store is wired
// (file and memory backends are single user).
const localOwner = "local"

type Server struct {
	http.Server
	templates   *template.Template
	service     *services.LedgerService
	auth        *auth.Service
	sessions    *sessionStore
	rateLimiter *rateLimiter
	metrics     securityMetrics
	structured  *applog.StructuredLogger

	// Cached per-owner reads; invalidated wholesale on any write.
	bucketCache  *cache.LRUCache[[]core.ProfitBucket]
	recordsCache *cache.LRUCache[[]core.BetRecord]

	// Cache cleanup management
	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
// authSvc may be nil, in which case the login gate is disabled and all records
// belong to a single local account.
func NewServer(addr string, svc *services.LedgerService, authSvc *auth.Service, sessionTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		service:          svc,
		auth:             authSvc,
		sessions:         newSessionStore(sessionTTL),
		rateLimiter:      newRateLimiter(),
		structured:       applog.NewStructuredLogger(applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)),
		bucketCache:      cache.NewLRUCache[[]core.ProfitBucket](100, 5*time.Minute),
		recordsCache:     cache.NewLRUCache[[]core.BetRecord](200, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	// Start periodic cache cleanup
	go s.startCacheCleanup()

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Tiny cache for static assets
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.requireUser(s.handleIndex)))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/bets", s.withSecurityHeaders(s.requireUser(s.handleCreateBet)))
	mux.HandleFunc("/bets/delete", s.withSecurityHeaders(s.requireUser(s.handleDeleteBet)))
	mux.HandleFunc("/import", s.withSecurityHeaders(s.requireUser(s.handleImport)))
	mux.HandleFunc("/export", s.withSecurityHeaders(s.requireUser(s.handleExport)))

	// UI partials
	mux.HandleFunc("/ui/dashboard", s.withSecurityHeaders(s.requireUser(s.handleDashboard)))
	mux.HandleFunc("/ui/month", s.withSecurityHeaders(s.requireUser(s.handleMonth)))

	// Account endpoints are open; they no-op to the local account when the
	// login gate is disabled.
	mux.HandleFunc("/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("/logout", s.withSecurityHeaders(s.handleLogout))

	return s
}

// GateEnabled reports whether the login gate is active.
func (s *Server) GateEnabled() bool {
	return s.auth != nil
}

// currentUser resolves the request's account. With the gate disabled every
// request maps to the local account.
func (s *Server) currentUser(r *http.Request) (string, bool) {
	if s.auth == nil {
		return localOwner, true
	}
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", false
	}
	user, ok := s.sessions.lookup(cookie.Value)
	return string(user), ok
}

type ownerHandler func(w http.ResponseWriter, r *http.Request, owner string)

// requireUser resolves the session before running the handler. Browser
// requests bounce to the login page; HTMX partials get a bare 401 so the
// client can surface it in place.
func (s *Server) requireUser(next ownerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := s.currentUser(r)
		if !ok {
			if r.Header.Get("HX-Request") != "" {
				UnauthorizedError("Session expired, please log in again").Write(w)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, owner)
	}
}

// startCacheCleanup runs periodic cleanup for both caches and the session store
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bucketsCleaned := s.bucketCache.CleanExpired()
			recordsCleaned := s.recordsCache.CleanExpired()
			sessionsCleaned := s.sessions.cleanExpired()
			if bucketsCleaned > 0 || recordsCleaned > 0 || sessionsCleaned > 0 {
				slog.Debug("Cache cleanup completed",
					"bucket_entries_removed", bucketsCleaned,
					"record_entries_removed", recordsCleaned,
					"sessions_removed", sessionsCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}

		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)

		if detectSuspiciousRequest(r, &s.metrics) {
			slog.WarnContext(r.Context(), "Suspicious request",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
		}

		// Generate request ID for tracing
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.structured.LogHTTPStart(ctx, r, clientIP)

		// Apply rate limiting to mutating requests
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Create a custom response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.service.Ready(ctx); err != nil {
		slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, owner string) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	data := struct {
		User        string
		GateEnabled bool
		Today       string
	}{
		User:        owner,
		GateEnabled: s.GateEnabled(),
		Today:       now.Format("2006-01-02"),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) bucketCacheKey(owner string, g core.Granularity) string {
	return owner + "|" + string(g)
}

// invalidateOwner drops every cached read for the owner. Writes are rare
// relative to dashboard reads, so wholesale invalidation keeps this simple.
func (s *Server) invalidateOwner(owner string) {
	for _, g := range []core.Granularity{core.Daily, core.Monthly, core.Yearly} {
		s.bucketCache.Delete(s.bucketCacheKey(owner, g))
	}
	s.recordsCache.Delete(owner)
}

// getRecords returns the owner's records, reading through the cache.
func (s *Server) getRecords(ctx context.Context, owner string) ([]core.BetRecord, error) {
	if items, found := s.recordsCache.Get(owner); found {
		slog.DebugContext(ctx, "Records cache hit", "owner", owner, "count", len(items))
		result := make([]core.BetRecord, len(items))
		copy(result, items)
		return result, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	items, err := s.service.Records(cctx, owner)
	if err != nil {
		return nil, err
	}

	s.recordsCache.Set(owner, items)
	slog.DebugContext(ctx, "Records cached", "owner", owner, "count", len(items))
	return items, nil
}

// getBuckets returns the owner's profit buckets for the granularity,
// reading through the cache.
func (s *Server) getBuckets(ctx context.Context, owner string, g core.Granularity) ([]core.ProfitBucket, error) {
	key := s.bucketCacheKey(owner, g)
	if buckets, found := s.bucketCache.Get(key); found {
		slog.DebugContext(ctx, "Bucket cache hit", "owner", owner, "granularity", string(g))
		return buckets, nil
	}

	records, err := s.getRecords(ctx, owner)
	if err != nil {
		return nil, err
	}

	buckets := core.BucketProfit(records, g)
	s.bucketCache.Set(key, buckets)
	slog.DebugContext(ctx, "Buckets cached", "owner", owner, "granularity", string(g), "buckets", len(buckets))
	return buckets, nil
}
