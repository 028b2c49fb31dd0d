package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/export"
	"github.com/jonathan/resume-builder/internal/fetch"
	"github.com/jonathan/resume-builder/internal/jobs"
	"github.com/jonathan/resume-builder/internal/metrics"
	"github.com/jonathan/resume-builder/internal/pdftext"
	"github.com/jonathan/resume-builder/internal/profiles"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"github.com/jonathan/resume-builder/internal/session"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// JobFetcher returns the readable text of a job posting URL.
type JobFetcher func(ctx context.Context, url string) (string, error)

// SnapshotLister lists a user's saved chat turns.
type SnapshotLister interface {
	ListSnapshots(ctx context.Context, userID uuid.UUID, limit int) ([]db.Snapshot, error)
}

// Deps are the collaborators the API serves. Users, Profiles and Sessions
// are required; the rest degrade to a reduced feature set when nil.
type Deps struct {
	Users       UserStore
	Revocations RevocationStore
	Profiles    *profiles.Service
	Sessions    *session.Manager
	Snapshots   SnapshotLister
	PDF         export.PDFRenderer
	Jobs        JobFetcher
	Postings    *jobs.Service
	ExtractPDF  func(data []byte) (*pdftext.Document, error)
	Metrics     *metrics.Recorder
	// Ping reports backing store health for /health.
	Ping func(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	deps        Deps
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
	validator   *validator.Validate

	// debug also logs health and metrics requests.
	debug bool
}

// New wires the routes and middleware.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Users == nil || deps.Profiles == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("server requires users, profiles and sessions")
	}

	passwordConfig, err := cfg.PasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	jwtConfig, err := cfg.JWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	if deps.Revocations == nil {
		deps.Revocations = NewMemoryRevocations()
	}
	if deps.Jobs == nil {
		deps.Jobs = func(ctx context.Context, url string) (string, error) {
			return fetch.JobDescription(ctx, url, nil)
		}
	}
	if deps.Postings == nil {
		deps.Postings = jobs.NewService(jobs.NewMemoryStore())
	}
	if deps.ExtractPDF == nil {
		deps.ExtractPDF = pdftext.Extract
	}

	s := &Server{
		deps:        deps,
		rateLimiter: ratelimit.NewLimiter(ratelimit.FromSettings(cfg.RateLimit)),
		jwtService:  NewJWTService(jwtConfig, deps.Revocations),
		validator:   validator.New(),
		debug:       cfg.Debug(),
	}
	s.userService = NewUserService(deps.Users, passwordConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	mux := http.NewServeMux()
	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	private := func(h http.HandlerFunc) http.Handler { return auth(h) }

	// Public
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metricsHandler())
	mux.HandleFunc("GET /templates", s.handleListTemplates)
	mux.HandleFunc("POST /render", s.handleRender)
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)

	// Account
	mux.Handle("POST /auth/logout", private(s.authHandler.Logout))
	mux.Handle("PUT /auth/password", private(s.authHandler.UpdatePassword))
	mux.Handle("GET /users/me", private(s.authHandler.Me))

	// Profile
	mux.Handle("GET /profiles/me", private(s.handleGetProfile))
	mux.Handle("PUT /profiles/me", private(s.handlePutProfile))
	mux.Handle("POST /profiles/me/github", private(s.handleImportGitHub))

	// Saved job postings
	mux.Handle("GET /jobs", private(s.handleListJobPostings))
	mux.Handle("POST /jobs", private(s.handleCreateJobPosting))
	mux.Handle("GET /jobs/{id}", private(s.handleGetJobPosting))
	mux.Handle("PUT /jobs/{id}", private(s.handleUpdateJobPosting))
	mux.Handle("DELETE /jobs/{id}", private(s.handleDeleteJobPosting))
	mux.Handle("POST /uploads/resume", private(s.handleUploadResume))

	// Builder sessions
	mux.Handle("POST /sessions", private(s.handleCreateSession))
	mux.Handle("GET /sessions/snapshots", private(s.handleListSnapshots))
	mux.Handle("GET /sessions/{id}", private(s.handleGetSession))
	mux.Handle("DELETE /sessions/{id}", private(s.handleDeleteSession))
	mux.Handle("PUT /sessions/{id}/template", private(s.handleSelectTemplate))
	mux.Handle("PUT /sessions/{id}/job", private(s.handleSetJobDescription))
	mux.Handle("POST /sessions/{id}/generate", private(s.handleGenerate))
	mux.Handle("POST /sessions/{id}/chat", private(s.handleChat))
	mux.Handle("POST /sessions/{id}/chat/stream", private(s.handleChatStream))
	mux.Handle("DELETE /sessions/{id}/error", private(s.handleDismissError))
	mux.Handle("GET /sessions/{id}/preview", private(s.handlePreview))
	mux.Handle("GET /sessions/{id}/previews", private(s.handlePreviews))
	mux.Handle("GET /sessions/{id}/pdf", private(s.handlePDF))
	mux.Handle("GET /sessions/{id}/ats", private(s.handleATS))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.AgentTimeout + 30*time.Second, // chat turns wait on the agent
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.rateLimiter.Stop()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients over their per-route budget.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging logs each request and records it in the HTTP metrics.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.deps.Metrics.RecordHTTPRequest(route, r.Method, rec.code(), elapsed)
		if !s.debug && (route == "GET /health" || route == "GET /metrics") {
			return
		}
		log.Printf("[%s] %s %d in %v", r.Method, r.URL.Path, rec.code(), elapsed.Round(time.Millisecond))
	})
}

// statusRecorder captures the response status and keeps streaming working.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		if r.status == 0 {
			r.status = http.StatusOK
		}
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) code() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (s *Server) metricsHandler() http.Handler {
	if s.deps.Metrics == nil {
		return http.NotFoundHandler()
	}
	return s.deps.Metrics.Handler()
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ping(ctx); err != nil {
			log.Printf("[health] ping failed: %v", err)
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// statusErrorResponse maps err to a status. Server-side failures are logged
// and reported without detail.
func statusErrorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		log.Printf("[server] internal error: %v", err)
		errorResponse(w, status, "internal server error")
		return
	}
	errorResponse(w, status, err.Error())
}

// extractClientID uses the remote IP. X-Forwarded-For is ignored since the
// service does not know which proxies to trust.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds() + 0.999)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d", info.Limit, info.Remaining)
	jsonResponse(w, http.StatusTooManyRequests, response)
}
