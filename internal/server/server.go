// server.go - Server construction, route wiring, and lifecycle.
package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"strings"
	"time"
)

// BuildInfo carries version metadata stamped at build time.
type BuildInfo struct {
	Version string
	Commit  string
}

// Config collects everything the server needs. DB may be nil when the
// in-memory stores are used; the health endpoints report accordingly.
type Config struct {
	Addr       string // e.g. ":8080"
	Build      BuildInfo
	DB         *sql.DB
	Recipients RecipientStore
	Accounts   AccountStore
	StaticDir  string
	RateLimit  int // API requests per IP per minute; 0 disables
}

// Server owns the HTTP listener and the handler dependencies.
type Server struct {
	httpServer *http.Server
	db         *sql.DB
	recipients RecipientStore
	accounts   AccountStore
	staticDir  string
	version    string
}

// New wires the routes and middleware and returns a server ready to Start.
func New(cfg Config) *Server {
	s := &Server{
		db:         cfg.DB,
		recipients: cfg.Recipients,
		accounts:   cfg.Accounts,
		staticDir:  cfg.StaticDir,
		version:    cfg.Build.Version,
	}

	mux := http.NewServeMux()

	// Operational endpoints sit outside the API routing switch.
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/ready", s.HandleReady)
	mux.HandleFunc("/live", s.HandleLive)
	mux.HandleFunc("/metrics", NewPrometheusExporter().Handler())

	// Everything else goes through one dispatcher so unmatched routes
	// answer 501 instead of the mux's default 404.
	mux.HandleFunc("/", s.handleRoot)

	// Wrap middleware: requestID -> logging -> rate limit -> mux
	var handler http.Handler = mux
	if cfg.RateLimit > 0 {
		handler = newRateLimiter(cfg.RateLimit, time.Minute).middleware(handler)
	}
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// handleRoot splits traffic between the API and the static collaborator.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path
	switch {
	case p == "/api" || strings.HasPrefix(p, "/api/"):
		s.handleAPI(w, r)
	case r.Method == http.MethodGet && isStaticPath(p):
		s.serveStatic(w, r)
	default:
		writeError(w, http.StatusNotImplemented, "not implemented.")
	}
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
