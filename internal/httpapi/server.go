// Package httpapi serves the statsmith service over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/statsmith/statsmith"
	"github.com/statsmith/statsmith/internal/alert"
	"github.com/statsmith/statsmith/internal/apperr"
	"github.com/statsmith/statsmith/internal/leaderboard"
	"github.com/statsmith/statsmith/internal/stats"
	"github.com/statsmith/statsmith/internal/upstream/hypixel"
)

// Backend answers the requests behind each route. *statsmith.Service
// implements it.
type Backend interface {
	Player(ctx context.Context, ident string) (*hypixel.Player, error)
	Guild(ctx context.Context, name, player string) (*hypixel.Guild, error)
	SkyBlock(ctx context.Context, ident string) ([]hypixel.SkyBlockProfile, error)
	Card(ctx context.Context, ident, game string) ([]byte, error)
	Leaderboard(ctx context.Context, name string, page int) (*leaderboard.Page, error)
	Leaderboards() map[leaderboard.Category][]string
	Health(ctx context.Context) statsmith.Health
}

// Compile-time check that the service satisfies Backend.
var _ Backend = (*statsmith.Service)(nil)

// Server routes HTTP requests to a Backend.
type Server struct {
	backend  Backend
	router   *mux.Router
	notifier alert.Notifier
	stats    stats.Collector
	logger   *zap.Logger
}

// New creates a Server for backend.
func New(backend Backend, opts ...Option) *Server {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	s := &Server{
		backend:  backend,
		router:   mux.NewRouter(),
		notifier: cfg.notifier,
		stats:    cfg.stats,
		logger:   cfg.logger.Named("http"),
	}

	s.router.Use(s.recoverMiddleware, s.logMiddleware)
	s.router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	s.router.HandleFunc("/guild", s.handleGuild).Methods(http.MethodGet)
	s.router.HandleFunc("/skyblock", s.handleSkyBlock).Methods(http.MethodGet)
	s.router.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
	s.router.HandleFunc("/leaderboards", s.handleLeaderboards).Methods(http.MethodGet)
	s.router.HandleFunc("/card/{data}", s.handleCard).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if cfg.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, apperr.NotFound("no route for %s", r.URL.Path))
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	p, err := s.backend.Player(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, struct {
		Success bool            `json:"success"`
		Player  *hypixel.Player `json:"player"`
	}{true, p})
}

func (s *Server) handleGuild(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	g, err := s.backend.Guild(r.Context(), q.Get("name"), q.Get("player"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, struct {
		Success bool           `json:"success"`
		Guild   *hypixel.Guild `json:"guild"`
	}{true, g})
}

func (s *Server) handleSkyBlock(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.backend.SkyBlock(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if profiles == nil {
		profiles = []hypixel.SkyBlockProfile{}
	}
	s.writeJSON(w, r, http.StatusOK, struct {
		Success  bool                      `json:"success"`
		Profiles []hypixel.SkyBlockProfile `json:"profiles"`
	}{true, profiles})
}

// handleLeaderboard serves one page. Unknown leaderboards are a bad
// request here rather than a missing resource.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("leaderboard"))
	if name == "" {
		s.writeError(w, r, apperr.Invalid("missing leaderboard"))
		return
	}
	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, apperr.Invalid("page %q is not a number", raw))
			return
		}
		page = n
	}

	p, err := s.backend.Leaderboard(r.Context(), name, page)
	if err != nil {
		status := Status(err)
		if status == http.StatusNotFound {
			status = http.StatusBadRequest
		}
		s.writeErrorStatus(w, r, status, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, struct {
		Success bool `json:"success"`
		*leaderboard.Page
	}{true, p})
}

func (s *Server) handleLeaderboards(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, struct {
		Success      bool                              `json:"success"`
		Leaderboards map[leaderboard.Category][]string `json:"leaderboards"`
	}{true, s.backend.Leaderboards()})
}

// handleCard serves a PNG card. The {data} segment only gives clients a
// file name to save and is otherwise ignored.
func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	if mux.Vars(r)["data"] == "" {
		s.writeError(w, r, apperr.Invalid("missing card file name"))
		return
	}
	q := r.URL.Query()
	png, err := s.backend.Card(r.Context(), q.Get("name"), q.Get("game"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, struct {
		Success bool             `json:"success"`
		Health  statsmith.Health `json:"health"`
	}{true, s.backend.Health(r.Context())})
}
