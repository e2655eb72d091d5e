// Package http exposes the JSON REST API: expenses CRUD, categories and
// budgets, derived stats, and CSV export.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"finpulse/internal/cache"
	"finpulse/internal/services"
)

type Server struct {
	http.Server

	expenses   *services.ExpenseService
	categories *services.CategoryService
	stats      *services.StatsService

	jwtSecret   string
	rateLimiter *rateLimiter

	// Derived views are cached as encoded JSON, keyed by view family so a
	// mutation's stale-view list maps straight to prefix invalidation.
	viewCache *cache.LRU[[]byte]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

type Options struct {
	Addr      string
	JWTSecret string
	CacheSize int
	CacheTTL  time.Duration
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(opts Options, expenses *services.ExpenseService, categories *services.CategoryService, stats *services.StatsService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		expenses:         expenses,
		categories:       categories,
		stats:            stats,
		jwtSecret:        opts.JWTSecret,
		rateLimiter:      newRateLimiter(),
		viewCache:        cache.New[[]byte](opts.CacheSize, opts.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	// Literal segments win over wildcards, so /expenses/stats and
	// /expenses/export never collide with /expenses/{id}.
	mux.HandleFunc("GET /expenses", s.protected(s.handleListExpenses))
	mux.HandleFunc("POST /expenses", s.protected(s.handleCreateExpense))
	mux.HandleFunc("GET /expenses/grouped", s.protected(s.handleGroupedExpenses))
	mux.HandleFunc("GET /expenses/export", s.protected(s.handleExportExpenses))
	mux.HandleFunc("GET /expenses/stats", s.protected(s.handleStatsSummary))
	mux.HandleFunc("GET /expenses/stats/daily", s.protected(s.handleStatsDaily))
	mux.HandleFunc("GET /expenses/stats/breakdown", s.protected(s.handleStatsBreakdown))
	mux.HandleFunc("GET /expenses/stats/comparison", s.protected(s.handleStatsComparison))
	mux.HandleFunc("GET /expenses/{id}", s.protected(s.handleGetExpense))
	mux.HandleFunc("PUT /expenses/{id}", s.protected(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.protected(s.handleDeleteExpense))

	mux.HandleFunc("GET /categories", s.protected(s.handleListCategories))
	mux.HandleFunc("POST /categories", s.protected(s.handleCreateCategory))
	mux.HandleFunc("GET /categories/{id}", s.protected(s.handleGetCategory))
	mux.HandleFunc("PUT /categories/{id}", s.protected(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.protected(s.handleDeleteCategory))

	mux.HandleFunc("POST /budgets", s.protected(s.handleSetBudget))

	return s
}

// protected chains the standard middleware for API routes.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return s.withRequestLogging(s.withAuth(next))
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.viewCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
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

// invalidate drops every cached view a mutation reported as stale.
func (s *Server) invalidate(ctx context.Context, staleViews []string) {
	for _, view := range staleViews {
		if removed := s.viewCache.DeletePrefix(view + ":"); removed > 0 {
			slog.DebugContext(ctx, "Invalidated cached views", "view", view, "entries", removed)
		}
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
