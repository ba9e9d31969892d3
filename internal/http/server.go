// Package http is the transport boundary: routing, auth cookies, JSON
// encoding and the domain-error to status mapping. Handlers delegate
// all decisions to the services layer.
package http

import (
	"context"
	"net/http"
	"time"

	"centime/internal/auth/token"
	"centime/internal/kv"
	"centime/internal/log"
	"centime/internal/services"
	"centime/internal/storage"
)

// Deps is everything the server needs wired in.
type Deps struct {
	Auth       *services.AuthService
	Categories *services.CategoryService
	Expenses   *services.ExpenseService
	Tokens     *token.Manager
	Repo       *storage.Repository
	KV         kv.Store
	Logger     *log.Logger
}

type Server struct {
	httpServer *http.Server
	auth       *services.AuthService
	categories *services.CategoryService
	expenses   *services.ExpenseService
	tokens     *token.Manager
	repo       *storage.Repository
	kv         kv.Store
	log        *log.Logger
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		auth:       deps.Auth,
		categories: deps.Categories,
		expenses:   deps.Expenses,
		tokens:     deps.Tokens,
		repo:       deps.Repo,
		kv:         deps.KV,
		log:        deps.Logger.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/user/register", s.handleRegister)
	mux.HandleFunc("POST /api/user/login", s.handleLogin)
	mux.HandleFunc("POST /api/user/refresh", s.handleRefresh)

	mux.HandleFunc("POST /api/category/{$}", s.requireAuth(s.handleAddCategory))
	mux.HandleFunc("GET /api/category/user", s.requireAuth(s.handleListCategories))

	mux.HandleFunc("POST /api/expense/{$}", s.requireAuth(s.handleAddExpense))
	mux.HandleFunc("GET /api/expense/user", s.requireAuth(s.handleListExpenses))
	mux.HandleFunc("GET /api/expense/user/{expense_id}", s.requireAuth(s.handleGetExpense))
	mux.HandleFunc("PUT /api/expense/user/{expense_id}", s.requireAuth(s.handleEditExpense))
	mux.HandleFunc("DELETE /api/expense/user/{expense_id}", s.requireAuth(s.handleDeleteExpense))
	mux.HandleFunc("GET /api/expense/total", s.requireAuth(s.handleTotalExpenses))
	mux.HandleFunc("GET /api/expense/filter/category/{category_id}", s.requireAuth(s.handleFilterByCategory))

	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.withRequestLog(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
