// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/account"
	remerrors "github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/errors"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/logging"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/submit"
	"github.com/Moses-main/v0-cross-border-remittance-service-sub000/internal/types"
)

// Service interfaces for dependency injection and testing

// ValidatorInterface defines the preflight validation operations
type ValidatorInterface interface {
	ValidateTransfer(ctx context.Context, req *types.TransferRequest) (*types.Quote, *remerrors.CategorizedError, error)
	ValidateGroupPayment(ctx context.Context, req *types.GroupPaymentRequest) (*types.Quote, *remerrors.CategorizedError, error)
}

// PlannerInterface defines the execution planning operations
type PlannerInterface interface {
	PlanTransfer(ctx context.Context, req *types.TransferRequest, quote *types.Quote) (*types.ExecutionPlan, error)
	PlanGroupPayment(ctx context.Context, req *types.GroupPaymentRequest, quote *types.Quote) (*types.ExecutionPlan, error)
	PlanWithdrawal(ctx context.Context, sender common.Address, amountUnits *big.Int) (*types.ExecutionPlan, error)
}

// SubmitterInterface defines the submission operations
type SubmitterInterface interface {
	Submit(ctx context.Context, plan *types.ExecutionPlan) (*submit.Result, error)
}

// HistoryInterface defines the history reconciliation operations
type HistoryInterface interface {
	GetHistory(ctx context.Context, addr common.Address, start, count int64) ([]types.TransactionRecord, error)
}

// AccountInterface defines the account view operations
type AccountInterface interface {
	GetStats(ctx context.Context, addr common.Address) (*account.UserStats, error)
	GetRewards(ctx context.Context, addr common.Address) (*account.RewardsData, error)
}

// ContactStore defines contact persistence operations
type ContactStore interface {
	Create(ctx context.Context, contact *types.Contact) error
	ListByOwner(ctx context.Context, owner string) ([]types.Contact, error)
	GetByID(ctx context.Context, owner, id string) (*types.Contact, error)
	Update(ctx context.Context, contact *types.Contact) error
	Delete(ctx context.Context, owner, id string) error
}

// Pinger reports backing-store health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server

	validator ValidatorInterface
	planner   PlannerInterface
	submitter SubmitterInterface
	history   HistoryInterface
	accounts  AccountInterface
	contacts  ContactStore
	redis     Pinger
	postgres  Pinger
	config    *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	RequestsPerSecond int
	Burst             int
	// RewardsDecimals renders and parses reward amounts; rewards accrue in
	// the stablecoins' shared base unit.
	RewardsDecimals int
}

// DefaultServerConfig returns sensible defaults for local development.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:              "0.0.0.0",
		Port:              "8080",
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      4 * time.Minute, // submissions wait on receipts
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		RequestsPerSecond: 50,
		Burst:             10,
		RewardsDecimals:   6,
	}
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	validator ValidatorInterface,
	planner PlannerInterface,
	submitter SubmitterInterface,
	history HistoryInterface,
	accounts AccountInterface,
	contacts ContactStore,
	redis Pinger,
	postgres Pinger,
) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		validator: validator,
		planner:   planner,
		submitter: submitter,
		history:   history,
		accounts:  accounts,
		contacts:  contacts,
		redis:     redis,
		postgres:  postgres,
		config:    config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSecond, s.config.Burst)

	// Middleware order matters: logging wraps everything, recovery catches
	// handler panics, CORS before rate limiting so preflights are cheap.
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Transfer endpoints
	api.HandleFunc("/transfers", s.handleSendTransfer).Methods("POST")
	api.HandleFunc("/transfers/group", s.handleGroupPayment).Methods("POST")
	api.HandleFunc("/transfers/history", s.handleGetHistory).Methods("GET")

	// Account endpoints
	api.HandleFunc("/user/stats", s.handleGetStats).Methods("GET")
	api.HandleFunc("/rewards/data", s.handleGetRewards).Methods("GET")
	api.HandleFunc("/rewards/withdraw", s.handleWithdrawRewards).Methods("POST")

	// Contact endpoints
	api.HandleFunc("/contacts", s.handleListContacts).Methods("GET")
	api.HandleFunc("/contacts", s.handleCreateContact).Methods("POST")
	api.HandleFunc("/contacts/{id}", s.handleUpdateContact).Methods("PUT")
	api.HandleFunc("/contacts/{id}", s.handleDeleteContact).Methods("DELETE")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status":  "healthy",
		"service": "remittance-gateway",
	}
	if s.redis != nil {
		if err := s.redis.Ping(r.Context()); err != nil {
			status["redis"] = "unreachable"
			status["status"] = "degraded"
		}
	}
	if s.postgres != nil {
		if err := s.postgres.Ping(r.Context()); err != nil {
			status["postgres"] = "unreachable"
			status["status"] = "degraded"
		}
	}
	respondJSON(w, http.StatusOK, status)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.GetGlobalLogger().WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.GetGlobalLogger().Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
