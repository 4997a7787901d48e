package api

import (
	"context"
	"net/http"

	"github.com/darmiel/toki/internal/api/middleware"
	"github.com/darmiel/toki/internal/audit"
	"github.com/darmiel/toki/internal/core"
	"github.com/darmiel/toki/internal/hooks"
	"github.com/darmiel/toki/internal/metrics"
	"github.com/darmiel/toki/internal/tasks"
)

// TokenAdmin is the part of the token library exposed by the API.
type TokenAdmin interface {
	core.RealmLister
	core.TokenTypeLister
	Get(ctx context.Context, serial string) (*core.Token, error)
	List(ctx context.Context) ([]core.Token, error)
	AddRealm(ctx context.Context, realm string) error
}

type Server struct {
	manager *hooks.Manager
	tokens  TokenAdmin
	auditor core.Auditor
	metrics *metrics.Metrics
	tasks   *tasks.Manager
}

type ServerOption func(*Server)

// WithTasks exposes the background tasks on the admin routes.
func WithTasks(m *tasks.Manager) ServerOption {
	return func(s *Server) {
		s.tasks = m
	}
}

// NewServer creates the HTTP server. auditor and mt may be nil.
func NewServer(
	manager *hooks.Manager,
	tokens TokenAdmin,
	auditor core.Auditor,
	mt *metrics.Metrics,
	opts ...ServerOption,
) *Server {
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}
	s := &Server{
		manager: manager,
		tokens:  tokens,
		auditor: auditor,
		metrics: mt,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the handler of the server. Admin routes are only mounted if a signing key is given.
func (s *Server) Routes(signingKey []byte) http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)
	mux.HandleFunc("GET "+ListActionsRoute, s.handleListActions)
	mux.HandleFunc("POST "+TriggerEventRoute, s.handleTriggerEvent)
	if s.metrics != nil {
		mux.Handle("GET "+MetricsRoute, s.metrics.Handler())
	}

	// admin routes
	if len(signingKey) > 0 {
		adminMux := http.NewServeMux()
		adminMux.HandleFunc("GET "+ListTokensRoute, s.handleAdminTokens)
		adminMux.HandleFunc("GET "+GetTokenRoute, s.handleAdminToken)
		adminMux.HandleFunc("GET "+ListRealmsRoute, s.handleAdminRealms)
		adminMux.HandleFunc("POST "+AddRealmRoute, s.handleAdminAddRealm)
		adminMux.HandleFunc("GET "+ListAuditsRoute, s.handleAdminAudit)
		if s.tasks != nil {
			adminMux.HandleFunc("GET "+ListTasksRoute, s.handleListTasks)
			adminMux.HandleFunc("POST "+TriggerTaskRoute, s.handleTriggerTask)
			adminMux.HandleFunc("GET "+LogsForTaskRoute, s.handleLogsForTask)
		}
		mux.Handle(AdminParent, middleware.AdminAuth(signingKey, s.onAuthFailure)(adminMux))
	}

	var handler http.Handler = mux
	if s.metrics != nil {
		handler = middleware.MetricsMiddleware(s.metrics)(handler)
	}
	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				handler)))
}

func (s *Server) onAuthFailure() {
	if s.metrics != nil {
		s.metrics.IncAuthFailures()
	}
}
