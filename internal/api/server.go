package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/mailhost/internal/api/handler"
	mw "github.com/edvin/mailhost/internal/api/middleware"
	"github.com/edvin/mailhost/internal/config"
	"github.com/edvin/mailhost/internal/core"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	corePool *pgxpool.Pool
	objects  handler.ObjectStore
	relay    handler.Relay
	cfg      *config.Config
}

// NewServer wires the HTTP surface. The relay may be nil when no
// outbound relay is configured; affected endpoints degrade instead of
// failing at startup.
func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, objects handler.ObjectStore, rly handler.Relay, cfg *config.Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: core.NewServices(pool, nil),
		corePool: pool,
		objects:  objects,
		relay:    rly,
		cfg:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	account := handler.NewAccount(s.services.Account)

	// Signup is the only unauthenticated mutation: it is how an
	// account obtains its first API key.
	s.router.Post("/signup", account.Signup)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.services.Account))

		r.Get("/account", account.Get)
		r.Post("/api-keys", account.CreateAPIKey)
		r.Delete("/api-keys/{keyID}", account.RevokeAPIKey)

		dashboard := handler.NewDashboard(s.services.Dashboard)
		r.Get("/dashboard/stats", dashboard.Stats)

		search := handler.NewSearch(s.services.Search)
		r.Get("/search", search.Search)

		domain := handler.NewDomain(s.services.Domain, s.services.Admission, s.relay, s.cfg.SMTPHostname)
		r.Get("/domains", domain.List)
		r.Post("/domains", domain.Create)
		r.Get("/domains/{domainID}", domain.Get)
		r.Delete("/domains/{domainID}", domain.Delete)
		r.Get("/domains/{domainID}/dns-records", domain.ListDNSRecords)
		r.Post("/domains/{domainID}/verify", domain.Verify)

		mailbox := handler.NewMailbox(s.services.Mailbox, s.services.Domain, s.services.Admission)
		r.Get("/domains/{domainID}/mailboxes", mailbox.ListByDomain)
		r.Post("/domains/{domainID}/mailboxes", mailbox.Create)
		r.Get("/mailboxes/{mailboxID}", mailbox.Get)
		r.Delete("/mailboxes/{mailboxID}", mailbox.Delete)

		subscription := handler.NewSubscription(s.services.Subscription)
		r.Post("/subscriptions", subscription.Create)
		r.Get("/subscriptions/current", subscription.Current)

		send := handler.NewSend(
			s.services.Message, s.services.Mailbox, s.services.Directory, s.services.Admission,
			s.objects, s.relay, s.cfg.EmailBodyBucket, s.cfg.AttachmentsBucket,
		)
		r.Post("/mailboxes/{mailboxID}/send", send.Handle)

		message := handler.NewMessage(s.services.Message, s.services.Mailbox, s.objects, s.cfg.EmailBodyBucket)
		r.Get("/mailboxes/{mailboxID}/messages", message.List)
		r.Get("/mailboxes/{mailboxID}/messages/{messageID}", message.Get)
		r.Get("/mailboxes/{mailboxID}/messages/{messageID}/body", message.Body)
		r.Delete("/mailboxes/{mailboxID}/messages/{messageID}", message.Delete)
		r.Post("/mailboxes/{mailboxID}/messages/star", message.Star)
		r.Post("/mailboxes/{mailboxID}/messages/unstar", message.Unstar)
		r.Post("/mailboxes/{mailboxID}/messages/archive", message.Archive)
		r.Post("/mailboxes/{mailboxID}/messages/unarchive", message.Unarchive)
		r.Post("/mailboxes/{mailboxID}/messages/trash", message.Trash)
		r.Post("/mailboxes/{mailboxID}/messages/restore", message.Restore)
		r.Get("/mailboxes/{mailboxID}/unread-count", message.UnreadCount)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.corePool.Ping(ctx); err != nil {
		checks["core_db"] = err.Error()
		healthy = false
	} else {
		checks["core_db"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(checks)
}
