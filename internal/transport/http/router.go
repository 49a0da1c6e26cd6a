package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ward-notify-api/internal/application/dedup"
	"github.com/ward-notify-api/internal/application/gateway"
	"github.com/ward-notify-api/internal/application/suppression"
	"github.com/ward-notify-api/internal/application/writer"
	"github.com/ward-notify-api/internal/config"
	"github.com/ward-notify-api/internal/transport/http/handler"
	appmiddleware "github.com/ward-notify-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appmiddleware.CSRFHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)
	csrfMw := appmiddleware.CSRF(deps.CSRFProvider)

	// 5 requests/second, burst of 10 — applied to the token endpoint.
	tokenRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	writerSvc := writer.NewService(writer.Deps{
		Store:    deps.NotificationStore,
		Cache:    dedup.NewCache(cfg.DedupCacheTTL),
		Window:   cfg.DedupWindow,
		Push:     deps.Push,
		Mailer:   deps.Mailer,
		OpsEmail: cfg.OpsEmail,
	})
	gatewaySvc := gateway.NewService(deps.NotificationStore, deps.Archiver, nil)
	suppressionMgr := suppression.NewManager(deps.SuppressionStore, nil)

	healthH := handler.NewHealthHandler()
	csrfH := handler.NewCSRFHandler(deps.CSRFProvider)
	notifH := handler.NewNotificationHandler(gatewaySvc, writerSvc)
	suppressionH := handler.NewSuppressionHandler(suppressionMgr)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.With(tokenRL.Limit).Get("/csrf", csrfH.Token)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread-count", notifH.UnreadCount)

			// Mutations require the anti-forgery header.
			r.Group(func(r chi.Router) {
				r.Use(csrfMw)

				r.Post("/notifications", notifH.Create)
				r.Put("/notifications/read", notifH.MarkRead)
				r.Delete("/notifications", notifH.Delete)

				r.Post("/suppression/check", suppressionH.Check)
				r.Post("/suppression/sent", suppressionH.Sent)
				r.Post("/suppression/data-deleted", suppressionH.DataDeleted)
				r.Post("/suppression/clear", suppressionH.Clear)
			})
		})
	})

	return r
}
