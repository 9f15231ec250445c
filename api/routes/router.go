package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shiplist-backend/api/controllers"
	"github.com/angelmondragon/shiplist-backend/api/middleware"
	"github.com/angelmondragon/shiplist-backend/internal/activity"
	"github.com/angelmondragon/shiplist-backend/internal/sessions"
	"github.com/angelmondragon/shiplist-backend/internal/shipments"
	"github.com/angelmondragon/shiplist-backend/pkg/config"
	"github.com/angelmondragon/shiplist-backend/pkg/db"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
	"github.com/angelmondragon/shiplist-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	shipmentsService shipments.Service,
	sessionService sessions.Service,
	activityService activity.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.CORS),
		middleware.Logging(logg),
	)

	var (
		idempotencyStore middleware.IdempotencyStore
		limitStore       middleware.RateLimitStore
	)
	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["db"] = dbP
	}
	if redisClient != nil {
		idempotencyStore = redisClient
		limitStore = redisClient
		readiness["redis"] = redisClient
	}

	mutationPolicy := middleware.RateLimitPolicy{
		Name:        "mutation",
		Window:      cfg.RateLimit.MutationWindow,
		IPLimit:     cfg.RateLimit.MutationIPLimit,
		EditorLimit: cfg.RateLimit.MutationEditorLimit,
	}
	importPolicy := middleware.RateLimitPolicy{
		Name:        "import",
		Window:      cfg.RateLimit.ImportWindow,
		EditorLimit: cfg.RateLimit.ImportEditorLimit,
	}

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	r.Route("/api/v1/manufacturing", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/rows", controllers.ListRows(shipmentsService, logg))
		r.Get("/shipments", controllers.ListShipments(shipmentsService, logg))
		r.Get("/rows/{rowId}/notes", controllers.ListRowNotes(shipmentsService, logg))
		r.Get("/rows/{rowId}/activity", controllers.ListRowActivity(activityService, logg))

		r.Get("/session", controllers.GetSession(sessionService, logg))
		r.Delete("/session", controllers.ResetSession(sessionService, logg))
		r.Put("/session/query", controllers.SetSessionQuery(sessionService, logg))
		r.Post("/session/select", controllers.SelectRow(sessionService, logg))
		r.Delete("/session/status-menu", controllers.CloseStatusMenu(sessionService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireEditor(logg))
			r.Use(middleware.RateLimit(mutationPolicy, limitStore, logg))
			guarded := r.With(middleware.Idempotency(idempotencyStore, middleware.IdempotencyTTLDefault, logg))
			critical := r.With(middleware.Idempotency(idempotencyStore, middleware.IdempotencyTTLCritical, logg))

			r.Post("/session/sort", controllers.EnterSort(sessionService, logg))
			r.Post("/session/gestures", controllers.SessionGesture(sessionService, logg))
			r.Post("/session/move", controllers.MoveRow(sessionService, logg))
			r.Post("/session/save", controllers.RequestSave(sessionService, logg))
			r.Delete("/session/save", controllers.DismissSave(sessionService, logg))
			r.Post("/session/cancel", controllers.CancelSort(sessionService, logg))
			r.Post("/rows/{rowId}/status-menu", controllers.OpenStatusMenu(sessionService, logg))

			critical.Post("/session/save/confirm", controllers.ConfirmSave(sessionService, logg))
			guarded.Post("/session/split", controllers.SplitRow(sessionService, logg))
			guarded.Patch("/rows/{rowId}/status", controllers.UpdateRowStatus(sessionService, logg))
			guarded.Post("/rows/{rowId}/notes", controllers.AddRowNote(sessionService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.EditorRoleAdmin, logg))
			r.Use(middleware.RateLimit(importPolicy, limitStore, logg))
			r.With(middleware.Idempotency(idempotencyStore, middleware.IdempotencyTTLCritical, logg)).
				Post("/rows/import", controllers.ImportRows(shipmentsService, logg))
		})
	})

	return r
}
