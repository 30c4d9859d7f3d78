package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crebai/crebmatch-backend/api/controllers"
	"github.com/crebai/crebmatch-backend/api/middleware"
	"github.com/crebai/crebmatch-backend/internal/chat"
	"github.com/crebai/crebmatch-backend/internal/deals"
	"github.com/crebai/crebmatch-backend/internal/documents"
	"github.com/crebai/crebmatch-backend/internal/listings"
	"github.com/crebai/crebmatch-backend/internal/matches"
	"github.com/crebai/crebmatch-backend/internal/rejections"
	"github.com/crebai/crebmatch-backend/pkg/config"
	"github.com/crebai/crebmatch-backend/pkg/logger"
)

// Pinger is the readiness surface shared by the db, redis and storage clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups everything the router mounts.
type Services struct {
	Feed       listings.Service
	Rejections rejections.Service
	Matches    matches.Service
	Chat       chat.Service
	Documents  documents.Service
	Deals      deals.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP Pinger,
	redisP Pinger,
	storeP Pinger,
	svcs Services,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP, storeP))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/feed", func(r chi.Router) {
			r.Get("/", controllers.FeedList(svcs.Feed, logg))
			r.Post("/rejections", controllers.FeedReject(svcs.Rejections, logg))
			r.Delete("/rejections/{listingId}", controllers.FeedUnreject(svcs.Rejections, logg))
		})

		r.Route("/matches", func(r chi.Router) {
			r.Post("/like", controllers.MatchLike(svcs.Matches, logg))
			r.Get("/incoming", controllers.MatchIncoming(svcs.Matches, logg))
			r.Get("/active", controllers.MatchActive(svcs.Matches, logg))
			r.Post("/{matchId}/accept", controllers.MatchAccept(svcs.Matches, logg))
			r.Post("/{matchId}/reject", controllers.MatchReject(svcs.Matches, logg))
		})

		r.Route("/chat/{matchId}", func(r chi.Router) {
			r.Post("/messages", controllers.ChatPost(svcs.Chat, logg))
			r.Get("/messages", controllers.ChatHistory(svcs.Chat, logg))
			r.Get("/ws", controllers.ChatStream(svcs.Chat, cfg.Chat, logg))
		})

		r.Route("/documents/{matchId}", func(r chi.Router) {
			r.Post("/generate", controllers.DocumentGenerate(svcs.Documents, logg))
			r.Put("/", controllers.DocumentUpdate(svcs.Documents, logg))
			r.Post("/sign", controllers.DocumentSign(svcs.Documents, logg))
			r.Get("/", controllers.DocumentFetch(svcs.Documents, logg))
		})

		r.Get("/deals", controllers.DealList(svcs.Deals, logg))
	})

	return r
}
