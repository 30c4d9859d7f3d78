package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crebai/crebmatch-backend/api/routes"
	"github.com/crebai/crebmatch-backend/internal/chat"
	"github.com/crebai/crebmatch-backend/internal/deals"
	"github.com/crebai/crebmatch-backend/internal/documents"
	"github.com/crebai/crebmatch-backend/internal/listings"
	"github.com/crebai/crebmatch-backend/internal/matches"
	"github.com/crebai/crebmatch-backend/internal/principals"
	"github.com/crebai/crebmatch-backend/internal/rejections"
	"github.com/crebai/crebmatch-backend/pkg/config"
	"github.com/crebai/crebmatch-backend/pkg/db"
	"github.com/crebai/crebmatch-backend/pkg/logger"
	"github.com/crebai/crebmatch-backend/pkg/metrics"
	"github.com/crebai/crebmatch-backend/pkg/migrate"
	"github.com/crebai/crebmatch-backend/pkg/pubsub"
	"github.com/crebai/crebmatch-backend/pkg/redis"
	"github.com/crebai/crebmatch-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var storeP routes.Pinger
	var objectStore documents.ObjectStore
	if cfg.GCS.BucketName != "" {
		gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap gcs", err)
			os.Exit(1)
		}
		storeP = gcsClient
		objectStore = gcsClient
	}
	if objectStore == nil {
		logg.Warn(context.Background(), "gcs bucket not configured, document uploads disabled")
	}

	var dealEvents *pubsub.DealEventPublisher
	if cfg.GCP.ProjectID != "" && cfg.PubSub.DealsTopic != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer pubsubClient.Close()
		dealEvents = pubsub.NewDealEventPublisher(pubsubClient.DealsPublisher())
	}

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	gormDB := dbClient.DB()
	principalRepo := principals.NewRepository(gormDB)
	listingRepo := listings.NewRepository(gormDB)
	matchRepo := matches.NewRepository(gormDB)
	docRepo := documents.NewRepository(gormDB)

	rejectionSvc, err := rejections.NewService(rejections.ServiceParams{
		Repo:    rejections.NewRepository(gormDB),
		Cache:   rejections.NewRedisCache(redisClient),
		Logger:  logg,
		Metrics: engineMetrics,
	})
	exitOnError(logg, "rejection service", err)

	feedSvc, err := listings.NewService(listings.ServiceParams{
		Repo:       listingRepo,
		Rejections: rejectionSvc,
	})
	exitOnError(logg, "feed service", err)

	matchSvc, err := matches.NewService(matches.ServiceParams{
		MatchRepo:   matchRepo,
		ListingRepo: listingRepo,
		Logger:      logg,
		Metrics:     engineMetrics,
		Events:      dealEvents,
	})
	exitOnError(logg, "match service", err)

	chatSvc, err := chat.NewService(chat.ServiceParams{
		ChatRepo:         chat.NewRepository(gormDB),
		MatchRepo:        matchRepo,
		Logger:           logg,
		Metrics:          engineMetrics,
		SubscriberBuffer: cfg.Chat.SubscriberBuffer,
	})
	exitOnError(logg, "chat service", err)

	// without an object store the document workflow stays offline; its
	// routes report the service unavailable instead of killing the process
	var docSvc documents.Service
	if objectStore != nil {
		docSvc, err = documents.NewService(documents.ServiceParams{
			DocRepo:        docRepo,
			MatchRepo:      matchRepo,
			ListingRepo:    listingRepo,
			PrincipalRepo:  principalRepo,
			Chat:           chatSvc,
			Store:          objectStore,
			Logger:         logg,
			Metrics:        engineMetrics,
			Events:         dealEvents,
			UploadAttempts: cfg.Documents.UploadAttempts,
			UploadBackoff:  cfg.Documents.UploadBackoff,
		})
		exitOnError(logg, "document service", err)
	}

	dealSvc, err := deals.NewService(deals.ServiceParams{
		MatchRepo: matchRepo,
		DocRepo:   docRepo,
	})
	exitOnError(logg, "deal service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, storeP, routes.Services{
		Feed:       feedSvc,
		Rejections: rejectionSvc,
		Matches:    matchSvc,
		Chat:       chatSvc,
		Documents:  docSvc,
		Deals:      dealSvc,
	}, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func exitOnError(logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
