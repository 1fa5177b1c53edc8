package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/carhive/marketplace/internal/adapter/auth"
	"github.com/carhive/marketplace/internal/adapter/httpapi"
	"github.com/carhive/marketplace/internal/adapter/messaging/nats"
	rediscache "github.com/carhive/marketplace/internal/adapter/repository/cache"
	"github.com/carhive/marketplace/internal/adapter/store/mongodb"
	"github.com/carhive/marketplace/internal/adapter/storage/s3"
	"github.com/carhive/marketplace/internal/config"
	"github.com/carhive/marketplace/internal/listing/repository"
	"github.com/carhive/marketplace/internal/listing/usecase"
	"github.com/carhive/marketplace/internal/mailer"
	"github.com/carhive/marketplace/internal/platform/cache"
	"github.com/carhive/marketplace/internal/platform/logger"
	"github.com/carhive/marketplace/internal/platform/tracer"
)

func main() {
	zapLogger, err := logger.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zapLogger.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLogger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		tp, err := tracer.Init(ctx)
		if err != nil {
			zapLogger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer tp.Shutdown(ctx)
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		zapLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	rowStore := mongodb.NewRowStore(mongoClient.Database(cfg.MongoDB), zapLogger)
	if err := rowStore.EnsureIndexes(ctx); err != nil {
		zapLogger.Fatal("Failed to create indexes", zap.Error(err))
	}

	blobStore, err := s3.NewBlobStore(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey,
		cfg.MinIOBucket, cfg.MinIOUseSSL, cfg.PublicBlobBaseURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize blob storage", zap.Error(err))
	}

	listingCache, err := rediscache.NewListingCache(cfg.RedisAddr)
	if err != nil {
		zapLogger.Warn("Redis unavailable, running without the listing cache", zap.Error(err))
		listingCache = nil
	}

	publisher, err := nats.NewPublisher(cfg.NATSURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer publisher.Close()

	var mail usecase.Mailer
	if cfg.SMTPEmail != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword)
	}

	sessions := auth.NewSessionManager(cfg.JWTSecret, zapLogger)
	queryCache := cache.New()

	var carCache repository.ListingCache
	if listingCache != nil {
		carCache = listingCache
	}
	carRepo := repository.NewCarRepository(rowStore, carCache, zapLogger)
	photoUC := usecase.NewPhotoUsecase(blobStore, usecase.DiskFileSource{}, zapLogger)
	favoriteUC := usecase.NewFavoriteUsecase(rowStore, carRepo, queryCache, zapLogger)
	listingUC := usecase.NewListingUsecase(carRepo, photoUC, sessions, queryCache, publisher, mail, zapLogger)

	handler := httpapi.NewHandler(listingUC, favoriteUC, photoUC, zapLogger)
	router := httpapi.NewRouter(handler, sessions, zapLogger)

	addr := ":" + cfg.HTTPPort
	zapLogger.Info("Starting marketplace HTTP server", zap.String("address", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		zapLogger.Fatal("HTTP server failed", zap.Error(err))
	}
}
