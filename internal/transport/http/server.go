package http

import (
	"context"
	"fmt"
	stdhttp "net/http"

	"chirper-api/internal/blob"
	"chirper-api/internal/cache"
	"chirper-api/internal/config"
	"chirper-api/internal/database"
	"chirper-api/internal/handler"
	"chirper-api/internal/redis"
	"chirper-api/internal/repository"
	"chirper-api/internal/service"
	authmw "chirper-api/internal/transport/http/middleware"
	"chirper-api/pkg/logger"
)

// Run wires configuration, storage and transport together and serves
// until the listener fails.
func Run() error {
	log := logger.NewLogger()
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("connected to database")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()
	if err := redisClient.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	log.Info("connected to redis")

	store, err := newBlobStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create blob store: %w", err)
	}
	log.WithField("driver", cfg.BlobDriver).Info("blob store ready")

	mediaCache := cache.NewMediaCache(redisClient.Client, log)

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	mediaService := service.NewMediaService(store, mediaCache, log)
	userService := service.NewUserService(userRepo, postRepo, store, mediaService, log)
	postService := service.NewPostService(postRepo, userRepo, store, mediaService, log)
	authService := service.NewAuthService(userRepo, cfg)
	subscriptionService := service.NewSubscriptionService(userRepo)

	router := NewRouter(RouterConfig{
		AuthHandler:         handler.NewAuthHandler(authService, cfg),
		UserHandler:         handler.NewUserHandler(userService, authService, cfg),
		PostHandler:         handler.NewPostHandler(postService),
		SubscriptionHandler: handler.NewSubscriptionHandler(subscriptionService),
		AccessTokenSecret:   cfg.AccessTokenSecret,
		CORSOrigins:         cfg.CORSOrigins,
		LoginLimiter:        authmw.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst),
	})

	addr := ":" + cfg.ServerPort
	log.WithField("addr", addr).Info("starting server")
	return stdhttp.ListenAndServe(addr, router)
}

// newBlobStore selects the media backend from configuration.
func newBlobStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (blob.Store, error) {
	switch cfg.BlobDriver {
	case "drive":
		return blob.NewDriveStore(ctx, cfg, log)
	case "s3":
		return blob.NewS3Store(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
}
