// @title                       Connectify API
// @version                     1.0
// @description                 Social network backend: accounts, follows, posts, direct messages and notifications.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/connectify/social-api/internal/api"
	"github.com/connectify/social-api/internal/api/handler"
	"github.com/connectify/social-api/internal/api/metrics"
	"github.com/connectify/social-api/internal/core/ports"
	"github.com/connectify/social-api/internal/core/service"
	mongodb "github.com/connectify/social-api/internal/infrastructure/db/mongo"
	redisdb "github.com/connectify/social-api/internal/infrastructure/db/redis"
	"github.com/connectify/social-api/internal/infrastructure/http/handlers"
	"github.com/connectify/social-api/internal/infrastructure/media"
	"github.com/connectify/social-api/internal/infrastructure/queue"
	"github.com/connectify/social-api/internal/infrastructure/realtime"
	"github.com/connectify/social-api/internal/infrastructure/storage"
	"github.com/connectify/social-api/internal/pkg/config"
	"github.com/connectify/social-api/pkg/logger"
)

const (
	shutdownTimeout = 15 * time.Second
	avatarQuality   = 85
	// multipartOverhead leaves room for form boundaries around the largest upload.
	multipartOverhead = 1 << 20
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "connectify: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "connectify-api",
	})

	// --- Datastores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	mediaStore, err := newMediaStorage(ctx, cfg)
	if err != nil {
		return err
	}

	// --- Repositories ---
	repos := service.AccountRepositories{
		Accounts:      mongodb.NewAccountRepository(db),
		Follows:       mongodb.NewFollowRepository(db),
		Posts:         mongodb.NewPostRepository(db),
		Comments:      mongodb.NewCommentRepository(db),
		Messages:      mongodb.NewMessageRepository(db),
		Notifications: mongodb.NewNotificationRepository(db),
	}

	// --- Realtime ---
	hub := realtime.NewHub(log.With().Str("component", "hub").Logger(), realtime.WithSessionGauge(metrics.RelaySessions))
	defer hub.Close()

	var relay ports.Relay = hub
	var redisRelay *redisdb.Relay
	if cfg.RelayDriver == config.RelayRedis {
		redisRelay = redisdb.NewRelay(rdb, hub, log.With().Str("component", "relay").Logger())
		hub.OnPresence(redisRelay.Presence)
		relay = redisRelay
	}

	// --- Services ---
	notifications := service.NewNotificationService(repos.Accounts, repos.Notifications, relay, log)
	dispatcher := queue.NewDispatcher(cfg.NotifyWorkers, notifications, log.With().Str("component", "notifications").Logger(),
		queue.WithMetrics(metrics.NotificationsDroppedTotal, metrics.NotificationDeliveryDuration))

	authSvc := service.NewAuthService(repos.Accounts, cfg.JWTSecret, cfg.TokenTTL)
	accountSvc := service.NewAccountService(repos, mediaStore, media.NewAvatarProcessor(cfg.Storage.AvatarSize, avatarQuality), log)
	socialSvc := service.NewSocialService(repos.Accounts, repos.Follows, dispatcher, log)
	postSvc := service.NewPostService(repos.Accounts, repos.Follows, repos.Posts, repos.Comments, dispatcher, log)
	messageSvc := service.NewMessageService(repos.Accounts, repos.Messages, relay, redisdb.NewMessageDedup(rdb), dispatcher, log)
	mediaSvc := service.NewMediaService(mediaStore, cfg.Storage.MaxUploadBytes)

	// --- HTTP ---
	routerCfg := api.RouterConfig{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		BodyLimit:   fmt.Sprintf("%dK", (cfg.Storage.MaxUploadBytes+multipartOverhead)/1024),
		Log:         log,
	}
	if cfg.Storage.Driver == config.StorageLocal {
		routerCfg.MediaDir = cfg.Storage.LocalPath
		routerCfg.MediaPrefix = cfg.Storage.PublicBaseURL
	}

	e := api.NewRouter(api.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Accounts:      handler.NewAccountHandler(accountSvc, socialSvc, postSvc),
		Posts:         handler.NewPostHandler(postSvc),
		Messages:      handler.NewMessageHandler(messageSvc),
		Notifications: handler.NewNotificationHandler(notifications),
		Media:         handler.NewMediaHandler(mediaSvc),
		Realtime:      handler.NewRealtimeHandler(hub, messageSvc, cfg.JWTSecret, wsConfig(cfg.WebSocket), cfg.CORSOrigins, log),
		Health: handlers.NewHealthHandler(map[string]handlers.Check{
			"mongodb": handlers.MongoCheck(db),
			"redis":   handlers.RedisCheck(rdb),
		}, hub.Sessions),
	}, routerCfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          logger.Bridge(log, zerolog.ErrorLevel),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Str("relay", cfg.RelayDriver).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	if redisRelay != nil {
		g.Go(func() error {
			return redisRelay.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Sessions are hijacked connections that Shutdown does not wait for.
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func newMediaStorage(ctx context.Context, cfg *config.Config) (ports.MediaStorage, error) {
	if cfg.Storage.Driver == config.StorageS3 {
		s3cfg := cfg.Storage.S3
		return storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:        s3cfg.Endpoint,
			Region:          s3cfg.Region,
			Bucket:          s3cfg.Bucket,
			AccessKeyID:     s3cfg.AccessKey,
			SecretAccessKey: s3cfg.SecretKey,
			UsePathStyle:    s3cfg.UsePathStyle,
			PublicURL:       s3cfg.PublicURL,
		})
	}
	return storage.NewLocalStorage(cfg.Storage.LocalPath, cfg.Storage.PublicBaseURL)
}

func wsConfig(c config.WebSocketConfig) realtime.Config {
	return realtime.Config{
		WriteWait:      c.WriteWait,
		PongWait:       c.PongWait,
		PingInterval:   c.PingInterval,
		MaxMessageSize: c.MaxMessageSize,
		SendBuffer:     c.SendBuffer,
	}
}
