package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/spark/internal/app"
	"github.com/oggyb/spark/internal/cache"
	"github.com/oggyb/spark/internal/config"
	"github.com/oggyb/spark/internal/db"
	"github.com/oggyb/spark/internal/logger"
	"github.com/oggyb/spark/internal/realtime"
	"github.com/oggyb/spark/internal/server"
	"github.com/oggyb/spark/internal/service/chat"
	"github.com/oggyb/spark/internal/service/feed"
	"github.com/oggyb/spark/internal/service/match"
	"github.com/oggyb/spark/internal/service/notification"
	"github.com/oggyb/spark/internal/service/user"
	"github.com/oggyb/spark/internal/storage"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	hub := realtime.NewHub(log)
	appCtx := app.New(database, redisCache, log, cfg, hub)

	notifications := notification.NewNotificationService(appCtx)
	dispatcher := match.NewDispatcher(appCtx, notifications, 0)
	dispatcher.Start()
	defer dispatcher.Close()

	// Attachments are optional; chat works without AWS credentials.
	var presigner chat.Presigner
	if p, err := storage.NewS3Presigner(ctx, cfg); err != nil {
		log.Warn("attachment uploads disabled", "err", err)
	} else {
		presigner = p
	}
	chatService := chat.NewChatService(appCtx, presigner)

	registrars := []server.Registrar{
		user.NewRegistrar(appCtx),
		feed.NewRegistrar(appCtx),
		match.NewRegistrar(match.NewMatchService(appCtx, dispatcher)),
		chat.NewRegistrar(chatService),
		notification.NewRegistrar(notifications),
	}

	if cfg.Realtime.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty; realtime join is unauthenticated")
	}
	gateway := realtime.NewGateway(hub, chatService, realtime.NewTokenVerifier(cfg.Realtime.JWTSecret), cfg.DB.Timeout, log)
	sio := realtime.NewSocketIOServer(gateway, log)
	go func() {
		if err := sio.Serve(); err != nil {
			log.Error("socket.io server stopped", "err", err)
		}
	}()
	defer sio.Close()

	handler := server.NewHTTPHandler(cfg, realtime.NewWebSocketHandler(gateway, cfg.HTTP.CORSOrigins, log), sio, log)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.StartGRPCServer(gctx, cfg, log, registrars...)
	})
	g.Go(func() error {
		return server.ServeHTTP(gctx, cfg.HTTP.Addr, handler, log)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "err", err)
		return
	}
	log.Info("shutdown complete")
}
