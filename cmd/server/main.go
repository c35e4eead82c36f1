package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-gin-event-tickets/config"
	"go-gin-event-tickets/internal/cache"
	"go-gin-event-tickets/internal/clock"
	"go-gin-event-tickets/internal/database"
	"go-gin-event-tickets/internal/handler"
	"go-gin-event-tickets/internal/identity"
	"go-gin-event-tickets/internal/qrcode"
	"go-gin-event-tickets/internal/queue"
	"go-gin-event-tickets/internal/repository"
	"go-gin-event-tickets/internal/service"
	"go-gin-event-tickets/internal/storage"
	"go-gin-event-tickets/internal/worker"
	"go-gin-event-tickets/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	defer logger.Sync()
	log := logger.WithComponent("main")

	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(&cfg.Database); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Fatal("Invalid timezone", zap.String("timezone", cfg.App.Timezone), zap.Error(err))
	}
	clk := clock.NewSystem(loc)

	resolver, err := newResolver(ctx, &cfg.Auth, rdb)
	if err != nil {
		log.Fatal("Failed to initialize identity resolver", zap.Error(err))
	}

	activityQueue, closeQueue, err := newActivityQueue(cfg, rdb)
	if err != nil {
		log.Fatal("Failed to initialize activity queue", zap.Error(err))
	}
	defer closeQueue()

	tx := repository.NewTransactor(pool)
	eventRepo := repository.NewEventRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	tracker := cache.NewRedisAttendanceTracker(rdb)
	images := storage.NewLocalImageStore(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL, cfg.Storage.MaxImageBytes)

	eventService := service.NewEventService(tx, eventRepo, clk, resolver)
	ticketService := service.NewTicketService(tx, eventRepo, ticketRepo, clk, resolver, images, qrcode.NewGenerator(), activityQueue, tracker)

	attendanceWorker := worker.NewAttendanceWorker(tracker, activityQueue)
	if err := attendanceWorker.Start(ctx); err != nil {
		log.Fatal("Failed to start attendance worker", zap.Error(err))
	}

	router := gin.Default()
	router.MaxMultipartMemory = 8 << 20
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.Static("/uploads", cfg.Storage.UploadDir)
	handler.NewEventHandler(eventService).RegisterRoutes(router)
	handler.NewTicketHandler(ticketService).RegisterRoutes(router)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}

	select {
	case <-attendanceWorker.Done():
	case <-shutdownCtx.Done():
		log.Warn("Attendance worker did not stop in time")
	}
}

func newResolver(ctx context.Context, cfg *config.AuthConfig, rdb *redis.Client) (identity.Resolver, error) {
	var (
		verifier identity.Verifier
		err      error
	)
	switch cfg.Mode {
	case "oidc":
		verifier, err = identity.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.UsernameClaim)
	default:
		verifier, err = identity.NewHMACVerifier(cfg.JWTSecret, cfg.UsernameClaim)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheTTL <= 0 {
		return identity.NewResolver(verifier), nil
	}
	return identity.NewCachedResolver(verifier, rdb, cfg.CacheTTL), nil
}

func newActivityQueue(cfg *config.Config, rdb *redis.Client) (queue.ActivityQueue, func(), error) {
	switch cfg.Queue.Driver {
	case "memory":
		return queue.NewActivityQueue(1024), func() {}, nil
	case "kafka":
		q := queue.NewKafkaActivityQueue(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
		return q, func() {
			if err := q.Close(); err != nil {
				logger.WithComponent("mq").Warn("close kafka queue failed", zap.Error(err))
			}
		}, nil
	default:
		q, err := queue.NewRedisStreamActivityQueue(rdb, cfg.Queue.ConsumerID, &queue.RedisStreamQueueConfig{
			MaxLen: cfg.Queue.StreamMaxLen,
		})
		return q, func() {}, err
	}
}
