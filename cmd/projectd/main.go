package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/johnassefatheeth/pm-f-d/internal/config"
	"github.com/johnassefatheeth/pm-f-d/internal/server/cache"
	"github.com/johnassefatheeth/pm-f-d/internal/server/handler"
	"github.com/johnassefatheeth/pm-f-d/internal/server/httpserver"
	"github.com/johnassefatheeth/pm-f-d/internal/server/repository"
	"github.com/johnassefatheeth/pm-f-d/internal/server/service"
	pkgconfig "github.com/johnassefatheeth/pm-f-d/pkg/config"
	"github.com/johnassefatheeth/pm-f-d/pkg/db"
	"github.com/johnassefatheeth/pm-f-d/pkg/logger"
	"github.com/johnassefatheeth/pm-f-d/pkg/mq"
	"github.com/johnassefatheeth/pm-f-d/pkg/otel"
	"github.com/johnassefatheeth/pm-f-d/pkg/redis"
)

func main() {
	cfg, err := config.LoadServer(pkgconfig.GetConfigEnv(), pkgconfig.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		stdlog.Fatalf("projectd: %v", err)
	}

	log, err := logger.NewLogger(cfg.Log)
	if err != nil {
		stdlog.Fatalf("projectd: init logger: %v", err)
	}
	defer log.Sync()

	log.Info("Starting projectd...",
		zap.String("db_host", cfg.DB.Host),
		zap.String("redis_addr", cfg.Redis.Addr),
		zap.Bool("mq_enabled", cfg.MQ.URL != ""),
	)

	shutdownTracing, err := otel.Init(cfg.OTel, log)
	if err != nil {
		log.Fatal("Failed to init tracing", zap.Error(err))
	}
	defer shutdownTracing()

	ctx := context.Background()
	var (
		projectRepo   service.ProjectRepository
		milestoneRepo service.MilestoneRepository
		checks        []httpserver.ReadinessCheck
		opts          []service.Option
	)

	// DB
	if cfg.DB.Enabled() {
		log.Info("Initializing database connection...")
		dbConn, err := db.NewConnection(ctx, cfg.DB, log)
		if err != nil {
			log.Fatal("Failed to init DB", zap.Error(err))
		}
		defer dbConn.Close()
		if err := repository.Migrate(ctx, dbConn); err != nil {
			log.Fatal("Failed to migrate DB", zap.Error(err))
		}
		projectRepo = repository.NewPostgresProjects(dbConn, log)
		milestoneRepo = repository.NewPostgresMilestones(dbConn, log)
		checks = append(checks, httpserver.ReadinessCheck{Name: "db", Check: dbConn.Ping})
		log.Info("Database connection established successfully")
	} else {
		log.Warn("No database configured, using in-memory storage")
		mem := repository.NewMemory()
		projectRepo = mem.Projects()
		milestoneRepo = mem.Milestones()
	}

	// Redis
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to init redis", zap.Error(err))
		}
		defer rdb.Close()
		opts = append(opts, service.WithCache(cache.NewProjectCache(rdb, cfg.Redis.TTL, log)))
		checks = append(checks, httpserver.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}

	// MQ
	if cfg.MQ.URL != "" {
		publisher, err := mq.NewPublisher(cfg.MQ)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer publisher.Close()
		opts = append(opts, service.WithPublisher(publisher))
		checks = append(checks, httpserver.ReadinessCheck{Name: "mq", Check: func(context.Context) error {
			if !publisher.IsConnected() {
				return errors.New("publisher disconnected")
			}
			return nil
		}})
	}

	svc := service.New(projectRepo, milestoneRepo, log, opts...)

	// HTTP Server
	router := httpserver.NewRouter(handler.NewProjectHandler(svc, log), log, httpserver.Options{
		JWTSecret: cfg.JWT.Secret,
		Checks:    checks,
	})
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("projectd is fully initialized and running", zap.String("http_port", cfg.Server.Port))

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down projectd gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("projectd shutdown complete")
}
