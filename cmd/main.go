// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/happening-registration/internal/admission"
	"github.com/Shivanand-hulikatti/happening-registration/internal/config"
	"github.com/Shivanand-hulikatti/happening-registration/internal/database"
	"github.com/Shivanand-hulikatti/happening-registration/internal/handler"
	"github.com/Shivanand-hulikatti/happening-registration/internal/logger"
	"github.com/Shivanand-hulikatti/happening-registration/internal/notify"
	"github.com/Shivanand-hulikatti/happening-registration/internal/repository"
	"github.com/Shivanand-hulikatti/happening-registration/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	os.Exit(exitCode(zlog, run(cfg, zlog)))
}

// exitCode logs a failed run and flushes the logger. os.Exit skips
// deferred calls, so the flush has to happen before it.
func exitCode(zlog *zap.Logger, err error) int {
	code := 0
	if err != nil {
		zlog.Error("server exited", zap.Error(err))
		code = 1
	}
	_ = zlog.Sync()
	return code
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect to PostgreSQL and migrate ──────────────────────────────
	pool, err := database.NewPool(ctx, cfg.Database, zlog)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(pool, zlog); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// ── 2. Redis, admission control and notification delivery ─────────────
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			zlog.Warn("redis unreachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
	}

	var limiter admission.Limiter
	switch cfg.Admission.Backend {
	case config.BackendRedis:
		limiter = admission.NewRedisLimiter(rdb, "happening:admission", cfg.Admission.Limit, cfg.Admission.Window)
	default:
		limiter = admission.NewMemoryLimiter(cfg.Admission.Limit, cfg.Admission.Window)
	}

	var mailer notify.Mailer
	if cfg.Mail.SendGridAPIKey != "" {
		mailer = notify.NewSendGridMailer(cfg.Mail.SendGridAPIKey)
	} else {
		zlog.Warn("no sendgrid key configured, e-mails will only be logged")
		mailer = notify.NewLogMailer(zlog)
	}

	var dispatcher notify.Dispatcher
	switch cfg.Mail.Queue {
	case config.QueueAsynq:
		redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}

		client := asynq.NewClient(redisOpt)
		defer client.Close()
		dispatcher = notify.NewTaskQueue(client)

		worker := asynq.NewServer(redisOpt, asynq.Config{Concurrency: cfg.Mail.Workers})
		if err := worker.Start(notify.NewTaskMux(mailer, zlog)); err != nil {
			return fmt.Errorf("start e-mail worker: %w", err)
		}
		defer worker.Shutdown()
	default:
		queue := notify.NewQueue(mailer, cfg.Mail.Workers, cfg.Mail.QueueSize, zlog)
		defer queue.Close()
		dispatcher = queue
	}

	sender, err := notify.NewSender(dispatcher, cfg.Mail, cfg.Server, cfg.Feature, zlog)
	if err != nil {
		return err
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	happeningRepo := repository.NewHappeningRepository(pool, zlog)
	registrationRepo := repository.NewRegistrationRepository(pool, zlog)

	happeningSvc := service.NewHappeningService(happeningRepo, registrationRepo, sender,
		service.NewTokenFunc(cfg.Server.Dev()), zlog)
	registrationSvc := service.NewRegistrationService(happeningRepo, registrationRepo, sender, zlog)

	h := handler.New(happeningSvc, registrationSvc, zlog)
	router := handler.NewRouter(h, limiter, cfg.Auth, zlog)

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
			zap.String("admission", cfg.Admission.Backend),
			zap.String("mail_queue", cfg.Mail.Queue),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	zlog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	zlog.Info("server stopped")
	return nil
}
