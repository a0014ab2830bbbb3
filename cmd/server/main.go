package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"nursehub-api/internal/auth"
	"nursehub-api/internal/config"
	"nursehub-api/internal/handler"
	"nursehub-api/internal/jobs"
	"nursehub-api/internal/middleware"
	"nursehub-api/internal/notify"
	"nursehub-api/internal/rpc"
	"nursehub-api/internal/store"
	"nursehub-api/internal/workflow"
)

func main() {
	_ = godotenv.Load()
	logger := newLogger(os.Getenv("APP_ENV"))
	defer logger.Sync()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	// database
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer pool.Close()
	st := store.New(pool)
	if err := st.Ping(ctx); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	logger.Info("connected to postgres")

	// run migrations
	if migration, err := os.ReadFile("db/migrations/001_init.sql"); err != nil {
		logger.Warn("migration file not found, skipping", zap.Error(err))
	} else if err := st.Migrate(ctx, string(migration)); err != nil {
		logger.Warn("migration failed", zap.Error(err))
	} else {
		logger.Info("migration applied")
	}

	// domain
	notifier := notify.NewGateway(
		notify.NewSMTPMailer(cfg.SMTP, logger),
		notify.NewTwilioTexter(cfg.Twilio, logger),
		logger,
	)
	appts := workflow.New(st, notifier, workflow.Options{
		OperatorPhone: cfg.AdminPhone,
		CountryCode:   cfg.CountryCode,
		NotifyTimeout: cfg.NotifyTimeout,
	}, logger)
	gate := auth.NewSessionGate(st, cfg.JWTSecret, cfg.SessionTTL, logger)

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	defer rl.Close()

	// http api
	h := handler.New(appts, gate, handler.Options{
		Health:       st.Ping,
		SecureCookie: !cfg.Development(),
	}, logger)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h.Routes(rl),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http listening", zap.String("port", cfg.HTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http", zap.Error(err))
		}
	}()

	// grpc admin service
	var grpcStop func()
	if cfg.GRPCPort != "" {
		srv := rpc.NewServer(rpc.NewService(appts, gate, logger), rl)
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			logger.Fatal("grpc listen", zap.Error(err))
		}
		go func() {
			logger.Info("grpc listening", zap.String("port", cfg.GRPCPort))
			if err := srv.Serve(lis); err != nil {
				logger.Error("grpc", zap.Error(err))
			}
		}()
		grpcStop = srv.GracefulStop
	}

	// maintenance
	sched := jobs.New(logger)
	if err := sched.PruneSessions(jobs.PruneSchedule, st, time.Minute); err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}
	sched.Start()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if grpcStop != nil {
		grpcStop()
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	sched.Stop(shutdownCtx)
}

func newLogger(env string) *zap.Logger {
	build := zap.NewProduction
	if env == "development" {
		build = zap.NewDevelopment
	}
	logger, err := build()
	if err != nil {
		return zap.NewExample()
	}
	return logger
}
