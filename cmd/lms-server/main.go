package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/eduelevate/lms/pkg/api"
	"github.com/eduelevate/lms/pkg/auth"
	"github.com/eduelevate/lms/pkg/config"
	"github.com/eduelevate/lms/pkg/observability"
	"github.com/eduelevate/lms/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("info", "text", nil).WithError(err).Fatal("loading configuration")
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)

	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.WithError(err).Fatal("opening database")
	}
	defer db.Close()
	logger.WithFields(map[string]interface{}{
		"driver": cfg.Database.Driver,
	}).Info("database ready")

	codec := auth.NewTokenCodec([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	users := store.NewUserStore(db)
	metrics := observability.NewMetrics(nil)

	server := api.NewServer(api.Options{
		Authenticator:    auth.NewAuthenticator(users, codec),
		TokenCodec:       codec,
		Users:            users,
		Courses:          store.NewCourseStore(db),
		Enrollments:      store.NewEnrollmentStore(db),
		Lessons:          store.NewLessonStore(db),
		Logger:           logger,
		Metrics:          metrics,
		Health:           observability.NewHealthHandler(db.DB),
		OpenRegistration: cfg.Auth.OpenRegistration,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown incomplete")
	}
}
