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

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/nurpe/pointage/internal/auth"
	"github.com/nurpe/pointage/internal/config"
	"github.com/nurpe/pointage/internal/db"
	"github.com/nurpe/pointage/internal/excel"
	httphandler "github.com/nurpe/pointage/internal/http"
	"github.com/nurpe/pointage/internal/http/middleware"
	"github.com/nurpe/pointage/internal/logger"
	"github.com/nurpe/pointage/internal/pdf"
	"github.com/nurpe/pointage/internal/repository"
	"github.com/nurpe/pointage/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	stateRepo := repository.NewStateRepository(database)
	statusRepo := repository.NewStatusRepository(database)

	timesheets := service.NewTimesheetService(stateRepo, excel.NewGenerator(), pdf.NewGenerator(), log)
	status := service.NewStatusService(statusRepo, cfg.Version)

	var authMiddleware gin.HandlerFunc
	if cfg.Auth.AccessSecret != "" {
		authMiddleware = middleware.Auth(auth.NewParser(cfg.Auth.AccessSecret))
	}
	handler := httphandler.NewHandler(timesheets, status, log)
	router := httphandler.NewRouter(handler, authMiddleware, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info().
			Str("addr", addr).
			Str("environment", cfg.Environment).
			Str("cors_origin", cfg.HTTP.ClientURL).
			Bool("auth", authMiddleware != nil).
			Msg("starting pointage service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		return db.Monitor(ctx, database, cfg.DB.PingInterval, log)
	})
	group.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return db.Close(database)
	})

	if err := group.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
	log.Info().Msg("connections closed")
}
