package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/primecode/internal/config"
	"github.com/yukikurage/primecode/internal/database"
	"github.com/yukikurage/primecode/internal/logger"
	"github.com/yukikurage/primecode/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; fall back to a default one.
		logger.New("production", "error").Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	rdb := database.ConnectRedis(context.Background(), cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	r := router.New(router.Deps{
		Config: cfg,
		DB:     db,
		Log:    log,
		Redis:  rdb,
	})

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	go func() {
		log.Infof("Server starting on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
		return
	}
	log.Info("Server exited")
}
