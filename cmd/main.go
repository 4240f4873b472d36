package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"reflowctl/internal/handlers"
	"reflowctl/internal/logger"
	"reflowctl/internal/models"
	"reflowctl/internal/repository"
	"reflowctl/internal/server"
	"reflowctl/internal/service"
)

func main() {
	if err := loadConfig(); err != nil {
		// Logger level comes from config, so bootstrap one at info first.
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log_level"))

	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite archive", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Errorw("failed to close sqlite archive", "err", cerr)
		}
	}()

	// Wire dependencies.
	repos := repository.NewRepository(db)
	services := service.NewService(repos, log, pollInterval())
	apiHandler := handlers.NewHandler(services, log)

	// Optionally connect to the configured device right away.
	autoConnect(services, log)

	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	waitForShutdown(services, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	viper.SetDefault("port", "8090")
	viper.SetDefault("log_level", logger.InfoLevel)
	return viper.ReadInConfig()
}

func pollInterval() time.Duration {
	if ms := viper.GetInt("poll.interval_ms"); ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return service.DefaultPollInterval
}

func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "reflowctl.db")
		dbPath = "reflowctl.db"
	}
	return repository.InitDB(dbPath)
}

// autoConnect honors the device.* config section; a failed attempt is logged
// and the bridge stays up for a manual connect.
func autoConnect(services *service.Service, log *logger.Logger) {
	kind := viper.GetString("device.kind")
	if kind == "" {
		return
	}
	cfg := models.ConnConfig{
		Kind: models.ConnKind(kind),
		Port: viper.GetString("device.port"),
		Baud: viper.GetInt("device.baud"),
		Host: viper.GetString("device.host"),
	}
	if err := services.Connect(cfg); err != nil {
		log.Warnw("auto-connect failed", "endpoint", cfg.String(), "err", err)
		return
	}
	services.Poller.Start()
	log.Infow("auto-connected", "endpoint", cfg.String())
}

// runHTTPServer runs the bridge in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks on termination signals, then stops polling, closes
// the device link and drains the HTTP server.
func waitForShutdown(services *service.Service, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")

	services.Poller.Stop()
	if err := services.Disconnect(); err != nil {
		log.Warnw("device disconnect failed", "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
