package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"secure_blog/internal/auth"
	"secure_blog/internal/config"
	"secure_blog/internal/handlers"
	"secure_blog/internal/logger"
	"secure_blog/internal/repository"
	"secure_blog/internal/repository/db"
	"secure_blog/internal/server"
	"secure_blog/internal/service"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// @title        Secure Blog API
// @version      1.0
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load configs/config.yml, .env and BLOG_* env
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel, logger.ConsoleEncoding).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.Log.Level, cfg.Log.Encoding)
	defer func() { _ = log.Sync() }()

	startCtx, startCancel := context.WithTimeout(context.Background(), startupTimeout)
	defer startCancel()

	// open DB and apply migrations
	conn, dialect, err := db.Open(startCtx, cfg.DB.Driver, dbSource(cfg.DB), log)
	if err != nil {
		log.Fatalw("failed to init database", "driver", cfg.DB.Driver, "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close database", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn, dialect)
	passwords := auth.NewPasswords(cfg.Auth.BcryptCost)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	services := service.NewService(repos, passwords, tokens, log)

	if cfg.Admin.Email != "" {
		if err := services.Users.EnsureAdmin(startCtx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatalw("failed to seed admin", "email", cfg.Admin.Email, "err", err)
		}
	}

	apiHandler := handlers.NewHandler(services, log, cfg.Server.RequestTimeout)

	// start HTTP server
	srv := &server.Server{RequestTimeout: cfg.Server.RequestTimeout}
	runHTTPServer(srv, cfg.Server.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, log)
}

func dbSource(c config.DBConfig) string {
	if c.Driver == config.DriverPostgres {
		return c.DSN
	}
	return c.Path
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http server starting", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
