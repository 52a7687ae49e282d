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

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/triangletodd/flasktasks/app/config"
	"github.com/triangletodd/flasktasks/app/controllers"
	"github.com/triangletodd/flasktasks/app/export"
	"github.com/triangletodd/flasktasks/app/logging"
	"github.com/triangletodd/flasktasks/app/routes"
	"github.com/triangletodd/flasktasks/app/services"
	"github.com/triangletodd/flasktasks/app/storage"
	"github.com/triangletodd/flasktasks/app/views"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := buildCLI().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildCLI sets up the command line interface for the server.
func buildCLI() *cli.App {
	app := cli.NewApp()
	app.Name = "flasktasks"
	app.Usage = "single-user task tracker with nested subtasks"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "path to a TOML config file",
			EnvVar: config.EnvKeyConfig,
		},
		cli.StringFlag{
			Name:   "addr",
			Usage:  "address to listen on",
			EnvVar: config.EnvKeyAddr,
		},
		cli.StringFlag{
			Name:   "db",
			Usage:  "path to the SQLite database file",
			EnvVar: config.EnvKeyDBPath,
		},
		cli.StringFlag{
			Name:   "secret-key",
			Usage:  "session cookie signing key",
			EnvVar: config.EnvKeySecretKey,
		},
		cli.StringFlag{
			Name:   "log-level",
			Usage:  "log level (debug, info, warn, error)",
			EnvVar: config.EnvKeyLogLevel,
		},
	}
	app.Action = run
	return app
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Addr = addr
	}
	if db := c.String("db"); db != "" {
		cfg.DBPath = db
	}
	if key := c.String("secret-key"); key != "" {
		cfg.SecretKey = key
	}
	if level := c.String("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	return serve(cfg, logger)
}

func serve(cfg *config.Config, logger *zap.Logger) error {
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	sessionKey, generated, err := cfg.SessionKey()
	if err != nil {
		return err
	}
	if generated {
		logger.Warn("no secret key configured, flash messages will not survive a restart")
	}

	renderer, err := views.New()
	if err != nil {
		return err
	}

	// Initialize the service layer
	taskService := services.NewTaskService(db)

	// Initialize the controller layer
	store := sessions.NewCookieStore(sessionKey)
	exporter := export.NewExporter(taskService)
	taskController := controllers.NewTaskController(taskService, renderer, exporter, store, logger)

	// Setup HTTP server
	router := mux.NewRouter()
	routes.RegisterRoutes(router, taskController, logger)

	handler := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(logger)),
	)(router)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBPath))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
