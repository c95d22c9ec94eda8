package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/papersync/internal/config"
	http_controllers "github.com/mrlokans/papersync/internal/http"
	"github.com/mrlokans/papersync/internal/logger"
	"github.com/mrlokans/papersync/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, log logger.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	log.Info("shutting down server", logger.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the scheduler and task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("server exiting")
	return nil
}

// Run wires the application, starts the background workers and serves the
// HTTP API until interrupted.
func Run(cfg *config.Config, log logger.Logger, version string) error {
	log.Info("starting papersync", logger.String("version", version))

	app, err := NewApp(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if err := app.Scheduler.Start(bgCtx); err != nil {
		log.Warn("sync scheduler not started", logger.Error(err))
	}

	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = app.StartTasks(bgCtx)
		if err != nil {
			log.Warn("task queue disabled", logger.Error(err))
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Config:      cfg,
		Database:    app.DB,
		Settings:    app.Settings,
		SyncService: app.SyncService,
		Runs:        app.Runs,
		Scheduler:   app.Scheduler,
		Lookup:      app.Lookup,
		TaskClient:  taskClient,
		Version:     version,
		Logger:      log,
	})

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		app.SyncService.Cancel()
		app.Scheduler.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
			if err := taskClient.Close(); err != nil {
				log.Warn("failed to close task queue", logger.Error(err))
			}
		}
		bgCancel()
	}

	return Serve(router, cfg, log, onShutdown)
}
