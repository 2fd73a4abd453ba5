package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"marguerite.stanford.edu/internal/app"
	"marguerite.stanford.edu/internal/appconf"
	"marguerite.stanford.edu/internal/gtfs"
	"marguerite.stanford.edu/internal/logging"
	"marguerite.stanford.edu/internal/metrics"
	"marguerite.stanford.edu/internal/publisher"
	"marguerite.stanford.edu/internal/restapi"
	"marguerite.stanford.edu/internal/webui"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg, gtfsCfg, opts, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(cfg, gtfsCfg, opts); err != nil {
		os.Exit(1)
	}
}

// run wires the application and serves until SIGINT or SIGTERM.
func run(cfg appconf.Config, gtfsCfg gtfs.Config, opts options) error {
	logger := logging.NewStructuredLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	collector := metrics.NewCollector(gtfsCfg.Realtime.PollInterval)
	gtfsCfg.Logger = logger
	gtfsCfg.Metrics = collector

	gtfsManager, err := gtfs.InitGTFSManager(gtfsCfg)
	if err != nil {
		logging.LogError(logger, "gtfs_manager_init_failed", err)
		return err
	}
	gtfsManager.PrintStatistics()

	application := &app.Application{
		Config:      cfg,
		GtfsConfig:  gtfsCfg,
		Logger:      logger,
		GtfsManager: gtfsManager,
		Metrics:     collector,
	}
	defer application.Shutdown()

	if opts.natsURL != "" {
		pub, err := publisher.NewNATSPublisher(opts.natsURL, logging.Component(logger, "publisher"), collector)
		if err != nil {
			// Live shuttles still work without the bus.
			logging.LogError(logger, "nats_connect_failed", err)
		} else {
			application.Publisher = pub
			if controller := gtfsManager.Shuttles(); controller != nil {
				controller.AddSink(pub)
			}
		}
	}

	if controller := gtfsManager.Shuttles(); controller != nil && opts.liveMap {
		controller.SetViewingLiveMap(true)
	}

	api := restapi.NewRestAPI(application)
	defer api.Stop()

	router := httprouter.New()
	api.SetRoutes(router)
	ui := &webui.WebUI{Application: application}
	ui.SetWebUIRoutes(router)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     api.WithMiddleware(router),
		IdleTimeout: time.Minute,
		ReadTimeout: 5 * time.Second,
		// Event streams stay open, so there is no WriteTimeout.
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, srv, logger); err != nil {
		logging.LogError(logger, "server_failed", err)
		return err
	}
	return nil
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logging.LogOperation(logger, "server_starting", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.LogOperation(logger, "server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
