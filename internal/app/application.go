package app

import (
	"log/slog"

	"marguerite.stanford.edu/internal/appconf"
	"marguerite.stanford.edu/internal/gtfs"
	"marguerite.stanford.edu/internal/metrics"
	"marguerite.stanford.edu/internal/publisher"
)

// Application holds the dependencies shared by the HTTP handlers, helpers
// and middleware.
type Application struct {
	Config      appconf.Config
	GtfsConfig  gtfs.Config
	Logger      *slog.Logger
	GtfsManager *gtfs.Manager
	Metrics     *metrics.Collector
	// Publisher is nil unless NATS is configured.
	Publisher *publisher.NATSPublisher
}

// Shutdown releases everything the application owns.
func (app *Application) Shutdown() {
	if app.GtfsManager != nil {
		app.GtfsManager.Shutdown()
	}
	if app.Publisher != nil {
		app.Publisher.Close()
	}
}
