package gtfs

import (
	"log/slog"
	"strings"
	"time"

	"marguerite.stanford.edu/internal/appconf"
	"marguerite.stanford.edu/internal/models"
	"marguerite.stanford.edu/internal/realtime"
)

const (
	DefaultStaticRefreshInterval = 24 * time.Hour
	DefaultMaxDepartures         = 20
)

// DefaultRegionCenter is the middle of the Stanford campus.
var DefaultRegionCenter = models.Location{Lat: 37.432233, Lon: -122.171183}

type Config struct {
	// GtfsURL is either an http(s) URL or a path to a local zip.
	GtfsURL               string
	GTFSDataPath          string
	Env                   appconf.Environment
	Verbose               bool
	StaticRefreshInterval time.Duration
	MaxDepartures         int
	RegionCenter          *models.Location

	Realtime realtime.Config

	// Logger and Metrics are optional.
	Logger  *slog.Logger
	Metrics realtime.MetricsRecorder
}

func (config Config) isLocalFile() bool {
	return !strings.HasPrefix(config.GtfsURL, "http://") && !strings.HasPrefix(config.GtfsURL, "https://")
}

func (config Config) realTimeDataEnabled() bool {
	return config.Realtime.Enabled()
}

func (config Config) withDefaults() Config {
	if config.StaticRefreshInterval <= 0 {
		config.StaticRefreshInterval = DefaultStaticRefreshInterval
	}
	if config.MaxDepartures <= 0 {
		config.MaxDepartures = DefaultMaxDepartures
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return config
}
