package main

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"marguerite.stanford.edu/internal/appconf"
	"marguerite.stanford.edu/internal/gtfs"
	"marguerite.stanford.edu/internal/realtime"
)

const defaultGtfsURL = "https://transportation.stanford.edu/marguerite/gtfs/marguerite.zip"

// options are the settings that do not belong to a library config.
type options struct {
	natsURL string
	liveMap bool
}

// loadConfig reads flags from args. Environment variables supply the
// defaults, so a flag always wins over the environment.
func loadConfig(args []string) (appconf.Config, gtfs.Config, options, error) {
	var (
		cfg     appconf.Config
		gtfsCfg gtfs.Config
		opts    options
		errs    []error
	)

	envInt := func(key string, fallback int) int {
		n, err := appconf.GetEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}
	envDuration := func(key string, fallback time.Duration) time.Duration {
		d, err := appconf.GetEnvDuration(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}

	var envFlag, apiKeysFlag string
	var silentRetries int

	fs := flag.NewFlagSet("marguerite", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", envInt("PORT", 4000), "API server port")
	fs.StringVar(&envFlag, "env", appconf.GetEnv("ENV", "development"), "Environment (development|test|production)")
	fs.StringVar(&apiKeysFlag, "api-keys", appconf.GetEnv("API_KEYS", "test"), "Comma Separated API Keys (test, etc)")
	fs.IntVar(&cfg.RateLimit, "rate-limit", envInt("RATE_LIMIT", 100), "Requests per second per API key; negative disables limiting")
	fs.StringVar(&cfg.LogLevel, "log-level", appconf.GetEnv("LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")

	fs.StringVar(&gtfsCfg.GtfsURL, "gtfs-url", appconf.GetEnv("GTFS_URL", defaultGtfsURL), "URL or path of the static GTFS zip file")
	fs.StringVar(&gtfsCfg.GTFSDataPath, "data-path", appconf.GetEnv("GTFS_DATA_PATH", "./marguerite.db"), "SQLite database path")
	fs.DurationVar(&gtfsCfg.StaticRefreshInterval, "static-refresh", envDuration("STATIC_REFRESH_INTERVAL", gtfs.DefaultStaticRefreshInterval), "Static GTFS refresh interval")
	fs.IntVar(&gtfsCfg.MaxDepartures, "max-departures", envInt("MAX_DEPARTURES", gtfs.DefaultMaxDepartures), "Departures returned per stop")
	fs.BoolVar(&gtfsCfg.Verbose, "verbose", false, "Log import details")

	rt := realtime.DefaultConfig()
	fs.StringVar(&rt.FeedURL, "feed-url", appconf.GetEnv("VEHICLE_FEED_URL", rt.FeedURL), "Vendor vehicle location feed")
	fs.StringVar(&rt.LookupURL, "lookup-url", appconf.GetEnv("VEHICLE_LOOKUP_URL", ""), "Vendor vehicle route lookup service; empty disables live shuttles")
	fs.DurationVar(&rt.PollInterval, "poll-interval", envDuration("POLL_INTERVAL", rt.PollInterval), "Delay between successful poll cycles")
	fs.DurationVar(&rt.RequestTimeout, "request-timeout", envDuration("REQUEST_TIMEOUT", rt.RequestTimeout), "Timeout of each vendor request")
	fs.IntVar(&silentRetries, "silent-retries", envInt("SILENT_RETRIES", int(rt.SilentRetries)), "Retries before a failed cycle is surfaced")
	fs.StringVar(&rt.StaticTablesPath, "static-tables", appconf.GetEnv("STATIC_TABLES_PATH", ""), "YAML farebox and depot tables; empty uses the bundled tables")

	fs.StringVar(&opts.natsURL, "nats-url", appconf.GetEnv("NATS_URL", ""), "NATS server for shuttle updates; empty disables publishing")
	fs.BoolVar(&opts.liveMap, "live-map", appconf.GetEnv("LIVE_MAP", "") == "true", "Poll the vendor from startup")

	if err := fs.Parse(args); err != nil {
		return cfg, gtfsCfg, opts, err
	}
	if err := errors.Join(errs...); err != nil {
		return cfg, gtfsCfg, opts, err
	}
	if silentRetries < 0 {
		return cfg, gtfsCfg, opts, fmt.Errorf("invalid -silent-retries %d: must not be negative", silentRetries)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, gtfsCfg, opts, fmt.Errorf("invalid -port %d", cfg.Port)
	}

	cfg.Env = appconf.EnvFlagToEnvironment(envFlag)
	cfg.ApiKeys = appconf.ParseAPIKeys(apiKeysFlag)
	rt.SilentRetries = uint64(silentRetries)

	gtfsCfg.Env = cfg.Env
	gtfsCfg.Realtime = rt

	return cfg, gtfsCfg, opts, nil
}
