package realtime

import "time"

const (
	DefaultFeedURL        = "http://lbre-apps.stanford.edu/transportation/stanford_ivl/locations.cfm"
	DefaultPollInterval   = 15 * time.Second
	DefaultRequestTimeout = 12 * time.Second
	DefaultSilentRetries  = 1
)

// Config controls the live shuttle pipeline.
type Config struct {
	FeedURL   string
	LookupURL string
	// PollInterval separates a successful cycle from the next one. Earlier
	// deployments used 5s, 15s and 30s.
	PollInterval   time.Duration
	RequestTimeout time.Duration
	// SilentRetries is how many times a failed cycle is re-run before the
	// failure is surfaced.
	SilentRetries    uint64
	StaticTablesPath string
	SubscriberBuffer int
}

func DefaultConfig() Config {
	return Config{
		FeedURL:        DefaultFeedURL,
		PollInterval:   DefaultPollInterval,
		RequestTimeout: DefaultRequestTimeout,
		SilentRetries:  DefaultSilentRetries,
	}
}

// Enabled reports whether both vendor endpoints are configured.
func (c Config) Enabled() bool {
	return c.FeedURL != "" && c.LookupURL != ""
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = defaultSubscriberBuffer
	}
	return c
}
