package gtfsdb

import "marguerite.stanford.edu/internal/appconf"

// Config holds configuration options for the Client
type Config struct {
	DBPath  string // Path to SQLite database file, or ":memory:"
	Env     appconf.Environment
	verbose bool
}

func NewConfig(dbPath string, env appconf.Environment, verbose bool) Config {
	return Config{
		DBPath:  dbPath,
		Env:     env,
		verbose: verbose,
	}
}

func (c Config) inMemory() bool {
	return c.DBPath == ":memory:"
}
