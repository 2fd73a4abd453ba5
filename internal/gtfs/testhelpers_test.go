package gtfs

import (
	"testing"

	"github.com/stretchr/testify/require"
	"marguerite.stanford.edu/internal/appconf"
	"marguerite.stanford.edu/internal/models"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		GtfsURL:      models.GetFixturePath(t, "marguerite.zip"),
		GTFSDataPath: ":memory:",
		Env:          appconf.Test,
	}
}

func newTestManager(t *testing.T, config Config) *Manager {
	t.Helper()

	manager, err := InitGTFSManager(config)
	require.NoError(t, err, "Failed to initialize GTFS manager")
	require.NotNil(t, manager)
	t.Cleanup(manager.Shutdown)
	return manager
}

func stopIDs(stops []models.Stop) []string {
	ids := make([]string, 0, len(stops))
	for _, s := range stops {
		ids = append(ids, s.ID)
	}
	return ids
}
