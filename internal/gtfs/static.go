package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marguerite.stanford.edu/gtfsdb"
	"marguerite.stanford.edu/internal/logging"
)

const staticDownloadTimeout = 60 * time.Second

func buildGtfsDB(ctx context.Context, config Config) (*gtfsdb.Client, error) {
	dbConfig := gtfsdb.NewConfig(config.GTFSDataPath, config.Env, config.Verbose)
	client, err := gtfsdb.NewClient(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GTFS database client: %w", err)
	}

	if config.isLocalFile() {
		err = client.ImportFromFile(ctx, config.GtfsURL)
	} else {
		err = client.DownloadAndStore(ctx, config.GtfsURL)
	}

	return client, err
}

func (manager *Manager) reloadCatalog(ctx context.Context) error {
	c, err := loadCatalog(ctx, manager.GtfsDB.Queries)
	if err != nil {
		return fmt.Errorf("error loading catalog: %w", err)
	}
	manager.setCatalog(c)

	if manager.config.Verbose {
		logging.LogOperation(manager.logger, "gtfs_catalog_loaded",
			slog.String("source", manager.config.GtfsURL),
			slog.Int("routes", len(c.routes)),
			slog.Int("stops", len(c.stops)))
	}
	return nil
}

// refreshStatic re-downloads the feed. The import is skipped by the database
// when the zip is unchanged; the catalog is rebuilt either way.
func (manager *Manager) refreshStatic(ctx context.Context) error {
	if err := manager.GtfsDB.DownloadAndStore(ctx, manager.config.GtfsURL); err != nil {
		return fmt.Errorf("error updating GTFS data: %w", err)
	}
	return manager.reloadCatalog(ctx)
}

// updateStaticGTFS refreshes URL sources on StaticRefreshInterval until shutdown.
func (manager *Manager) updateStaticGTFS() {
	defer manager.wg.Done()

	ticker := time.NewTicker(manager.config.StaticRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), staticDownloadTimeout)
			go func() {
				select {
				case <-manager.shutdownChan:
					cancel()
				case <-ctx.Done():
				}
			}()

			err := manager.refreshStatic(ctx)
			cancel()
			if err != nil {
				logging.LogError(manager.logger, "static_refresh_failed", err)
				continue
			}
			logging.LogOperation(manager.logger, "static_refresh_complete",
				slog.String("source", manager.config.GtfsURL))
		case <-manager.shutdownChan:
			logging.LogOperation(manager.logger, "static_refresh_stopped")
			return
		}
	}
}
