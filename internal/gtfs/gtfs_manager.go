package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"marguerite.stanford.edu/gtfsdb"
	"marguerite.stanford.edu/internal/logging"
	"marguerite.stanford.edu/internal/models"
	"marguerite.stanford.edu/internal/realtime"
	"marguerite.stanford.edu/internal/utils"
)

const (
	departureCacheSize = 512
	shapeCacheSize     = 64
)

// Manager owns the static catalog database, the in-memory catalog built from
// it and the live shuttle controller.
type Manager struct {
	GtfsDB   *gtfsdb.Client
	config   Config
	logger   *slog.Logger
	shuttles *realtime.Controller

	catalogMutex sync.RWMutex
	catalog      *catalog

	departureCache gcache.Cache
	shapeCache     gcache.Cache

	shutdownChan chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// InitGTFSManager imports the static feed, builds the catalog and, when both
// vendor endpoints are configured, the live shuttle controller. The
// controller stays idle until a client starts viewing the live map.
func InitGTFSManager(config Config) (*Manager, error) {
	config = config.withDefaults()

	manager := &Manager{
		config:         config,
		logger:         logging.Component(config.Logger, "gtfs_manager"),
		departureCache: gcache.New(departureCacheSize).LRU().Expiration(time.Minute).Build(),
		shapeCache:     gcache.New(shapeCacheSize).LRU().Build(),
		shutdownChan:   make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), staticDownloadTimeout)
	defer cancel()

	gtfsDB, err := buildGtfsDB(ctx, config)
	if err != nil {
		if gtfsDB != nil {
			logging.SafeCloseWithLogging(gtfsDB, manager.logger, "gtfs_database")
		}
		return nil, fmt.Errorf("error building GTFS database: %w", err)
	}
	manager.GtfsDB = gtfsDB

	if err := manager.reloadCatalog(ctx); err != nil {
		logging.SafeCloseWithLogging(gtfsDB, manager.logger, "gtfs_database")
		return nil, err
	}

	if config.realTimeDataEnabled() {
		controller, err := realtime.NewHTTPController(config.Realtime, manager, config.Logger, config.Metrics)
		if err != nil {
			logging.SafeCloseWithLogging(gtfsDB, manager.logger, "gtfs_database")
			return nil, fmt.Errorf("error creating shuttle controller: %w", err)
		}
		manager.shuttles = controller
	} else {
		logging.LogOperation(manager.logger, "realtime_disabled",
			slog.String("reason", "feed or lookup URL not configured"))
	}

	if !config.isLocalFile() {
		manager.wg.Add(1)
		go manager.updateStaticGTFS()
	}

	return manager, nil
}

// Shutdown stops the refresh loop and the shuttle controller and closes the
// database. It is safe to call more than once.
func (manager *Manager) Shutdown() {
	manager.shutdownOnce.Do(func() {
		close(manager.shutdownChan)
		manager.wg.Wait()
		if manager.shuttles != nil {
			manager.shuttles.Shutdown()
		}
		if manager.GtfsDB != nil {
			logging.SafeCloseWithLogging(manager.GtfsDB, manager.logger, "gtfs_database")
		}
	})
}

// Shuttles returns the live shuttle controller, or nil when realtime is disabled.
func (manager *Manager) Shuttles() *realtime.Controller {
	return manager.shuttles
}

func (manager *Manager) currentCatalog() *catalog {
	manager.catalogMutex.RLock()
	defer manager.catalogMutex.RUnlock()
	return manager.catalog
}

func (manager *Manager) setCatalog(c *catalog) {
	manager.catalogMutex.Lock()
	manager.catalog = c
	manager.catalogMutex.Unlock()

	manager.departureCache.Purge()
	manager.shapeCache.Purge()
}

// Routes returns every route ordered by short name.
func (manager *Manager) Routes() []models.Route {
	return append([]models.Route(nil), manager.currentCatalog().routes...)
}

// RouteByID satisfies realtime.RouteLookup.
func (manager *Manager) RouteByID(id string) (models.Route, bool) {
	route, ok := manager.currentCatalog().routesByID[id]
	return route, ok
}

func (manager *Manager) Stops() []models.Stop {
	return append([]models.Stop(nil), manager.currentCatalog().stops...)
}

func (manager *Manager) StopByID(id string) (models.Stop, bool) {
	stop, ok := manager.currentCatalog().stopsByID[id]
	return stop, ok
}

func (manager *Manager) Agencies() []models.AgencyReference {
	return append([]models.AgencyReference(nil), manager.currentCatalog().agencies...)
}

// Location is the agency timezone used for service days.
func (manager *Manager) Location() *time.Location {
	return manager.currentCatalog().location
}

func (manager *Manager) LastUpdated() time.Time {
	return manager.currentCatalog().loadedAt
}

// RegionCenter is where the map opens.
func (manager *Manager) RegionCenter() models.Location {
	if manager.config.RegionCenter != nil {
		return *manager.config.RegionCenter
	}
	return DefaultRegionCenter
}

// Coverage is the bounding box of every stop for each agency.
func (manager *Manager) Coverage() []models.AgencyCoverage {
	c := manager.currentCatalog()
	coverage := make([]models.AgencyCoverage, 0, len(c.agencies))
	for _, a := range c.agencies {
		coverage = append(coverage, models.CoverageForStops(a.ID, c.stops))
	}
	return coverage
}

// ClosestStops returns up to n stops ordered by distance from (lat, lon),
// each annotated with its distance in meters.
func (manager *Manager) ClosestStops(lat, lon float64, n int) []models.Stop {
	stops := manager.currentCatalog().stops
	if n <= 0 || len(stops) == 0 {
		return []models.Stop{}
	}

	candidates := make([]models.Stop, 0, len(stops))
	for _, s := range stops {
		candidates = append(candidates, s.WithDistance(utils.Haversine(lat, lon, s.Lat, s.Lon)))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].Distance < *candidates[j].Distance
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// SearchStops matches query case-insensitively against stop names and codes.
func (manager *Manager) SearchStops(query string) []models.Stop {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return manager.Stops()
	}

	var matches []models.Stop
	for _, s := range manager.currentCatalog().stops {
		if s.Code == query || strings.Contains(strings.ToLower(s.Name), query) {
			matches = append(matches, s)
		}
	}
	if matches == nil {
		return []models.Stop{}
	}
	return matches
}

func (manager *Manager) PrintStatistics() {
	c := manager.currentCatalog()
	logging.LogOperation(manager.logger, "gtfs_statistics",
		slog.String("source", manager.config.GtfsURL),
		slog.Bool("local_file", manager.config.isLocalFile()),
		slog.Time("last_updated", c.loadedAt),
		slog.Int("routes", len(c.routes)),
		slog.Int("stops", len(c.stops)),
		slog.Int("agencies", len(c.agencies)),
		slog.Bool("realtime_enabled", manager.shuttles != nil))
}
